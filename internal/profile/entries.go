package profile

import (
	"context"
	"errors"
	"time"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/atomicio"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/usage"
)

// Entry is one rendered profile block: a header line, detail lines shown in
// usage mode, and a one-line error summary for compact listings.
type Entry struct {
	Display           string
	Details           []string
	ErrorSummary      string
	AlwaysShowDetails bool
}

// listCtx bundles everything entry building needs for one list/status run.
type listCtx struct {
	ctx       context.Context
	usage     *usage.Client
	refresh   *auth.RefreshClient
	now       time.Time
	showUsage bool
	display   config.Display
	paths     storePaths
	warn      func(string)
}

func errorSummary(label, message string) string {
	return label + ": " + normalizeError(message)
}

func makeErrorEntry(label string, fallback *IndexEntry, message, summaryLabel string, isCurrent bool, d config.Display) Entry {
	info := makeProfileInfo(nil, fallback, label, isCurrent, d)
	return Entry{
		Display:      info.Display,
		Details:      []string{formatError(message, d)},
		ErrorSummary: errorSummary(summaryLabel, message),
	}
}

// detailLines produces the usage (or error) lines under a profile header.
// On a 401 it refreshes the profile's own tokens and retries exactly once;
// refreshed reports whether the stored tokens changed so the caller can
// propagate the rewrite.
func (lc *listCtx) detailLines(cred auth.Credential, email, plan, profilePath string) (details []string, summary string, refreshed bool) {
	switch c := cred.(type) {
	case auth.APIKey:
		if lc.showUsage {
			message := "Usage unavailable for API key\nRate-limit usage data is only available for ChatGPT account profiles."
			return []string{formatError(message, lc.display)}, "", false
		}
		return nil, "", false
	case auth.OAuthTokens:
		return lc.oauthDetailLines(c, email, plan, profilePath)
	default:
		return nil, "", false
	}
}

func (lc *listCtx) oauthDetailLines(tok auth.OAuthTokens, email, plan, profilePath string) (details []string, summary string, refreshed bool) {
	if issue := auth.ProfileIssue(tok, email, plan); issue != "" {
		missingAccess := tok.AccessToken == "" || tok.Account == ""
		missingIdentityOnly := issue == auth.IssueMissingEmailPlan && !missingAccess
		if !missingIdentityOnly {
			if lc.showUsage && missingAccess && email != "" && plan != "" {
				return []string{usage.FormatUnavailable(usage.UnavailableText, lc.display)}, "", false
			}
			return []string{formatError(issue, lc.display)}, errorSummary("Error", issue), false
		}
	}
	if !lc.showUsage || lc.usage == nil || tok.AccessToken == "" || tok.Account == "" {
		return nil, "", false
	}

	lines, err := lc.fetchUsageLines(tok.AccessToken, tok.Account)
	if err == nil {
		return lines, "", false
	}
	var fetchErr *usage.FetchError
	if !errors.As(err, &fetchErr) || !fetchErr.Unauthorized() {
		return []string{formatError(err.Error(), lc.display)}, errorSummary("Usage error", err.Error()), false
	}

	// Expired access token: refresh this profile's stored tokens in place,
	// then retry the fetch once.
	if err := lc.refresh.RefreshProfileTokens(lc.ctx, profilePath, &tok); err != nil {
		return []string{formatError(err.Error(), lc.display)}, errorSummary("Auth error", err.Error()), false
	}
	if tok.AccessToken == "" {
		message := "refreshed profile is missing an access token"
		return []string{formatError(message, lc.display)}, errorSummary("Auth error", message), true
	}
	lines, err = lc.fetchUsageLines(tok.AccessToken, tok.Account)
	if err != nil {
		return []string{formatError(err.Error(), lc.display)}, errorSummary("Usage error", err.Error()), true
	}
	return lines, "", true
}

func (lc *listCtx) fetchUsageLines(accessToken, accountID string) ([]string, error) {
	limits, err := lc.usage.FetchLimits(lc.ctx, accessToken, accountID, lc.now)
	if err != nil {
		return nil, err
	}
	return usage.FormatLimits(limits, lc.display), nil
}

func (lc *listCtx) makeEntry(label string, result *credResult, fallback *IndexEntry, profilePath string, isCurrent bool) Entry {
	labelForError := label
	if labelForError == "" {
		labelForError = profileIDFromPath(profilePath)
	}
	if result == nil {
		return makeErrorEntry(labelForError, fallback, "profile file missing", "Error", isCurrent, lc.display)
	}
	if result.Err != nil {
		return makeErrorEntry(labelForError, fallback, result.Err.Error(), "Error", isCurrent, lc.display)
	}
	info := makeProfileInfo(result.Cred, nil, label, isCurrent, lc.display)
	details, summary, _ := lc.detailLines(result.Cred, info.Email, info.Plan, profilePath)
	return Entry{
		Display:           info.Display,
		Details:           details,
		ErrorSummary:      summary,
		AlwaysShowDetails: info.IsFree,
	}
}

func (lc *listCtx) makeSaved(id string, snap *Snapshot, byID map[string]string, currentID string) Entry {
	profilePath := profilePathForID(lc.paths.profilesDir, id)
	var result *credResult
	if r, ok := snap.Creds[id]; ok {
		result = &r
	}
	return lc.makeEntry(byID[id], result, snap.Index.Profiles[id], profilePath, id == currentID)
}

// makeEntries builds entries for every ordered id, fetching usage for
// several profiles concurrently. Output order always matches input order.
func (lc *listCtx) makeEntries(ordered []string, snap *Snapshot, currentID string) []Entry {
	byID := labelsByID(snap.Labels)
	build := func(id string) Entry {
		return lc.makeSaved(id, snap, byID, currentID)
	}
	if lc.showUsage && len(ordered) >= 3 {
		return usage.MapOrdered(ordered, build)
	}
	entries := make([]Entry, 0, len(ordered))
	for _, id := range ordered {
		entries = append(entries, build(id))
	}
	return entries
}

// makeCurrent builds the entry for the live auth.json, or nil when there is
// none. If a usage fetch refreshed the live tokens on disk, the rewrite is
// copied back into the matching saved profile.
func (lc *listCtx) makeCurrent(currentID string, labels Labels, creds map[string]credResult) *Entry {
	if !fileExists(lc.paths.authFile) {
		return nil
	}
	cred, err := auth.ReadCredential(lc.paths.authFile)
	if err != nil {
		entry := makeErrorEntry("", nil, err.Error(), "Error", true, lc.display)
		return &entry
	}
	effectiveID := currentID
	if effectiveID == "" {
		if identity, ok := auth.ExtractIdentity(cred); ok {
			effectiveID, _ = pickPrimary(cachedProfileIDs(creds, identity))
		}
	}
	label := labelForID(labels, effectiveID)
	info := makeProfileInfo(cred, nil, label, true, lc.display)
	isUnsaved := effectiveID == "" && auth.IsReady(cred)

	details, summary, refreshed := lc.detailLines(cred, info.Email, info.Plan, lc.paths.authFile)
	if refreshed && effectiveID != "" {
		profilePath := profilePathForID(lc.paths.profilesDir, effectiveID)
		if fileExists(profilePath) {
			if err := atomicio.CopyFile(lc.paths.authFile, profilePath); err != nil && lc.warn != nil {
				lc.warn(err.Error())
			}
		}
	}
	if isUnsaved {
		details = append(details, unsavedWarningLines(lc.display)...)
	}
	return &Entry{
		Display:           info.Display,
		Details:           details,
		ErrorSummary:      summary,
		AlwaysShowDetails: isUnsaved || (info.IsFree && !lc.showUsage),
	}
}

// renderEntries flattens entries into output lines with separators between
// blocks. Plain output suppresses separators unless explicitly allowed.
func renderEntries(entries []Entry, lc *listCtx, allowPlainSpacing bool) []string {
	var lines []string
	for i, entry := range entries {
		header := formatEntryHeader(entry.Display, lc.display)
		showDetails := lc.showUsage || entry.AlwaysShowDetails
		if !showDetails {
			if entry.ErrorSummary != "" {
				header += "  " + entry.ErrorSummary
			}
			lines = append(lines, header)
		} else {
			lines = append(lines, header)
			lines = append(lines, entry.Details...)
		}
		if i+1 < len(entries) {
			lines = pushSeparator(lines, lc.display, allowPlainSpacing)
		}
	}
	return lines
}

func pushSeparator(lines []string, d config.Display, allowPlainSpacing bool) []string {
	if !d.Plain || allowPlainSpacing {
		return append(lines, "")
	}
	return lines
}

func isAPISavedProfile(id string, snap *Snapshot) bool {
	if result, ok := snap.Creds[id]; ok && result.Err == nil {
		if _, isKey := result.Cred.(auth.APIKey); isKey {
			return true
		}
	}
	if entry, ok := snap.Index.Profiles[id]; ok {
		return entry.IsAPIKey
	}
	return false
}
