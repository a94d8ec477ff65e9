package profile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/paths"
)

// storePaths is the subset of the layout the store internals touch.
type storePaths struct {
	authFile    string
	profilesDir string
	indexFile   string
	lockFile    string
}

func newStorePaths(p paths.Paths) storePaths {
	return storePaths{
		authFile:    p.AuthFile,
		profilesDir: p.ProfilesDir,
		indexFile:   p.IndexFile,
		lockFile:    p.LockFile,
	}
}

// sanitizePart lowercases a display value into the id alphabet: ascii
// alphanumerics plus @ . - _ +, everything else a dash, runs of dashes
// collapsed and boundary dashes trimmed.
func sanitizePart(value string) string {
	var out strings.Builder
	lastDash := false
	for _, r := range value {
		var next byte
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			next = byte(r)
		case r >= 'A' && r <= 'Z':
			next = byte(r) + ('a' - 'A')
		case r == '@' || r == '.' || r == '-' || r == '_' || r == '+':
			next = byte(r)
		default:
			next = '-'
		}
		if next == '-' {
			if lastDash {
				continue
			}
			lastDash = true
		} else {
			lastDash = false
		}
		out.WriteByte(next)
	}
	return strings.Trim(out.String(), "-")
}

// profileBase builds the readable "email-plan" stem of a profile id.
func profileBase(email, plan string) string {
	emailPart := sanitizePart(email)
	planPart := sanitizePart(plan)
	if emailPart == "" {
		emailPart = "unknown"
	}
	if planPart == "" {
		planPart = "unknown"
	}
	return emailPart + "-" + planPart
}

// shortIdentitySuffix derives the disambiguation suffix from the identity:
// the first six characters of the workspace id, or of the principal when the
// workspace is unknown.
func shortIdentitySuffix(identity auth.IdentityKey) string {
	source := identity.WorkspaceOrOrgID
	if source == "unknown" {
		source = identity.PrincipalID
	}
	runes := []rune(source)
	if len(runes) > 6 {
		runes = runes[:6]
	}
	if len(runes) == 0 {
		return "id"
	}
	return string(runes)
}

// uniqueID probes profile files for an id that is free, or already belongs
// to this identity. Collisions with a different identity append the identity
// suffix, then a counter.
func uniqueID(profilesDir, base string, identity auth.IdentityKey) string {
	candidate := base
	suffix := shortIdentitySuffix(identity)
	for attempts := 0; ; {
		path := profilePathForID(profilesDir, candidate)
		if !fileExists(path) {
			return candidate
		}
		if cred, ok := auth.ReadCredentialOpt(path); ok && matchesIdentity(cred, identity) {
			return candidate
		}
		attempts++
		if attempts == 1 {
			candidate = base + "-" + suffix
		} else {
			candidate = fmt.Sprintf("%s-%s-%d", base, suffix, attempts)
		}
	}
}

func matchesIdentity(cred auth.Credential, identity auth.IdentityKey) bool {
	candidate, ok := auth.ExtractIdentity(cred)
	return ok && candidate == identity
}

// scanProfileIDs reads every profile file and keeps the ids whose stored
// credential has the given identity. Unreadable files are skipped; the scan
// is tolerant by design.
func scanProfileIDs(profilesDir string, identity auth.IdentityKey) ([]string, error) {
	files, err := profileFiles(profilesDir)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, path := range files {
		cred, ok := auth.ReadCredentialOpt(path)
		if !ok || !matchesIdentity(cred, identity) {
			continue
		}
		if id := profileIDFromPath(path); id != "" {
			matches = append(matches, id)
		}
	}
	return matches, nil
}

// cachedProfileIDs filters an already-loaded credential map by identity.
func cachedProfileIDs(creds map[string]credResult, identity auth.IdentityKey) []string {
	var matches []string
	for _, id := range orderedIDs(creds) {
		result := creds[id]
		if result.Err == nil && result.Cred != nil && matchesIdentity(result.Cred, identity) {
			matches = append(matches, id)
		}
	}
	return matches
}

// pickPrimary chooses the canonical id among candidates for one identity:
// the lexicographically smallest.
func pickPrimary(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	primary := candidates[0]
	for _, id := range candidates[1:] {
		if id < primary {
			primary = id
		}
	}
	return primary, true
}

func desiredCandidates(p storePaths, identity auth.IdentityKey, email, plan string) (base, desired string, candidates []string, err error) {
	base = profileBase(email, plan)
	desired = uniqueID(p.profilesDir, base, identity)
	candidates, err = scanProfileIDs(p.profilesDir, identity)
	if err != nil {
		return "", "", nil, err
	}
	sort.Strings(candidates)
	return base, desired, candidates, nil
}

// resolveSaveID decides which id a save writes to. When the identity already
// has a primary profile under a stale name, the profile is renamed to the
// current desired id so repeated saves converge on one file.
func resolveSaveID(p storePaths, idx *Index, cred auth.Credential) (string, error) {
	_, email, plan, err := auth.RequireIdentity(cred)
	if err != nil {
		return "", err
	}
	identity, ok := auth.ExtractIdentity(cred)
	if !ok {
		return "", auth.ErrIncompleteAccount
	}
	base, desired, candidates, err := desiredCandidates(p, identity, email, plan)
	if err != nil {
		return "", err
	}
	if primary, ok := pickPrimary(candidates); ok && primary != desired {
		return renameProfileID(p, idx, primary, base, identity)
	}
	return desired, nil
}

// resolveSyncID is the tolerant twin used when mirroring auth.json back into
// its saved profile: an incomplete credential resolves to nothing rather
// than an error, and a sole candidate is trusted as-is.
func resolveSyncID(p storePaths, idx *Index, cred auth.Credential) (string, error) {
	_, email, plan, err := auth.RequireIdentity(cred)
	if err != nil {
		return "", nil
	}
	identity, ok := auth.ExtractIdentity(cred)
	if !ok {
		return "", nil
	}
	base, desired, candidates, err := desiredCandidates(p, identity, email, plan)
	if err != nil {
		return "", err
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	for _, id := range candidates {
		if id == desired {
			return desired, nil
		}
	}
	primary, ok := pickPrimary(candidates)
	if !ok {
		return "", nil
	}
	if primary != desired {
		return renameProfileID(p, idx, primary, base, identity)
	}
	return primary, nil
}

// renameProfileID moves a profile file to the id uniqueID now prefers,
// carrying its index entry along.
func renameProfileID(p storePaths, idx *Index, from, targetBase string, identity auth.IdentityKey) (string, error) {
	desired := uniqueID(p.profilesDir, targetBase, identity)
	if from == desired {
		return desired, nil
	}
	fromPath := profilePathForID(p.profilesDir, from)
	toPath := profilePathForID(p.profilesDir, desired)
	if !fileExists(fromPath) {
		return "", fmt.Errorf("profile %s not found", from)
	}
	if err := os.Rename(fromPath, toPath); err != nil {
		return "", fmt.Errorf("failed to rename profile %s: %w", from, err)
	}
	if entry, ok := idx.Profiles[from]; ok {
		delete(idx.Profiles, from)
		idx.Profiles[desired] = entry
	}
	return desired, nil
}
