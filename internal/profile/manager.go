package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/atomicio"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/paths"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/usage"
)

// Manager runs the profile operations against one layout. Zero values for
// the optional fields get sensible defaults from NewManager; tests override
// them directly.
type Manager struct {
	Paths    paths.Paths
	Display  config.Display
	Selector Selector
	Usage    *usage.Client
	Refresh  *auth.RefreshClient
	Out      io.Writer
	ErrOut   io.Writer
	Now      func() time.Time
}

// NewManager wires a manager with the real usage endpoint (resolved from
// config.toml), the standard refresh client, and stdout/stderr output.
func NewManager(p paths.Paths, d config.Display, sel Selector) *Manager {
	baseURL := config.NormalizeBaseURL(config.ReadBaseURL(p.ConfigFile))
	return &Manager{
		Paths:    p,
		Display:  d,
		Selector: sel,
		Usage:    usage.NewClient(baseURL),
		Refresh:  auth.NewRefreshClient(),
		Out:      os.Stdout,
		ErrOut:   os.Stderr,
		Now:      time.Now,
	}
}

func (m *Manager) sp() storePaths {
	return newStorePaths(m.Paths)
}

func (m *Manager) warn(message string) {
	fmt.Fprintln(m.ErrOut, FormatWarning(message, m.Display))
}

// printBlock writes an output message, padded with blank lines unless the
// display is plain.
func (m *Manager) printBlock(message string) {
	if m.Display.Plain {
		fmt.Fprintln(m.Out, message)
		return
	}
	fmt.Fprintf(m.Out, "\n%s\n\n", message)
}

func (m *Manager) listCtx(ctx context.Context, showUsage bool) *listCtx {
	return &listCtx{
		ctx:       ctx,
		usage:     m.Usage,
		refresh:   m.Refresh,
		now:       m.Now(),
		showUsage: showUsage,
		display:   m.Display,
		paths:     m.sp(),
		warn:      m.warn,
	}
}

func notFoundError(d config.Display) error {
	return fmt.Errorf("selected profile not found; %s", listHint(d))
}

// Save copies auth.json into the profile id its identity resolves to, and
// optionally labels it.
func (m *Manager) Save(ctx context.Context, label string) (Outcome, error) {
	p := m.sp()
	store, err := openStore(p, m.warn)
	if err != nil {
		return OutcomeFailed, err
	}
	defer store.Close()

	cred, err := auth.ReadCredential(p.authFile)
	if err != nil {
		return OutcomeFailed, err
	}
	id, err := resolveSaveID(p, store.Index, cred)
	if err != nil {
		return OutcomeFailed, err
	}
	if label != "" {
		if err := assignLabel(store.Labels, label, id); err != nil {
			return OutcomeFailed, err
		}
	}
	target := profilePathForID(p.profilesDir, id)
	if err := atomicio.CopyFile(p.authFile, target); err != nil {
		return OutcomeFailed, fmt.Errorf("failed to save profile to %s: %w", target, err)
	}
	display := labelForID(store.Labels, id)
	updateIndexEntry(store.Index, id, cred, display)
	if err := store.Save(); err != nil {
		return OutcomeFailed, err
	}

	info := makeProfileInfo(cred, nil, display, true, m.Display)
	if info.Email != "" {
		m.printBlock("Saved profile " + info.Display)
	} else {
		m.printBlock("Saved profile")
	}
	return OutcomeSuccess, nil
}

// Load swaps a selected saved profile into auth.json, guarding an unsaved
// live credential behind a prompt first.
func (m *Manager) Load(ctx context.Context, label string) (Outcome, error) {
	p := m.sp()
	snap, ordered, err := m.strictSnapshot(p)
	if err != nil {
		return OutcomeFailed, err
	}

	if reason := unsavedReason(p, snap.Creds); reason != "" {
		choice, outcome, err := m.resolveUnsaved(p, reason)
		if err != nil || outcome == OutcomeCancelled {
			return outcome, err
		}
		if choice == SaveAndContinue {
			if outcome, err := m.Save(ctx, ""); err != nil {
				return outcome, err
			}
			snap, ordered, err = m.strictSnapshot(p)
			if err != nil {
				return OutcomeFailed, err
			}
		}
	}

	currentID, _ := currentSavedID(p, snap.Creds)
	candidates := buildCandidates(ordered, snap, currentID, m.Display)
	selected, err := pickOne(m.Selector, "load", label, snap, candidates)
	if errors.Is(err, ErrCancelled) {
		return OutcomeCancelled, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}

	switch result, ok := snap.Creds[selected.ID]; {
	case !ok:
		return OutcomeFailed, notFoundError(m.Display)
	case result.Err != nil:
		return OutcomeFailed, fmt.Errorf("selected profile is invalid: %s", normalizeError(result.Err.Error()))
	}

	store, err := openStore(p, m.warn)
	if err != nil {
		return OutcomeFailed, err
	}
	defer store.Close()

	if _, err := syncCurrent(p, store.Index); err != nil {
		m.warn(err.Error())
	}

	source := profilePathForID(p.profilesDir, selected.ID)
	if !fileExists(source) {
		return OutcomeFailed, notFoundError(m.Display)
	}
	if err := atomicio.CopyFile(source, p.authFile); err != nil {
		return OutcomeFailed, fmt.Errorf("failed to load selected profile to %s: %w", p.authFile, err)
	}

	display := labelForID(store.Labels, selected.ID)
	updateIndexEntry(store.Index, selected.ID, snap.Creds[selected.ID].Cred, display)
	if err := store.Save(); err != nil {
		return OutcomeFailed, err
	}

	m.printBlock("Loaded profile " + selected.Display)
	return OutcomeSuccess, nil
}

func (m *Manager) resolveUnsaved(p storePaths, reason string) (UnsavedChoice, Outcome, error) {
	if !m.Selector.Interactive() {
		return CancelLoad, OutcomeFailed,
			fmt.Errorf("current profile is not saved; %s", saveBeforeLoadHint(p, m.Display))
	}
	m.warn(fmt.Sprintf("Current profile is not saved (%s)", reason))
	choice, err := m.Selector.ResolveUnsaved(reason)
	if errors.Is(err, ErrCancelled) || (err == nil && choice == CancelLoad) {
		return CancelLoad, OutcomeCancelled, nil
	}
	if err != nil {
		return CancelLoad, OutcomeFailed, err
	}
	return choice, OutcomeSuccess, nil
}

// Delete removes one or more saved profiles after confirmation.
func (m *Manager) Delete(ctx context.Context, label string, yes bool) (Outcome, error) {
	p := m.sp()
	snap, ordered, err := m.strictSnapshotAllowEmpty(p)
	if err != nil {
		return OutcomeFailed, err
	}
	if len(ordered) == 0 {
		m.printBlock(noProfilesMessage(p, m.Display))
		return OutcomeSuccess, nil
	}

	currentID, _ := currentSavedID(p, snap.Creds)
	candidates := buildCandidates(ordered, snap, currentID, m.Display)
	selections, err := pickMany(m.Selector, "delete", label, snap, candidates)
	if errors.Is(err, ErrCancelled) {
		return OutcomeCancelled, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}

	store, err := openStore(p, m.warn)
	if err != nil {
		return OutcomeFailed, err
	}
	defer store.Close()

	if !yes {
		confirmed, outcome, err := m.confirmDelete(selections)
		if err != nil || outcome == OutcomeCancelled {
			return outcome, err
		}
		if !confirmed {
			return OutcomeCancelled, nil
		}
	}

	for _, selected := range selections {
		target := profilePathForID(p.profilesDir, selected.ID)
		if !fileExists(target) {
			return OutcomeFailed, notFoundError(m.Display)
		}
		if err := os.Remove(target); err != nil {
			return OutcomeFailed, fmt.Errorf("failed to delete profile: %w", err)
		}
		removeLabelsForID(store.Labels, selected.ID)
		delete(store.Index.Profiles, selected.ID)
	}
	if err := store.Save(); err != nil {
		return OutcomeFailed, err
	}

	if len(selections) == 1 {
		m.printBlock("Deleted profile " + selections[0].Display)
	} else {
		m.printBlock(fmt.Sprintf("Deleted %d profiles.", len(selections)))
	}
	return OutcomeSuccess, nil
}

func (m *Manager) confirmDelete(selections []Candidate) (bool, Outcome, error) {
	if !m.Selector.Interactive() {
		return false, OutcomeFailed,
			errors.New("deletion requires confirmation; re-run with --yes to skip the prompt")
	}
	var prompt string
	if len(selections) == 1 {
		prompt = fmt.Sprintf("Delete profile %s? This cannot be undone.", selections[0].Display)
	} else {
		fmt.Fprintf(m.ErrOut, "Delete %d profiles? This cannot be undone.\n", len(selections))
		for _, selected := range selections {
			fmt.Fprintf(m.ErrOut, " - %s\n", selected.Display)
		}
		prompt = "Delete selected profiles? This cannot be undone."
	}
	confirmed, err := m.Selector.Confirm(prompt)
	if errors.Is(err, ErrCancelled) {
		return false, OutcomeCancelled, nil
	}
	if err != nil {
		return false, OutcomeFailed, err
	}
	return confirmed, OutcomeSuccess, nil
}

// List prints the current profile followed by every other saved profile,
// without usage lookups.
func (m *Manager) List(ctx context.Context) (Outcome, error) {
	p := m.sp()
	snap, err := loadSnapshot(p, false, m.warn)
	if err != nil {
		return OutcomeFailed, err
	}
	currentID, _ := currentSavedID(p, snap.Creds)
	lc := m.listCtx(ctx, false)

	ordered := orderedIDs(snap.Creds)
	currentEntry := lc.makeCurrent(currentID, snap.Labels, snap.Creds)
	if len(ordered) == 0 {
		if currentEntry != nil {
			m.printBlock(joinLines(renderEntries([]Entry{*currentEntry}, lc, false)))
		} else {
			m.printBlock(noProfilesMessage(p, m.Display))
		}
		return OutcomeSuccess, nil
	}

	filtered := withoutID(ordered, currentID)
	listEntries := lc.makeEntries(filtered, snap, "")

	var lines []string
	if currentEntry != nil {
		lines = append(lines, renderEntries([]Entry{*currentEntry}, lc, false)...)
		if len(listEntries) > 0 {
			lines = pushSeparator(lines, m.Display, false)
		}
	}
	lines = append(lines, renderEntries(listEntries, lc, false)...)
	m.printBlock(joinLines(lines))
	return OutcomeSuccess, nil
}

// Status prints the current profile with usage, or all profiles with --all.
func (m *Manager) Status(ctx context.Context, all, showErrors bool) (Outcome, error) {
	if all {
		return m.statusAll(ctx, showErrors)
	}
	p := m.sp()
	lc := m.listCtx(ctx, true)

	// Tolerate a broken store here: status of the live credential should
	// still render.
	var labels Labels
	var creds map[string]credResult
	var currentID string
	if snap, err := loadSnapshot(p, false, m.warn); err == nil {
		labels = snap.Labels
		creds = snap.Creds
		currentID, _ = currentSavedID(p, creds)
	} else {
		labels = Labels{}
		creds = map[string]credResult{}
	}

	if entry := lc.makeCurrent(currentID, labels, creds); entry != nil {
		m.printBlock(joinLines(renderEntries([]Entry{*entry}, lc, false)))
	} else {
		m.printBlock(noProfilesMessage(p, m.Display))
	}
	return OutcomeSuccess, nil
}

func (m *Manager) statusAll(ctx context.Context, showErrors bool) (Outcome, error) {
	p := m.sp()
	snap, err := loadSnapshot(p, false, m.warn)
	if err != nil {
		return OutcomeFailed, err
	}
	currentID, _ := currentSavedID(p, snap.Creds)
	lc := m.listCtx(ctx, true)

	ordered := withoutID(orderedIDs(snap.Creds), currentID)
	currentEntry := lc.makeCurrent(currentID, snap.Labels, snap.Creds)

	hiddenAPI := 0
	hiddenErrors := 0
	byID := labelsByID(snap.Labels)
	var listEntries []Entry
	for _, id := range ordered {
		if isAPISavedProfile(id, snap) {
			hiddenAPI++
			continue
		}
		entry := lc.makeSaved(id, snap, byID, "")
		if !showErrors && entry.ErrorSummary != "" {
			hiddenErrors++
			continue
		}
		listEntries = append(listEntries, entry)
	}

	var currentVisible *Entry
	if currentEntry != nil {
		cred, ok := auth.ReadCredentialOpt(p.authFile)
		_, currentIsKey := cred.(auth.APIKey)
		switch {
		case ok && currentIsKey:
			hiddenAPI++
		case !showErrors && currentEntry.ErrorSummary != "":
			hiddenErrors++
		default:
			currentVisible = currentEntry
		}
	}

	if currentVisible == nil && len(listEntries) == 0 && hiddenAPI == 0 && hiddenErrors == 0 {
		m.printBlock(noProfilesMessage(p, m.Display))
		return OutcomeSuccess, nil
	}

	var lines []string
	if currentVisible != nil {
		lines = append(lines, renderEntries([]Entry{*currentVisible}, lc, true)...)
		if len(listEntries) > 0 || hiddenAPI > 0 || hiddenErrors > 0 {
			lines = pushSeparator(lines, m.Display, true)
		}
	}
	if len(listEntries) > 0 {
		lines = append(lines, renderEntries(listEntries, lc, true)...)
		if hiddenAPI > 0 || hiddenErrors > 0 {
			lines = pushSeparator(lines, m.Display, true)
		}
	}
	if hiddenAPI > 0 {
		lines = append(lines, formatDim(fmt.Sprintf("+ %d API profiles hidden", hiddenAPI), m.Display))
	}
	if hiddenErrors > 0 {
		lines = append(lines, formatDim(fmt.Sprintf("+ %d errored profiles hidden (use `--show-errors`)", hiddenErrors), m.Display))
	}
	m.printBlock(joinLines(lines))
	return OutcomeSuccess, nil
}

// Sync mirrors auth.json into its saved profile without touching anything
// else, for scripted use and the --watch loop.
func (m *Manager) Sync(ctx context.Context) (Outcome, error) {
	p := m.sp()
	store, err := openStore(p, m.warn)
	if err != nil {
		return OutcomeFailed, err
	}
	defer store.Close()

	id, err := syncCurrent(p, store.Index)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to sync current profile: %w", err)
	}
	if id == "" {
		m.printBlock("Nothing to sync.")
		return OutcomeSuccess, nil
	}
	if err := store.Save(); err != nil {
		return OutcomeFailed, err
	}
	m.printBlock("Synced current profile " + id)
	return OutcomeSuccess, nil
}

// strictSnapshot loads a snapshot and fails when there are no profiles.
func (m *Manager) strictSnapshot(p storePaths) (*Snapshot, []string, error) {
	snap, ordered, err := m.strictSnapshotAllowEmpty(p)
	if err != nil {
		return nil, nil, err
	}
	if len(ordered) == 0 {
		return nil, nil, errors.New(noProfilesMessage(p, m.Display))
	}
	return snap, ordered, nil
}

func (m *Manager) strictSnapshotAllowEmpty(p storePaths) (*Snapshot, []string, error) {
	snap, err := loadSnapshot(p, true, m.warn)
	if err != nil {
		return nil, nil, err
	}
	return snap, orderedIDs(snap.Creds), nil
}

func withoutID(ids []string, drop string) []string {
	if drop == "" {
		return ids
	}
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
