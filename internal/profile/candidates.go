package profile

import (
	"fmt"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
)

// Candidate is one selectable saved profile.
type Candidate struct {
	ID      string
	Display string
}

// UnsavedChoice is the answer to the "current profile is not saved" prompt
// shown before a load.
type UnsavedChoice int

const (
	SaveAndContinue UnsavedChoice = iota
	ContinueWithoutSaving
	CancelLoad
)

// Selector abstracts the interactive prompts so operations can run against
// a terminal UI or a scripted fake. Implementations return ErrCancelled
// when the user backs out.
type Selector interface {
	// Interactive reports whether prompting is possible at all; false on a
	// non-TTY stdin.
	Interactive() bool
	PickOne(title string, candidates []Candidate) (Candidate, error)
	PickMany(title string, candidates []Candidate) ([]Candidate, error)
	Confirm(prompt string) (bool, error)
	ResolveUnsaved(reason string) (UnsavedChoice, error)
}

// buildCandidates renders a selection row for every ordered id.
func buildCandidates(ordered []string, snap *Snapshot, currentID string, d config.Display) []Candidate {
	byID := labelsByID(snap.Labels)
	candidates := make([]Candidate, 0, len(ordered))
	for _, id := range ordered {
		result, ok := snap.Creds[id]
		var info profileInfo
		if ok && result.Err == nil {
			info = makeProfileInfo(result.Cred, snap.Index.Profiles[id], byID[id], id == currentID, d)
		} else {
			info = makeProfileInfo(nil, snap.Index.Profiles[id], byID[id], id == currentID, d)
		}
		candidates = append(candidates, Candidate{ID: id, Display: info.Display})
	}
	return candidates
}

func requireInteractive(sel Selector, action string) error {
	if sel.Interactive() {
		return nil
	}
	return fmt.Errorf("%s selection requires a TTY; run `cxprof %s` interactively", action, action)
}

// selectByLabel resolves --label to a candidate without prompting.
func selectByLabel(label string, labels Labels, candidates []Candidate) (Candidate, error) {
	id, err := resolveLabelID(labels, label)
	if err != nil {
		return Candidate{}, err
	}
	for _, candidate := range candidates {
		if candidate.ID == id {
			return candidate, nil
		}
	}
	return Candidate{}, fmt.Errorf("label %q does not match a saved profile; run `cxprof list` to see saved profiles", label)
}

func pickOne(sel Selector, action, label string, snap *Snapshot, candidates []Candidate) (Candidate, error) {
	if label != "" {
		return selectByLabel(label, snap.Labels, candidates)
	}
	if err := requireInteractive(sel, action); err != nil {
		return Candidate{}, err
	}
	return sel.PickOne("", candidates)
}

func pickMany(sel Selector, action, label string, snap *Snapshot, candidates []Candidate) ([]Candidate, error) {
	if label != "" {
		candidate, err := selectByLabel(label, snap.Labels, candidates)
		if err != nil {
			return nil, err
		}
		return []Candidate{candidate}, nil
	}
	if err := requireInteractive(sel, action); err != nil {
		return nil, err
	}
	selected, err := sel.PickMany("", candidates)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, ErrCancelled
	}
	return selected, nil
}
