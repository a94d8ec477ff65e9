// Package selectui implements the interactive prompts behind profile
// selection as small Bubble Tea models: a single/multi list picker, a
// yes/no confirmation, and the unsaved-profile chooser. Prompts render on
// stderr so stdout stays scriptable.
package selectui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

// Selector implements profile.Selector on a real terminal.
type Selector struct {
	styles Styles

	// Seams for tests.
	isTTY func(fd int) bool
	run   func(tea.Model) (tea.Model, error)
}

// New builds a terminal selector styled for the given display settings.
func New(d config.Display) *Selector {
	styles := DefaultStyles()
	if !d.Color {
		styles = PlainStyles()
	}
	return &Selector{
		styles: styles,
		isTTY:  term.IsTerminal,
		run:    runProgram,
	}
}

func runProgram(model tea.Model) (tea.Model, error) {
	return tea.NewProgram(model, tea.WithOutput(os.Stderr)).Run()
}

// Interactive reports whether prompting can work: stdin and stderr must
// both be terminals.
func (s *Selector) Interactive() bool {
	return s.isTTY(int(os.Stdin.Fd())) && s.isTTY(int(os.Stderr.Fd()))
}

// PickOne prompts for a single candidate.
func (s *Selector) PickOne(title string, candidates []profile.Candidate) (profile.Candidate, error) {
	if title == "" {
		title = "Select a profile"
	}
	final, err := s.run(newPickModel(title, candidates, false, s.styles))
	if err != nil {
		return profile.Candidate{}, fmt.Errorf("selection prompt failed: %w", err)
	}
	selected, err := final.(pickModel).result()
	if err != nil {
		return profile.Candidate{}, err
	}
	return selected[0], nil
}

// PickMany prompts for any number of candidates.
func (s *Selector) PickMany(title string, candidates []profile.Candidate) ([]profile.Candidate, error) {
	if title == "" {
		title = "Select profiles"
	}
	final, err := s.run(newPickModel(title, candidates, true, s.styles))
	if err != nil {
		return nil, fmt.Errorf("selection prompt failed: %w", err)
	}
	return final.(pickModel).result()
}

// Confirm prompts a yes/no question, defaulting to no.
func (s *Selector) Confirm(prompt string) (bool, error) {
	final, err := s.run(newConfirmModel(prompt, s.styles))
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return final.(confirmModel).result()
}

// ResolveUnsaved asks what to do with the unsaved live credential.
func (s *Selector) ResolveUnsaved(reason string) (profile.UnsavedChoice, error) {
	final, err := s.run(newUnsavedModel(reason, s.styles))
	if err != nil {
		return profile.CancelLoad, fmt.Errorf("prompt failed: %w", err)
	}
	return final.(unsavedModel).result()
}
