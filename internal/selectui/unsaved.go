package selectui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

var unsavedOptions = []struct {
	label  string
	choice profile.UnsavedChoice
}{
	{"Save it, then continue", profile.SaveAndContinue},
	{"Continue without saving", profile.ContinueWithoutSaving},
	{"Cancel", profile.CancelLoad},
}

// unsavedModel asks what to do with an unsaved live credential before a
// load overwrites it.
type unsavedModel struct {
	reason string
	keys   keyMap
	styles Styles

	cursor    int
	done      bool
	cancelled bool
}

func newUnsavedModel(reason string, styles Styles) unsavedModel {
	return unsavedModel{reason: reason, keys: defaultKeyMap(), styles: styles}
}

func (m unsavedModel) Init() tea.Cmd { return nil }

func (m unsavedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(unsavedOptions)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Enter):
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m unsavedModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Current profile is not saved (" + m.reason + "). What now?"))
	b.WriteByte('\n')
	for i, option := range unsavedOptions {
		if i == m.cursor {
			b.WriteString(m.styles.SelectedItem.Render("❯ " + option.label))
		} else {
			b.WriteString(m.styles.Item.Render(option.label))
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.styles.Help.Render("↑/↓ move · enter select · esc cancel"))
	b.WriteByte('\n')
	return b.String()
}

// result maps the highlighted option to its choice; backing out cancels.
func (m unsavedModel) result() (profile.UnsavedChoice, error) {
	if m.cancelled || !m.done {
		return profile.CancelLoad, profile.ErrCancelled
	}
	return unsavedOptions[m.cursor].choice, nil
}
