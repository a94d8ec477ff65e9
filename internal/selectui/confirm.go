package selectui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

// confirmModel is a yes/no prompt defaulting to no.
type confirmModel struct {
	prompt string
	keys   keyMap
	styles Styles

	yes       bool
	done      bool
	cancelled bool
}

func newConfirmModel(prompt string, styles Styles) confirmModel {
	return confirmModel{prompt: prompt, keys: defaultKeyMap(), styles: styles}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Enter):
		m.done = true
		return m, tea.Quit
	}
	switch keyMsg.String() {
	case "y", "Y":
		m.yes = true
		m.done = true
		return m, tea.Quit
	case "n", "N":
		m.yes = false
		m.done = true
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.yes = !m.yes
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Prompt.Render(m.prompt))
	b.WriteString("  ")
	yes, no := m.styles.Choice.Render("Yes"), m.styles.ActiveChoice.Render("No")
	if m.yes {
		yes, no = m.styles.ActiveChoice.Render("Yes"), m.styles.Choice.Render("No")
	}
	b.WriteString(yes + " / " + no)
	b.WriteByte('\n')
	b.WriteString(m.styles.Help.Render("y/n · enter confirm · esc cancel"))
	b.WriteByte('\n')
	return b.String()
}

// result reports the confirmation, or ErrCancelled when backed out.
func (m confirmModel) result() (bool, error) {
	if m.cancelled || !m.done {
		return false, profile.ErrCancelled
	}
	return m.yes, nil
}
