package selectui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

// pickModel is the list prompt, in single- or multi-select mode.
type pickModel struct {
	title  string
	items  []profile.Candidate
	multi  bool
	keys   keyMap
	styles Styles

	cursor    int
	checked   map[int]bool
	done      bool
	cancelled bool
}

func newPickModel(title string, items []profile.Candidate, multi bool, styles Styles) pickModel {
	return pickModel{
		title:   title,
		items:   items,
		multi:   multi,
		keys:    defaultKeyMap(),
		styles:  styles,
		checked: map[int]bool{},
	}
}

func (m pickModel) Init() tea.Cmd { return nil }

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Toggle):
		if m.multi {
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
	case key.Matches(keyMsg, m.keys.All):
		if m.multi {
			all := len(m.selectedIndexes()) == len(m.items)
			for i := range m.items {
				m.checked[i] = !all
			}
		}
	case key.Matches(keyMsg, m.keys.Enter):
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteByte('\n')
	for i, item := range m.items {
		line := item.Display
		if m.multi {
			box := "[ ]"
			if m.checked[i] {
				box = m.styles.Checkbox.Render("[x]")
			}
			line = box + " " + line
		}
		if i == m.cursor {
			b.WriteString(m.styles.SelectedItem.Render("❯ " + line))
		} else {
			b.WriteString(m.styles.Item.Render(line))
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.styles.Help.Render(m.helpLine()))
	b.WriteByte('\n')
	return b.String()
}

func (m pickModel) helpLine() string {
	if m.multi {
		return "↑/↓ move · space toggle · a all · enter confirm · esc cancel"
	}
	return "↑/↓ move · enter select · esc cancel"
}

// selectedIndexes returns the checked indexes in list order.
func (m pickModel) selectedIndexes() []int {
	var indexes []int
	for i := range m.items {
		if m.checked[i] {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// result maps the final model state onto the selection contract: cancelled
// prompts return ErrCancelled, a multi selection keeps list order.
func (m pickModel) result() ([]profile.Candidate, error) {
	if m.cancelled || !m.done {
		return nil, profile.ErrCancelled
	}
	if !m.multi {
		if len(m.items) == 0 {
			return nil, profile.ErrCancelled
		}
		return []profile.Candidate{m.items[m.cursor]}, nil
	}
	var selected []profile.Candidate
	for _, i := range m.selectedIndexes() {
		selected = append(selected, m.items[i])
	}
	return selected, nil
}
