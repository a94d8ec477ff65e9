package selectui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the prompt models.
type Styles struct {
	Title        lipgloss.Style
	Item         lipgloss.Style
	SelectedItem lipgloss.Style
	Checkbox     lipgloss.Style
	Help         lipgloss.Style
	Prompt       lipgloss.Style
	Choice       lipgloss.Style
	ActiveChoice lipgloss.Style
}

// DefaultStyles returns the default prompt styling.
func DefaultStyles() Styles {
	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Item:         lipgloss.NewStyle().PaddingLeft(2),
		SelectedItem: lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		Checkbox:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Help:         lipgloss.NewStyle().Faint(true).MarginTop(1),
		Prompt:       lipgloss.NewStyle().Bold(true),
		Choice:       lipgloss.NewStyle().Faint(true),
		ActiveChoice: lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).Underline(true),
	}
}

// PlainStyles strips all decoration, for --plain output.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:        plain,
		Item:         plain,
		SelectedItem: plain,
		Checkbox:     plain,
		Help:         plain,
		Prompt:       plain,
		Choice:       plain,
		ActiveChoice: plain,
	}
}
