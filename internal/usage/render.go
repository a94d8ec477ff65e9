package usage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
)

// UnavailableText is shown when no usage window could be obtained.
const UnavailableText = "Data not available"

const barCells = 20

var (
	barHighStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	barMediumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	barLowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle        = lipgloss.NewStyle().Faint(true)
	dimItalicStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
	unavailableBold = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Line is one rendered usage row, split into parts so depleted-window
// dimming can restyle them.
type Line struct {
	Bar         string
	Percent     string
	Reset       string
	LeftPercent int
	available   bool
}

// FormatWindow renders one window into a Line; a nil window yields the
// unavailable placeholder.
func FormatWindow(window *Window, d config.Display) Line {
	if window == nil {
		return Line{Bar: UnavailableText}
	}
	rounded := int(window.LeftPercent + 0.5)
	return Line{
		Bar:         styleBar(renderBar(window.LeftPercent), window.LeftPercent, d),
		Percent:     fmt.Sprintf("%d%%", rounded),
		Reset:       window.ResetRelative,
		LeftPercent: rounded,
		available:   true,
	}
}

// FormatLimits renders both windows of a Limits into output lines. When
// neither window is available a single unavailable line is returned. When
// one window is fully depleted the others are dimmed so the exhausted one
// stands out.
func FormatLimits(limits Limits, d config.Display) []string {
	var available []Line
	for _, line := range []Line{FormatWindow(limits.Short, d), FormatWindow(limits.Long, d)} {
		if line.available {
			available = append(available, line)
		}
	}
	if len(available) == 0 {
		return []string{FormatUnavailable(UnavailableText, d)}
	}
	hasZero := false
	for _, line := range available {
		if line.LeftPercent == 0 {
			hasZero = true
		}
	}
	out := make([]string, 0, len(available))
	for _, line := range available {
		dim := d.Color && len(available) > 1 && hasZero && line.LeftPercent != 0
		out = append(out, formatLine(line, dim, d))
	}
	return out
}

// FormatUnavailable renders the no-data placeholder.
func FormatUnavailable(text string, d config.Display) string {
	if d.Plain {
		return "info: " + text
	}
	if d.Color {
		return unavailableBold.Render(text)
	}
	return text
}

func formatLine(line Line, dim bool, d config.Display) string {
	reset := line.Reset
	if reset == "" {
		reset = "unknown"
	}
	resets := fmt.Sprintf("(resets %s)", reset)
	if d.Color {
		resets = dimItalicStyle.Render(resets)
	}
	percent := ""
	if line.Percent != "" {
		percent = line.Percent + " left"
	}

	if d.Plain {
		parts := make([]string, 0, 2)
		if percent != "" {
			parts = append(parts, percent)
		}
		parts = append(parts, fmt.Sprintf("(resets %s)", reset))
		return strings.Join(parts, " ")
	}

	bar := line.Bar
	if dim {
		bar = ansi.Strip(bar)
	}
	formatted := bar
	if percent != "" {
		formatted += " " + percent
	}
	formatted += " " + resets
	if dim {
		return dimStyle.Render(ansi.Strip(formatted))
	}
	return formatted
}

func renderBar(leftPercent float64) string {
	filled := int(leftPercent/100*barCells + 0.5)
	if filled > barCells {
		filled = barCells
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▮", filled) + strings.Repeat("▯", barCells-filled)
}

func styleBar(bar string, leftPercent float64, d config.Display) string {
	if !d.Color {
		return bar
	}
	switch {
	case leftPercent >= 66:
		return barHighStyle.Render(bar)
	case leftPercent >= 33:
		return barMediumStyle.Render(bar)
	default:
		return barLowStyle.Render(bar)
	}
}
