package profile

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
)

var (
	planBadgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	currentEmailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Bold(true)
	emailStyle        = lipgloss.NewStyle().Bold(true)
	labelBadgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("7")).Faint(true)
	headerStyle       = lipgloss.NewStyle().Bold(true)
	errorPrefixStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Faint(true).Italic(true)
	hintStyle         = lipgloss.NewStyle().Faint(true).Italic(true)
	italicStyle       = lipgloss.NewStyle().Italic(true)
)

const errorPrefix = "Error:"

// profileInfo is the presentation summary of one credential.
type profileInfo struct {
	Display string
	Email   string
	Plan    string
	IsFree  bool
}

func makeProfileInfo(cred auth.Credential, fallback *IndexEntry, label string, isCurrent bool, d config.Display) profileInfo {
	var email, plan string
	if cred != nil {
		email, plan = auth.EmailAndPlan(cred)
	} else if fallback != nil {
		email, plan = fallback.Email, fallback.Plan
	}
	return profileInfo{
		Display: formatProfileDisplay(email, plan, label, isCurrent, d),
		Email:   email,
		Plan:    plan,
		IsFree:  auth.IsFreePlan(plan),
	}
}

// formatProfileDisplay renders the one-line profile header: plan badge,
// email, optional label badge.
func formatProfileDisplay(email, plan, label string, isCurrent bool, d config.Display) string {
	if strings.EqualFold(email, "Key") && strings.EqualFold(plan, "Key") {
		return formatPlanBadge("Key", d) + formatLabelBadge(label, d)
	}
	labelSuffix := formatLabelBadge(label, d)
	if email == "" {
		return "Unknown profile" + labelSuffix
	}
	if plan == "" {
		plan = "Unknown"
	}
	badge := formatPlanBadge(plan, d)
	if d.Color {
		return badge + formatEmailBadge(email, isCurrent) + labelSuffix
	}
	return badge + " " + email + labelSuffix
}

func formatPlanBadge(plan string, d config.Display) string {
	upper := strings.ToUpper(plan)
	if d.Color {
		return planBadgeStyle.Render(" " + upper + " ")
	}
	return "[" + upper + "]"
}

func formatEmailBadge(email string, isCurrent bool) string {
	if isCurrent {
		return currentEmailStyle.Render(" " + email + " ")
	}
	return emailStyle.Render(" " + email + " ")
}

func formatLabelBadge(label string, d config.Display) string {
	if label == "" {
		return ""
	}
	if d.Color {
		return labelBadgeStyle.Render(" " + label + " ")
	}
	return " (" + label + ")"
}

func formatEntryHeader(display string, d config.Display) string {
	if d.Color {
		return headerStyle.Render(display)
	}
	return display
}

// normalizeError rewrites raw auth errors that tell the user to run `codex
// login` into short stable phrasings, leaving real HTTP errors alone.
func normalizeError(message string) string {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "codex login") &&
		!strings.Contains(message, "(401)") &&
		!strings.Contains(lower, "unauthorized") {
		switch {
		case strings.Contains(lower, "not found"):
			return "Not logged in. Run `codex login`."
		case strings.Contains(lower, "invalid json"):
			return "Auth file is invalid. Run `codex login`."
		default:
			return "Auth is incomplete. Run `codex login`."
		}
	}
	return message
}

// formatError renders an error message as a detail line: prefix plus first
// line, continuation lines dimmed.
func formatError(message string, d config.Display) string {
	normalized := normalizeError(message)
	prefix := errorPrefix
	if d.Color {
		prefix = errorPrefixStyle.Render(errorPrefix)
	}
	lines := strings.Split(normalized, "\n")
	text := prefix + " " + lines[0]
	for _, line := range lines[1:] {
		if d.Color {
			line = hintStyle.Render(line)
		}
		text += "\n" + line
	}
	return text
}

// FormatWarning renders a stderr warning line.
func FormatWarning(message string, d config.Display) string {
	text := "Warning: " + normalizeError(message)
	if d.Color {
		return warnStyle.Render(text)
	}
	return text
}

// formatDim renders a secondary note line (hidden-entry counts).
func formatDim(message string, d config.Display) string {
	if d.Color {
		return hintStyle.Render(message)
	}
	return message
}

func formatHint(message string, d config.Display) string {
	if d.Plain {
		return "Info: " + message
	}
	if d.Color {
		return italicStyle.Render(message)
	}
	return message
}

func formatCommand(name string, d config.Display) string {
	text := "`cxprof " + name + "`"
	if d.Color {
		return emailStyle.Render(text)
	}
	return text
}

// noProfilesMessage is shown when the store is empty, with a hint that
// depends on whether there is a credential worth saving at all.
func noProfilesMessage(p storePaths, d config.Display) string {
	var hint string
	if auth.HasCredential(p.authFile) {
		hint = fmt.Sprintf("Run %s to save this profile.", formatCommand("save", d))
	} else {
		hint = fmt.Sprintf("Run `codex login`, then %s.", formatCommand("save", d))
	}
	return "No saved profiles. " + formatHint(hint, d)
}

func saveBeforeLoadHint(p storePaths, d config.Display) string {
	if auth.HasCredential(p.authFile) {
		return fmt.Sprintf("Run %s before loading.", formatCommand("save", d))
	}
	return fmt.Sprintf("Run `codex login`, then %s before loading.", formatCommand("save", d))
}

func listHint(d config.Display) string {
	return fmt.Sprintf("Run %s to see saved profiles.", formatCommand("list", d))
}

// unsavedWarningLines are appended to the current entry's details when its
// credential has no saved counterpart.
func unsavedWarningLines(d config.Display) []string {
	warning := "Warning: This profile is not saved yet."
	saveLine := fmt.Sprintf("Run %s to save this profile.", formatCommand("save", config.Display{}))
	if !d.Color {
		return []string{warning, saveLine}
	}
	return []string{warnStyle.Render(warning), hintStyle.Render(saveLine)}
}
