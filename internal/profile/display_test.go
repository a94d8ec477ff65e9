package profile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
)

func TestFormatProfileDisplayPlain(t *testing.T) {
	d := config.Display{Plain: true}
	cases := []struct {
		name  string
		email string
		plan  string
		label string
		want  string
	}{
		{"basic", "alice@x.com", "Plus", "", "[PLUS] alice@x.com"},
		{"labelled", "alice@x.com", "Plus", "work", "[PLUS] alice@x.com (work)"},
		{"missing plan", "alice@x.com", "", "", "[UNKNOWN] alice@x.com"},
		{"missing email", "", "Plus", "", "Unknown profile"},
		{"missing email with label", "", "Plus", "old", "Unknown profile (old)"},
		{"api key", "Key", "Key", "", "[KEY]"},
		{"api key labelled", "Key", "Key", "ci", "[KEY] (ci)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, formatProfileDisplay(tc.email, tc.plan, tc.label, false, d))
		})
	}
}

func TestNormalizeError(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"not logged in",
			"auth file not found; log in with `codex login` first",
			"Not logged in. Run `codex login`.",
		},
		{
			"invalid json",
			"invalid JSON in /tmp/auth.json (log in again with `codex login`): unexpected end",
			"Auth file is invalid. Run `codex login`.",
		},
		{
			"incomplete",
			"current credential is missing its email claim; log in again with `codex login`",
			"Auth is incomplete. Run `codex login`.",
		},
		{
			"401 passes through",
			"token refresh unauthorized (401); log in again with `codex login` and re-save this profile",
			"token refresh unauthorized (401); log in again with `codex login` and re-save this profile",
		},
		{
			"unrelated passes through",
			"usage request failed (500)",
			"usage request failed (500)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, normalizeError(tc.in))
		})
	}
}

func TestFormatErrorMultiline(t *testing.T) {
	d := config.Display{Plain: true}
	got := formatError("first\nsecond", d)
	require.Equal(t, "Error: first\nsecond", got)
}

func TestNoProfilesMessageHints(t *testing.T) {
	d := config.Display{Plain: true}
	p := newStorePaths(testPaths(t))

	// No credential at all: point at codex login first.
	require.Contains(t, noProfilesMessage(p, d), "Run `codex login`, then `cxprof save`.")

	writeTokenFile(t, p.authFile, aliceSpec)
	require.Contains(t, noProfilesMessage(p, d), "Run `cxprof save` to save this profile.")
}

func TestMakeProfileInfoFallsBackToIndexEntry(t *testing.T) {
	d := config.Display{Plain: true}
	entry := &IndexEntry{Email: "alice@x.com", Plan: "Plus"}
	info := makeProfileInfo(nil, entry, "", false, d)
	require.Equal(t, "[PLUS] alice@x.com", info.Display)
	require.Equal(t, "alice@x.com", info.Email)
}

func TestUnsavedWarningLinesPlain(t *testing.T) {
	lines := unsavedWarningLines(config.Display{Plain: true})
	require.Len(t, lines, 2)
	require.Equal(t, "Warning: This profile is not saved yet.", lines[0])
	require.Contains(t, lines[1], "`cxprof save`")
}
