package profile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/paths"
)

func encodeSegment(t *testing.T, value map[string]any) string {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(data)
}

// makeIDToken builds an unsigned JWT carrying the claims the identity
// extractor reads.
func makeIDToken(t *testing.T, email, plan, userID string) string {
	t.Helper()
	header := encodeSegment(t, map[string]any{"alg": "none", "typ": "JWT"})
	payload := encodeSegment(t, map[string]any{
		"email": email,
		"https://api.openai.com/auth": map[string]any{
			"chatgpt_plan_type": plan,
			"chatgpt_user_id":   userID,
		},
	})
	return header + "." + payload + "."
}

type tokenSpec struct {
	accountID string
	email     string
	plan      string
	userID    string
	access    string
	refresh   string
}

func (s tokenSpec) fill() tokenSpec {
	if s.userID == "" {
		s.userID = "user-1"
	}
	if s.access == "" {
		s.access = "access"
	}
	if s.refresh == "" {
		s.refresh = "refresh"
	}
	return s
}

func writeTokenFile(t *testing.T, path string, spec tokenSpec) {
	t.Helper()
	spec = spec.fill()
	contents := map[string]any{
		"tokens": map[string]any{
			"account_id":    spec.accountID,
			"id_token":      makeIDToken(t, spec.email, spec.plan, spec.userID),
			"access_token":  spec.access,
			"refresh_token": spec.refresh,
		},
	}
	data, err := json.Marshal(contents)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func writeProfileFile(t *testing.T, p paths.Paths, id string, spec tokenSpec) {
	t.Helper()
	writeTokenFile(t, filepath.Join(p.ProfilesDir, id+".json"), spec)
}

func writeAPIKeyAuth(t *testing.T, path, key string) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"OPENAI_API_KEY": key})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func testPaths(t *testing.T) paths.Paths {
	t.Helper()
	p := paths.ForHome(t.TempDir())
	require.NoError(t, p.Ensure())
	return p
}

// fakeSelector scripts the interactive prompts. Unset hooks cancel.
type fakeSelector struct {
	interactive bool
	pickOne     func([]Candidate) (Candidate, error)
	pickMany    func([]Candidate) ([]Candidate, error)
	confirm     func(string) (bool, error)
	unsaved     func(string) (UnsavedChoice, error)
}

func (s *fakeSelector) Interactive() bool { return s.interactive }

func (s *fakeSelector) PickOne(title string, candidates []Candidate) (Candidate, error) {
	if s.pickOne == nil {
		return Candidate{}, ErrCancelled
	}
	return s.pickOne(candidates)
}

func (s *fakeSelector) PickMany(title string, candidates []Candidate) ([]Candidate, error) {
	if s.pickMany == nil {
		return nil, ErrCancelled
	}
	return s.pickMany(candidates)
}

func (s *fakeSelector) Confirm(prompt string) (bool, error) {
	if s.confirm == nil {
		return false, ErrCancelled
	}
	return s.confirm(prompt)
}

func (s *fakeSelector) ResolveUnsaved(reason string) (UnsavedChoice, error) {
	if s.unsaved == nil {
		return CancelLoad, nil
	}
	return s.unsaved(reason)
}

func testManager(t *testing.T, p paths.Paths, sel Selector) (*Manager, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	m := &Manager{
		Paths:    p,
		Display:  config.Display{Plain: true},
		Selector: sel,
		Refresh:  auth.NewRefreshClient(),
		Out:      out,
		ErrOut:   errOut,
		Now:      time.Now,
	}
	return m, out, errOut
}

func identityFor(t *testing.T, spec tokenSpec) auth.IdentityKey {
	t.Helper()
	spec = spec.fill()
	cred := auth.OAuthTokens{
		Account:      spec.accountID,
		IDToken:      makeIDToken(t, spec.email, spec.plan, spec.userID),
		AccessToken:  spec.access,
		RefreshToken: spec.refresh,
	}
	identity, ok := auth.ExtractIdentity(cred)
	require.True(t, ok)
	return identity
}
