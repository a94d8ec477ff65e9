package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/auth"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/paths"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/usage"
)

const usageBody = `{"rate_limit":{"primary_window":{"used_percent":25.0,"limit_window_seconds":18000,"reset_at":1}}}`

func testListCtx(t *testing.T, p paths.Paths, usageClient *usage.Client, refreshClient *auth.RefreshClient, showUsage bool) *listCtx {
	t.Helper()
	return &listCtx{
		ctx:       context.Background(),
		usage:     usageClient,
		refresh:   refreshClient,
		now:       time.Now(),
		showUsage: showUsage,
		display:   config.Display{Plain: true},
		paths:     newStorePaths(p),
		warn:      func(string) {},
	}
}

func usageServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(usageBody))
	}))
}

func refreshServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"fresh","refresh_token":"r2"}`))
	}))
}

func TestDetailLinesAPIKeyWithUsage(t *testing.T) {
	p := testPaths(t)
	lc := testListCtx(t, p, nil, nil, true)
	details, summary, refreshed := lc.detailLines(auth.FromAPIKey("sk-test"), "~abc", "Key", p.AuthFile)
	require.Len(t, details, 2)
	require.Contains(t, details[0], "Usage unavailable for API key")
	require.Empty(t, summary)
	require.False(t, refreshed)
}

func TestDetailLinesAPIKeyWithoutUsage(t *testing.T) {
	p := testPaths(t)
	lc := testListCtx(t, p, nil, nil, false)
	details, summary, _ := lc.detailLines(auth.FromAPIKey("sk-test"), "~abc", "Key", p.AuthFile)
	require.Empty(t, details)
	require.Empty(t, summary)
}

func TestDetailLinesRefreshesOn401(t *testing.T) {
	var calls atomic.Int64
	us := usageServer(t, &calls)
	defer us.Close()
	rs := refreshServer(t)
	defer rs.Close()

	p := testPaths(t)
	spec := aliceSpec
	spec.access = "expired"
	profilePath := profilePathForID(p.ProfilesDir, "alice@x.com-plus")
	writeTokenFile(t, profilePath, spec)
	cred, err := auth.ReadCredential(profilePath)
	require.NoError(t, err)
	tok := cred.(auth.OAuthTokens)

	lc := testListCtx(t, p,
		&usage.Client{HTTPClient: us.Client(), BaseURL: us.URL},
		&auth.RefreshClient{HTTPClient: rs.Client(), Endpoint: rs.URL},
		true)

	details, summary, refreshed := lc.detailLines(tok, "alice@x.com", "Plus", profilePath)
	require.True(t, refreshed)
	require.Empty(t, summary)
	require.Len(t, details, 1)
	require.Contains(t, details[0], "75% left")
	require.EqualValues(t, 2, calls.Load())

	// The stored profile carries the rotated tokens.
	stored, err := auth.ReadCredential(profilePath)
	require.NoError(t, err)
	storedTok := stored.(auth.OAuthTokens)
	require.Equal(t, "fresh", storedTok.AccessToken)
	require.Equal(t, "r2", storedTok.RefreshToken)
}

func TestDetailLinesRefreshFailureIsAuthError(t *testing.T) {
	var calls atomic.Int64
	us := usageServer(t, &calls)
	defer us.Close()
	rs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"refresh_token_expired"}}`))
	}))
	defer rs.Close()

	p := testPaths(t)
	spec := aliceSpec
	spec.access = "expired"
	profilePath := profilePathForID(p.ProfilesDir, "alice@x.com-plus")
	writeTokenFile(t, profilePath, spec)
	tok, _ := auth.ReadCredential(profilePath)

	lc := testListCtx(t, p,
		&usage.Client{HTTPClient: us.Client(), BaseURL: us.URL},
		&auth.RefreshClient{HTTPClient: rs.Client(), Endpoint: rs.URL},
		true)

	details, summary, refreshed := lc.detailLines(tok, "alice@x.com", "Plus", profilePath)
	require.False(t, refreshed)
	require.Contains(t, summary, "Auth error:")
	require.Contains(t, summary, "expired")
	require.Len(t, details, 1)
	require.EqualValues(t, 1, calls.Load())
}

func TestDetailLinesMissingIdentityStillFetches(t *testing.T) {
	var calls atomic.Int64
	us := usageServer(t, &calls)
	defer us.Close()

	p := testPaths(t)
	tok := auth.OAuthTokens{
		Account:      "ws-x",
		IDToken:      makeIDToken(t, "", "", "u-x"),
		AccessToken:  "fresh",
		RefreshToken: "refresh",
	}
	lc := testListCtx(t, p, &usage.Client{HTTPClient: us.Client(), BaseURL: us.URL}, nil, true)

	details, summary, refreshed := lc.detailLines(tok, "", "", p.AuthFile)
	require.False(t, refreshed)
	require.Empty(t, summary)
	require.Len(t, details, 1)
	require.Contains(t, details[0], "75% left")
}

func TestDetailLinesMissingAccessShowsUnavailable(t *testing.T) {
	p := testPaths(t)
	tok := auth.OAuthTokens{
		Account: "ws-x",
		IDToken: makeIDToken(t, "alice@x.com", "plus", "u-x"),
	}
	lc := testListCtx(t, p, nil, nil, true)

	details, summary, _ := lc.detailLines(tok, "alice@x.com", "Plus", p.AuthFile)
	require.Empty(t, summary)
	require.Len(t, details, 1)
	require.Contains(t, details[0], usage.UnavailableText)
}

func TestMakeCurrentMissingAuthIsNil(t *testing.T) {
	p := testPaths(t)
	lc := testListCtx(t, p, nil, nil, false)
	require.Nil(t, lc.makeCurrent("", Labels{}, map[string]credResult{}))
}

func TestMakeCurrentUnsavedWarning(t *testing.T) {
	p := testPaths(t)
	writeTokenFile(t, p.AuthFile, bobSpec)
	lc := testListCtx(t, p, nil, nil, false)

	entry := lc.makeCurrent("", Labels{}, map[string]credResult{})
	require.NotNil(t, entry)
	require.True(t, entry.AlwaysShowDetails)
	require.Contains(t, strings.Join(entry.Details, "\n"), "not saved yet")
}

func TestMakeCurrentCopiesRefreshedTokensBack(t *testing.T) {
	var calls atomic.Int64
	us := usageServer(t, &calls)
	defer us.Close()
	rs := refreshServer(t)
	defer rs.Close()

	p := testPaths(t)
	spec := aliceSpec
	spec.access = "expired"
	writeTokenFile(t, p.AuthFile, spec)
	profilePath := profilePathForID(p.ProfilesDir, "alice@x.com-plus")
	writeTokenFile(t, profilePath, spec)

	lc := testListCtx(t, p,
		&usage.Client{HTTPClient: us.Client(), BaseURL: us.URL},
		&auth.RefreshClient{HTTPClient: rs.Client(), Endpoint: rs.URL},
		true)

	entry := lc.makeCurrent("alice@x.com-plus", Labels{}, map[string]credResult{})
	require.NotNil(t, entry)
	require.Empty(t, entry.ErrorSummary)

	stored, err := auth.ReadCredential(profilePath)
	require.NoError(t, err)
	require.Equal(t, "fresh", stored.(auth.OAuthTokens).AccessToken)
}

func TestMakeEntriesKeepsInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(usageBody))
	}))
	defer server.Close()

	p := testPaths(t)
	ids := []string{
		"alpha@x.com-plus", "bravo@x.com-plus", "chuck@x.com-plus",
		"delta@x.com-plus", "elena@x.com-plus",
	}
	creds := map[string]credResult{}
	for _, id := range ids {
		email := strings.TrimSuffix(id, "-plus")
		spec := tokenSpec{accountID: "ws-" + email, email: email, plan: "plus", userID: "u-" + email, access: "fresh"}
		writeProfileFile(t, p, id, spec)
		cred, err := auth.ReadCredential(profilePathForID(p.ProfilesDir, id))
		require.NoError(t, err)
		creds[id] = credResult{Cred: cred}
	}
	snap := &Snapshot{Labels: Labels{}, Creds: creds, Index: newIndex()}

	lc := testListCtx(t, p, &usage.Client{HTTPClient: server.Client(), BaseURL: server.URL}, nil, true)
	entries := lc.makeEntries(ids, snap, "")
	require.Len(t, entries, len(ids))
	for i, id := range ids {
		email := strings.TrimSuffix(id, "-plus")
		require.Contains(t, entries[i].Display, email, "slot %d", i)
	}
}

func TestRenderEntriesCollapsesErrorSummaries(t *testing.T) {
	p := testPaths(t)
	lc := testListCtx(t, p, nil, nil, false)
	entries := []Entry{{
		Display:      "[PLUS] broken@x.com",
		Details:      []string{"Error: something"},
		ErrorSummary: "Error: something",
	}}
	lines := renderEntries(entries, lc, false)
	require.Len(t, lines, 1)
	require.Equal(t, "[PLUS] broken@x.com  Error: something", lines[0])
}
