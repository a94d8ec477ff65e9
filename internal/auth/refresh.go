package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/atomicio"
)

const (
	refreshTokenURL = "https://auth.openai.com/oauth/token"
	oauthClientID   = "app_EMoamEEZ73f0CkXaXp7hrann"
	oauthScope      = "openid profile email"

	// RefreshURLOverrideEnv redirects token refresh to an alternate endpoint.
	// Used by tests; honored in production for parity with the Codex CLI.
	RefreshURLOverrideEnv = "CODEX_REFRESH_TOKEN_URL_OVERRIDE"

	refreshTimeout = 5 * time.Second
)

// Refresh failure modes. The three token-state errors are distinguished by
// the machine-readable code in the 401 response body.
var (
	ErrNoRefreshToken            = errors.New("profile has no refresh token; log in again with `codex login` and re-save it")
	ErrRefreshExpired            = errors.New("refresh token has expired; log in again with `codex login` and re-save this profile")
	ErrRefreshReused             = errors.New("refresh token was already used; log in again with `codex login` and re-save this profile")
	ErrRefreshRevoked            = errors.New("refresh token was revoked; log in again with `codex login` and re-save this profile")
	ErrRefreshUnauthorized       = errors.New("token refresh unauthorized (401); log in again with `codex login` and re-save this profile")
	ErrRefreshMissingAccessToken = errors.New("refresh response is missing an access token")
)

// RefreshResponse is the OAuth token endpoint's reply. Absent fields keep
// their previous values in the stored credential.
type RefreshResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	ClientID     string `json:"client_id"`
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// RefreshClient exchanges refresh tokens at the OAuth endpoint and persists
// the result back into credential files.
type RefreshClient struct {
	HTTPClient *http.Client
	Endpoint   string
}

// NewRefreshClient builds a client against the production endpoint (or the
// env override) with the standard 5 second timeout.
func NewRefreshClient() *RefreshClient {
	endpoint := refreshTokenURL
	if override := os.Getenv(RefreshURLOverrideEnv); override != "" {
		endpoint = override
	}
	return &RefreshClient{
		HTTPClient: &http.Client{Timeout: refreshTimeout},
		Endpoint:   endpoint,
	}
}

// RefreshProfileTokens performs one refresh for tok, updates tok in place,
// and rewrites the credential file at path with the new token values while
// preserving every other field the file carries.
func (c *RefreshClient) RefreshProfileTokens(ctx context.Context, path string, tok *OAuthTokens) error {
	if tok.RefreshToken == "" {
		return ErrNoRefreshToken
	}
	refreshed, err := c.refreshAccessToken(ctx, tok.RefreshToken)
	if err != nil {
		return err
	}
	if refreshed.AccessToken == "" {
		return ErrRefreshMissingAccessToken
	}
	tok.AccessToken = refreshed.AccessToken
	if refreshed.IDToken != "" {
		tok.IDToken = refreshed.IDToken
	}
	if refreshed.RefreshToken != "" {
		tok.RefreshToken = refreshed.RefreshToken
	}
	return updateStoredTokens(path, refreshed)
}

func (c *RefreshClient) refreshAccessToken(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	payload, err := json.Marshal(refreshRequest{
		ClientID:     oauthClientID,
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
		Scope:        oauthScope,
	})
	if err != nil {
		return RefreshResponse{}, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return RefreshResponse{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return RefreshResponse{}, fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		body, _ := io.ReadAll(resp.Body)
		return RefreshResponse{}, classifyRefreshUnauthorized(body)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RefreshResponse{}, fmt.Errorf("token refresh failed (%d)", resp.StatusCode)
	}

	var refreshed RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return RefreshResponse{}, fmt.Errorf("invalid refresh response: %w", err)
	}
	return refreshed, nil
}

func classifyRefreshUnauthorized(body []byte) error {
	switch extractRefreshErrorCode(body) {
	case "refresh_token_expired":
		return ErrRefreshExpired
	case "refresh_token_reused":
		return ErrRefreshReused
	case "refresh_token_invalidated":
		return ErrRefreshRevoked
	default:
		return ErrRefreshUnauthorized
	}
}

// extractRefreshErrorCode digs the machine-readable code out of a 401 body.
// The endpoint has used both {"error":{"code":...}} and flat shapes.
func extractRefreshErrorCode(body []byte) string {
	var nested struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Code != "" {
		return strings.ToLower(nested.Error.Code)
	}
	var flat struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &flat); err == nil {
		if flat.Error != "" {
			return strings.ToLower(flat.Error)
		}
		if flat.Code != "" {
			return strings.ToLower(flat.Code)
		}
	}
	return ""
}

// updateStoredTokens rewrites the tokens object inside the credential file,
// leaving unknown top-level fields (OPENAI_API_KEY, last_refresh, anything
// newer CLIs add) untouched.
func updateStoredTokens(path string, refreshed RefreshResponse) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(contents, &root); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	tokens := map[string]json.RawMessage{}
	if raw, ok := root["tokens"]; ok {
		if err := json.Unmarshal(raw, &tokens); err != nil {
			return fmt.Errorf("invalid tokens object in %s: %w", path, err)
		}
	}
	setString := func(key, value string) error {
		if value == "" {
			return nil
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		tokens[key] = encoded
		return nil
	}
	if err := setString("id_token", refreshed.IDToken); err != nil {
		return err
	}
	if err := setString("access_token", refreshed.AccessToken); err != nil {
		return err
	}
	if err := setString("refresh_token", refreshed.RefreshToken); err != nil {
		return err
	}

	encodedTokens, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("serialize tokens: %w", err)
	}
	root["tokens"] = encodedTokens

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize auth file: %w", err)
	}
	out = append(out, '\n')
	if err := atomicio.WriteFile(path, out); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
