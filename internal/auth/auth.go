// Package auth models the Codex CLI credential file (auth.json) and the
// identity information the profile store derives from it.
//
// A credential blob is one of two kinds: a full OAuth token set, or a bare
// API key reduced to a derived pseudo account id. The two kinds are kept as
// distinct types so every consumer has to handle both explicitly instead of
// sniffing for field presence.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrAuthFileNotFound is returned when the live credential file does not
// exist, which usually means the user has never logged in.
var ErrAuthFileNotFound = errors.New("auth file not found; log in with `codex login` first")

// ErrMissingTokens is returned for an auth file that contains neither a
// tokens object nor an API key.
var ErrMissingTokens = errors.New("auth file has no tokens; log in with `codex login` first")

// Credential is one credential blob: either OAuthTokens or APIKey.
type Credential interface {
	// AccountID returns the workspace account id for OAuth credentials, or
	// the derived pseudo id for API keys. Empty when unknown.
	AccountID() string

	credential()
}

// OAuthTokens is a ChatGPT-login credential. Any field may be empty.
type OAuthTokens struct {
	Account      string
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// AccountID implements Credential.
func (t OAuthTokens) AccountID() string { return t.Account }

func (OAuthTokens) credential() {}

// APIKey is an API-key credential reduced to its derived pseudo account id
// (see FromAPIKey). The key itself is never retained in memory beyond the
// raw file bytes.
type APIKey struct {
	ProfileID string
}

// AccountID implements Credential.
func (k APIKey) AccountID() string { return k.ProfileID }

func (APIKey) credential() {}

type authFile struct {
	OpenAIAPIKey string     `json:"OPENAI_API_KEY"`
	Tokens       *rawTokens `json:"tokens"`
}

type rawTokens struct {
	AccountID    string `json:"account_id"`
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ReadCredential reads and classifies the credential stored at path.
func ReadCredential(path string) (Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrAuthFileNotFound
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file authFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s (log in again with `codex login`): %w", path, err)
	}
	if file.Tokens != nil {
		return credentialFromTokens(*file.Tokens), nil
	}
	if file.OpenAIAPIKey != "" {
		return FromAPIKey(file.OpenAIAPIKey), nil
	}
	return nil, ErrMissingTokens
}

// ReadCredentialOpt is the tolerant variant used by scan paths: a missing or
// unreadable file yields (nil, false) instead of an error.
func ReadCredentialOpt(path string) (Credential, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	cred, err := ReadCredential(path)
	if err != nil {
		return nil, false
	}
	return cred, true
}

func credentialFromTokens(raw rawTokens) Credential {
	if strings.HasPrefix(raw.AccountID, apiKeyIDPrefix) &&
		raw.IDToken == "" && raw.AccessToken == "" && raw.RefreshToken == "" {
		return APIKey{ProfileID: raw.AccountID}
	}
	return OAuthTokens{
		Account:      raw.AccountID,
		IDToken:      raw.IDToken,
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
	}
}

// IsReady reports whether the credential carries everything the managed CLI
// needs to operate: API keys always do, OAuth tokens need an account id, an
// access token, and decodable email/plan claims.
func IsReady(cred Credential) bool {
	switch c := cred.(type) {
	case APIKey:
		return true
	case OAuthTokens:
		if c.Account == "" || c.AccessToken == "" {
			return false
		}
		email, plan := EmailAndPlan(c)
		return email != "" && plan != ""
	default:
		return false
	}
}

// HasCredential reports whether path holds a ready-to-use credential.
func HasCredential(path string) bool {
	cred, ok := ReadCredentialOpt(path)
	return ok && IsReady(cred)
}

// IssueMissingEmailPlan is the ProfileIssue result for a credential whose id
// token carries no email or plan claims. Callers treat it as softer than the
// other issues because such a profile may still fetch usage.
const IssueMissingEmailPlan = "profile is missing email/plan claims"

// ProfileIssue describes what makes a stored credential unusable, or returns
// "" when it is fine. email and plan are the values already extracted by the
// caller (empty when unknown). API keys are never flagged.
func ProfileIssue(cred Credential, email, plan string) string {
	switch c := cred.(type) {
	case APIKey:
		return ""
	case OAuthTokens:
		if email == "" || plan == "" {
			return IssueMissingEmailPlan
		}
		if c.Account == "" {
			return "profile is missing its account id"
		}
		if c.AccessToken == "" {
			return "profile is missing an access token"
		}
		return ""
	default:
		return "unrecognized credential kind"
	}
}
