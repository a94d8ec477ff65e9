package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// IdentityKey is the triple that defines "same profile". Two credentials
// denote the same profile iff all three fields are equal. PlanType is always
// lowercase; empty components are normalized to "unknown" where the original
// claim allows it.
type IdentityKey struct {
	PrincipalID      string
	WorkspaceOrOrgID string
	PlanType         string
}

// Identity-completeness errors surfaced by RequireIdentity.
var (
	ErrIncompleteAccount = errors.New("current credential is missing its account id; log in again with `codex login`")
	ErrIncompleteEmail   = errors.New("current credential is missing its email claim; log in again with `codex login`")
	ErrIncompletePlan    = errors.New("current credential is missing its plan claim; log in again with `codex login`")
)

type idTokenClaims struct {
	Subject        string      `json:"sub"`
	Email          string      `json:"email"`
	OrganizationID string      `json:"organization_id"`
	ProjectID      string      `json:"project_id"`
	Auth           *authClaims `json:"https://api.openai.com/auth"`
}

type authClaims struct {
	ChatGPTPlanType  string `json:"chatgpt_plan_type"`
	ChatGPTUserID    string `json:"chatgpt_user_id"`
	UserID           string `json:"user_id"`
	ChatGPTAccountID string `json:"chatgpt_account_id"`
}

func decodeIDTokenClaims(token string) (idTokenClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return idTokenClaims{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return idTokenClaims{}, false
	}
	var claims idTokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return idTokenClaims{}, false
	}
	return claims, true
}

// ExtractIdentity derives the identity key for a credential. The second
// return is false when not even a principal id can be determined.
//
// For OAuth tokens the principal is taken from the auth claims (user id),
// falling back to the JWT subject and finally the account id. The workspace
// prefers the account id over org/project claims, and defaults to "unknown".
func ExtractIdentity(cred Credential) (IdentityKey, bool) {
	switch c := cred.(type) {
	case APIKey:
		if c.ProfileID == "" {
			return IdentityKey{}, false
		}
		return IdentityKey{
			PrincipalID:      c.ProfileID,
			WorkspaceOrOrgID: c.ProfileID,
			PlanType:         "key",
		}, true
	case OAuthTokens:
		return extractOAuthIdentity(c)
	default:
		return IdentityKey{}, false
	}
}

func extractOAuthIdentity(t OAuthTokens) (IdentityKey, bool) {
	claims, _ := decodeIDTokenClaims(t.IDToken)

	principal := ""
	if claims.Auth != nil {
		principal = firstNonEmpty(claims.Auth.ChatGPTUserID, claims.Auth.UserID)
	}
	principal = firstNonEmpty(principal, claims.Subject, t.Account)
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return IdentityKey{}, false
	}

	workspace := t.Account
	if workspace == "" && claims.Auth != nil {
		workspace = claims.Auth.ChatGPTAccountID
	}
	workspace = firstNonEmpty(workspace, claims.OrganizationID, claims.ProjectID)
	workspace = strings.TrimSpace(workspace)
	if workspace == "" {
		workspace = "unknown"
	}

	plan := ""
	if claims.Auth != nil {
		plan = claims.Auth.ChatGPTPlanType
	}
	plan = normalizePlanType(plan)

	return IdentityKey{
		PrincipalID:      principal,
		WorkspaceOrOrgID: workspace,
		PlanType:         plan,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func normalizePlanType(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return strings.ToLower(trimmed)
}

// EmailAndPlan extracts the display email and formatted plan name. Either
// may be empty when the credential does not carry the claim. API keys report
// a masked key label and the fixed plan "Key".
func EmailAndPlan(cred Credential) (email, plan string) {
	switch c := cred.(type) {
	case APIKey:
		display := apiKeyDisplayLabel(c.ProfileID)
		if display == "" {
			display = apiKeyPlanLabel
		}
		return display, apiKeyPlanLabel
	case OAuthTokens:
		claims, ok := decodeIDTokenClaims(c.IDToken)
		if !ok {
			return "", ""
		}
		if claims.Auth != nil && claims.Auth.ChatGPTPlanType != "" {
			plan = FormatPlan(claims.Auth.ChatGPTPlanType)
		}
		return claims.Email, plan
	default:
		return "", ""
	}
}

// RequireIdentity demands a displayable account id, email, and plan, as the
// save path does. It fails with a specific error naming the first missing
// piece.
func RequireIdentity(cred Credential) (accountID, email, plan string, err error) {
	accountID = cred.AccountID()
	if accountID == "" {
		return "", "", "", ErrIncompleteAccount
	}
	email, plan = EmailAndPlan(cred)
	if email == "" {
		return "", "", "", ErrIncompleteEmail
	}
	if plan == "" {
		return "", "", "", ErrIncompletePlan
	}
	return accountID, email, plan, nil
}

// FormatPlan renders a raw plan type ("chatgpt_plus") as a display name
// ("Chatgpt Plus"). Empty input yields "Unknown".
func FormatPlan(plan string) string {
	var out strings.Builder
	for _, word := range strings.FieldsFunc(plan, func(r rune) bool {
		return r == '_' || r == '-'
	}) {
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(titleCase(word))
	}
	if out.Len() == 0 {
		return "Unknown"
	}
	return out.String()
}

// IsFreePlan reports whether a formatted or raw plan names the free tier.
func IsFreePlan(plan string) bool {
	return strings.EqualFold(plan, "free")
}

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
