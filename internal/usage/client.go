// Package usage fetches per-profile quota windows from the Codex usage API
// and renders them for list/status output.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	userAgent    = "cxprof/1.0"
	fetchTimeout = 5 * time.Second
)

// Window is one remote-reported quota period, converted to percent-left.
type Window struct {
	LeftPercent   float64
	ResetAt       int64
	ResetRelative string
}

// Limits holds up to two windows, assigned by window length: Short is the
// shorter limit_window_seconds (typically 5 hours), Long the longer
// (typically weekly). Assignment never trusts the payload's field names.
type Limits struct {
	Short *Window
	Long  *Window
}

type usagePayload struct {
	RateLimit *rateLimitDetails `json:"rate_limit"`
}

type rateLimitDetails struct {
	PrimaryWindow   *windowSnapshot `json:"primary_window"`
	SecondaryWindow *windowSnapshot `json:"secondary_window"`
}

type windowSnapshot struct {
	UsedPercent        float64 `json:"used_percent"`
	LimitWindowSeconds int64   `json:"limit_window_seconds"`
	ResetAt            int64   `json:"reset_at"`
}

// Client fetches usage payloads for one base URL.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

// NewClient builds a client with the standard 5 second timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: fetchTimeout},
		BaseURL:    baseURL,
	}
}

// Endpoint resolves the usage URL for a base: ChatGPT backend-api bases use
// /wham/usage, everything else the public /api/codex/usage route.
func Endpoint(baseURL string) string {
	if strings.Contains(baseURL, "/backend-api") {
		return baseURL + "/wham/usage"
	}
	return baseURL + "/api/codex/usage"
}

// FetchLimits fetches and converts the usage windows for one profile.
func (c *Client) FetchLimits(ctx context.Context, accessToken, accountID string, now time.Time) (Limits, error) {
	payload, err := c.fetchPayload(ctx, accessToken, accountID)
	if err != nil {
		return Limits{}, err
	}
	return buildLimits(payload, now), nil
}

func (c *Client) fetchPayload(ctx context.Context, accessToken, accountID string) (usagePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, Endpoint(c.BaseURL), nil)
	if err != nil {
		return usagePayload{}, transportError(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("ChatGPT-Account-Id", accountID)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return usagePayload{}, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return usagePayload{}, statusError(resp.StatusCode)
	}

	var payload usagePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return usagePayload{}, parseError(err)
	}
	return payload, nil
}

// buildLimits sorts whatever windows the payload carries by window length
// and assigns short/long deterministically.
func buildLimits(payload usagePayload, now time.Time) Limits {
	var limits Limits
	if payload.RateLimit == nil {
		return limits
	}
	type keyed struct {
		seconds int64
		window  Window
	}
	var windows []keyed
	for _, snap := range []*windowSnapshot{payload.RateLimit.PrimaryWindow, payload.RateLimit.SecondaryWindow} {
		if snap == nil {
			continue
		}
		windows = append(windows, keyed{snap.LimitWindowSeconds, convertWindow(snap, now)})
	}
	if len(windows) == 0 {
		return limits
	}
	if len(windows) == 2 && windows[1].seconds < windows[0].seconds {
		windows[0], windows[1] = windows[1], windows[0]
	}
	short := windows[0].window
	limits.Short = &short
	if len(windows) > 1 {
		long := windows[1].window
		limits.Long = &long
	}
	return limits
}

func convertWindow(snap *windowSnapshot, now time.Time) Window {
	left := 100 - snap.UsedPercent
	if left < 0 {
		left = 0
	}
	if left > 100 {
		left = 100
	}
	return Window{
		LeftPercent:   left,
		ResetAt:       snap.ResetAt,
		ResetRelative: formatResetRelative(snap.ResetAt, now),
	}
}

// formatResetRelative renders "now", "in 42m", "in 3h", "in 2d".
func formatResetRelative(resetAt int64, now time.Time) string {
	until := time.Unix(resetAt, 0).Sub(now)
	if until <= 0 {
		return "now"
	}
	secs := int64(until.Seconds())
	switch {
	case secs < 60:
		return fmt.Sprintf("in %ds", secs)
	case secs < 60*60:
		return fmt.Sprintf("in %dm", secs/60)
	case secs < 60*60*24:
		return fmt.Sprintf("in %dh", secs/(60*60))
	default:
		return fmt.Sprintf("in %dd", secs/(60*60*24))
	}
}
