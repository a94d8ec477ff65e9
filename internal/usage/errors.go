package usage

import "fmt"

// FetchError classifies a failed usage fetch. HTTP status failures,
// transport failures, and response-parse failures are distinct categories
// so callers can decide which ones warrant a token refresh.
type FetchError struct {
	// Status is the HTTP status code, or 0 for transport/parse failures.
	Status int
	// Parse is true when the response body could not be decoded.
	Parse bool
	// Err is the underlying transport or decode error, if any.
	Err error
}

func statusError(code int) *FetchError     { return &FetchError{Status: code} }
func transportError(err error) *FetchError { return &FetchError{Err: err} }
func parseError(err error) *FetchError     { return &FetchError{Parse: true, Err: err} }

// Unauthorized reports whether the fetch failed with HTTP 401, the one
// status that triggers a refresh-and-retry.
func (e *FetchError) Unauthorized() bool { return e.Status == 401 }

func (e *FetchError) Error() string {
	switch {
	case e.Status == 401:
		return "usage unauthorized (401); log in again with `codex login` and re-save this profile"
	case e.Status == 402:
		return "usage not available on this plan; usage reporting requires an active paid plan"
	case e.Status == 403:
		return "usage access denied (403)"
	case e.Status == 429:
		return "usage rate limited (429); try again shortly"
	case e.Status != 0:
		return fmt.Sprintf("usage request failed (%d)", e.Status)
	case e.Parse:
		return fmt.Sprintf("invalid usage response: %v", e.Err)
	default:
		return fmt.Sprintf("usage service unreachable: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }
