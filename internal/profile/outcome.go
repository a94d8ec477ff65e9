// Package profile implements the saved-profile store: the on-disk index,
// identity-based id resolution, snapshot loading, and the save/load/list/
// status/delete/sync operations built on top of them.
package profile

import "errors"

// Outcome classifies how an operation ended, separately from whether an
// error occurred. A cancelled prompt is not a failure.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

// ErrCancelled is returned by selectors when the user backs out of a prompt.
// Operations translate it into OutcomeCancelled rather than a failure.
var ErrCancelled = errors.New("cancelled")
