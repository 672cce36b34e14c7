// Package lifecycle drives one verification page: validation, submission and
// the resulting verdict or error. A Controller is built per channel from a
// ChannelConfig; controllers share nothing with each other.
package lifecycle

import "github.com/Veraticus/sakhi/internal/model"

// Phase is the controller's position in the request lifecycle.
type Phase int

// Lifecycle phases. None is terminal.
const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseResult
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseResult:
		return "result"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of a controller.
type State struct {
	// Verdict is set only in PhaseResult.
	Verdict *model.Verdict
	// Message is the error reason in PhaseError, or a transient validation
	// notice in PhaseIdle.
	Message string
	// Subject is the input value or file name of the current attempt.
	Subject string
	Attempt uint64
	Phase   Phase
	// StatusCode is the HTTP status behind a PhaseError, zero when no
	// response arrived.
	StatusCode int
}

// Busy reports whether an attempt is running and submit is disabled.
func (s State) Busy() bool {
	return s.Phase == PhaseValidating || s.Phase == PhaseSubmitting
}
