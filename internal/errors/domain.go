package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConnectionTimeout is returned when a registry connect attempt does not
// complete its handshake within the configured bound.
var ErrConnectionTimeout = errors.New("connection handshake timed out")

// InvalidTransitionError describes a rejected task stage change. When the
// rejection is caused by dependency gating, IncompleteDependencies names the
// prerequisite tasks that are not yet completed.
type InvalidTransitionError struct {
	From                   string
	To                     string
	IncompleteDependencies []string
}

func (e *InvalidTransitionError) Error() string {
	if len(e.IncompleteDependencies) > 0 {
		return fmt.Sprintf("cannot move task from %q to %q: dependencies not completed: %s",
			e.From, e.To, strings.Join(e.IncompleteDependencies, ", "))
	}
	return fmt.Sprintf("invalid stage transition from %q to %q", e.From, e.To)
}

// DispatchError collects per-recipient failures from one reminder dispatch.
// It is non-fatal: the reminder is still marked sent once every recipient has
// been attempted.
type DispatchError struct {
	ReminderID uint64
	Failures   []error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("reminder %d: %d of its recipients failed", e.ReminderID, len(e.Failures))
}

func (e *DispatchError) Unwrap() []error {
	return e.Failures
}
