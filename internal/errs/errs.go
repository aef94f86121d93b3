package errs

import (
	"errors"
	"fmt"
)

var ErrInvalidToken = errors.New("invalid token")
var ErrForbidden = errors.New("admin role required")
var ErrNoEligible = errors.New("no orders currently match")
var ErrAborted = errors.New("bulk update aborted")
var ErrPollInProgress = errors.New("poll already in progress")
var ErrNotFound = errors.New("not found")

// ValidationError is raised locally, before any remote call is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransitionError means the requested status change has no valid edge.
// It never reaches the remote store.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// RemoteError carries the upstream server message when one was provided.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote call failed with status %d", e.StatusCode)
}
