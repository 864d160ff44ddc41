// Package errors provides the error taxonomy for workflow runs.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure modes an agent can hit.
var (
	ErrMissingLanguage   = errors.New("no language was selected")
	ErrMissingField      = errors.New("required project specification field is not set")
	ErrSpecLocked        = errors.New("failed to acquire write access to project specification")
	ErrFieldOwned        = errors.New("project specification field is owned by another agent")
	ErrDecode            = errors.New("could not decode model response")
	ErrModelUnavailable  = errors.New("model service unavailable")
	ErrBuildFailed       = errors.New("generated code failed to build")
	ErrIllegalTransition = errors.New("illegal agent state transition")
	ErrTimeout           = errors.New("operation timed out")
	ErrUnknownAgent      = errors.New("unknown agent")
)

// FatalError aborts the run. It names the role and state that failed so the
// CLI can print a labelled diagnostic.
type FatalError struct {
	Role  string
	State string
	Err   error
}

func (e *FatalError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("%s (%s): %v", e.Role, e.State, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Role, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as a FatalError unless it already is one.
func Fatal(role, state string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return err
	}
	return &FatalError{Role: role, State: state, Err: err}
}

// ModelError represents a failed call to a model backend. It always matches
// ErrModelUnavailable under errors.Is.
type ModelError struct {
	Provider   string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s model error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s model error: %v", e.Provider, e.Err)
}

func (e *ModelError) Unwrap() []error { return []error{ErrModelUnavailable, e.Err} }

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var me *ModelError
	if errors.As(err, &me) {
		switch me.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		if me.Transient {
			return true
		}
	}
	return errors.Is(err, ErrTimeout)
}

// RoleOf returns the role recorded on a FatalError in err's chain.
func RoleOf(err error) (string, bool) {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Role, true
	}
	return "", false
}
