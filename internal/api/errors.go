package api

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// ValidationError reports bad local input. It is raised before any network
// call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// ErrLoginRequired is returned by operations that need a signed-in user
// when the session is anonymous.
var ErrLoginRequired = ValidationError{Field: "session", Reason: "sign in first"}

// AuthError reports a rejected credential. Callers resolve it by dropping the
// session; it is never retried.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e AuthError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "credential rejected"
	}
	return fmt.Sprintf("auth: %s: %s", e.Op, msg)
}

func (e AuthError) Unwrap() error {
	return e.Err
}

// RequestError reports a transport or server failure of a primary operation.
// Status is 0 when no response was received.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e RequestError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("request: %s: status %d: %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("request: %s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("request: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("request: %s: %s", e.Op, e.Message)
	}
}

func (e RequestError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request ran past its deadline.
func (e RequestError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// SecondaryFailure wraps the failure of a best-effort call that must not
// affect the primary flow. It is logged and counted, never surfaced.
type SecondaryFailure struct {
	Op  string
	Err error
}

func (e SecondaryFailure) Error() string {
	return fmt.Sprintf("secondary: %s: %v", e.Op, e.Err)
}

func (e SecondaryFailure) Unwrap() error {
	return e.Err
}

// ErrorLabel classifies err for metrics and log fields.
func ErrorLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var validation ValidationError
	if errors.As(err, &validation) {
		return "validation"
	}
	var auth AuthError
	if errors.As(err, &auth) {
		return "auth"
	}
	var secondary SecondaryFailure
	if errors.As(err, &secondary) {
		return "secondary"
	}
	var request RequestError
	if errors.As(err, &request) {
		if request.Timeout() {
			return "timeout"
		}
		if request.Status >= 500 {
			return "server"
		}
		if request.Status != 0 {
			return "client"
		}
		return "transport"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "other"
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var auth AuthError
	return errors.As(err, &auth)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var validation ValidationError
	return errors.As(err, &validation)
}
