package runner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredentials means no credentials were supplied and the
// broker's environment variables are unset.
var ErrMissingCredentials = errors.New("missing credentials: pass email/password or set the broker environment variables")

// ValidationError rejects an order before any browser work happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ElementNotFoundError reports that no candidate selector for a role
// matched. The tried list goes into logs and probe reports so selector
// drift is diagnosable from the outside.
type ElementNotFoundError struct {
	Role  Role
	Tried []string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element for role %s (tried %d selectors)", e.Role, len(e.Tried))
}

// LoginFailureError carries every login URL that was attempted and why
// the overall attempt was abandoned.
type LoginFailureError struct {
	Broker   string
	Attempts []string
	Reason   string
}

func (e *LoginFailureError) Error() string {
	return fmt.Sprintf("%s login failed after trying %s: %s",
		e.Broker, strings.Join(e.Attempts, ", "), e.Reason)
}
