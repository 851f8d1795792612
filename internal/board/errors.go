package board

import "errors"

// Common store errors
var (
	// ErrNotFound signals that the operation target does not exist in the
	// store that was consulted. It is a normal result, not a fault.
	ErrNotFound = errors.New("post not found")

	// ErrUnavailable marks connectivity-class failures: the durable store is
	// unreachable or the connection timed out. The coordinator recovers these
	// locally by retrying against the fallback store.
	ErrUnavailable = errors.New("store unavailable")
)

// UnavailableError wraps the underlying driver error behind ErrUnavailable so
// the coordinator can match the class while logs keep the cause.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return "store unavailable during " + e.Op + ": " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// ValidationError reports a required-field or length violation. It is never
// retried against the fallback store; the message is surfaced verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
