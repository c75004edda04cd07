package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a backend call failed.
type ErrorKind string

const (
	// KindTransport covers connection failures and timeouts. It is the only retryable kind.
	KindTransport ErrorKind = "transport"
	// KindStatus is a non-200 upstream response.
	KindStatus ErrorKind = "status"
	// KindDecode is a body that does not have the expected structure.
	KindDecode ErrorKind = "decode"
	// KindEmpty is a well-formed response whose text is missing or blank.
	KindEmpty ErrorKind = "empty"
	// KindUnavailable is returned without a network call while the circuit breaker is open.
	KindUnavailable ErrorKind = "unavailable"
)

// ErrCircuitOpen is wrapped by KindUnavailable errors.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Error is the failure variant of a backend call. Flows convert it to a fallback answer.
type Error struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s %s error (status %d, attempts %d): %v", e.Provider, e.Kind, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("llm %s %s error (attempts %d): %v", e.Provider, e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool { return e.Kind == KindTransport }

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Retryable()
}
