package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// ValidationReason names why an input was rejected before reaching the model.
type ValidationReason string

const (
	ReasonEmptyInput         ValidationReason = "empty_input"
	ReasonTooLong            ValidationReason = "input_too_long"
	ReasonPotentialInjection ValidationReason = "potential_injection"
	ReasonInvalidRequest     ValidationReason = "invalid_request"
)

type ValidationError struct {
	Reason  ValidationReason
	Message string
	// Pattern is the injection rule that matched, set only for ReasonPotentialInjection.
	Pattern string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsSafetyRejection reports whether the input was well formed but refused by the safety checks.
func (e *ValidationError) IsSafetyRejection() bool {
	return e.Reason != ReasonInvalidRequest
}

func NewInvalidRequest(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: ReasonInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// BlockedError is returned when a filter in the chain refuses the input.
type BlockedError struct {
	Filter  string
	Message string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked by %s filter: %s", e.Filter, e.Message)
}
