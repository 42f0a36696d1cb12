package core

import (
	"errors"
	"fmt"
)

// Error taxonomy for the synthesis pipeline. Callers translate these kinds
// into transport-specific responses; the pipeline itself never retries.
var (
	// ErrInvalidInput covers empty text, unknown users, and malformed
	// requests. Detected before any provider call; no side effects occur.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPaymentRequired covers exceeded daily quotas and expired free
	// trials. Detected before any provider call; no side effects occur.
	ErrPaymentRequired = errors.New("payment required")

	// ErrDependency covers provider and store call failures.
	ErrDependency = errors.New("dependency failure")

	// ErrInternal covers unexpected, unclassified failures.
	ErrInternal = errors.New("internal error")
)

// Specific errors layered on the taxonomy.
var (
	// ErrUserNotFound is an invalid-input error for unknown user IDs.
	ErrUserNotFound = fmt.Errorf("%w: user not found", ErrInvalidInput)

	// ErrTrialExpired is returned for free-tier users whose trial window
	// has lapsed, regardless of remaining numeric quota.
	ErrTrialExpired = fmt.Errorf(
		"%w: free trial expired, upgrade to pro to continue",
		ErrPaymentRequired,
	)
)

// QuotaError reports a daily character limit violation with the numbers the
// caller needs to render an actionable response.
type QuotaError struct {
	Used      int
	Limit     int
	Requested int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf(
		"%v: daily character limit exceeded: used %d, limit %d, requested %d",
		ErrPaymentRequired, e.Used, e.Limit, e.Requested,
	)
}

// Unwrap ties QuotaError into the PaymentRequired kind so that
// errors.Is(err, ErrPaymentRequired) holds.
func (e *QuotaError) Unwrap() error {
	return ErrPaymentRequired
}

// ErrorKind maps an error to its taxonomy name for logging and for transport
// layers that need a status class.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrPaymentRequired):
		return "payment_required"
	case errors.Is(err, ErrDependency):
		return "dependency"
	default:
		return "internal"
	}
}
