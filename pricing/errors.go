/*
errors.go - Error types for the pricing engine

PURPOSE:
  Two exceptional error kinds exist in this package, both deterministic
  caller defects:

  1. ConfigError - the campaign's price terms are internally inconsistent
     (start price below floor, non-positive thresholds). Should have been
     caught at campaign creation; the engine still defends at call time.
  2. InputError - a call-time argument violates a precondition (negative
     area, tax rate out of range).

  Capacity rejections are NOT errors. They are routine business outcomes
  returned as CapacityCheck values (see capacity.go) because they are
  expected, frequent, and user-facing.

  No error in this package is retryable: the functions are pure, so the
  same inputs reproduce the same failure.

USAGE:
  Wrap/inspect with errors.Is:

    if errors.Is(err, pricing.ErrBadConfig) {
        // reject the campaign terms
    }

SEE ALSO:
  - campaign/errors.go: domain-level errors wrapping these
*/
package pricing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBadConfig is the root of every price-terms consistency failure.
	ErrBadConfig = errors.New("invalid pricing configuration")

	// ErrBadInput is the root of every call-time precondition failure.
	ErrBadInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending field/argument
// =============================================================================

// ConfigError reports an internally inconsistent Schedule.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid pricing configuration: %s (%s)", e.Reason, e.Field)
}

func (e *ConfigError) Unwrap() error {
	return ErrBadConfig
}

// InputError reports a call-time argument that violates a precondition.
type InputError struct {
	Arg    string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s (%s)", e.Reason, e.Arg)
}

func (e *InputError) Unwrap() error {
	return ErrBadInput
}

// IsClientError reports whether the error is a caller defect that should be
// rejected (HTTP 400 equivalent) rather than retried or escalated.
func IsClientError(err error) bool {
	return errors.Is(err, ErrBadConfig) || errors.Is(err, ErrBadInput)
}
