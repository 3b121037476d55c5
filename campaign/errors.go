/*
errors.go - Domain errors for the campaign package

PURPOSE:
  Sentinels for lifecycle violations plus CapacityError, the structured
  carrier that lets a pricing.CapacityCheck rejection travel through an
  error return without losing its user-facing message.

  A capacity rejection is a routine business outcome: handlers surface
  CapacityError.Error() to the end user VERBATIM (it is the check's
  message) and must never log it as a system failure. Everything else
  here is a caller/state defect.

SEE ALSO:
  - pricing/errors.go: config/input errors raised by the numeric core
  - api/handlers.go:   error -> HTTP status mapping
*/
package campaign

import (
	"errors"

	"github.com/agrihawk/booking-engine/pricing"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCampaignNotFound is returned when a referenced campaign doesn't exist.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrBookingNotFound is returned when a referenced booking doesn't exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrReportNotFound is returned when a booking has no work report yet.
	ErrReportNotFound = errors.New("work report not found")

	// ErrCampaignNotOpen is returned when the campaign no longer accepts the
	// attempted operation (booking against a closed campaign, closing twice).
	ErrCampaignNotOpen = errors.New("campaign is not open")

	// ErrCampaignUnformed is returned when closing a campaign whose final
	// committed area never reached the minimum viable area. No settlement
	// price exists below that threshold; cancel the campaign instead.
	ErrCampaignUnformed = errors.New("campaign has not reached its minimum viable area")

	// ErrCampaignNotClosed is returned when settling a booking before its
	// campaign's settlement price has been fixed.
	ErrCampaignNotClosed = errors.New("campaign is not closed yet")

	// ErrBookingNotActive is returned when cancelling or settling a booking
	// that is already cancelled or settled.
	ErrBookingNotActive = errors.New("booking is not active")

	// ErrAlreadyReported is returned when a booking already has a work report.
	ErrAlreadyReported = errors.New("booking already has a work report")

	// ErrCapacityExceeded roots every capacity rejection; inspect with
	// errors.Is, extract the check with errors.As on *CapacityError.
	ErrCapacityExceeded = errors.New("capacity validation failed")

	// ErrDuplicateCampaign is returned when a campaign ID is already taken.
	ErrDuplicateCampaign = errors.New("campaign already exists")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// CapacityError wraps an invalid pricing.CapacityCheck. Error() is the
// check's end-user message, unmodified.
type CapacityError struct {
	Check pricing.CapacityCheck
}

func (e *CapacityError) Error() string { return e.Check.Message }

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrReportNotFound)
}

// IsConflict reports whether the error is a lifecycle-state conflict
// (valid request, wrong state).
func IsConflict(err error) bool {
	return errors.Is(err, ErrCampaignNotOpen) ||
		errors.Is(err, ErrCampaignUnformed) ||
		errors.Is(err, ErrCampaignNotClosed) ||
		errors.Is(err, ErrBookingNotActive) ||
		errors.Is(err, ErrAlreadyReported) ||
		errors.Is(err, ErrDuplicateCampaign)
}
