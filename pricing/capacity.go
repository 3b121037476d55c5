/*
capacity.go - Admissibility of incremental commitments

PURPOSE:
  Decides whether a requested booking increment fits under a campaign's
  capacity ceiling. The answer is a CapacityCheck VALUE, never an error:
  a full campaign is an everyday outcome, and the message is already
  phrased for the farmer.

ADVISORY ONLY:
  The check is only as fresh as the currentTotal snapshot the caller
  supplies. Two concurrent bookings can both pass against the same stale
  total; the serialization point lives in the orchestration layer
  (campaign.Service runs read-total -> validate -> insert inside one store
  transaction). This function has no opinion on that and needs none.

SEE ALSO:
  - campaign/service.go: the transactional caller
  - types.go: Schedule.CapacityCeiling for the ceiling to use
*/
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidateIncrement checks whether requestedArea can still be committed
// given the current cumulative total and the campaign ceiling.
//
// Remaining capacity (ceiling - currentTotal, before applying the
// increment) is reported on every result, valid or not, for display.
func ValidateIncrement(requestedArea, currentTotal, ceiling decimal.Decimal) CapacityCheck {
	remaining := ceiling.Sub(currentTotal)

	check := CapacityCheck{
		CurrentTotal: currentTotal,
		Remaining:    remaining,
		Ceiling:      ceiling,
	}

	// Minimum meaningful increment is 1 area-unit.
	if requestedArea.LessThanOrEqual(decimal.Zero) {
		check.Message = "booking must cover at least 1 area-unit"
		return check
	}

	if requestedArea.GreaterThan(remaining) {
		check.Message = fmt.Sprintf(
			"exceeds campaign capacity: remaining capacity is exactly %s area-units",
			remaining.StringFixed(1))
		return check
	}

	check.Valid = true
	return check
}
