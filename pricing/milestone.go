/*
milestone.go - Next price-change projection

PURPOSE:
  Read-only companion to interpolate.go: given the same schedule and
  cumulative area, reports WHERE the price next changes and to WHAT,
  without computing the current price. Dashboards use it for the
  "price drops to N once committed area reaches M" banner.

  The branch structure mirrors CurrentPrice exactly; only the outputs
  differ. Keep the two in sync.
*/
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NextMilestone reports the next area threshold at which the schedule's
// price changes, and the price that takes effect there. Both fields are nil
// once the floor has been reached and no further change is possible.
//
// The Note text is for display only and carries no contract; the branch
// selection is the functional surface.
func NextMilestone(s Schedule, cumulativeArea decimal.Decimal) (Milestone, error) {
	if err := s.Validate(); err != nil {
		return Milestone{}, err
	}
	if cumulativeArea.IsNegative() {
		return Milestone{}, &InputError{Arg: "cumulative_area", Reason: "area must be non-negative"}
	}

	if s.Regime == RegimeTwoThreshold {
		switch {
		case cumulativeArea.LessThan(s.MinViableArea):
			return milestoneAt(s.MinViableArea, s.ViabilityPrice,
				"campaign opens at the viability price once the minimum viable area is committed"), nil
		case cumulativeArea.LessThan(s.MaxViableArea):
			return milestoneAt(s.MaxViableArea, s.FloorPrice,
				"price reaches the floor at the maximum viable area"), nil
		default:
			return Milestone{Note: "floor price reached; no further price change"}, nil
		}
	}

	if cumulativeArea.LessThan(s.TargetArea) {
		return milestoneAt(s.TargetArea, s.FloorPrice,
			"price reaches the floor at the target area"), nil
	}
	return Milestone{Note: "floor price reached; no further price change"}, nil
}

func milestoneAt(area, price decimal.Decimal, note string) Milestone {
	return Milestone{
		Area:  &area,
		Price: &price,
		Note:  fmt.Sprintf("%s (%s area-units at %s)", note, area.String(), price.String()),
	}
}
