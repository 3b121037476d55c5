/*
interpolate.go - Reverse-auction price interpolation

PURPOSE:
  Computes the current per-unit price of a campaign as a function of the
  cumulative committed area. The more area farmers commit, the lower the
  price everyone pays; the curve is piecewise linear down to a floor.

THE TWO REGIMES:

  Linear (price vs cumulative area):

    StartPrice ─┐
                 \
                  \
    FloorPrice ────┴────────────
                0     TargetArea

  Two-threshold:

    (no price / "unformed")
    ViabilityPrice ───┐
                       \
                        \
    FloorPrice ──────────┴──────
            0   MinViable  MaxViable

  Note the two-threshold interpolation runs from ViabilityPrice down to
  FloorPrice, NOT from StartPrice. StartPrice still anchors PriceReduction
  (the "you have saved X" figure shown to farmers).

ROUNDING:
  Every price output is rounded half-away-from-zero to the nearest integer
  currency unit. This is the canonical settlement convention; see
  types.go roundPrice.

SEE ALSO:
  - milestone.go: read-only projection of the same branch structure
  - capacity.go:  admissibility of new commitments against the ceiling
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// CurrentPrice interpolates the schedule at the given cumulative committed
// area and returns the full quote: price (absent while unformed), progress
// through the active stretch of the curve, and the distance to the next
// price change.
//
// Fails with a ConfigError when the schedule is inconsistent and an
// InputError when cumulativeArea is negative. Pure and deterministic.
func CurrentPrice(s Schedule, cumulativeArea decimal.Decimal) (Quote, error) {
	if err := s.Validate(); err != nil {
		return Quote{}, err
	}
	if cumulativeArea.IsNegative() {
		return Quote{}, &InputError{Arg: "cumulative_area", Reason: "area must be non-negative"}
	}

	if s.Regime == RegimeTwoThreshold {
		return twoThresholdQuote(s, cumulativeArea), nil
	}
	return linearQuote(s, cumulativeArea), nil
}

func linearQuote(s Schedule, area decimal.Decimal) Quote {
	one := decimal.NewFromInt(1)

	progress := area.Div(s.TargetArea)
	if progress.GreaterThan(one) {
		progress = one
	}

	// price = start - (start - floor) * progress, rounded
	drop := s.StartPrice.Sub(s.FloorPrice).Mul(progress)
	price := roundPrice(s.StartPrice.Sub(drop))

	remaining := s.TargetArea.Sub(area)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	q := Quote{
		Price:          price,
		Unformed:       false,
		Progress:       progress,
		PriceReduction: s.StartPrice.Sub(price),
		RemainingArea:  remaining,
	}
	if remaining.IsPositive() {
		q.NextMilestoneArea = &remaining
	}
	return q
}

func twoThresholdQuote(s Schedule, area decimal.Decimal) Quote {
	switch {
	case area.LessThan(s.MinViableArea):
		// Not yet viable: no price exists. Progress measures the approach
		// to the viability threshold, not the price curve.
		remaining := s.MinViableArea.Sub(area)
		return Quote{
			Unformed:          true,
			Progress:          area.Div(s.MinViableArea),
			PriceReduction:    decimal.Zero,
			RemainingArea:     remaining,
			NextMilestoneArea: &remaining,
		}

	case area.GreaterThanOrEqual(s.MaxViableArea):
		// Curve exhausted: floor price holds forever.
		price := roundPrice(s.FloorPrice)
		zero := decimal.Zero
		return Quote{
			Price:             price,
			Unformed:          false,
			Progress:          decimal.NewFromInt(1),
			PriceReduction:    s.StartPrice.Sub(s.FloorPrice),
			RemainingArea:     decimal.Zero,
			NextMilestoneArea: &zero,
		}

	default:
		// Strictly between the thresholds: interpolate from ViabilityPrice
		// down to FloorPrice.
		span := s.MaxViableArea.Sub(s.MinViableArea)
		progress := area.Sub(s.MinViableArea).Div(span)

		drop := s.FloorPrice.Sub(s.ViabilityPrice).Mul(progress)
		price := roundPrice(s.ViabilityPrice.Add(drop))

		remaining := s.MaxViableArea.Sub(area)
		return Quote{
			Price:             price,
			Unformed:          false,
			Progress:          progress,
			PriceReduction:    s.StartPrice.Sub(price),
			RemainingArea:     remaining,
			NextMilestoneArea: &remaining,
		}
	}
}
