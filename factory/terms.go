/*
Package factory provides JSON to pricing.Schedule conversion.

PURPOSE:
  Campaign price terms arrive as JSON (admin UI, API payloads, seed data).
  This package turns them into a validated pricing.Schedule with the
  regime decided EXPLICITLY at parse time.

WHY AN EXPLICIT REGIME DECISION?
  The terms format has two shapes sharing fields. Inferring the regime
  from which optional numbers happen to be non-zero at calculation time
  invites silent mispricing (a viability price of 0 would quietly fall
  back to the linear formula). Here the decision is made once: either all
  three two-threshold fields are supplied, or none are. A partial set is
  a configuration error, not a fallback.

JSON SCHEMA:
  Linear regime:
    {
      "start_price": 20000,
      "floor_price": 15000,
      "target_area": 50
    }

  Two-threshold regime:
    {
      "start_price": 20000,
      "floor_price": 15000,
      "min_viable_area": 30,
      "max_viable_area": 50,
      "viability_price": 18000
    }

USAGE:
  terms, err := factory.ParseTerms(campaign.TwoThresholdTermsJSON(20000, 15000, 30, 50, 18000))

SEE ALSO:
  - pricing/types.go: Schedule invariants enforced by the constructors
  - campaign/presets.go: the matching JSON builders
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agrihawk/booking-engine/pricing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TermsJSON is the JSON representation of campaign price terms.
type TermsJSON struct {
	StartPrice float64 `json:"start_price"`
	FloorPrice float64 `json:"floor_price"`

	// Linear regime.
	TargetArea *float64 `json:"target_area,omitempty"`

	// Two-threshold regime. All three or none.
	MinViableArea  *float64 `json:"min_viable_area,omitempty"`
	MaxViableArea  *float64 `json:"max_viable_area,omitempty"`
	ViabilityPrice *float64 `json:"viability_price,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseTerms parses JSON price terms into a validated Schedule.
func ParseTerms(jsonStr string) (pricing.Schedule, error) {
	var tj TermsJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return pricing.Schedule{}, fmt.Errorf("failed to parse terms JSON: %w", err)
	}
	return BuildTerms(tj)
}

// BuildTerms converts an already-unmarshalled TermsJSON into a Schedule.
func BuildTerms(tj TermsJSON) (pricing.Schedule, error) {
	start := decimal.NewFromFloat(tj.StartPrice)
	floor := decimal.NewFromFloat(tj.FloorPrice)

	set := 0
	for _, f := range []*float64{tj.MinViableArea, tj.MaxViableArea, tj.ViabilityPrice} {
		if f != nil {
			set++
		}
	}

	switch set {
	case 0:
		if tj.TargetArea == nil {
			return pricing.Schedule{}, &pricing.ConfigError{
				Field: "target_area", Reason: "linear terms require a target area",
			}
		}
		return pricing.NewLinearSchedule(start, floor, decimal.NewFromFloat(*tj.TargetArea))

	case 3:
		return pricing.NewTwoThresholdSchedule(
			start, floor,
			decimal.NewFromFloat(*tj.MinViableArea),
			decimal.NewFromFloat(*tj.MaxViableArea),
			decimal.NewFromFloat(*tj.ViabilityPrice),
		)

	default:
		return pricing.Schedule{}, &pricing.ConfigError{
			Field:  "min_viable_area",
			Reason: "two-threshold terms require min_viable_area, max_viable_area and viability_price together",
		}
	}
}

// TermsToJSON serializes a Schedule back to its JSON representation, for
// storage and API responses.
func TermsToJSON(s pricing.Schedule) TermsJSON {
	start, _ := s.StartPrice.Float64()
	floor, _ := s.FloorPrice.Float64()
	tj := TermsJSON{StartPrice: start, FloorPrice: floor}

	if s.Regime == pricing.RegimeTwoThreshold {
		minV, _ := s.MinViableArea.Float64()
		maxV, _ := s.MaxViableArea.Float64()
		via, _ := s.ViabilityPrice.Float64()
		tj.MinViableArea = &minV
		tj.MaxViableArea = &maxV
		tj.ViabilityPrice = &via
		return tj
	}

	target, _ := s.TargetArea.Float64()
	tj.TargetArea = &target
	return tj
}
