/*
Package pricing implements the reverse-auction pricing engine.

PURPOSE:
  This package contains the numeric core of the booking marketplace: the
  function family that turns a campaign's price terms and a cumulative
  committed-area figure into a per-unit price, validates incremental
  commitments against a capacity ceiling, and computes tax-inclusive
  settlement amounts. Everything here is a pure, deterministic function
  over its arguments. No I/O, no state, no clocks.

KEY CONCEPTS IN THIS FILE (types.go):
  - Schedule: A campaign's immutable price terms with an explicit regime tag
  - Quote:    The result of a price interpolation at a given committed area
  - CapacityCheck: The result of validating a requested increment
  - TaxBreakdown:  Settlement amount split into ex-tax / tax / inclusive
  - Milestone:     The next area threshold at which the price changes

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for every price and area. Rounding is
     half-away-from-zero (decimal's Round), applied exactly where the
     financial contract says and nowhere else.
  2. Explicit regimes: Which interpolation formula applies is a tag fixed
     when the Schedule is constructed, never inferred from which fields
     happen to be non-zero at calculation time.
  3. Value results: Expected business outcomes (capacity exceeded, campaign
     not yet viable) are returned values, not errors. Errors are reserved
     for broken terms and broken inputs.

USAGE:
  terms, err := pricing.NewLinearSchedule(d(20000), d(15000), d(50))
  quote, err := pricing.CurrentPrice(terms, d(25))
  // quote.Price == 17500, quote.Progress == 0.5

SEE ALSO:
  - interpolate.go: CurrentPrice, the heart of the engine
  - capacity.go:    ValidateIncrement
  - settlement.go:  FinalAmount and Tax
  - milestone.go:   NextMilestone
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// REGIME - Which interpolation formula a schedule uses
// =============================================================================

// Regime identifies the interpolation formula of a Schedule. It is decided
// once, at construction, from which terms the campaign was created with.
type Regime string

const (
	// RegimeLinear: price falls linearly from StartPrice at zero committed
	// area to FloorPrice at TargetArea, then holds at FloorPrice.
	RegimeLinear Regime = "linear"

	// RegimeTwoThreshold: below MinViableArea the campaign is unformed and
	// has no price. Between MinViableArea and MaxViableArea the price falls
	// linearly from ViabilityPrice to FloorPrice. At or above MaxViableArea
	// it holds at FloorPrice.
	RegimeTwoThreshold Regime = "two_threshold"
)

// =============================================================================
// SCHEDULE - A campaign's price terms (immutable)
// =============================================================================

// Schedule is the immutable pricing configuration of one campaign.
// Construct through NewLinearSchedule / NewTwoThresholdSchedule (or
// factory.ParseTerms) so the regime tag and field invariants are enforced.
type Schedule struct {
	Regime Regime

	// StartPrice is the per-unit price at minimal commitment.
	// FloorPrice is the lowest price the campaign will ever charge.
	// Invariant: StartPrice >= FloorPrice.
	StartPrice decimal.Decimal
	FloorPrice decimal.Decimal

	// TargetArea is the area at which FloorPrice is reached (linear regime).
	// Always > 0 under RegimeLinear.
	TargetArea decimal.Decimal

	// Two-threshold regime fields. All three are set and positive under
	// RegimeTwoThreshold, zero-valued otherwise.
	MinViableArea  decimal.Decimal
	MaxViableArea  decimal.Decimal
	ViabilityPrice decimal.Decimal
}

// NewLinearSchedule builds a simple-regime schedule.
func NewLinearSchedule(startPrice, floorPrice, targetArea decimal.Decimal) (Schedule, error) {
	s := Schedule{
		Regime:     RegimeLinear,
		StartPrice: startPrice,
		FloorPrice: floorPrice,
		TargetArea: targetArea,
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// NewTwoThresholdSchedule builds a two-threshold-regime schedule.
// A non-positive viability price is rejected outright: a reverse auction
// only ever lowers a positive price toward a positive floor, so "price 0
// at the viability threshold" can only be a data-entry mistake.
func NewTwoThresholdSchedule(startPrice, floorPrice, minViableArea, maxViableArea, viabilityPrice decimal.Decimal) (Schedule, error) {
	s := Schedule{
		Regime:         RegimeTwoThreshold,
		StartPrice:     startPrice,
		FloorPrice:     floorPrice,
		MinViableArea:  minViableArea,
		MaxViableArea:  maxViableArea,
		ViabilityPrice: viabilityPrice,
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// Validate checks the schedule's internal consistency. CurrentPrice and
// NextMilestone call it defensively so a hand-built Schedule literal cannot
// produce a silently wrong price.
func (s Schedule) Validate() error {
	if s.StartPrice.LessThan(s.FloorPrice) {
		return &ConfigError{Field: "start_price", Reason: "start price below floor price"}
	}
	if s.FloorPrice.IsNegative() {
		return &ConfigError{Field: "floor_price", Reason: "floor price must be non-negative"}
	}
	switch s.Regime {
	case RegimeLinear:
		if !s.TargetArea.IsPositive() {
			return &ConfigError{Field: "target_area", Reason: "target area must be positive"}
		}
	case RegimeTwoThreshold:
		if !s.MinViableArea.IsPositive() {
			return &ConfigError{Field: "min_viable_area", Reason: "minimum viable area must be positive"}
		}
		if !s.MaxViableArea.IsPositive() {
			return &ConfigError{Field: "max_viable_area", Reason: "maximum viable area must be positive"}
		}
		if s.MinViableArea.GreaterThanOrEqual(s.MaxViableArea) {
			return &ConfigError{Field: "min_viable_area", Reason: "minimum viable area must be below maximum viable area"}
		}
		if !s.ViabilityPrice.IsPositive() {
			return &ConfigError{Field: "viability_price", Reason: "viability price must be positive"}
		}
		if s.ViabilityPrice.LessThan(s.FloorPrice) {
			return &ConfigError{Field: "viability_price", Reason: "viability price below floor price"}
		}
	default:
		return &ConfigError{Field: "regime", Reason: "unknown pricing regime"}
	}
	return nil
}

// CapacityCeiling returns the campaign's committed-area ceiling:
// MaxViableArea under the two-threshold regime, TargetArea under the linear
// regime. Validate guarantees both are positive, so callers never see a
// degenerate ceiling.
func (s Schedule) CapacityCeiling() decimal.Decimal {
	if s.Regime == RegimeTwoThreshold {
		return s.MaxViableArea
	}
	return s.TargetArea
}

// =============================================================================
// RESULT VALUES - Ephemeral outputs, no identity, no lifecycle
// =============================================================================

// Quote is the result of interpolating a schedule at a committed area.
type Quote struct {
	// Price is the current per-unit price, rounded to the nearest currency
	// unit. Zero-valued while Unformed is true (no price exists yet).
	Price decimal.Decimal

	// Unformed is true when cumulative area has not reached MinViableArea
	// under the two-threshold regime. Always false under the linear regime.
	Unformed bool

	// Progress is the normalized position within the active stretch of the
	// price curve, in [0, 1].
	Progress decimal.Decimal

	// PriceReduction is StartPrice - Price, zero while unformed.
	PriceReduction decimal.Decimal

	// RemainingArea is the area left until the next ceiling
	// (MinViableArea while unformed, otherwise the floor-price threshold).
	RemainingArea decimal.Decimal

	// NextMilestoneArea is the area remaining until the price next changes.
	// Nil once no further change is possible.
	NextMilestoneArea *decimal.Decimal
}

// CapacityCheck is the result of validating a requested increment.
// An invalid check is a routine business outcome, not an error: Message is
// phrased for the end user and must be surfaced verbatim.
type CapacityCheck struct {
	Valid   bool
	Message string // set iff !Valid

	CurrentTotal decimal.Decimal
	// Remaining is ceiling - current total, reported before applying the
	// increment. Meaningful for display even when the check is invalid.
	Remaining decimal.Decimal
	Ceiling   decimal.Decimal
}

// TaxBreakdown splits a settlement amount into its tax components.
// AmountInclusive is the exact sum AmountExTax + TaxAmount; only the tax
// term is rounded.
type TaxBreakdown struct {
	AmountExTax     decimal.Decimal
	TaxAmount       decimal.Decimal
	AmountInclusive decimal.Decimal
	RatePercent     decimal.Decimal
}

// Milestone describes the next area threshold at which the price changes.
// Area and Price are nil once no further change is possible. Note is a
// human-readable description for display; it carries no contract.
type Milestone struct {
	Area  *decimal.Decimal
	Price *decimal.Decimal
	Note  string
}

// roundPrice applies the engine's single rounding convention:
// round-half-away-from-zero to the nearest integer currency unit.
// decimal.Round implements exactly that. Never substitute floor or
// banker's rounding; settlement amounts depend on it.
func roundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
