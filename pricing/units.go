/*
units.go - Area-unit constants for upstream callers

PURPOSE:
  The engine itself is unit-agnostic: every function operates on whatever
  consistent area scalar the caller supplies. These constants exist for
  the geo layer and the API, which receive field polygon areas in square
  meters and quote campaigns in ares (1 a = 100 m^2) at a 10-are field
  granularity.
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

const (
	// SquareMetersPerAre: 1 a = 100 m^2. The marketplace prices work per are.
	SquareMetersPerAre = 100

	// AresPerField: campaigns book fields at a 10-are granularity.
	AresPerField = 10
)

// AresFromSquareMeters converts a square-meter figure (as produced by the
// upstream polygon-area computation) into ares.
func AresFromSquareMeters(m2 decimal.Decimal) decimal.Decimal {
	return m2.Div(decimal.NewFromInt(SquareMetersPerAre))
}

// SquareMetersFromAres is the inverse conversion, used for display.
func SquareMetersFromAres(a decimal.Decimal) decimal.Decimal {
	return a.Mul(decimal.NewFromInt(SquareMetersPerAre))
}
