/*
presets.go - JSON builders for common campaign price terms

PURPOSE:
  Providers define price terms as JSON (admin UI, seed data, tests). These
  helpers build the common shapes; factory.ParseTerms turns them back into
  a validated pricing.Schedule.
*/
package campaign

import (
	"encoding/json"
)

// LinearTermsJSON returns JSON for simple-regime terms: price falls from
// startPrice to floorPrice as committed area approaches targetArea.
func LinearTermsJSON(startPrice, floorPrice, targetArea float64) string {
	tj := map[string]interface{}{
		"start_price": startPrice,
		"floor_price": floorPrice,
		"target_area": targetArea,
	}
	b, _ := json.MarshalIndent(tj, "", "  ")
	return string(b)
}

// TwoThresholdTermsJSON returns JSON for two-threshold terms: the campaign
// is unformed below minViableArea, then the price falls from viabilityPrice
// to floorPrice at maxViableArea.
func TwoThresholdTermsJSON(startPrice, floorPrice, minViableArea, maxViableArea, viabilityPrice float64) string {
	tj := map[string]interface{}{
		"start_price":     startPrice,
		"floor_price":     floorPrice,
		"min_viable_area": minViableArea,
		"max_viable_area": maxViableArea,
		"viability_price": viabilityPrice,
	}
	b, _ := json.MarshalIndent(tj, "", "  ")
	return string(b)
}
