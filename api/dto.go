/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Decimals are rendered
  as float64 at this boundary only; every computation upstream of it runs
  on exact decimals.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AREA INPUT:
  Booking and report requests accept either "area" (ares, the pricing
  unit) or "area_m2" (square meters, as produced by the field-polygon
  layer); exactly one must be set. Conversion happens here, before the
  engine ever sees the number.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/terms.go: TermsJSON, embedded in campaign payloads
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/agrihawk/booking-engine/campaign"
	"github.com/agrihawk/booking-engine/factory"
	"github.com/agrihawk/booking-engine/pricing"
)

// =============================================================================
// CAMPAIGNS
// =============================================================================

// CampaignDTO represents a campaign in API responses.
type CampaignDTO struct {
	ID              string            `json:"id"`
	ProviderID      string            `json:"provider_id"`
	Name            string            `json:"name"`
	ServiceKind     string            `json:"service_kind"`
	Region          string            `json:"region"`
	Terms           factory.TermsJSON `json:"terms"`
	TaxRatePercent  float64           `json:"tax_rate_percent"`
	Status          string            `json:"status"`
	SettlementPrice *float64          `json:"settlement_price,omitempty"`
	CreatedAt       string            `json:"created_at"`
	ClosedAt        *string           `json:"closed_at,omitempty"`
}

// CreateCampaignRequest is the request to publish a campaign.
type CreateCampaignRequest struct {
	ID          string            `json:"id"`
	ProviderID  string            `json:"provider_id"`
	Name        string            `json:"name"`
	ServiceKind string            `json:"service_kind"`
	Region      string            `json:"region"`
	Terms       factory.TermsJSON `json:"terms"`
	// TaxRatePercent defaults to the standard consumption tax rate.
	TaxRatePercent *float64 `json:"tax_rate_percent,omitempty"`
}

// =============================================================================
// BOOKINGS
// =============================================================================

// BookingDTO represents a booking in API responses.
type BookingDTO struct {
	ID          string  `json:"id"`
	CampaignID  string  `json:"campaign_id"`
	FarmerID    string  `json:"farmer_id"`
	FieldName   string  `json:"field_name,omitempty"`
	Area        float64 `json:"area"`
	LockedPrice float64 `json:"locked_price"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// CreateBookingRequest is the request to commit area against a campaign.
type CreateBookingRequest struct {
	FarmerID  string   `json:"farmer_id"`
	FieldName string   `json:"field_name,omitempty"`
	Area      *float64 `json:"area,omitempty"`
	AreaM2    *float64 `json:"area_m2,omitempty"`
}

// =============================================================================
// QUOTES & MILESTONES
// =============================================================================

// QuoteDTO is the live price projection for a campaign.
type QuoteDTO struct {
	CampaignID        string   `json:"campaign_id"`
	CommittedArea     float64  `json:"committed_area"`
	Price             *float64 `json:"price,omitempty"` // absent while unformed
	Unformed          bool     `json:"unformed"`
	Progress          float64  `json:"progress"`
	PriceReduction    float64  `json:"price_reduction"`
	RemainingArea     float64  `json:"remaining_area"`
	NextMilestoneArea *float64 `json:"next_milestone_area,omitempty"`
}

// MilestoneDTO is the next price-change projection for a campaign.
type MilestoneDTO struct {
	CampaignID    string   `json:"campaign_id"`
	CommittedArea float64  `json:"committed_area"`
	Area          *float64 `json:"area,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Note          string   `json:"note"`
}

// =============================================================================
// WORK REPORTS
// =============================================================================

// SubmitReportRequest is the request to settle a booking's realized work.
type SubmitReportRequest struct {
	ActualArea   *float64 `json:"actual_area,omitempty"`
	ActualAreaM2 *float64 `json:"actual_area_m2,omitempty"`
}

// WorkReportDTO represents a settled work report.
type WorkReportDTO struct {
	ID              string  `json:"id"`
	BookingID       string  `json:"booking_id"`
	ActualArea      float64 `json:"actual_area"`
	UnitPrice       float64 `json:"unit_price"`
	AmountExTax     float64 `json:"amount_ex_tax"`
	TaxAmount       float64 `json:"tax_amount"`
	AmountInclusive float64 `json:"amount_inclusive"`
	TaxRatePercent  float64 `json:"tax_rate_percent"`
	ReportedAt      string  `json:"reported_at"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toCampaignDTO(c *campaign.Campaign) CampaignDTO {
	dto := CampaignDTO{
		ID:             string(c.ID),
		ProviderID:     string(c.ProviderID),
		Name:           c.Name,
		ServiceKind:    c.ServiceKind,
		Region:         c.Region,
		Terms:          factory.TermsToJSON(c.Terms),
		TaxRatePercent: toFloat(c.TaxRatePercent),
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt.Format(timeLayout),
	}
	if c.SettlementPrice != nil {
		p := toFloat(*c.SettlementPrice)
		dto.SettlementPrice = &p
	}
	if c.ClosedAt != nil {
		s := c.ClosedAt.Format(timeLayout)
		dto.ClosedAt = &s
	}
	return dto
}

func toBookingDTO(b *campaign.Booking) BookingDTO {
	return BookingDTO{
		ID:          string(b.ID),
		CampaignID:  string(b.CampaignID),
		FarmerID:    string(b.FarmerID),
		FieldName:   b.FieldName,
		Area:        toFloat(b.Area),
		LockedPrice: toFloat(b.LockedPrice),
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.Format(timeLayout),
	}
}

func toQuoteDTO(campaignID campaign.CampaignID, total decimal.Decimal, q pricing.Quote) QuoteDTO {
	dto := QuoteDTO{
		CampaignID:     string(campaignID),
		CommittedArea:  toFloat(total),
		Unformed:       q.Unformed,
		Progress:       toFloat(q.Progress),
		PriceReduction: toFloat(q.PriceReduction),
		RemainingArea:  toFloat(q.RemainingArea),
	}
	if !q.Unformed {
		p := toFloat(q.Price)
		dto.Price = &p
	}
	if q.NextMilestoneArea != nil {
		a := toFloat(*q.NextMilestoneArea)
		dto.NextMilestoneArea = &a
	}
	return dto
}

func toMilestoneDTO(campaignID campaign.CampaignID, total decimal.Decimal, m pricing.Milestone) MilestoneDTO {
	dto := MilestoneDTO{
		CampaignID:    string(campaignID),
		CommittedArea: toFloat(total),
		Note:          m.Note,
	}
	if m.Area != nil {
		a := toFloat(*m.Area)
		dto.Area = &a
	}
	if m.Price != nil {
		p := toFloat(*m.Price)
		dto.Price = &p
	}
	return dto
}

func toReportDTO(r *campaign.WorkReport) WorkReportDTO {
	return WorkReportDTO{
		ID:              r.ID,
		BookingID:       string(r.BookingID),
		ActualArea:      toFloat(r.ActualArea),
		UnitPrice:       toFloat(r.UnitPrice),
		AmountExTax:     toFloat(r.AmountExTax),
		TaxAmount:       toFloat(r.TaxAmount),
		AmountInclusive: toFloat(r.AmountInclusive),
		TaxRatePercent:  toFloat(r.TaxRatePercent),
		ReportedAt:      r.ReportedAt.Format(timeLayout),
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
