/*
Package campaign provides the booking-marketplace domain around the pricing engine.

PURPOSE:
  Campaigns are provider-published work offers (drone spraying, seeding,
  survey flights) with a capacity ceiling and a reverse-auction price
  schedule. Farmers commit field area against a campaign; the engine in
  the pricing package decides admissibility and price, and this package
  supplies the lifecycle around it:

    commit  -> validate capacity, lock a price at the simulated
               post-commitment total (transactional)
    close   -> recompute ONE authoritative settlement price at the final
               total and stamp it on every live booking
    report  -> settle the realized area against the locked/final price,
               tax included

KEY TYPES:
  - Campaign:   offer + immutable price terms + status
  - Booking:    a farmer's commitment with its locked price
  - WorkReport: the settled outcome of one booking

SEE ALSO:
  - service.go: the transactional workflows
  - store.go:   persistence interfaces
  - pricing:    the pure numeric core
*/
package campaign

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrihawk/booking-engine/pricing"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CampaignID string
type BookingID string
type FarmerID string
type ProviderID string

// =============================================================================
// CAMPAIGN
// =============================================================================

type CampaignStatus string

const (
	// CampaignOpen accepts new bookings.
	CampaignOpen CampaignStatus = "open"
	// CampaignClosed has its settlement price fixed; no further bookings.
	CampaignClosed CampaignStatus = "closed"
	// CampaignCancelled never reached viability; all bookings released.
	CampaignCancelled CampaignStatus = "cancelled"
)

// Campaign is a provider-published work offer. Terms are immutable for the
// life of the campaign; cumulative committed area is never stored here but
// recomputed from non-cancelled bookings before every pricing call.
type Campaign struct {
	ID          CampaignID
	ProviderID  ProviderID
	Name        string
	ServiceKind string // e.g. "spraying", "seeding", "survey"
	Region      string

	Terms          pricing.Schedule
	TaxRatePercent decimal.Decimal

	Status CampaignStatus

	// SettlementPrice is the single authoritative per-unit price fixed at
	// close time. Nil while the campaign is open.
	SettlementPrice *decimal.Decimal

	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Open reports whether the campaign still accepts bookings.
func (c *Campaign) Open() bool { return c.Status == CampaignOpen }

// =============================================================================
// BOOKING
// =============================================================================

type BookingStatus string

const (
	// BookingCommitted counts toward cumulative area and awaits settlement.
	BookingCommitted BookingStatus = "committed"
	// BookingCancelled is released: excluded from the aggregate, never settled.
	BookingCancelled BookingStatus = "cancelled"
	// BookingSettled has a work report and a final payable amount.
	BookingSettled BookingStatus = "settled"
)

// Booking is a farmer's pledge of field area against a campaign.
// LockedPrice is computed at commit time against the simulated
// post-commitment total, and overwritten once by the campaign-close
// settlement price.
type Booking struct {
	ID         BookingID
	CampaignID CampaignID
	FarmerID   FarmerID
	FieldName  string

	Area        decimal.Decimal
	LockedPrice decimal.Decimal

	Status    BookingStatus
	CreatedAt time.Time
}

// Counts reports whether the booking contributes to cumulative area.
func (b *Booking) Counts() bool { return b.Status != BookingCancelled }

// =============================================================================
// WORK REPORT
// =============================================================================

// WorkReport records the settled outcome of one booking: the realized area
// (possibly different from the committed area) priced at the booking's
// locked or campaign-final unit price, with tax on top.
type WorkReport struct {
	ID        string
	BookingID BookingID

	ActualArea decimal.Decimal
	UnitPrice  decimal.Decimal

	AmountExTax     decimal.Decimal
	TaxAmount       decimal.Decimal
	AmountInclusive decimal.Decimal
	TaxRatePercent  decimal.Decimal

	ReportedAt time.Time
}
