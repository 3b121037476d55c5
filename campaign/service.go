/*
service.go - Transactional campaign workflows

PURPOSE:
  Implements the two-phase pricing lifecycle around the pure engine:

  Phase 1 (Commit): every new booking runs read-total -> validate ->
    price-at-simulated-total -> insert INSIDE one store transaction.
    The capacity check is advisory on its own (it trusts whatever total
    snapshot it is given); the transaction is what makes it safe. Two
    concurrent farmers cannot both validate against the same stale total.

  Phase 2 (Close): the final committed total produces ONE authoritative
    settlement price, stamped on the campaign and onto every non-cancelled
    booking's locked price. Closing an unformed campaign fails; there is
    no price below the minimum viable area.

  Settlement (SubmitReport): after close, the realized area is priced at
    the booking's (now final) unit price, tax on top.

ERROR CONTRACT:
  - Capacity rejections come back as *CapacityError; their message is for
    the farmer, verbatim.
  - State violations are the package sentinels (IsConflict).
  - Broken terms/inputs surface the pricing package's errors.

SEE ALSO:
  - pricing/capacity.go: why the validator alone is not enough
  - store/sqlite/sqlite.go: WithTx implementation
*/
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrihawk/booking-engine/pricing"
)

// Service runs the campaign workflows against a transactional store.
type Service struct {
	Store TxStore

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewService(store TxStore) *Service {
	return &Service{Store: store, Now: time.Now}
}

// =============================================================================
// CAMPAIGN CREATION
// =============================================================================

// CreateCampaign validates the price terms and persists a new open campaign.
// A campaign with broken terms must never exist: every later pricing call
// would fail, so the defect is surfaced here instead.
func (s *Service) CreateCampaign(ctx context.Context, c Campaign) (*Campaign, error) {
	if c.ID == "" {
		return nil, &pricing.InputError{Arg: "id", Reason: "campaign id is required"}
	}
	if err := c.Terms.Validate(); err != nil {
		return nil, err
	}
	if c.TaxRatePercent.IsNegative() || c.TaxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &pricing.InputError{Arg: "tax_rate_percent", Reason: "tax rate out of range"}
	}

	c.Status = CampaignOpen
	c.SettlementPrice = nil
	c.CreatedAt = s.Now()
	c.ClosedAt = nil

	if err := s.Store.SaveCampaign(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// =============================================================================
// PHASE 1 - COMMIT
// =============================================================================

// Commit books the requested area against an open campaign and locks the
// per-unit price computed at the simulated post-commitment total.
//
// While a two-threshold campaign is still unformed there is no current
// price; the viability price is locked as the provisional worst case (the
// highest price a formed campaign can ever charge) and is superseded by
// the authoritative settlement price at close.
func (s *Service) Commit(ctx context.Context, campaignID CampaignID, farmerID FarmerID, fieldName string, area decimal.Decimal) (*Booking, error) {
	var booking Booking

	err := s.Store.WithTx(ctx, func(tx Store) error {
		c, err := tx.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		if !c.Open() {
			return ErrCampaignNotOpen
		}

		total, err := tx.CommittedArea(ctx, campaignID)
		if err != nil {
			return err
		}

		check := pricing.ValidateIncrement(area, total, c.Terms.CapacityCeiling())
		if !check.Valid {
			return &CapacityError{Check: check}
		}

		quote, err := pricing.CurrentPrice(c.Terms, total.Add(area))
		if err != nil {
			return err
		}
		locked := quote.Price
		if quote.Unformed {
			locked = c.Terms.ViabilityPrice
		}

		booking = Booking{
			ID:          BookingID(uuid.NewString()),
			CampaignID:  campaignID,
			FarmerID:    farmerID,
			FieldName:   fieldName,
			Area:        area,
			LockedPrice: locked,
			Status:      BookingCommitted,
			CreatedAt:   s.Now(),
		}
		return tx.SaveBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelBooking releases a committed booking. The area leaves the
// cumulative aggregate immediately; already-locked prices of other
// bookings are not recomputed (only close does that).
func (s *Service) CancelBooking(ctx context.Context, bookingID BookingID) (*Booking, error) {
	var cancelled Booking

	err := s.Store.WithTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != BookingCommitted {
			return ErrBookingNotActive
		}
		b.Status = BookingCancelled
		cancelled = *b
		return tx.UpdateBooking(ctx, *b)
	})
	if err != nil {
		return nil, err
	}
	return &cancelled, nil
}

// =============================================================================
// PHASE 2 - CLOSE
// =============================================================================

// Close fixes the campaign's settlement price at the final committed total
// and stamps it onto every non-cancelled booking, superseding their
// commit-time locks. Fails with ErrCampaignUnformed when the final total
// never reached the minimum viable area.
func (s *Service) Close(ctx context.Context, campaignID CampaignID) (*Campaign, error) {
	var closed Campaign

	err := s.Store.WithTx(ctx, func(tx Store) error {
		c, err := tx.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		if !c.Open() {
			return ErrCampaignNotOpen
		}

		total, err := tx.CommittedArea(ctx, campaignID)
		if err != nil {
			return err
		}

		quote, err := pricing.CurrentPrice(c.Terms, total)
		if err != nil {
			return err
		}
		if quote.Unformed {
			return ErrCampaignUnformed
		}

		bookings, err := tx.ListBookings(ctx, campaignID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if !b.Counts() {
				continue
			}
			b.LockedPrice = quote.Price
			if err := tx.UpdateBooking(ctx, b); err != nil {
				return fmt.Errorf("stamping settlement price on booking %s: %w", b.ID, err)
			}
		}

		now := s.Now()
		c.Status = CampaignClosed
		c.SettlementPrice = &quote.Price
		c.ClosedAt = &now
		closed = *c
		return tx.UpdateCampaign(ctx, *c)
	})
	if err != nil {
		return nil, err
	}
	return &closed, nil
}

// CancelCampaign abandons an open campaign, releasing every committed
// booking without settlement. This is the exit path for campaigns that
// never reach viability.
func (s *Service) CancelCampaign(ctx context.Context, campaignID CampaignID) (*Campaign, error) {
	var cancelled Campaign

	err := s.Store.WithTx(ctx, func(tx Store) error {
		c, err := tx.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		if !c.Open() {
			return ErrCampaignNotOpen
		}

		bookings, err := tx.ListBookings(ctx, campaignID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if b.Status != BookingCommitted {
				continue
			}
			b.Status = BookingCancelled
			if err := tx.UpdateBooking(ctx, b); err != nil {
				return err
			}
		}

		c.Status = CampaignCancelled
		cancelled = *c
		return tx.UpdateCampaign(ctx, *c)
	})
	if err != nil {
		return nil, err
	}
	return &cancelled, nil
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// SubmitReport settles a booking: payable = round(final unit price *
// realized area), plus tax at the campaign's rate. Reports are accepted
// only after close, so the price applied is always the authoritative
// settlement price.
func (s *Service) SubmitReport(ctx context.Context, bookingID BookingID, actualArea decimal.Decimal) (*WorkReport, error) {
	var report WorkReport

	err := s.Store.WithTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status == BookingSettled {
			return ErrAlreadyReported
		}
		if b.Status != BookingCommitted {
			return ErrBookingNotActive
		}

		c, err := tx.GetCampaign(ctx, b.CampaignID)
		if err != nil {
			return err
		}
		if c.Status != CampaignClosed {
			return ErrCampaignNotClosed
		}

		amount, err := pricing.FinalAmount(b.LockedPrice, actualArea)
		if err != nil {
			return err
		}
		breakdown, err := pricing.Tax(amount, c.TaxRatePercent)
		if err != nil {
			return err
		}

		report = WorkReport{
			ID:              uuid.NewString(),
			BookingID:       bookingID,
			ActualArea:      actualArea,
			UnitPrice:       b.LockedPrice,
			AmountExTax:     breakdown.AmountExTax,
			TaxAmount:       breakdown.TaxAmount,
			AmountInclusive: breakdown.AmountInclusive,
			TaxRatePercent:  breakdown.RatePercent,
			ReportedAt:      s.Now(),
		}
		if err := tx.SaveReport(ctx, report); err != nil {
			return err
		}

		b.Status = BookingSettled
		return tx.UpdateBooking(ctx, *b)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// =============================================================================
// READ-ONLY PROJECTIONS
// =============================================================================

// QuoteAt interpolates the campaign's schedule at the live committed total.
// Returns the quote and the total it was computed against.
func (s *Service) QuoteAt(ctx context.Context, campaignID CampaignID) (pricing.Quote, decimal.Decimal, error) {
	c, err := s.Store.GetCampaign(ctx, campaignID)
	if err != nil {
		return pricing.Quote{}, decimal.Zero, err
	}
	total, err := s.Store.CommittedArea(ctx, campaignID)
	if err != nil {
		return pricing.Quote{}, decimal.Zero, err
	}
	quote, err := pricing.CurrentPrice(c.Terms, total)
	if err != nil {
		return pricing.Quote{}, decimal.Zero, err
	}
	return quote, total, nil
}

// NextMilestone projects the campaign's next price change at the live
// committed total.
func (s *Service) NextMilestone(ctx context.Context, campaignID CampaignID) (pricing.Milestone, decimal.Decimal, error) {
	c, err := s.Store.GetCampaign(ctx, campaignID)
	if err != nil {
		return pricing.Milestone{}, decimal.Zero, err
	}
	total, err := s.Store.CommittedArea(ctx, campaignID)
	if err != nil {
		return pricing.Milestone{}, decimal.Zero, err
	}
	m, err := pricing.NextMilestone(c.Terms, total)
	if err != nil {
		return pricing.Milestone{}, decimal.Zero, err
	}
	return m, total, nil
}
