/*
store.go - Persistence interfaces for the campaign domain

PURPOSE:
  Defines the contract between the domain services and the database.
  Implementations: store/sqlite (production) and campaign/store (in-memory,
  for tests).

THE AGGREGATE:
  CommittedArea is the one query the pricing engine depends on: the sum of
  non-cancelled bookings' areas for a campaign. It is recomputed before
  every pricing call, never cached. Bookings' LockedPrice is the only
  value the engine writes back.

TRANSACTIONS:
  The pure capacity validator cannot detect that its currentTotal snapshot
  is stale. WithTx is the serialization point: the commit and close
  workflows run read-total -> validate/price -> write inside one store
  transaction so concurrent bookings cannot jointly exceed the ceiling.

SEE ALSO:
  - service.go: the workflows using WithTx
  - store/sqlite/sqlite.go: concrete implementation
*/
package campaign

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store handles persistence of campaigns, bookings, and work reports.
type Store interface {
	// SaveCampaign inserts a campaign. Fails with ErrDuplicateCampaign if
	// the ID is taken.
	SaveCampaign(ctx context.Context, c Campaign) error

	// GetCampaign returns a campaign or ErrCampaignNotFound.
	GetCampaign(ctx context.Context, id CampaignID) (*Campaign, error)

	// ListCampaigns returns all campaigns, newest first.
	ListCampaigns(ctx context.Context) ([]Campaign, error)

	// UpdateCampaign persists status/settlement changes.
	UpdateCampaign(ctx context.Context, c Campaign) error

	// SaveBooking inserts a booking.
	SaveBooking(ctx context.Context, b Booking) error

	// GetBooking returns a booking or ErrBookingNotFound.
	GetBooking(ctx context.Context, id BookingID) (*Booking, error)

	// ListBookings returns a campaign's bookings, oldest first.
	ListBookings(ctx context.Context, campaignID CampaignID) ([]Booking, error)

	// UpdateBooking persists status/locked-price changes.
	UpdateBooking(ctx context.Context, b Booking) error

	// CommittedArea returns the sum of non-cancelled bookings' areas for a
	// campaign. Zero for a campaign with no bookings.
	CommittedArea(ctx context.Context, campaignID CampaignID) (decimal.Decimal, error)

	// SaveReport inserts a work report.
	SaveReport(ctx context.Context, r WorkReport) error

	// GetReportByBooking returns a booking's report or ErrReportNotFound.
	GetReportByBooking(ctx context.Context, bookingID BookingID) (*WorkReport, error)
}

// TxStore wraps Store with transaction support. If fn returns an error the
// transaction rolls back, otherwise it commits.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
