/*
service_test.go - Campaign workflow tests

Covers the two-phase pricing lifecycle end to end against the in-memory
store: commit-time price locking, capacity rejection, cancellation,
close-time settlement broadcast, and work-report settlement.
*/
package campaign_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihawk/booking-engine/campaign"
	"github.com/agrihawk/booking-engine/campaign/store"
	"github.com/agrihawk/booking-engine/pricing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func newService(t *testing.T) *campaign.Service {
	t.Helper()
	svc := campaign.NewService(store.NewMemory())
	svc.Now = func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func linearCampaign(t *testing.T, svc *campaign.Service) *campaign.Campaign {
	t.Helper()
	terms, err := pricing.NewLinearSchedule(d(20000), d(15000), d(50))
	require.NoError(t, err)

	c, err := svc.CreateCampaign(context.Background(), campaign.Campaign{
		ID:             "camp-spray-1",
		ProviderID:     "provider-1",
		Name:           "Rice spraying, north block",
		ServiceKind:    "spraying",
		Region:         "north",
		Terms:          terms,
		TaxRatePercent: pricing.DefaultTaxRatePercent,
	})
	require.NoError(t, err)
	return c
}

func twoThresholdCampaign(t *testing.T, svc *campaign.Service) *campaign.Campaign {
	t.Helper()
	terms, err := pricing.NewTwoThresholdSchedule(d(20000), d(15000), d(30), d(50), d(18000))
	require.NoError(t, err)

	c, err := svc.CreateCampaign(context.Background(), campaign.Campaign{
		ID:             "camp-seed-1",
		ProviderID:     "provider-1",
		Name:           "Direct seeding, delta",
		ServiceKind:    "seeding",
		Region:         "delta",
		Terms:          terms,
		TaxRatePercent: pricing.DefaultTaxRatePercent,
	})
	require.NoError(t, err)
	return c
}

// =============================================================================
// COMMIT - Phase 1
// =============================================================================

func TestCommit_LocksPriceAtSimulatedTotal(t *testing.T) {
	// GIVEN: an open linear campaign (20000 -> 15000 over 50 units), empty
	// WHEN: a farmer commits 25 units
	// THEN: the locked price is the price AT the post-commitment total of
	//       25 (17500), not the pre-commitment price (20000)

	svc := newService(t)
	c := linearCampaign(t, svc)

	b, err := svc.Commit(context.Background(), c.ID, "farmer-1", "paddy A", d(25))
	require.NoError(t, err)
	assert.True(t, b.LockedPrice.Equal(d(17500)), "locked price %v", b.LockedPrice)
	assert.Equal(t, campaign.BookingCommitted, b.Status)
}

func TestCommit_SecondBookingSeesFirstTotal(t *testing.T) {
	// GIVEN: a linear campaign with 25 units already committed
	// WHEN: a second farmer commits 15 units
	// THEN: the second lock prices at the cumulative 40 (16000)

	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	_, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(25))
	require.NoError(t, err)

	b2, err := svc.Commit(ctx, c.ID, "farmer-2", "paddy B", d(15))
	require.NoError(t, err)
	assert.True(t, b2.LockedPrice.Equal(d(16000)), "locked price %v", b2.LockedPrice)
}

func TestCommit_CapacityRejection_SurfacesMessage(t *testing.T) {
	// GIVEN: a linear campaign with 40 of 50 units committed
	// WHEN: a farmer requests 20 more
	// THEN: the commit fails with a CapacityError whose message names the
	//       exact remaining capacity, ready for verbatim display

	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	_, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(40))
	require.NoError(t, err)

	_, err = svc.Commit(ctx, c.ID, "farmer-2", "paddy B", d(20))
	require.ErrorIs(t, err, campaign.ErrCapacityExceeded)

	var capErr *campaign.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Contains(t, capErr.Error(), "10.0")
	assert.True(t, capErr.Check.Remaining.Equal(d(10)))
}

func TestCommit_WhileUnformed_LocksViabilityPrice(t *testing.T) {
	// GIVEN: a two-threshold campaign (minViable 30) with nothing committed
	// WHEN: a farmer commits 20 units (still unformed)
	// THEN: the provisional lock is the viability price, the worst case a
	//       formed campaign can charge

	svc := newService(t)
	c := twoThresholdCampaign(t, svc)

	b, err := svc.Commit(context.Background(), c.ID, "farmer-1", "paddy A", d(20))
	require.NoError(t, err)
	assert.True(t, b.LockedPrice.Equal(d(18000)), "locked price %v", b.LockedPrice)
}

func TestCommit_ClosedCampaign_Rejected(t *testing.T) {
	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	_, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(30))
	require.NoError(t, err)
	_, err = svc.Close(ctx, c.ID)
	require.NoError(t, err)

	_, err = svc.Commit(ctx, c.ID, "farmer-2", "paddy B", d(5))
	assert.ErrorIs(t, err, campaign.ErrCampaignNotOpen)
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestCancelBooking_FreesCapacity(t *testing.T) {
	// GIVEN: a linear campaign filled to its 50-unit ceiling
	// WHEN: one 20-unit booking is cancelled
	// THEN: a new 20-unit booking fits again

	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	b1, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(20))
	require.NoError(t, err)
	_, err = svc.Commit(ctx, c.ID, "farmer-2", "paddy B", d(30))
	require.NoError(t, err)

	_, err = svc.Commit(ctx, c.ID, "farmer-3", "paddy C", d(20))
	require.ErrorIs(t, err, campaign.ErrCapacityExceeded)

	_, err = svc.CancelBooking(ctx, b1.ID)
	require.NoError(t, err)

	_, err = svc.Commit(ctx, c.ID, "farmer-3", "paddy C", d(20))
	assert.NoError(t, err, "cancelled area must leave the aggregate")
}

func TestCancelBooking_Twice_Rejected(t *testing.T) {
	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	b, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(10))
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, b.ID)
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, b.ID)
	assert.ErrorIs(t, err, campaign.ErrBookingNotActive)
}

// =============================================================================
// CLOSE - Phase 2
// =============================================================================

func TestClose_BroadcastsSettlementPrice(t *testing.T) {
	// GIVEN: a linear campaign with bookings locked at 17500 and 16000
	// WHEN: the campaign closes at a final total of 40 units
	// THEN: one authoritative price (16000 at total 40) overwrites every
	//       non-cancelled booking's lock

	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	b1, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(25))
	require.NoError(t, err)
	b2, err := svc.Commit(ctx, c.ID, "farmer-2", "paddy B", d(15))
	require.NoError(t, err)

	closed, err := svc.Close(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.SettlementPrice)
	assert.True(t, closed.SettlementPrice.Equal(d(16000)), "settlement price %v", closed.SettlementPrice)
	assert.Equal(t, campaign.CampaignClosed, closed.Status)

	for _, id := range []campaign.BookingID{b1.ID, b2.ID} {
		b, err := svc.Store.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.True(t, b.LockedPrice.Equal(d(16000)),
			"booking %s still locked at %v", id, b.LockedPrice)
	}
}

func TestClose_SkipsCancelledBookings(t *testing.T) {
	// GIVEN: a campaign with one live and one cancelled booking
	// WHEN: the campaign closes
	// THEN: the cancelled booking keeps its original lock and the final
	//       price reflects only the live area

	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	b1, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(25))
	require.NoError(t, err)
	b2, err := svc.Commit(ctx, c.ID, "farmer-2", "paddy B", d(15))
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, b2.ID)
	require.NoError(t, err)

	closed, err := svc.Close(ctx, c.ID)
	require.NoError(t, err)
	// Final total is 25 -> settlement price 17500.
	assert.True(t, closed.SettlementPrice.Equal(d(17500)))

	cancelled, err := svc.Store.GetBooking(ctx, b2.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.LockedPrice.Equal(d(16000)),
		"cancelled booking must keep its historical lock, got %v", cancelled.LockedPrice)

	live, err := svc.Store.GetBooking(ctx, b1.ID)
	require.NoError(t, err)
	assert.True(t, live.LockedPrice.Equal(d(17500)))
}

func TestClose_Unformed_Fails(t *testing.T) {
	// GIVEN: a two-threshold campaign stuck below its minimum viable area
	// WHEN: the provider tries to close it
	// THEN: the close fails; no settlement price exists below viability

	svc := newService(t)
	c := twoThresholdCampaign(t, svc)
	ctx := context.Background()

	_, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(20))
	require.NoError(t, err)

	_, err = svc.Close(ctx, c.ID)
	assert.ErrorIs(t, err, campaign.ErrCampaignUnformed)

	// The exit path for such a campaign is cancellation.
	cancelled, err := svc.CancelCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.CampaignCancelled, cancelled.Status)

	bookings, err := svc.Store.ListBookings(ctx, c.ID)
	require.NoError(t, err)
	for _, b := range bookings {
		assert.Equal(t, campaign.BookingCancelled, b.Status)
	}
}

func TestClose_TwoThreshold_FormedAtBoundary(t *testing.T) {
	// GIVEN: a two-threshold campaign committed exactly to minViable (30)
	// WHEN: closing
	// THEN: the settlement price is exactly the viability price

	svc := newService(t)
	c := twoThresholdCampaign(t, svc)
	ctx := context.Background()

	_, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(30))
	require.NoError(t, err)

	closed, err := svc.Close(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, closed.SettlementPrice.Equal(d(18000)), "settlement price %v", closed.SettlementPrice)
}

// =============================================================================
// SETTLEMENT
// =============================================================================

func TestSubmitReport_SettlesAtFinalPrice(t *testing.T) {
	// GIVEN: a closed campaign settled at 16000 and a booking of 15 units
	// WHEN: the realized area comes in at 14.5 units
	// THEN: payable ex-tax is round(16000 * 14.5) = 232000, tax 23200,
	//       inclusive 255200, and the booking becomes settled

	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	_, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(25))
	require.NoError(t, err)
	b, err := svc.Commit(ctx, c.ID, "farmer-2", "paddy B", d(15))
	require.NoError(t, err)
	_, err = svc.Close(ctx, c.ID)
	require.NoError(t, err)

	report, err := svc.SubmitReport(ctx, b.ID, d(14.5))
	require.NoError(t, err)
	assert.True(t, report.UnitPrice.Equal(d(16000)))
	assert.True(t, report.AmountExTax.Equal(d(232000)), "ex-tax %v", report.AmountExTax)
	assert.True(t, report.TaxAmount.Equal(d(23200)), "tax %v", report.TaxAmount)
	assert.True(t, report.AmountInclusive.Equal(d(255200)), "inclusive %v", report.AmountInclusive)

	settled, err := svc.Store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.BookingSettled, settled.Status)
}

func TestSubmitReport_BeforeClose_Rejected(t *testing.T) {
	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	b, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(25))
	require.NoError(t, err)

	_, err = svc.SubmitReport(ctx, b.ID, d(25))
	assert.ErrorIs(t, err, campaign.ErrCampaignNotClosed)
}

func TestSubmitReport_Twice_Rejected(t *testing.T) {
	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	b, err := svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(30))
	require.NoError(t, err)
	_, err = svc.Close(ctx, c.ID)
	require.NoError(t, err)

	_, err = svc.SubmitReport(ctx, b.ID, d(30))
	require.NoError(t, err)

	_, err = svc.SubmitReport(ctx, b.ID, d(30))
	assert.ErrorIs(t, err, campaign.ErrAlreadyReported)
}

// =============================================================================
// PROJECTIONS
// =============================================================================

func TestQuoteAt_TracksLiveAggregate(t *testing.T) {
	// GIVEN: a linear campaign
	// WHEN: querying the quote before and after a booking
	// THEN: the quote follows the committed total

	svc := newService(t)
	c := linearCampaign(t, svc)
	ctx := context.Background()

	q, total, err := svc.QuoteAt(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.True(t, q.Price.Equal(d(20000)))

	_, err = svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(25))
	require.NoError(t, err)

	q, total, err = svc.QuoteAt(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(d(25)))
	assert.True(t, q.Price.Equal(d(17500)))
}

func TestNextMilestone_TracksLiveAggregate(t *testing.T) {
	svc := newService(t)
	c := twoThresholdCampaign(t, svc)
	ctx := context.Background()

	m, _, err := svc.NextMilestone(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, m.Area)
	assert.True(t, m.Area.Equal(d(30)), "milestone area %v", m.Area)
	assert.True(t, m.Price.Equal(d(18000)))

	_, err = svc.Commit(ctx, c.ID, "farmer-1", "paddy A", d(35))
	require.NoError(t, err)

	m, _, err = svc.NextMilestone(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, m.Area)
	assert.True(t, m.Area.Equal(d(50)))
	assert.True(t, m.Price.Equal(d(15000)))
}

// =============================================================================
// CREATION VALIDATION
// =============================================================================

func TestCreateCampaign_RejectsBrokenTerms(t *testing.T) {
	// GIVEN: terms with the start price below the floor
	// WHEN: creating the campaign
	// THEN: creation fails up front; a campaign whose every pricing call
	//       would fail must never exist

	svc := newService(t)
	_, err := svc.CreateCampaign(context.Background(), campaign.Campaign{
		ID: "camp-bad",
		Terms: pricing.Schedule{
			Regime:     pricing.RegimeLinear,
			StartPrice: d(10000),
			FloorPrice: d(15000),
			TargetArea: d(50),
		},
		TaxRatePercent: pricing.DefaultTaxRatePercent,
	})
	assert.ErrorIs(t, err, pricing.ErrBadConfig)
}

func TestCreateCampaign_DuplicateID_Rejected(t *testing.T) {
	svc := newService(t)
	linearCampaign(t, svc)

	terms, err := pricing.NewLinearSchedule(d(20000), d(15000), d(50))
	require.NoError(t, err)
	_, err = svc.CreateCampaign(context.Background(), campaign.Campaign{
		ID:             "camp-spray-1",
		Terms:          terms,
		TaxRatePercent: pricing.DefaultTaxRatePercent,
	})
	assert.ErrorIs(t, err, campaign.ErrDuplicateCampaign)
}
