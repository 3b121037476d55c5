// Package store provides campaign.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/agrihawk/booking-engine/campaign"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	campaigns map[campaign.CampaignID]campaign.Campaign
	bookings  map[campaign.BookingID]campaign.Booking
	reports   map[campaign.BookingID]campaign.WorkReport

	// txMu serializes WithTx blocks. Writes inside a block apply
	// immediately; rollback is not simulated. Service workflows validate
	// before writing, so test flows never leave partial state behind.
	txMu sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{
		campaigns: make(map[campaign.CampaignID]campaign.Campaign),
		bookings:  make(map[campaign.BookingID]campaign.Booking),
		reports:   make(map[campaign.BookingID]campaign.WorkReport),
	}
}

func (m *Memory) WithTx(ctx context.Context, fn func(campaign.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

func (m *Memory) SaveCampaign(_ context.Context, c campaign.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; ok {
		return campaign.ErrDuplicateCampaign
	}
	m.campaigns[c.ID] = c
	return nil
}

func (m *Memory) GetCampaign(_ context.Context, id campaign.CampaignID) (*campaign.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, campaign.ErrCampaignNotFound
	}
	return &c, nil
}

func (m *Memory) ListCampaigns(_ context.Context) ([]campaign.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]campaign.Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) UpdateCampaign(_ context.Context, c campaign.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return campaign.ErrCampaignNotFound
	}
	m.campaigns[c.ID] = c
	return nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

func (m *Memory) SaveBooking(_ context.Context, b campaign.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

func (m *Memory) GetBooking(_ context.Context, id campaign.BookingID) (*campaign.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, campaign.ErrBookingNotFound
	}
	return &b, nil
}

func (m *Memory) ListBookings(_ context.Context, campaignID campaign.CampaignID) ([]campaign.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []campaign.Booking
	for _, b := range m.bookings {
		if b.CampaignID == campaignID {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) UpdateBooking(_ context.Context, b campaign.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return campaign.ErrBookingNotFound
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *Memory) CommittedArea(_ context.Context, campaignID campaign.CampaignID) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, b := range m.bookings {
		if b.CampaignID == campaignID && b.Counts() {
			total = total.Add(b.Area)
		}
	}
	return total, nil
}

// =============================================================================
// WORK REPORTS
// =============================================================================

func (m *Memory) SaveReport(_ context.Context, r campaign.WorkReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.BookingID]; ok {
		return campaign.ErrAlreadyReported
	}
	m.reports[r.BookingID] = r
	return nil
}

func (m *Memory) GetReportByBooking(_ context.Context, bookingID campaign.BookingID) (*campaign.WorkReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[bookingID]
	if !ok {
		return nil, campaign.ErrReportNotFound
	}
	return &r, nil
}
