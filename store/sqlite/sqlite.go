/*
Package sqlite provides a SQLite-backed implementation of campaign.TxStore.

PURPOSE:
  Persists campaigns, bookings, and work reports, and answers the one
  aggregate query the pricing engine depends on: the committed-area total.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  campaigns:    offer + price terms (discrete decimal columns) + status
  bookings:     commitments with their locked per-unit price
  work_reports: settled outcomes, one per booking

DECIMAL STORAGE:
  Every price and area is stored as TEXT and re-parsed with
  decimal.NewFromString. Summing happens in Go over exact decimals, never
  in SQL over floats; the rounding contract must not leak precision
  through the store.

CONCURRENCY:
  WithTx serializes the commit/close workflows: a mutex over BeginTx plus
  the database transaction itself. This is the serialization point the
  advisory capacity check relies on (two concurrent bookings must not both
  validate against the same stale total).

WAL MODE:
  SQLite is opened with WAL for better read concurrency and crash
  recovery.

USAGE:
  st, err := sqlite.New("./data/bookings.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  svc := campaign.NewService(st)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - campaign/store.go: interface definitions
  - campaign/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/agrihawk/booking-engine/campaign"
	"github.com/agrihawk/booking-engine/pricing"
)

// Store implements campaign.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
	conn
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, conn: conn{db: db}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		name TEXT NOT NULL,
		service_kind TEXT NOT NULL,
		region TEXT NOT NULL,
		regime TEXT NOT NULL,
		start_price TEXT NOT NULL,
		floor_price TEXT NOT NULL,
		target_area TEXT NOT NULL,
		min_viable_area TEXT NOT NULL,
		max_viable_area TEXT NOT NULL,
		viability_price TEXT NOT NULL,
		tax_rate_percent TEXT NOT NULL,
		status TEXT NOT NULL,
		settlement_price TEXT,
		created_at TEXT NOT NULL,
		closed_at TEXT
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL REFERENCES campaigns(id),
		farmer_id TEXT NOT NULL,
		field_name TEXT,
		area TEXT NOT NULL,
		locked_price TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_campaign
		ON bookings(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_campaign_status
		ON bookings(campaign_id, status);

	CREATE TABLE IF NOT EXISTS work_reports (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL UNIQUE REFERENCES bookings(id),
		actual_area TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		amount_ex_tax TEXT NOT NULL,
		tax_amount TEXT NOT NULL,
		amount_inclusive TEXT NOT NULL,
		tax_rate_percent TEXT NOT NULL,
		reported_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn within a database transaction. If fn returns an
// error the transaction rolls back, otherwise it commits.
func (s *Store) WithTx(ctx context.Context, fn func(campaign.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&conn{db: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// CONN - Queries shared between the root store and transactions
// =============================================================================

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type conn struct {
	db dbtx
}

type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

const campaignColumns = `id, provider_id, name, service_kind, region, regime,
	start_price, floor_price, target_area, min_viable_area, max_viable_area,
	viability_price, tax_rate_percent, status, settlement_price, created_at, closed_at`

func (c *conn) SaveCampaign(ctx context.Context, cam campaign.Campaign) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(cam.ID), string(cam.ProviderID), cam.Name, cam.ServiceKind, cam.Region,
		string(cam.Terms.Regime),
		cam.Terms.StartPrice.String(), cam.Terms.FloorPrice.String(),
		cam.Terms.TargetArea.String(), cam.Terms.MinViableArea.String(),
		cam.Terms.MaxViableArea.String(), cam.Terms.ViabilityPrice.String(),
		cam.TaxRatePercent.String(), string(cam.Status),
		nullDecimal(cam.SettlementPrice),
		cam.CreatedAt.Format(time.RFC3339Nano), nullTime(cam.ClosedAt),
	)
	if isUniqueViolation(err) {
		return campaign.ErrDuplicateCampaign
	}
	return err
}

func (c *conn) GetCampaign(ctx context.Context, id campaign.CampaignID) (*campaign.Campaign, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, string(id))
	cam, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrCampaignNotFound
	}
	return cam, err
}

func (c *conn) ListCampaigns(ctx context.Context) ([]campaign.Campaign, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []campaign.Campaign
	for rows.Next() {
		cam, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cam)
	}
	return result, rows.Err()
}

func (c *conn) UpdateCampaign(ctx context.Context, cam campaign.Campaign) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE campaigns SET status = ?, settlement_price = ?, closed_at = ?
		WHERE id = ?`,
		string(cam.Status), nullDecimal(cam.SettlementPrice),
		nullTime(cam.ClosedAt), string(cam.ID))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return campaign.ErrCampaignNotFound
	}
	return nil
}

func scanCampaign(row scanner) (*campaign.Campaign, error) {
	var (
		cam                          campaign.Campaign
		id, provider, regime, status string
		startP, floorP, targetA      string
		minVA, maxVA, viaP, taxRate  string
		settlement, closedAt         sql.NullString
		createdAt                    string
	)
	err := row.Scan(&id, &provider, &cam.Name, &cam.ServiceKind, &cam.Region, &regime,
		&startP, &floorP, &targetA, &minVA, &maxVA, &viaP, &taxRate,
		&status, &settlement, &createdAt, &closedAt)
	if err != nil {
		return nil, err
	}

	cam.ID = campaign.CampaignID(id)
	cam.ProviderID = campaign.ProviderID(provider)
	cam.Status = campaign.CampaignStatus(status)
	cam.Terms.Regime = pricing.Regime(regime)

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&cam.Terms.StartPrice, startP},
		{&cam.Terms.FloorPrice, floorP},
		{&cam.Terms.TargetArea, targetA},
		{&cam.Terms.MinViableArea, minVA},
		{&cam.Terms.MaxViableArea, maxVA},
		{&cam.Terms.ViabilityPrice, viaP},
		{&cam.TaxRatePercent, taxRate},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("corrupt decimal column in campaign %s: %w", id, err)
		}
	}

	if settlement.Valid {
		p, err := decimal.NewFromString(settlement.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt settlement price in campaign %s: %w", id, err)
		}
		cam.SettlementPrice = &p
	}
	if cam.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, closedAt.String)
		if err != nil {
			return nil, err
		}
		cam.ClosedAt = &t
	}
	return &cam, nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

const bookingColumns = `id, campaign_id, farmer_id, field_name, area, locked_price, status, created_at`

func (c *conn) SaveBooking(ctx context.Context, b campaign.Booking) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(b.ID), string(b.CampaignID), string(b.FarmerID), b.FieldName,
		b.Area.String(), b.LockedPrice.String(), string(b.Status),
		b.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (c *conn) GetBooking(ctx context.Context, id campaign.BookingID) (*campaign.Booking, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrBookingNotFound
	}
	return b, err
}

func (c *conn) ListBookings(ctx context.Context, campaignID campaign.CampaignID) ([]campaign.Booking, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE campaign_id = ? ORDER BY created_at, id`,
		string(campaignID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []campaign.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (c *conn) UpdateBooking(ctx context.Context, b campaign.Booking) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE bookings SET locked_price = ?, status = ? WHERE id = ?`,
		b.LockedPrice.String(), string(b.Status), string(b.ID))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return campaign.ErrBookingNotFound
	}
	return nil
}

// CommittedArea sums non-cancelled bookings' areas in Go over exact
// decimals.
func (c *conn) CommittedArea(ctx context.Context, campaignID campaign.CampaignID) (decimal.Decimal, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT area FROM bookings WHERE campaign_id = ? AND status != ?`,
		string(campaignID), string(campaign.BookingCancelled))
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var areaStr string
		if err := rows.Scan(&areaStr); err != nil {
			return decimal.Zero, err
		}
		area, err := decimal.NewFromString(areaStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt area column: %w", err)
		}
		total = total.Add(area)
	}
	return total, rows.Err()
}

func scanBooking(row scanner) (*campaign.Booking, error) {
	var (
		b                         campaign.Booking
		id, campaignID, farmerID  string
		fieldName                 sql.NullString
		areaStr, priceStr, status string
		createdAt                 string
	)
	err := row.Scan(&id, &campaignID, &farmerID, &fieldName, &areaStr, &priceStr, &status, &createdAt)
	if err != nil {
		return nil, err
	}

	b.ID = campaign.BookingID(id)
	b.CampaignID = campaign.CampaignID(campaignID)
	b.FarmerID = campaign.FarmerID(farmerID)
	b.FieldName = fieldName.String
	b.Status = campaign.BookingStatus(status)

	if b.Area, err = decimal.NewFromString(areaStr); err != nil {
		return nil, fmt.Errorf("corrupt area in booking %s: %w", id, err)
	}
	if b.LockedPrice, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("corrupt locked price in booking %s: %w", id, err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// =============================================================================
// WORK REPORTS
// =============================================================================

func (c *conn) SaveReport(ctx context.Context, r campaign.WorkReport) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO work_reports
			(id, booking_id, actual_area, unit_price, amount_ex_tax,
			 tax_amount, amount_inclusive, tax_rate_percent, reported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.BookingID), r.ActualArea.String(), r.UnitPrice.String(),
		r.AmountExTax.String(), r.TaxAmount.String(), r.AmountInclusive.String(),
		r.TaxRatePercent.String(), r.ReportedAt.Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return campaign.ErrAlreadyReported
	}
	return err
}

func (c *conn) GetReportByBooking(ctx context.Context, bookingID campaign.BookingID) (*campaign.WorkReport, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, booking_id, actual_area, unit_price, amount_ex_tax,
		       tax_amount, amount_inclusive, tax_rate_percent, reported_at
		FROM work_reports WHERE booking_id = ?`, string(bookingID))

	var (
		r                                  campaign.WorkReport
		bookingStr, areaStr, priceStr      string
		exTaxStr, taxStr, inclStr, rateStr string
		reportedAt                         string
	)
	err := row.Scan(&r.ID, &bookingStr, &areaStr, &priceStr, &exTaxStr, &taxStr,
		&inclStr, &rateStr, &reportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	r.BookingID = campaign.BookingID(bookingStr)
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&r.ActualArea, areaStr},
		{&r.UnitPrice, priceStr},
		{&r.AmountExTax, exTaxStr},
		{&r.TaxAmount, taxStr},
		{&r.AmountInclusive, inclStr},
		{&r.TaxRatePercent, rateStr},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("corrupt decimal column in report %s: %w", r.ID, err)
		}
	}
	if r.ReportedAt, err = time.Parse(time.RFC3339Nano, reportedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func isUniqueViolation(err error) bool {
	// go-sqlite3 reports constraint violations in the error text; matching
	// it avoids depending on the driver's error types here.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
