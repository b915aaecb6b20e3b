package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a ledger entry id does not exist.
var ErrNotFound = errors.New("finance: not found")

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository queries ledger entries and monthly aggregates.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("finance: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

const entryColumns = `id, type, description, amount_cents, date, created_at`

// CreateEntry inserts a manual ledger entry.
func (r *Repository) CreateEntry(ctx context.Context, e ManualEntry) (*ManualEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var created ManualEntry
	var typ string
	err := r.db.QueryRow(ctx,
		`INSERT INTO manual_entries (id, type, description, amount_cents, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+entryColumns,
		e.ID, string(e.Type), e.Description, e.AmountCents, e.Date).
		Scan(&created.ID, &typ, &created.Description, &created.AmountCents, &created.Date, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("finance: insert entry: %w", err)
	}
	created.Type = EntryType(typ)
	return &created, nil
}

// ListEntriesByMonth returns the ledger lines for "YYYY-MM", newest first.
func (r *Repository) ListEntriesByMonth(ctx context.Context, month string) ([]ManualEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM manual_entries
		 WHERE left(date, 7) = $1 ORDER BY date DESC, created_at DESC`, month)
	if err != nil {
		return nil, fmt.Errorf("finance: list entries: %w", err)
	}
	defer rows.Close()

	var out []ManualEntry
	for rows.Next() {
		var e ManualEntry
		var typ string
		if err := rows.Scan(&e.ID, &typ, &e.Description, &e.AmountCents, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("finance: scan entry: %w", err)
		}
		e.Type = EntryType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEntry removes a ledger entry and returns its date so callers can
// invalidate the month's cached summary.
func (r *Repository) DeleteEntry(ctx context.Context, id string) (string, error) {
	var date string
	err := r.db.QueryRow(ctx,
		`DELETE FROM manual_entries WHERE id = $1 RETURNING date`, id).Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("finance: delete entry: %w", err)
	}
	return date, nil
}

// MonthlySummary aggregates one month of appointment revenue and manual
// ledger activity.
func (r *Repository) MonthlySummary(ctx context.Context, month string) (*MonthlySummary, error) {
	s := &MonthlySummary{Month: month}

	if err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_price_cents) FILTER (WHERE status = 'attended'), 0),
		        COALESCE(SUM(total_price_cents) FILTER (WHERE status = 'confirmed'), 0),
		        COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'attended'),
		        COUNT(*) FILTER (WHERE status = 'cancelled')
		 FROM appointments WHERE left(date, 7) = $1`, month).
		Scan(&s.AttendedRevenueCents, &s.ExpectedRevenueCents,
			&s.AppointmentCount, &s.AttendedCount, &s.CancelledCount); err != nil {
		return nil, fmt.Errorf("finance: appointment rollup: %w", err)
	}

	if err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents) FILTER (WHERE type = 'income'), 0),
		        COALESCE(SUM(amount_cents) FILTER (WHERE type = 'expense'), 0)
		 FROM manual_entries WHERE left(date, 7) = $1`, month).
		Scan(&s.ManualIncomeCents, &s.ManualExpenseCents); err != nil {
		return nil, fmt.Errorf("finance: ledger rollup: %w", err)
	}

	s.NetCents = s.AttendedRevenueCents + s.ManualIncomeCents - s.ManualExpenseCents
	return s, nil
}
