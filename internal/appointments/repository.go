package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an appointment id does not exist.
var ErrNotFound = errors.New("appointments: not found")

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides Postgres-backed appointment storage. Procedure
// snapshots are stored as jsonb so the booking keeps its own copy of names,
// prices, and durations.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

const appointmentColumns = `id, procedures, total_price_cents, total_duration_minutes,
	customer_name, customer_phone, notes, date, time_of_day, status,
	deposit_paid, payment_method, calendar_event_id, created_at, updated_at`

// Create inserts a new appointment.
func (r *Repository) Create(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	snaps, err := json.Marshal(a.Procedures)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal snapshots: %w", err)
	}
	created, err := scanAppointment(r.db.QueryRow(ctx,
		`INSERT INTO appointments (id, procedures, total_price_cents, total_duration_minutes,
		   customer_name, customer_phone, notes, date, time_of_day, status, deposit_paid, payment_method)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+appointmentColumns,
		a.ID, snaps, a.TotalPriceCents, a.TotalDurationMinutes,
		a.CustomerName, a.CustomerPhone, a.Notes, a.Date, a.Time,
		string(a.Status), a.DepositPaid, a.PaymentMethod))
	if err != nil {
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}
	return &created, nil
}

// Update rewrites an appointment's editable fields.
func (r *Repository) Update(ctx context.Context, a Appointment) (*Appointment, error) {
	snaps, err := json.Marshal(a.Procedures)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal snapshots: %w", err)
	}
	updated, err := scanAppointment(r.db.QueryRow(ctx,
		`UPDATE appointments
		 SET procedures = $2, total_price_cents = $3, total_duration_minutes = $4,
		     customer_name = $5, customer_phone = $6, notes = $7, date = $8,
		     time_of_day = $9, deposit_paid = $10, payment_method = $11, updated_at = now()
		 WHERE id = $1
		 RETURNING `+appointmentColumns,
		a.ID, snaps, a.TotalPriceCents, a.TotalDurationMinutes,
		a.CustomerName, a.CustomerPhone, a.Notes, a.Date, a.Time,
		a.DepositPaid, a.PaymentMethod))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: update: %w", err)
	}
	return &updated, nil
}

// UpdateStatus transitions the appointment lifecycle state.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	updated, err := scanAppointment(r.db.QueryRow(ctx,
		`UPDATE appointments SET status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+appointmentColumns,
		id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return &updated, nil
}

// SetCalendarEventID records the external calendar event backing this
// appointment, so later edits can update it in place.
func (r *Repository) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE appointments SET calendar_event_id = $2, updated_at = now() WHERE id = $1`,
		id, eventID)
	if err != nil {
		return fmt.Errorf("appointments: set calendar event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an appointment outright.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a single appointment by id.
func (r *Repository) Get(ctx context.Context, id string) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return &a, nil
}

// ListByDate returns the appointments on one calendar day, earliest first.
func (r *Repository) ListByDate(ctx context.Context, date string) ([]Appointment, error) {
	return r.list(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE date = $1 ORDER BY time_of_day`, date)
}

// ListByMonth returns the appointments whose date falls in "YYYY-MM".
func (r *Repository) ListByMonth(ctx context.Context, month string) ([]Appointment, error) {
	return r.list(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE left(date, 7) = $1 ORDER BY date, time_of_day`, month)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	var snaps []byte
	var status string
	var date, tod string
	if err := row.Scan(&a.ID, &snaps, &a.TotalPriceCents, &a.TotalDurationMinutes,
		&a.CustomerName, &a.CustomerPhone, &a.Notes, &date, &tod, &status,
		&a.DepositPaid, &a.PaymentMethod, &a.CalendarEventID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Appointment{}, err
	}
	a.Date = date
	a.Time = tod
	a.Status = Status(status)
	if len(snaps) > 0 {
		if err := json.Unmarshal(snaps, &a.Procedures); err != nil {
			return Appointment{}, fmt.Errorf("appointments: unmarshal snapshots: %w", err)
		}
	}
	return a, nil
}
