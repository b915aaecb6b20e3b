package procedures

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a procedure id does not exist.
var ErrNotFound = errors.New("procedures: not found")

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides Postgres-backed catalog storage.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("procedures: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

const procedureColumns = `id, name, duration_minutes, price_cents, is_promo, promo_price_cents, created_at, updated_at`

// List returns the full catalog ordered by name.
func (r *Repository) List(ctx context.Context) ([]Procedure, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+procedureColumns+` FROM procedures ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("procedures: list: %w", err)
	}
	defer rows.Close()

	var procs []Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, fmt.Errorf("procedures: scan: %w", err)
		}
		procs = append(procs, p)
	}
	return procs, rows.Err()
}

// Get returns a single procedure by id.
func (r *Repository) Get(ctx context.Context, id string) (*Procedure, error) {
	p, err := scanProcedure(r.db.QueryRow(ctx,
		`SELECT `+procedureColumns+` FROM procedures WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("procedures: get: %w", err)
	}
	return &p, nil
}

// GetMany resolves a set of procedure ids, failing if any id is unknown.
// Result order follows the requested order so appointment snapshots keep the
// customer's selection order.
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]Procedure, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+procedureColumns+` FROM procedures WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("procedures: get many: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]Procedure, len(ids))
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, fmt.Errorf("procedures: scan: %w", err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Procedure, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("procedures: get many: id %s: %w", id, ErrNotFound)
		}
		out = append(out, p)
	}
	return out, nil
}

// Create inserts a new procedure and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, p Procedure) (*Procedure, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	created, err := scanProcedure(r.db.QueryRow(ctx,
		`INSERT INTO procedures (id, name, duration_minutes, price_cents, is_promo, promo_price_cents)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+procedureColumns,
		p.ID, p.Name, p.DurationMinutes, p.PriceCents, p.IsPromo, p.PromoPriceCents))
	if err != nil {
		return nil, fmt.Errorf("procedures: insert: %w", err)
	}
	return &created, nil
}

// Update rewrites a procedure's editable fields.
func (r *Repository) Update(ctx context.Context, p Procedure) (*Procedure, error) {
	updated, err := scanProcedure(r.db.QueryRow(ctx,
		`UPDATE procedures
		 SET name = $2, duration_minutes = $3, price_cents = $4, is_promo = $5, promo_price_cents = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+procedureColumns,
		p.ID, p.Name, p.DurationMinutes, p.PriceCents, p.IsPromo, p.PromoPriceCents))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("procedures: update: %w", err)
	}
	return &updated, nil
}

// Delete removes a procedure from the catalog. Appointments keep their
// snapshots, so history is unaffected.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM procedures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("procedures: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProcedure(row pgx.Row) (Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.Name, &p.DurationMinutes, &p.PriceCents,
		&p.IsPromo, &p.PromoPriceCents, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
