package customers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a customer id does not exist.
var ErrNotFound = errors.New("customers: not found")

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides Postgres-backed customer storage. Tags live as a jsonb
// column on the customer row; tag identity is derived, never stored globally.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("customers: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

const customerColumns = `id, name, phone, notes, tags, created_at, updated_at`

// List returns all customers ordered by name. When tagID is non-empty only
// customers carrying that tag are returned.
func (r *Repository) List(ctx context.Context, tagID string) ([]Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY name`
	args := []any{}
	if tagID != "" {
		query = `SELECT ` + customerColumns + ` FROM customers
		 WHERE tags @> $1 ORDER BY name`
		filter, err := json.Marshal([]map[string]string{{"id": tagID}})
		if err != nil {
			return nil, fmt.Errorf("customers: marshal tag filter: %w", err)
		}
		args = append(args, filter)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("customers: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns a single customer by id.
func (r *Repository) Get(ctx context.Context, id string) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("customers: get: %w", err)
	}
	return &c, nil
}

// Create inserts a new customer.
func (r *Repository) Create(ctx context.Context, c Customer) (*Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tags, err := marshalTags(c.Tags)
	if err != nil {
		return nil, err
	}
	created, err := scanCustomer(r.db.QueryRow(ctx,
		`INSERT INTO customers (id, name, phone, notes, tags)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Phone, c.Notes, tags))
	if err != nil {
		return nil, fmt.Errorf("customers: insert: %w", err)
	}
	return &created, nil
}

// Update rewrites a customer's editable fields.
func (r *Repository) Update(ctx context.Context, c Customer) (*Customer, error) {
	tags, err := marshalTags(c.Tags)
	if err != nil {
		return nil, err
	}
	updated, err := scanCustomer(r.db.QueryRow(ctx,
		`UPDATE customers
		 SET name = $2, phone = $3, notes = $4, tags = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Phone, c.Notes, tags))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("customers: update: %w", err)
	}
	return &updated, nil
}

// Delete removes a customer.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("customers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTags aggregates the distinct tags across all customers, deduplicated
// by derived id and sorted by name.
func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.db.Query(ctx, `SELECT tags FROM customers`)
	if err != nil {
		return nil, fmt.Errorf("customers: list tags: %w", err)
	}
	defer rows.Close()

	byID := map[string]Tag{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("customers: scan tags: %w", err)
		}
		tags, err := unmarshalTags(raw)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			byID[t.ID] = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Tag, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func marshalTags(tags []Tag) ([]byte, error) {
	if tags == nil {
		tags = []Tag{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("customers: marshal tags: %w", err)
	}
	return raw, nil
}

func unmarshalTags(raw []byte) ([]Tag, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tags []Tag
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("customers: unmarshal tags: %w", err)
	}
	return tags, nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	var raw []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Notes, &raw, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Customer{}, err
	}
	tags, err := unmarshalTags(raw)
	if err != nil {
		return Customer{}, err
	}
	if tags == nil {
		tags = []Tag{}
	}
	c.Tags = tags
	return c, nil
}
