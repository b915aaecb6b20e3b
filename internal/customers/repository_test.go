package customers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

var custCols = []string{"id", "name", "phone", "notes", "tags", "created_at", "updated_at"}

func custRow(id, name, tags string) []any {
	now := time.Now()
	return []any{id, name, "", "", []byte(tags), now, now}
}

func TestRepositoryListTagsDeduplicates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT tags FROM customers`).
		WillReturnRows(pgxmock.NewRows([]string{"tags"}).
			AddRow([]byte(`[{"id":"vip","name":"VIP"},{"id":"bridal","name":"Bridal"}]`)).
			AddRow([]byte(`[{"id":"vip","name":"VIP"}]`)).
			AddRow([]byte(`[]`)))

	repo := NewRepositoryWithDB(mock)
	tags, err := repo.ListTags(context.Background())
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 distinct tags, got %+v", tags)
	}
	// Sorted by name.
	if tags[0].ID != "bridal" || tags[1].ID != "vip" {
		t.Fatalf("unexpected tag order: %+v", tags)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryGetParsesTags(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM customers WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows(custCols).
			AddRow(custRow("c1", "Ana", `[{"id":"vip","name":"VIP"}]`)...))

	repo := NewRepositoryWithDB(mock)
	c, err := repo.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(c.Tags) != 1 || c.Tags[0].ID != "vip" {
		t.Fatalf("unexpected tags: %+v", c.Tags)
	}
}

func TestRepositoryGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM customers WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(custCols))

	repo := NewRepositoryWithDB(mock)
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryDeleteNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM customers WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewRepositoryWithDB(mock)
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
