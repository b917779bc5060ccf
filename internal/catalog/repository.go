package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the test catalog from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTest fetches a test by id.
func (r *Repository) GetTest(ctx context.Context, id int64) (Test, error) {
	var t Test
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM catalog_tests WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Test{}, ErrTestNotFound
		}
		return Test{}, err
	}
	return t, nil
}

// FindTestByName fetches a test by case-insensitive name.
func (r *Repository) FindTestByName(ctx context.Context, name string) (Test, error) {
	var t Test
	err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM catalog_tests WHERE lower(name) = lower($1)`,
		strings.TrimSpace(name)).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Test{}, ErrTestNotFound
		}
		return Test{}, err
	}
	return t, nil
}
