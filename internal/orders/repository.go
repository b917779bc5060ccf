package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore-erp/clinicore/internal/shared"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, token, patient_name, tests, returned_tests, status, created_at`

// GetByRef accepts either the numeric order id or the external token.
func (r *Repository) GetByRef(ctx context.Context, ref string) (Order, error) {
	var (
		row pgx.Row
		o   Order
	)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		row = r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	} else {
		row = r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE token = $1`, ref)
	}
	err := row.Scan(&o.ID, &o.Token, &o.PatientName, &o.Tests, &o.ReturnedTests, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("orders: %s: %w", ref, shared.ErrNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("orders: get %s: %w", ref, err)
	}
	return o, nil
}

func (r *Repository) UpdateReturns(ctx context.Context, id int64, returnedTests []int64, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET returned_tests = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, returnedTests, string(status))
	if err != nil {
		return fmt.Errorf("orders: update returns %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orders: %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
