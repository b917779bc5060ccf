// Package billing exposes the corporate billing ledger as a collaborator.
// The ledger owns reversal semantics; this adapter only appends offsetting
// entries and never mutates originals.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger reverses billing transactions tied to an order.
type Ledger interface {
	ReverseForOrder(ctx context.Context, orderRef string) error
}

// PGLedger is the pgx-backed Ledger adapter.
type PGLedger struct {
	pool *pgxpool.Pool
}

// NewPGLedger constructs PGLedger.
func NewPGLedger(pool *pgxpool.Pool) *PGLedger {
	return &PGLedger{pool: pool}
}

// ReverseForOrder appends one negative-amount entry per non-reversal
// transaction of the order. Running it twice nets the reversals against the
// already-appended ones, so previously reversed entries are skipped.
func (l *PGLedger) ReverseForOrder(ctx context.Context, orderRef string) error {
	rows, err := l.pool.Query(ctx, `
		SELECT id, amount, description
		FROM billing_transactions
		WHERE order_ref = $1 AND reversal_of IS NULL
		  AND id NOT IN (
			SELECT reversal_of FROM billing_transactions
			WHERE order_ref = $1 AND reversal_of IS NOT NULL
		  )`, orderRef)
	if err != nil {
		return err
	}
	type target struct {
		id          string
		amount      float64
		description string
	}
	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.id, &t.amount, &t.description); err != nil {
			rows.Close()
			return err
		}
		targets = append(targets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, t := range targets {
		_, err := l.pool.Exec(ctx, `
			INSERT INTO billing_transactions (id, order_ref, amount, description, reversal_of, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), orderRef, -t.amount, "Reversal: "+t.description, t.id, now)
		if err != nil {
			return err
		}
	}
	return nil
}
