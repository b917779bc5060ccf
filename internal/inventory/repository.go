package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore-erp/clinicore/internal/shared"
)

// Repository persists inventory aggregates in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByKey loads one aggregate row.
func (r *Repository) GetByKey(ctx context.Context, key string) (Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT key, name, generic_name, category, on_hand, units_per_pack,
		       avg_cost_per_unit, min_stock, last_invoice, last_supplier,
		       last_unit_cost, last_expiry, earliest_expiry, updated_at
		FROM inventory_items WHERE key = $1`, key)

	var item Item
	var lastExpiry, earliestExpiry pgtype.Date
	var updatedAt pgtype.Timestamptz
	err := row.Scan(&item.Key, &item.Name, &item.GenericName, &item.Category,
		&item.OnHand, &item.UnitsPerPack, &item.AvgCostPerUnit, &item.MinStock,
		&item.LastInvoice, &item.LastSupplier, &item.LastUnitCost,
		&lastExpiry, &earliestExpiry, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	if lastExpiry.Valid {
		item.LastExpiry = lastExpiry.Time
	}
	if earliestExpiry.Valid {
		item.EarliestExpiry = earliestExpiry.Time
	}
	item.UpdatedAt = updatedAt.Time
	return item, nil
}

// Upsert writes the aggregate. The on-hand column uses store-side arithmetic
// so the quantity increment stays atomic; avg cost and provenance are set to
// the values computed under the per-key lock. Expiry min-merges in SQL as
// well, so a replayed write cannot regress the earliest date.
func (r *Repository) Upsert(ctx context.Context, item Item, addQty float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inventory_items (
			key, name, generic_name, category, on_hand, units_per_pack,
			avg_cost_per_unit, min_stock, last_invoice, last_supplier,
			last_unit_cost, last_expiry, earliest_expiry, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (key) DO UPDATE SET
			name              = EXCLUDED.name,
			generic_name      = COALESCE(NULLIF(EXCLUDED.generic_name, ''), inventory_items.generic_name),
			category          = COALESCE(NULLIF(EXCLUDED.category, ''), inventory_items.category),
			on_hand           = GREATEST(inventory_items.on_hand + $15, 0),
			units_per_pack    = EXCLUDED.units_per_pack,
			avg_cost_per_unit = EXCLUDED.avg_cost_per_unit,
			min_stock         = EXCLUDED.min_stock,
			last_invoice      = EXCLUDED.last_invoice,
			last_supplier     = EXCLUDED.last_supplier,
			last_unit_cost    = EXCLUDED.last_unit_cost,
			last_expiry       = EXCLUDED.last_expiry,
			earliest_expiry   = LEAST(
				COALESCE(inventory_items.earliest_expiry, EXCLUDED.earliest_expiry),
				COALESCE(EXCLUDED.earliest_expiry, inventory_items.earliest_expiry)),
			updated_at        = EXCLUDED.updated_at`,
		item.Key, item.Name, item.GenericName, item.Category, item.OnHand,
		item.UnitsPerPack, item.AvgCostPerUnit, item.MinStock, item.LastInvoice,
		item.LastSupplier, item.LastUnitCost, dateParam(item.LastExpiry),
		dateParam(item.EarliestExpiry), item.UpdatedAt, addQty)
	return err
}

// DecrementOnHand reduces stock in one statement, floored at zero.
func (r *Repository) DecrementOnHand(ctx context.Context, key string, qty float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE inventory_items
		SET on_hand = GREATEST(on_hand - $2, 0), updated_at = NOW()
		WHERE key = $1`, key, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func dateParam(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: !t.IsZero()}
}
