package procurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore-erp/clinicore/internal/platform/db"
	"github.com/clinicore-erp/clinicore/internal/shared"
)

// Repository persists drafts and purchases in PostgreSQL. Line arrays and
// totals are document-shaped and stored as JSONB on the aggregate row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// draftDoc is the JSONB shape shared by drafts and purchases.
type draftDoc struct {
	Discount     float64      `json:"discount,omitempty"`
	InvoiceTaxes []InvoiceTax `json:"invoice_taxes,omitempty"`
	Totals       Totals       `json:"totals"`
	Lines        []Line       `json:"lines"`
}

// CreateDraft inserts a valued draft.
func (r *Repository) CreateDraft(ctx context.Context, draft Draft) (int64, error) {
	doc, err := json.Marshal(draftDoc{
		Discount:     draft.Discount,
		InvoiceTaxes: draft.InvoiceTaxes,
		Totals:       draft.Totals,
		Lines:        draft.Lines,
	})
	if err != nil {
		return 0, fmt.Errorf("procurement: encode draft: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO purchase_drafts (doc_date, invoice, supplier, doc, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id`,
		draft.Date, draft.Invoice, draft.Supplier, doc).Scan(&id)
	return id, err
}

// GetDraft loads a draft by id.
func (r *Repository) GetDraft(ctx context.Context, id int64) (Draft, error) {
	var draft Draft
	var docJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, doc_date, invoice, supplier, doc
		FROM purchase_drafts WHERE id = $1`, id).
		Scan(&draft.ID, &draft.Date, &draft.Invoice, &draft.Supplier, &docJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Draft{}, fmt.Errorf("procurement: draft %d: %w", id, shared.ErrNotFound)
		}
		return Draft{}, err
	}
	var doc draftDoc
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return Draft{}, fmt.Errorf("procurement: decode draft: %w", err)
	}
	draft.Discount = doc.Discount
	draft.InvoiceTaxes = doc.InvoiceTaxes
	draft.Totals = doc.Totals
	draft.Lines = doc.Lines
	return draft, nil
}

// GetPurchaseByInvoice resolves a purchase by its natural key.
func (r *Repository) GetPurchaseByInvoice(ctx context.Context, invoice string) (Purchase, error) {
	var purchase Purchase
	var docJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, doc_date, invoice, supplier, total_amount, doc
		FROM purchases WHERE invoice = $1`, invoice).
		Scan(&purchase.ID, &purchase.Date, &purchase.Invoice, &purchase.Supplier,
			&purchase.TotalAmount, &docJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, fmt.Errorf("procurement: purchase %s: %w", invoice, shared.ErrNotFound)
		}
		return Purchase{}, err
	}
	var doc draftDoc
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return Purchase{}, fmt.Errorf("procurement: decode purchase: %w", err)
	}
	purchase.Totals = doc.Totals
	purchase.Lines = doc.Lines
	return purchase, nil
}

func (r *txRepo) CreatePurchase(ctx context.Context, purchase Purchase) (int64, error) {
	doc, err := json.Marshal(draftDoc{Totals: purchase.Totals, Lines: purchase.Lines})
	if err != nil {
		return 0, fmt.Errorf("procurement: encode purchase: %w", err)
	}
	date := purchase.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	var id int64
	err = r.tx.QueryRow(ctx, `
		INSERT INTO purchases (doc_date, invoice, supplier, total_amount, doc, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id`,
		date, purchase.Invoice, purchase.Supplier, purchase.TotalAmount, doc).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return 0, fmt.Errorf("procurement: invoice %s: %w", purchase.Invoice, shared.ErrDuplicate)
	}
	return id, err
}

func (r *txRepo) DeleteDraft(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM purchase_drafts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("procurement: draft %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepo) UpdatePurchase(ctx context.Context, purchase Purchase) error {
	doc, err := json.Marshal(draftDoc{Totals: purchase.Totals, Lines: purchase.Lines})
	if err != nil {
		return fmt.Errorf("procurement: encode purchase: %w", err)
	}
	tag, err := r.tx.Exec(ctx, `
		UPDATE purchases SET total_amount = $2, doc = $3 WHERE id = $1`,
		purchase.ID, purchase.TotalAmount, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("procurement: purchase %d: %w", purchase.ID, shared.ErrNotFound)
	}
	return nil
}
