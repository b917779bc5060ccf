package returns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists return records in PostgreSQL. Lines are stored as a
// JSONB document on the record row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a record, assigning an id when absent.
func (r *Repository) Create(ctx context.Context, record Record) (Record, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	linesJSON, err := json.Marshal(record.Lines)
	if err != nil {
		return Record{}, fmt.Errorf("returns: encode lines: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO return_records (id, return_type, occurred_at, reference, party, note, items, total, lines)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		record.ID, string(record.Type), record.At, record.Reference, record.Party,
		record.Note, record.Items, record.Total, linesJSON)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// ListCustomerByReference returns customer records for an order reference,
// newest first. Undo walks these to find the most recent matching line.
func (r *Repository) ListCustomerByReference(ctx context.Context, reference string) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, return_type, occurred_at, reference, party, note, items, total, lines
		FROM return_records
		WHERE return_type = $1 AND reference = $2
		ORDER BY occurred_at DESC, id DESC`,
		string(TypeCustomer), reference)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var typ string
		var linesJSON []byte
		if err := rows.Scan(&rec.ID, &typ, &rec.At, &rec.Reference, &rec.Party,
			&rec.Note, &rec.Items, &rec.Total, &linesJSON); err != nil {
			return nil, err
		}
		rec.Type = Type(typ)
		if err := json.Unmarshal(linesJSON, &rec.Lines); err != nil {
			return nil, fmt.Errorf("returns: decode lines: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Update rewrites a record's lines and recomputed aggregates.
func (r *Repository) Update(ctx context.Context, record Record) error {
	linesJSON, err := json.Marshal(record.Lines)
	if err != nil {
		return fmt.Errorf("returns: encode lines: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE return_records SET items = $2, total = $3, lines = $4 WHERE id = $1`,
		record.ID, record.Items, record.Total, linesJSON)
	return err
}

// Delete removes a record once its last line is undone.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM return_records WHERE id = $1`, id)
	return err
}
