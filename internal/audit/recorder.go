package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder persists entries into audit_entries. It runs in the worker; the
// request path only enqueues.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Insert persists the entry.
func (r *Recorder) Insert(ctx context.Context, entry Entry) error {
	if r == nil || r.pool == nil {
		return errors.New("audit recorder not initialised")
	}
	if entry.Action == "" {
		return errors.New("audit entry requires action")
	}
	detailJSON, err := json.Marshal(entry.Detail)
	if err != nil {
		return err
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_entries (id, actor, action, label, method, path, occurred_at, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.Actor, entry.Action, entry.Label, entry.Method, entry.Path, at, detailJSON)
	return err
}

// Prune removes entries older than retention.
func (r *Recorder) Prune(ctx context.Context, olderThan time.Duration) error {
	if r == nil || r.pool == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := r.pool.Exec(ctx, `DELETE FROM audit_entries WHERE occurred_at < $1`, cutoff)
	return err
}
