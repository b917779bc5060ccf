// Package audit provides the fire-and-forget audit sink. Every mutating
// operation emits an entry; sink failures are logged and never surface as the
// primary call's error.
package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore-erp/clinicore/internal/shared"
)

// Entry is a single audit record.
type Entry struct {
	ID     string         `json:"id"`
	Actor  string         `json:"actor"`
	Action string         `json:"action"`
	Label  string         `json:"label"`
	Method string         `json:"method"`
	Path   string         `json:"path"`
	At     time.Time      `json:"at"`
	Detail map[string]any `json:"detail,omitempty"`
}

// Sink accepts entries without reporting failure to the caller.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// FromRequest builds an entry for a handled HTTP mutation.
func FromRequest(r *http.Request, action, label string, detail map[string]any) Entry {
	return Entry{
		ID:     uuid.NewString(),
		Actor:  shared.ActorFromContext(r.Context()),
		Action: action,
		Label:  label,
		Method: r.Method,
		Path:   r.URL.Path,
		At:     time.Now().UTC(),
		Detail: detail,
	}
}

// LogSink writes entries to the application logger. Used when no queue is
// configured and in tests.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record logs the entry.
func (s *LogSink) Record(_ context.Context, entry Entry) {
	s.logger.Info("audit",
		slog.String("actor", entry.Actor),
		slog.String("action", entry.Action),
		slog.String("label", entry.Label),
		slog.String("method", entry.Method),
		slog.String("path", entry.Path),
	)
}
