package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clinicore-erp/clinicore/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord persists a fire-and-forget audit entry.
	TaskAuditRecord = "audit:record"
	// TaskAuditPrune prunes audit entries past retention.
	TaskAuditPrune = "audit:prune"
)

// NewAuditRecordTask constructs an Asynq task carrying one audit entry.
func NewAuditRecordTask(entry audit.Entry) (*asynq.Task, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, body, asynq.Queue(QueueDefault)), nil
}

// AuditPrunePayload carries the retention window.
type AuditPrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditPruneTask constructs the retention task.
func NewAuditPruneTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(AuditPrunePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, body, asynq.Queue(QueueDefault)), nil
}

// AuditJob processes audit queue tasks in the worker.
type AuditJob struct {
	recorder *audit.Recorder
	logger   *slog.Logger
	metrics  *Metrics
}

// NewAuditJob constructs an AuditJob.
func NewAuditJob(recorder *audit.Recorder, logger *slog.Logger, metrics *Metrics) *AuditJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditJob{recorder: recorder, logger: logger, metrics: metrics}
}

// HandleRecord persists a queued audit entry.
func (j *AuditJob) HandleRecord(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskAuditRecord)
	var entry audit.Entry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		tracker.End(err)
		return asynq.SkipRetry
	}
	return tracker.End(j.recorder.Insert(ctx, entry))
}

// HandlePrune deletes entries older than the configured retention.
func (j *AuditJob) HandlePrune(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskAuditPrune)
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		tracker.End(err)
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		payload.Retention = 90 * 24 * time.Hour
	}
	return tracker.End(j.recorder.Prune(ctx, payload.Retention))
}

// AuditSink implements audit.Sink by enqueueing entries. Enqueue failures are
// logged and swallowed so the primary operation never fails on audit.
type AuditSink struct {
	client *Client
	logger *slog.Logger
}

// NewAuditSink constructs an AuditSink.
func NewAuditSink(client *Client, logger *slog.Logger) *AuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditSink{client: client, logger: logger}
}

// Record enqueues the entry.
func (s *AuditSink) Record(ctx context.Context, entry audit.Entry) {
	if s == nil || s.client == nil {
		return
	}
	task, err := NewAuditRecordTask(entry)
	if err != nil {
		s.logger.Warn("build audit task", slog.Any("error", err))
		return
	}
	if _, err := s.client.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		s.logger.Warn("enqueue audit task", slog.Any("error", err))
	}
}
