package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/parkhaus-cloud/parkhaus/internal/jobs"
)

// AnalyticsRecordJob persists usage events emitted by the services.
type AnalyticsRecordJob struct {
	db      Execer
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAnalyticsRecordJob constructs the job handler.
func NewAnalyticsRecordJob(db Execer, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsRecordJob {
	return &AnalyticsRecordJob{db: db, logger: logger, metrics: metrics}
}

// Handle processes TaskAnalyticsRecord tasks.
func (j *AnalyticsRecordJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskAnalyticsRecord)
	return tracker.End(j.handle(ctx, t))
}

func (j *AnalyticsRecordJob) handle(ctx context.Context, t *asynq.Task) error {
	var payload AnalyticsRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	occurredAt := payload.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	_, err := j.db.Exec(ctx,
		`INSERT INTO analytics_events (tenant_id, action, occurred_at) VALUES ($1, $2, $3)`,
		payload.TenantID, payload.Action, occurredAt)
	if err != nil {
		j.logger.Warn("record analytics event", slog.Any("error", err))
		return err
	}
	return nil
}
