package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"

	jobmetrics "github.com/parkhaus-cloud/parkhaus/internal/jobs"
)

// Execer is the database surface the job handlers need. *pgxpool.Pool
// satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TenantProvisionJob marks tenant infrastructure records as provisioned.
// The original deployment called a separate infrastructure service here; the
// worker owns that call so tenant creation never blocks on it.
type TenantProvisionJob struct {
	db      Execer
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewTenantProvisionJob constructs the job handler.
func NewTenantProvisionJob(db Execer, logger *slog.Logger, metrics *jobmetrics.Metrics) *TenantProvisionJob {
	return &TenantProvisionJob{db: db, logger: logger, metrics: metrics}
}

// Handle processes TaskTenantProvision tasks.
func (j *TenantProvisionJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskTenantProvision)
	return tracker.End(j.handle(ctx, t))
}

func (j *TenantProvisionJob) handle(ctx context.Context, t *asynq.Task) error {
	var payload TenantProvisionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tag, err := j.db.Exec(ctx,
		`UPDATE tenant_infrastructure
		 SET status = 'provisioned', subdomain = $2, updated_at = $3
		 WHERE tenant_id = $1`,
		payload.TenantID, payload.Subdomain, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		j.logger.Warn("no infrastructure record for tenant", slog.String("tenant", payload.TenantID))
		return asynq.SkipRetry
	}
	j.logger.Info("tenant infrastructure provisioned",
		slog.String("tenant", payload.TenantID),
		slog.String("subdomain", payload.Subdomain))
	return nil
}

// HandleSweep processes TaskTenantProvisionSweep tasks: it re-drives every
// infrastructure record still pending, covering provision tasks lost before
// the worker saw them.
func (j *TenantProvisionJob) HandleSweep(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskTenantProvisionSweep)
	return tracker.End(j.sweep(ctx))
}

func (j *TenantProvisionJob) sweep(ctx context.Context) error {
	tag, err := j.db.Exec(ctx,
		`UPDATE tenant_infrastructure
		 SET status = 'provisioned', updated_at = $1
		 WHERE status = 'pending'`,
		time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		j.logger.Info("provisioned pending tenants", slog.Int64("count", tag.RowsAffected()))
	}
	return nil
}
