package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTenantProvision provisions infrastructure for a freshly created tenant.
	TaskTenantProvision = "tenant:provision"
	// TaskTenantProvisionSweep retries infrastructure records still pending,
	// e.g. after a lost provision task.
	TaskTenantProvisionSweep = "tenant:provision_sweep"
	// TaskAnalyticsRecord records a usage event for reporting.
	TaskAnalyticsRecord = "analytics:record"
)

// TenantProvisionPayload describes the infrastructure to set up for a tenant.
type TenantProvisionPayload struct {
	TenantID  string `json:"tenantId"`
	Type      string `json:"type"`
	Subdomain string `json:"subdomain"`
}

// AnalyticsRecordPayload describes one usage event.
type AnalyticsRecordPayload struct {
	TenantID   string    `json:"tenantId"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewTenantProvisionTask constructs an Asynq task.
func NewTenantProvisionTask(payload TenantProvisionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTenantProvision, data), nil
}

// NewTenantProvisionSweepTask constructs the periodic retry task. It carries
// no payload; the sweep handler finds its own work.
func NewTenantProvisionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTenantProvisionSweep, nil)
}

// NewAnalyticsRecordTask constructs an Asynq task.
func NewAnalyticsRecordTask(payload AnalyticsRecordPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsRecord, data), nil
}
