package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/activity"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/payroll"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePayRunProcess executes one payroll batch.
	TaskTypePayRunProcess = "payroll:process"
	// TaskTypeActivityCleanup prunes old activity log rows.
	TaskTypeActivityCleanup = "activity:cleanup"
	// TaskTypeIdempotencyCleanup prunes expired idempotency keys.
	TaskTypeIdempotencyCleanup = "idempotency:cleanup"
)

// PayRunPayload identifies the run a worker should process.
type PayRunPayload struct {
	RunID int64 `json:"runId"`
}

// NewPayRunTask constructs an Asynq task.
func NewPayRunTask(runID int64) (*asynq.Task, error) {
	data, err := json.Marshal(PayRunPayload{RunID: runID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePayRunProcess, data), nil
}

// PayRunJob runs payroll batches dequeued from Asynq.
type PayRunJob struct {
	service *payroll.Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewPayRunJob constructs the job.
func NewPayRunJob(service *payroll.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *PayRunJob {
	return &PayRunJob{service: service, logger: logger, metrics: metrics}
}

// Handle processes TaskTypePayRunProcess tasks. A malformed payload or a
// run no longer in draft is permanent; those skip retry.
func (j *PayRunJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PayRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	j.logger.Info("pay run processing started", slog.Int64("run_id", payload.RunID))
	tracker := j.metrics.Track("payroll_process")
	err := tracker.End(j.service.Process(ctx, payload.RunID))
	switch {
	case err == nil:
		j.recordPayslips(ctx, payload.RunID)
		j.logger.Info("pay run processed", slog.Int64("run_id", payload.RunID))
		return nil
	case errors.Is(err, payroll.ErrRunNotDraft) || errors.Is(err, payroll.ErrNotFound):
		j.logger.Warn("pay run skipped", slog.Int64("run_id", payload.RunID), slog.Any("reason", err))
		return asynq.SkipRetry
	default:
		j.logger.Error("pay run failed", slog.Int64("run_id", payload.RunID), slog.Any("error", err))
		return err
	}
}

func (j *PayRunJob) recordPayslips(ctx context.Context, runID int64) {
	run, err := j.service.GetRun(ctx, runID)
	if err != nil {
		return
	}
	slips, err := j.service.ListPayslips(ctx, runID)
	if err != nil {
		return
	}
	j.metrics.AddPayslips(run.Period, len(slips))
}

// CleanupJob prunes aged activity rows and idempotency keys.
type CleanupJob struct {
	activity    *activity.Logger
	idempotency *shared.IdempotencyStore
	retention   time.Duration
	logger      *slog.Logger
	metrics     *jobmetrics.Metrics
}

// NewCleanupJob constructs the job.
func NewCleanupJob(activityLog *activity.Logger, idempotency *shared.IdempotencyStore, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *CleanupJob {
	return &CleanupJob{activity: activityLog, idempotency: idempotency, retention: retention, logger: logger, metrics: metrics}
}

// HandleActivity processes TaskTypeActivityCleanup tasks.
func (j *CleanupJob) HandleActivity(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("activity_cleanup")
	removed, err := j.activity.Purge(ctx, j.retention)
	if err = tracker.End(err); err != nil {
		j.logger.Error("activity cleanup", slog.Any("error", err))
		return err
	}
	j.logger.Info("activity cleanup done", slog.Int64("removed", removed))
	return nil
}

// HandleIdempotency processes TaskTypeIdempotencyCleanup tasks.
func (j *CleanupJob) HandleIdempotency(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("idempotency_cleanup")
	if err := tracker.End(j.idempotency.Cleanup(ctx, j.retention)); err != nil {
		j.logger.Error("idempotency cleanup", slog.Any("error", err))
		return err
	}
	return nil
}
