package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/employees"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// deductionRate is the flat statutory deduction applied to gross pay.
const deductionRate = 0.05

// processLockTTL bounds how long a pay-run lock may be held.
const processLockTTL = 10 * time.Minute

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ErrRunNotDraft indicates the run is not in a processable state.
var ErrRunNotDraft = errors.New("payroll: run is not in draft status")

// ErrRunLocked indicates another worker is processing the run.
var ErrRunLocked = errors.New("payroll: run is being processed elsewhere")

// EmployeeSource supplies the roster a pay-run iterates.
type EmployeeSource interface {
	ListActive(ctx context.Context) ([]employees.Employee, error)
}

// Service orchestrates payroll operations.
type Service struct {
	repo   Repository
	roster EmployeeSource
	redis  *redis.Client
	logger *slog.Logger
}

// NewService constructs a Service. redis may be nil in tests; the lock is
// then skipped and single-process semantics apply.
func NewService(repo Repository, roster EmployeeSource, redisClient *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, roster: roster, redis: redisClient, logger: logger}
}

// CreateRun opens a draft run for the period.
func (s *Service) CreateRun(ctx context.Context, period string, startedBy int64) (*PayRun, error) {
	if !periodPattern.MatchString(period) {
		return nil, fmt.Errorf("payroll: invalid period %q, want YYYY-MM", period)
	}
	return s.repo.CreateRun(ctx, PayRun{Period: period, StartedBy: startedBy})
}

// GetRun fetches a run.
func (s *Service) GetRun(ctx context.Context, id int64) (*PayRun, error) {
	return s.repo.GetRun(ctx, id)
}

// ListRuns returns all runs.
func (s *Service) ListRuns(ctx context.Context) ([]PayRun, error) {
	return s.repo.ListRuns(ctx)
}

// ListPayslips returns the payslips of a run.
func (s *Service) ListPayslips(ctx context.Context, runID int64) ([]Payslip, error) {
	if _, err := s.repo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.repo.ListPayslips(ctx, runID)
}

// Process executes the pay-run batch: mark the run processing, iterate the
// active roster inserting one payslip per employee, then mark completed.
// Any failure reverts the run to draft; the batch is single-pass and never
// retried internally.
func (s *Service) Process(ctx context.Context, runID int64) error {
	unlock, err := s.acquireLock(ctx, runID)
	if err != nil {
		return err
	}
	defer unlock()

	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != RunStatusDraft {
		return ErrRunNotDraft
	}

	if err := s.repo.UpdateRunStatus(ctx, runID, RunStatusProcessing, nil); err != nil {
		return err
	}

	roster, err := s.roster.ListActive(ctx)
	if err != nil {
		s.revert(ctx, runID)
		return err
	}

	for _, emp := range roster {
		gross := emp.BaseSalary
		deductions := gross * deductionRate
		slip := Payslip{
			PayRunID:   runID,
			EmployeeID: emp.ID,
			Gross:      gross,
			Deductions: deductions,
			Net:        gross - deductions,
		}
		if _, err := s.repo.InsertPayslip(ctx, slip); err != nil {
			s.revert(ctx, runID)
			return fmt.Errorf("payroll: payslip for employee %d: %w", emp.ID, err)
		}
	}

	now := time.Now().UTC()
	return s.repo.UpdateRunStatus(ctx, runID, RunStatusCompleted, &now)
}

// revert puts a failed run back to draft so an operator can retrigger it.
func (s *Service) revert(ctx context.Context, runID int64) {
	if err := s.repo.UpdateRunStatus(ctx, runID, RunStatusDraft, nil); err != nil && s.logger != nil {
		s.logger.Error("revert pay run", slog.Int64("run_id", runID), slog.Any("error", err))
	}
}

// acquireLock takes the redis pay-run lock to keep two workers from
// processing the same run. Returns a release func.
func (s *Service) acquireLock(ctx context.Context, runID int64) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}
	key := shared.PayRunLockKey(runID)
	ok, err := s.redis.SetNX(ctx, key, "1", processLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunLocked
	}
	return func() {
		if err := s.redis.Del(context.WithoutCancel(ctx), key).Err(); err != nil && s.logger != nil {
			s.logger.Warn("release pay run lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
