package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/employees"
)

type memoryRepo struct {
	runs      map[int64]*PayRun
	slips     []Payslip
	nextRunID int64
	nextSlip  int64

	failSlipAfter int // insert fails once this many slips exist, 0 disables
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{runs: map[int64]*PayRun{}, nextRunID: 1, nextSlip: 1}
}

func (m *memoryRepo) CreateRun(_ context.Context, run PayRun) (*PayRun, error) {
	for _, existing := range m.runs {
		if existing.Period == run.Period {
			return nil, ErrDuplicatePeriod
		}
	}
	created := run
	created.ID = m.nextRunID
	created.Status = RunStatusDraft
	created.CreatedAt = time.Now()
	m.nextRunID++
	m.runs[created.ID] = &created
	copied := created
	return &copied, nil
}

func (m *memoryRepo) GetRun(_ context.Context, id int64) (*PayRun, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (m *memoryRepo) ListRuns(_ context.Context) ([]PayRun, error) {
	var result []PayRun
	for _, run := range m.runs {
		result = append(result, *run)
	}
	return result, nil
}

func (m *memoryRepo) UpdateRunStatus(_ context.Context, id int64, status string, processedAt *time.Time) error {
	run, ok := m.runs[id]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	run.ProcessedAt = processedAt
	return nil
}

func (m *memoryRepo) InsertPayslip(_ context.Context, slip Payslip) (*Payslip, error) {
	if m.failSlipAfter > 0 && len(m.slips) >= m.failSlipAfter {
		return nil, errors.New("insert failed")
	}
	slip.ID = m.nextSlip
	m.nextSlip++
	slip.CreatedAt = time.Now()
	m.slips = append(m.slips, slip)
	copied := slip
	return &copied, nil
}

func (m *memoryRepo) ListPayslips(_ context.Context, runID int64) ([]Payslip, error) {
	var result []Payslip
	for _, slip := range m.slips {
		if slip.PayRunID == runID {
			result = append(result, slip)
		}
	}
	return result, nil
}

var _ Repository = (*memoryRepo)(nil)

type staticRoster struct {
	list []employees.Employee
	err  error
}

func (r staticRoster) ListActive(context.Context) ([]employees.Employee, error) {
	return r.list, r.err
}

func TestCreateRunValidatesPeriod(t *testing.T) {
	svc := NewService(newMemoryRepo(), staticRoster{}, nil, nil)

	for _, period := range []string{"", "2026", "2026-13", "26-01", "2026/01"} {
		_, err := svc.CreateRun(context.Background(), period, 1)
		assert.Error(t, err, "period %q", period)
	}

	run, err := svc.CreateRun(context.Background(), "2026-09", 1)
	require.NoError(t, err)
	assert.Equal(t, RunStatusDraft, run.Status)
	assert.Equal(t, "2026-09", run.Period)
}

func TestCreateRunRejectsDuplicatePeriod(t *testing.T) {
	svc := NewService(newMemoryRepo(), staticRoster{}, nil, nil)

	_, err := svc.CreateRun(context.Background(), "2026-09", 1)
	require.NoError(t, err)

	_, err = svc.CreateRun(context.Background(), "2026-09", 1)
	assert.ErrorIs(t, err, ErrDuplicatePeriod)
}

func TestProcessGeneratesOnePayslipPerActiveEmployee(t *testing.T) {
	repo := newMemoryRepo()
	roster := staticRoster{list: []employees.Employee{
		{ID: 10, BaseSalary: 5000, IsActive: true},
		{ID: 11, BaseSalary: 8000, IsActive: true},
		{ID: 12, BaseSalary: 12000, IsActive: true},
	}}
	svc := NewService(repo, roster, nil, nil)

	run, err := svc.CreateRun(context.Background(), "2026-09", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), run.ID))

	slips, err := svc.ListPayslips(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, slips, 3)

	first := slips[0]
	assert.Equal(t, int64(10), first.EmployeeID)
	assert.InDelta(t, 5000.0, first.Gross, 0.001)
	assert.InDelta(t, 250.0, first.Deductions, 0.001)
	assert.InDelta(t, 4750.0, first.Net, 0.001)

	updated, err := svc.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, updated.Status)
	require.NotNil(t, updated.ProcessedAt)
}

func TestProcessRevertsToDraftOnPayslipFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.failSlipAfter = 1
	roster := staticRoster{list: []employees.Employee{
		{ID: 10, BaseSalary: 5000, IsActive: true},
		{ID: 11, BaseSalary: 8000, IsActive: true},
	}}
	svc := NewService(repo, roster, nil, nil)

	run, err := svc.CreateRun(context.Background(), "2026-09", 1)
	require.NoError(t, err)

	err = svc.Process(context.Background(), run.ID)
	require.Error(t, err)

	reverted, err := svc.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusDraft, reverted.Status)
	assert.Nil(t, reverted.ProcessedAt)
}

func TestProcessRevertsToDraftWhenRosterUnavailable(t *testing.T) {
	repo := newMemoryRepo()
	roster := staticRoster{err: errors.New("roster unavailable")}
	svc := NewService(repo, roster, nil, nil)

	run, err := svc.CreateRun(context.Background(), "2026-09", 1)
	require.NoError(t, err)

	require.Error(t, svc.Process(context.Background(), run.ID))

	reverted, err := svc.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusDraft, reverted.Status)
}

func TestProcessRejectsNonDraftRun(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, staticRoster{}, nil, nil)

	run, err := svc.CreateRun(context.Background(), "2026-09", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), run.ID))

	err = svc.Process(context.Background(), run.ID)
	assert.ErrorIs(t, err, ErrRunNotDraft)
}

func TestProcessUnknownRun(t *testing.T) {
	svc := NewService(newMemoryRepo(), staticRoster{}, nil, nil)
	assert.ErrorIs(t, svc.Process(context.Background(), 42), ErrNotFound)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "4,750.00", FormatAmount(4750))
	assert.Equal(t, "1,234,567.89", FormatAmount(1234567.89))
	assert.Equal(t, "0.00", FormatAmount(0))
}
