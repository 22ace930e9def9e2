package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the pay run does not exist.
	ErrNotFound = errors.New("payroll: not found")
	// ErrDuplicatePeriod indicates a run already exists for the period.
	ErrDuplicatePeriod = errors.New("payroll: run already exists for period")
)

// Repository defines persistence operations for payroll.
type Repository interface {
	CreateRun(ctx context.Context, run PayRun) (*PayRun, error)
	GetRun(ctx context.Context, id int64) (*PayRun, error)
	ListRuns(ctx context.Context) ([]PayRun, error)
	UpdateRunStatus(ctx context.Context, id int64, status string, processedAt *time.Time) error
	InsertPayslip(ctx context.Context, slip Payslip) (*Payslip, error)
	ListPayslips(ctx context.Context, runID int64) ([]Payslip, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const runColumns = `id, period, status, started_by, created_at, processed_at`

func scanRun(row pgx.Row) (*PayRun, error) {
	var run PayRun
	if err := row.Scan(&run.ID, &run.Period, &run.Status, &run.StartedBy, &run.CreatedAt, &run.ProcessedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// CreateRun inserts a new draft run. Each period gets at most one run.
func (r *PGRepository) CreateRun(ctx context.Context, run PayRun) (*PayRun, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO pay_runs (period, status, started_by, created_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING `+runColumns,
		run.Period, RunStatusDraft, run.StartedBy)
	created, err := scanRun(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicatePeriod
		}
		return nil, err
	}
	return created, nil
}

// GetRun fetches a run by id.
func (r *PGRepository) GetRun(ctx context.Context, id int64) (*PayRun, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM pay_runs WHERE id = $1`, id)
	return scanRun(row)
}

// ListRuns returns all runs, newest first.
func (r *PGRepository) ListRuns(ctx context.Context) ([]PayRun, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+runColumns+` FROM pay_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []PayRun
	for rows.Next() {
		var run PayRun
		if err := rows.Scan(&run.ID, &run.Period, &run.Status, &run.StartedBy, &run.CreatedAt, &run.ProcessedAt); err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateRunStatus moves a run between statuses.
func (r *PGRepository) UpdateRunStatus(ctx context.Context, id int64, status string, processedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE pay_runs SET status = $2, processed_at = $3 WHERE id = $1`, id, status, processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertPayslip persists one payslip row.
func (r *PGRepository) InsertPayslip(ctx context.Context, slip Payslip) (*Payslip, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO payslips (pay_run_id, employee_id, gross, deductions, net, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING id, pay_run_id, employee_id, gross, deductions, net, created_at`,
		slip.PayRunID, slip.EmployeeID, slip.Gross, slip.Deductions, slip.Net)
	var created Payslip
	if err := row.Scan(&created.ID, &created.PayRunID, &created.EmployeeID, &created.Gross, &created.Deductions, &created.Net, &created.CreatedAt); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListPayslips returns the payslips of a run ordered by employee.
func (r *PGRepository) ListPayslips(ctx context.Context, runID int64) ([]Payslip, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, pay_run_id, employee_id, gross, deductions, net, created_at
		 FROM payslips WHERE pay_run_id = $1 ORDER BY employee_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Payslip
	for rows.Next() {
		var slip Payslip
		if err := rows.Scan(&slip.ID, &slip.PayRunID, &slip.EmployeeID, &slip.Gross, &slip.Deductions, &slip.Net, &slip.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, slip)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ Repository = (*PGRepository)(nil)
