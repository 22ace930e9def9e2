package employees

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the employee does not exist.
	ErrNotFound = errors.New("employees: not found")
	// ErrDuplicateNo indicates the employee number is already taken.
	ErrDuplicateNo = errors.New("employees: employee number already exists")
)

// Repository defines persistence operations for employees.
type Repository interface {
	List(ctx context.Context, page, perPage int) ([]Employee, int, error)
	ListActive(ctx context.Context) ([]Employee, error)
	Get(ctx context.Context, id int64) (*Employee, error)
	Create(ctx context.Context, emp Employee) (*Employee, error)
	Update(ctx context.Context, emp Employee) (*Employee, error)
	SetActive(ctx context.Context, id int64, active bool) error
	CountActive(ctx context.Context) (int, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const employeeColumns = `id, employee_no, first_name, last_name, email, department, position, base_salary, is_active, created_at, updated_at`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.EmployeeNo, &e.FirstName, &e.LastName, &e.Email,
		&e.Department, &e.Position, &e.BaseSalary, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns a page of employees plus the total count.
func (r *PGRepository) List(ctx context.Context, page, perPage int) ([]Employee, int, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY id LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result, err := collectEmployees(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListActive returns every active employee ordered by id.
func (r *PGRepository) ListActive(ctx context.Context) ([]Employee, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEmployees(rows)
}

func collectEmployees(rows pgx.Rows) ([]Employee, error) {
	var result []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.EmployeeNo, &e.FirstName, &e.LastName, &e.Email,
			&e.Department, &e.Position, &e.BaseSalary, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get fetches one employee.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return scanEmployee(row)
}

// Create inserts a new employee.
func (r *PGRepository) Create(ctx context.Context, emp Employee) (*Employee, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO employees (employee_no, first_name, last_name, email, department, position, base_salary, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
		 RETURNING `+employeeColumns,
		emp.EmployeeNo, emp.FirstName, emp.LastName, emp.Email, emp.Department, emp.Position, emp.BaseSalary, now)
	created, err := scanEmployee(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateNo
		}
		return nil, err
	}
	return created, nil
}

// Update rewrites the mutable fields of an employee.
func (r *PGRepository) Update(ctx context.Context, emp Employee) (*Employee, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE employees
		 SET first_name = $2, last_name = $3, email = $4, department = $5, position = $6, base_salary = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+employeeColumns,
		emp.ID, emp.FirstName, emp.LastName, emp.Email, emp.Department, emp.Position, emp.BaseSalary)
	return scanEmployee(row)
}

// SetActive toggles the active flag.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE employees SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive returns the number of active employees.
func (r *PGRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE is_active`).Scan(&count)
	return count, err
}

var _ Repository = (*PGRepository)(nil)
