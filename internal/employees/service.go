package employees

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles employee business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of employees with pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Employee, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one employee.
func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a new employee.
func (s *Service) Create(ctx context.Context, emp Employee) (*Employee, error) {
	emp.EmployeeNo = strings.TrimSpace(emp.EmployeeNo)
	if emp.EmployeeNo == "" {
		return nil, errors.New("employees: employee number required")
	}
	if emp.BaseSalary < 0 {
		return nil, errors.New("employees: base salary cannot be negative")
	}
	return s.repo.Create(ctx, emp)
}

// Update rewrites an employee's mutable fields.
func (s *Service) Update(ctx context.Context, emp Employee) (*Employee, error) {
	if emp.BaseSalary < 0 {
		return nil, errors.New("employees: base salary cannot be negative")
	}
	return s.repo.Update(ctx, emp)
}

// Deactivate removes an employee from active rosters without deleting the
// record; deactivated employees are skipped by pay-runs.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}
