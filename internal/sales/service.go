package sales

import (
	"context"
	"errors"
	"strings"
)

// Service orchestrates sales operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListCustomers returns all customers.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// CreateCustomer validates and inserts a customer.
func (s *Service) CreateCustomer(ctx context.Context, c Customer) (*Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, errors.New("sales: customer name required")
	}
	return s.repo.CreateCustomer(ctx, c)
}

// ListOrders returns all orders.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.repo.ListOrders(ctx)
}

// CreateOrder validates the customer exists and inserts a draft order.
func (s *Service) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	if o.TotalAmount < 0 {
		return nil, errors.New("sales: order total cannot be negative")
	}
	if _, err := s.repo.GetCustomer(ctx, o.CustomerID); err != nil {
		return nil, err
	}
	if o.Status == "" {
		o.Status = OrderStatusDraft
	}
	return s.repo.CreateOrder(ctx, o)
}
