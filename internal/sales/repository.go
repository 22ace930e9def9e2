package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("sales: not found")

// Repository defines persistence operations for the sales module.
type Repository interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	CreateCustomer(ctx context.Context, c Customer) (*Customer, error)
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	ListOrders(ctx context.Context) ([]Order, error)
	CreateOrder(ctx context.Context, o Order) (*Order, error)
	CountOrders(ctx context.Context) (int, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListCustomers returns all customers ordered by name.
func (r *PGRepository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, phone, created_at, updated_at FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateCustomer inserts a customer.
func (r *PGRepository) CreateCustomer(ctx context.Context, c Customer) (*Customer, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 RETURNING id, name, email, phone, created_at, updated_at`,
		c.Name, c.Email, c.Phone, now)
	var created Customer
	if err := row.Scan(&created.ID, &created.Name, &created.Email, &created.Phone, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCustomer fetches one customer.
func (r *PGRepository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, created_at, updated_at FROM customers WHERE id = $1`, id)
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListOrders returns all orders, newest first.
func (r *PGRepository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, reference, customer_id, status, total_amount, created_by, created_at, updated_at
		 FROM sales_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Reference, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateOrder inserts an order header.
func (r *PGRepository) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	if o.Reference == uuid.Nil {
		o.Reference = uuid.New()
	}
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sales_orders (reference, customer_id, status, total_amount, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING id, reference, customer_id, status, total_amount, created_by, created_at, updated_at`,
		o.Reference, o.CustomerID, o.Status, o.TotalAmount, o.CreatedBy, now)
	var created Order
	if err := row.Scan(&created.ID, &created.Reference, &created.CustomerID, &created.Status, &created.TotalAmount, &created.CreatedBy, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, err
	}
	return &created, nil
}

// CountOrders returns the number of orders.
func (r *PGRepository) CountOrders(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales_orders`).Scan(&count)
	return count, err
}

var _ Repository = (*PGRepository)(nil)
