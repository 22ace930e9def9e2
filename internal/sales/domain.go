package sales

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a sales counterparty.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order statuses.
const (
	OrderStatusDraft     = "DRAFT"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusCancelled = "CANCELLED"
)

// Order is a sales order header. Line detail lives with the order in the
// store; the API surfaces totals only.
type Order struct {
	ID          int64
	Reference   uuid.UUID
	CustomerID  int64
	Status      string
	TotalAmount float64
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
