package payroll

import "time"

// Pay-run statuses. A run is processed at most once; a failed run reverts
// to draft for an operator to retrigger.
const (
	RunStatusDraft      = "DRAFT"
	RunStatusProcessing = "PROCESSING"
	RunStatusCompleted  = "COMPLETED"
)

// PayRun is one payroll cycle over the active employee roster.
type PayRun struct {
	ID          int64
	Period      string // YYYY-MM
	Status      string
	StartedBy   int64
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Payslip is a single employee's pay record within a run.
type Payslip struct {
	ID         int64
	PayRunID   int64
	EmployeeID int64
	Gross      float64
	Deductions float64
	Net        float64
	CreatedAt  time.Time
}
