package employees

import "time"

// Employee is the HR master record. Pay-run processing iterates active
// employees only.
type Employee struct {
	ID         int64
	EmployeeNo string
	FirstName  string
	LastName   string
	Email      string
	Department string
	Position   string
	BaseSalary float64
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
