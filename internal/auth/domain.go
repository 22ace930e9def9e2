package auth

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Identity is the verified caller resolved from the session, before any
// role information is attached.
type Identity struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Result is the uniform outcome of the authorizer. Expected failures are
// values, never errors thrown past this boundary; handlers forward Status
// and Message verbatim. The principal type lives in shared so route
// handlers can read it from context without depending on this package.
type Result struct {
	OK      bool
	User    *shared.User
	Status  int
	Message string
}

func success(user *shared.User) Result {
	return Result{OK: true, User: user}
}

func failure(status int, message string) Result {
	return Result{Status: status, Message: message}
}
