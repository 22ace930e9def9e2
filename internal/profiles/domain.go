package profiles

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// Profile is the role-bearing account record backing authorization
// decisions. One profile exists per identity.
type Profile struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Role      authz.Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
