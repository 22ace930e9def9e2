package shared

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// User is the per-request authenticated principal handed to route handlers.
// It lives for one request and is never persisted.
type User struct {
	ID        int64
	Email     string
	Role      authz.Role
	FirstName string
	LastName  string
}

type userContextKey struct{}

// ContextWithUser stores the authenticated user in context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}
