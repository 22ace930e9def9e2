package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/profiles"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RolePolicy names the default role granted to a freshly provisioned
// profile. Keeping it a named, injected value makes the choice auditable
// instead of a literal buried in the authorization path.
type RolePolicy func() authz.Role

// DefaultRoleForNewProfile builds a RolePolicy returning a fixed role.
func DefaultRoleForNewProfile(role authz.Role) RolePolicy {
	return func() authz.Role { return role }
}

// DecisionRecorder receives the outcome of each authorization decision.
type DecisionRecorder interface {
	RecordDecision(module authz.Module, method, outcome string)
}

// Authorizer is the single entry point every API route goes through. It
// resolves the caller's identity, loads or provisions the role profile,
// checks the account is active, and consults the access matrix for the
// request's module and method.
type Authorizer struct {
	identities  Repository
	profiles    profiles.Repository
	defaultRole RolePolicy
	logger      *slog.Logger
	recorder    DecisionRecorder
	provision   singleflight.Group
}

// NewAuthorizer constructs an Authorizer. recorder may be nil.
func NewAuthorizer(identities Repository, store profiles.Repository, policy RolePolicy, logger *slog.Logger, recorder DecisionRecorder) *Authorizer {
	return &Authorizer{
		identities:  identities,
		profiles:    store,
		defaultRole: policy,
		logger:      logger,
		recorder:    recorder,
	}
}

// Authorize runs the full per-request flow for the given module using the
// request's HTTP method. Every expected failure comes back as a Result
// value carrying the status and message the route forwards unmodified.
func (a *Authorizer) Authorize(ctx context.Context, r *http.Request, module authz.Module) Result {
	res := a.authorize(ctx, r, module)
	if a.recorder != nil {
		outcome := "allowed"
		if !res.OK {
			outcome = strconv.Itoa(res.Status)
		}
		a.recorder.RecordDecision(module, r.Method, outcome)
	}
	return res
}

func (a *Authorizer) authorize(ctx context.Context, r *http.Request, module authz.Module) Result {
	ident, res := a.resolveIdentity(ctx, r)
	if ident == nil {
		return res
	}

	profile, res := a.loadOrProvisionProfile(ctx, ident)
	if profile == nil {
		return res
	}

	if !profile.IsActive {
		return failure(http.StatusForbidden, "account is deactivated")
	}

	if !authz.HasHTTPPermission(profile.Role, module, r.Method) {
		return failure(http.StatusForbidden,
			fmt.Sprintf("insufficient permissions: %s role cannot %s %s", profile.Role, r.Method, module))
	}

	return success(&shared.User{
		ID:        profile.ID,
		Email:     profile.Email,
		Role:      profile.Role,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	})
}

// Authenticate resolves the caller without consulting the access matrix.
// Unlike Authorize it does not provision missing profiles; they surface as
// a 404 for the caller to handle.
func (a *Authorizer) Authenticate(ctx context.Context, r *http.Request) Result {
	ident, res := a.resolveIdentity(ctx, r)
	if ident == nil {
		return res
	}

	profile, err := a.profiles.GetByID(ctx, ident.ID)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return failure(http.StatusNotFound, "profile not found")
		}
		a.logger.Error("profile lookup", slog.Int64("user_id", ident.ID), slog.Any("error", err))
		return failure(http.StatusInternalServerError, "profile lookup failed")
	}

	if !profile.IsActive {
		return failure(http.StatusForbidden, "account is deactivated")
	}

	return success(&shared.User{
		ID:        profile.ID,
		Email:     profile.Email,
		Role:      profile.Role,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	})
}

// resolveIdentity maps the session to a backing identity. Any failure here
// is a 401: a session pointing at a deleted identity is unauthenticated,
// not a missing profile.
func (a *Authorizer) resolveIdentity(ctx context.Context, r *http.Request) (*Identity, Result) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, failure(http.StatusUnauthorized, "authentication required")
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, failure(http.StatusUnauthorized, "authentication required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		a.logger.Warn("session carries malformed user id", slog.String("value", raw))
		return nil, failure(http.StatusUnauthorized, "authentication required")
	}

	ident, err := a.identities.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			a.logger.Error("identity lookup", slog.Int64("user_id", id), slog.Any("error", err))
		}
		return nil, failure(http.StatusUnauthorized, "authentication required")
	}
	return ident, Result{}
}

// loadOrProvisionProfile fetches the role profile, creating one with the
// default role when none exists. Concurrent first-requests from the same
// identity are collapsed in-process via singleflight; across processes the
// store's uniqueness constraint arbitrates, and the loser re-fetches
// exactly once.
func (a *Authorizer) loadOrProvisionProfile(ctx context.Context, ident *Identity) (*profiles.Profile, Result) {
	profile, err := a.profiles.GetByID(ctx, ident.ID)
	if err == nil {
		return profile, Result{}
	}
	if !errors.Is(err, profiles.ErrNotFound) {
		// A transient store error must not trigger provisioning.
		a.logger.Error("profile lookup", slog.Int64("user_id", ident.ID), slog.Any("error", err))
		return nil, failure(http.StatusInternalServerError, "profile lookup failed")
	}

	key := strconv.FormatInt(ident.ID, 10)
	created, err, _ := a.provision.Do(key, func() (any, error) {
		return a.createProfile(ctx, ident)
	})
	if err != nil {
		a.logger.Error("profile provisioning", slog.Int64("user_id", ident.ID), slog.Any("error", err))
		return nil, failure(http.StatusInternalServerError, "profile could not be provisioned")
	}
	return created.(*profiles.Profile), Result{}
}

func (a *Authorizer) createProfile(ctx context.Context, ident *Identity) (*profiles.Profile, error) {
	role := a.defaultRole()
	if !role.Valid() {
		return nil, fmt.Errorf("auth: default role policy returned invalid role %q", role)
	}
	created, err := a.profiles.Create(ctx, profiles.Profile{
		ID:        ident.ID,
		Email:     ident.Email,
		FirstName: ident.FirstName,
		LastName:  ident.LastName,
		Role:      role,
		IsActive:  true,
	})
	if err == nil {
		a.logger.Info("provisioned profile with default role",
			slog.Int64("user_id", ident.ID), slog.String("role", string(role)))
		return created, nil
	}
	if errors.Is(err, profiles.ErrConflict) {
		// Another request won the insert race; the single re-fetch must
		// now succeed on the existing row.
		return a.profiles.GetByID(ctx, ident.ID)
	}
	return nil, err
}
