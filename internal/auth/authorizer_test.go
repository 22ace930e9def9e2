package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/profiles"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type fakeIdentities struct {
	byID map[int64]*Identity
	err  error
}

func (f *fakeIdentities) FindByEmail(_ context.Context, email string) (*Identity, error) {
	for _, ident := range f.byID {
		if ident.Email == email {
			return ident, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeIdentities) FindByID(_ context.Context, id int64) (*Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	ident, ok := f.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return ident, nil
}

func (f *fakeIdentities) CreateSession(context.Context, string, int64, time.Time, string, string) error {
	return nil
}

func (f *fakeIdentities) DeleteSession(context.Context, string) error { return nil }

type fakeProfiles struct {
	byID        map[int64]*profiles.Profile
	getErr      error
	createErr   error
	getCalls    int
	createCalls int
}

func (f *fakeProfiles) GetByID(_ context.Context, id int64) (*profiles.Profile, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, profiles.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*profiles.Profile, error) {
	for _, p := range f.byID {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, profiles.ErrNotFound
}

func (f *fakeProfiles) Create(_ context.Context, p profiles.Profile) (*profiles.Profile, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byID[p.ID]; exists {
		return nil, profiles.ErrConflict
	}
	if f.byID == nil {
		f.byID = map[int64]*profiles.Profile{}
	}
	stored := p
	f.byID[p.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeProfiles) SetActive(_ context.Context, id int64, active bool) error {
	p, ok := f.byID[id]
	if !ok {
		return profiles.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (f *fakeProfiles) SetRole(_ context.Context, id int64, role authz.Role) error {
	p, ok := f.byID[id]
	if !ok {
		return profiles.ErrNotFound
	}
	p.Role = role
	return nil
}

func (f *fakeProfiles) List(context.Context) ([]profiles.Profile, error) {
	var out []profiles.Profile
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, nil
}

var (
	_ Repository          = (*fakeIdentities)(nil)
	_ profiles.Repository = (*fakeProfiles)(nil)
)

type recordedDecision struct {
	module  authz.Module
	method  string
	outcome string
}

type fakeRecorder struct {
	decisions []recordedDecision
}

func (f *fakeRecorder) RecordDecision(module authz.Module, method, outcome string) {
	f.decisions = append(f.decisions, recordedDecision{module: module, method: method, outcome: outcome})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeIdentity(id int64) *Identity {
	return &Identity{ID: id, Email: "user@example.com", FirstName: "Jo", LastName: "Doe", IsActive: true}
}

func sessionRequest(method, userID string) *http.Request {
	r := httptest.NewRequest(method, "/", nil)
	sess := &shared.Session{}
	if userID != "" {
		sess.SetUser(userID)
	}
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

func newTestAuthorizer(idents *fakeIdentities, profs profiles.Repository, recorder DecisionRecorder) *Authorizer {
	return NewAuthorizer(idents, profs, DefaultRoleForNewProfile(authz.RoleManagement), testLogger(), recorder)
}

func TestAuthorizeWithoutSession(t *testing.T) {
	a := newTestAuthorizer(&fakeIdentities{}, &fakeProfiles{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.False(t, res.OK)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "authentication required", res.Message)
}

func TestAuthorizeWithAnonymousSession(t *testing.T) {
	a := newTestAuthorizer(&fakeIdentities{}, &fakeProfiles{}, nil)

	r := sessionRequest(http.MethodGet, "")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestAuthorizeWithMalformedUserID(t *testing.T) {
	a := newTestAuthorizer(&fakeIdentities{}, &fakeProfiles{}, nil)

	r := sessionRequest(http.MethodGet, "not-a-number")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestAuthorizeWithDeletedIdentity(t *testing.T) {
	// The session survives the identity row being removed; that caller is
	// unauthenticated, not a candidate for profile provisioning.
	profs := &fakeProfiles{}
	a := newTestAuthorizer(&fakeIdentities{byID: map[int64]*Identity{}}, profs, nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "authentication required", res.Message)
	assert.Zero(t, profs.createCalls)
}

func TestAuthorizeProvisionsMissingProfile(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{}
	a := newTestAuthorizer(idents, profs, nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	require.True(t, res.OK)
	require.NotNil(t, res.User)
	assert.Equal(t, authz.RoleManagement, res.User.Role)
	assert.Equal(t, 1, profs.createCalls)

	created := profs.byID[7]
	require.NotNil(t, created)
	assert.True(t, created.IsActive)
	assert.Equal(t, "user@example.com", created.Email)
}

func TestAuthorizeProvisionConflictRefetchesOnce(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{
		createErr: profiles.ErrConflict,
		byID: map[int64]*profiles.Profile{
			7: {ID: 7, Email: "user@example.com", Role: authz.RoleFinanceTeam, IsActive: true},
		},
	}
	a := newTestAuthorizer(idents, &missFirstProfiles{inner: profs}, nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	require.True(t, res.OK)
	assert.Equal(t, authz.RoleFinanceTeam, res.User.Role)
	assert.Equal(t, 1, profs.createCalls)
	// One miss, then exactly one re-fetch after the conflict.
	assert.Equal(t, 2, profs.getCalls)
}

// missFirstProfiles reports not-found on the first GetByID and delegates
// afterwards, simulating a concurrent insert between lookup and create.
type missFirstProfiles struct {
	inner  *fakeProfiles
	missed bool
}

func (m *missFirstProfiles) GetByID(ctx context.Context, id int64) (*profiles.Profile, error) {
	if !m.missed {
		m.missed = true
		m.inner.getCalls++
		return nil, profiles.ErrNotFound
	}
	return m.inner.GetByID(ctx, id)
}

func (m *missFirstProfiles) GetByEmail(ctx context.Context, email string) (*profiles.Profile, error) {
	return m.inner.GetByEmail(ctx, email)
}

func (m *missFirstProfiles) Create(ctx context.Context, p profiles.Profile) (*profiles.Profile, error) {
	return m.inner.Create(ctx, p)
}

func (m *missFirstProfiles) SetActive(ctx context.Context, id int64, active bool) error {
	return m.inner.SetActive(ctx, id, active)
}

func (m *missFirstProfiles) SetRole(ctx context.Context, id int64, role authz.Role) error {
	return m.inner.SetRole(ctx, id, role)
}

func (m *missFirstProfiles) List(ctx context.Context) ([]profiles.Profile, error) {
	return m.inner.List(ctx)
}

func TestAuthorizeProvisionFailureIsServerError(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{createErr: errors.New("disk full")}
	a := newTestAuthorizer(idents, profs, nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, "profile could not be provisioned", res.Message)
	assert.Equal(t, 1, profs.createCalls)
}

func TestAuthorizeTransientLookupErrorNeverProvisions(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{getErr: errors.New("connection reset")}
	a := newTestAuthorizer(idents, profs, nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, "profile lookup failed", res.Message)
	assert.Zero(t, profs.createCalls)
}

func TestAuthorizeDeactivatedProfile(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{byID: map[int64]*profiles.Profile{
		7: {ID: 7, Role: authz.RoleManagement, IsActive: false},
	}}
	a := newTestAuthorizer(idents, profs, nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "account is deactivated", res.Message)
}

func TestAuthorizeMatrixDenialNamesRoleMethodModule(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{byID: map[int64]*profiles.Profile{
		7: {ID: 7, Role: authz.RoleFinanceTeam, IsActive: true},
	}}
	a := newTestAuthorizer(idents, profs, nil)

	r := sessionRequest(http.MethodPost, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "insufficient permissions: FINANCE_TEAM role cannot POST sales", res.Message)
}

func TestAuthorizeAllowed(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{byID: map[int64]*profiles.Profile{
		7: {ID: 7, Email: "user@example.com", FirstName: "Jo", LastName: "Doe", Role: authz.RoleAdminHR, IsActive: true},
	}}
	a := newTestAuthorizer(idents, profs, nil)

	r := sessionRequest(http.MethodPost, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleEmployees)

	require.True(t, res.OK)
	assert.Equal(t, int64(7), res.User.ID)
	assert.Equal(t, authz.RoleAdminHR, res.User.Role)
	assert.Equal(t, "user@example.com", res.User.Email)
}

func TestAuthorizeRecordsDecisions(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{byID: map[int64]*profiles.Profile{
		7: {ID: 7, Role: authz.RoleIMSQHSE, IsActive: true},
	}}
	recorder := &fakeRecorder{}
	a := newTestAuthorizer(idents, profs, recorder)

	allowed := sessionRequest(http.MethodGet, "7")
	a.Authorize(allowed.Context(), allowed, authz.ModuleQHSE)

	denied := sessionRequest(http.MethodPost, "7")
	a.Authorize(denied.Context(), denied, authz.ModuleFinance)

	require.Len(t, recorder.decisions, 2)
	assert.Equal(t, recordedDecision{module: authz.ModuleQHSE, method: http.MethodGet, outcome: "allowed"}, recorder.decisions[0])
	assert.Equal(t, recordedDecision{module: authz.ModuleFinance, method: http.MethodPost, outcome: "403"}, recorder.decisions[1])
}

func TestAuthenticateMissingProfileIsNotFound(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{}
	a := newTestAuthorizer(idents, profs, nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authenticate(r.Context(), r)

	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "profile not found", res.Message)
	assert.Zero(t, profs.createCalls, "authenticate must never provision")
}

func TestAuthenticateActiveProfile(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{byID: map[int64]*profiles.Profile{
		7: {ID: 7, Email: "user@example.com", Role: authz.RoleManagement, IsActive: true},
	}}
	a := newTestAuthorizer(idents, profs, nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authenticate(r.Context(), r)

	require.True(t, res.OK)
	assert.Equal(t, authz.RoleManagement, res.User.Role)
}

func TestDefaultRolePolicyRejectsInvalidRole(t *testing.T) {
	idents := &fakeIdentities{byID: map[int64]*Identity{7: activeIdentity(7)}}
	profs := &fakeProfiles{}
	a := NewAuthorizer(idents, profs, DefaultRoleForNewProfile(authz.Role("INTERN")), testLogger(), nil)

	r := sessionRequest(http.MethodGet, "7")
	res := a.Authorize(r.Context(), r, authz.ModuleSales)

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Zero(t, profs.createCalls)
}
