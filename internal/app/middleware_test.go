package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/profiles"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type identityStore struct {
	byEmail map[string]*auth.Identity
}

func (s *identityStore) FindByEmail(_ context.Context, email string) (*auth.Identity, error) {
	if ident, ok := s.byEmail[email]; ok {
		return ident, nil
	}
	return nil, shared.ErrNotFound
}

func (s *identityStore) FindByID(_ context.Context, id int64) (*auth.Identity, error) {
	for _, ident := range s.byEmail {
		if ident.ID == id {
			return ident, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *identityStore) CreateSession(context.Context, string, int64, time.Time, string, string) error {
	return nil
}

func (s *identityStore) DeleteSession(context.Context, string) error { return nil }

type profileStore struct {
	byID map[int64]*profiles.Profile
}

func (s *profileStore) GetByID(_ context.Context, id int64) (*profiles.Profile, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, profiles.ErrNotFound
}

func (s *profileStore) GetByEmail(_ context.Context, email string) (*profiles.Profile, error) {
	for _, p := range s.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, profiles.ErrNotFound
}

func (s *profileStore) Create(_ context.Context, p profiles.Profile) (*profiles.Profile, error) {
	s.byID[p.ID] = &p
	return &p, nil
}

func (s *profileStore) SetActive(context.Context, int64, bool) error { return nil }

func (s *profileStore) SetRole(context.Context, int64, authz.Role) error { return nil }

func (s *profileStore) List(context.Context) ([]profiles.Profile, error) { return nil, nil }

// newAuthAPI wires the real middleware chain and auth routes over
// miniredis, the way cmd/meridian does against Redis.
func newAuthAPI(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "meridian_session", "test-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse1"), bcrypt.MinCost)
	require.NoError(t, err)
	idents := &identityStore{byEmail: map[string]*auth.Identity{
		"dana@example.com": {ID: 7, Email: "dana@example.com", PasswordHash: string(hash), IsActive: true},
	}}
	profs := &profileStore{byID: map[int64]*profiles.Profile{
		7: {ID: 7, Email: "dana@example.com", Role: authz.RoleManagement, IsActive: true},
	}}

	authorizer := auth.NewAuthorizer(idents, profs, auth.DefaultRoleForNewProfile(authz.RoleManagement), logger, nil)
	handler := auth.NewHandler(logger, auth.NewService(idents), authorizer, sessions, csrf)

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}
	r.Route("/auth", handler.MountRoutes)
	return r
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "meridian_session" {
			return c
		}
	}
	return nil
}

func TestLoginWithoutCSRFTokenIsRefused(t *testing.T) {
	api := newAuthAPI(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"dana@example.com","password":"correct-horse1"}`))
	api.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFIssueThenLogin(t *testing.T) {
	api := newAuthAPI(t)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/csrf", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	require.NotEmpty(t, issued.Token)

	before := sessionCookie(t, rec)
	require.NotNil(t, before, "token issuance must establish a session cookie")

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"dana@example.com","password":"correct-horse1"}`))
	req.AddCookie(before)
	req.Header.Set("X-CSRF-Token", issued.Token)
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Login rotates the session ID: the pre-login cookie must not name
	// the authenticated session.
	after := sessionCookie(t, rec)
	require.NotNil(t, after)
	assert.NotEqual(t, before.Value, after.Value)

	// The rotated cookie carries the authenticated session.
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(after)
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "dana@example.com")

	// The stale pre-login cookie stays anonymous.
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(before)
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
