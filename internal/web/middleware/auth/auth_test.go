package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/db/models"
	"github.com/campushub/portal/internal/web/handler"
	"github.com/campushub/portal/internal/web/handler/login"
	"github.com/campushub/portal/internal/web/session"
)

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, errors.New("key not found")
	}

	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

// memStore is an in-memory PermissionStore for the guard tests.
type memStore struct {
	records map[string]auth.AdminRecord
	fail    error
}

func (m *memStore) GetAdminRecord(_ context.Context, actorID string) (auth.AdminRecord, error) {
	if m.fail != nil {
		return auth.AdminRecord{}, m.fail
	}

	rec, ok := m.records[actorID]
	if !ok {
		return auth.AdminRecord{}, auth.ErrRecordNotFound
	}

	return rec, nil
}

func (m *memStore) SetAdminPermissions(_ context.Context, actorID string, perms auth.PermissionMap) error {
	rec := m.records[actorID]
	rec.Permissions = perms
	m.records[actorID] = rec

	return nil
}

// newGuardedApp wires the session middleware and the route guard in
// front of a handful of admin routes, mirroring the daemon setup.
func newGuardedApp(svc *auth.Service) *fiber.App {
	app := fiber.New()

	app.Use(Middleware)
	app.Use("/admin", RouteGuard(svc))

	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }

	app.Get(login.Path, ok)
	app.Get(handler.DashboardPath, ok)
	app.Get("/admin/events", ok)
	app.Get("/admin/galleries", ok)
	app.Get("/admin/permissions", ok)
	app.Get("/admin/legacy-page", ok)

	return app
}

// signIn writes a session for the user and returns the cookie value.
func signIn(t *testing.T, user models.User) string {
	t.Helper()

	sessionID := session.GenerateSessionID()
	data := &session.Data{User: user}
	require.NoError(t, data.Write(sessionID, time.Minute))

	return sessionID
}

func get(t *testing.T, app *fiber.App, target, sessionID string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: sessionID})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err, "app.Test failed")

	return resp
}

func setupGuardTest(t *testing.T, store *memStore) *fiber.App {
	t.Helper()

	session.Init(&testStorage{data: make(map[string][]byte)})

	return newGuardedApp(auth.NewService(store, auth.NewCache()))
}

func TestRouteGuard_GrantedAdminReachesRoute(t *testing.T) {
	store := &memStore{records: map[string]auth.AdminRecord{
		"17": {Role: auth.RoleAdmin, Permissions: auth.PermissionMap{auth.FeatureManageEvents: true}},
	}}
	app := setupGuardTest(t, store)

	cookie := signIn(t, models.User{ID: 17, Username: "alice", Role: "admin"})

	resp := get(t, app, "/admin/events", cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouteGuard_UngrantedAdminRedirectedToDashboard(t *testing.T) {
	store := &memStore{records: map[string]auth.AdminRecord{
		"17": {Role: auth.RoleAdmin, Permissions: auth.PermissionMap{auth.FeatureManageEvents: true}},
	}}
	app := setupGuardTest(t, store)

	cookie := signIn(t, models.User{ID: 17, Username: "alice", Role: "admin"})

	resp := get(t, app, "/admin/galleries", cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode)

	loc := resp.Header.Get("Location")
	assert.Equal(t, handler.DashboardPath+"?error="+url.QueryEscape(handler.PermissionDeniedMsg), loc)
}

func TestRouteGuard_AnonymousRedirectedToLoginWithNext(t *testing.T) {
	app := setupGuardTest(t, &memStore{records: map[string]auth.AdminRecord{}})

	resp := get(t, app, "/admin/events", "")
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, login.Path+"?next="+url.QueryEscape("/admin/events"), resp.Header.Get("Location"))
}

func TestRouteGuard_MainAdminReachesEverything(t *testing.T) {
	// no permission record exists on purpose; the role alone decides
	app := setupGuardTest(t, &memStore{records: map[string]auth.AdminRecord{}})

	cookie := signIn(t, models.User{ID: 1, Username: "root", Role: "mainadmin"})

	for _, route := range []string{"/admin/events", "/admin/galleries", "/admin/permissions"} {
		resp := get(t, app, route, cookie)

		assert.Equal(t, http.StatusOK, resp.StatusCode, "mainadmin must reach %s", route)

		_ = resp.Body.Close()
	}
}

func TestRouteGuard_PermissionConsoleClosedToDelegatedAdmin(t *testing.T) {
	store := &memStore{records: map[string]auth.AdminRecord{
		"17": {Role: auth.RoleAdmin, Permissions: auth.PermissionMap{auth.FeatureAdminPermissions: true}},
	}}
	app := setupGuardTest(t, store)

	cookie := signIn(t, models.User{ID: 17, Username: "alice", Role: "admin"})

	resp := get(t, app, "/admin/permissions", cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), handler.DashboardPath)
}

func TestRouteGuard_UserRedirectedOffMappedAdminRoute(t *testing.T) {
	app := setupGuardTest(t, &memStore{records: map[string]auth.AdminRecord{}})

	cookie := signIn(t, models.User{ID: 42, Username: "bob", Role: "user"})

	resp := get(t, app, "/admin/events", cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode,
		"a plain user must be denied, not left waiting on a fetch that never happens")
	assert.Equal(t, handler.DashboardPath+"?error="+url.QueryEscape(handler.PermissionDeniedMsg),
		resp.Header.Get("Location"))
}

func TestRouteGuard_UnmappedAdminRouteStaysOpen(t *testing.T) {
	app := setupGuardTest(t, &memStore{records: map[string]auth.AdminRecord{}})

	cookie := signIn(t, models.User{ID: 42, Username: "bob", Role: "user"})

	resp := get(t, app, "/admin/legacy-page", cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouteGuard_FetchFailureDeniesInsteadOfErroring(t *testing.T) {
	store := &memStore{fail: errors.New("store down")}
	app := setupGuardTest(t, store)

	cookie := signIn(t, models.User{ID: 17, Username: "alice", Role: "admin"})

	resp := get(t, app, "/admin/events", cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode, "a failed fetch must deny, not 500")
	assert.Contains(t, resp.Header.Get("Location"), handler.DashboardPath)
}

func TestRouteGuard_DashboardStaysUpWhenStoreIsDown(t *testing.T) {
	// the dashboard is the landing page for denied admins; it sits
	// behind the guard itself, so it must not consult the store or the
	// denial redirect would loop back onto it
	store := &memStore{fail: errors.New("store down")}
	session.Init(&testStorage{data: make(map[string][]byte)})

	svc := auth.NewService(store, auth.NewCache())

	app := fiber.New()
	app.Use(Middleware)
	app.Get(handler.DashboardPath, RouteGuard(svc), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	cookie := signIn(t, models.User{ID: 17, Username: "alice", Role: "admin"})

	resp := get(t, app, handler.DashboardPath, cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddleware_SignedInUserLeavesLoginPage(t *testing.T) {
	app := setupGuardTest(t, &memStore{records: map[string]auth.AdminRecord{}})

	cookie := signIn(t, models.User{ID: 42, Username: "bob", Role: "user"})

	resp := get(t, app, login.Path, cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.DashboardPath, resp.Header.Get("Location"))
}

func TestMiddleware_UnknownSessionIsAnonymous(t *testing.T) {
	app := setupGuardTest(t, &memStore{records: map[string]auth.AdminRecord{}})

	resp := get(t, app, "/admin/events", "bogus-session-id")
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), login.Path)
}

func TestRequireFeature(t *testing.T) {
	session.Init(&testStorage{data: make(map[string][]byte)})

	store := &memStore{records: map[string]auth.AdminRecord{
		"17": {Role: auth.RoleAdmin, Permissions: auth.PermissionMap{auth.FeatureManageEvents: true}},
	}}
	svc := auth.NewService(store, auth.NewCache())

	app := fiber.New()
	app.Use(Middleware)
	app.Get("/api/events", RequireFeature(svc, auth.FeatureManageEvents), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/api/galleries", RequireFeature(svc, auth.FeatureGalleries), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// anonymous
	resp := get(t, app, "/api/events", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	cookie := signIn(t, models.User{ID: 17, Username: "alice", Role: "admin"})

	// granted
	resp = get(t, app, "/api/events", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// not granted
	resp = get(t, app, "/api/galleries", cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRequireMainAdmin(t *testing.T) {
	session.Init(&testStorage{data: make(map[string][]byte)})

	app := fiber.New()
	app.Use(Middleware)
	app.Get("/api/permissions", RequireMainAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp := get(t, app, "/api/permissions", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	adminCookie := signIn(t, models.User{ID: 17, Username: "alice", Role: "admin"})
	resp = get(t, app, "/api/permissions", adminCookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	mainCookie := signIn(t, models.User{ID: 1, Username: "root", Role: "mainadmin"})
	resp = get(t, app, "/api/permissions", mainCookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}
