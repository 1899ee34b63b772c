package login

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/config"
	"github.com/campushub/portal/internal/db/models"
	"github.com/campushub/portal/internal/web/handler"
	websess "github.com/campushub/portal/internal/web/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate user model: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
		Auth: config.Auth{
			LocalDB: config.LocalDBAuth{Enabled: true},
			OIDC:    config.OIDCAuth{Enabled: false},
		},
	}
}

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string][]byte)
	}

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

func initSessionStore() {
	// Initialize a fresh in-memory session store for each test.
	websess.Init(&testStorage{data: make(map[string][]byte)})
}

func performPost(t *testing.T, app *fiber.App, target string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func TestPost_Success_SetsCookieAndRedirects(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.DevMode = false // Secure cookie expected

	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	lp := auth.NewLocalProvider(db)
	if _, err := lp.CreateUser("bob", "bob@campushub.example", "s3cr3t", "Bob", auth.RoleUser); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	form := url.Values{
		"username": {"bob"},
		"password": {"s3cr3t"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	if loc := resp.Header.Get("Location"); loc != handler.DashboardPath {
		t.Fatalf("expected redirect to %s, got %s", handler.DashboardPath, loc)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, "session=") {
		t.Fatalf("expected session cookie, got %q", setCookie)
	}

	if !strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("expected Secure flag on cookie when DevMode=false, got %q", setCookie)
	}
}

func TestPost_DevModeDisablesSecureCookie(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.DevMode = true

	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	lp := auth.NewLocalProvider(db)
	if _, err := lp.CreateUser("carol", "carol@campushub.example", "pass", "Carol", auth.RoleUser); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	form := url.Values{
		"username": {"carol"},
		"password": {"pass"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("did not expect Secure flag when DevMode=true, got %q", setCookie)
	}
}

func TestPost_NextParameterPreserved(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	lp := auth.NewLocalProvider(db)
	if _, err := lp.CreateUser("dana", "dana@campushub.example", "pw", "Dana", auth.RoleAdmin); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	form := url.Values{
		"username": {"dana"},
		"password": {"pw"},
	}

	// the guard preserved the originally requested location in next
	resp := performPost(t, app, Path+"?next="+url.QueryEscape("/admin/events"), form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if loc := resp.Header.Get("Location"); loc != "/admin/events" {
		t.Fatalf("expected redirect to /admin/events, got %s", loc)
	}
}

func TestPost_OffsiteNextRejected(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	lp := auth.NewLocalProvider(db)
	if _, err := lp.CreateUser("eve", "eve@campushub.example", "pw", "Eve", auth.RoleUser); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	form := url.Values{
		"username": {"eve"},
		"password": {"pw"},
	}

	for _, next := range []string{"//evil.example", "https://evil.example"} {
		resp := performPost(t, app, Path+"?next="+url.QueryEscape(next), form)

		if loc := resp.Header.Get("Location"); loc != handler.DashboardPath {
			t.Fatalf("next=%q: expected redirect to %s, got %s", next, handler.DashboardPath, loc)
		}

		_ = resp.Body.Close()
	}
}

func TestPost_WrongPassword(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	lp := auth.NewLocalProvider(db)
	if _, err := lp.CreateUser("frank", "frank@campushub.example", "right", "Frank", auth.RoleUser); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	form := url.Values{
		"username": {"frank"},
		"password": {"wrong"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(bodyBytes), "invalid username or password") {
		t.Fatalf("expected generic credentials error, got %q", string(bodyBytes))
	}
}

func TestPost_SecondFactorRequired(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	lp := auth.NewLocalProvider(db)

	user, err := lp.CreateUser("grace", "grace@campushub.example", "pw", "Grace", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	user.TOTPSecret = "JBSWY3DPEHPK3PXP"
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("failed to enroll second factor: %v", err)
	}

	form := url.Values{
		"username": {"grace"},
		"password": {"pw"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	var body struct {
		OTPRequired bool `json:"otpRequired"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !body.OTPRequired {
		t.Fatalf("expected otpRequired flag so the frontend can prompt for the code")
	}
}

func TestPost_LocalDisabled(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.Auth.LocalDB.Enabled = false

	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	form := url.Values{
		"username": {"dave"},
		"password": {"whatever"},
	}
	resp := performPost(t, app, Path, form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 when local sign-in is disabled, got %d", resp.StatusCode)
	}
}

func TestGet_ReportsEnabledMethods(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, Path, nil)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	var body struct {
		LocalDBEnabled bool `json:"localDBEnabled"`
		OIDCEnabled    bool `json:"oidcEnabled"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !body.LocalDBEnabled || body.OIDCEnabled {
		t.Fatalf("expected localDB enabled and oidc disabled, got %+v", body)
	}
}
