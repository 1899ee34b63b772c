package login

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/config"
	"github.com/campushub/portal/internal/web/handler"
	"github.com/campushub/portal/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"
)

// Credentials is the sign-in request body (form or JSON).
type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	OTPCode  string `json:"otpCode" form:"otpCode"`
}

// Service is the login handler service.
type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	local *auth.LocalProvider
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.db = db
	s.cfg = cfg
	s.local = auth.NewLocalProvider(db)

	// register routes
	app.Get(Path, s.Get)
	app.Post(Path, s.Post)

	return nil
}

// Get describes the enabled sign-in methods so the frontend can render
// the right form.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"localDBEnabled": s.cfg.Auth.LocalDB.Enabled,
		"oidcEnabled":    s.cfg.Auth.OIDC.Enabled,
	})
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	if !s.cfg.Auth.LocalDB.Enabled {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "local sign-in is disabled",
		})
	}

	creds := new(Credentials)
	if err := c.BodyParser(creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed request",
		})
	}

	user, err := s.local.Authenticate(creds.Username, creds.Password, creds.OTPCode)
	if err != nil {
		return s.failedLogin(c, err)
	}

	sessionID := session.GenerateSessionID()

	userSession := &session.Data{
		User: *user,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	// set login cookie
	cookieSettings := &fiber.Cookie{
		Name:     "session",
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return c.Redirect(returnPath(c))
}

// failedLogin maps an authentication error onto a response without
// leaking which part of the credentials was wrong.
func (s *Service) failedLogin(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrTOTPCodeRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":       "one-time code required",
			"otpRequired": true,
		})
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "account is disabled",
		})
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrInvalidPassword),
		errors.Is(err, auth.ErrInvalidTOTPCode):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid username or password",
		})
	default:
		log.Error().Err(err).Msg("login failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

// returnPath picks the post-login destination: the preserved original
// location when the guard sent the user here, the dashboard otherwise.
// Only portal-relative paths are accepted to keep the redirect on-site.
func returnPath(c *fiber.Ctx) string {
	next := c.Query("next")
	if next == "" {
		next = c.FormValue("next")
	}

	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}

	return handler.DashboardPath
}
