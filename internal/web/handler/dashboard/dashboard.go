// Package dashboard provides the signed-in landing page: the member's
// profile summary and the admin navigation filtered by the resolver.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/config"
	"github.com/campushub/portal/internal/web/handler"
	authmw "github.com/campushub/portal/internal/web/middleware/auth"
	"github.com/campushub/portal/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.DashboardPath
)

// Service is the dashboard handler service.
type Service struct {
	cfg     *config.Config
	db      *gorm.DB
	authSvc *auth.Service
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authSvc *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.authSvc = authSvc

	app.Get(Path, authmw.RouteGuard(authSvc), s.Get)
}

// Get renders the dashboard payload. The admin navigation is filtered
// with the same resolver the route guard uses, so no entry is shown that
// the guard would then bounce.
func (s *Service) Get(c *fiber.Ctx) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		// the route guard already bounced anonymous requests
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	role := auth.ParseRole(user.Role)

	var adminNav []navigation.Item

	if role.IsAdmin() {
		perms := auth.PermissionMap{}

		if role == auth.RoleAdmin {
			fetched, err := s.authSvc.Permissions(c.Context(), user.ActorID())
			if err != nil {
				// nav falls back to empty, the guard stays authoritative
				log.Error().Err(err).Str("actor", user.ActorID()).
					Msg("failed to load permissions for dashboard nav")
			} else {
				perms = fetched
			}
		}

		adminNav = navigation.Filter(role, perms)
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"username":    user.Username,
			"displayName": user.DisplayName,
			"role":        role.String(),
		},
		"adminNav": adminNav,
		// reason carried by a deny redirect, shown by the frontend
		"error": c.Query("error"),
	})
}
