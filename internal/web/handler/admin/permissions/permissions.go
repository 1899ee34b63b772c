// Package permissions implements the permission console: the
// mainadmin-only pages for viewing and delegating admin feature
// permissions. Every save invalidates the affected actor's cache entry
// so the change is visible immediately, not after the TTL.
package permissions

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/config"
	"github.com/campushub/portal/internal/store"
	"github.com/campushub/portal/internal/web/handler"
	authmw "github.com/campushub/portal/internal/web/middleware/auth"
)

const (
	// Path is the path to the permission console.
	Path = "/admin/permissions"
)

// UpdateRequest is the body for saving one admin's permission map.
type UpdateRequest struct {
	ActorID     string          `json:"actorId" validate:"required"`
	Permissions map[string]bool `json:"permissions" validate:"required"`
}

// Service is the permission console handler service.
type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	store    *store.Store
	authSvc  *auth.Service
	validate *validator.Validate
}

// Handler is the permission console handler.
var Handler = Service{}

// Init initializes the permission console handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, st *store.Store, authSvc *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.store = st
	s.authSvc = authSvc
	s.validate = validator.New()

	// the console is never delegable: role check only, no permission map
	app.Get(Path, authmw.RequireMainAdmin(), s.List)
	app.Put(Path, authmw.RequireMainAdmin(), s.Update)
	app.Post(Path+"/cache/clear", authmw.RequireMainAdmin(), s.ClearCache)
}

// List returns every admin account with its permission map and the
// closed feature set the console renders checkboxes for.
func (s *Service) List(c *fiber.Ctx) error {
	records, err := s.store.ListAdminRecords(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list admin permission records")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load admin records",
		})
	}

	admins := make(map[string]fiber.Map, len(records))
	for actorID, rec := range records {
		admins[actorID] = fiber.Map{
			"role":        rec.Role.String(),
			"permissions": rec.Permissions,
		}
	}

	// delegable features only; adminPermissions has no checkbox
	features := []string{
		auth.FeatureManageEvents,
		auth.FeatureTeamProfiles,
		auth.FeatureNotifications,
		auth.FeatureGalleries,
		auth.FeatureSettings,
		auth.FeatureUserManagement,
		auth.FeatureFormTemplates,
		auth.FeatureUserRequests,
		auth.FeatureFeedback,
		auth.FeatureForumModeration,
		auth.FeatureUserWarnings,
	}

	return c.JSON(fiber.Map{
		"admins":    admins,
		"features":  features,
		"cacheSize": s.authSvc.CacheLen(),
	})
}

// Update saves a new permission map for one admin and invalidates its
// cache entry.
func (s *Service) Update(c *fiber.Ctx) error {
	req := new(UpdateRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed request",
		})
	}

	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "actorId and permissions are required",
		})
	}

	perms := auth.PermissionMap(req.Permissions)

	if err := s.authSvc.SetPermissions(c.Context(), req.ActorID, perms); err != nil {
		log.Error().Err(err).Str("actor", req.ActorID).Msg("failed to save permissions")

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to save permissions",
		})
	}

	log.Info().Str("actor", req.ActorID).Msg("admin permissions updated")

	return c.JSON(fiber.Map{"status": "ok"})
}

// ClearCache drops every cached permission map. Administrative escape
// hatch, mostly useful while debugging delegation issues.
func (s *Service) ClearCache(c *fiber.Ctx) error {
	s.authSvc.InvalidateAll()

	log.Info().Msg("permission cache cleared")

	return c.JSON(fiber.Map{"status": "ok"})
}
