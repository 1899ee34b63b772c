// Package events implements the admin event management endpoints,
// gated by the manageEvents feature.
package events

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/config"
	"github.com/campushub/portal/internal/db/models"
	"github.com/campushub/portal/internal/web/handler"
	authmw "github.com/campushub/portal/internal/web/middleware/auth"
)

const (
	// Path is the path to the admin event management page.
	Path = "/admin/events"
)

// CreateRequest is the body for creating an event.
type CreateRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	Location    string    `json:"location" validate:"max=200"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt" validate:"required,gtefield=StartsAt"`
}

// Service is the admin events handler service.
type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	validate *validator.Validate
}

// Handler is the admin events handler.
var Handler = Service{}

// Init initializes the admin events handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authSvc *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validate = validator.New()

	app.Get(Path, authmw.RequireFeature(authSvc, auth.FeatureManageEvents), s.List)
	app.Post(Path, authmw.RequireFeature(authSvc, auth.FeatureManageEvents), s.Create)
	app.Delete(Path+"/:id", authmw.RequireFeature(authSvc, auth.FeatureManageEvents), s.Delete)
}

// List returns every event, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	var events []models.Event

	if err := s.db.WithContext(c.Context()).
		Order("starts_at DESC").Find(&events).Error; err != nil {
		log.Error().Err(err).Msg("failed to list events")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load events",
		})
	}

	return c.JSON(fiber.Map{"events": events})
}

// Create adds a new event.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(CreateRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed request",
		})
	}

	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title and a valid time range are required",
		})
	}

	event := models.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}

	if user := authmw.CurrentUser(c); user != nil {
		event.CreatedBy = user.ActorID()
	}

	if err := s.db.WithContext(c.Context()).Create(&event).Error; err != nil {
		log.Error().Err(err).Msg("failed to create event")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create event",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

// Delete removes an event by ID.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid event id",
		})
	}

	result := s.db.WithContext(c.Context()).Delete(&models.Event{}, id)
	if result.Error != nil {
		log.Error().Err(result.Error).Int("id", id).Msg("failed to delete event")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete event",
		})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "event not found",
		})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
