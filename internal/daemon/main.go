// Package daemon assembles the portal: database, session storage, the
// permission service and the web service.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/config"
	"github.com/campushub/portal/internal/db/dsn"
	"github.com/campushub/portal/internal/db/models"
	"github.com/campushub/portal/internal/store"
	"github.com/campushub/portal/internal/web"
	"github.com/campushub/portal/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db := openDB(cfg)

	if err := db.AutoMigrate(
		&models.User{},
		&models.AdminPermission{},
		&models.Event{},
	); err != nil {
		panic("failed to migrate database")
	}

	seed(cfg, db)

	// session storage: mysql in production, in-memory in dev mode
	if cfg.DevMode || cfg.DB.GormEngine == "sqlite" {
		session.Init(nil)
	} else {
		session.Init(sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		}))
	}

	// permission pipeline: store -> cache -> service
	permStore := store.New(db)
	authService := auth.NewService(permStore, auth.NewCache())

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, authService, permStore),
	}
}

// openDB opens the configured database engine with gorm.
func openDB(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.Name)
	default:
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	return db
}
