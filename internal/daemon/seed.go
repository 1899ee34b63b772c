package daemon

import (
	"gorm.io/gorm"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/config"
	"github.com/campushub/portal/internal/db/models"
)

func seed(_ *config.Config, db *gorm.DB) {
	// Seed the main admin if the user table is empty.
	// The mainadmin role bypasses the permission map, so no
	// admin_permissions rows are needed for the first account.

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count == 0 {
		// change the password right after the first sign-in
		db.Create(
			&models.User{
				Username:    "admin",
				Email:       "admin@localhost",
				Password:    models.HashPassword("changeme"),
				DisplayName: "Main Admin",
				Active:      true,
				Role:        auth.RoleMainAdmin.String(),
				AuthSource:  models.AuthSourceLocal,
			},
		)
	}
}
