package models

import "time"

// AdminPermission is one delegated feature grant for one admin actor.
// The set of rows for an actor forms its permission map; a feature with
// no row is not granted. Rows are written only through the permission
// console and only by the main admin.
type AdminPermission struct {
	// ActorID is the opaque actor identifier the grant belongs to.
	ActorID string `gorm:"primaryKey;size:64;column:actor_id"`
	// Feature is the feature ID from the closed feature set.
	Feature string `gorm:"primaryKey;size:64"`
	// Granted is the explicit grant flag. Only true grants.
	Granted bool
	// UpdatedAt is the timestamp of the last change (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the AdminPermission model.
// This overrides GORM's default pluralized table naming.
func (AdminPermission) TableName() string {
	return "admin_permissions"
}
