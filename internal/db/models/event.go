package models

import "time"

// Event represents a portal event shown on the public events page and
// managed through the admin console behind the manageEvents feature.
type Event struct {
	// ID is the unique identifier for the event.
	ID uint64 `gorm:"primaryKey"`
	// Title is the event headline.
	Title string `gorm:"size:200;not null"`
	// Description is the full event text.
	Description string `gorm:"type:text"`
	// Location names where the event takes place.
	Location string `gorm:"size:200"`
	// StartsAt is when the event begins.
	StartsAt time.Time
	// EndsAt is when the event ends.
	EndsAt time.Time
	// CreatedBy is the actor ID of the admin who created the event.
	CreatedBy string `gorm:"size:64"`
	// CreatedAt is the timestamp when the event was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the event was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Event model.
func (Event) TableName() string {
	return "events"
}
