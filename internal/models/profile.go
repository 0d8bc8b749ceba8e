package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the business details shown on the dashboard header.
type Profile struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	DisplayName  string    `db:"display_name"`
	BusinessName string    `db:"business_name"`
	Phone        string    `db:"phone"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
