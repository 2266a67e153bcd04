package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit represents a tenant-addressable space on a property.
type Unit struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	UnitNumber string    `json:"unit_number"`
	CreatedAt  time.Time `json:"created_at"`
}
