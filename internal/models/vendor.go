package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is an external service company that can be assigned to a
// maintenance request. Rating aggregation happens outside this service;
// we only carry the stored aggregate for display.
type Vendor struct {
	Versioned

	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Services    []string  `json:"services,omitempty"`
	RatingAvg   float64   `json:"rating_avg"`
	RatingCount int       `json:"rating_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vendor) GetID() string {
	return v.ID.String()
}
