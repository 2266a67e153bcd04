package models

import (
	"time"

	"github.com/google/uuid"
)

type Property struct {
	Versioned

	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	ManagerID    *uuid.UUID `json:"manager_id,omitempty"`
	PropertyName string     `json:"property_name"`
	Address      string     `json:"address"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	ZipCode      string     `json:"zip_code"`
	IsDemo       bool       `json:"is_demo"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Property) GetID() string {
	return p.ID.String()
}
