package models

import (
	"time"

	"github.com/google/uuid"
)

type RoleType string

const (
	RoleAdmin           RoleType = "admin"
	RoleLandlord        RoleType = "landlord"
	RolePropertyManager RoleType = "propertymanager"
	RoleTenant          RoleType = "tenant"
	RoleVendor          RoleType = "vendor"
)

// User is an authenticated account. Role decides which association sets
// (owned properties, managed properties, tenancies) are meaningful for it.
type User struct {
	Versioned

	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        RoleType  `json:"role"`
	IsActive    bool      `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) GetID() string {
	return u.ID.String()
}
