package models

import "github.com/google/uuid"

// Tenancy links a tenant account to a leased unit on a property.
type Tenancy struct {
	PropertyID uuid.UUID `json:"property_id"`
	UnitID     uuid.UUID `json:"unit_id"`
}

// Principal is the authenticated actor an operation runs on behalf of:
// its role plus the property/unit association sets that scope what it may
// touch. Assembled fresh per request by the identity service and treated
// as immutable for the duration of a single operation.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Role RoleType  `json:"role"`

	// Populated according to role: owned for landlords, managed for
	// property managers, tenancies for tenants. Admins carry none and
	// are unrestricted; vendors carry none and reach requests only via
	// explicit assignment or a public link.
	OwnedPropertyIDs   []uuid.UUID `json:"owned_property_ids,omitempty"`
	ManagedPropertyIDs []uuid.UUID `json:"managed_property_ids,omitempty"`
	Tenancies          []Tenancy   `json:"tenancies,omitempty"`
}

func (p *Principal) OwnsProperty(propertyID uuid.UUID) bool {
	for _, id := range p.OwnedPropertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}

func (p *Principal) ManagesProperty(propertyID uuid.UUID) bool {
	for _, id := range p.ManagedPropertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}

func (p *Principal) HasTenancyInProperty(propertyID uuid.UUID) bool {
	for _, t := range p.Tenancies {
		if t.PropertyID == propertyID {
			return true
		}
	}
	return false
}

func (p *Principal) HasTenancyForUnit(unitID uuid.UUID) bool {
	for _, t := range p.Tenancies {
		if t.UnitID == unitID {
			return true
		}
	}
	return false
}
