// Package access holds the pure capability predicates for the
// maintenance-request domain. Every function here is deterministic over
// its inputs and performs no I/O, so the whole policy is unit-testable
// without a transport or storage layer.
package access

import (
	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/models"
)

// Action names an operation gated by the policy table in CanPerform.
type Action string

const (
	ActionCreate           Action = "create"
	ActionAdvanceStatus    Action = "advance_status"
	ActionVerify           Action = "verify"
	ActionReopen           Action = "reopen"
	ActionArchive          Action = "archive"
	ActionCancel           Action = "cancel"
	ActionAssign           Action = "assign"
	ActionEdit             Action = "edit"
	ActionManagePublicLink Action = "manage_public_link"
	ActionComment          Action = "comment"
)

// ActionForTargetStatus maps a requested target status to the action that
// gates it, so the transition endpoint needs no per-status special cases.
func ActionForTargetStatus(target models.RequestStatusType) Action {
	switch target {
	case models.RequestStatusAssigned:
		return ActionAssign
	case models.RequestStatusVerified:
		return ActionVerify
	case models.RequestStatusReopened:
		return ActionReopen
	case models.RequestStatusArchived:
		return ActionArchive
	case models.RequestStatusCanceled:
		return ActionCancel
	default:
		return ActionAdvanceStatus
	}
}

// HasRole reports whether the principal's role is one of the given roles.
func HasRole(p *models.Principal, roles ...models.RoleType) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// HasPropertyAccess decides property-level visibility. Vendors always get
// false here: they reach requests only through explicit assignment or a
// public link, never through property scope.
func HasPropertyAccess(p *models.Principal, propertyID uuid.UUID) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleLandlord:
		return p.OwnsProperty(propertyID)
	case models.RolePropertyManager:
		return p.ManagesProperty(propertyID)
	case models.RoleTenant:
		return p.HasTenancyInProperty(propertyID)
	default:
		return false
	}
}

// HasUnitAccess decides unit-level visibility. propertyID may be nil when
// the caller only knows the unit; landlord/manager checks then fall back
// to false since they are keyed on properties.
func HasUnitAccess(p *models.Principal, unitID uuid.UUID, propertyID *uuid.UUID) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleLandlord:
		return propertyID != nil && p.OwnsProperty(*propertyID)
	case models.RolePropertyManager:
		return propertyID != nil && p.ManagesProperty(*propertyID)
	case models.RoleTenant:
		return p.HasTenancyForUnit(unitID)
	default:
		return false
	}
}

// CanRead reports whether the principal may view the request (and
// therefore comment on it). Assignees may read regardless of property
// scope; that is the only non-link path a vendor has.
func CanRead(p *models.Principal, req *models.MaintenanceRequest) bool {
	if req.AssignedTo(p.ID) {
		return true
	}
	if req.UnitID != nil && p.Role == models.RoleTenant {
		return p.HasTenancyForUnit(*req.UnitID)
	}
	return HasPropertyAccess(p, req.PropertyID)
}

// managerFor is the common gate shared by transition, assignment and
// public-link management: a management role scoped to the request's
// property.
func managerFor(p *models.Principal, req *models.MaintenanceRequest) bool {
	if !HasRole(p, models.RoleAdmin, models.RoleLandlord, models.RolePropertyManager) {
		return false
	}
	return HasPropertyAccess(p, req.PropertyID)
}

// CanPerform is the action gate table. For ActionCreate the request value
// carries the target property/unit of the prospective request.
func CanPerform(action Action, p *models.Principal, req *models.MaintenanceRequest) bool {
	switch action {
	case ActionCreate:
		if !HasRole(p, models.RoleAdmin, models.RoleLandlord, models.RolePropertyManager, models.RoleTenant) {
			return false
		}
		if req.UnitID != nil {
			return HasUnitAccess(p, *req.UnitID, &req.PropertyID)
		}
		return HasPropertyAccess(p, req.PropertyID)

	case ActionAdvanceStatus, ActionVerify, ActionReopen, ActionArchive,
		ActionAssign, ActionManagePublicLink:
		return managerFor(p, req)

	case ActionCancel:
		// Only the creator or an admin, and only before any assignment;
		// the status graph restricts the edge to NEW.
		return p.Role == models.RoleAdmin || req.CreatedBy == p.ID

	case ActionEdit:
		if managerFor(p, req) {
			return true
		}
		return p.Role == models.RoleTenant && req.CreatedBy == p.ID

	case ActionComment:
		return CanRead(p, req)

	default:
		return false
	}
}
