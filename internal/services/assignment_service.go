package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/access"
	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/utils"
)

// Assign binds the request to exactly one assignee, internal user or
// vendor. Assigning an unassigned NEW request advances it to ASSIGNED in
// the same write. Reassignment is allowed until the work is completed.
func (s *RequestService) Assign(
	ctx context.Context,
	principal *models.Principal,
	id uuid.UUID,
	assigneeID uuid.UUID,
	kind models.AssigneeKindType,
	expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	req, err := s.reqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, utils.ErrNotFound
	}

	if !access.CanPerform(access.ActionAssign, principal, req) {
		return nil, utils.ErrPermissionDenied
	}

	if models.IsTerminalStatus(req.Status) {
		return nil, fmt.Errorf("%w: request is %s", utils.ErrInvalidTransition, req.Status)
	}
	if req.Status == models.RequestStatusCompleted || req.Status == models.RequestStatusVerified {
		return nil, fmt.Errorf("%w: cannot reassign after completion", utils.ErrInvalidTransition)
	}

	if !models.ValidAssigneeKind(kind) {
		return nil, fmt.Errorf("%w: unknown assignee kind %q", utils.ErrValidation, kind)
	}
	if err := s.validateAssignee(ctx, assigneeID, kind); err != nil {
		return nil, err
	}

	newStatus := req.Status
	if req.Status == models.RequestStatusNew {
		newStatus = models.RequestStatusAssigned
	}

	updated, err := s.reqRepo.AssignAtomic(ctx, id, assigneeID, kind, newStatus, expectedVersion)
	if err != nil {
		return nil, conflictErr(updated, err)
	}
	if updated == nil {
		return nil, utils.ErrNoRowsUpdated
	}
	return updated, nil
}

// validateAssignee checks the target of an assignment exists and is the
// right sort of account for the declared kind.
func (s *RequestService) validateAssignee(ctx context.Context, assigneeID uuid.UUID, kind models.AssigneeKindType) error {
	switch kind {
	case models.AssigneeKindInternalUser:
		user, err := s.userRepo.GetByID(ctx, assigneeID)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return fmt.Errorf("%w: internal user %s does not exist", utils.ErrValidation, assigneeID)
		}
		if user.Role == models.RoleTenant || user.Role == models.RoleVendor {
			return fmt.Errorf("%w: %s accounts cannot be internal assignees", utils.ErrValidation, user.Role)
		}
	case models.AssigneeKindVendor:
		vendor, err := s.vendorRepo.GetByID(ctx, assigneeID)
		if err != nil {
			return err
		}
		if vendor == nil {
			return fmt.Errorf("%w: vendor %s does not exist", utils.ErrValidation, assigneeID)
		}
	}
	return nil
}
