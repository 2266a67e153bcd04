package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/access"
	"github.com/propflow/maintenance-service/internal/dtos"
	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/repositories"
	"github.com/propflow/maintenance-service/internal/utils"
)

// RequestService owns the maintenance-request lifecycle: creation, the
// status state machine, assignment and field edits. Every mutation is
// gated by the access policy and applied through a compare-and-swap
// repository write, so a denied or stale operation leaves the row
// untouched.
type RequestService struct {
	reqRepo    repositories.RequestRepository
	propRepo   repositories.PropertyRepository
	unitRepo   repositories.UnitRepository
	userRepo   repositories.UserRepository
	vendorRepo repositories.VendorRepository
	clock      Clock
}

func NewRequestService(
	reqRepo repositories.RequestRepository,
	propRepo repositories.PropertyRepository,
	unitRepo repositories.UnitRepository,
	userRepo repositories.UserRepository,
	vendorRepo repositories.VendorRepository,
	clock Clock,
) *RequestService {
	if clock == nil {
		clock = SystemClock
	}
	return &RequestService{
		reqRepo:    reqRepo,
		propRepo:   propRepo,
		unitRepo:   unitRepo,
		userRepo:   userRepo,
		vendorRepo: vendorRepo,
		clock:      clock,
	}
}

// conflictErr converts the repository's CAS failure into the typed
// conflict error carrying the latest row for the client.
func conflictErr(latest *models.MaintenanceRequest, err error) error {
	if errors.Is(err, utils.ErrRowVersionConflict) && latest != nil {
		return utils.NewRowVersionConflictError(latest)
	}
	return err
}

// CreateRequest validates the target property/unit, gates on the create
// permission and persists a NEW request.
func (s *RequestService) CreateRequest(
	ctx context.Context,
	principal *models.Principal,
	payload dtos.CreateRequestPayload,
) (*models.MaintenanceRequest, error) {
	prop, err := s.propRepo.GetByID(ctx, payload.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, fmt.Errorf("%w: property %s does not exist", utils.ErrValidation, payload.PropertyID)
	}

	if payload.UnitID != nil {
		unit, err := s.unitRepo.GetByID(ctx, *payload.UnitID)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, fmt.Errorf("%w: unit %s does not exist", utils.ErrValidation, *payload.UnitID)
		}
		if unit.PropertyID != payload.PropertyID {
			return nil, fmt.Errorf("%w: unit %s is not part of property %s", utils.ErrValidation, unit.ID, payload.PropertyID)
		}
	}

	req := &models.MaintenanceRequest{
		ID:          uuid.New(),
		PropertyID:  payload.PropertyID,
		UnitID:      payload.UnitID,
		Status:      models.RequestStatusNew,
		Priority:    models.PriorityType(payload.Priority),
		Category:    payload.Category,
		Title:       payload.Title,
		Description: payload.Description,
		CreatedBy:   principal.ID,
		MediaURLs:   payload.MediaURLs,
	}

	if !access.CanPerform(access.ActionCreate, principal, req) {
		return nil, utils.ErrPermissionDenied
	}

	if err := s.reqRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return s.reqRepo.GetByID(ctx, req.ID)
}

// GetRequest returns the request if the principal may read it.
func (s *RequestService) GetRequest(
	ctx context.Context,
	principal *models.Principal,
	id uuid.UUID,
) (*models.MaintenanceRequest, error) {
	req, err := s.reqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, utils.ErrNotFound
	}
	if !access.CanRead(principal, req) {
		return nil, utils.ErrPermissionDenied
	}
	return req, nil
}

// ListFilter holds the caller-supplied narrowing; access scope is layered
// on top from the principal's association sets.
type ListFilter struct {
	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	Status     *models.RequestStatusType
	AssigneeID *uuid.UUID
}

// ListRequests returns the requests visible to the principal, narrowed by
// the filter. Vendors see only requests assigned to them.
func (s *RequestService) ListRequests(
	ctx context.Context,
	principal *models.Principal,
	filter ListFilter,
) ([]*models.MaintenanceRequest, error) {
	repoFilter := repositories.RequestFilter{
		UnitID:     filter.UnitID,
		Status:     filter.Status,
		AssigneeID: filter.AssigneeID,
	}

	switch principal.Role {
	case models.RoleAdmin:
		repoFilter.Unscoped = true
	case models.RoleLandlord:
		repoFilter.PropertyIDs = principal.OwnedPropertyIDs
	case models.RolePropertyManager:
		repoFilter.PropertyIDs = principal.ManagedPropertyIDs
	case models.RoleTenant:
		for _, t := range principal.Tenancies {
			repoFilter.PropertyIDs = append(repoFilter.PropertyIDs, t.PropertyID)
		}
	case models.RoleVendor:
		repoFilter.Unscoped = true
		repoFilter.AssigneeID = &principal.ID
	default:
		return []*models.MaintenanceRequest{}, nil
	}

	if filter.PropertyID != nil {
		if !repoFilter.Unscoped && !containsID(repoFilter.PropertyIDs, *filter.PropertyID) {
			return []*models.MaintenanceRequest{}, nil
		}
		repoFilter.Unscoped = false
		repoFilter.PropertyIDs = []uuid.UUID{*filter.PropertyID}
	}

	out, err := s.reqRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	// Tenants are scoped per unit, not per property: drop unit-scoped
	// rows for units they do not lease.
	if principal.Role == models.RoleTenant {
		visible := out[:0]
		for _, req := range out {
			if req.UnitID == nil || principal.HasTenancyForUnit(*req.UnitID) {
				visible = append(visible, req)
			}
		}
		out = visible
	}
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// TransitionStatus applies a status change. Guard order is fixed:
// permission, then graph edge, then version check inside the CAS write.
// ASSIGNED is never a direct target here; that edge only fires through
// Assign.
func (s *RequestService) TransitionStatus(
	ctx context.Context,
	principal *models.Principal,
	id uuid.UUID,
	target models.RequestStatusType,
	expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	req, err := s.reqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, utils.ErrNotFound
	}

	action := access.ActionForTargetStatus(target)
	if !access.CanPerform(action, principal, req) {
		return nil, utils.ErrPermissionDenied
	}

	if target == models.RequestStatusAssigned {
		return nil, fmt.Errorf("%w: assignment is performed through the assign operation", utils.ErrInvalidTransition)
	}
	if !models.CanTransition(req.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", utils.ErrInvalidTransition, req.Status, target)
	}

	updated, err := s.reqRepo.TransitionStatusAtomic(ctx, id, target, expectedVersion)
	if err != nil {
		return nil, conflictErr(updated, err)
	}
	if updated == nil {
		return nil, utils.ErrNoRowsUpdated
	}
	return updated, nil
}

// EditRequest updates the mutable descriptive fields. Terminal requests
// stay frozen apart from reads and comments.
func (s *RequestService) EditRequest(
	ctx context.Context,
	principal *models.Principal,
	id uuid.UUID,
	payload dtos.EditRequestPayload,
) (*models.MaintenanceRequest, error) {
	req, err := s.reqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, utils.ErrNotFound
	}

	if !access.CanPerform(access.ActionEdit, principal, req) {
		return nil, utils.ErrPermissionDenied
	}
	if models.IsTerminalStatus(req.Status) {
		return nil, fmt.Errorf("%w: request is %s", utils.ErrInvalidTransition, req.Status)
	}

	patch := repositories.RequestPatch{
		Category:    payload.Category,
		Title:       payload.Title,
		Description: payload.Description,
		MediaURLs:   payload.MediaURLs,
	}
	if payload.Priority != nil {
		p := models.PriorityType(*payload.Priority)
		patch.Priority = &p
	}

	updated, err := s.reqRepo.UpdateFieldsAtomic(ctx, id, patch, payload.RowVersion)
	if err != nil {
		return nil, conflictErr(updated, err)
	}
	if updated == nil {
		return nil, utils.ErrNoRowsUpdated
	}
	return updated, nil
}
