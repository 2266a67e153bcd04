package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/repositories"
)

// IdentityService assembles a Principal from the stored account and its
// association sets. It is a read-through boundary: every call loads fresh
// state, no caching, no business logic beyond assembly.
type IdentityService struct {
	userRepo    repositories.UserRepository
	propRepo    repositories.PropertyRepository
	tenancyRepo repositories.TenancyRepository
}

func NewIdentityService(
	userRepo repositories.UserRepository,
	propRepo repositories.PropertyRepository,
	tenancyRepo repositories.TenancyRepository,
) *IdentityService {
	return &IdentityService{
		userRepo:    userRepo,
		propRepo:    propRepo,
		tenancyRepo: tenancyRepo,
	}
}

// GetPrincipal loads the account and only the association set its role
// needs. Returns utils-style nil for a missing account so callers can
// treat a stale JWT subject as unauthorized rather than a server error.
func (s *IdentityService) GetPrincipal(ctx context.Context, userID uuid.UUID) (*models.Principal, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}

	p := &models.Principal{
		ID:   user.ID,
		Role: user.Role,
	}

	switch user.Role {
	case models.RoleLandlord:
		ids, err := s.propRepo.ListIDsByOwnerID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("loading owned properties: %w", err)
		}
		p.OwnedPropertyIDs = ids
	case models.RolePropertyManager:
		ids, err := s.propRepo.ListIDsByManagerID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("loading managed properties: %w", err)
		}
		p.ManagedPropertyIDs = ids
	case models.RoleTenant:
		tenancies, err := s.tenancyRepo.ListByTenantID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("loading tenancies: %w", err)
		}
		p.Tenancies = tenancies
	}

	return p, nil
}
