package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/access"
	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/repositories"
	"github.com/propflow/maintenance-service/internal/utils"
)

// DirectoryService serves the lookup data assignment pickers need:
// vendors by service and units on a property.
type DirectoryService struct {
	vendorRepo repositories.VendorRepository
	unitRepo   repositories.UnitRepository
	propRepo   repositories.PropertyRepository
}

func NewDirectoryService(
	vendorRepo repositories.VendorRepository,
	unitRepo repositories.UnitRepository,
	propRepo repositories.PropertyRepository,
) *DirectoryService {
	return &DirectoryService{
		vendorRepo: vendorRepo,
		unitRepo:   unitRepo,
		propRepo:   propRepo,
	}
}

// ListVendors returns the vendors offering one service tag, best rated
// first. Limited to management roles; tenants and vendors have no use
// for the directory.
func (s *DirectoryService) ListVendors(
	ctx context.Context,
	principal *models.Principal,
	service string,
) ([]*models.Vendor, error) {
	if !access.HasRole(principal, models.RoleAdmin, models.RoleLandlord, models.RolePropertyManager) {
		return nil, utils.ErrPermissionDenied
	}
	if strings.TrimSpace(service) == "" {
		return nil, fmt.Errorf("%w: service is required", utils.ErrValidation)
	}
	return s.vendorRepo.ListByService(ctx, service)
}

// ListUnits returns the units on a property the principal can see.
func (s *DirectoryService) ListUnits(
	ctx context.Context,
	principal *models.Principal,
	propertyID uuid.UUID,
) ([]*models.Unit, error) {
	prop, err := s.propRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrNotFound
	}
	if !access.HasPropertyAccess(principal, propertyID) {
		return nil, utils.ErrPermissionDenied
	}
	return s.unitRepo.ListByPropertyID(ctx, propertyID)
}
