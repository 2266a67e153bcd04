package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/repositories"
	"github.com/propflow/maintenance-service/internal/utils"
)

// Helper to check for unique violation error (PostgreSQL specific code)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Fixed IDs so re-running the seed is a no-op and local clients can
// hardcode them.
var (
	seedLandlordID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	seedManagerID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	seedTenantID   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	seedAdminID    = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	seedVendorID   = uuid.MustParse("55555555-5555-5555-5555-555555555555")

	seedPropertyID = uuid.MustParse("66666666-6666-6666-6666-666666666666")
	seedUnitID     = uuid.MustParse("77777777-7777-7777-7777-777777777777")
)

// SeedTestData populates a demo landlord, manager, tenant, admin, one
// property with a unit, a leased tenancy and a vendor. Safe to run on
// every boot; it bails out as soon as it sees the sentinel property.
func SeedTestData(
	ctx context.Context,
	userRepo repositories.UserRepository,
	propRepo repositories.PropertyRepository,
	unitRepo repositories.UnitRepository,
	tenancyRepo repositories.TenancyRepository,
	vendorRepo repositories.VendorRepository,
) error {
	if existing, err := propRepo.GetByID(ctx, seedPropertyID); err != nil {
		return fmt.Errorf("check existing seed property: %w", err)
	} else if existing != nil {
		utils.Logger.Info("seed data already present; skipping seeding")
		return nil
	}

	users := []*models.User{
		{
			ID: seedLandlordID, Email: "landlord@propflow.example.com",
			FirstName: "Lena", LastName: "Ortiz",
			Role: models.RoleLandlord, IsActive: true,
		},
		{
			ID: seedManagerID, Email: "manager@propflow.example.com",
			FirstName: "Marcus", LastName: "Hale",
			Role: models.RolePropertyManager, IsActive: true,
		},
		{
			ID: seedTenantID, Email: "tenant@propflow.example.com",
			FirstName: "Tara", LastName: "Nguyen",
			Role: models.RoleTenant, IsActive: true,
		},
		{
			ID: seedAdminID, Email: "admin@propflow.example.com",
			FirstName: "Ada", LastName: "Okafor",
			Role: models.RoleAdmin, IsActive: true,
		},
	}
	for _, u := range users {
		// Accounts may survive a wiped demo property; match on email so
		// we never collide with a re-created user under a new ID.
		if existing, err := userRepo.GetByEmail(ctx, u.Email); err != nil {
			return fmt.Errorf("check seed user %s: %w", u.Email, err)
		} else if existing != nil {
			continue
		}
		if err := userRepo.Create(ctx, u); err != nil && !isUniqueViolation(err) {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	managerID := seedManagerID
	prop := &models.Property{
		ID:           seedPropertyID,
		OwnerID:      seedLandlordID,
		ManagerID:    &managerID,
		PropertyName: "Maple Court",
		Address:      "42 Maple Ct",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62704",
		IsDemo:       true,
	}
	if err := propRepo.Create(ctx, prop); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("seed property: %w", err)
	}

	unit := &models.Unit{
		ID:         seedUnitID,
		PropertyID: seedPropertyID,
		UnitNumber: "2B",
	}
	if err := unitRepo.Create(ctx, unit); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("seed unit: %w", err)
	}

	tenancy := models.Tenancy{PropertyID: seedPropertyID, UnitID: seedUnitID}
	if err := tenancyRepo.Create(ctx, seedTenantID, tenancy); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("seed tenancy: %w", err)
	}

	vendor := &models.Vendor{
		ID:          seedVendorID,
		CompanyName: "RapidFix Plumbing",
		Email:       "dispatch@rapidfix.example.com",
		PhoneNumber: "+10005550123",
		Services:    []string{"plumbing", "hvac"},
	}
	if err := vendorRepo.Create(ctx, vendor); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("seed vendor: %w", err)
	}

	utils.Logger.Info("Seeded demo property, accounts and vendor")
	return nil
}
