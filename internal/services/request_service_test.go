package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/propflow/maintenance-service/internal/dtos"
	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/utils"
)

// fixture wires the services against in-memory repositories and seeds one
// property with a unit, a landlord, a manager, a leased tenant and a
// vendor.
type fixture struct {
	reqRepo     *memRequestRepo
	commentRepo *memCommentRepo
	clock       *fakeClock

	requests  *RequestService
	links     *PublicLinkService
	comments  *CommentService
	identity  *IdentityService
	directory *DirectoryService

	landlord *models.Principal
	manager  *models.Principal
	tenant   *models.Principal
	admin    *models.Principal
	vendor   *models.Principal

	propertyID uuid.UUID
	unitID     uuid.UUID
	vendorID   uuid.UUID
	staffID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	userRepo := newMemUserRepo()
	propRepo := newMemPropertyRepo()
	unitRepo := newMemUnitRepo()
	tenancyRepo := newMemTenancyRepo()
	vendorRepo := newMemVendorRepo()
	reqRepo := newMemRequestRepo()
	commentRepo := newMemCommentRepo()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	f := &fixture{
		reqRepo:     reqRepo,
		commentRepo: commentRepo,
		clock:       clock,
		propertyID:  uuid.New(),
		unitID:      uuid.New(),
		vendorID:    uuid.New(),
		staffID:     uuid.New(),
	}

	newUser := func(role models.RoleType) *models.User {
		u := &models.User{
			ID:       uuid.New(),
			Email:    uuid.NewString() + "@example.com",
			Role:     role,
			IsActive: true,
		}
		require.NoError(t, userRepo.Create(ctx, u))
		return u
	}

	landlord := newUser(models.RoleLandlord)
	manager := newUser(models.RolePropertyManager)
	tenant := newUser(models.RoleTenant)
	adminUser := newUser(models.RoleAdmin)
	vendorUser := newUser(models.RoleVendor)

	staff := &models.User{
		ID:       f.staffID,
		Email:    "staff@example.com",
		Role:     models.RolePropertyManager,
		IsActive: true,
	}
	require.NoError(t, userRepo.Create(ctx, staff))

	managerID := manager.ID
	require.NoError(t, propRepo.Create(ctx, &models.Property{
		ID:        f.propertyID,
		OwnerID:   landlord.ID,
		ManagerID: &managerID,
	}))
	require.NoError(t, unitRepo.Create(ctx, &models.Unit{
		ID:         f.unitID,
		PropertyID: f.propertyID,
		UnitNumber: "2B",
	}))
	require.NoError(t, tenancyRepo.Create(ctx, tenant.ID, models.Tenancy{
		PropertyID: f.propertyID,
		UnitID:     f.unitID,
	}))
	require.NoError(t, vendorRepo.Create(ctx, &models.Vendor{
		ID:          f.vendorID,
		CompanyName: "RapidFix",
		Services:    []string{"plumbing"},
	}))

	f.requests = NewRequestService(reqRepo, propRepo, unitRepo, userRepo, vendorRepo, clock)
	f.links = NewPublicLinkService(reqRepo, clock)
	f.comments = NewCommentService(commentRepo, reqRepo, f.links)
	f.identity = NewIdentityService(userRepo, propRepo, tenancyRepo)
	f.directory = NewDirectoryService(vendorRepo, unitRepo, propRepo)

	var err error
	f.landlord, err = f.identity.GetPrincipal(ctx, landlord.ID)
	require.NoError(t, err)
	f.manager, err = f.identity.GetPrincipal(ctx, manager.ID)
	require.NoError(t, err)
	f.tenant, err = f.identity.GetPrincipal(ctx, tenant.ID)
	require.NoError(t, err)
	f.admin, err = f.identity.GetPrincipal(ctx, adminUser.ID)
	require.NoError(t, err)
	f.vendor, err = f.identity.GetPrincipal(ctx, vendorUser.ID)
	require.NoError(t, err)

	return f
}

func (f *fixture) createRequest(t *testing.T) *models.MaintenanceRequest {
	t.Helper()
	unitID := f.unitID
	req, err := f.requests.CreateRequest(context.Background(), f.tenant, dtos.CreateRequestPayload{
		PropertyID: f.propertyID,
		UnitID:     &unitID,
		Priority:   "HIGH",
		Category:   "plumbing",
		Title:      "Leaking sink",
	})
	require.NoError(t, err)
	return req
}

func TestCreateRequest(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest(t)
	require.Equal(t, models.RequestStatusNew, req.Status)
	require.EqualValues(t, 1, req.RowVersion)
	require.Equal(t, f.tenant.ID, req.CreatedBy)
}

func TestCreateRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.requests.CreateRequest(ctx, f.tenant, dtos.CreateRequestPayload{
		PropertyID: uuid.New(),
		Priority:   "LOW",
		Category:   "misc",
		Title:      "x",
	})
	require.ErrorIs(t, err, utils.ErrValidation)

	strayUnit := uuid.New()
	_, err = f.requests.CreateRequest(ctx, f.tenant, dtos.CreateRequestPayload{
		PropertyID: f.propertyID,
		UnitID:     &strayUnit,
		Priority:   "LOW",
		Category:   "misc",
		Title:      "x",
	})
	require.ErrorIs(t, err, utils.ErrValidation)
}

func TestCreateRequestPermission(t *testing.T) {
	f := newFixture(t)

	_, err := f.requests.CreateRequest(context.Background(), f.vendor, dtos.CreateRequestPayload{
		PropertyID: f.propertyID,
		Priority:   "LOW",
		Category:   "misc",
		Title:      "x",
	})
	require.ErrorIs(t, err, utils.ErrPermissionDenied)
}

func TestFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)

	// Manager assigns a vendor: NEW advances to ASSIGNED in the same write.
	req, err := f.requests.Assign(ctx, f.manager, req.ID, f.vendorID, models.AssigneeKindVendor, req.RowVersion)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusAssigned, req.Status)
	require.True(t, req.AssignedTo(f.vendorID))
	require.EqualValues(t, 2, req.RowVersion)

	req, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusInProgress, req.RowVersion)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusInProgress, req.Status)

	req, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusCompleted, req.RowVersion)
	require.NoError(t, err)

	req, err = f.requests.TransitionStatus(ctx, f.landlord, req.ID, models.RequestStatusVerified, req.RowVersion)
	require.NoError(t, err)
	require.Equal(t, "Verified & Closed", models.DisplayStatus(req.Status))

	req, err = f.requests.TransitionStatus(ctx, f.landlord, req.ID, models.RequestStatusArchived, req.RowVersion)
	require.NoError(t, err)
	require.True(t, models.IsTerminalStatus(req.Status))

	// Nothing moves out of ARCHIVED.
	_, err = f.requests.TransitionStatus(ctx, f.admin, req.ID, models.RequestStatusReopened, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
	_, err = f.requests.Assign(ctx, f.admin, req.ID, f.vendorID, models.AssigneeKindVendor, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestReopenLoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)
	req, err := f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusInProgress, req.RowVersion)
	require.NoError(t, err)
	req, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusCompleted, req.RowVersion)
	require.NoError(t, err)

	req, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusReopened, req.RowVersion)
	require.NoError(t, err)
	req, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusInProgress, req.RowVersion)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusInProgress, req.Status)
}

func TestTransitionPermissionCheckedBeforeGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)

	// The tenant lacks the advance gate even though NEW -> IN_PROGRESS is a
	// valid edge; permission loses first.
	_, err := f.requests.TransitionStatus(ctx, f.tenant, req.ID, models.RequestStatusInProgress, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrPermissionDenied)

	// An out-of-scope landlord is denied too.
	outsider := &models.Principal{ID: uuid.New(), Role: models.RoleLandlord}
	_, err = f.requests.TransitionStatus(ctx, outsider, req.ID, models.RequestStatusInProgress, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrPermissionDenied)
}

func TestTransitionToAssignedRejected(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest(t)
	_, err := f.requests.TransitionStatus(context.Background(), f.manager, req.ID, models.RequestStatusAssigned, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestCancelOnlyFromNewByCreatorOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)

	// The manager is property-scoped but is neither creator nor admin.
	_, err := f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusCanceled, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrPermissionDenied)

	// The creator may cancel while the request is NEW.
	canceled, err := f.requests.TransitionStatus(ctx, f.tenant, req.ID, models.RequestStatusCanceled, req.RowVersion)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusCanceled, canceled.Status)

	// Once work is underway cancellation is no longer an edge.
	second := f.createRequest(t)
	second, err = f.requests.Assign(ctx, f.manager, second.ID, f.vendorID, models.AssigneeKindVendor, second.RowVersion)
	require.NoError(t, err)
	_, err = f.requests.TransitionStatus(ctx, f.admin, second.ID, models.RequestStatusCanceled, second.RowVersion)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestAssignValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)

	_, err := f.requests.Assign(ctx, f.manager, req.ID, uuid.New(), models.AssigneeKindVendor, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.requests.Assign(ctx, f.manager, req.ID, f.vendorID, models.AssigneeKindType("CONTRACTOR"), req.RowVersion)
	require.ErrorIs(t, err, utils.ErrValidation)

	// An internal assignee must be a staff account, not a tenant.
	_, err = f.requests.Assign(ctx, f.manager, req.ID, f.tenant.ID, models.AssigneeKindInternalUser, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrValidation)

	req, err = f.requests.Assign(ctx, f.manager, req.ID, f.staffID, models.AssigneeKindInternalUser, req.RowVersion)
	require.NoError(t, err)
	require.Equal(t, models.AssigneeKindInternalUser, *req.AssignedToKind)
}

func TestReassignmentAllowedUntilCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)
	req, err := f.requests.Assign(ctx, f.manager, req.ID, f.vendorID, models.AssigneeKindVendor, req.RowVersion)
	require.NoError(t, err)

	// Reassignment while ASSIGNED keeps the status.
	req, err = f.requests.Assign(ctx, f.manager, req.ID, f.staffID, models.AssigneeKindInternalUser, req.RowVersion)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusAssigned, req.Status)
	require.True(t, req.AssignedTo(f.staffID))

	req, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusInProgress, req.RowVersion)
	require.NoError(t, err)
	req, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusCompleted, req.RowVersion)
	require.NoError(t, err)

	_, err = f.requests.Assign(ctx, f.manager, req.ID, f.vendorID, models.AssigneeKindVendor, req.RowVersion)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestStaleVersionConflictCarriesLatestRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)
	stale := req.RowVersion

	_, err := f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusInProgress, stale)
	require.NoError(t, err)

	_, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusArchived, stale)
	require.ErrorIs(t, err, utils.ErrRowVersionConflict)

	var conflict *utils.RowVersionConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, models.RequestStatusInProgress, conflict.Current.Status)
	require.EqualValues(t, stale+1, conflict.Current.RowVersion)
}

func TestConcurrentTransitionsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)

	// Two writers race the same prior version against the CAS write; the
	// storage contract guarantees exactly one succeeds.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	targets := []models.RequestStatusType{models.RequestStatusInProgress, models.RequestStatusArchived}
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.reqRepo.TransitionStatusAtomic(ctx, req.ID, targets[i], req.RowVersion)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, utils.ErrRowVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, conflicts)
}

func TestEditRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)

	newTitle := "Leaking sink, getting worse"
	priority := "URGENT"
	req, err := f.requests.EditRequest(ctx, f.tenant, req.ID, dtos.EditRequestPayload{
		Title:      &newTitle,
		Priority:   &priority,
		RowVersion: req.RowVersion,
	})
	require.NoError(t, err)
	require.Equal(t, newTitle, req.Title)
	require.Equal(t, models.PriorityUrgent, req.Priority)

	// A different tenant in the building cannot edit someone else's request.
	otherTenant := &models.Principal{
		ID:   uuid.New(),
		Role: models.RoleTenant,
		Tenancies: []models.Tenancy{
			{PropertyID: f.propertyID, UnitID: f.unitID},
		},
	}
	_, err = f.requests.EditRequest(ctx, otherTenant, req.ID, dtos.EditRequestPayload{
		Title: &newTitle, RowVersion: req.RowVersion,
	})
	require.ErrorIs(t, err, utils.ErrPermissionDenied)

	// Terminal requests are frozen.
	req, err = f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusArchived, req.RowVersion)
	require.NoError(t, err)
	_, err = f.requests.EditRequest(ctx, f.manager, req.ID, dtos.EditRequestPayload{
		Title: &newTitle, RowVersion: req.RowVersion,
	})
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestGetRequestScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)

	got, err := f.requests.GetRequest(ctx, f.landlord, req.ID)
	require.NoError(t, err)
	require.Equal(t, req.ID, got.ID)

	_, err = f.requests.GetRequest(ctx, f.vendor, req.ID)
	require.ErrorIs(t, err, utils.ErrPermissionDenied)

	_, err = f.requests.GetRequest(ctx, f.admin, uuid.New())
	require.ErrorIs(t, err, utils.ErrNotFound)
}

func TestListRequestsRoleScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)

	for _, p := range []*models.Principal{f.admin, f.landlord, f.manager, f.tenant} {
		list, err := f.requests.ListRequests(ctx, p, ListFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1, "role %s", p.Role)
	}

	// The vendor sees nothing until assigned.
	list, err := f.requests.ListRequests(ctx, f.vendor, ListFilter{})
	require.NoError(t, err)
	require.Empty(t, list)

	req, err = f.requests.Assign(ctx, f.manager, req.ID, f.vendorID, models.AssigneeKindVendor, req.RowVersion)
	require.NoError(t, err)

	// The assignee reaches the request regardless of property scope.
	assignee := &models.Principal{ID: f.vendorID, Role: models.RoleVendor}
	list, err = f.requests.ListRequests(ctx, assignee, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	got, err := f.requests.GetRequest(ctx, assignee, req.ID)
	require.NoError(t, err)
	require.Equal(t, req.ID, got.ID)

	// An out-of-scope landlord sees nothing.
	outsider := &models.Principal{ID: uuid.New(), Role: models.RoleLandlord}
	list, err = f.requests.ListRequests(ctx, outsider, ListFilter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestListRequestsTenantUnitScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// One request on the tenant's unit, one property-wide, one on another
	// unit created by the manager.
	f.createRequest(t)

	_, err := f.requests.CreateRequest(ctx, f.manager, dtos.CreateRequestPayload{
		PropertyID: f.propertyID,
		Priority:   "LOW",
		Category:   "grounds",
		Title:      "Parking lot lighting",
	})
	require.NoError(t, err)

	otherUnit := uuid.New()
	require.NoError(t, f.requests.unitRepo.Create(ctx, &models.Unit{
		ID:         otherUnit,
		PropertyID: f.propertyID,
		UnitNumber: "3C",
	}))
	_, err = f.requests.CreateRequest(ctx, f.manager, dtos.CreateRequestPayload{
		PropertyID: f.propertyID,
		UnitID:     &otherUnit,
		Priority:   "LOW",
		Category:   "plumbing",
		Title:      "Other unit leak",
	})
	require.NoError(t, err)

	list, err := f.requests.ListRequests(ctx, f.tenant, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, r := range list {
		if r.UnitID != nil {
			require.Equal(t, f.unitID, *r.UnitID)
		}
	}

	// The manager sees all three.
	list, err = f.requests.ListRequests(ctx, f.manager, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
}

func TestListRequestsStatusFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(t)
	_, err := f.requests.TransitionStatus(ctx, f.manager, req.ID, models.RequestStatusInProgress, req.RowVersion)
	require.NoError(t, err)
	f.createRequest(t)

	status := models.RequestStatusInProgress
	list, err := f.requests.ListRequests(ctx, f.manager, ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, status, list[0].Status)

	// A property filter outside the caller's scope yields nothing.
	outside := uuid.New()
	list, err = f.requests.ListRequests(ctx, f.landlord, ListFilter{PropertyID: &outside})
	require.NoError(t, err)
	require.Empty(t, list)
}
