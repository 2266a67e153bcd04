package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/repositories"
	"github.com/propflow/maintenance-service/internal/utils"
)

var (
	_ repositories.RequestRepository  = (*memRequestRepo)(nil)
	_ repositories.UserRepository     = (*memUserRepo)(nil)
	_ repositories.PropertyRepository = (*memPropertyRepo)(nil)
	_ repositories.UnitRepository     = (*memUnitRepo)(nil)
	_ repositories.TenancyRepository  = (*memTenancyRepo)(nil)
	_ repositories.VendorRepository   = (*memVendorRepo)(nil)
	_ repositories.CommentRepository  = (*memCommentRepo)(nil)
	_ Clock                           = (*fakeClock)(nil)
)

// fakeClock lets tests move time past a link expiry without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memRequestRepo is an in-memory RequestRepository with the same
// compare-and-swap contract as the Postgres one: stale versions fail with
// utils.ErrRowVersionConflict and return the latest row, successes bump
// row_version. A single mutex stands in for the row lock.
type memRequestRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.MaintenanceRequest
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{rows: make(map[uuid.UUID]*models.MaintenanceRequest)}
}

func cloneRequest(req *models.MaintenanceRequest) *models.MaintenanceRequest {
	if req == nil {
		return nil
	}
	out := *req
	if req.UnitID != nil {
		v := *req.UnitID
		out.UnitID = &v
	}
	if req.AssignedToID != nil {
		v := *req.AssignedToID
		out.AssignedToID = &v
	}
	if req.AssignedToKind != nil {
		v := *req.AssignedToKind
		out.AssignedToKind = &v
	}
	if req.PublicLinkToken != nil {
		v := *req.PublicLinkToken
		out.PublicLinkToken = &v
	}
	if req.PublicLinkExpiresAt != nil {
		v := *req.PublicLinkExpiresAt
		out.PublicLinkExpiresAt = &v
	}
	out.MediaURLs = append([]string(nil), req.MediaURLs...)
	return &out
}

func (r *memRequestRepo) Create(ctx context.Context, req *models.MaintenanceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneRequest(req)
	stored.RowVersion = 1
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.rows[req.ID] = stored
	return nil
}

func (r *memRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneRequest(r.rows[id]), nil
}

func (r *memRequestRepo) GetByPublicToken(ctx context.Context, token string) (*models.MaintenanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.rows {
		if req.PublicLinkToken != nil && *req.PublicLinkToken == token {
			return cloneRequest(req), nil
		}
	}
	return nil, nil
}

func (r *memRequestRepo) List(ctx context.Context, filter repositories.RequestFilter) ([]*models.MaintenanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inScope := func(req *models.MaintenanceRequest) bool {
		if filter.Unscoped {
			return true
		}
		for _, id := range filter.PropertyIDs {
			if id == req.PropertyID {
				return true
			}
		}
		return false
	}

	out := []*models.MaintenanceRequest{}
	for _, req := range r.rows {
		if !inScope(req) {
			continue
		}
		if filter.UnitID != nil && (req.UnitID == nil || *req.UnitID != *filter.UnitID) {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && (req.AssignedToID == nil || *req.AssignedToID != *filter.AssigneeID) {
			continue
		}
		if filter.CreatedBy != nil && req.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	return out, nil
}

// cas applies mutate under the lock iff expectedVersion matches, bumping
// row_version the way the SQL UPDATE does.
func (r *memRequestRepo) cas(
	id uuid.UUID,
	expectedVersion int64,
	mutate func(*models.MaintenanceRequest),
) (*models.MaintenanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	if stored.RowVersion != expectedVersion {
		return cloneRequest(stored), utils.ErrRowVersionConflict
	}
	mutate(stored)
	stored.RowVersion++
	stored.UpdatedAt = time.Now().UTC()
	return cloneRequest(stored), nil
}

func (r *memRequestRepo) TransitionStatusAtomic(
	ctx context.Context, id uuid.UUID, newStatus models.RequestStatusType, expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	return r.cas(id, expectedVersion, func(req *models.MaintenanceRequest) {
		req.Status = newStatus
	})
}

func (r *memRequestRepo) AssignAtomic(
	ctx context.Context, id uuid.UUID, assigneeID uuid.UUID,
	kind models.AssigneeKindType, newStatus models.RequestStatusType, expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	return r.cas(id, expectedVersion, func(req *models.MaintenanceRequest) {
		req.AssignedToID = &assigneeID
		req.AssignedToKind = &kind
		req.Status = newStatus
	})
}

func (r *memRequestRepo) UpdateFieldsAtomic(
	ctx context.Context, id uuid.UUID, patch repositories.RequestPatch, expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	return r.cas(id, expectedVersion, func(req *models.MaintenanceRequest) {
		if patch.Priority != nil {
			req.Priority = *patch.Priority
		}
		if patch.Category != nil {
			req.Category = *patch.Category
		}
		if patch.Title != nil {
			req.Title = *patch.Title
		}
		if patch.Description != nil {
			req.Description = *patch.Description
		}
		if patch.MediaURLs != nil {
			req.MediaURLs = patch.MediaURLs
		}
	})
}

func (r *memRequestRepo) SetPublicLinkAtomic(
	ctx context.Context, id uuid.UUID, token string, expiresAt *time.Time, expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	return r.cas(id, expectedVersion, func(req *models.MaintenanceRequest) {
		req.PublicLinkToken = &token
		req.PublicLinkExpiresAt = expiresAt
	})
}

func (r *memRequestRepo) ClearPublicLinkAtomic(
	ctx context.Context, id uuid.UUID, expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	return r.cas(id, expectedVersion, func(req *models.MaintenanceRequest) {
		req.PublicLinkToken = nil
		req.PublicLinkExpiresAt = nil
	})
}

func (r *memRequestRepo) ClearExpiredPublicLinks(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cleared int64
	for _, req := range r.rows {
		if req.PublicLinkToken != nil && req.PublicLinkExpiresAt != nil && req.PublicLinkExpiresAt.Before(before) {
			req.PublicLinkToken = nil
			req.PublicLinkExpiresAt = nil
			cleared++
		}
	}
	return cleared, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *memUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) UpdateIfVersion(ctx context.Context, u *models.User, expected int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *u
	cp.RowVersion = expected + 1
	r.users[u.ID] = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *memUserRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return utils.ErrNotFound
	}
	if err := mutate(stored); err != nil {
		return err
	}
	stored.RowVersion++
	return nil
}

type memPropertyRepo struct {
	mu    sync.Mutex
	props map[uuid.UUID]*models.Property
}

func newMemPropertyRepo() *memPropertyRepo {
	return &memPropertyRepo{props: make(map[uuid.UUID]*models.Property)}
}

func (r *memPropertyRepo) Create(ctx context.Context, p *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.props[p.ID] = &cp
	return nil
}

func (r *memPropertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.props[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memPropertyRepo) ListIDsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, p := range r.props {
		if p.OwnerID == ownerID {
			out = append(out, p.ID)
		}
	}
	return out, nil
}

func (r *memPropertyRepo) ListIDsByManagerID(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, p := range r.props {
		if p.ManagerID != nil && *p.ManagerID == managerID {
			out = append(out, p.ID)
		}
	}
	return out, nil
}

func (r *memPropertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.props[p.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *p
	cp.RowVersion = expected + 1
	r.props[p.ID] = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *memPropertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.props[id]
	if !ok {
		return utils.ErrNotFound
	}
	if err := mutate(stored); err != nil {
		return err
	}
	stored.RowVersion++
	return nil
}

type memUnitRepo struct {
	mu    sync.Mutex
	units map[uuid.UUID]*models.Unit
}

func newMemUnitRepo() *memUnitRepo {
	return &memUnitRepo{units: make(map[uuid.UUID]*models.Unit)}
}

func (r *memUnitRepo) Create(ctx context.Context, u *models.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.units[u.ID] = &cp
	return nil
}

func (r *memUnitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUnitRepo) ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Unit
	for _, u := range r.units {
		if u.PropertyID == propertyID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memTenancyRepo struct {
	mu        sync.Mutex
	tenancies map[uuid.UUID][]models.Tenancy
}

func newMemTenancyRepo() *memTenancyRepo {
	return &memTenancyRepo{tenancies: make(map[uuid.UUID][]models.Tenancy)}
}

func (r *memTenancyRepo) Create(ctx context.Context, tenantID uuid.UUID, t models.Tenancy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenancies[tenantID] = append(r.tenancies[tenantID], t)
	return nil
}

func (r *memTenancyRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]models.Tenancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Tenancy(nil), r.tenancies[tenantID]...), nil
}

type memVendorRepo struct {
	mu      sync.Mutex
	vendors map[uuid.UUID]*models.Vendor
}

func newMemVendorRepo() *memVendorRepo {
	return &memVendorRepo{vendors: make(map[uuid.UUID]*models.Vendor)}
}

func (r *memVendorRepo) Create(ctx context.Context, v *models.Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.vendors[v.ID] = &cp
	return nil
}

func (r *memVendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vendors[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *memVendorRepo) ListByService(ctx context.Context, service string) ([]*models.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Vendor
	for _, v := range r.vendors {
		for _, s := range v.Services {
			if s == service {
				cp := *v
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (r *memVendorRepo) UpdateIfVersion(ctx context.Context, v *models.Vendor, expected int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vendors[v.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *v
	cp.RowVersion = expected + 1
	r.vendors[v.ID] = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *memVendorRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Vendor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vendors[id]
	if !ok {
		return utils.ErrNotFound
	}
	if err := mutate(stored); err != nil {
		return err
	}
	stored.RowVersion++
	return nil
}

type memCommentRepo struct {
	mu       sync.Mutex
	comments map[uuid.UUID][]*models.Comment
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: make(map[uuid.UUID][]*models.Comment)}
}

func (r *memCommentRepo) Create(ctx context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.CreatedAt = time.Now().UTC()
	r.comments[c.RequestID] = append(r.comments[c.RequestID], &cp)
	return nil
}

func (r *memCommentRepo) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Comment(nil), r.comments[requestID]...), nil
}
