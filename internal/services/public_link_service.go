package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/access"
	"github.com/propflow/maintenance-service/internal/dtos"
	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/repositories"
	"github.com/propflow/maintenance-service/internal/utils"
)

const publicLinkTokenBytes = 32

// PublicLinkService mints, revokes and verifies the anonymous capability
// tokens granting time-boxed access to a single request. The token is a
// bearer capability, not an identity: holders can read and comment, never
// transition, assign or mint further links.
type PublicLinkService struct {
	reqRepo repositories.RequestRepository
	clock   Clock
}

func NewPublicLinkService(reqRepo repositories.RequestRepository, clock Clock) *PublicLinkService {
	if clock == nil {
		clock = SystemClock
	}
	return &PublicLinkService{reqRepo: reqRepo, clock: clock}
}

// EnablePublicLink mints a fresh token for the request. Any previously
// issued token stops resolving the moment the new one lands: the request
// row only ever stores one. expiresInDays <= 0 means the token never
// expires.
func (s *PublicLinkService) EnablePublicLink(
	ctx context.Context,
	principal *models.Principal,
	id uuid.UUID,
	expiresInDays int,
	expectedVersion int64,
) (*dtos.PublicLinkDTO, error) {
	req, err := s.reqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, utils.ErrNotFound
	}
	if !access.CanPerform(access.ActionManagePublicLink, principal, req) {
		return nil, utils.ErrPermissionDenied
	}

	token := utils.RandomToken(publicLinkTokenBytes)
	var expiresAt *time.Time
	if expiresInDays > 0 {
		t := s.clock.Now().AddDate(0, 0, expiresInDays)
		expiresAt = &t
	}

	updated, err := s.reqRepo.SetPublicLinkAtomic(ctx, id, token, expiresAt, expectedVersion)
	if err != nil {
		return nil, conflictErr(updated, err)
	}
	if updated == nil {
		return nil, utils.ErrNoRowsUpdated
	}
	return &dtos.PublicLinkDTO{Token: token, ExpiresAt: expiresAt}, nil
}

// DisablePublicLink revokes the active token, if any.
func (s *PublicLinkService) DisablePublicLink(
	ctx context.Context,
	principal *models.Principal,
	id uuid.UUID,
	expectedVersion int64,
) error {
	req, err := s.reqRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		return utils.ErrNotFound
	}
	if !access.CanPerform(access.ActionManagePublicLink, principal, req) {
		return utils.ErrPermissionDenied
	}

	updated, err := s.reqRepo.ClearPublicLinkAtomic(ctx, id, expectedVersion)
	if err != nil {
		return conflictErr(updated, err)
	}
	return nil
}

// VerifyPublicToken resolves a bearer token to its request. No principal
// is involved; the token is the whole capability. An archived request is
// reported as not found so revoked work is never externally reachable,
// and expiry is evaluated lazily against the injected clock.
func (s *PublicLinkService) VerifyPublicToken(ctx context.Context, token string) (*models.MaintenanceRequest, error) {
	if token == "" {
		return nil, utils.ErrNotFound
	}
	req, err := s.reqRepo.GetByPublicToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, utils.ErrNotFound
	}
	if req.PublicLinkExpiresAt != nil && s.clock.Now().After(*req.PublicLinkExpiresAt) {
		return nil, utils.ErrTokenExpired
	}
	if req.Status == models.RequestStatusArchived {
		return nil, utils.ErrNotFound
	}
	return req, nil
}

// SweepExpiredLinks clears long-expired tokens from storage. Purely
// hygiene: VerifyPublicToken never depends on it.
func (s *PublicLinkService) SweepExpiredLinks(ctx context.Context) (int64, error) {
	return s.reqRepo.ClearExpiredPublicLinks(ctx, s.clock.Now())
}
