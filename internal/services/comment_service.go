package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/access"
	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/repositories"
	"github.com/propflow/maintenance-service/internal/utils"
)

// CommentService attaches comments to requests. Comments stay possible on
// archived and canceled requests; they are outside the state machine.
type CommentService struct {
	commentRepo repositories.CommentRepository
	reqRepo     repositories.RequestRepository
	links       *PublicLinkService
}

func NewCommentService(
	commentRepo repositories.CommentRepository,
	reqRepo repositories.RequestRepository,
	links *PublicLinkService,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		reqRepo:     reqRepo,
		links:       links,
	}
}

// AddComment posts a comment as an authenticated principal.
func (s *CommentService) AddComment(
	ctx context.Context,
	principal *models.Principal,
	requestID uuid.UUID,
	body string,
) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, utils.ErrValidation
	}

	req, err := s.reqRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, utils.ErrNotFound
	}
	if !access.CanPerform(access.ActionComment, principal, req) {
		return nil, utils.ErrPermissionDenied
	}

	authorID := principal.ID
	comment := &models.Comment{
		ID:         uuid.New(),
		RequestID:  requestID,
		AuthorID:   &authorID,
		AuthorKind: models.CommentAuthorUser,
		Body:       body,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// AddPublicComment posts a comment on behalf of a public-link holder. The
// token is the entire authorization; the author is recorded as anonymous.
func (s *CommentService) AddPublicComment(
	ctx context.Context,
	token string,
	body string,
) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, utils.ErrValidation
	}

	req, err := s.links.VerifyPublicToken(ctx, token)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:         uuid.New(),
		RequestID:  req.ID,
		AuthorKind: models.CommentAuthorPublicLink,
		Body:       body,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a request's comments for a principal with read
// access.
func (s *CommentService) ListComments(
	ctx context.Context,
	principal *models.Principal,
	requestID uuid.UUID,
) ([]*models.Comment, error) {
	req, err := s.reqRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, utils.ErrNotFound
	}
	if !access.CanRead(principal, req) {
		return nil, utils.ErrPermissionDenied
	}
	return s.commentRepo.ListByRequestID(ctx, requestID)
}
