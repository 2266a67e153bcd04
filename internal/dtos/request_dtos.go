package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/models"
)

/*
CreateRequestPayload is the body for POST /api/v1/requests.
UnitID is optional; a nil unit means the request is property-wide.
*/
type CreateRequestPayload struct {
	PropertyID  uuid.UUID  `json:"property_id" validate:"required"`
	UnitID      *uuid.UUID `json:"unit_id,omitempty"`
	Priority    string     `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Category    string     `json:"category" validate:"required,max=100"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=5000"`
	MediaURLs   []string   `json:"media_urls,omitempty" validate:"dive,url"`
}

/*
EditRequestPayload is the body for PATCH /api/v1/requests/{id}. Only the
provided fields change. RowVersion is the optimistic concurrency marker.
*/
type EditRequestPayload struct {
	Priority    *string  `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	MediaURLs   []string `json:"media_urls,omitempty" validate:"omitempty,dive,url"`
	RowVersion  int64    `json:"row_version" validate:"required"`
}

// TransitionRequestPayload drives POST /api/v1/requests/{id}/status.
type TransitionRequestPayload struct {
	TargetStatus string `json:"target_status" validate:"required"`
	RowVersion   int64  `json:"row_version" validate:"required"`
}

// AssignRequestPayload drives POST /api/v1/requests/{id}/assign.
type AssignRequestPayload struct {
	AssigneeID   uuid.UUID `json:"assignee_id" validate:"required"`
	AssigneeKind string    `json:"assignee_kind" validate:"required,oneof=INTERNAL_USER VENDOR"`
	RowVersion   int64     `json:"row_version" validate:"required"`
}

type CommentPayload struct {
	Body string `json:"body" validate:"required,max=5000"`
}

// RequestDTO is the response shape for a single maintenance request.
type RequestDTO struct {
	ID            uuid.UUID  `json:"id"`
	PropertyID    uuid.UUID  `json:"property_id"`
	UnitID        *uuid.UUID `json:"unit_id,omitempty"`
	Status        string     `json:"status"`
	DisplayStatus string     `json:"display_status"`
	Priority      string     `json:"priority"`
	Category      string     `json:"category"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	CreatedBy     uuid.UUID  `json:"created_by"`

	AssignedToID   *uuid.UUID `json:"assigned_to_id,omitempty"`
	AssignedToKind *string    `json:"assigned_to_kind,omitempty"`

	MediaURLs []string `json:"media_urls,omitempty"`

	HasPublicLink       bool       `json:"has_public_link"`
	PublicLinkExpiresAt *time.Time `json:"public_link_expires_at,omitempty"`

	RowVersion int64     `json:"row_version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewRequestDTO(req *models.MaintenanceRequest) RequestDTO {
	dto := RequestDTO{
		ID:                  req.ID,
		PropertyID:          req.PropertyID,
		UnitID:              req.UnitID,
		Status:              string(req.Status),
		DisplayStatus:       models.DisplayStatus(req.Status),
		Priority:            string(req.Priority),
		Category:            req.Category,
		Title:               req.Title,
		Description:         req.Description,
		CreatedBy:           req.CreatedBy,
		AssignedToID:        req.AssignedToID,
		MediaURLs:           req.MediaURLs,
		HasPublicLink:       req.PublicLinkToken != nil,
		PublicLinkExpiresAt: req.PublicLinkExpiresAt,
		RowVersion:          req.RowVersion,
		CreatedAt:           req.CreatedAt,
		UpdatedAt:           req.UpdatedAt,
	}
	if req.AssignedToKind != nil {
		kind := string(*req.AssignedToKind)
		dto.AssignedToKind = &kind
	}
	return dto
}

type ListRequestsResponse struct {
	Results []RequestDTO `json:"results"`
	Total   int          `json:"total"`
}

type CommentDTO struct {
	ID         uuid.UUID  `json:"id"`
	RequestID  uuid.UUID  `json:"request_id"`
	AuthorID   *uuid.UUID `json:"author_id,omitempty"`
	AuthorKind string     `json:"author_kind"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
}

func NewCommentDTO(c *models.Comment) CommentDTO {
	return CommentDTO{
		ID:         c.ID,
		RequestID:  c.RequestID,
		AuthorID:   c.AuthorID,
		AuthorKind: string(c.AuthorKind),
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}
