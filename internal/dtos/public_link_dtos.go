package dtos

import "time"

// EnablePublicLinkPayload drives POST /api/v1/requests/{id}/public-link.
// ExpiresInDays == 0 (or omitted) mints a token that never expires.
type EnablePublicLinkPayload struct {
	ExpiresInDays int   `json:"expires_in_days,omitempty" validate:"omitempty,min=1,max=365"`
	RowVersion    int64 `json:"row_version" validate:"required"`
}

type DisablePublicLinkPayload struct {
	RowVersion int64 `json:"row_version" validate:"required"`
}

type PublicLinkDTO struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}
