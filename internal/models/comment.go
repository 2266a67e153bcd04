package models

import (
	"time"

	"github.com/google/uuid"
)

type CommentAuthorKindType string

const (
	CommentAuthorUser       CommentAuthorKindType = "USER"
	CommentAuthorPublicLink CommentAuthorKindType = "PUBLIC_LINK"
)

// Comment is attached to a request but is not part of the state machine.
// AuthorID is nil for comments left through a public link.
type Comment struct {
	ID         uuid.UUID             `json:"id"`
	RequestID  uuid.UUID             `json:"request_id"`
	AuthorID   *uuid.UUID            `json:"author_id,omitempty"`
	AuthorKind CommentAuthorKindType `json:"author_kind"`
	Body       string                `json:"body"`
	CreatedAt  time.Time             `json:"created_at"`
}
