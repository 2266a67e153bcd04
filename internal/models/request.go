package models

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatusType string

const (
	RequestStatusNew        RequestStatusType = "NEW"
	RequestStatusAssigned   RequestStatusType = "ASSIGNED"
	RequestStatusInProgress RequestStatusType = "IN_PROGRESS"
	RequestStatusCompleted  RequestStatusType = "COMPLETED"
	RequestStatusVerified   RequestStatusType = "VERIFIED"
	RequestStatusReopened   RequestStatusType = "REOPENED"
	RequestStatusArchived   RequestStatusType = "ARCHIVED"
	RequestStatusCanceled   RequestStatusType = "CANCELED"
)

type PriorityType string

const (
	PriorityLow    PriorityType = "LOW"
	PriorityMedium PriorityType = "MEDIUM"
	PriorityHigh   PriorityType = "HIGH"
	PriorityUrgent PriorityType = "URGENT"
)

// AssigneeKindType is a closed union: every consumer must handle both
// variants explicitly. No other assignee kinds exist.
type AssigneeKindType string

const (
	AssigneeKindInternalUser AssigneeKindType = "INTERNAL_USER"
	AssigneeKindVendor       AssigneeKindType = "VENDOR"
)

func ValidAssigneeKind(k AssigneeKindType) bool {
	return k == AssigneeKindInternalUser || k == AssigneeKindVendor
}

// validTransitions is the canonical status graph. Any (from, to) pair not
// listed here is rejected with an invalid-transition error; ARCHIVED and
// CANCELED have no outgoing edges.
var validTransitions = map[RequestStatusType][]RequestStatusType{
	RequestStatusNew:        {RequestStatusAssigned, RequestStatusInProgress, RequestStatusArchived, RequestStatusCanceled},
	RequestStatusAssigned:   {RequestStatusInProgress, RequestStatusArchived},
	RequestStatusInProgress: {RequestStatusCompleted, RequestStatusArchived},
	RequestStatusCompleted:  {RequestStatusVerified, RequestStatusReopened, RequestStatusArchived},
	RequestStatusVerified:   {RequestStatusReopened, RequestStatusArchived},
	RequestStatusReopened:   {RequestStatusInProgress, RequestStatusArchived},
	RequestStatusArchived:   {},
	RequestStatusCanceled:   {},
}

func ValidRequestStatus(s RequestStatusType) bool {
	_, ok := validTransitions[s]
	return ok
}

func CanTransition(from, to RequestStatusType) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalStatus(s RequestStatusType) bool {
	return s == RequestStatusArchived || s == RequestStatusCanceled
}

// DisplayStatus maps the canonical enum to the single user-facing
// vocabulary. The API stores and speaks the enum; rendering is the only
// place these strings belong.
func DisplayStatus(s RequestStatusType) string {
	switch s {
	case RequestStatusNew:
		return "New"
	case RequestStatusAssigned:
		return "Assigned"
	case RequestStatusInProgress:
		return "In Progress"
	case RequestStatusCompleted:
		return "Completed"
	case RequestStatusVerified:
		return "Verified & Closed"
	case RequestStatusReopened:
		return "Reopened"
	case RequestStatusArchived:
		return "Archived"
	case RequestStatusCanceled:
		return "Canceled"
	default:
		return string(s)
	}
}

// MaintenanceRequest is the central work item: a problem reported against
// a property (optionally a specific unit), moved through the status graph
// by gated transitions, optionally bound to one assignee and at most one
// active public-link token.
type MaintenanceRequest struct {
	Versioned

	ID         uuid.UUID  `json:"id"`
	PropertyID uuid.UUID  `json:"property_id"`
	UnitID     *uuid.UUID `json:"unit_id,omitempty"` // nil means property-wide

	Status      RequestStatusType `json:"status"`
	Priority    PriorityType      `json:"priority"`
	Category    string            `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`

	CreatedBy uuid.UUID `json:"created_by"`

	AssignedToID   *uuid.UUID        `json:"assigned_to_id,omitempty"`
	AssignedToKind *AssigneeKindType `json:"assigned_to_kind,omitempty"`

	MediaURLs []string `json:"media_urls,omitempty"`

	// At most one active token per request; issuing a new one overwrites
	// (and thereby invalidates) the previous one. A nil expiry means the
	// token never expires.
	PublicLinkToken     *string    `json:"-"`
	PublicLinkExpiresAt *time.Time `json:"public_link_expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *MaintenanceRequest) GetID() string {
	return r.ID.String()
}

func (r *MaintenanceRequest) IsAssigned() bool {
	return r.AssignedToID != nil && r.AssignedToKind != nil
}

// AssignedTo reports whether the given account currently holds the
// assignment, regardless of kind.
func (r *MaintenanceRequest) AssignedTo(id uuid.UUID) bool {
	return r.AssignedToID != nil && *r.AssignedToID == id
}
