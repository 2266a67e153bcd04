package utils

import (
	"errors"

	"github.com/propflow/maintenance-service/internal/models"
)

/*
   Sentinel errors for the maintenance-request domain logic.
   Controllers can do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	ErrPermissionDenied  = errors.New("permission_denied")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrValidation        = errors.New("validation_error")
	ErrNotFound          = errors.New("not_found")

	// Public-link capability failures.
	ErrTokenExpired = errors.New("token_expired")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	ErrNoRowsUpdated = errors.New("no_rows_updated")
)

/*
   RowVersionConflictError is returned when there's a concurrency mismatch.
   It includes the "latest" request so the controller can return it
   to the client if desired.
*/
type RowVersionConflictError struct {
	Current *models.MaintenanceRequest
}

func (e *RowVersionConflictError) Error() string {
	return "row_version_conflict"
}

func (e *RowVersionConflictError) Unwrap() error {
	return ErrRowVersionConflict
}

func NewRowVersionConflictError(current *models.MaintenanceRequest) error {
	return &RowVersionConflictError{Current: current}
}
