package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/dtos"
	"github.com/propflow/maintenance-service/internal/middleware"
	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/services"
	"github.com/propflow/maintenance-service/internal/utils"
)

var validate = validator.New()

// contextWithoutCancel detaches notification work from the request
// lifetime so a client disconnect does not abort an already-committed
// side effect.
func contextWithoutCancel(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// resolvePrincipal pulls the authenticated subject from the request
// context and assembles its Principal. A nil principal (unknown or
// deactivated account behind a still-valid JWT) is answered as 401.
func resolvePrincipal(w http.ResponseWriter, r *http.Request, identity *services.IdentityService) *models.Principal {
	ctxUserID := r.Context().Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil,
		)
		return nil
	}

	userID, err := uuid.Parse(ctxUserID.(string))
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Malformed subject", nil, err,
		)
		return nil
	}

	principal, err := identity.GetPrincipal(r.Context(), userID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load principal", nil, err,
		)
		return nil
	}
	if principal == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unknown or inactive account", nil,
		)
		return nil
	}
	return principal
}

// respondServiceError maps the domain error taxonomy onto transport
// codes. This is the only place that mapping lives.
func respondServiceError(w http.ResponseWriter, err error) {
	var conflict *utils.RowVersionConflictError
	switch {
	case errors.As(err, &conflict):
		details := dtos.NewRequestDTO(conflict.Current)
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeRowVersionConflict,
			"The request was modified by someone else. Refresh and retry.", details, err,
		)
	case errors.Is(err, utils.ErrPermissionDenied):
		utils.RespondErrorWithCode(
			w, http.StatusForbidden, utils.ErrCodePermissionDenied, "You are not allowed to do that.", nil, err,
		)
	case errors.Is(err, utils.ErrInvalidTransition):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeInvalidTransition, err.Error(), nil, err,
		)
	case errors.Is(err, utils.ErrValidation):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err,
		)
	case errors.Is(err, utils.ErrNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "Not found.", nil, err,
		)
	case errors.Is(err, utils.ErrTokenExpired):
		utils.RespondErrorWithCode(
			w, http.StatusGone, utils.ErrCodeTokenExpired, "This link has expired.", nil, err,
		)
	default:
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "An unexpected error occurred.", nil, err,
		)
	}
}
