package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/propflow/maintenance-service/internal/dtos"
	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/services"
	"github.com/propflow/maintenance-service/internal/utils"
)

// RequestsController exposes the authenticated maintenance-request API.
type RequestsController struct {
	identity *services.IdentityService
	requests *services.RequestService
	comments *services.CommentService
	notifier *services.NotificationService
}

func NewRequestsController(
	identity *services.IdentityService,
	requests *services.RequestService,
	comments *services.CommentService,
	notifier *services.NotificationService,
) *RequestsController {
	return &RequestsController{
		identity: identity,
		requests: requests,
		comments: comments,
		notifier: notifier,
	}
}

func requestIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request id", nil, err,
		)
		return uuid.Nil, false
	}
	return id, true
}

func (c *RequestsController) Create(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}

	var payload dtos.CreateRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request payload", nil, err,
		)
		return
	}
	if err := validate.Struct(payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err,
		)
		return
	}

	req, err := c.requests.CreateRequest(r.Context(), principal, payload)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewRequestDTO(req))
}

func (c *RequestsController) List(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}

	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}

	reqs, err := c.requests.ListRequests(r.Context(), principal, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := dtos.ListRequestsResponse{
		Results: make([]dtos.RequestDTO, 0, len(reqs)),
		Total:   len(reqs),
	}
	for _, req := range reqs {
		out.Results = append(out.Results, dtos.NewRequestDTO(req))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

func parseListFilter(w http.ResponseWriter, r *http.Request) (services.ListFilter, bool) {
	var filter services.ListFilter
	q := r.URL.Query()

	for name, dst := range map[string]**uuid.UUID{
		"property_id": &filter.PropertyID,
		"unit_id":     &filter.UnitID,
		"assignee_id": &filter.AssigneeID,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid "+name, nil, err,
			)
			return filter, false
		}
		*dst = &id
	}

	if raw := q.Get("status"); raw != "" {
		status := models.RequestStatusType(raw)
		if !models.ValidRequestStatus(status) {
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid status filter", nil,
			)
			return filter, false
		}
		filter.Status = &status
	}
	return filter, true
}

func (c *RequestsController) Get(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}
	id, ok := requestIDFromPath(w, r)
	if !ok {
		return
	}

	req, err := c.requests.GetRequest(r.Context(), principal, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewRequestDTO(req))
}

func (c *RequestsController) Edit(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}
	id, ok := requestIDFromPath(w, r)
	if !ok {
		return
	}

	var payload dtos.EditRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request payload", nil, err,
		)
		return
	}
	if err := validate.Struct(payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err,
		)
		return
	}

	req, err := c.requests.EditRequest(r.Context(), principal, id, payload)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewRequestDTO(req))
}

func (c *RequestsController) Transition(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}
	id, ok := requestIDFromPath(w, r)
	if !ok {
		return
	}

	var payload dtos.TransitionRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request payload", nil, err,
		)
		return
	}
	if err := validate.Struct(payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err,
		)
		return
	}

	target := models.RequestStatusType(payload.TargetStatus)
	if !models.ValidRequestStatus(target) {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Unknown target status", nil,
		)
		return
	}

	req, err := c.requests.TransitionStatus(r.Context(), principal, id, target, payload.RowVersion)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if c.notifier != nil {
		go c.notifier.NotifyStatusChanged(contextWithoutCancel(r), req)
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewRequestDTO(req))
}

func (c *RequestsController) Assign(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}
	id, ok := requestIDFromPath(w, r)
	if !ok {
		return
	}

	var payload dtos.AssignRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request payload", nil, err,
		)
		return
	}
	if err := validate.Struct(payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err,
		)
		return
	}

	req, err := c.requests.Assign(
		r.Context(), principal, id,
		payload.AssigneeID, models.AssigneeKindType(payload.AssigneeKind), payload.RowVersion,
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if c.notifier != nil {
		go c.notifier.NotifyAssigned(contextWithoutCancel(r), req)
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewRequestDTO(req))
}

func (c *RequestsController) AddComment(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}
	id, ok := requestIDFromPath(w, r)
	if !ok {
		return
	}

	var payload dtos.CommentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request payload", nil, err,
		)
		return
	}
	if err := validate.Struct(payload); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err,
		)
		return
	}

	comment, err := c.comments.AddComment(r.Context(), principal, id, payload.Body)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewCommentDTO(comment))
}

func (c *RequestsController) ListComments(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}
	id, ok := requestIDFromPath(w, r)
	if !ok {
		return
	}

	list, err := c.comments.ListComments(r.Context(), principal, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]dtos.CommentDTO, 0, len(list))
	for _, comment := range list {
		out = append(out, dtos.NewCommentDTO(comment))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}
