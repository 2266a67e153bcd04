package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/propflow/maintenance-service/internal/dtos"
	"github.com/propflow/maintenance-service/internal/services"
	"github.com/propflow/maintenance-service/internal/utils"
)

// PublicLinkController handles both halves of the public-link feature:
// the authenticated enable/disable endpoints and the anonymous
// token-bearing endpoints, where the token is the entire authorization.
type PublicLinkController struct {
	identity *services.IdentityService
	links    *services.PublicLinkService
	comments *services.CommentService
}

func NewPublicLinkController(
	identity *services.IdentityService,
	links *services.PublicLinkService,
	comments *services.CommentService,
) *PublicLinkController {
	return &PublicLinkController{
		identity: identity,
		links:    links,
		comments: comments,
	}
}

func (c *PublicLinkController) Enable(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}
	id, ok := requestIDFromPath(w, r)
	if !ok {
		return
	}

	var payload dtos.EnablePublicLinkPayload
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

	link, err := c.links.EnablePublicLink(r.Context(), principal, id, payload.ExpiresInDays, payload.RowVersion)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, link)
}

func (c *PublicLinkController) Disable(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}
	id, ok := requestIDFromPath(w, r)
	if !ok {
		return
	}

	var payload dtos.DisablePublicLinkPayload
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

	if err := c.links.DisablePublicLink(r.Context(), principal, id, payload.RowVersion); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ViewPublic serves the anonymous read. The token in the path is the
// only credential; no session or role is involved.
func (c *PublicLinkController) ViewPublic(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	req, err := c.links.VerifyPublicToken(r.Context(), token)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewRequestDTO(req))
}

// AddPublicComment lets the anonymous holder of a live token leave a
// comment. The stored comment has no author account.
func (c *PublicLinkController) AddPublicComment(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

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

	comment, err := c.comments.AddPublicComment(r.Context(), token, payload.Body)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewCommentDTO(comment))
}
