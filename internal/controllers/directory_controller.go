package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/propflow/maintenance-service/internal/services"
	"github.com/propflow/maintenance-service/internal/utils"
)

// DirectoryController exposes the vendor and unit lookups used when
// assigning requests.
type DirectoryController struct {
	identity  *services.IdentityService
	directory *services.DirectoryService
}

func NewDirectoryController(
	identity *services.IdentityService,
	directory *services.DirectoryService,
) *DirectoryController {
	return &DirectoryController{identity: identity, directory: directory}
}

func (c *DirectoryController) ListVendors(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}

	service := r.URL.Query().Get("service")
	vendors, err := c.directory.ListVendors(r.Context(), principal, service)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, vendors)
}

func (c *DirectoryController) ListUnits(w http.ResponseWriter, r *http.Request) {
	principal := resolvePrincipal(w, r, c.identity)
	if principal == nil {
		return
	}

	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid property id", nil, err,
		)
		return
	}

	units, err := c.directory.ListUnits(r.Context(), principal, propertyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}
