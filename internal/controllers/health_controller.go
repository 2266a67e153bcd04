package controllers

import (
	"net/http"

	"github.com/propflow/maintenance-service/internal/dtos"
	"github.com/propflow/maintenance-service/internal/utils"
)

type HealthController struct{}

func NewHealthController() *HealthController {
	return &HealthController{}
}

func (c *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "ok"})
}
