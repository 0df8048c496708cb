package handler

import (
	"context"
	"net/http"
	"time"
)

// version is reported by the health check.
const version = "1.0.0"

func (h *Handler) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.service.Healthcheck(ctx); err != nil {
		h.backendUnavailableResponse(w, r, err)
		return
	}
	health := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": h.config.Server.Env,
			"version":     version,
			"index":       h.config.Elastic.Index,
		},
	}
	err := h.encodeJSON(w, http.StatusOK, health, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
