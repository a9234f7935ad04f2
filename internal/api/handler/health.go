package handler

import (
	"net/http"

	"github.com/LBIT2016/trading-gamers/internal/api/response"
)

// ReadinessSource reports whether a shared document finished loading
type ReadinessSource interface {
	DocumentID() string
	Ready() bool
}

// HealthHandler reports liveness and document readiness
type HealthHandler struct {
	documents []ReadinessSource
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(documents ...ReadinessSource) *HealthHandler {
	return &HealthHandler{documents: documents}
}

// Health handles GET /api/v1/health. The process is healthy even while a
// document is unavailable; the stores then work on local state.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{Status: "ok", Documents: make(map[string]bool, len(h.documents))}
	for _, d := range h.documents {
		resp.Documents[d.DocumentID()] = d.Ready()
		if !d.Ready() {
			resp.Status = "degraded"
		}
	}
	response.JSON(w, http.StatusOK, resp)
}
