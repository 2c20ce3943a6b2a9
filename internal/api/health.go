package api

import (
	"net/http"
	"time"

	"github.com/stanza-hq/stanza-backend/internal/api/respond"
)

// HealthHandler reports service health from an injected probe.
type HealthHandler struct {
	healthy func() bool
}

// NewHealthHandler creates a health handler bound to the given probe.
func NewHealthHandler(healthy func() bool) *HealthHandler {
	return &HealthHandler{healthy: healthy}
}

// CheckHealth handles GET /api/health. Unhealthy reports 503 so load
// balancers can act on the status code alone.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if !h.healthy() {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	respond.WriteJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
