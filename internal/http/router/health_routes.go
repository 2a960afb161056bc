package router

import (
	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/usersvc/internal/http/controllers/health"
)

// RegisterHealthRoutes registra /healthz (liveness) y /readyz (readiness).
// Públicos, sin auth.
func RegisterHealthRoutes(r chi.Router, c *ctrl.HealthController) {
	r.Get("/healthz", c.Healthz)
	r.Get("/readyz", c.Readyz)
}
