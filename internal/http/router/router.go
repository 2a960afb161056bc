// Package router arma el árbol de rutas chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	healthctrl "github.com/dropDatabas3/usersvc/internal/http/controllers/health"
	usersctrl "github.com/dropDatabas3/usersvc/internal/http/controllers/users"
	httperrors "github.com/dropDatabas3/usersvc/internal/http/errors"
	mw "github.com/dropDatabas3/usersvc/internal/http/middlewares"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Users  *usersctrl.UsersController
	Health *healthctrl.HealthController

	// Gatherer de /metrics. nil = prometheus.DefaultGatherer.
	Metrics prometheus.Gatherer
}

// New crea el handler raíz. Cadena base: recover → request id → metrics → logging.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound.WithDetail(r.Method+" "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed.WithDetail(r.Method+" "+r.URL.Path))
	})

	if deps.Users != nil {
		RegisterUsersRoutes(r, deps.Users)
	}
	if deps.Health != nil {
		RegisterHealthRoutes(r, deps.Health)
	}

	gatherer := deps.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mw.Chain(r,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithMetrics(),
		mw.WithLogging(),
	)
}
