// Package health contiene el service para health checks.
package health

import (
	"context"
	"time"

	"github.com/dropDatabas3/usersvc/internal/cache"
	dto "github.com/dropDatabas3/usersvc/internal/http/dto/health"
	"github.com/dropDatabas3/usersvc/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// StorePinger abstrae el cliente de store para el chequeo.
type StorePinger interface {
	Ping(ctx context.Context) error
	Driver() string
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Store   StorePinger
	Cache   cache.Client // nil = sin cache
	Version string
	Timeout time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

// Check consulta store (crítico) y cache (no crítico). Store caído =>
// "unavailable"; cache caído => "degraded".
func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"))

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:     "ready",
		Version:    s.deps.Version,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]dto.HealthStatus),
	}

	// 1) Store
	switch {
	case s.deps.Store == nil:
		resp.Components["store"] = dto.HealthStatus{Status: "error", Message: "not initialized"}
		resp.Status = "unavailable"
	default:
		if err := s.deps.Store.Ping(ctx); err != nil {
			log.Error("store unavailable", logger.Err(err))
			resp.Components["store"] = dto.HealthStatus{Status: "error", Message: "unavailable"}
			resp.Status = "unavailable"
		} else {
			resp.Components["store"] = dto.HealthStatus{
				Status:  "ok",
				Details: map[string]any{"driver": s.deps.Store.Driver()},
			}
		}
	}

	// 2) Cache
	if s.deps.Cache == nil {
		resp.Components["cache"] = dto.HealthStatus{Status: "disabled"}
		return resp
	}
	if err := s.deps.Cache.Ping(ctx); err != nil {
		log.Warn("cache unavailable", logger.Err(err))
		resp.Components["cache"] = dto.HealthStatus{Status: "error", Message: "unavailable"}
		if resp.Status == "ready" {
			resp.Status = "degraded"
		}
		return resp
	}
	st := dto.HealthStatus{Status: "ok"}
	if stats, err := s.deps.Cache.Stats(ctx); err == nil {
		st.Details = map[string]any{
			"driver": stats.Driver,
			"keys":   stats.Keys,
			"hits":   stats.Hits,
			"misses": stats.Misses,
		}
	}
	resp.Components["cache"] = st
	return resp
}
