// Package metrics define los collectors Prometheus del servicio. Viven en un
// paquete propio para que store y http los compartan sin ciclos de import.
package metrics

import (
	"errors"
	"time"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ─── HTTP ───

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método y ruta",
	}, []string{"method", "path"})

	// ─── Store ───

	StoreOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_operations_total",
		Help: "Operaciones contra containers por resultado",
	}, []string{"container", "op", "result"}) // result: ok|not_found|conflict|error

	StoreOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_duration_seconds",
		Help:    "Latencia de operaciones contra containers",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"container", "op"})

	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_cache_lookups_total",
		Help: "Lecturas puntuales servidas por el cache (hit) o por el store (miss)",
	}, []string{"container", "result"})
)

// Register registra todos los collectors en reg (o el default si es nil).
// Los duplicados se ignoran para que sea seguro llamarlo más de una vez.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPInflight,
		StoreOperationsTotal,
		StoreOperationDuration,
		CacheLookupsTotal,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// ObserveStoreOp registra latencia y resultado de una operación de container.
func ObserveStoreOp(container, op string, start time.Time, err error) {
	StoreOperationDuration.WithLabelValues(container, op).Observe(time.Since(start).Seconds())
	StoreOperationsTotal.WithLabelValues(container, op, Result(err)).Inc()
}

// Result clasifica un error para la label "result".
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case repository.IsNotFound(err):
		return "not_found"
	case repository.IsConflict(err):
		return "conflict"
	default:
		return "error"
	}
}
