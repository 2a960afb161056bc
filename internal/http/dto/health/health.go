// Package health define los DTOs de health check.
package health

import "time"

// HealthStatus estado de un componente.
type HealthStatus struct {
	Status  string         `json:"status"` // ok | error | disabled
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthResponse respuesta de /readyz.
type HealthResponse struct {
	Status     string                  `json:"status"` // ready | degraded | unavailable
	Version    string                  `json:"version,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// LivenessResponse respuesta de /healthz.
type LivenessResponse struct {
	Status string `json:"status"`
}
