// Package audit emite eventos de auditoría de las mutaciones de negocio.
package audit

import (
	"context"
	"time"

	"github.com/dropDatabas3/usersvc/internal/observability/logger"
)

// Eventos de usuarios.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

// Log escribe un evento de auditoría en el logger "audit" del contexto, así
// hereda request_id cuando viene de un request HTTP.
func Log(ctx context.Context, event string, fields ...logger.Field) {
	base := []logger.Field{
		logger.String("event", event),
		logger.String("ts", time.Now().UTC().Format(time.RFC3339Nano)),
	}
	logger.From(ctx).Named("audit").Info(event, append(base, fields...)...)
}
