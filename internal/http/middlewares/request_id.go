package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader header de entrada y salida del request ID.
const RequestIDHeader = "X-Request-ID"

// WithRequestID usa el X-Request-ID del cliente o genera uno nuevo. El ID se
// expone en el header de respuesta y se inyecta en el contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}
