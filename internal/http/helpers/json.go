// Package helpers contiene utilidades comunes de los controllers.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/usersvc/internal/http/errors"
)

// MaxBodyBytes límite del body JSON.
const MaxBodyBytes = 1 << 20

// ReadJSON decodifica el body en v. Los nombres de propiedad se matchean sin
// distinguir mayúsculas y los campos desconocidos se ignoran. Body vacío deja
// v sin tocar y devuelve (false, nil).
//
// Los errores devueltos ya son *AppError listos para WriteError.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) (bool, error) {
	if ct := strings.ToLower(r.Header.Get("Content-Type")); ct != "" && !strings.Contains(ct, "application/json") {
		return false, httperrors.ErrBadRequest.WithDetail("Content-Type debe ser application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return false, httperrors.ErrBodyTooLarge
		}
		return false, httperrors.ErrInvalidJSON.WithCause(err)
	}
	return true, nil
}

// WriteJSON escribe una respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// QueryInt lee un entero del query string. Ausente => def.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, httperrors.ErrInvalidParameter.WithDetail(key + " debe ser un entero")
	}
	return n, nil
}

// PathParam devuelve el parámetro de ruta ya decodificado. Si la URL trae
// escapes que cambian el path (%40, %2B) chi rutea sobre RawPath y entrega el
// segmento crudo, así que se decodifica acá. Sin RawPath el valor ya viene
// decodificado y se devuelve tal cual.
func PathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	out, err := url.PathUnescape(v)
	if err != nil {
		return "", httperrors.ErrInvalidParameter.WithDetail(key + " tiene un escape inválido")
	}
	return out, nil
}
