// Package validation centraliza las reglas de validación de entrada basadas
// en struct tags (go-playground/validator).
package validation

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// V devuelve el validador compartido. *validator.Validate es seguro para uso
// concurrente y cachea la metadata de cada tipo.
func V() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Struct valida v según sus tags `validate`.
func Struct(v any) error {
	return V().Struct(v)
}

// FailedFields devuelve el set de campos (nombre Go) que no pasaron la
// validación. Errores que no son de validación devuelven nil.
func FailedFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.StructField()] = fe.Tag()
	}
	return out
}

// FirstFailed devuelve el primer campo de order que falló, respetando ese orden.
func FirstFailed(err error, order ...string) (field, tag string, ok bool) {
	failed := FailedFields(err)
	for _, f := range order {
		if t, hit := failed[f]; hit {
			return f, t, true
		}
	}
	return "", "", false
}
