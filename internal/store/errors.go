package store

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
	"github.com/dropDatabas3/usersvc/internal/store/query"
)

var (
	// ErrNotFound y ErrConflict son los errores de dominio; los adapters los
	// devuelven envueltos para que repository.IsNotFound/IsConflict funcionen.
	ErrNotFound = repository.ErrNotFound
	ErrConflict = repository.ErrConflict

	// ErrInvalidQuery texto de query inválido o parámetros faltantes.
	ErrInvalidQuery = query.ErrInvalidQuery

	// ErrInvalidConfig configuración de conexión incompleta.
	ErrInvalidConfig = errors.New("store: invalid configuration")

	// ErrContainerMismatch el container existe con otra definición.
	ErrContainerMismatch = errors.New("store: container definition mismatch")

	// ErrInvalidDocument el documento no tiene id o no es un objeto JSON.
	ErrInvalidDocument = errors.New("store: invalid document")

	// ErrClosed el cliente ya fue cerrado.
	ErrClosed = errors.New("store: client closed")
)

// OpError agrega contexto (operación y container) a un error del adapter
// conservando el sentinel para errors.Is.
type OpError struct {
	Op        string
	Container string
	Err       error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Container, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func wrapOp(op, container string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return &OpError{Op: op, Container: container, Err: err}
}
