package users

import (
	"errors"
	"fmt"
)

// Errores del servicio. Se comparan con errors.Is; el mensaje del error
// devuelto es el texto para el cliente.
var (
	ErrUserInvalidInput   = errors.New("invalid user input")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserEmailDuplicate = errors.New("email already exists")
)

// Error es un error de negocio con mensaje legible.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func invalid(msg string) error { return &Error{Kind: ErrUserInvalidInput, Message: msg} }

func notFound(id string) error {
	return &Error{Kind: ErrUserNotFound, Message: fmt.Sprintf("User with id '%s' not found", id)}
}

func duplicate(email string) error {
	return &Error{Kind: ErrUserEmailDuplicate, Message: fmt.Sprintf("User with email '%s' already exists", email)}
}
