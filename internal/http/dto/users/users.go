// Package users define los DTOs HTTP del recurso /users.
package users

import "time"

// UserDTO es la representación externa de un usuario.
//
// En la entrada solo se leen los cuatro campos de negocio; id y timestamps son
// de solo lectura y se ignoran. IsActive es puntero para distinguir "omitido"
// (default true en create, sin cambio en update) de false.
type UserDTO struct {
	ID        string     `json:"id,omitempty"`
	FirstName string     `json:"firstName" validate:"required"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email" validate:"required"`
	IsActive  *bool      `json:"isActive,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// PageResponse es una página de usuarios. ContinuationToken vacío = última página.
type PageResponse struct {
	Items             []UserDTO `json:"items"`
	ContinuationToken string    `json:"continuationToken,omitempty"`
}

// CountResponse respuesta de GET /users/count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// Bool es un helper para construir DTOs.
func Bool(b bool) *bool { return &b }
