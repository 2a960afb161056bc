package repository

import "context"

// UsersPartition es la partición fija de todos los usuarios.
const UsersPartition = "users"

// User representa un usuario del sistema.
// Email es único a nivel negocio (comparación case-insensitive).
type User struct {
	BaseEntity
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	IsActive  bool   `json:"isActive"`
}

// PartitionKeyValue implementa Entity.
func (User) PartitionKeyValue() string { return UsersPartition }

// UserRepository define operaciones de persistencia para usuarios.
// Todas las lecturas y escrituras quedan acotadas a UsersPartition.
type UserRepository interface {
	// GetByID busca por ID. Retorna (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail busca por email sin distinguir mayúsculas. (nil, nil) si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ListAll devuelve todos los usuarios.
	ListAll(ctx context.Context) ([]*User, error)

	// ListActive devuelve los usuarios con IsActive = true.
	ListActive(ctx context.Context) ([]*User, error)

	// ListPaged devuelve una página. token vacío pide la primera.
	ListPaged(ctx context.Context, pageSize int, token string) (Page[User], error)

	// Count devuelve la cantidad de usuarios.
	Count(ctx context.Context) (int64, error)

	// Create inserta un usuario. ErrConflict si el ID ya existe.
	Create(ctx context.Context, u *User) (*User, error)

	// Update reemplaza un usuario existente. ErrNotFound si no existe.
	Update(ctx context.Context, u *User) (*User, error)

	// Delete elimina un usuario. ErrNotFound si no existe.
	Delete(ctx context.Context, id string) error
}
