package users

import (
	"strings"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
	dto "github.com/dropDatabas3/usersvc/internal/http/dto/users"
)

// normalize recorta espacios de los campos de texto.
func normalize(in dto.UserDTO) dto.UserDTO {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// newEntity arma un usuario nuevo; id y timestamps los asigna el repositorio.
func newEntity(in dto.UserDTO) *repository.User {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &repository.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		IsActive:  active,
	}
}

// merge pisa los campos de negocio; id, createdAt y partición se conservan.
func merge(u *repository.User, in dto.UserDTO) {
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
}

func toDTO(u *repository.User) *dto.UserDTO {
	created, updated := u.CreatedAt, u.UpdatedAt
	return &dto.UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		IsActive:  dto.Bool(u.IsActive),
		CreatedAt: &created,
		UpdatedAt: &updated,
	}
}

func toDTOs(users []*repository.User) []dto.UserDTO {
	out := make([]dto.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, *toDTO(u))
	}
	return out
}
