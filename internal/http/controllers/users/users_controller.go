// Package users contiene el controller HTTP del recurso /users.
package users

import (
	"errors"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/usersvc/internal/http/dto/users"
	httperrors "github.com/dropDatabas3/usersvc/internal/http/errors"
	"github.com/dropDatabas3/usersvc/internal/http/helpers"
	svc "github.com/dropDatabas3/usersvc/internal/http/services/users"
	"github.com/dropDatabas3/usersvc/internal/observability/logger"
)

// UsersController maneja las operaciones CRUD de usuarios.
type UsersController struct {
	service svc.Service
}

// NewUsersController crea una nueva instancia del controller.
func NewUsersController(service svc.Service) *UsersController {
	return &UsersController{service: service}
}

// ListUsers maneja GET /users
func (c *UsersController) ListUsers(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.ListAll(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

// ListActiveUsers maneja GET /users/active
func (c *UsersController) ListActiveUsers(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.ListActive(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

// ListUsersPage maneja GET /users/page?pageSize=&continuationToken=
func (c *UsersController) ListUsersPage(w http.ResponseWriter, r *http.Request) {
	pageSize, err := helpers.QueryInt(r, "pageSize", 0)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("continuationToken"))

	result, err := c.service.ListPage(r.Context(), pageSize, token)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

// CountUsers maneja GET /users/count
func (c *UsersController) CountUsers(w http.ResponseWriter, r *http.Request) {
	n, err := c.service.Count(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.CountResponse{Count: n})
}

// GetUser maneja GET /users/{id}
func (c *UsersController) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.PathParam(r, "id")
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	result, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if result == nil {
		httperrors.WriteError(w, httperrors.ErrUserNotFound.WithDetail(id))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

// GetUserByEmail maneja GET /users/email/{email}
func (c *UsersController) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := helpers.PathParam(r, "email")
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	result, err := c.service.GetByEmail(r.Context(), email)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if result == nil {
		httperrors.WriteError(w, httperrors.ErrUserNotFound)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

// CreateUser maneja POST /users
func (c *UsersController) CreateUser(w http.ResponseWriter, r *http.Request) {
	in, err := readUser(w, r)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	result, err := c.service.Create(r.Context(), in)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/users/"+result.ID)
	helpers.WriteJSON(w, http.StatusCreated, result)
}

// UpdateUser maneja PUT /users/{id}
func (c *UsersController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.PathParam(r, "id")
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	in, err := readUser(w, r)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	result, err := c.service.Update(r.Context(), id, in)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

// DeleteUser maneja DELETE /users/{id}
func (c *UsersController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.PathParam(r, "id")
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if err := c.service.Delete(r.Context(), id); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readUser decodifica el body. Body vacío => nil (el service lo rechaza).
func readUser(w http.ResponseWriter, r *http.Request) (*dto.UserDTO, error) {
	var in dto.UserDTO
	ok, err := helpers.ReadJSON(w, r, &in)
	if err != nil || !ok {
		return nil, err
	}
	return &in, nil
}

// writeError es el único punto que traduce errores del service a HTTP.
func (c *UsersController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.From(r.Context()).With(logger.Layer("controller"))

	var appErr *httperrors.AppError
	var svcErr *svc.Error
	switch {
	case errors.As(err, &appErr):
		log.Warn("bad request", logger.Err(err))
		httperrors.WriteError(w, appErr)
	case errors.Is(err, svc.ErrUserInvalidInput) && errors.As(err, &svcErr):
		httperrors.WriteError(w, httperrors.ErrValidation.WithMessage(svcErr.Message))
	case errors.Is(err, svc.ErrUserNotFound) && errors.As(err, &svcErr):
		httperrors.WriteError(w, httperrors.ErrUserNotFound.WithMessage(svcErr.Message))
	case errors.Is(err, svc.ErrUserEmailDuplicate) && errors.As(err, &svcErr):
		httperrors.WriteError(w, httperrors.ErrEmailInUse.WithMessage(svcErr.Message))
	default:
		log.Error("unhandled error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}
