// Package users contiene las reglas de negocio del recurso usuario.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/usersvc/internal/audit"
	"github.com/dropDatabas3/usersvc/internal/domain/repository"
	dto "github.com/dropDatabas3/usersvc/internal/http/dto/users"
	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"github.com/dropDatabas3/usersvc/internal/util"
	"github.com/dropDatabas3/usersvc/internal/validation"
)

// Service define las operaciones sobre usuarios.
type Service interface {
	ListAll(ctx context.Context) ([]dto.UserDTO, error)
	ListActive(ctx context.Context) ([]dto.UserDTO, error)
	ListPage(ctx context.Context, pageSize int, token string) (*dto.PageResponse, error)
	Count(ctx context.Context) (int64, error)
	// GetByID retorna (nil, nil) si no existe o si id está vacío.
	GetByID(ctx context.Context, id string) (*dto.UserDTO, error)
	// GetByEmail retorna (nil, nil) si no existe o si email está vacío.
	GetByEmail(ctx context.Context, email string) (*dto.UserDTO, error)
	Create(ctx context.Context, in *dto.UserDTO) (*dto.UserDTO, error)
	Update(ctx context.Context, id string, in *dto.UserDTO) (*dto.UserDTO, error)
	Delete(ctx context.Context, id string) error
}

// Deps contiene las dependencias del service.
type Deps struct {
	Repo repository.UserRepository
}

type service struct {
	repo repository.UserRepository
}

// NewService crea una nueva instancia del servicio.
func NewService(d Deps) Service {
	return &service{repo: d.Repo}
}

func (s *service) ListAll(ctx context.Context) ([]dto.UserDTO, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		logger.From(ctx).Error("failed to list users", logger.Err(err))
		return nil, fmt.Errorf("list users: %w", err)
	}
	return toDTOs(users), nil
}

func (s *service) ListActive(ctx context.Context) ([]dto.UserDTO, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		logger.From(ctx).Error("failed to list active users", logger.Err(err))
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return toDTOs(users), nil
}

func (s *service) ListPage(ctx context.Context, pageSize int, token string) (*dto.PageResponse, error) {
	page, err := s.repo.ListPaged(ctx, pageSize, token)
	if err != nil {
		if repository.IsInvalidInput(err) {
			return nil, invalid("Invalid continuation token")
		}
		logger.From(ctx).Error("failed to page users", logger.Err(err))
		return nil, fmt.Errorf("page users: %w", err)
	}
	return &dto.PageResponse{Items: toDTOs(page.Items), ContinuationToken: page.ContinuationToken}, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		logger.From(ctx).Error("failed to count users", logger.Err(err))
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*dto.UserDTO, error) {
	log := logger.From(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		log.Warn("get user called with empty id")
		return nil, nil
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to get user", logger.Err(err), logger.UserID(id))
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if u == nil {
		return nil, nil
	}
	return toDTO(u), nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*dto.UserDTO, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		logger.From(ctx).Error("failed to get user by email", logger.Err(err), logger.Email(util.MaskEmail(email)))
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	return toDTO(u), nil
}

func (s *service) Create(ctx context.Context, in *dto.UserDTO) (*dto.UserDTO, error) {
	log := logger.From(ctx)

	// 1. Validación
	if in == nil {
		return nil, invalid("User payload is required")
	}
	req := normalize(*in)
	if err := validateUser(req); err != nil {
		log.Warn("invalid user payload", logger.Err(err))
		return nil, err
	}

	// 2. Email único
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		log.Error("failed to check email", logger.Err(err))
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, duplicate(req.Email)
	}

	// 3. Persistir entidad nueva
	created, err := s.repo.Create(ctx, newEntity(req))
	if err != nil {
		if repository.IsConflict(err) {
			return nil, duplicate(req.Email)
		}
		log.Error("failed to create user", logger.Err(err), logger.Email(util.MaskEmail(req.Email)))
		return nil, fmt.Errorf("create user: %w", err)
	}

	audit.Log(ctx, audit.UserCreated, logger.UserID(created.ID), logger.Email(util.MaskEmail(created.Email)))
	return toDTO(created), nil
}

func (s *service) Update(ctx context.Context, id string, in *dto.UserDTO) (*dto.UserDTO, error) {
	log := logger.From(ctx)

	// 1. Validación
	if in == nil {
		return nil, invalid("User payload is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("Id is required")
	}
	req := normalize(*in)
	if err := validateUser(req); err != nil {
		log.Warn("invalid user payload", logger.Err(err), logger.UserID(id))
		return nil, err
	}

	// 2. Existe
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to get user", logger.Err(err), logger.UserID(id))
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if current == nil {
		return nil, notFound(id)
	}

	// 3. Si cambia el email, que no lo tenga otro usuario
	if !strings.EqualFold(current.Email, req.Email) {
		other, err := s.repo.GetByEmail(ctx, req.Email)
		if err != nil {
			log.Error("failed to check email", logger.Err(err))
			return nil, fmt.Errorf("check email: %w", err)
		}
		if other != nil && other.ID != id {
			return nil, duplicate(req.Email)
		}
	}

	// 4. Merge + persistir
	merge(current, req)
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound(id)
		}
		log.Error("failed to update user", logger.Err(err), logger.UserID(id))
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	audit.Log(ctx, audit.UserUpdated, logger.UserID(id))
	return toDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	log := logger.From(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("Id is required")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to get user", logger.Err(err), logger.UserID(id))
		return fmt.Errorf("get user %s: %w", id, err)
	}
	if current == nil {
		return notFound(id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound(id)
		}
		log.Error("failed to delete user", logger.Err(err), logger.UserID(id))
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	audit.Log(ctx, audit.UserDeleted, logger.UserID(id))
	return nil
}

// validateUser aplica los tags del DTO. Email se reporta antes que FirstName.
func validateUser(req dto.UserDTO) error {
	err := validation.Struct(req)
	if err == nil {
		return nil
	}
	if field, _, ok := validation.FirstFailed(err, "Email", "FirstName"); ok {
		return invalid(field + " is required")
	}
	return invalid(err.Error())
}
