package store

import (
	"context"
	"strings"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
)

const (
	// UsersContainer y UsersPartitionKeyPath definen el container de usuarios.
	UsersContainer        = "users"
	UsersPartitionKeyPath = "/partitionKey"

	queryUserByEmail = `SELECT * FROM c WHERE LOWER(c.email) = @email AND c.partitionKey = @partitionKey`
	queryActiveUsers = `SELECT * FROM c WHERE c.isActive = true AND c.partitionKey = @partitionKey`
)

// UsersContainerSpec devuelve la definición del container de usuarios.
func UsersContainerSpec(throughput *int) ContainerSpec {
	return ContainerSpec{
		Name:             UsersContainer,
		PartitionKeyPath: UsersPartitionKeyPath,
		Throughput:       throughput,
	}
}

// UserRepository implementa repository.UserRepository sobre la base genérica,
// acotado a la partición repository.UsersPartition.
type UserRepository struct {
	base *Repository[repository.User, *repository.User]
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository crea el repositorio sobre el container ya provisionado.
func NewUserRepository(c Container, opts ...RepositoryOption) *UserRepository {
	return &UserRepository{base: NewRepository[repository.User, *repository.User](c, opts...)}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return r.base.GetByID(ctx, id, repository.UsersPartition)
}

// GetByEmail compara sin distinguir mayúsculas; devuelve el primer match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	users, err := r.base.Query(ctx, queryUserByEmail, map[string]any{
		"email":        strings.ToLower(strings.TrimSpace(email)),
		"partitionKey": repository.UsersPartition,
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*repository.User, error) {
	return r.base.ListAll(ctx, repository.UsersPartition)
}

func (r *UserRepository) ListActive(ctx context.Context) ([]*repository.User, error) {
	return r.base.Query(ctx, queryActiveUsers, map[string]any{
		"partitionKey": repository.UsersPartition,
	})
}

func (r *UserRepository) ListPaged(ctx context.Context, pageSize int, token string) (repository.Page[repository.User], error) {
	return r.base.ListPaged(ctx, repository.UsersPartition, pageSize, token)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.base.Count(ctx, repository.UsersPartition)
}

func (r *UserRepository) Create(ctx context.Context, u *repository.User) (*repository.User, error) {
	return r.base.Create(ctx, u)
}

func (r *UserRepository) Update(ctx context.Context, u *repository.User) (*repository.User, error) {
	return r.base.Update(ctx, u)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.base.Delete(ctx, id, repository.UsersPartition)
}
