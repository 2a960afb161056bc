package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
	"github.com/dropDatabas3/usersvc/internal/store"
)

func seedUsers(t *testing.T, repo *store.UserRepository) []*repository.User {
	t.Helper()
	var out []*repository.User
	for _, u := range []repository.User{
		{FirstName: "John", LastName: "Doe", Email: "John.Doe@Example.com", IsActive: true},
		{FirstName: "Jane", LastName: "Roe", Email: "jane@example.com", IsActive: false},
		{FirstName: "Ana", LastName: "Paz", Email: "ana@example.com", IsActive: true},
	} {
		u := u
		created, err := repo.Create(context.Background(), &u)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestUserRepositoryGetByEmailIgnoresCase(t *testing.T) {
	ctx := context.Background()
	repo := store.NewUserRepository(usersContainer(t, openMemory(t)))
	users := seedUsers(t, repo)

	got, err := repo.GetByEmail(ctx, "  JOHN.DOE@example.COM ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, users[0].ID, got.ID)
	assert.Equal(t, "John.Doe@Example.com", got.Email)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepositoryListActiveAndCount(t *testing.T) {
	ctx := context.Background()
	repo := store.NewUserRepository(usersContainer(t, openMemory(t)))
	seedUsers(t, repo)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	for _, u := range active {
		assert.True(t, u.IsActive)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestUserRepositoryPartitionIsFixed(t *testing.T) {
	ctx := context.Background()
	repo := store.NewUserRepository(usersContainer(t, openMemory(t)))

	u, err := repo.Create(ctx, &repository.User{FirstName: "X", Email: "x@example.com", BaseEntity: repository.BaseEntity{PartitionKey: "other"}})
	require.NoError(t, err)
	assert.Equal(t, repository.UsersPartition, u.PartitionKey)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, repository.UsersPartition, got.PartitionKey)

	require.NoError(t, repo.Delete(ctx, u.ID))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepositoryListPaged(t *testing.T) {
	ctx := context.Background()
	repo := store.NewUserRepository(usersContainer(t, openMemory(t)))
	seedUsers(t, repo)

	page, err := repo.ListPaged(ctx, 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.True(t, page.HasMore())

	page, err = repo.ListPaged(ctx, 2, page.ContinuationToken)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore())
}
