package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usersvc/internal/store"
)

func TestOpenValidatesConfig(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  store.Config
	}{
		{"empty DSN", store.Config{Database: "db"}},
		{"blank DSN", store.Config{DSN: "   ", Database: "db"}},
		{"empty database", store.Config{DSN: ":memory:"}},
		{"unknown driver", store.Config{Driver: "cosmos", DSN: "x", Database: "db"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Open(ctx, tc.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, store.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestOpenDefaultsToBadger(t *testing.T) {
	c, err := store.Open(context.Background(), store.Config{DSN: ":memory:", Database: "db"})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "badger", c.Driver())
	assert.Equal(t, "db", c.Database())
}

func TestEnsureContainerIdempotent(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)

	first, err := c.EnsureContainer(ctx, store.UsersContainerSpec(nil))
	require.NoError(t, err)
	second, err := c.EnsureContainer(ctx, store.UsersContainerSpec(nil))
	require.NoError(t, err)
	assert.Same(t, first, second)

	got, ok := c.Container(store.UsersContainer)
	require.True(t, ok)
	assert.Equal(t, store.UsersPartitionKeyPath, got.PartitionKeyPath())
}

func TestEnsureContainerMismatch(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)
	usersContainer(t, c)

	_, err := c.EnsureContainer(ctx, store.ContainerSpec{Name: store.UsersContainer, PartitionKeyPath: "/email"})
	assert.True(t, errors.Is(err, store.ErrContainerMismatch), "got %v", err)
}

func TestEnsureContainerRejectsBadSpec(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)

	_, err := c.EnsureContainer(ctx, store.ContainerSpec{Name: "x", PartitionKeyPath: "partitionKey"})
	assert.True(t, errors.Is(err, store.ErrInvalidConfig))
	_, err = c.EnsureContainer(ctx, store.ContainerSpec{Name: " ", PartitionKeyPath: "/partitionKey"})
	assert.True(t, errors.Is(err, store.ErrInvalidConfig))
}

func TestProvisionCreatesAll(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)

	got, err := c.Provision(ctx,
		store.UsersContainerSpec(nil),
		store.ContainerSpec{Name: "audit", PartitionKeyPath: "/tenant"},
		store.ContainerSpec{Name: "sessions", PartitionKeyPath: "/userId"},
	)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "/tenant", got["audit"].PartitionKeyPath())
}

func TestProvisionFailsOnMismatch(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)
	usersContainer(t, c)

	_, err := c.Provision(ctx,
		store.ContainerSpec{Name: "audit", PartitionKeyPath: "/tenant"},
		store.ContainerSpec{Name: store.UsersContainer, PartitionKeyPath: "/other"},
	)
	assert.True(t, errors.Is(err, store.ErrContainerMismatch))
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)
	require.NoError(t, c.Ping(ctx))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.True(t, errors.Is(c.Ping(ctx), store.ErrClosed))
	_, err := c.EnsureContainer(ctx, store.UsersContainerSpec(nil))
	assert.True(t, errors.Is(err, store.ErrClosed))
}
