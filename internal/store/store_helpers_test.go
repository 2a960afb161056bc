package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usersvc/internal/store"
	"github.com/dropDatabas3/usersvc/internal/store/adapters/badger"
)

func openMemory(t *testing.T, opts ...store.Option) *store.Client {
	t.Helper()
	c, err := store.Open(context.Background(), store.Config{
		Driver:   "badger",
		DSN:      badger.MemoryDSN,
		Database: "testdb",
	}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func usersContainer(t *testing.T, c *store.Client) store.Container {
	t.Helper()
	ct, err := c.EnsureContainer(context.Background(), store.UsersContainerSpec(nil))
	require.NoError(t, err)
	return ct
}
