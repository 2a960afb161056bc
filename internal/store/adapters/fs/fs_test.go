package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usersvc/internal/store"
	_ "github.com/dropDatabas3/usersvc/internal/store/adapters/fs"
	"github.com/dropDatabas3/usersvc/internal/store/storetest"
)

func connect(t *testing.T, root string) store.Connection {
	t.Helper()
	adapter, ok := store.GetAdapter("fs")
	require.True(t, ok, "fs adapter not registered")
	conn, err := adapter.Connect(context.Background(), store.AdapterConfig{DSN: root})
	require.NoError(t, err)
	require.NoError(t, conn.EnsureDatabase(context.Background(), "testdb"))
	return conn
}

func TestFSAdapterConnectRequiresDSN(t *testing.T) {
	adapter, _ := store.GetAdapter("fs")
	_, err := adapter.Connect(context.Background(), store.AdapterConfig{})
	assert.True(t, errors.Is(err, store.ErrInvalidConfig))
}

func TestFSContainerSuite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Container {
		conn := connect(t, t.TempDir())
		c, err := conn.EnsureContainer(context.Background(), "testdb",
			store.ContainerSpec{Name: "items", PartitionKeyPath: "/partitionKey"})
		require.NoError(t, err)
		return c
	})
}

func TestFSEnsureContainerWritesDefinition(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	conn := connect(t, root)
	throughput := 400

	_, err := conn.EnsureContainer(ctx, "testdb", store.ContainerSpec{Name: "users", PartitionKeyPath: "/partitionKey", Throughput: &throughput})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(root, "testdb", "users", "container.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "partitionKeyPath: /partitionKey")
	assert.Contains(t, string(raw), "throughput: 400")

	// una conexión nueva sobre el mismo root ve la definición
	other := connect(t, root)
	_, err = other.EnsureContainer(ctx, "testdb", store.ContainerSpec{Name: "users", PartitionKeyPath: "/email"})
	assert.True(t, errors.Is(err, store.ErrContainerMismatch))

	_, err = other.EnsureContainer(ctx, "testdb", store.ContainerSpec{Name: "../escape", PartitionKeyPath: "/partitionKey"})
	assert.True(t, errors.Is(err, store.ErrInvalidConfig))
}
