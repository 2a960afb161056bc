// Package storetest contiene el set de pruebas común que todo adapter de
// store debe pasar.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usersvc/internal/store"
	"github.com/dropDatabas3/usersvc/internal/store/query"
)

// Factory devuelve un container vacío con partition key path "/partitionKey".
type Factory func(t *testing.T) store.Container

func doc(t *testing.T, id, pk string, extra map[string]any) store.Item {
	t.Helper()
	m := map[string]any{"id": id, "partitionKey": pk}
	for k, v := range extra {
		m[k] = v
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return store.Item{ID: id, PartitionKey: pk, Data: data}
}

func bind(t *testing.T, text string, params map[string]any) *query.Bound {
	t.Helper()
	stmt, err := query.Parse(text)
	require.NoError(t, err)
	b, err := stmt.Bind(params)
	require.NoError(t, err)
	return b
}

// Run ejecuta el set completo contra containers creados por newContainer.
func Run(t *testing.T, newContainer Factory) {
	t.Run("CreateReadReplaceDelete", func(t *testing.T) { testCRUD(t, newContainer(t)) })
	t.Run("Upsert", func(t *testing.T) { testUpsert(t, newContainer(t)) })
	t.Run("InvalidDocument", func(t *testing.T) { testInvalidDocument(t, newContainer(t)) })
	t.Run("QueryOrderAndFilter", func(t *testing.T) { testQuery(t, newContainer(t)) })
	t.Run("QueryPagination", func(t *testing.T) { testPagination(t, newContainer(t)) })
	t.Run("BadContinuation", func(t *testing.T) { testBadContinuation(t, newContainer(t)) })
}

func testCRUD(t *testing.T, c store.Container) {
	ctx := context.Background()

	_, err := c.Read(ctx, "a", "p")
	require.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	created, err := c.Create(ctx, doc(t, "a", "p", map[string]any{"name": "one"}))
	require.NoError(t, err)
	require.NotEmpty(t, created.ETag)

	_, err = c.Create(ctx, doc(t, "a", "p", nil))
	require.True(t, errors.Is(err, store.ErrConflict), "got %v", err)

	// mismo id en otra partición es otro documento
	_, err = c.Create(ctx, doc(t, "a", "q", nil))
	require.NoError(t, err)

	got, err := c.Read(ctx, "a", "p")
	require.NoError(t, err)
	assert.Equal(t, created.ETag, got.ETag)
	var body map[string]any
	require.NoError(t, json.Unmarshal(got.Data, &body))
	assert.Equal(t, "one", body["name"])
	assert.Equal(t, created.ETag, body["_etag"])

	replaced, err := c.Replace(ctx, doc(t, "a", "p", map[string]any{"name": "two"}))
	require.NoError(t, err)
	assert.NotEqual(t, created.ETag, replaced.ETag)

	_, err = c.Replace(ctx, doc(t, "missing", "p", nil))
	require.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	require.NoError(t, c.Delete(ctx, "a", "p"))
	err = c.Delete(ctx, "a", "p")
	require.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	_, err = c.Read(ctx, "a", "q")
	require.NoError(t, err)
}

func testUpsert(t *testing.T, c store.Container) {
	ctx := context.Background()

	first, err := c.Upsert(ctx, doc(t, "u", "p", map[string]any{"v": 1}))
	require.NoError(t, err)
	second, err := c.Upsert(ctx, doc(t, "u", "p", map[string]any{"v": 2}))
	require.NoError(t, err)
	assert.NotEqual(t, first.ETag, second.ETag)

	got, err := c.Read(ctx, "u", "p")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(got.Data, &body))
	assert.EqualValues(t, 2, body["v"])
}

func testInvalidDocument(t *testing.T, c store.Container) {
	ctx := context.Background()

	_, err := c.Create(ctx, store.Item{ID: "x", PartitionKey: "p", Data: []byte(`not json`)})
	assert.True(t, errors.Is(err, store.ErrInvalidDocument), "got %v", err)

	_, err = c.Create(ctx, store.Item{ID: "x", PartitionKey: "p", Data: []byte(`{"id":"y"}`)})
	assert.True(t, errors.Is(err, store.ErrInvalidDocument), "got %v", err)
}

func testQuery(t *testing.T, c store.Container) {
	ctx := context.Background()
	for _, d := range []struct {
		id, pk string
		n      int
	}{
		{"c", "p1", 3}, {"a", "p2", 1}, {"b", "p1", 2}, {"a", "p1", 5},
	} {
		_, err := c.Create(ctx, doc(t, d.id, d.pk, map[string]any{"n": d.n}))
		require.NoError(t, err)
	}

	page, err := c.Query(ctx, bind(t, "SELECT * FROM c", nil), store.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Continuation)
	var keys []string
	for _, it := range page.Items {
		keys = append(keys, it.PartitionKey+"/"+it.ID)
	}
	assert.Equal(t, []string{"p1/a", "p1/b", "p1/c", "p2/a"}, keys)

	q := bind(t, "SELECT * FROM c WHERE c.n >= @min", map[string]any{"min": 2})
	page, err = c.Query(ctx, q, store.QueryOptions{PartitionKey: "p1"})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	n, err := c.Count(ctx, q, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = c.Count(ctx, bind(t, "SELECT * FROM c", nil), "p2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testPagination(t *testing.T, c store.Container) {
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := c.Create(ctx, doc(t, fmt.Sprintf("id-%02d", i), "p", nil))
		require.NoError(t, err)
	}

	all := bind(t, "SELECT * FROM c", nil)
	var seen []string
	token := ""
	pages := 0
	for {
		page, err := c.Query(ctx, all, store.QueryOptions{PartitionKey: "p", MaxItems: 3, Continuation: token})
		require.NoError(t, err)
		pages++
		for _, it := range page.Items {
			seen = append(seen, it.ID)
		}
		if page.Continuation == "" {
			break
		}
		token = page.Continuation
		require.Less(t, pages, 10)
	}
	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 7)
	assert.Equal(t, "id-00", seen[0])
	assert.Equal(t, "id-06", seen[6])
}

func testBadContinuation(t *testing.T, c store.Container) {
	_, err := c.Query(context.Background(), bind(t, "SELECT * FROM c", nil),
		store.QueryOptions{MaxItems: 1, Continuation: "%%%"})
	assert.True(t, errors.Is(err, store.ErrInvalidQuery), "got %v", err)
}
