package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
	"github.com/dropDatabas3/usersvc/internal/store"
)

// note es una entidad mínima para probar la base genérica fuera de usuarios.
type note struct {
	repository.BaseEntity
	Text string `json:"text"`
	Tag  string `json:"tag"`
}

func (note) PartitionKeyValue() string { return "notes" }

func newNotes(t *testing.T, opts ...store.RepositoryOption) *store.Repository[note, *note] {
	t.Helper()
	c := openMemory(t)
	ct, err := c.EnsureContainer(context.Background(), store.ContainerSpec{Name: "notes", PartitionKeyPath: "/partitionKey"})
	require.NoError(t, err)
	return store.NewRepository[note, *note](ct, opts...)
}

func fixedClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func TestRepositoryCreateAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("ART", -3*3600))
	repo := newNotes(t, store.WithClock(fixedClock(t0)))

	n, err := repo.Create(ctx, &note{Text: "hola"})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.NotEmpty(t, n.ETag)
	assert.Equal(t, "notes", n.PartitionKey)
	assert.Equal(t, time.UTC, n.CreatedAt.Location())
	assert.True(t, n.CreatedAt.Equal(t0))
	assert.Equal(t, n.CreatedAt, n.UpdatedAt)

	got, err := repo.GetByID(ctx, n.ID, "notes")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hola", got.Text)
	assert.Equal(t, n.ETag, got.ETag)
}

func TestRepositoryCreateKeepsGivenIDAndConflicts(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)

	n, err := repo.Create(ctx, &note{BaseEntity: repository.BaseEntity{ID: "fixed"}, Text: "a"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", n.ID)

	_, err = repo.Create(ctx, &note{BaseEntity: repository.BaseEntity{ID: "fixed"}, Text: "b"})
	assert.True(t, repository.IsConflict(err), "got %v", err)
}

func TestRepositoryGetByIDMissing(t *testing.T) {
	repo := newNotes(t)
	got, err := repo.GetByID(context.Background(), "nope", "notes")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	repo := newNotes(t, store.WithClock(fixedClock(t0, t1)))

	n, err := repo.Create(ctx, &note{Text: "v1"})
	require.NoError(t, err)
	etag := n.ETag

	n.Text = "v2"
	updated, err := repo.Update(ctx, n)
	require.NoError(t, err)
	assert.NotEqual(t, etag, updated.ETag)
	assert.True(t, updated.UpdatedAt.Equal(t1))

	got, err := repo.GetByID(ctx, n.ID, "notes")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Text)
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.True(t, got.UpdatedAt.Equal(t1))

	_, err = repo.Update(ctx, &note{BaseEntity: repository.BaseEntity{ID: "ghost"}})
	assert.True(t, repository.IsNotFound(err), "got %v", err)

	_, err = repo.Update(ctx, &note{Text: "sin id"})
	assert.True(t, errors.Is(err, repository.ErrInvalidInput), "got %v", err)
}

func TestRepositoryUpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	repo := newNotes(t, store.WithClock(fixedClock(t0, t1)))

	n, err := repo.Create(ctx, &note{Text: "v1"})
	require.NoError(t, err)

	// entidad armada a mano, sin createdAt
	updated, err := repo.Update(ctx, &note{BaseEntity: repository.BaseEntity{ID: n.ID}, Text: "v2"})
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(t0))

	got, err := repo.GetByID(ctx, n.ID, "notes")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Text)
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.True(t, got.UpdatedAt.Equal(t1))

	// un createdAt distinto tampoco pisa el guardado
	_, err = repo.Update(ctx, &note{BaseEntity: repository.BaseEntity{ID: n.ID, CreatedAt: t1.Add(time.Hour)}, Text: "v3"})
	require.NoError(t, err)
	got, err = repo.GetByID(ctx, n.ID, "notes")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(t0))
}

func TestRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)

	n, err := repo.Upsert(ctx, &note{Text: "nuevo"})
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())

	n.Text = "otra vez"
	_, err = repo.Upsert(ctx, n)
	require.NoError(t, err)

	count, err := repo.Count(ctx, "notes")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRepositoryDeleteAndExists(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)

	n, err := repo.Create(ctx, &note{Text: "x"})
	require.NoError(t, err)

	ok, err := repo.Exists(ctx, n.ID, "notes")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, n.ID, "notes"))
	assert.True(t, repository.IsNotFound(repo.Delete(ctx, n.ID, "notes")))

	ok, err = repo.Exists(ctx, n.ID, "notes")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryListAllEmpty(t *testing.T) {
	repo := newNotes(t)
	all, err := repo.ListAll(context.Background(), "notes")
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestRepositoryListPaged(t *testing.T) {
	ctx := context.Background()
	seq := 0
	repo := newNotes(t, store.WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("n-%03d", seq)
	}))
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &note{Text: fmt.Sprint(i)})
		require.NoError(t, err)
	}

	first, err := repo.ListPaged(ctx, "notes", 2, "")
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasMore())
	assert.Equal(t, "n-001", first.Items[0].ID)

	second, err := repo.ListPaged(ctx, "notes", 2, first.ContinuationToken)
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, "n-003", second.Items[0].ID)

	last, err := repo.ListPaged(ctx, "notes", 2, second.ContinuationToken)
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.False(t, last.HasMore())

	// pageSize <= 0 usa el default
	all, err := repo.ListPaged(ctx, "notes", 0, "")
	require.NoError(t, err)
	assert.Len(t, all.Items, 5)
	assert.Empty(t, all.ContinuationToken)

	_, err = repo.ListPaged(ctx, "notes", 2, "not-a-token")
	assert.True(t, errors.Is(err, store.ErrInvalidQuery), "got %v", err)
}

func TestRepositoryListAllDrainsPages(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)
	// más que una página interna
	for i := 0; i < 450; i++ {
		_, err := repo.Create(ctx, &note{Text: fmt.Sprint(i)})
		require.NoError(t, err)
	}
	all, err := repo.ListAll(ctx, "notes")
	require.NoError(t, err)
	assert.Len(t, all, 450)
}

func TestRepositoryQuery(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)
	for _, tag := range []string{"a", "b", "a"} {
		_, err := repo.Create(ctx, &note{Text: "x", Tag: tag})
		require.NoError(t, err)
	}

	got, err := repo.Query(ctx, "SELECT * FROM c WHERE c.tag = @tag", map[string]any{"@tag": "a"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = repo.Query(ctx, "SELECT * FROM c WHERE c.tag = @tag", nil)
	assert.True(t, errors.Is(err, store.ErrInvalidQuery), "got %v", err)

	_, err = repo.Query(ctx, "DELETE FROM c", nil)
	assert.True(t, errors.Is(err, store.ErrInvalidQuery), "got %v", err)
}

func TestRepositorySpans(t *testing.T) {
	ctx := context.Background()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	repo := newNotes(t, store.WithTracerProvider(tp))

	n, err := repo.Create(ctx, &note{Text: "x"})
	require.NoError(t, err)
	_, err = repo.Update(ctx, &note{BaseEntity: repository.BaseEntity{ID: "ghost"}})
	require.Error(t, err)
	_, err = repo.GetByID(ctx, n.ID, "notes")
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "repository.Create", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "repository.Update", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "repository.GetByID", spans[2].Name())
}
