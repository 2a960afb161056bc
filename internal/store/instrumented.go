package store

import (
	"context"
	"time"

	"github.com/dropDatabas3/usersvc/internal/metrics"
	"github.com/dropDatabas3/usersvc/internal/store/query"
)

// instrumentedContainer registra métricas y agrega contexto a los errores de
// cada operación del adapter.
type instrumentedContainer struct {
	inner Container
}

func instrument(c Container) Container {
	return &instrumentedContainer{inner: c}
}

func (c *instrumentedContainer) Name() string             { return c.inner.Name() }
func (c *instrumentedContainer) PartitionKeyPath() string { return c.inner.PartitionKeyPath() }

func (c *instrumentedContainer) done(op string, start time.Time, err error) error {
	metrics.ObserveStoreOp(c.inner.Name(), op, start, err)
	return wrapOp(op, c.inner.Name(), err)
}

func (c *instrumentedContainer) Read(ctx context.Context, id, pk string) (*Item, error) {
	start := time.Now()
	it, err := c.inner.Read(ctx, id, pk)
	return it, c.done("read", start, err)
}

func (c *instrumentedContainer) Create(ctx context.Context, item Item) (*Item, error) {
	start := time.Now()
	it, err := c.inner.Create(ctx, item)
	return it, c.done("create", start, err)
}

func (c *instrumentedContainer) Replace(ctx context.Context, item Item) (*Item, error) {
	start := time.Now()
	it, err := c.inner.Replace(ctx, item)
	return it, c.done("replace", start, err)
}

func (c *instrumentedContainer) Upsert(ctx context.Context, item Item) (*Item, error) {
	start := time.Now()
	it, err := c.inner.Upsert(ctx, item)
	return it, c.done("upsert", start, err)
}

func (c *instrumentedContainer) Delete(ctx context.Context, id, pk string) error {
	start := time.Now()
	return c.done("delete", start, c.inner.Delete(ctx, id, pk))
}

func (c *instrumentedContainer) Query(ctx context.Context, q *query.Bound, opts QueryOptions) (Page, error) {
	start := time.Now()
	p, err := c.inner.Query(ctx, q, opts)
	return p, c.done("query", start, err)
}

func (c *instrumentedContainer) Count(ctx context.Context, q *query.Bound, pk string) (int64, error) {
	start := time.Now()
	n, err := c.inner.Count(ctx, q, pk)
	return n, c.done("count", start, err)
}
