package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/usersvc/internal/cache"
	"github.com/dropDatabas3/usersvc/internal/metrics"
	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"github.com/dropDatabas3/usersvc/internal/store/query"
	"golang.org/x/sync/singleflight"
)

// cachedContainer sirve Read desde un cache.Client e invalida la entrada en
// cada escritura. Las queries van siempre al store.
//
// Las escrituras incrementan gen; un miss solo guarda en cache si gen no
// cambió mientras leía del store. Es un contador por container y no por key
// para no acumular estado: una escritura ajena solo cuesta un Set salteado.
type cachedContainer struct {
	inner  Container
	cache  cache.Client
	ttl    time.Duration
	pkPath []string
	sf     singleflight.Group

	mu  sync.Mutex
	gen uint64
}

func newCachedContainer(inner Container, c cache.Client, ttl time.Duration) *cachedContainer {
	pkPath, _ := ParsePartitionKeyPath(inner.PartitionKeyPath())
	return &cachedContainer{inner: inner, cache: c, ttl: ttl, pkPath: pkPath}
}

func (c *cachedContainer) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// bump descarta las cargas en vuelo: ningún miss iniciado antes guarda en
// cache, y los Read siguientes de key no se suman a la carga vieja.
func (c *cachedContainer) bump(key string) {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
	c.sf.Forget(key)
}

func (c *cachedContainer) key(id, pk string) string {
	return fmt.Sprintf("doc:%s:%s:%s", c.inner.Name(), pk, id)
}

func (c *cachedContainer) Name() string             { return c.inner.Name() }
func (c *cachedContainer) PartitionKeyPath() string { return c.inner.PartitionKeyPath() }

func (c *cachedContainer) Read(ctx context.Context, id, pk string) (*Item, error) {
	key := c.key(id, pk)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		if it, err := ItemFromJSON([]byte(raw), c.pkPath); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues(c.inner.Name(), "hit").Inc()
			return &it, nil
		}
	} else if !errors.Is(err, cache.ErrNotFound) {
		logger.From(ctx).Warn("cache get failed", logger.Container(c.inner.Name()), logger.Err(err))
	}
	metrics.CacheLookupsTotal.WithLabelValues(c.inner.Name(), "miss").Inc()

	v, err, _ := c.sf.Do(key, func() (any, error) {
		g := c.generation()
		it, err := c.inner.Read(ctx, id, pk)
		if err != nil {
			return nil, err
		}
		// chequeo y Set bajo el lock de invalidate: o el Delete corre después
		// del Set, o gen ya cambió y no se guarda.
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != g {
			return it, nil
		}
		if err := c.cache.Set(ctx, key, string(it.Data), c.ttl); err != nil {
			logger.From(ctx).Warn("cache set failed", logger.Container(c.inner.Name()), logger.Err(err))
		}
		return it, nil
	})
	if err != nil {
		return nil, err
	}
	it := *v.(*Item)
	return &it, nil
}

// invalidate borra la entrada tras una escritura. Las escrituras también
// incrementan gen antes de ir al store, así un miss que leyó la versión vieja
// no la vuelve a guardar.
func (c *cachedContainer) invalidate(ctx context.Context, id, pk string) {
	key := c.key(id, pk)
	c.bump(key)
	c.mu.Lock()
	err := c.cache.Delete(ctx, key)
	c.mu.Unlock()
	if err != nil {
		logger.From(ctx).Warn("cache invalidate failed", logger.Container(c.inner.Name()), logger.Err(err))
	}
}

func (c *cachedContainer) Create(ctx context.Context, item Item) (*Item, error) {
	it, err := c.inner.Create(ctx, item)
	if err == nil {
		c.invalidate(ctx, item.ID, item.PartitionKey)
	}
	return it, err
}

func (c *cachedContainer) Replace(ctx context.Context, item Item) (*Item, error) {
	c.bump(c.key(item.ID, item.PartitionKey))
	it, err := c.inner.Replace(ctx, item)
	c.invalidate(ctx, item.ID, item.PartitionKey)
	return it, err
}

func (c *cachedContainer) Upsert(ctx context.Context, item Item) (*Item, error) {
	c.bump(c.key(item.ID, item.PartitionKey))
	it, err := c.inner.Upsert(ctx, item)
	c.invalidate(ctx, item.ID, item.PartitionKey)
	return it, err
}

func (c *cachedContainer) Delete(ctx context.Context, id, pk string) error {
	c.bump(c.key(id, pk))
	err := c.inner.Delete(ctx, id, pk)
	c.invalidate(ctx, id, pk)
	return err
}

func (c *cachedContainer) Query(ctx context.Context, q *query.Bound, opts QueryOptions) (Page, error) {
	return c.inner.Query(ctx, q, opts)
}

func (c *cachedContainer) Count(ctx context.Context, q *query.Bound, pk string) (int64, error) {
	return c.inner.Count(ctx, q, pk)
}
