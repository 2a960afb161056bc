package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dropDatabas3/usersvc/internal/store"
	"github.com/dropDatabas3/usersvc/internal/store/query"
	"github.com/dropDatabas3/usersvc/internal/util/atomicwrite"
)

type container struct {
	conn   *fsConnection
	dir    string
	name   string
	path   string
	pkPath []string
}

func (c *container) Name() string             { return c.name }
func (c *container) PartitionKeyPath() string { return c.path }

func (c *container) docPath(id, pk string) string {
	return filepath.Join(c.dir, encodeName(pk), encodeName(id)+".json")
}

func (c *container) Read(ctx context.Context, id, pk string) (*store.Item, error) {
	c.conn.mu.RLock()
	defer c.conn.mu.RUnlock()
	return c.readLocked(id, pk)
}

func (c *container) readLocked(id, pk string) (*store.Item, error) {
	data, err := os.ReadFile(c.docPath(id, pk))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, pk, id)
	}
	if err != nil {
		return nil, err
	}
	it, err := store.ItemFromJSON(data, c.pkPath)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

type writeMode int

const (
	modeCreate writeMode = iota
	modeReplace
	modeUpsert
)

func (c *container) write(item store.Item, mode writeMode) (*store.Item, error) {
	stamped, err := store.StampETag(item)
	if err != nil {
		return nil, err
	}

	c.conn.mu.Lock()
	defer c.conn.mu.Unlock()

	p := c.docPath(item.ID, item.PartitionKey)
	_, statErr := os.Stat(p)
	exists := statErr == nil
	switch {
	case mode == modeCreate && exists:
		return nil, fmt.Errorf("%w: %s/%s already exists", store.ErrConflict, item.PartitionKey, item.ID)
	case mode == modeReplace && !exists:
		return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, item.PartitionKey, item.ID)
	}

	if err := atomicwrite.WriteFile(p, stamped.Data, 0o644); err != nil {
		return nil, fmt.Errorf("fs: write %s: %w", p, err)
	}
	return &stamped, nil
}

func (c *container) Create(ctx context.Context, item store.Item) (*store.Item, error) {
	return c.write(item, modeCreate)
}

func (c *container) Replace(ctx context.Context, item store.Item) (*store.Item, error) {
	return c.write(item, modeReplace)
}

func (c *container) Upsert(ctx context.Context, item store.Item) (*store.Item, error) {
	return c.write(item, modeUpsert)
}

func (c *container) Delete(ctx context.Context, id, pk string) error {
	c.conn.mu.Lock()
	defer c.conn.mu.Unlock()

	p := c.docPath(id, pk)
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", store.ErrNotFound, pk, id)
	}
	return atomicwrite.Remove(p)
}

// scan lee los documentos que cumplen q, ordenados por (pk, id).
func (c *container) scan(ctx context.Context, q *query.Bound, pk string) ([]store.Item, error) {
	c.conn.mu.RLock()
	defer c.conn.mu.RUnlock()

	var dirs []string
	if pk != "" {
		dirs = []string{filepath.Join(c.dir, encodeName(pk))}
	} else {
		entries, err := os.ReadDir(c.dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(c.dir, e.Name()))
			}
		}
	}

	var items []store.Item
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(d)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			// Ignorar temporales de atomicwrite y ocultos
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(d, e.Name()))
			if err != nil {
				return nil, err
			}
			ok, err := q.MatchJSON(data)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			it, err := store.ItemFromJSON(data, c.pkPath)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].PartitionKey != items[j].PartitionKey {
			return items[i].PartitionKey < items[j].PartitionKey
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (c *container) Query(ctx context.Context, q *query.Bound, opts store.QueryOptions) (store.Page, error) {
	items, err := c.scan(ctx, q, opts.PartitionKey)
	if err != nil {
		return store.Page{}, err
	}
	return store.Paginate(items, opts)
}

func (c *container) Count(ctx context.Context, q *query.Bound, pk string) (int64, error) {
	items, err := c.scan(ctx, q, pk)
	if err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}
