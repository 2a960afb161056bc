package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dropDatabas3/usersvc/internal/store"
	"github.com/dropDatabas3/usersvc/internal/store/query"
)

type container struct {
	db     *badger.DB
	name   string
	path   string
	pkPath []string
	prefix []byte
}

func (c *container) Name() string             { return c.name }
func (c *container) PartitionKeyPath() string { return c.path }

func (c *container) Read(_ context.Context, id, pk string) (*store.Item, error) {
	var out *store.Item
	err := c.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(docKey(c.prefix, pk, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s/%s", store.ErrNotFound, pk, id)
		}
		if err != nil {
			return err
		}
		raw, err := it.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := c.toItem(pk, id, raw)
		if err != nil {
			return err
		}
		out = &item
		return nil
	})
	return out, err
}

func (c *container) toItem(pk, id string, raw []byte) (store.Item, error) {
	item, err := store.ItemFromJSON(raw, c.pkPath)
	if err != nil {
		return store.Item{}, err
	}
	item.ID, item.PartitionKey = id, pk
	return item, nil
}

// write aplica item según mode: "create" exige que no exista, "replace" que exista.
func (c *container) write(item store.Item, mode string) (*store.Item, error) {
	stamped, err := store.StampETag(item)
	if err != nil {
		return nil, err
	}
	key := docKey(c.prefix, item.PartitionKey, item.ID)

	err = retryUpdate(c.db, func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		exists := err == nil
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		switch {
		case mode == "create" && exists:
			return fmt.Errorf("%w: %s/%s already exists", store.ErrConflict, item.PartitionKey, item.ID)
		case mode == "replace" && !exists:
			return fmt.Errorf("%w: %s/%s", store.ErrNotFound, item.PartitionKey, item.ID)
		}
		return txn.Set(key, stamped.Data)
	})
	if err != nil {
		return nil, err
	}
	return &stamped, nil
}

func (c *container) Create(_ context.Context, item store.Item) (*store.Item, error) {
	return c.write(item, "create")
}

func (c *container) Replace(_ context.Context, item store.Item) (*store.Item, error) {
	return c.write(item, "replace")
}

func (c *container) Upsert(_ context.Context, item store.Item) (*store.Item, error) {
	return c.write(item, "upsert")
}

func (c *container) Delete(_ context.Context, id, pk string) error {
	key := docKey(c.prefix, pk, id)
	return retryUpdate(c.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s/%s", store.ErrNotFound, pk, id)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// scan recorre los documentos en orden (pk, id) a partir del cursor y llama a
// fn con cada documento que cumple q. fn devuelve false para cortar.
func (c *container) scan(ctx context.Context, q *query.Bound, pk string, cur *store.Cursor, fn func(store.Item) bool) error {
	prefix := c.prefix
	if pk != "" {
		prefix = partitionPrefix(c.prefix, pk)
	}

	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := txn.NewIterator(opts)
		defer iter.Close()

		iter.Rewind()
		if cur != nil {
			iter.Seek(docKey(c.prefix, cur.PartitionKey, cur.ID))
		}
		for ; iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			docPK, id, ok := splitDocKey(c.prefix, iter.Item().Key())
			if !ok {
				continue
			}
			if cur != nil && !cur.After(docPK, id) {
				continue
			}
			raw, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			match, err := q.MatchJSON(raw)
			if err != nil {
				return fmt.Errorf("badger: decode %s/%s: %w", docPK, id, err)
			}
			if !match {
				continue
			}
			item, err := c.toItem(docPK, id, raw)
			if err != nil {
				return err
			}
			if !fn(item) {
				return nil
			}
		}
		return nil
	})
}

func (c *container) Query(ctx context.Context, q *query.Bound, opts store.QueryOptions) (store.Page, error) {
	cur, err := store.DecodeContinuation(opts.Continuation)
	if err != nil {
		return store.Page{}, err
	}

	// se lee un item de más para saber si hay otra página
	var items []store.Item
	err = c.scan(ctx, q, opts.PartitionKey, cur, func(it store.Item) bool {
		items = append(items, it)
		return opts.MaxItems <= 0 || len(items) <= opts.MaxItems
	})
	if err != nil {
		return store.Page{}, err
	}
	return store.Paginate(items, store.QueryOptions{MaxItems: opts.MaxItems})
}

func (c *container) Count(ctx context.Context, q *query.Bound, pk string) (int64, error) {
	var n int64
	err := c.scan(ctx, q, pk, nil, func(store.Item) bool {
		n++
		return true
	})
	return n, err
}
