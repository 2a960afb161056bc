package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/usersvc/internal/store"
	"github.com/dropDatabas3/usersvc/internal/store/query"
)

type container struct {
	pool  *pgxpool.Pool
	name  string
	path  string
	table string // identificador ya sanitizado
}

func (c *container) Name() string             { return c.name }
func (c *container) PartitionKeyPath() string { return c.path }

func (c *container) Read(ctx context.Context, id, pk string) (*store.Item, error) {
	var etag string
	var doc []byte
	err := c.pool.QueryRow(ctx,
		`SELECT etag, doc FROM `+c.table+` WHERE partition_key = $1 AND id = $2`, pk, id,
	).Scan(&etag, &doc)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, pk, id)
	}
	if err != nil {
		return nil, err
	}
	return &store.Item{ID: id, PartitionKey: pk, ETag: etag, Data: doc}, nil
}

func (c *container) Create(ctx context.Context, item store.Item) (*store.Item, error) {
	stamped, err := store.StampETag(item)
	if err != nil {
		return nil, err
	}
	tag, err := c.pool.Exec(ctx,
		`INSERT INTO `+c.table+` (partition_key, id, etag, doc) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (partition_key, id) DO NOTHING`,
		stamped.PartitionKey, stamped.ID, stamped.ETag, stamped.Data)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s/%s already exists", store.ErrConflict, item.PartitionKey, item.ID)
	}
	return &stamped, nil
}

func (c *container) Replace(ctx context.Context, item store.Item) (*store.Item, error) {
	stamped, err := store.StampETag(item)
	if err != nil {
		return nil, err
	}
	tag, err := c.pool.Exec(ctx,
		`UPDATE `+c.table+` SET etag = $3, doc = $4 WHERE partition_key = $1 AND id = $2`,
		stamped.PartitionKey, stamped.ID, stamped.ETag, stamped.Data)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, item.PartitionKey, item.ID)
	}
	return &stamped, nil
}

func (c *container) Upsert(ctx context.Context, item store.Item) (*store.Item, error) {
	stamped, err := store.StampETag(item)
	if err != nil {
		return nil, err
	}
	_, err = c.pool.Exec(ctx,
		`INSERT INTO `+c.table+` (partition_key, id, etag, doc) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (partition_key, id) DO UPDATE SET etag = EXCLUDED.etag, doc = EXCLUDED.doc`,
		stamped.PartitionKey, stamped.ID, stamped.ETag, stamped.Data)
	if err != nil {
		return nil, err
	}
	return &stamped, nil
}

func (c *container) Delete(ctx context.Context, id, pk string) error {
	tag, err := c.pool.Exec(ctx, `DELETE FROM `+c.table+` WHERE partition_key = $1 AND id = $2`, pk, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", store.ErrNotFound, pk, id)
	}
	return nil
}

// where arma la condición común de Query y Count.
func (c *container) where(q *query.Bound, pk string, cur *store.Cursor) (string, []any, error) {
	var conds []string
	var args []any
	if pk != "" {
		args = append(args, pk)
		conds = append(conds, fmt.Sprintf("partition_key = $%d", len(args)))
	}
	if cur != nil {
		args = append(args, cur.PartitionKey, cur.ID)
		conds = append(conds, fmt.Sprintf("(partition_key, id) > ($%d, $%d)", len(args)-1, len(args)))
	}
	cond, qargs, err := q.SQL("doc", len(args)+1)
	if err != nil {
		return "", nil, err
	}
	conds = append(conds, cond)
	args = append(args, qargs...)
	return strings.Join(conds, " AND "), args, nil
}

func (c *container) Query(ctx context.Context, q *query.Bound, opts store.QueryOptions) (store.Page, error) {
	cur, err := store.DecodeContinuation(opts.Continuation)
	if err != nil {
		return store.Page{}, err
	}
	cond, args, err := c.where(q, opts.PartitionKey, cur)
	if err != nil {
		return store.Page{}, err
	}

	sql := `SELECT partition_key, id, etag, doc FROM ` + c.table + ` WHERE ` + cond + ` ORDER BY partition_key, id`
	if opts.MaxItems > 0 {
		// un item de más para saber si hay otra página
		sql += fmt.Sprintf(" LIMIT %d", opts.MaxItems+1)
	}

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return store.Page{}, err
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var it store.Item
		if err := rows.Scan(&it.PartitionKey, &it.ID, &it.ETag, &it.Data); err != nil {
			return store.Page{}, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return store.Page{}, err
	}
	return store.Paginate(items, store.QueryOptions{MaxItems: opts.MaxItems})
}

func (c *container) Count(ctx context.Context, q *query.Bound, pk string) (int64, error) {
	cond, args, err := c.where(q, pk, nil)
	if err != nil {
		return 0, err
	}
	var n int64
	err = c.pool.QueryRow(ctx, `SELECT count(*) FROM `+c.table+` WHERE `+cond, args...).Scan(&n)
	return n, err
}
