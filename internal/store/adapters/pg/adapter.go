// Package pg implementa el store documental sobre PostgreSQL usando jsonb.
//
// La base lógica es un schema y cada container una tabla:
//
//	<schema>._containers(name, partition_key_path, throughput)
//	<schema>.<container>(partition_key, id, etag, doc jsonb, PK(partition_key, id))
//
// partition_key e id usan collation "C" para que el orden coincida con el de
// los demás adapters (bytes).
package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"github.com/dropDatabas3/usersvc/internal/store"
)

func init() {
	store.RegisterAdapter(&pgAdapter{})
}

type pgAdapter struct{}

func (a *pgAdapter) Name() string { return "postgres" }

func (a *pgAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", store.ErrInvalidConfig)
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse pgxpool config: %v", store.ErrInvalidConfig, err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if dur, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = dur
			pcfg.MaxConnIdleTime = dur
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("new pgxpool: %w", err)
	}
	// Conectar para fallar rápido si hay problema
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool ping: %w", err)
	}

	logger.From(ctx).Debug("postgres pool ready", logger.Int("max_conns", int(pcfg.MaxConns)))
	return &conn{pool: pool}, nil
}

// ─── Connection ───

type conn struct {
	pool *pgxpool.Pool
}

func (c *conn) Name() string { return "postgres" }

func (c *conn) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *conn) Close() error {
	c.pool.Close()
	return nil
}

func (c *conn) EnsureDatabase(ctx context.Context, database string) error {
	schema := pgx.Identifier{database}.Sanitize()
	defs := pgx.Identifier{database, "_containers"}.Sanitize()

	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + schema,
		`CREATE TABLE IF NOT EXISTS ` + defs + ` (
			name               text PRIMARY KEY,
			partition_key_path text NOT NULL,
			throughput         integer,
			created_at         timestamptz NOT NULL DEFAULT NOW()
		)`,
	}
	for _, s := range stmts {
		if _, err := c.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("ensure schema %s: %w", database, err)
		}
	}
	return nil
}

func (c *conn) EnsureContainer(ctx context.Context, database string, spec store.ContainerSpec) (store.Container, error) {
	if _, err := store.ParsePartitionKeyPath(spec.PartitionKeyPath); err != nil {
		return nil, err
	}
	defs := pgx.Identifier{database, "_containers"}.Sanitize()
	table := pgx.Identifier{database, spec.Name}.Sanitize()

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO `+defs+` (name, partition_key_path, throughput) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		spec.Name, spec.PartitionKeyPath, spec.Throughput)
	if err != nil {
		return nil, fmt.Errorf("register container %s: %w", spec.Name, err)
	}

	var path string
	if err := tx.QueryRow(ctx, `SELECT partition_key_path FROM `+defs+` WHERE name = $1`, spec.Name).Scan(&path); err != nil {
		return nil, fmt.Errorf("read container %s: %w", spec.Name, err)
	}
	if path != spec.PartitionKeyPath {
		return nil, fmt.Errorf("%w: %s has partition key %s, requested %s",
			store.ErrContainerMismatch, spec.Name, path, spec.PartitionKeyPath)
	}

	_, err = tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		partition_key text COLLATE "C" NOT NULL,
		id            text COLLATE "C" NOT NULL,
		etag          text NOT NULL,
		doc           jsonb NOT NULL,
		PRIMARY KEY (partition_key, id)
	)`)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", spec.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &container{pool: c.pool, name: spec.Name, path: spec.PartitionKeyPath, table: table}, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
