// Package badger implementa el store documental sobre BadgerDB (embebido).
//
// Layout de claves:
//
//	m\x00db\x00<database>                               => {}
//	m\x00ct\x00<database>\x00<container>                => containerDef (JSON)
//	d\x00<database>\x00<container>\x00<pk>\x00<id>      => documento JSON
//
// El orden de iteración de Badger sobre las claves "d" coincide con el orden
// (partitionKey, id) que exige el contrato de Query.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"github.com/dropDatabas3/usersvc/internal/store"
)

// MemoryDSN abre Badger en modo en memoria.
const MemoryDSN = ":memory:"

const maxTxnRetries = 3

func init() {
	store.RegisterAdapter(&badgerAdapter{})
}

type badgerAdapter struct{}

func (a *badgerAdapter) Name() string { return "badger" }

func (a *badgerAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	path := strings.TrimPrefix(strings.TrimSpace(cfg.DSN), "badger://")
	if path == "" {
		return nil, fmt.Errorf("%w: badger path is required", store.ErrInvalidConfig)
	}

	var opts badger.Options
	if path == MemoryDSN {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("badger: mkdir %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.
		WithLogger(&zapBadgerLogger{s: logger.Named("badger").Sugar()}).
		WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}

	logger.From(ctx).Debug("badger opened", logger.String("path", path))
	return &conn{db: db}, nil
}

// zapBadgerLogger adapta zap al badger.Logger. Los Infof de Badger (compactación,
// replay) bajan a debug.
type zapBadgerLogger struct {
	s *zap.SugaredLogger
}

var _ badger.Logger = (*zapBadgerLogger)(nil)

func (l *zapBadgerLogger) Errorf(msg string, args ...any)   { l.s.Errorf(strings.TrimSpace(msg), args...) }
func (l *zapBadgerLogger) Warningf(msg string, args ...any) { l.s.Warnf(strings.TrimSpace(msg), args...) }
func (l *zapBadgerLogger) Infof(msg string, args ...any)    { l.s.Debugf(strings.TrimSpace(msg), args...) }
func (l *zapBadgerLogger) Debugf(msg string, args ...any)   { l.s.Debugf(strings.TrimSpace(msg), args...) }

// ─── Connection ───

type conn struct {
	db *badger.DB
}

func (c *conn) Name() string { return "badger" }

func (c *conn) Ping(context.Context) error {
	if c.db.IsClosed() {
		return store.ErrClosed
	}
	return nil
}

func (c *conn) Close() error {
	if c.db.IsClosed() {
		return nil
	}
	return c.db.Close()
}

func (c *conn) EnsureDatabase(_ context.Context, database string) error {
	key := dbKey(database)
	return c.update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, []byte("{}"))
	})
}

func (c *conn) EnsureContainer(_ context.Context, database string, spec store.ContainerSpec) (store.Container, error) {
	pkPath, err := store.ParsePartitionKeyPath(spec.PartitionKeyPath)
	if err != nil {
		return nil, err
	}

	key := containerKey(database, spec.Name)
	err = c.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(dbKey(database)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: database %q does not exist", store.ErrInvalidConfig, database)
			}
			return err
		}

		item, err := txn.Get(key)
		switch {
		case err == nil:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			def, err := decodeDef(raw)
			if err != nil {
				return err
			}
			if def.PartitionKeyPath != spec.PartitionKeyPath {
				return fmt.Errorf("%w: %s has partition key %s, requested %s",
					store.ErrContainerMismatch, spec.Name, def.PartitionKeyPath, spec.PartitionKeyPath)
			}
			return nil
		case errors.Is(err, badger.ErrKeyNotFound):
			raw, err := encodeDef(containerDef{
				Name:             spec.Name,
				PartitionKeyPath: spec.PartitionKeyPath,
				Throughput:       spec.Throughput,
			})
			if err != nil {
				return err
			}
			return txn.Set(key, raw)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	return &container{
		db:     c.db,
		name:   spec.Name,
		path:   spec.PartitionKeyPath,
		pkPath: pkPath,
		prefix: docPrefix(database, spec.Name),
	}, nil
}

// update corre fn en una transacción de escritura reintentando ante conflictos
// de Badger (transacciones concurrentes sobre las mismas claves).
func (c *conn) update(fn func(txn *badger.Txn) error) error {
	return retryUpdate(c.db, fn)
}

func retryUpdate(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
