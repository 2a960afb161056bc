package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/usersvc/internal/cache"
	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"golang.org/x/sync/errgroup"
)

// Config configuración del cliente de almacenamiento.
type Config struct {
	// Driver nombre del adapter registrado ("badger", "postgres", "fs").
	Driver string
	// DSN descriptor de conexión del adapter. Requerido.
	DSN string
	// Database base lógica. Requerido.
	Database string

	MaxConns        int
	ConnMaxLifetime string
}

// ContainerSpec define un container a provisionar.
type ContainerSpec struct {
	Name             string
	PartitionKeyPath string
	// Throughput hint opcional; se guarda con la definición del container.
	Throughput *int
}

// Option configura el Client.
type Option func(*Client)

// WithCache coloca un cache de lecturas puntuales delante de cada container.
func WithCache(c cache.Client, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// Client es el handle explícito al almacenamiento. Se crea una vez en el
// arranque y se comparte; no hay instancia global.
type Client struct {
	conn     Connection
	driver   string
	database string

	cache    cache.Client
	cacheTTL time.Duration

	mu         sync.Mutex
	containers map[string]Container
	closed     bool
}

// Open valida la configuración, conecta con el adapter y crea la base lógica
// si no existe.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	log := logger.From(ctx).With(logger.Component("store"))

	// 1. Validación
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%w: connection string is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, fmt.Errorf("%w: database name is required", ErrInvalidConfig)
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "badger"
	}

	// 2. Conectar
	a, ok := GetAdapter(driver)
	if !ok {
		return nil, fmt.Errorf("%w: adapter %q not registered (available: %s)",
			ErrInvalidConfig, driver, strings.Join(ListAdapters(), ", "))
	}
	conn, err := a.Connect(ctx, AdapterConfig{
		Name:            driver,
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("store: connect %s: %w", driver, err)
	}

	// 3. Base lógica
	if err := conn.EnsureDatabase(ctx, cfg.Database); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("store: ensure database %q: %w", cfg.Database, err)
	}

	c := &Client{
		conn:       conn,
		driver:     driver,
		database:   cfg.Database,
		containers: make(map[string]Container),
	}
	for _, o := range opts {
		o(c)
	}

	log.Info("store opened", logger.Driver(driver), logger.Database(cfg.Database))
	return c, nil
}

// Driver devuelve el nombre del adapter en uso.
func (c *Client) Driver() string { return c.driver }

// Database devuelve la base lógica.
func (c *Client) Database() string { return c.database }

// EnsureContainer crea el container si no existe. Idempotente para la misma
// definición; ErrContainerMismatch si ya existe con otro partition key path.
func (c *Client) EnsureContainer(ctx context.Context, spec ContainerSpec) (Container, error) {
	if _, err := ParsePartitionKeyPath(spec.PartitionKeyPath); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("%w: container name is required", ErrInvalidConfig)
	}

	if ct, ok, err := c.lookup(spec); ok || err != nil {
		return ct, err
	}

	raw, err := c.conn.EnsureContainer(ctx, c.database, spec)
	if err != nil {
		return nil, fmt.Errorf("store: ensure container %q: %w", spec.Name, err)
	}

	var ct Container = instrument(raw)
	if c.cache != nil {
		ct = newCachedContainer(ct, c.cache, c.cacheTTL)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if existing, ok := c.containers[spec.Name]; ok {
		c.mu.Unlock()
		return existing, nil
	}
	c.containers[spec.Name] = ct
	c.mu.Unlock()

	logger.From(ctx).Info("container ready",
		logger.Container(spec.Name),
		logger.String("partition_key_path", spec.PartitionKeyPath),
	)
	return ct, nil
}

// lookup busca un container ya asegurado y valida su definición.
func (c *Client) lookup(spec ContainerSpec) (Container, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, ErrClosed
	}
	existing, ok := c.containers[spec.Name]
	if !ok {
		return nil, false, nil
	}
	if existing.PartitionKeyPath() != spec.PartitionKeyPath {
		return nil, false, fmt.Errorf("%w: %s has partition key %s, requested %s",
			ErrContainerMismatch, spec.Name, existing.PartitionKeyPath(), spec.PartitionKeyPath)
	}
	return existing, true, nil
}

// Provision asegura varios containers en paralelo. Es el paso explícito de
// inicialización del arranque: los repositorios se construyen después con los
// handles devueltos.
func (c *Client) Provision(ctx context.Context, specs ...ContainerSpec) (map[string]Container, error) {
	out := make(map[string]Container, len(specs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			ct, err := c.EnsureContainer(gctx, spec)
			if err != nil {
				return err
			}
			mu.Lock()
			out[spec.Name] = ct
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Container devuelve un container ya provisionado.
func (c *Client) Container(name string) (Container, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ct, ok := c.containers[name]
	return ct, ok
}

// Ping verifica la conexión con el almacenamiento. El cache se chequea aparte
// (ver Cache).
func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return c.conn.Ping(ctx)
}

// Cache devuelve el cache de lecturas configurado o nil.
func (c *Client) Cache() cache.Client { return c.cache }

// Close libera la conexión. Llamadas posteriores no hacen nada.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.containers = map[string]Container{}
	c.mu.Unlock()

	err := c.conn.Close()
	if c.cache != nil {
		if cerr := c.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
