// Package server arma el handler HTTP con todas sus dependencias y el
// http.Server que lo sirve.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/usersvc/internal/cache"
	"github.com/dropDatabas3/usersvc/internal/config"
	healthctrl "github.com/dropDatabas3/usersvc/internal/http/controllers/health"
	usersctrl "github.com/dropDatabas3/usersvc/internal/http/controllers/users"
	"github.com/dropDatabas3/usersvc/internal/http/router"
	healthsvc "github.com/dropDatabas3/usersvc/internal/http/services/health"
	userssvc "github.com/dropDatabas3/usersvc/internal/http/services/users"
	"github.com/dropDatabas3/usersvc/internal/metrics"
	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"github.com/dropDatabas3/usersvc/internal/store"
	_ "github.com/dropDatabas3/usersvc/internal/store/adapters/dal"
)

// Options ajustes del armado que no vienen de config.
type Options struct {
	Version string

	// Registry donde se registran las métricas y que sirve /metrics.
	// nil = prometheus.DefaultRegisterer / DefaultGatherer.
	Registry *prometheus.Registry

	// RepoOptions se pasan al repositorio de usuarios (clock, ids, tracer).
	RepoOptions []store.RepositoryOption
}

// OpenStore abre el cliente de almacenamiento (con su cache de lecturas si
// corresponde) a partir de la configuración.
func OpenStore(ctx context.Context, cfg *config.Config) (*store.Client, error) {
	c, err := cache.New(ctx, cache.Config{
		Kind:       cfg.Cache.Kind,
		DefaultTTL: cfg.Cache.TTL,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	var opts []store.Option
	if c != nil {
		opts = append(opts, store.WithCache(c, cfg.Cache.TTL))
	}

	client, err := store.Open(ctx, store.Config{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		Database:        cfg.Storage.Database,
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	}, opts...)
	if err != nil {
		if c != nil {
			_ = c.Close()
		}
		return nil, err
	}
	return client, nil
}

// Provision abre el store, asegura la base lógica y el container de usuarios
// y cierra. Es lo que corre `usersvc provision`.
func Provision(ctx context.Context, cfg *config.Config) error {
	client, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.Provision(ctx, store.UsersContainerSpec(cfg.Storage.Users.Throughput))
	return err
}

// BuildHandler arma el handler completo: store → repositorio → service →
// controllers → router. El cleanup cierra el store (y su cache).
func BuildHandler(ctx context.Context, cfg *config.Config, opts Options) (http.Handler, func() error, error) {
	log := logger.From(ctx).With(logger.Component("wiring"))

	// 1. Store + containers
	client, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := client.Close

	containers, err := client.Provision(ctx, store.UsersContainerSpec(cfg.Storage.Users.Throughput))
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("provision containers: %w", err)
	}

	// 2. Métricas
	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if opts.Registry != nil {
		reg, gatherer = opts.Registry, opts.Registry
	}
	if err := metrics.Register(reg); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("register metrics: %w", err)
	}

	// 3. Repositorio + services
	repo := store.NewUserRepository(containers[store.UsersContainer], opts.RepoOptions...)
	users := userssvc.NewService(userssvc.Deps{Repo: repo})
	health := healthsvc.NewHealthService(healthsvc.Deps{
		Store:   client,
		Cache:   client.Cache(),
		Version: opts.Version,
	})

	// 4. Router
	handler := router.New(router.Deps{
		Users:   usersctrl.NewUsersController(users),
		Health:  healthctrl.NewHealthController(health),
		Metrics: gatherer,
	})

	log.Info("http handler ready",
		logger.Driver(client.Driver()),
		logger.Database(client.Database()),
		logger.String("cache", cfg.Cache.Kind),
	)
	return handler, cleanup, nil
}

// NewHTTPServer crea el http.Server con los timeouts de config.
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// Run sirve handler hasta que ctx se cancele y luego hace shutdown ordenado.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	log := logger.From(ctx).With(logger.Component("server"))
	srv := NewHTTPServer(cfg, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", logger.Elapsed(cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
