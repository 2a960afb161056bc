package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/usersvc/internal/config"
	"github.com/dropDatabas3/usersvc/internal/http/server"
	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"github.com/dropDatabas3/usersvc/internal/store"
)

// version se sobreescribe con -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var (
		cfgPath string
		envFile string
	)

	// loadConfig: .env (si existe) → YAML (si hay --config) → env overrides.
	loadConfig := func() (*config.Config, error) {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		if cfgPath != "" {
			return config.Load(cfgPath)
		}
		return config.FromEnv()
	}

	initLogger := func(cfg *config.Config) {
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.App.LogLevel,
			ServiceName: cfg.App.Name,
			Version:     version,
		})
	}

	root := &cobra.Command{
		Use:           "usersvc",
		Short:         "Servicio HTTP de usuarios sobre un store documental",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("CONFIG_PATH"), "Archivo YAML de configuración (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Archivo .env a cargar si existe")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Provisiona el store y sirve la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			initLogger(cfg)
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler, cleanup, err := server.BuildHandler(ctx, cfg, server.Options{Version: version})
			if err != nil {
				return fmt.Errorf("wiring: %w", err)
			}
			defer func() {
				if err := cleanup(); err != nil {
					logger.L().Warn("cleanup failed", logger.Err(err))
				}
			}()

			return server.Run(ctx, cfg, handler)
		},
	}

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Crea la base lógica y el container de usuarios si no existen",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			initLogger(cfg)
			defer func() { _ = logger.Sync() }()

			if err := server.Provision(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "provisioned %s/%s (driver=%s)\n",
				cfg.Storage.Database, store.UsersContainer, cfg.Storage.Driver)
			return nil
		},
	}

	configCmd := &cobra.Command{Use: "config", Short: "Operaciones sobre la configuración"}
	configPrintCmd := &cobra.Command{
		Use:   "print",
		Short: "Imprime la configuración efectiva (secretos enmascarados)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.Redacted().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	configCmd.AddCommand(configPrintCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serveCmd, provisionCmd, configCmd, versionCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
