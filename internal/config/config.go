// Package config carga la configuración del servicio desde YAML y variables
// de entorno.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/usersvc/internal/util"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda con defaults.
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		Name     string `yaml:"name"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"`   // badger | postgres | fs
		DSN      string `yaml:"dsn"`      // requerido
		Database string `yaml:"database"` // requerido
		Users    struct {
			// Throughput hint del container users; nil = sin hint.
			Throughput *int `yaml:"throughput,omitempty"`
		} `yaml:"users"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string        `yaml:"kind"` // none | memory | redis
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// ErrInvalid envuelve todos los errores de configuración.
var ErrInvalid = errors.New("config: invalid")

// Load lee el YAML en path, aplica defaults y env overrides, y valida.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c.finish()
}

// FromEnv arma la configuración sin archivo: defaults + variables de entorno.
func FromEnv() (*Config, error) {
	var c Config
	return c.finish()
}

func (c *Config) finish() (*Config, error) {
	c.applyDefaults()
	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "usersvc"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "badger"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "none"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 2 * time.Minute
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "usersvc"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, s)
	}
	return i, true, nil
}

func getEnvDur(key string) (time.Duration, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, key, s)
	}
	return d, true, nil
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
// Un número o duración mal formado es error, no se ignora.
func (c *Config) applyEnvOverrides() error {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok, err := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); err != nil {
		return err
	} else if ok {
		c.Server.ShutdownTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_DATABASE"); ok {
		c.Storage.Database = v
	}
	if v, ok, err := getEnvInt("STORAGE_USERS_THROUGHPUT"); err != nil {
		return err
	} else if ok {
		c.Storage.Users.Throughput = &v
	}
	if v, ok, err := getEnvInt("POSTGRES_MAX_CONNS"); err != nil {
		return err
	} else if ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok, err := getEnvDur("CACHE_TTL"); err != nil {
		return err
	} else if ok {
		c.Cache.TTL = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok, err := getEnvInt("REDIS_DB"); err != nil {
		return err
	} else if ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	return nil
}

// Validate verifica los valores críticos. Sin DSN o sin base lógica el
// servicio no arranca.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Storage.DSN) == "" {
		errs = append(errs, fmt.Errorf("%w: storage.dsn (STORAGE_DSN) is required", ErrInvalid))
	}
	if strings.TrimSpace(c.Storage.Database) == "" {
		errs = append(errs, fmt.Errorf("%w: storage.database (STORAGE_DATABASE) is required", ErrInvalid))
	}
	if t := c.Storage.Users.Throughput; t != nil && *t <= 0 {
		errs = append(errs, fmt.Errorf("%w: storage.users.throughput must be positive, got %d", ErrInvalid, *t))
	}
	if lt := c.Storage.Postgres.ConnMaxLifetime; lt != "" {
		if _, err := time.ParseDuration(lt); err != nil {
			errs = append(errs, fmt.Errorf("%w: storage.postgres.conn_max_lifetime: %v", ErrInvalid, err))
		}
	}
	switch c.Cache.Kind {
	case "none", "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, fmt.Errorf("%w: cache.redis.addr (REDIS_ADDR) is required for kind redis", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown cache.kind %q", ErrInvalid, c.Cache.Kind))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalid))
	}
	return errors.Join(errs...)
}

// Redacted devuelve una copia apta para imprimir: sin password de redis y con
// la contraseña del DSN enmascarada.
func (c Config) Redacted() Config {
	c.Storage.DSN = util.MaskDSN(c.Storage.DSN)
	if c.Cache.Redis.Password != "" {
		c.Cache.Redis.Password = "xxxxx"
	}
	return c
}

// YAML serializa la configuración (ya redactada si corresponde).
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
