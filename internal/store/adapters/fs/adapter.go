// Package fs implementa el store documental sobre el FileSystem.
//
// Layout:
//
//	<root>/<database>/<container>/container.yaml
//	<root>/<database>/<container>/<pk>/<id>.json
//
// Los nombres de pk e id se codifican en base64url para que cualquier valor
// sea un nombre de archivo válido. Pensado para desarrollo y volúmenes chicos:
// Query lee el container completo.
package fs

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"github.com/dropDatabas3/usersvc/internal/store"
	"github.com/dropDatabas3/usersvc/internal/util/atomicwrite"
)

func init() {
	store.RegisterAdapter(&fsAdapter{})
}

const defFile = "container.yaml"

type fsAdapter struct{}

func (a *fsAdapter) Name() string { return "fs" }

func (a *fsAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	root := strings.TrimPrefix(strings.TrimSpace(cfg.DSN), "file://")
	if root == "" {
		return nil, fmt.Errorf("%w: fs root directory is required", store.ErrInvalidConfig)
	}

	// Si no existe lo creamos
	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
			return nil, fmt.Errorf("fs: create root %s: %w", root, mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("fs: root path error: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: fs root is not a directory: %s", store.ErrInvalidConfig, root)
	}

	logger.From(ctx).Debug("fs store ready", logger.String("root", root))
	return &fsConnection{root: root}, nil
}

type fsConnection struct {
	root string
	// mu serializa escrituras de todos los containers de la conexión.
	mu sync.RWMutex
}

func (c *fsConnection) Name() string { return "fs" }

func (c *fsConnection) Ping(ctx context.Context) error {
	_, err := os.Stat(c.root)
	return err
}

func (c *fsConnection) Close() error { return nil }

func (c *fsConnection) EnsureDatabase(ctx context.Context, database string) error {
	if err := validName(database); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(c.root, database), 0o755)
}

// containerYAML es el contenido de container.yaml.
type containerYAML struct {
	Name             string `yaml:"name"`
	PartitionKeyPath string `yaml:"partitionKeyPath"`
	Throughput       *int   `yaml:"throughput,omitempty"`
}

func (c *fsConnection) EnsureContainer(ctx context.Context, database string, spec store.ContainerSpec) (store.Container, error) {
	if err := validName(spec.Name); err != nil {
		return nil, err
	}
	pkPath, err := store.ParsePartitionKeyPath(spec.PartitionKeyPath)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.root, database, spec.Name)
	if _, err := os.Stat(filepath.Join(c.root, database)); err != nil {
		return nil, fmt.Errorf("fs: database %s: %w", database, err)
	}

	defPath := filepath.Join(dir, defFile)
	data, err := os.ReadFile(defPath)
	switch {
	case err == nil:
		var def containerYAML
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("fs: parse %s: %w", defPath, err)
		}
		if def.PartitionKeyPath != spec.PartitionKeyPath {
			return nil, fmt.Errorf("%w: %s has partition key %s, requested %s",
				store.ErrContainerMismatch, spec.Name, def.PartitionKeyPath, spec.PartitionKeyPath)
		}
	case os.IsNotExist(err):
		out, err := yaml.Marshal(containerYAML{Name: spec.Name, PartitionKeyPath: spec.PartitionKeyPath, Throughput: spec.Throughput})
		if err != nil {
			return nil, err
		}
		if err := atomicwrite.WriteFile(defPath, out, 0o644); err != nil {
			return nil, fmt.Errorf("fs: write %s: %w", defPath, err)
		}
	default:
		return nil, fmt.Errorf("fs: read %s: %w", defPath, err)
	}

	return &container{conn: c, dir: dir, name: spec.Name, path: spec.PartitionKeyPath, pkPath: pkPath}, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: invalid name %q", store.ErrInvalidConfig, name)
	}
	return nil
}

// encodeName vuelve seguro un pk o id como nombre de archivo. El prefijo evita
// nombres vacíos.
func encodeName(s string) string {
	return "k" + base64.RawURLEncoding.EncodeToString([]byte(s))
}
