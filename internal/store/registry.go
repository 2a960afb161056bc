// Package store provee el cliente de almacenamiento documental, el registry de
// adaptadores y la base genérica de repositorios.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/usersvc/internal/store/query"
)

// Adapter representa un adaptador de almacenamiento documental.
type Adapter interface {
	// Name retorna el nombre del adapter (ej: "badger", "postgres", "fs").
	Name() string

	// Connect establece conexión con el almacenamiento. No crea la base lógica.
	Connect(ctx context.Context, cfg AdapterConfig) (Connection, error)
}

// Connection representa una conexión activa contra el almacenamiento.
type Connection interface {
	Name() string

	// EnsureDatabase crea la base lógica si no existe. Idempotente.
	EnsureDatabase(ctx context.Context, database string) error

	// EnsureContainer crea el container si no existe y devuelve su handle.
	// Falla con ErrContainerMismatch si existe con otro partition key path.
	EnsureContainer(ctx context.Context, database string, spec ContainerSpec) (Container, error)

	Ping(ctx context.Context) error
	Close() error
}

// Container es el handle de una colección dentro de la base lógica.
// Todas las escrituras asignan un _etag nuevo; los resultados de Query se
// ordenan por (partitionKey, id).
type Container interface {
	Name() string
	PartitionKeyPath() string

	// Read devuelve ErrNotFound si no existe (id, pk).
	Read(ctx context.Context, id, pk string) (*Item, error)
	// Create devuelve ErrConflict si ya existe (id, pk).
	Create(ctx context.Context, item Item) (*Item, error)
	// Replace devuelve ErrNotFound si no existe (id, pk).
	Replace(ctx context.Context, item Item) (*Item, error)
	Upsert(ctx context.Context, item Item) (*Item, error)
	// Delete devuelve ErrNotFound si no existe (id, pk).
	Delete(ctx context.Context, id, pk string) error

	Query(ctx context.Context, q *query.Bound, opts QueryOptions) (Page, error)
	Count(ctx context.Context, q *query.Bound, pk string) (int64, error)
}

// AdapterConfig configuración para conectar a un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "badger", "postgres", "fs"
	Name string

	// DSN descriptor de conexión: DSN postgres, path de badger (":memory:" para
	// modo en memoria) o directorio raíz del adapter fs.
	DSN string

	// MaxConns tamaño máximo del pool (postgres). 0 = default del driver.
	MaxConns int

	// ConnMaxLifetime reciclado de conexiones (postgres), ej "30m".
	ConnMaxLifetime string
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres de todos los adapters registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
