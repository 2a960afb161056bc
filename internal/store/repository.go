package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
	"github.com/dropDatabas3/usersvc/internal/observability/logger"
	"github.com/dropDatabas3/usersvc/internal/store/query"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/dropDatabas3/usersvc/internal/store"

	// DefaultPageSize y MaxPageSize acotan ListPaged.
	DefaultPageSize = 50
	MaxPageSize     = 1000

	drainPageSize = 200
)

var selectAll = query.MustParse("SELECT * FROM c")

// EntityPtr restringe PT a *T implementando repository.Entity.
type EntityPtr[T any] interface {
	*T
	repository.Entity
}

// RepositoryOption ajusta dependencias de la base genérica (reloj, ids).
type RepositoryOption func(*repoDeps)

type repoDeps struct {
	now    func() time.Time
	newID  func() string
	tracer trace.Tracer
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) RepositoryOption {
	return func(d *repoDeps) { d.now = now }
}

// WithIDGenerator reemplaza el generador de ids (tests).
func WithIDGenerator(gen func() string) RepositoryOption {
	return func(d *repoDeps) { d.newID = gen }
}

// WithTracerProvider usa un provider distinto del global.
func WithTracerProvider(tp trace.TracerProvider) RepositoryOption {
	return func(d *repoDeps) { d.tracer = tp.Tracer(tracerName) }
}

// Repository es la base genérica de CRUD + queries sobre un container.
// Construirla no hace I/O: el container ya fue provisionado por Client.
type Repository[T any, PT EntityPtr[T]] struct {
	c    Container
	deps repoDeps
}

// NewRepository crea la base genérica sobre el container c.
func NewRepository[T any, PT EntityPtr[T]](c Container, opts ...RepositoryOption) *Repository[T, PT] {
	d := repoDeps{
		now:    time.Now,
		newID:  uuid.NewString,
		tracer: otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(&d)
	}
	return &Repository[T, PT]{c: c, deps: d}
}

// Container devuelve el container subyacente.
func (r *Repository[T, PT]) Container() Container { return r.c }

// start abre un span para op; end lo cierra registrando el error.
func (r *Repository[T, PT]) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs,
		attribute.String("db.collection.name", r.c.Name()),
		attribute.String("db.operation.name", op),
	)
	ctx, span := r.deps.tracer.Start(ctx, "repository."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (r *Repository[T, PT]) decode(it Item) (*T, error) {
	var v T
	if err := json.Unmarshal(it.Data, &v); err != nil {
		return nil, fmt.Errorf("store: decode %s/%s: %w", r.c.Name(), it.ID, err)
	}
	PT(&v).SetETag(it.ETag)
	return &v, nil
}

func (r *Repository[T, PT]) decodeAll(items []Item) ([]*T, error) {
	out := make([]*T, 0, len(items))
	for _, it := range items {
		v, err := r.decode(it)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Repository[T, PT]) encode(e PT) (Item, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return Item{}, fmt.Errorf("store: encode %s/%s: %w", r.c.Name(), e.GetID(), err)
	}
	return Item{ID: e.GetID(), PartitionKey: e.PartitionKeyValue(), Data: data}, nil
}

// GetByID lee por (id, pk). Retorna (nil, nil) si no existe.
func (r *Repository[T, PT]) GetByID(ctx context.Context, id, pk string) (_ *T, err error) {
	ctx, end := r.start(ctx, "GetByID", attribute.String("db.document.id", id))
	defer func() { end(err) }()

	it, err := r.c.Read(ctx, id, pk)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.decode(*it)
}

// ListAll devuelve todos los documentos de la partición (todas las páginas).
func (r *Repository[T, PT]) ListAll(ctx context.Context, pk string) (_ []*T, err error) {
	ctx, end := r.start(ctx, "ListAll")
	defer func() { end(err) }()

	bound, _ := selectAll.Bind(nil)
	return r.drain(ctx, bound, pk)
}

// Create inserta e con id nuevo si no tiene. createdAt = updatedAt = ahora (UTC).
// ErrConflict si el id ya existe.
func (r *Repository[T, PT]) Create(ctx context.Context, e *T) (_ *T, err error) {
	ctx, end := r.start(ctx, "Create")
	defer func() { end(err) }()

	p := PT(e)
	if p.GetID() == "" {
		p.SetID(r.deps.newID())
	}
	now := r.deps.now().UTC()
	p.SetCreatedAt(now)
	p.SetUpdatedAt(now)
	p.SetPartitionKey(p.PartitionKeyValue())

	it, err := r.encode(p)
	if err != nil {
		return nil, err
	}
	res, err := r.c.Create(ctx, it)
	if err != nil {
		return nil, err
	}
	p.SetETag(res.ETag)

	logger.From(ctx).Debug("document created", logger.Container(r.c.Name()), logger.ID(p.GetID()))
	return e, nil
}

// Update reemplaza el documento existente con el mismo (id, pk); refresca
// updatedAt y conserva el createdAt guardado, venga lo que venga en e.
// ErrNotFound si no existe. No verifica etag: gana la última escritura.
func (r *Repository[T, PT]) Update(ctx context.Context, e *T) (_ *T, err error) {
	ctx, end := r.start(ctx, "Update")
	defer func() { end(err) }()

	p := PT(e)
	if p.GetID() == "" {
		return nil, fmt.Errorf("%w: id is required", repository.ErrInvalidInput)
	}
	stored, err := r.c.Read(ctx, p.GetID(), p.PartitionKeyValue())
	if err != nil {
		return nil, err
	}
	prev, err := r.decode(*stored)
	if err != nil {
		return nil, err
	}
	p.SetCreatedAt(PT(prev).GetCreatedAt())
	p.SetUpdatedAt(r.deps.now().UTC())
	p.SetPartitionKey(p.PartitionKeyValue())

	it, err := r.encode(p)
	if err != nil {
		return nil, err
	}
	res, err := r.c.Replace(ctx, it)
	if err != nil {
		return nil, err
	}
	p.SetETag(res.ETag)
	return e, nil
}

// Upsert inserta o reemplaza. Sin id genera uno y fija createdAt; con id es
// una escritura ciega que no toca createdAt.
func (r *Repository[T, PT]) Upsert(ctx context.Context, e *T) (_ *T, err error) {
	ctx, end := r.start(ctx, "Upsert")
	defer func() { end(err) }()

	p := PT(e)
	now := r.deps.now().UTC()
	if p.GetID() == "" {
		p.SetID(r.deps.newID())
		p.SetCreatedAt(now)
	}
	p.SetUpdatedAt(now)
	p.SetPartitionKey(p.PartitionKeyValue())

	it, err := r.encode(p)
	if err != nil {
		return nil, err
	}
	res, err := r.c.Upsert(ctx, it)
	if err != nil {
		return nil, err
	}
	p.SetETag(res.ETag)
	return e, nil
}

// Delete borra por (id, pk). ErrNotFound si no existe.
func (r *Repository[T, PT]) Delete(ctx context.Context, id, pk string) (err error) {
	ctx, end := r.start(ctx, "Delete", attribute.String("db.document.id", id))
	defer func() { end(err) }()

	return r.c.Delete(ctx, id, pk)
}

// Exists indica si existe (id, pk).
func (r *Repository[T, PT]) Exists(ctx context.Context, id, pk string) (_ bool, err error) {
	ctx, end := r.start(ctx, "Exists", attribute.String("db.document.id", id))
	defer func() { end(err) }()

	_, err = r.c.Read(ctx, id, pk)
	if repository.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count cuenta los documentos de la partición.
func (r *Repository[T, PT]) Count(ctx context.Context, pk string) (_ int64, err error) {
	ctx, end := r.start(ctx, "Count")
	defer func() { end(err) }()

	bound, _ := selectAll.Bind(nil)
	return r.c.Count(ctx, bound, pk)
}

// ListPaged devuelve una sola página de la partición. pageSize <= 0 usa
// DefaultPageSize; se recorta a MaxPageSize. ContinuationToken vacío en el
// resultado indica fin.
func (r *Repository[T, PT]) ListPaged(ctx context.Context, pk string, pageSize int, token string) (_ repository.Page[T], err error) {
	ctx, end := r.start(ctx, "ListPaged", attribute.Int("db.page_size", pageSize))
	defer func() { end(err) }()

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	bound, _ := selectAll.Bind(nil)
	page, err := r.c.Query(ctx, bound, QueryOptions{PartitionKey: pk, MaxItems: pageSize, Continuation: token})
	if err != nil {
		return repository.Page[T]{}, err
	}
	items, err := r.decodeAll(page.Items)
	if err != nil {
		return repository.Page[T]{}, err
	}
	return repository.Page[T]{Items: items, ContinuationToken: page.Continuation}, nil
}

// Query ejecuta una query parametrizada sobre todo el container (no se acota
// a una partición) y drena todas las páginas.
func (r *Repository[T, PT]) Query(ctx context.Context, text string, params map[string]any) (_ []*T, err error) {
	ctx, end := r.start(ctx, "Query", attribute.String("db.query.text", query.Quote(text)))
	defer func() { end(err) }()

	st, err := query.Parse(text)
	if err != nil {
		return nil, err
	}
	bound, err := st.Bind(params)
	if err != nil {
		return nil, err
	}
	return r.drain(ctx, bound, "")
}

func (r *Repository[T, PT]) drain(ctx context.Context, q *query.Bound, pk string) ([]*T, error) {
	var out []*T
	token := ""
	for {
		page, err := r.c.Query(ctx, q, QueryOptions{PartitionKey: pk, MaxItems: drainPageSize, Continuation: token})
		if err != nil {
			return nil, err
		}
		items, err := r.decodeAll(page.Items)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if page.Continuation == "" {
			break
		}
		token = page.Continuation
	}
	if out == nil {
		out = []*T{}
	}
	return out, nil
}
