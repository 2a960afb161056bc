package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
)

// Item es un documento JSON con su identidad dentro del container.
// Data contiene el documento completo, incluido "_etag".
type Item struct {
	ID           string
	PartitionKey string
	ETag         string
	Data         []byte
}

// QueryOptions acota una consulta.
type QueryOptions struct {
	// PartitionKey vacío = consulta sobre todo el container.
	PartitionKey string
	// MaxItems tamaño de página. 0 = sin límite (una sola página).
	MaxItems int
	// Continuation token devuelto por la página anterior.
	Continuation string
}

// Page es una página de documentos. Continuation vacío = no hay más.
type Page struct {
	Items        []Item
	Continuation string
}

// ParsePartitionKeyPath valida un path "/a/b" y lo divide en segmentos.
func ParsePartitionKeyPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") || len(path) < 2 {
		return nil, fmt.Errorf("%w: partition key path %q must look like /field", ErrInvalidConfig, path)
	}
	parts := strings.Split(path[1:], "/")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: partition key path %q has an empty segment", ErrInvalidConfig, path)
		}
	}
	return parts, nil
}

// NewETag genera un etag opaco.
func NewETag() string {
	return uuid.NewString()
}

// StampETag asigna un etag nuevo al item y lo escribe en Data.
// Valida además que Data sea un objeto JSON cuyo "id" coincida con item.ID.
func StampETag(item Item) (Item, error) {
	var doc map[string]any
	if err := json.Unmarshal(item.Data, &doc); err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if item.ID == "" {
		return Item{}, fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	if id, _ := doc["id"].(string); id != item.ID {
		return Item{}, fmt.Errorf("%w: body id %q does not match %q", ErrInvalidDocument, id, item.ID)
	}
	item.ETag = NewETag()
	doc["_etag"] = item.ETag
	data, err := json.Marshal(doc)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	item.Data = data
	return item, nil
}

// ItemFromJSON reconstruye un Item a partir del documento almacenado.
func ItemFromJSON(data []byte, pkPath []string) (Item, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	id, _ := doc["id"].(string)
	if id == "" {
		return Item{}, fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	etag, _ := doc["_etag"].(string)

	var cur any = doc
	for _, seg := range pkPath {
		m, ok := cur.(map[string]any)
		if !ok {
			cur = nil
			break
		}
		cur = m[seg]
	}
	pk, _ := cur.(string)
	return Item{ID: id, PartitionKey: pk, ETag: etag, Data: data}, nil
}

// ─── Continuation tokens ───

// Cursor es la posición (partitionKey, id) del último item entregado.
type Cursor struct {
	PartitionKey string `json:"pk"`
	ID           string `json:"id"`
}

// After indica si (pk, id) va después del cursor en el orden del container.
func (c Cursor) After(pk, id string) bool {
	if pk != c.PartitionKey {
		return pk > c.PartitionKey
	}
	return id > c.ID
}

// EncodeContinuation serializa el cursor como token opaco.
func EncodeContinuation(c Cursor) string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// errBadToken es a la vez ErrInvalidQuery y repository.ErrInvalidInput: el token
// lo provee el cliente.
var errBadToken = fmt.Errorf("%w: %w: malformed continuation token", ErrInvalidQuery, repository.ErrInvalidInput)

// DecodeContinuation parsea un token. Token vacío => (nil, nil).
func DecodeContinuation(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errBadToken
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return nil, errBadToken
	}
	return &c, nil
}

// Paginate corta una lista ya ordenada y filtrada según opts. Lo usan los
// adapters que materializan el container en memoria (badger, fs).
func Paginate(items []Item, opts QueryOptions) (Page, error) {
	cur, err := DecodeContinuation(opts.Continuation)
	if err != nil {
		return Page{}, err
	}
	start := 0
	if cur != nil {
		for start < len(items) && !cur.After(items[start].PartitionKey, items[start].ID) {
			start++
		}
	}
	items = items[start:]
	if opts.MaxItems <= 0 || len(items) <= opts.MaxItems {
		return Page{Items: items}, nil
	}
	page := items[:opts.MaxItems]
	last := page[len(page)-1]
	return Page{
		Items:        page,
		Continuation: EncodeContinuation(Cursor{PartitionKey: last.PartitionKey, ID: last.ID}),
	}, nil
}
