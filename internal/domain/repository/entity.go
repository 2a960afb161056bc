package repository

import "time"

// Entity es la capacidad mínima que la base genérica necesita de un registro
// persistido. PartitionKeyValue es una función del tipo concreto, no de la
// instancia: todos los registros de un tipo comparten partición.
type Entity interface {
	GetID() string
	SetID(id string)
	GetETag() string
	SetETag(etag string)
	GetCreatedAt() time.Time
	SetCreatedAt(t time.Time)
	SetUpdatedAt(t time.Time)
	PartitionKeyValue() string
	SetPartitionKey(pk string)
}

// BaseEntity lleva los campos comunes de todo registro. Se embebe por valor
// en la entidad concreta; el JSON queda plano.
type BaseEntity struct {
	ID           string    `json:"id"`
	ETag         string    `json:"_etag,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	PartitionKey string    `json:"partitionKey"`
}

func (b *BaseEntity) GetID() string             { return b.ID }
func (b *BaseEntity) SetID(id string)           { b.ID = id }
func (b *BaseEntity) GetETag() string           { return b.ETag }
func (b *BaseEntity) SetETag(etag string)       { b.ETag = etag }
func (b *BaseEntity) GetCreatedAt() time.Time   { return b.CreatedAt }
func (b *BaseEntity) SetCreatedAt(t time.Time)  { b.CreatedAt = t }
func (b *BaseEntity) SetUpdatedAt(t time.Time)  { b.UpdatedAt = t }
func (b *BaseEntity) SetPartitionKey(pk string) { b.PartitionKey = pk }

// Page es una página de resultados. ContinuationToken vacío significa que no
// hay más resultados.
type Page[T any] struct {
	Items             []*T
	ContinuationToken string
}

// HasMore indica si existe una página siguiente.
func (p Page[T]) HasMore() bool {
	return p.ContinuationToken != ""
}
