package entity

import (
	"context"
	"time"

	"clinipos/internal/core/id"
)

// Validatable is implemented by entities that check their own
// invariants. Validation never touches the database; uniqueness and
// referential checks belong to repositories.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity carries the fields shared by every persisted row: a
// UUIDv7 key, the soft-delete mark, the optimistic-lock version, and
// the JSONB extras column.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version is incremented by the repository on every update
	Version int `db:"version" json:"version"`

	Attributes Attributes `db:"attributes" json:"attributes,omitempty"`
}

// NewBaseEntity creates a BaseEntity with a generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// Touch increments the optimistic-lock version.
func (b *BaseEntity) Touch() {
	b.Version++
}

// BaseDocument extends BaseEntity with the audit fields documents
// carry. Catalogs stay lean; documents record who and when.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a BaseDocument with generated ID and timestamps.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch updates UpdatedAt and increments the version.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.BaseEntity.Touch()
}

// BaseCatalog uses BaseEntity directly; catalogs carry no audit fields.
type BaseCatalog struct {
	BaseEntity
}

// NewBaseCatalog creates a BaseCatalog with a generated ID.
func NewBaseCatalog() BaseCatalog {
	return BaseCatalog{
		BaseEntity: NewBaseEntity(),
	}
}
