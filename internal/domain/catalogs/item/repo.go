package item

import (
	"context"

	"clinipos/internal/core/id"
	"clinipos/internal/domain"
)

// Repository defines the interface for Item persistence.
type Repository interface {
	domain.CatalogRepository[*Item]

	// GetForUpdate retrieves an item with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Item, error)

	// GetByCodeForUpdate retrieves an item by code with a row lock.
	// Used by the reconciliation and checkout paths inside transactions.
	GetByCodeForUpdate(ctx context.Context, code string) (*Item, error)
}
