// Package receiving provides the PurchaseBatch document repository.
package receiving

import (
	"context"
	"time"

	"clinipos/internal/core/id"
	"clinipos/internal/domain"
)

// Repository defines operations for purchase batch documents.
// Batches are append-only: there is no update or delete.
type Repository interface {
	Create(ctx context.Context, doc *PurchaseBatch) error
	GetByID(ctx context.Context, docID id.ID) (*PurchaseBatch, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseBatch, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseBatch], error)
}

// ListFilter for filtering purchase batches.
type ListFilter struct {
	domain.ListFilter

	// Document-specific filters
	Code     string
	Supplier string
	DateFrom *time.Time
	DateTo   *time.Time
}
