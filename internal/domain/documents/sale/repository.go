package sale

import (
	"context"
	"time"

	"clinipos/internal/core/id"
	"clinipos/internal/domain"
)

// Repository defines operations for sale documents.
// Sales are append-only: there is no update or delete.
type Repository interface {
	Create(ctx context.Context, doc *Sale) error
	GetByID(ctx context.Context, docID id.ID) (*Sale, error)
	GetByReference(ctx context.Context, reference string) (*Sale, error)

	SaveLines(ctx context.Context, saleID id.ID, lines []Line) error
	SaveServiceLines(ctx context.Context, saleID id.ID, lines []ServiceLine) error
	GetLines(ctx context.Context, saleID id.ID) ([]Line, error)
	GetServiceLines(ctx context.Context, saleID id.ID) ([]ServiceLine, error)

	// Count returns the number of recorded sales. Used to synthesize
	// "Customer #<n>" names for walk-in customers.
	Count(ctx context.Context) (int64, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}

// ListFilter for filtering sales.
type ListFilter struct {
	domain.ListFilter

	Reference     string
	PaymentMethod string
	DateFrom      *time.Time
	DateTo        *time.Time
}
