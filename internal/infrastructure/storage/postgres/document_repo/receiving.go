package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"clinipos/internal/domain"
	"clinipos/internal/domain/documents/receiving"
	"clinipos/internal/infrastructure/storage/postgres"
)

const purchaseBatchTable = "doc_purchase_batches"

// ReceivingRepo implements receiving.Repository. Purchase batches are
// append-only: there is deliberately no update or delete path.
type ReceivingRepo struct {
	*BaseDocumentRepo[*receiving.PurchaseBatch]
}

// NewReceivingRepo creates a new purchase batch repository.
func NewReceivingRepo(txManager *postgres.TxManager) *ReceivingRepo {
	return &ReceivingRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*receiving.PurchaseBatch](
			txManager,
			purchaseBatchTable,
			postgres.ExtractDBColumns[receiving.PurchaseBatch](),
			func() *receiving.PurchaseBatch { return &receiving.PurchaseBatch{} },
		),
	}
}

var _ receiving.Repository = (*ReceivingRepo)(nil)

// List retrieves purchase batches with receiving-specific filters.
func (r *ReceivingRepo) List(ctx context.Context, filter receiving.ListFilter) (domain.ListResult[*receiving.PurchaseBatch], error) {
	q := r.baseSelect()

	if filter.Code != "" {
		q = q.Where(squirrel.Eq{"code": filter.Code})
	}
	if filter.Supplier != "" {
		q = q.Where(squirrel.ILike{"supplier": "%" + filter.Supplier + "%"})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *filter.DateTo})
	}

	return r.ListWith(ctx, q, filter.ListFilter)
}
