package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"clinipos/internal/core/id"
	"clinipos/internal/domain"
	"clinipos/internal/domain/documents/sale"
	"clinipos/internal/infrastructure/storage/postgres"
)

const (
	saleTable            = "doc_sales"
	saleLineTable        = "doc_sale_lines"
	saleServiceLineTable = "doc_sale_service_lines"
)

var (
	saleLineColumns        = []string{"sale_id", "line_id", "line_no", "item_code", "item_name", "qty", "unit_price"}
	saleServiceLineColumns = []string{"sale_id", "line_id", "line_no", "service_id", "service_name", "qty", "unit_price"}
)

// SaleRepo implements sale.Repository. Sale headers and their line
// tables are append-only.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]

	inserter *postgres.BatchInserter
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*sale.Sale](
			txManager,
			saleTable,
			postgres.ExtractDBColumns[sale.Sale](),
			func() *sale.Sale { return &sale.Sale{} },
		),
		inserter: postgres.NewBatchInserter(txManager),
	}
}

var _ sale.Repository = (*SaleRepo)(nil)

// GetByReference retrieves a sale by its public reference.
func (r *SaleRepo) GetByReference(ctx context.Context, reference string) (*sale.Sale, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"reference": reference}))
}

// SaveLines stores the product lines of a sale. Inside a transaction it
// uses the COPY protocol; outside it falls back to a multi-row INSERT.
func (r *SaleRepo) SaveLines(ctx context.Context, saleID id.ID, lines []sale.Line) error {
	if len(lines) == 0 {
		return nil
	}

	if r.txManager.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []any{saleID, l.LineID, l.LineNo, l.ItemCode, l.ItemName, l.Qty, l.UnitPrice})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, saleLineTable, saleLineColumns, rows); err != nil {
			return fmt.Errorf("copy sale lines: %w", err)
		}
		return nil
	}

	q := r.Builder().Insert(saleLineTable).Columns(saleLineColumns...)
	for _, l := range lines {
		q = q.Values(saleID, l.LineID, l.LineNo, l.ItemCode, l.ItemName, l.Qty, l.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}
	return nil
}

// SaveServiceLines stores the service lines of a sale.
func (r *SaleRepo) SaveServiceLines(ctx context.Context, saleID id.ID, lines []sale.ServiceLine) error {
	if len(lines) == 0 {
		return nil
	}

	if r.txManager.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []any{saleID, l.LineID, l.LineNo, l.ServiceID, l.ServiceName, l.Qty, l.UnitPrice})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, saleServiceLineTable, saleServiceLineColumns, rows); err != nil {
			return fmt.Errorf("copy sale service lines: %w", err)
		}
		return nil
	}

	q := r.Builder().Insert(saleServiceLineTable).Columns(saleServiceLineColumns...)
	for _, l := range lines {
		q = q.Values(saleID, l.LineID, l.LineNo, l.ServiceID, l.ServiceName, l.Qty, l.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale service lines: %w", err)
	}
	return nil
}

// GetLines retrieves the product lines for a sale in document order.
func (r *SaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "item_code", "item_name", "qty", "unit_price").
		From(saleLineTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sale.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	return lines, nil
}

// GetServiceLines retrieves the service lines for a sale in document order.
func (r *SaleRepo) GetServiceLines(ctx context.Context, saleID id.ID) ([]sale.ServiceLine, error) {
	q := r.Builder().
		Select("line_id", "line_no", "service_id", "service_name", "qty", "unit_price").
		From(saleServiceLineTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sale.ServiceLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale service lines: %w", err)
	}
	return lines, nil
}

// List retrieves sales with sale-specific filters.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	q := r.baseSelect()

	if filter.Reference != "" {
		q = q.Where(squirrel.Eq{"reference": filter.Reference})
	}
	if filter.PaymentMethod != "" {
		q = q.Where(squirrel.Eq{"payment_method": filter.PaymentMethod})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *filter.DateTo})
	}

	return r.ListWith(ctx, q, filter.ListFilter)
}
