package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"clinipos/internal/core/id"
	"clinipos/internal/domain"
	servicecat "clinipos/internal/domain/catalogs/service"
	"clinipos/internal/infrastructure/storage/postgres"
)

const (
	serviceTable    = "cat_services"
	serviceBOMTable = "cat_service_bom"
)

// ServiceRepo implements the service catalog repository. The bill of
// materials lives in a child table and is replaced wholesale on update.
type ServiceRepo struct {
	*BaseCatalogRepo[*servicecat.Service]
	txManager *postgres.TxManager
}

// NewServiceRepo creates a new service repository.
func NewServiceRepo(txManager *postgres.TxManager) *ServiceRepo {
	return &ServiceRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*servicecat.Service](
			txManager,
			serviceTable,
			postgres.ExtractDBColumns[servicecat.Service](),
			func() *servicecat.Service { return &servicecat.Service{} },
		),
		txManager: txManager,
	}
}

var _ servicecat.Repository = (*ServiceRepo)(nil)

// Create inserts the service row and its bill of materials.
func (r *ServiceRepo) Create(ctx context.Context, svc *servicecat.Service) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.BaseCatalogRepo.Create(ctx, svc); err != nil {
			return err
		}
		return r.insertBOM(ctx, svc.ID, svc.BillOfMaterials)
	})
}

// Update modifies the service row and replaces its bill of materials.
func (r *ServiceRepo) Update(ctx context.Context, svc *servicecat.Service) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.BaseCatalogRepo.Update(ctx, svc); err != nil {
			return err
		}
		if err := r.deleteBOM(ctx, svc.ID); err != nil {
			return err
		}
		return r.insertBOM(ctx, svc.ID, svc.BillOfMaterials)
	})
}

// GetByID retrieves the service with its bill of materials.
func (r *ServiceRepo) GetByID(ctx context.Context, svcID id.ID) (*servicecat.Service, error) {
	svc, err := r.BaseCatalogRepo.GetByID(ctx, svcID)
	if err != nil {
		return nil, err
	}
	if err := r.loadBOM(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// GetByCode retrieves the service with its bill of materials.
func (r *ServiceRepo) GetByCode(ctx context.Context, code string) (*servicecat.Service, error) {
	svc, err := r.BaseCatalogRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := r.loadBOM(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// List retrieves services with their bills of materials.
func (r *ServiceRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*servicecat.Service], error) {
	result, err := r.BaseCatalogRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	for _, svc := range result.Items {
		if err := r.loadBOM(ctx, svc); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *ServiceRepo) loadBOM(ctx context.Context, svc *servicecat.Service) error {
	q := r.Builder().
		Select("item_code", "qty_per_unit").
		From(serviceBOMTable).
		Where(squirrel.Eq{"service_id": svc.ID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build bom query: %w", err)
	}

	var lines []servicecat.BOMLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return fmt.Errorf("load bom for %s: %w", svc.Code, err)
	}
	svc.BillOfMaterials = lines
	return nil
}

func (r *ServiceRepo) insertBOM(ctx context.Context, svcID id.ID, lines []servicecat.BOMLine) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(serviceBOMTable).
		Columns("service_id", "line_no", "item_code", "qty_per_unit")
	for i, line := range lines {
		q = q.Values(svcID, i+1, line.ItemCode, line.QtyPerUnit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build bom insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert bom: %w", err)
	}
	return nil
}

func (r *ServiceRepo) deleteBOM(ctx context.Context, svcID id.ID) error {
	q := r.Builder().
		Delete(serviceBOMTable).
		Where(squirrel.Eq{"service_id": svcID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build bom delete: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete bom: %w", err)
	}
	return nil
}
