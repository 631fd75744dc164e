// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"clinipos/internal/core/apperror"
	"clinipos/internal/domain/registers/stock"
	"clinipos/internal/infrastructure/storage/postgres"
)

const itemsTable = "cat_items"

// StockRepo implements stock.Repository over the quantity column of the
// items table. There is no separate balance register: the item row is
// the single source of truth, which keeps the checkout decrement and
// the catalog read trivially consistent.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)

// OnHand returns the current quantity for a code.
func (r *StockRepo) OnHand(ctx context.Context, code string) (int64, error) {
	q := r.builder.Select("quantity").
		From(itemsTable).
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var qty int64
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, apperror.NewNotFound("item", code)
	}
	if err != nil {
		return 0, fmt.Errorf("on hand for %s: %w", code, err)
	}

	return qty, nil
}

// OnHandBatch returns current quantities for several codes. Codes
// without a catalog row are absent from the result.
func (r *StockRepo) OnHandBatch(ctx context.Context, codes []string) (map[string]int64, error) {
	return r.selectQuantities(ctx, codes, false)
}

// OnHandForUpdate returns quantities with row locks. The ORDER BY makes
// lock acquisition deterministic so overlapping checkouts line up
// instead of deadlocking.
func (r *StockRepo) OnHandForUpdate(ctx context.Context, codes []string) (map[string]int64, error) {
	return r.selectQuantities(ctx, codes, true)
}

func (r *StockRepo) selectQuantities(ctx context.Context, codes []string, forUpdate bool) (map[string]int64, error) {
	if len(codes) == 0 {
		return map[string]int64{}, nil
	}

	q := r.builder.Select("code", "quantity").
		From(itemsTable).
		Where(squirrel.Eq{"code": codes}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code ASC")

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select quantities: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64, len(codes))
	for rows.Next() {
		var code string
		var qty int64
		if err := rows.Scan(&code, &qty); err != nil {
			return nil, fmt.Errorf("scan quantity: %w", err)
		}
		out[code] = qty
	}

	return out, rows.Err()
}

// Adjust changes a code's quantity by delta. The quantity + delta >= 0
// guard is enforced in the WHERE clause: zero rows affected means either
// the code is gone or the result would go negative, and either way the
// enclosing transaction must roll back.
func (r *StockRepo) Adjust(ctx context.Context, code string, delta int64) error {
	q := r.builder.Update(itemsTable).
		Set("quantity", squirrel.Expr("quantity + ?", delta)).
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Expr("quantity + ? >= 0", delta))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust quantity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("no stock row adjusted for %s (missing or would go negative)", code)
	}

	return nil
}
