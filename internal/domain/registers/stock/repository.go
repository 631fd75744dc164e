// Package stock provides the stock ledger over item on-hand quantities.
package stock

import (
	"context"
)

// Repository defines the ledger primitives. There is a single mutable
// quantity per item code; all operations are scoped to codes.
//
// Adjust and the ForUpdate variants are only meaningful inside a
// transaction; correctness comes from transaction isolation plus the
// conditional update guard, not from in-process locks.
type Repository interface {
	// OnHand returns the current quantity for a code.
	OnHand(ctx context.Context, code string) (int64, error)

	// OnHandBatch returns current quantities for several codes.
	// Codes without a catalog row are absent from the result.
	OnHandBatch(ctx context.Context, codes []string) (map[string]int64, error)

	// OnHandForUpdate returns quantities with row locks (FOR UPDATE).
	// Implementations must acquire locks in sorted code order so that
	// two overlapping checkouts cannot deadlock.
	OnHandForUpdate(ctx context.Context, codes []string) (map[string]int64, error)

	// Adjust changes a code's quantity by delta (negative for sales,
	// positive for receiving). The update carries a quantity+delta >= 0
	// guard; zero rows affected is returned as an error so the enclosing
	// transaction rolls back.
	Adjust(ctx context.Context, code string, delta int64) error
}
