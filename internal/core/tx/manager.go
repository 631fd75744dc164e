// Package tx provides transaction management abstractions.
// This package defines interfaces that decouple domain logic from specific
// database implementations, following the Dependency Inversion Principle.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
//
// Domain services depend on this interface, not concrete implementations.
// The actual implementation lives in infrastructure/storage/postgres.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SerializableManager extends Manager with serializable isolation.
// Checkout and inventory merges run under it: the combination of
// SERIALIZABLE isolation and row locks taken in deterministic order keeps
// concurrent operations on the same item from double-counting stock.
type SerializableManager interface {
	Manager

	// RunSerializable executes fn in a SERIALIZABLE transaction.
	// Serialization failures are returned to the caller; there is no
	// automatic retry.
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}
