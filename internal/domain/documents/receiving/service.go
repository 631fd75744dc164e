// Package receiving provides the inventory reconciliation engine.
package receiving

import (
	"context"
	"fmt"
	"time"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/id"
	"clinipos/internal/core/numerator"
	"clinipos/internal/core/tx"
	"clinipos/internal/domain/catalogs/item"
	"clinipos/internal/domain/registers/stock"
	"clinipos/pkg/logger"
)

// ChangeLogger records before/after diffs for forced merges.
// Implemented by the postgres change log; nil disables recording.
type ChangeLogger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service is the reconciliation engine: it decides whether an incoming
// batch creates a new catalog row or merges into an existing one, and
// surfaces metadata conflicts for operator confirmation.
type Service struct {
	repo      Repository
	items     item.Repository
	ledger    *stock.Service
	txManager tx.SerializableManager
	numerator numerator.Generator
	changeLog ChangeLogger
}

// NewService creates the reconciliation engine.
func NewService(
	repo Repository,
	items item.Repository,
	ledger *stock.Service,
	txManager tx.SerializableManager,
	gen numerator.Generator,
	changeLog ChangeLogger,
) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		ledger:    ledger,
		txManager: txManager,
		numerator: gen,
		changeLog: changeLog,
	}
}

// Receive merges an incoming batch into the catalog.
//
// The audit PurchaseBatch is committed first in its own transaction, so
// an audit row exists even when the merge is rejected with a conflict.
// The merge itself runs under SERIALIZABLE with the item row locked, so
// a concurrent checkout on the same code cannot interleave.
func (s *Service) Receive(ctx context.Context, batch IncomingBatch, force bool) (*ReceiveResult, error) {
	if err := batch.Validate(ctx); err != nil {
		return nil, err
	}

	doc, err := s.recordAudit(ctx, &batch)
	if err != nil {
		return nil, err
	}

	var result *ReceiveResult
	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		existing, err := s.items.GetByCodeForUpdate(ctx, batch.Code)
		if err != nil {
			if !apperror.IsNotFound(err) {
				return fmt.Errorf("lookup item %s: %w", batch.Code, err)
			}

			// First receipt of this code: new catalog row.
			fresh := batch.toItem()
			if err := fresh.Validate(ctx); err != nil {
				return err
			}
			if err := s.items.Create(ctx, fresh); err != nil {
				return fmt.Errorf("create item %s: %w", batch.Code, err)
			}
			result = s.buildResult(doc, OutcomeCreated, nil)
			return nil
		}

		merged, err := s.merge(ctx, existing, &batch, force)
		if err != nil {
			return err
		}
		result = s.buildResult(doc, OutcomeUpdated, merged)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch received",
		"number", doc.Number,
		"code", batch.Code,
		"outcome", result.Outcome,
		"quantity", batch.Quantity)

	return result, nil
}

// UpdateItem applies the same conflict/force semantics scoped to one row
// by internal id. Unlike the original design this path also records the
// audit batch: one receiving event, one audit row, whichever route.
func (s *Service) UpdateItem(ctx context.Context, itemID id.ID, batch IncomingBatch, force bool) (*ReceiveResult, error) {
	if err := batch.Validate(ctx); err != nil {
		return nil, err
	}

	doc, err := s.recordAudit(ctx, &batch)
	if err != nil {
		return nil, err
	}

	var result *ReceiveResult
	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		existing, err := s.items.GetForUpdate(ctx, itemID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("item", itemID.String())
			}
			return fmt.Errorf("lookup item %s: %w", itemID, err)
		}

		merged, err := s.merge(ctx, existing, &batch, force)
		if err != nil {
			return err
		}
		result = s.buildResult(doc, OutcomeUpdated, merged)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// recordAudit persists the PurchaseBatch in its own committed transaction.
func (s *Service) recordAudit(ctx context.Context, batch *IncomingBatch) (*PurchaseBatch, error) {
	doc := batch.toDocument()

	cfg := numerator.DefaultConfig(NumberPrefix)
	number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate batch number: %w", err)
	}
	doc.Number = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("record purchase batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// merge reconciles the batch into an existing row. Returns the list of
// fields actually changed, or a conflict error when the diff is
// non-empty and force is off.
func (s *Service) merge(ctx context.Context, existing *item.Item, batch *IncomingBatch, force bool) ([]FieldMismatch, error) {
	mismatches := batch.diffAgainst(existing)

	if len(mismatches) > 0 && !force {
		return nil, apperror.NewConflict("existing item metadata differs from incoming batch").
			WithDetail("code", batch.Code).
			WithDetail("mismatches", mismatches).
			WithDetail("canForceUpdate", true)
	}

	batch.applyTo(existing)
	if err := existing.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.items.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update item %s: %w", existing.Code, err)
	}

	// Quantity is merged additively through the ledger, never overwritten.
	if err := s.ledger.Adjust(ctx, existing.Code, batch.Quantity); err != nil {
		return nil, err
	}

	if len(mismatches) > 0 && s.changeLog != nil {
		changes := make(map[string]any, len(mismatches))
		for _, m := range mismatches {
			changes[m.Field] = map[string]any{"old": m.Existing, "new": m.Incoming}
		}
		if err := s.changeLog.LogChange(ctx, "item", existing.ID, "force_merge", changes); err != nil {
			return nil, fmt.Errorf("record forced merge: %w", err)
		}
	}

	return mismatches, nil
}

func (s *Service) buildResult(doc *PurchaseBatch, outcome Outcome, changed []FieldMismatch) *ReceiveResult {
	fields := make([]string, 0, len(changed))
	for _, m := range changed {
		fields = append(fields, m.Field)
	}
	return &ReceiveResult{
		Outcome:       outcome,
		PurchaseID:    doc.ID.String(),
		BatchNumber:   doc.Number,
		Code:          doc.Code,
		AddedQuantity: doc.Quantity,
		UpdatedFields: fields,
	}
}

// GetByID retrieves one purchase batch.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*PurchaseBatch, error) {
	return s.repo.GetByID(ctx, docID)
}

// List retrieves purchase batches with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*PurchaseBatch, int64, error) {
	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return res.Items, res.TotalCount, nil
}
