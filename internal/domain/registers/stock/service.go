// Package stock provides the stock ledger service.
package stock

import (
	"context"
	"fmt"
	"sort"

	"clinipos/internal/core/apperror"
)

// Service provides ledger operations. Transactions are managed by the
// caller (checkout and receiving engines).
type Service struct {
	repo Repository
}

// NewService creates a new stock ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Snapshot locks the given codes in deterministic order and returns
// their current quantities. Must be called inside a transaction; the
// snapshot stays consistent with later Adjust calls in the same tx.
func (s *Service) Snapshot(ctx context.Context, codes []string) (map[string]int64, error) {
	if len(codes) == 0 {
		return map[string]int64{}, nil
	}

	unique := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	sort.Strings(unique)

	snapshot, err := s.repo.OnHandForUpdate(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("lock stock rows: %w", err)
	}
	return snapshot, nil
}

// OnHand returns the current quantity for a code.
func (s *Service) OnHand(ctx context.Context, code string) (int64, error) {
	qty, err := s.repo.OnHand(ctx, code)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, apperror.NewNotFound("item", code)
		}
		return 0, err
	}
	return qty, nil
}

// OnHandBatch returns current quantities for several codes.
func (s *Service) OnHandBatch(ctx context.Context, codes []string) (map[string]int64, error) {
	return s.repo.OnHandBatch(ctx, codes)
}

// Adjust changes a code's quantity by delta. A guarded update that
// matches no row (missing code or would-be-negative result) surfaces as
// an error for the caller to roll back on.
func (s *Service) Adjust(ctx context.Context, code string, delta int64) error {
	if delta == 0 {
		return nil
	}
	if err := s.repo.Adjust(ctx, code, delta); err != nil {
		return fmt.Errorf("adjust stock for %s by %d: %w", code, delta, err)
	}
	return nil
}
