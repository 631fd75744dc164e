package item

import (
	"context"

	"clinipos/internal/core/id"
	"clinipos/internal/core/tx"
	"clinipos/internal/domain"
	"clinipos/pkg/logger"
)

// LogoStore removes stored logo assets. Implemented by infrastructure/assets.
type LogoStore interface {
	Delete(ctx context.Context, ref string) error
}

// ChangeLogger records the final state of removed items.
// Implemented by the postgres change log; nil disables recording.
type ChangeLogger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service provides business logic for the Item catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Item]
	repo    Repository
	logos   LogoStore
	changes ChangeLogger
}

// NewService creates a new Item catalog service.
// logos and changes may be nil.
func NewService(repo Repository, txManager tx.Manager, logos LogoStore, changes ChangeLogger) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Item]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "item",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		logos:          logos,
		changes:        changes,
	}

	// Deleting an unreferenced item cascades to its logo asset, and the
	// removed row is preserved in the change log.
	base.Hooks().On(domain.AfterDelete, svc.recordDeletion)
	base.Hooks().On(domain.AfterDelete, svc.cleanupLogo)

	return svc
}

func (s *Service) recordDeletion(ctx context.Context, it *Item) error {
	if s.changes == nil {
		return nil
	}
	snapshot := map[string]any{
		"code":         it.Code,
		"name":         it.Name,
		"brand":        it.Brand,
		"category":     string(it.Category),
		"costUnit":     it.CostUnit.String(),
		"sellingPrice": it.SellingPrice.String(),
		"quantity":     it.Quantity,
		"expiry":       it.Expiry,
	}
	if it.HasLogo() {
		snapshot["logoRef"] = *it.LogoRef
	}
	return s.changes.LogChange(ctx, "item", it.ID, "delete", snapshot)
}

func (s *Service) cleanupLogo(ctx context.Context, it *Item) error {
	if s.logos == nil || !it.HasLogo() {
		return nil
	}
	if err := s.logos.Delete(ctx, *it.LogoRef); err != nil {
		// The catalog row is already gone; an orphaned file is not worth failing over.
		logger.Warn(ctx, "logo cleanup failed", "code", it.Code, "ref", *it.LogoRef, "error", err)
	}
	return nil
}
