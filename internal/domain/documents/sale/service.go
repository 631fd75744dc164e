// Package sale provides the checkout engine.
package sale

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/entity"
	"clinipos/internal/core/id"
	"clinipos/internal/core/tx"
	"clinipos/internal/domain/catalogs/item"
	services "clinipos/internal/domain/catalogs/service"
	"clinipos/internal/domain/registers/stock"
	"clinipos/pkg/logger"
)

// Service is the sale transaction engine. It exclusively owns the commit
// protocol across Sale, its lines and item quantities: everything inside
// one serializable transaction, committed whole or not at all.
type Service struct {
	repo        Repository
	items       item.Repository
	serviceRepo services.Repository
	ledger      *stock.Service
	txManager   tx.SerializableManager
}

// NewService creates the checkout engine.
func NewService(
	repo Repository,
	items item.Repository,
	serviceRepo services.Repository,
	ledger *stock.Service,
	txManager tx.SerializableManager,
) *Service {
	return &Service{
		repo:        repo,
		items:       items,
		serviceRepo: serviceRepo,
		ledger:      ledger,
		txManager:   txManager,
	}
}

// resolvedService is a service cart line with its catalog row loaded.
type resolvedService struct {
	line CartLine
	svc  *services.Service
}

// Checkout converts a cart into a committed sale.
//
// Phases inside a single SERIALIZABLE transaction:
//  1. resolve services and their bills of materials;
//  2. read phase: lock every touched code (sorted order), snapshot
//     quantities, check each line independently against the snapshot;
//  3. commit phase: insert header + lines, decrement stock per line.
//
// Demands are additive, never deduplicated: a code appearing both as a
// direct line and inside a service BOM is checked and decremented for
// each occurrence. The guarded decrement backstops aggregate overdraw
// that per-line checks cannot see.
func (s *Service) Checkout(ctx context.Context, cart []CartLine, meta SaleMeta) (*CheckoutResult, error) {
	if err := validateCart(cart); err != nil {
		return nil, err
	}

	var result *CheckoutResult
	committing := false

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		productLines, serviceLines := partition(cart)

		resolved, err := s.resolveServices(ctx, serviceLines)
		if err != nil {
			return err
		}

		snapshot, err := s.snapshotStock(ctx, productLines, resolved)
		if err != nil {
			return err
		}

		if err := s.checkAvailability(productLines, resolved, snapshot); err != nil {
			return err
		}

		// Commit phase. Any failure below must roll everything back.
		committing = true

		doc, err := s.buildSale(ctx, productLines, resolved, meta)
		if err != nil {
			return err
		}

		if err := s.persist(ctx, doc); err != nil {
			return err
		}

		if err := s.decrementStock(ctx, productLines, resolved); err != nil {
			return err
		}

		result = &CheckoutResult{
			SaleID:       doc.ID,
			Reference:    doc.Reference,
			CustomerName: doc.CustomerName,
		}
		return nil
	})
	if err != nil {
		if committing && !apperror.IsAppError(err) {
			// Write-phase infrastructure failure: rolled back, surfaced
			// as an operational incident.
			return nil, apperror.NewCommit(err)
		}
		return nil, err
	}

	logger.Info(ctx, "sale committed",
		"reference", result.Reference,
		"customer", result.CustomerName,
		"lines", len(cart))

	return result, nil
}

func partition(cart []CartLine) (products, svcLines []CartLine) {
	for _, line := range cart {
		if line.IsService() {
			svcLines = append(svcLines, line)
		} else {
			products = append(products, line)
		}
	}
	return products, svcLines
}

// resolveServices loads each service line's catalog row with its bill of
// materials. A missing service is a NotFound, not a shortage.
func (s *Service) resolveServices(ctx context.Context, lines []CartLine) ([]resolvedService, error) {
	resolved := make([]resolvedService, 0, len(lines))
	for _, line := range lines {
		sid, err := line.ServiceID()
		if err != nil {
			return nil, err
		}
		svc, err := s.serviceRepo.GetByID(ctx, sid)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("service", sid.String())
			}
			return nil, fmt.Errorf("resolve service %s: %w", sid, err)
		}
		resolved = append(resolved, resolvedService{line: line, svc: svc})
	}
	return resolved, nil
}

// snapshotStock locks every touched code in sorted order and returns the
// quantity snapshot the availability check runs against.
func (s *Service) snapshotStock(ctx context.Context, products []CartLine, resolved []resolvedService) (map[string]int64, error) {
	var codes []string
	for _, line := range products {
		codes = append(codes, line.Code)
	}
	for _, rs := range resolved {
		for _, bom := range rs.svc.BillOfMaterials {
			codes = append(codes, bom.ItemCode)
		}
	}
	return s.ledger.Snapshot(ctx, codes)
}

// checkAvailability performs the read-phase check: every line compared
// independently against the snapshot, shortages collected in full before
// aborting. No writes happen here.
func (s *Service) checkAvailability(products []CartLine, resolved []resolvedService, snapshot map[string]int64) error {
	var direct []Shortage
	perService := make(map[string][]Shortage)

	for _, line := range products {
		available, ok := snapshot[line.Code]
		if !ok {
			return apperror.NewNotFound("item", line.Code)
		}
		if available < line.Qty {
			direct = append(direct, Shortage{Code: line.Code, Available: available, Required: line.Qty})
		}
	}

	for _, rs := range resolved {
		for _, bom := range rs.svc.BillOfMaterials {
			required := bom.QtyPerUnit * rs.line.Qty
			available, ok := snapshot[bom.ItemCode]
			if !ok {
				return apperror.NewNotFound("item", bom.ItemCode)
			}
			if available < required {
				key := rs.svc.ID.String()
				perService[key] = append(perService[key], Shortage{
					Code:      bom.ItemCode,
					Available: available,
					Required:  required,
				})
			}
		}
	}

	if len(direct) > 0 || len(perService) > 0 {
		if direct == nil {
			direct = []Shortage{}
		}
		return apperror.NewInsufficientStock().
			WithDetail("directProducts", direct).
			WithDetail("servicesMissingProducts", perService)
	}
	return nil
}

// buildSale assembles the header and lines. Line item names come from
// the catalog, not the client.
func (s *Service) buildSale(ctx context.Context, products []CartLine, resolved []resolvedService, meta SaleMeta) (*Sale, error) {
	customerName := strings.TrimSpace(meta.CustomerName)
	if customerName == "" {
		count, err := s.repo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count sales: %w", err)
		}
		customerName = fmt.Sprintf("Customer #%d", count+1)
	}

	doc := &Sale{
		Reference:     generateReference(),
		CustomerName:  customerName,
		PaymentMethod: meta.PaymentMethod,
		SubTotal:      meta.SubTotal,
		TaxAmount:     meta.TaxAmount,
		TotalAmount:   meta.TotalAmount,
		TotalPayment:  meta.TotalPayment,
		ChangeDue:     meta.ChangeDue,
	}
	doc.Document = entity.NewDocument()
	doc.Number = doc.Reference

	for i, line := range products {
		it, err := s.items.GetByCode(ctx, line.Code)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("item", line.Code)
			}
			return nil, fmt.Errorf("load item %s: %w", line.Code, err)
		}
		doc.Lines = append(doc.Lines, Line{
			LineID:    id.New(),
			LineNo:    i + 1,
			ItemCode:  line.Code,
			ItemName:  it.Name,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
		})
	}

	for i, rs := range resolved {
		doc.ServiceLines = append(doc.ServiceLines, ServiceLine{
			LineID:      id.New(),
			LineNo:      i + 1,
			ServiceID:   rs.svc.ID,
			ServiceName: rs.svc.Name,
			Qty:         rs.line.Qty,
			UnitPrice:   rs.line.UnitPrice,
		})
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) persist(ctx context.Context, doc *Sale) error {
	if err := s.repo.Create(ctx, doc); err != nil {
		return fmt.Errorf("create sale: %w", err)
	}
	if len(doc.Lines) > 0 {
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save sale lines: %w", err)
		}
	}
	if len(doc.ServiceLines) > 0 {
		if err := s.repo.SaveServiceLines(ctx, doc.ID, doc.ServiceLines); err != nil {
			return fmt.Errorf("save sale service lines: %w", err)
		}
	}
	return nil
}

// decrementStock applies one guarded decrement per demand occurrence.
func (s *Service) decrementStock(ctx context.Context, products []CartLine, resolved []resolvedService) error {
	for _, line := range products {
		if err := s.ledger.Adjust(ctx, line.Code, -line.Qty); err != nil {
			return err
		}
	}
	for _, rs := range resolved {
		for _, bom := range rs.svc.BillOfMaterials {
			if err := s.ledger.Adjust(ctx, bom.ItemCode, -bom.QtyPerUnit*rs.line.Qty); err != nil {
				return err
			}
		}
	}
	return nil
}

// generateReference builds a unique sale reference: timestamp plus a
// random suffix. Uniqueness is additionally enforced by the DB index.
func generateReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("TRX-%d-%s", time.Now().Unix(), suffix)
}

// GetByReference retrieves a sale with its lines.
func (s *Service) GetByReference(ctx context.Context, reference string) (*Sale, error) {
	doc, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID retrieves a sale with its lines.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	doc, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) loadLines(ctx context.Context, doc *Sale) error {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	svcLines, err := s.repo.GetServiceLines(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get service lines: %w", err)
	}
	doc.ServiceLines = svcLines
	return nil
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Sale, int64, error) {
	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return res.Items, res.TotalCount, nil
}
