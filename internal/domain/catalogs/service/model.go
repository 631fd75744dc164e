// Package service provides the billable service catalog.
// A service bundles labor with a fixed bill of materials of inventory
// items consumed per unit sold.
package service

import (
	"context"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/entity"
	"clinipos/internal/core/types"
)

// BOMLine is one bill-of-materials entry: the item consumed and how many
// units of it one unit of the service uses.
type BOMLine struct {
	ItemCode   string `db:"item_code" json:"itemCode"`
	QtyPerUnit int64  `db:"qty_per_unit" json:"qtyPerUnit"`
}

// Service represents a billable service with its bill of materials.
//
// BOM item codes are resolved against the item catalog at sale time,
// not at creation time: stock for an ingredient may arrive later.
type Service struct {
	entity.Catalog

	// Price is the retail price per unit of service
	Price types.Money `db:"price" json:"price"`

	// BillOfMaterials lists the ingredients consumed per unit.
	// Empty is valid (pure labor). Stored in a child table, not a column.
	BillOfMaterials []BOMLine `db:"-" json:"billOfMaterials"`
}

// New creates a new Service with required fields.
func New(code, name string, price types.Money) *Service {
	return &Service{
		Catalog: entity.NewCatalog(code, name),
		Price:   price,
	}
}

// Validate implements entity.Validatable interface.
func (s *Service) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	seen := make(map[string]bool, len(s.BillOfMaterials))
	for idx, line := range s.BillOfMaterials {
		if line.ItemCode == "" {
			return apperror.NewValidation("bill of materials item code is required").
				WithDetail("field", "billOfMaterials").
				WithDetail("index", idx)
		}
		if line.QtyPerUnit <= 0 {
			return apperror.NewValidation("bill of materials quantity must be positive").
				WithDetail("field", "billOfMaterials").
				WithDetail("itemCode", line.ItemCode)
		}
		if seen[line.ItemCode] {
			return apperror.NewValidation("bill of materials item listed twice").
				WithDetail("field", "billOfMaterials").
				WithDetail("itemCode", line.ItemCode)
		}
		seen[line.ItemCode] = true
	}

	return nil
}
