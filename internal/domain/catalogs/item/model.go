// Package item provides the inventory item catalog.
// Items are code-keyed: the business key is the code, not the UUID.
package item

import (
	"context"
	"strings"
	"time"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/entity"
	"clinipos/internal/core/types"
)

// Category defines the kind of catalog item.
type Category string

const (
	// CategoryProduct is a directly sellable product.
	CategoryProduct Category = "Product"
	// CategoryService marks an item stocked as a service ingredient.
	CategoryService Category = "Service"
)

// ServiceCodePrefix is the wire namespace reserved for service cart lines.
// Real item codes must never use it.
const ServiceCodePrefix = "SERVICE-"

// Item represents one inventory catalog row.
//
// Quantity is the only field mutated concurrently (checkout decrements,
// receiving increments); every other field changes only through the
// reconciliation path.
type Item struct {
	entity.Catalog

	// Brand is the manufacturer/brand label
	Brand string `db:"brand" json:"brand"`

	// Category distinguishes sellable products from service ingredients
	Category Category `db:"category" json:"category"`

	// CostUnit is the purchase cost per unit
	CostUnit types.Money `db:"cost_unit" json:"costUnit"`

	// SellingPrice is the retail price per unit
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// Quantity is the on-hand stock count, never negative
	Quantity int64 `db:"quantity" json:"quantity"`

	// Expiry is the batch expiry date
	Expiry time.Time `db:"expiry" json:"expiry"`

	// LogoRef is an opaque pointer into the asset store (nullable)
	LogoRef *string `db:"logo_ref" json:"logoRef,omitempty"`
}

// New creates a new Item with required fields.
func New(code, name string, category Category) *Item {
	return &Item{
		Catalog:  entity.NewCatalog(code, name),
		Category: category,
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if i.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}

	// The SERVICE- namespace belongs to service cart lines on the wire.
	if strings.HasPrefix(i.Code, ServiceCodePrefix) {
		return apperror.NewValidation("code must not use the reserved SERVICE- prefix").
			WithDetail("field", "code").
			WithDetail("value", i.Code)
	}

	if i.Brand == "" {
		return apperror.NewValidation("brand is required").
			WithDetail("field", "brand")
	}

	if !isValidCategory(i.Category) {
		return apperror.NewValidation("invalid category").
			WithDetail("field", "category").
			WithDetail("value", string(i.Category))
	}

	if i.CostUnit.IsNegative() {
		return apperror.NewValidation("cost cannot be negative").
			WithDetail("field", "costUnit")
	}

	if !i.SellingPrice.IsPositive() {
		return apperror.NewValidation("selling price must be positive").
			WithDetail("field", "sellingPrice")
	}

	if i.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	if i.Expiry.IsZero() {
		return apperror.NewValidation("expiry is required").
			WithDetail("field", "expiry")
	}

	return nil
}

// HasLogo returns true if the item carries an asset reference.
func (i *Item) HasLogo() bool {
	return i.LogoRef != nil && *i.LogoRef != ""
}

func isValidCategory(c Category) bool {
	switch c {
	case CategoryProduct, CategoryService:
		return true
	}
	return false
}
