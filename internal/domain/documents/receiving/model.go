// Package receiving provides the PurchaseBatch document and the
// inventory reconciliation engine (stock receiving).
package receiving

import (
	"context"
	"time"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/entity"
	"clinipos/internal/core/types"
	"clinipos/internal/domain/catalogs/item"
)

// PurchaseBatch is the immutable audit document written once per
// receiving event. It is never mutated afterwards, regardless of how the
// catalog merge turned out.
type PurchaseBatch struct {
	entity.Document

	// Item snapshot as received
	Code         string        `db:"code" json:"code"`
	Name         string        `db:"name" json:"name"`
	Brand        string        `db:"brand" json:"brand"`
	Category     item.Category `db:"category" json:"category"`
	CostUnit     types.Money   `db:"cost_unit" json:"costUnit"`
	SellingPrice types.Money   `db:"selling_price" json:"sellingPrice"`
	Quantity     int64         `db:"quantity" json:"quantity"`
	GrandTotal   types.Money   `db:"grand_total" json:"grandTotal"`
	Expiry       time.Time     `db:"expiry" json:"expiry"`

	// Sourcing
	Supplier  string `db:"supplier" json:"supplier"`
	Reference string `db:"reference" json:"reference"`
}

// IncomingBatch is the receiving input: one batch of one item code.
type IncomingBatch struct {
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Brand        string        `json:"brand"`
	Category     item.Category `json:"category"`
	CostUnit     types.Money   `json:"costUnit"`
	SellingPrice types.Money   `json:"sellingPrice"`
	Quantity     int64         `json:"quantity"`
	GrandTotal   types.Money   `json:"grandTotal"`
	Expiry       time.Time     `json:"expiry"`
	Supplier     string        `json:"supplier"`
	Reference    string        `json:"reference"`
	LogoRef      *string       `json:"logoRef,omitempty"`
}

// Validate checks the incoming batch field by field. The first violation
// is returned naming the offending field; nothing is written before
// validation passes.
func (b *IncomingBatch) Validate(ctx context.Context) error {
	if b.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if b.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if b.Brand == "" {
		return apperror.NewValidation("brand is required").WithDetail("field", "brand")
	}
	if !b.CostUnit.IsPositive() {
		return apperror.NewValidation("cost must be positive").WithDetail("field", "costUnit")
	}
	if !b.SellingPrice.IsPositive() {
		return apperror.NewValidation("selling price must be positive").WithDetail("field", "sellingPrice")
	}
	switch b.Category {
	case item.CategoryProduct, item.CategoryService:
	default:
		return apperror.NewValidation("invalid category").
			WithDetail("field", "category").
			WithDetail("value", string(b.Category))
	}
	if b.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	if b.GrandTotal.IsNegative() {
		return apperror.NewValidation("grand total cannot be negative").WithDetail("field", "grandTotal")
	}
	if b.Expiry.IsZero() {
		return apperror.NewValidation("expiry is required").WithDetail("field", "expiry")
	}
	return nil
}

// toDocument builds the audit PurchaseBatch from the incoming batch.
func (b *IncomingBatch) toDocument() *PurchaseBatch {
	return &PurchaseBatch{
		Document:     entity.NewDocument(),
		Code:         b.Code,
		Name:         b.Name,
		Brand:        b.Brand,
		Category:     b.Category,
		CostUnit:     b.CostUnit,
		SellingPrice: b.SellingPrice,
		Quantity:     b.Quantity,
		GrandTotal:   b.GrandTotal,
		Expiry:       b.Expiry,
		Supplier:     b.Supplier,
		Reference:    b.Reference,
	}
}

// FieldMismatch is one conflicting non-quantity field between the
// existing catalog row and the incoming batch.
type FieldMismatch struct {
	Field    string `json:"field"`
	Existing string `json:"existing"`
	Incoming string `json:"incoming"`
}

// Outcome of a receive call.
type Outcome string

const (
	OutcomeCreated Outcome = "Created"
	OutcomeUpdated Outcome = "Updated"
)

// ReceiveResult describes a successful receive.
type ReceiveResult struct {
	Outcome       Outcome `json:"outcome"`
	PurchaseID    string  `json:"purchaseId"`
	BatchNumber   string  `json:"batchNumber"`
	Code          string  `json:"code"`
	AddedQuantity int64   `json:"addedQuantity"`
	UpdatedFields []string `json:"updatedFields"`
}

const expiryDateFormat = "2006-01-02"

// diffAgainst computes the non-quantity field diff between an existing
// item and the incoming batch. Quantity is excluded: it is always
// additive. The logo is compared only when the batch carries one, since
// an absent incoming logo means "keep the current one" (COALESCE).
func (b *IncomingBatch) diffAgainst(existing *item.Item) []FieldMismatch {
	var mismatches []FieldMismatch

	if existing.Name != b.Name {
		mismatches = append(mismatches, FieldMismatch{"name", existing.Name, b.Name})
	}
	if existing.Brand != b.Brand {
		mismatches = append(mismatches, FieldMismatch{"brand", existing.Brand, b.Brand})
	}
	if !existing.CostUnit.Equal(b.CostUnit) {
		mismatches = append(mismatches, FieldMismatch{"costUnit", existing.CostUnit.String(), b.CostUnit.String()})
	}
	if !existing.SellingPrice.Equal(b.SellingPrice) {
		mismatches = append(mismatches, FieldMismatch{"sellingPrice", existing.SellingPrice.String(), b.SellingPrice.String()})
	}
	if existing.Category != b.Category {
		mismatches = append(mismatches, FieldMismatch{"category", string(existing.Category), string(b.Category)})
	}
	if !sameDate(existing.Expiry, b.Expiry) {
		mismatches = append(mismatches, FieldMismatch{
			"expiry",
			existing.Expiry.Format(expiryDateFormat),
			b.Expiry.Format(expiryDateFormat),
		})
	}
	if b.LogoRef != nil && *b.LogoRef != "" {
		current := ""
		if existing.LogoRef != nil {
			current = *existing.LogoRef
		}
		if current != *b.LogoRef {
			mismatches = append(mismatches, FieldMismatch{"logoRef", current, *b.LogoRef})
		}
	}

	return mismatches
}

// applyTo overwrites the non-quantity fields of an existing item with
// the batch values. Quantity is left alone; the ledger handles it.
func (b *IncomingBatch) applyTo(existing *item.Item) {
	existing.Name = b.Name
	existing.Brand = b.Brand
	existing.Category = b.Category
	existing.CostUnit = b.CostUnit
	existing.SellingPrice = b.SellingPrice
	existing.Expiry = b.Expiry
	if b.LogoRef != nil && *b.LogoRef != "" {
		ref := *b.LogoRef
		existing.LogoRef = &ref
	}
}

// toItem builds a fresh catalog row from the batch.
func (b *IncomingBatch) toItem() *item.Item {
	it := item.New(b.Code, b.Name, b.Category)
	it.Brand = b.Brand
	it.CostUnit = b.CostUnit
	it.SellingPrice = b.SellingPrice
	it.Quantity = b.Quantity
	it.Expiry = b.Expiry
	if b.LogoRef != nil && *b.LogoRef != "" {
		ref := *b.LogoRef
		it.LogoRef = &ref
	}
	return it
}

func sameDate(a, b time.Time) bool {
	return a.Format(expiryDateFormat) == b.Format(expiryDateFormat)
}
