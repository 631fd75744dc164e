// Package sale provides the Sale document and the checkout engine.
package sale

import (
	"context"
	"fmt"
	"strings"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/entity"
	"clinipos/internal/core/id"
	"clinipos/internal/core/types"
	"clinipos/internal/domain/catalogs/item"
)

// Sale is the sale header. Created exactly once per successful checkout
// and never updated afterwards; corrections are new compensating sales.
type Sale struct {
	entity.Document

	// Reference is the unique public identifier (time + random suffix)
	Reference string `db:"reference" json:"reference"`

	CustomerName  string `db:"customer_name" json:"customerName"`
	PaymentMethod string `db:"payment_method" json:"paymentMethod"`

	SubTotal     types.Money `db:"sub_total" json:"subTotal"`
	TaxAmount    types.Money `db:"tax_amount" json:"taxAmount"`
	TotalAmount  types.Money `db:"total_amount" json:"totalAmount"`
	TotalPayment types.Money `db:"total_payment" json:"totalPayment"`
	ChangeDue    types.Money `db:"change_due" json:"changeDue"`

	// Table parts
	Lines        []Line        `db:"-" json:"lines"`
	ServiceLines []ServiceLine `db:"-" json:"serviceLines"`
}

// Line is one direct product line.
type Line struct {
	LineID    id.ID       `db:"line_id" json:"lineId"`
	LineNo    int         `db:"line_no" json:"lineNo"`
	ItemCode  string      `db:"item_code" json:"itemCode"`
	ItemName  string      `db:"item_name" json:"itemName"`
	Qty       int64       `db:"qty" json:"qty"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// ServiceLine is one sold service line.
type ServiceLine struct {
	LineID      id.ID       `db:"line_id" json:"lineId"`
	LineNo      int         `db:"line_no" json:"lineNo"`
	ServiceID   id.ID       `db:"service_id" json:"serviceId"`
	ServiceName string      `db:"service_name" json:"serviceName"`
	Qty         int64       `db:"qty" json:"qty"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
}

// CartLine is one incoming cart position. Service lines are marked by
// the SERVICE-<id> code namespace; everything else is a product code.
type CartLine struct {
	Code      string      `json:"code"`
	Qty       int64       `json:"qty"`
	UnitPrice types.Money `json:"unitPrice"`
}

// IsService reports whether the line uses the service code namespace.
func (l CartLine) IsService() bool {
	return strings.HasPrefix(l.Code, item.ServiceCodePrefix)
}

// ServiceID extracts the service id from a SERVICE-<id> code.
func (l CartLine) ServiceID() (id.ID, error) {
	raw := strings.TrimPrefix(l.Code, item.ServiceCodePrefix)
	sid, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation(fmt.Sprintf("malformed service code %q", l.Code)).
			WithDetail("field", "items").
			WithDetail("code", l.Code)
	}
	return sid, nil
}

// SaleMeta carries the caller-computed totals and customer data.
// Totals are not recomputed by the engine; the caller owns arithmetic.
type SaleMeta struct {
	CustomerName  string      `json:"customerName"`
	PaymentMethod string      `json:"paymentMethod"`
	SubTotal      types.Money `json:"subTotal"`
	TaxAmount     types.Money `json:"taxAmount"`
	TotalAmount   types.Money `json:"totalAmount"`
	TotalPayment  types.Money `json:"totalPayment"`
	ChangeDue     types.Money `json:"changeDue"`
}

// Shortage is the deficit for one item code, surfaced to the caller
// instead of partially fulfilling the cart.
type Shortage struct {
	Code      string `json:"code"`
	Available int64  `json:"available"`
	Required  int64  `json:"required"`
}

// CheckoutResult describes a committed sale.
type CheckoutResult struct {
	SaleID       id.ID  `json:"saleId"`
	Reference    string `json:"reference"`
	CustomerName string `json:"customerName"`
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if s.Reference == "" {
		return apperror.NewValidation("reference is required").
			WithDetail("field", "reference")
	}
	if len(s.Lines) == 0 && len(s.ServiceLines) == 0 {
		return apperror.NewValidation("cart is empty").
			WithDetail("field", "items")
	}
	return nil
}

func validateCart(cart []CartLine) error {
	if len(cart) == 0 {
		return apperror.NewValidation("cart is empty").
			WithDetail("field", "items")
	}
	for i, line := range cart {
		if line.Code == "" {
			return apperror.NewValidation("cart line code is required").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if line.Qty <= 0 {
			return apperror.NewValidation("cart line quantity must be positive").
				WithDetail("field", "items").
				WithDetail("code", line.Code)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("cart line price cannot be negative").
				WithDetail("field", "items").
				WithDetail("code", line.Code)
		}
	}
	return nil
}
