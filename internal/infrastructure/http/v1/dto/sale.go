package dto

import (
	"clinipos/internal/core/types"
	"clinipos/internal/domain/documents/sale"
)

// CheckoutItemDTO is one incoming cart line. Service lines carry
// SERVICE-<serviceId> codes.
type CheckoutItemDTO struct {
	Code      string      `json:"code"`
	Qty       int64       `json:"qty"`
	UnitPrice types.Money `json:"unitPrice"`
}

// CheckoutRequest is the POS sale payload. Totals are computed by the
// terminal and recorded as-is.
type CheckoutRequest struct {
	CustomerName  string            `json:"customerName"`
	PaymentMethod string            `json:"paymentMethod"`
	SubTotal      types.Money       `json:"subTotal"`
	TaxAmount     types.Money       `json:"taxAmount"`
	TotalAmount   types.Money       `json:"totalAmount"`
	TotalPayment  types.Money       `json:"totalPayment"`
	Changes       types.Money       `json:"changes"`
	Items         []CheckoutItemDTO `json:"items"`
}

// Cart maps the request lines to domain cart lines.
func (r CheckoutRequest) Cart() []sale.CartLine {
	cart := make([]sale.CartLine, len(r.Items))
	for i, it := range r.Items {
		cart[i] = sale.CartLine{Code: it.Code, Qty: it.Qty, UnitPrice: it.UnitPrice}
	}
	return cart
}

// Meta maps the request header fields to the engine input.
func (r CheckoutRequest) Meta() sale.SaleMeta {
	return sale.SaleMeta{
		CustomerName:  r.CustomerName,
		PaymentMethod: r.PaymentMethod,
		SubTotal:      r.SubTotal,
		TaxAmount:     r.TaxAmount,
		TotalAmount:   r.TotalAmount,
		TotalPayment:  r.TotalPayment,
		ChangeDue:     r.Changes,
	}
}

// CheckoutResponse is the success payload of a committed sale.
type CheckoutResponse struct {
	Reference    string `json:"reference"`
	CustomerName string `json:"customerName"`
}

// SaleLineResponse is one product line on the wire.
type SaleLineResponse struct {
	LineNo    int         `json:"lineNo"`
	ItemCode  string      `json:"itemCode"`
	ItemName  string      `json:"itemName"`
	Qty       int64       `json:"qty"`
	UnitPrice types.Money `json:"unitPrice"`
}

// SaleServiceLineResponse is one service line on the wire.
type SaleServiceLineResponse struct {
	LineNo      int         `json:"lineNo"`
	ServiceID   string      `json:"serviceId"`
	ServiceName string      `json:"serviceName"`
	Qty         int64       `json:"qty"`
	UnitPrice   types.Money `json:"unitPrice"`
}

// SaleResponse is a sale document on the wire.
type SaleResponse struct {
	DocumentResponse
	Reference     string                    `json:"reference"`
	CustomerName  string                    `json:"customerName"`
	PaymentMethod string                    `json:"paymentMethod"`
	SubTotal      types.Money               `json:"subTotal"`
	TaxAmount     types.Money               `json:"taxAmount"`
	TotalAmount   types.Money               `json:"totalAmount"`
	TotalPayment  types.Money               `json:"totalPayment"`
	ChangeDue     types.Money               `json:"changeDue"`
	Lines         []SaleLineResponse        `json:"lines"`
	ServiceLines  []SaleServiceLineResponse `json:"serviceLines"`
}

// FromSale maps a sale document (with loaded lines) to the wire shape.
func FromSale(s *sale.Sale) SaleResponse {
	lines := make([]SaleLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = SaleLineResponse{
			LineNo:    l.LineNo,
			ItemCode:  l.ItemCode,
			ItemName:  l.ItemName,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
		}
	}

	svcLines := make([]SaleServiceLineResponse, len(s.ServiceLines))
	for i, l := range s.ServiceLines {
		svcLines[i] = SaleServiceLineResponse{
			LineNo:      l.LineNo,
			ServiceID:   l.ServiceID.String(),
			ServiceName: l.ServiceName,
			Qty:         l.Qty,
			UnitPrice:   l.UnitPrice,
		}
	}

	return SaleResponse{
		DocumentResponse: FromDocument(s.Document),
		Reference:        s.Reference,
		CustomerName:     s.CustomerName,
		PaymentMethod:    s.PaymentMethod,
		SubTotal:         s.SubTotal,
		TaxAmount:        s.TaxAmount,
		TotalAmount:      s.TotalAmount,
		TotalPayment:     s.TotalPayment,
		ChangeDue:        s.ChangeDue,
		Lines:            lines,
		ServiceLines:     svcLines,
	}
}

// FromSales maps sale headers (lines not loaded) to the wire shape.
func FromSales(sales []*sale.Sale) []SaleResponse {
	out := make([]SaleResponse, len(sales))
	for i, s := range sales {
		out[i] = FromSale(s)
	}
	return out
}
