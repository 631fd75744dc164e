package dto

import (
	"clinipos/internal/core/apperror"
	"clinipos/internal/core/types"
	"clinipos/internal/domain/catalogs/item"
	"clinipos/internal/domain/documents/receiving"
)

// AddInventoryRequest is the multipart receiving form. Monetary and date
// fields arrive as strings and are parsed explicitly, so a malformed
// value names its field instead of failing the whole bind.
type AddInventoryRequest struct {
	Code         string `form:"code"`
	Name         string `form:"name"`
	Brand        string `form:"brand"`
	Category     string `form:"category"`
	CostUnit     string `form:"costUnit"`
	SellingPrice string `form:"sellingPrice"`
	Quantity     int64  `form:"quantity"`
	GrandTotal   string `form:"grandTotal"`
	Expiry       string `form:"expiry"`
	Supplier     string `form:"supplier"`
	Reference    string `form:"reference"`
	Force        bool   `form:"force"`
}

// ToBatch parses the form into an incoming batch. Field presence is
// checked by batch validation; only parse failures are rejected here.
func (r AddInventoryRequest) ToBatch() (receiving.IncomingBatch, error) {
	batch := receiving.IncomingBatch{
		Code:      r.Code,
		Name:      r.Name,
		Brand:     r.Brand,
		Category:  item.Category(r.Category),
		Quantity:  r.Quantity,
		Supplier:  r.Supplier,
		Reference: r.Reference,
	}

	var err error
	if batch.CostUnit, err = parseMoneyField(r.CostUnit, "costUnit"); err != nil {
		return batch, err
	}
	if batch.SellingPrice, err = parseMoneyField(r.SellingPrice, "sellingPrice"); err != nil {
		return batch, err
	}
	if batch.GrandTotal, err = parseMoneyField(r.GrandTotal, "grandTotal"); err != nil {
		return batch, err
	}

	if r.Expiry != "" {
		expiry, err := ParseDate(r.Expiry)
		if err != nil {
			return batch, apperror.NewValidation("invalid expiry date, expected yyyy-mm-dd").
				WithDetail("field", "expiry").
				WithDetail("value", r.Expiry)
		}
		batch.Expiry = expiry
	}

	return batch, nil
}

func parseMoneyField(s, field string) (types.Money, error) {
	if s == "" {
		return types.Zero(), nil
	}
	m, err := types.NewMoneyFromString(s)
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid decimal value").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return m, nil
}

// ReceiveResponse is the success payload of a receiving call.
type ReceiveResponse struct {
	Outcome       string   `json:"outcome"`
	PurchaseID    string   `json:"purchaseId"`
	BatchNumber   string   `json:"batchNumber"`
	Code          string   `json:"code"`
	AddedQuantity int64    `json:"addedQuantity"`
	UpdatedFields []string `json:"updatedFields"`
}

// FromReceiveResult maps the engine result to the wire shape.
func FromReceiveResult(r *receiving.ReceiveResult) ReceiveResponse {
	fields := r.UpdatedFields
	if fields == nil {
		fields = []string{}
	}
	return ReceiveResponse{
		Outcome:       string(r.Outcome),
		PurchaseID:    r.PurchaseID,
		BatchNumber:   r.BatchNumber,
		Code:          r.Code,
		AddedQuantity: r.AddedQuantity,
		UpdatedFields: fields,
	}
}

// PurchaseBatchResponse is one audit row on the wire.
type PurchaseBatchResponse struct {
	DocumentResponse
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	Brand        string      `json:"brand"`
	Category     string      `json:"category"`
	CostUnit     types.Money `json:"costUnit"`
	SellingPrice types.Money `json:"sellingPrice"`
	Quantity     int64       `json:"quantity"`
	GrandTotal   types.Money `json:"grandTotal"`
	Expiry       string      `json:"expiry"`
	Supplier     string      `json:"supplier"`
	Reference    string      `json:"reference,omitempty"`
}

// FromPurchaseBatch maps the audit document to the wire shape.
func FromPurchaseBatch(b *receiving.PurchaseBatch) PurchaseBatchResponse {
	expiry := ""
	if !b.Expiry.IsZero() {
		expiry = b.Expiry.Format(dateFormat)
	}
	return PurchaseBatchResponse{
		DocumentResponse: FromDocument(b.Document),
		Code:             b.Code,
		Name:             b.Name,
		Brand:            b.Brand,
		Category:         string(b.Category),
		CostUnit:         b.CostUnit,
		SellingPrice:     b.SellingPrice,
		Quantity:         b.Quantity,
		GrandTotal:       b.GrandTotal,
		Expiry:           expiry,
		Supplier:         b.Supplier,
		Reference:        b.Reference,
	}
}

// FromPurchaseBatches maps a slice of audit rows.
func FromPurchaseBatches(batches []*receiving.PurchaseBatch) []PurchaseBatchResponse {
	out := make([]PurchaseBatchResponse, len(batches))
	for i, b := range batches {
		out[i] = FromPurchaseBatch(b)
	}
	return out
}
