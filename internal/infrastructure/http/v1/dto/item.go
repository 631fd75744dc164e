package dto

import (
	"time"

	"clinipos/internal/core/types"
	"clinipos/internal/domain/catalogs/item"
)

// ItemResponse contains inventory item fields.
type ItemResponse struct {
	BaseResponse
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	Brand        string      `json:"brand"`
	Category     string      `json:"category"`
	CostUnit     types.Money `json:"costUnit"`
	SellingPrice types.Money `json:"sellingPrice"`
	Quantity     int64       `json:"quantity"`
	Expiry       string      `json:"expiry"`
	LogoRef      *string     `json:"logoRef,omitempty"`
}

const dateFormat = "2006-01-02"

// FromItem creates ItemResponse from item.Item.
func FromItem(i *item.Item) ItemResponse {
	expiry := ""
	if !i.Expiry.IsZero() {
		expiry = i.Expiry.Format(dateFormat)
	}
	return ItemResponse{
		BaseResponse: FromBaseCatalog(i.BaseCatalog),
		Code:         i.Code,
		Name:         i.Name,
		Brand:        i.Brand,
		Category:     string(i.Category),
		CostUnit:     i.CostUnit,
		SellingPrice: i.SellingPrice,
		Quantity:     i.Quantity,
		Expiry:       expiry,
		LogoRef:      i.LogoRef,
	}
}

// FromItems maps a slice of items.
func FromItems(items []*item.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, it := range items {
		out[i] = FromItem(it)
	}
	return out
}

// ParseDate parses a yyyy-mm-dd form value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}
