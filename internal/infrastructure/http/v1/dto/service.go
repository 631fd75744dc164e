package dto

import (
	"clinipos/internal/core/types"
	"clinipos/internal/domain/catalogs/item"
	"clinipos/internal/domain/catalogs/service"
)

// BOMLineDTO is one bill-of-materials entry on the wire.
type BOMLineDTO struct {
	ItemCode   string `json:"itemCode" binding:"required"`
	QtyPerUnit int64  `json:"qtyPerUnit" binding:"required,min=1"`
}

// ServiceResponse contains service catalog fields.
type ServiceResponse struct {
	BaseResponse
	Code            string       `json:"code"`
	Name            string       `json:"name"`
	Price           types.Money  `json:"price"`
	BillOfMaterials []BOMLineDTO `json:"billOfMaterials"`

	// SaleCode is the code a cart line must carry to sell this service.
	SaleCode string `json:"saleCode"`
}

// FromService creates ServiceResponse from service.Service.
func FromService(s *service.Service) ServiceResponse {
	bom := make([]BOMLineDTO, len(s.BillOfMaterials))
	for i, line := range s.BillOfMaterials {
		bom[i] = BOMLineDTO{ItemCode: line.ItemCode, QtyPerUnit: line.QtyPerUnit}
	}
	return ServiceResponse{
		BaseResponse:    FromBaseCatalog(s.BaseCatalog),
		Code:            s.Code,
		Name:            s.Name,
		Price:           s.Price,
		BillOfMaterials: bom,
		SaleCode:        item.ServiceCodePrefix + s.ID.String(),
	}
}

// CreateServiceRequest for creating services.
type CreateServiceRequest struct {
	Code            string       `json:"code"`
	Name            string       `json:"name" binding:"required"`
	Price           types.Money  `json:"price"`
	BillOfMaterials []BOMLineDTO `json:"billOfMaterials"`
}

// ToEntity maps the request to a domain service.
func (r CreateServiceRequest) ToEntity() *service.Service {
	svc := service.New(r.Code, r.Name, r.Price)
	for _, line := range r.BillOfMaterials {
		svc.BillOfMaterials = append(svc.BillOfMaterials, service.BOMLine{
			ItemCode:   line.ItemCode,
			QtyPerUnit: line.QtyPerUnit,
		})
	}
	return svc
}

// UpdateServiceRequest for updating services. Nil fields keep their
// current values; a non-nil empty BOM clears the bill of materials.
type UpdateServiceRequest struct {
	Name            *string       `json:"name"`
	Price           *types.Money  `json:"price"`
	BillOfMaterials *[]BOMLineDTO `json:"billOfMaterials"`
}

// ApplyTo applies the update onto an existing service.
func (r UpdateServiceRequest) ApplyTo(existing *service.Service) {
	if r.Name != nil {
		existing.Name = *r.Name
	}
	if r.Price != nil {
		existing.Price = *r.Price
	}
	if r.BillOfMaterials != nil {
		bom := make([]service.BOMLine, len(*r.BillOfMaterials))
		for i, line := range *r.BillOfMaterials {
			bom[i] = service.BOMLine{ItemCode: line.ItemCode, QtyPerUnit: line.QtyPerUnit}
		}
		existing.BillOfMaterials = bom
	}
}
