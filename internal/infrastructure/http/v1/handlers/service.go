package handlers

import (
	"clinipos/internal/domain"
	"clinipos/internal/domain/catalogs/service"
	"clinipos/internal/infrastructure/http/v1/dto"
)

// ServiceHTTPHandler is the concrete catalog handler for services.
type ServiceHTTPHandler = CatalogHandler[
	*service.Service,
	dto.CreateServiceRequest,
	dto.UpdateServiceRequest,
]

// NewServiceHandler wires the generic catalog handler for the service
// catalog, BOM included.
func NewServiceHandler(
	base *BaseHandler,
	svc *domain.CatalogService[*service.Service],
) *ServiceHTTPHandler {

	config := CatalogHandlerConfig[
		*service.Service,
		dto.CreateServiceRequest,
		dto.UpdateServiceRequest,
	]{
		Service:    svc,
		EntityName: "service",

		MapCreateDTO: func(req dto.CreateServiceRequest) *service.Service {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateServiceRequest, existing *service.Service) *service.Service {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *service.Service) any {
			return dto.FromService(entity)
		},
	}

	return NewCatalogHandler(base, config)
}
