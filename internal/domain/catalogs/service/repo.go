package service

import (
	"clinipos/internal/domain"
)

// Repository defines the interface for Service persistence.
// Implementations load and store the bill of materials together with the
// catalog row.
type Repository interface {
	domain.CatalogRepository[*Service]
}
