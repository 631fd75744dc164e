// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for full CRUD catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/deletion-mark", handler.SetDeletionMark)
}

// DocumentReadHandler defines the interface for read-only document journals.
// Documents here are append-only; mutation happens through the engines,
// not the journal API.
type DocumentReadHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
}

// RegisterDocumentReadRoutes registers journal routes for a document type.
func RegisterDocumentReadRoutes(group *gin.RouterGroup, handler DocumentReadHandler) {
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
}
