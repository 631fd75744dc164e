// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"clinipos/internal/core/numerator"
	"clinipos/internal/domain"
	"clinipos/internal/domain/catalogs/item"
	servicecat "clinipos/internal/domain/catalogs/service"
	"clinipos/internal/domain/documents/receiving"
	"clinipos/internal/domain/documents/sale"
	"clinipos/internal/domain/registers/stock"
	"clinipos/internal/infrastructure/cache"
	"clinipos/internal/infrastructure/http/v1/handlers"
	"clinipos/internal/infrastructure/http/v1/middleware"
	"clinipos/internal/infrastructure/storage/postgres"
	"clinipos/internal/infrastructure/storage/postgres/catalog_repo"
	"clinipos/internal/infrastructure/storage/postgres/document_repo"
	"clinipos/internal/infrastructure/storage/postgres/register_repo"
	"clinipos/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (health checks)
	Pool *postgres.Pool

	// TxManager drives all repository transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Numerator for document number generation
	Numerator numerator.Generator

	// ChangeLog records forced merge diffs (nil disables)
	ChangeLog *postgres.ChangeLog

	// Cache serves catalog browse reads
	Cache cache.Cache

	// Logos stores uploaded item logos (nil disables uploads)
	Logos handlers.LogoStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Cache == nil {
		cfg.Cache = cache.NewNoop()
	}

	// Repositories and engines, shared across route groups.
	itemRepo := catalog_repo.NewItemRepo(cfg.TxManager)
	serviceRepo := catalog_repo.NewServiceRepo(cfg.TxManager)
	stockRepo := register_repo.NewStockRepo(cfg.TxManager)
	batchRepo := document_repo.NewReceivingRepo(cfg.TxManager)
	saleRepo := document_repo.NewSaleRepo(cfg.TxManager)

	ledger := stock.NewService(stockRepo)

	var changeLog receiving.ChangeLogger
	if cfg.ChangeLog != nil {
		changeLog = cfg.ChangeLog
	}
	receivingEngine := receiving.NewService(batchRepo, itemRepo, ledger, cfg.TxManager, cfg.Numerator, changeLog)
	checkoutEngine := sale.NewService(saleRepo, itemRepo, serviceRepo, ledger, cfg.TxManager)

	var logoStore item.LogoStore
	if cfg.Logos != nil {
		logoStore = cfg.Logos
	}
	var itemChangeLog item.ChangeLogger
	if cfg.ChangeLog != nil {
		itemChangeLog = cfg.ChangeLog
	}
	itemService := item.NewService(itemRepo, cfg.TxManager, logoStore, itemChangeLog)
	serviceService := domain.NewCatalogService(domain.CatalogServiceConfig[*servicecat.Service]{
		Repo:       serviceRepo,
		TxManager:  cfg.TxManager,
		EntityName: "service",
	})

	baseHandler := handlers.NewBaseHandler()

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	authRequired := middleware.Auth(cfg.JWTValidator)

	// Operational wire contract: receiving and point of sale.
	inventoryHandler := handlers.NewInventoryHandler(baseHandler, receivingEngine, cfg.Logos)
	posHandler := handlers.NewPOSHandler(baseHandler, checkoutEngine)

	inventory := router.Group("/inventory", authRequired)
	{
		inventory.POST("/addInventory", inventoryHandler.Add)
		inventory.PUT("/updateInventory/:id", inventoryHandler.Update)
	}

	pos := router.Group("/pos", authRequired)
	{
		pos.POST("/sales", posHandler.Checkout)
	}

	// Management API
	apiV1 := router.Group("/api/v1", authRequired)
	{
		catalogs := apiV1.Group("/catalog")
		{
			itemHandler := handlers.NewItemHandler(baseHandler, itemService, cfg.Cache, cfg.Logos)
			items := catalogs.Group("/items")
			items.GET("", itemHandler.List)
			items.GET("/:id", itemHandler.Get)
			items.GET("/:id/logo", itemHandler.Logo)
			items.GET("/by-code/:code", itemHandler.GetByCode)
			// Hard delete is destructive; soft delete stays open to any token.
			items.DELETE("/:id", middleware.RequireRole("manager"), itemHandler.Delete)
			items.POST("/:id/deletion-mark", itemHandler.SetDeletionMark)

			serviceHandler := handlers.NewServiceHandler(baseHandler, serviceService)
			RegisterCatalogRoutes(catalogs.Group("/services"), serviceHandler)
		}

		registers := apiV1.Group("/registers")
		{
			stockHandler := handlers.NewStockHandler(baseHandler, ledger)
			stockGroup := registers.Group("/stock")
			stockGroup.POST("/onhand", stockHandler.OnHand)
			stockGroup.GET("/availability/:code", stockHandler.Availability)
		}

		docs := apiV1.Group("/document")
		{
			batchHandler := handlers.NewPurchaseBatchHandler(baseHandler, receivingEngine)
			RegisterDocumentReadRoutes(docs.Group("/purchase-batches"), batchHandler)

			sales := docs.Group("/sales")
			sales.GET("", posHandler.List)
			sales.GET("/:id", posHandler.Get)
			sales.GET("/by-reference/:reference", posHandler.GetByReference)
		}
	}

	return router
}
