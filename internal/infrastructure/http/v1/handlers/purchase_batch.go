package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/id"
	"clinipos/internal/domain/documents/receiving"
	"clinipos/internal/infrastructure/http/v1/dto"
)

// PurchaseBatchHandler serves the receiving audit trail (read-only).
type PurchaseBatchHandler struct {
	*BaseHandler
	engine *receiving.Service
}

// NewPurchaseBatchHandler creates a new purchase batch handler.
func NewPurchaseBatchHandler(base *BaseHandler, engine *receiving.Service) *PurchaseBatchHandler {
	return &PurchaseBatchHandler{BaseHandler: base, engine: engine}
}

// List handles GET /document/purchase-batches.
func (h *PurchaseBatchHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := receiving.ListFilter{}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.Code = c.Query("code")
	filter.Supplier = c.Query("supplier")

	batches, total, err := h.engine.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromPurchaseBatches(batches),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /document/purchase-batches/:id.
func (h *PurchaseBatchHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	batch, err := h.engine.GetByID(ctx, batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromPurchaseBatch(batch))
}
