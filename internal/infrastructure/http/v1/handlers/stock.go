package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinipos/internal/domain/registers/stock"
	"clinipos/internal/infrastructure/http/v1/dto"
)

// StockHandler exposes ledger reads. Quantities returned here are
// display values; checkout re-checks under its own transaction.
type StockHandler struct {
	*BaseHandler
	ledger *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, ledger *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, ledger: ledger}
}

// OnHand handles POST /registers/stock/onhand.
func (h *StockHandler) OnHand(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OnHandRequest
	if !h.BindJSON(c, &req) {
		return
	}

	quantities, err := h.ledger.OnHandBatch(ctx, req.Codes)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OnHandResponse{Quantities: quantities})
}

// Availability handles GET /registers/stock/availability/:code.
func (h *StockHandler) Availability(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	qty, err := h.ledger.OnHand(ctx, code)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AvailabilityResponse{Code: code, Available: qty})
}
