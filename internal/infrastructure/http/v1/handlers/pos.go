package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/id"
	"clinipos/internal/domain/documents/sale"
	"clinipos/internal/infrastructure/http/v1/dto"
)

// POSHandler serves the point-of-sale wire contract.
type POSHandler struct {
	*BaseHandler
	engine *sale.Service
}

// NewPOSHandler creates a new POS handler.
func NewPOSHandler(base *BaseHandler, engine *sale.Service) *POSHandler {
	return &POSHandler{BaseHandler: base, engine: engine}
}

// Checkout handles POST /pos/sales.
//
// 200 with {reference, customerName} on commit; 400 with the complete
// shortage breakdown when stock is insufficient; 500 when the write
// phase fails and the transaction rolled back.
func (h *POSHandler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.engine.Checkout(ctx, req.Cart(), req.Meta())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{
		Reference:    result.Reference,
		CustomerName: result.CustomerName,
	})
}

// List handles GET /document/sales.
func (h *POSHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := sale.ListFilter{}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.Reference = c.Query("reference")
	filter.PaymentMethod = c.Query("paymentMethod")

	sales, total, err := h.engine.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromSales(sales),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /document/sales/:id with lines loaded.
func (h *POSHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.engine.GetByID(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSale(doc))
}

// GetByReference handles GET /document/sales/by-reference/:reference.
func (h *POSHandler) GetByReference(c *gin.Context) {
	ctx := c.Request.Context()

	doc, err := h.engine.GetByReference(ctx, c.Param("reference"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSale(doc))
}
