package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/id"
	"clinipos/internal/domain/catalogs/item"
	"clinipos/internal/infrastructure/cache"
	"clinipos/internal/infrastructure/http/v1/dto"
)

const (
	itemCachePrefix = "catalog:items:"
	itemCacheTTL    = 30 * time.Second
)

// ItemHandler serves the item catalog. Items are created and updated
// exclusively through the receiving flow; this API only reads and
// removes them. List responses are cached; the checkout path never
// reads through this handler, so staleness is acceptable.
type ItemHandler struct {
	*BaseHandler
	service *item.Service
	cache   cache.Cache
	logos   LogoStore
}

// NewItemHandler creates a new item handler.
// logos may be nil when logo serving is disabled.
func NewItemHandler(base *BaseHandler, service *item.Service, c cache.Cache, logos LogoStore) *ItemHandler {
	return &ItemHandler{BaseHandler: base, service: service, cache: c, logos: logos}
}

// List handles GET /catalog/items.
func (h *ItemHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	cacheKey := itemCachePrefix + c.Request.URL.RawQuery
	if cached, ok := h.cache.Get(ctx, cacheKey); ok {
		c.Data(http.StatusOK, "application/json", cached)
		return
	}

	filter, err := h.ParseListFilter(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.ListResponse{
		Items:      dto.FromItems(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}

	if body, err := json.Marshal(response); err == nil {
		h.cache.Set(ctx, cacheKey, body, itemCacheTTL)
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /catalog/items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	it, err := h.service.GetByID(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromItem(it))
}

// GetByCode handles GET /catalog/items/by-code/:code.
func (h *ItemHandler) GetByCode(c *gin.Context) {
	ctx := c.Request.Context()

	it, err := h.service.GetByCode(ctx, c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromItem(it))
}

// Logo handles GET /catalog/items/:id/logo, serving the stored file.
func (h *ItemHandler) Logo(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	it, err := h.service.GetByID(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.logos == nil || !it.HasLogo() {
		h.Error(c, apperror.NewNotFound("logo", it.Code))
		return
	}

	c.File(h.logos.Path(*it.LogoRef))
}

// Delete handles DELETE /catalog/items/:id. Referenced items fail with
// a conflict; an unreferenced delete also removes the stored logo.
func (h *ItemHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, itemID); err != nil {
		h.Error(c, err)
		return
	}

	h.cache.InvalidatePrefix(ctx, itemCachePrefix)
	c.Status(http.StatusNoContent)
}

// SetDeletionMark handles POST /catalog/items/:id/deletion-mark.
func (h *ItemHandler) SetDeletionMark(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(ctx, itemID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}

	h.cache.InvalidatePrefix(ctx, itemCachePrefix)
	h.Success(c, "deletion mark updated")
}
