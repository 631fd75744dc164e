package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/id"
	"clinipos/internal/domain/documents/receiving"
	"clinipos/internal/infrastructure/http/v1/dto"
	"clinipos/pkg/logger"
)

// LogoStore persists uploaded logo files.
type LogoStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	Path(ref string) string
}

// InventoryHandler serves the receiving wire contract.
type InventoryHandler struct {
	*BaseHandler
	engine *receiving.Service
	logos  LogoStore
}

// NewInventoryHandler creates a new inventory handler.
// logos may be nil when logo uploads are disabled.
func NewInventoryHandler(base *BaseHandler, engine *receiving.Service, logos LogoStore) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, engine: engine, logos: logos}
}

// Add handles POST /inventory/addInventory.
//
// Multipart form; the optional "logo" file is stored first and its
// reference travels with the batch. 201 on success, 409 with the full
// mismatch list when metadata conflicts and force is off.
func (h *InventoryHandler) Add(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AddInventoryRequest
	if !h.BindForm(c, &req) {
		return
	}

	batch, err := req.ToBatch()
	if err != nil {
		h.Error(c, err)
		return
	}

	logoRef, err := h.saveLogo(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	if logoRef != "" {
		batch.LogoRef = &logoRef
	}

	result, err := h.engine.Receive(ctx, batch, req.Force)
	if err != nil {
		h.discardLogo(ctx, logoRef)
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromReceiveResult(result))
}

// Update handles PUT /inventory/updateInventory/:id.
// Same reconciliation semantics as Add, scoped to one item by id.
func (h *InventoryHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AddInventoryRequest
	if !h.BindForm(c, &req) {
		return
	}

	batch, err := req.ToBatch()
	if err != nil {
		h.Error(c, err)
		return
	}

	logoRef, err := h.saveLogo(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	if logoRef != "" {
		batch.LogoRef = &logoRef
	}

	result, err := h.engine.UpdateItem(ctx, itemID, batch, req.Force)
	if err != nil {
		h.discardLogo(ctx, logoRef)
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromReceiveResult(result))
}

// saveLogo stores the optional "logo" form file and returns its ref.
func (h *InventoryHandler) saveLogo(c *gin.Context) (string, error) {
	if h.logos == nil {
		return "", nil
	}

	header, err := c.FormFile("logo")
	if err != nil {
		// Absent file means "keep the current logo".
		return "", nil
	}

	f, err := header.Open()
	if err != nil {
		return "", apperror.NewValidation("cannot read logo upload").WithDetail("field", "logo")
	}
	defer f.Close()

	return h.logos.Save(c.Request.Context(), header.Filename, f)
}

// discardLogo removes a stored logo after a failed receive. The audit
// row keeps only the incoming metadata, not the file, so a rejected
// merge must not leave an orphaned asset behind.
func (h *InventoryHandler) discardLogo(ctx context.Context, ref string) {
	if ref == "" || h.logos == nil {
		return
	}
	if err := h.logos.Delete(ctx, ref); err != nil {
		logger.Warn(ctx, "discard logo failed", "ref", ref, "error", err)
	}
}
