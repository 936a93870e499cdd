package handlers

import (
	"net/http"

	"firmbill/internal/common"
	"firmbill/internal/services"

	"github.com/labstack/echo/v4"
)

// FirmHandlers handles HTTP requests for client firms
type FirmHandlers struct {
	firmService services.FirmService
}

// NewFirmHandlers creates a new firm handlers instance
func NewFirmHandlers(firmService services.FirmService) *FirmHandlers {
	return &FirmHandlers{firmService: firmService}
}

// CreateFirm handles POST /firms
func (h *FirmHandlers) CreateFirm(c echo.Context) error {
	var req services.FirmRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	firm, err := h.firmService.Create(c.Request().Context(), &req)
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}
	return c.JSON(http.StatusCreated, firm)
}

// GetFirm handles GET /firms/:id
func (h *FirmHandlers) GetFirm(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}

	firm, err := h.firmService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}
	return c.JSON(http.StatusOK, firm)
}

// ListFirms handles GET /firms
func (h *FirmHandlers) ListFirms(c echo.Context) error {
	limit, offset := pagination(c)

	firms, err := h.firmService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"firms":  firms,
		"limit":  limit,
		"offset": offset,
	})
}

// UpdateFirm handles PUT /firms/:id
func (h *FirmHandlers) UpdateFirm(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}

	var req services.FirmRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	firm, err := h.firmService.Update(c.Request().Context(), id, &req)
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}
	return c.JSON(http.StatusOK, firm)
}

// DeleteFirm handles DELETE /firms/:id. Firms with invoices are refused.
func (h *FirmHandlers) DeleteFirm(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}

	if err := h.firmService.Delete(c.Request().Context(), id); err != nil {
		return common.SendServiceError(c, "firm", err)
	}
	return c.NoContent(http.StatusNoContent)
}
