package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"firmbill/internal/common"
	"firmbill/internal/documents"
	"firmbill/internal/models"
	"firmbill/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceServiceInterface
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceServiceInterface) *InvoiceHandlers {
	return &InvoiceHandlers{invoiceService: invoiceService}
}

// ListInvoices handles GET /invoices?status=&firm_id=
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	limit, offset := pagination(c)
	filters := models.InvoiceFilters{Limit: limit, Offset: offset}

	if raw := c.QueryParam("status"); raw != "" {
		status := models.InvoiceStatus(raw)
		if !status.Valid() {
			return common.SendValidationError(c, "status", "must be one of draft, sent, paid")
		}
		filters.Status = &status
	}
	if raw := c.QueryParam("firm_id"); raw != "" {
		firmID, err := common.ValidateUUID(raw, "firm_id")
		if err != nil {
			return common.SendServiceError(c, "invoice", err)
		}
		filters.FirmID = &firmID
	}

	invoices, err := h.invoiceService.List(c.Request().Context(), filters)
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"limit":    limit,
		"offset":   offset,
	})
}

// PreviewInvoice handles POST /invoices/preview
func (h *InvoiceHandlers) PreviewInvoice(c echo.Context) error {
	var req services.InvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	preview, err := h.invoiceService.Preview(c.Request().Context(), &req)
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}
	return c.JSON(http.StatusOK, preview)
}

// CreateInvoice handles POST /invoices, allocating the next invoice number
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	var req services.InvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.Generate(c.Request().Context(), &req)
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// GetInvoice handles GET /invoices/:id
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}

	invoice, err := h.invoiceService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice handles PUT /invoices/:id. Only drafts are editable.
func (h *InvoiceHandlers) UpdateInvoice(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	var req services.InvoiceUpdateRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.UpdateDraft(c.Request().Context(), id, &req)
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoiceStatus handles PUT /invoices/:id/status
func (h *InvoiceHandlers) UpdateInvoiceStatus(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	var req struct {
		Status models.InvoiceStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// MarkPaid handles POST /invoices/:id/mark-paid
func (h *InvoiceHandlers) MarkPaid(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// UnmarkPaid handles POST /invoices/:id/unmark-paid
func (h *InvoiceHandlers) UnmarkPaid(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}

	invoice, err := h.invoiceService.UnmarkPaid(c.Request().Context(), id)
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// SendInvoice handles POST /invoices/:id/send. The body is optional.
func (h *InvoiceHandlers) SendInvoice(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	var req services.SendInvoiceRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return common.SendClientError(c, "Invalid request format")
		}
	}

	invoice, err := h.invoiceService.Send(c.Request().Context(), id, &req)
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// GetInvoiceDocument handles GET /invoices/:id/document. With ?kind= or
// without document storage the rendered file is streamed; otherwise the
// response carries a presigned download URL.
func (h *InvoiceHandlers) GetInvoiceDocument(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}

	var kind documents.Kind
	if raw := c.QueryParam("kind"); raw != "" {
		kind, err = documents.ParseKind(raw)
		if err != nil {
			return common.SendValidationError(c, "kind", err.Error())
		}
	}

	if kind == "" {
		url, err := h.invoiceService.DocumentURL(ctx, id)
		switch {
		case err == nil:
			return c.JSON(http.StatusOK, map[string]string{"url": url})
		case !errors.Is(err, services.ErrArchiveUnavailable):
			return common.SendServiceError(c, "invoice", err)
		}
	}

	doc, err := h.invoiceService.Document(ctx, id, kind)
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Blob(http.StatusOK, doc.ContentType, doc.Content)
}

// DeleteInvoice handles DELETE /invoices/:id. Only drafts can be deleted.
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "invoice", err)
	}

	if err := h.invoiceService.Delete(c.Request().Context(), id); err != nil {
		return common.SendServiceError(c, "invoice", err)
	}
	return c.NoContent(http.StatusNoContent)
}
