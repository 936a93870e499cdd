package handlers

import (
	"context"
	"net/http"

	"firmbill/internal/common"
	"firmbill/internal/jobs"
	"firmbill/internal/models"
	"firmbill/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ScheduledProcessor runs scheduled invoices on demand
type ScheduledProcessor interface {
	ProcessDue(ctx context.Context) (*jobs.ProcessResult, error)
	ProcessOne(ctx context.Context, id uuid.UUID) (*jobs.ProcessOneResult, error)
}

// ScheduledInvoiceHandlers handles HTTP requests for scheduled invoices
type ScheduledInvoiceHandlers struct {
	scheduledService services.ScheduledInvoiceService
	processor        ScheduledProcessor
}

// NewScheduledInvoiceHandlers creates a new scheduled invoice handlers instance
func NewScheduledInvoiceHandlers(scheduledService services.ScheduledInvoiceService, processor ScheduledProcessor) *ScheduledInvoiceHandlers {
	return &ScheduledInvoiceHandlers{
		scheduledService: scheduledService,
		processor:        processor,
	}
}

// CreateScheduledInvoice handles POST /scheduled-invoices
func (h *ScheduledInvoiceHandlers) CreateScheduledInvoice(c echo.Context) error {
	var req services.ScheduledInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	entry, err := h.scheduledService.Create(c.Request().Context(), &req)
	if err != nil {
		return common.SendServiceError(c, "firm", err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// ListScheduledInvoices handles GET /scheduled-invoices?status=
func (h *ScheduledInvoiceHandlers) ListScheduledInvoices(c echo.Context) error {
	limit, offset := pagination(c)

	var status *models.ScheduledStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := models.ScheduledStatus(raw)
		if !s.Valid() {
			return common.SendValidationError(c, "status", "must be one of pending, executed, failed")
		}
		status = &s
	}

	entries, err := h.scheduledService.List(c.Request().Context(), status, limit, offset)
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"scheduled_invoices": entries,
		"limit":              limit,
		"offset":             offset,
	})
}

// GetScheduledInvoice handles GET /scheduled-invoices/:id
func (h *ScheduledInvoiceHandlers) GetScheduledInvoice(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}

	entry, err := h.scheduledService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}
	return c.JSON(http.StatusOK, entry)
}

// UpdateScheduledInvoice handles PUT /scheduled-invoices/:id
func (h *ScheduledInvoiceHandlers) UpdateScheduledInvoice(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}
	var req services.ScheduledInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	entry, err := h.scheduledService.Update(c.Request().Context(), id, &req)
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}
	return c.JSON(http.StatusOK, entry)
}

// DeleteScheduledInvoice handles DELETE /scheduled-invoices/:id
func (h *ScheduledInvoiceHandlers) DeleteScheduledInvoice(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}

	if err := h.scheduledService.Delete(c.Request().Context(), id); err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkCreate handles POST /scheduled-invoices/bulk, scheduling renewals
// for every firm with a subscription end date
func (h *ScheduledInvoiceHandlers) BulkCreate(c echo.Context) error {
	result, err := h.scheduledService.BulkCreateFromSubscriptions(c.Request().Context())
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}
	return c.JSON(http.StatusOK, result)
}

// ProcessDue handles POST /scheduled-invoices/process
func (h *ScheduledInvoiceHandlers) ProcessDue(c echo.Context) error {
	result, err := h.processor.ProcessDue(c.Request().Context())
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}
	return c.JSON(http.StatusOK, result)
}

// ProcessOne handles POST /scheduled-invoices/:id/process
func (h *ScheduledInvoiceHandlers) ProcessOne(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}

	result, err := h.processor.ProcessOne(c.Request().Context(), id)
	if err != nil {
		return common.SendServiceError(c, "scheduled invoice", err)
	}
	return c.JSON(http.StatusOK, result)
}
