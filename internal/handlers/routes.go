package handlers

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler set served by the API
type Handlers struct {
	Health    *HealthHandlers
	Auth      *AuthHandlers
	Firms     *FirmHandlers
	Invoices  *InvoiceHandlers
	Scheduled *ScheduledInvoiceHandlers
	Jobs      *JobHandlers
	AuditLogs *AuditLogsHandlers
}

// Register mounts the public and protected routes. auth guards everything
// under /v1 except login; audit records mutating requests.
func (h *Handlers) Register(e *echo.Echo, auth, audit echo.MiddlewareFunc) {
	e.GET("/health", h.Health.HealthCheck)
	e.GET("/health/ready", h.Health.ReadinessCheck)
	e.GET("/health/live", h.Health.LivenessCheck)

	v1 := e.Group("/v1", audit)
	v1.POST("/auth/login", h.Auth.Login)

	protected := v1.Group("", auth)
	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/logout", h.Auth.Logout)

	protected.GET("/firms", h.Firms.ListFirms)
	protected.POST("/firms", h.Firms.CreateFirm)
	protected.GET("/firms/:id", h.Firms.GetFirm)
	protected.PUT("/firms/:id", h.Firms.UpdateFirm)
	protected.DELETE("/firms/:id", h.Firms.DeleteFirm)

	protected.GET("/invoices", h.Invoices.ListInvoices)
	protected.POST("/invoices", h.Invoices.CreateInvoice)
	protected.POST("/invoices/preview", h.Invoices.PreviewInvoice)
	protected.GET("/invoices/:id", h.Invoices.GetInvoice)
	protected.PUT("/invoices/:id", h.Invoices.UpdateInvoice)
	protected.DELETE("/invoices/:id", h.Invoices.DeleteInvoice)
	protected.PUT("/invoices/:id/status", h.Invoices.UpdateInvoiceStatus)
	protected.POST("/invoices/:id/mark-paid", h.Invoices.MarkPaid)
	protected.POST("/invoices/:id/unmark-paid", h.Invoices.UnmarkPaid)
	protected.POST("/invoices/:id/send", h.Invoices.SendInvoice)
	protected.GET("/invoices/:id/document", h.Invoices.GetInvoiceDocument)

	protected.GET("/scheduled-invoices", h.Scheduled.ListScheduledInvoices)
	protected.POST("/scheduled-invoices", h.Scheduled.CreateScheduledInvoice)
	protected.POST("/scheduled-invoices/bulk", h.Scheduled.BulkCreate)
	protected.POST("/scheduled-invoices/process", h.Scheduled.ProcessDue)
	protected.GET("/scheduled-invoices/:id", h.Scheduled.GetScheduledInvoice)
	protected.PUT("/scheduled-invoices/:id", h.Scheduled.UpdateScheduledInvoice)
	protected.DELETE("/scheduled-invoices/:id", h.Scheduled.DeleteScheduledInvoice)
	protected.POST("/scheduled-invoices/:id/process", h.Scheduled.ProcessOne)

	protected.GET("/jobs", h.Jobs.ListJobs)
	protected.POST("/jobs/:name/run", h.Jobs.RunJob)

	protected.GET("/audit-logs", h.AuditLogs.ListAuditLogs)
}
