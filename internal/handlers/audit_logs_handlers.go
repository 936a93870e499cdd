package handlers

import (
	"net/http"

	"firmbill/internal/common"
	"firmbill/internal/models"
	"firmbill/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers handles audit logs related HTTP requests
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs handles GET /audit-logs?resource=&user_id=
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	limit, offset := pagination(c)
	filters := &models.AuditLogFilters{Limit: limit, Offset: offset}

	if resource := c.QueryParam("resource"); resource != "" {
		filters.Resource = &resource
	}
	if raw := c.QueryParam("user_id"); raw != "" {
		userID, err := common.ValidateUUID(raw, "user_id")
		if err != nil {
			return common.SendServiceError(c, "audit log", err)
		}
		filters.UserID = &userID
	}

	logs, err := h.auditLogsService.ListAuditLogs(c.Request().Context(), filters)
	if err != nil {
		return common.SendServiceError(c, "audit log", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"limit":      filters.Limit,
		"offset":     filters.Offset,
	})
}
