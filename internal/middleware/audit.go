package middleware

import (
	"errors"
	"net/http"
	"strings"

	"firmbill/internal/common"
	"firmbill/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditMiddleware records mutating admin requests in the audit log
type AuditMiddleware struct {
	auditService services.AuditLogsService
	logger       zerolog.Logger
}

// NewAuditMiddleware creates a new audit middleware instance
func NewAuditMiddleware(auditService services.AuditLogsService, logger zerolog.Logger) *AuditMiddleware {
	return &AuditMiddleware{
		auditService: auditService,
		logger:       logger.With().Str("component", "audit").Logger(),
	}
}

// AuditRequest logs every non-read request once the handler has run.
// A failing audit write never fails the request.
func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			method := c.Request().Method
			if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
				return err
			}

			resource, action := resourceAndAction(c.Path(), method)
			if resource == "" {
				return err
			}

			var userPtr *uuid.UUID
			if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
				userPtr = &userID
			}
			var resourceID *string
			if id := c.Param("id"); id != "" {
				resourceID = &id
			}

			if logErr := m.auditService.LogActivity(c.Request().Context(), userPtr, action, resource, resourceID, statusCode(c, err)); logErr != nil {
				m.logger.Warn().Err(logErr).Str("path", c.Path()).Msg("failed to record audit entry")
			}
			return err
		}
	}
}

// resourceAndAction splits a route like /v1/invoices/:id/mark-paid into
// ("invoices", "mark-paid"). Plain CRUD routes take their action from the method.
func resourceAndAction(route, method string) (string, string) {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	if len(parts) > 0 && parts[0] == "v1" {
		parts = parts[1:]
	}
	if len(parts) == 0 || parts[0] == "" || parts[0] == "*" {
		return "", ""
	}

	resource := parts[0]
	for _, p := range parts[1:] {
		if !strings.HasPrefix(p, ":") {
			return resource, p
		}
	}
	return resource, services.ActionForMethod(method)
}

func statusCode(c echo.Context, err error) int {
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code
		}
		if !c.Response().Committed {
			return http.StatusInternalServerError
		}
	}
	return c.Response().Status
}
