package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"firmbill/internal/models"
	"firmbill/internal/repositories"

	"github.com/google/uuid"
)

type AuditLogsService interface {
	LogActivity(ctx context.Context, userID *uuid.UUID, action, resource string, resourceID *string, statusCode int) error
	ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
	now           func() time.Time
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
		now:           time.Now,
	}
}

// ActionForMethod names the audit action for an HTTP method
func ActionForMethod(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return "read"
}

// LogActivity records one administrative request
func (s *auditLogsService) LogActivity(ctx context.Context, userID *uuid.UUID, action, resource string, resourceID *string, statusCode int) error {
	if resource == "" {
		return errors.New("resource is required")
	}
	if action == "" {
		return errors.New("action is required")
	}

	auditLog := &models.AuditLog{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		StatusCode: statusCode,
		CreatedAt:  s.now(),
	}
	return s.auditLogsRepo.Create(ctx, auditLog)
}

// ListAuditLogs retrieves audit log entries with filtering
func (s *auditLogsService) ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	if filters.Limit <= 0 || filters.Limit > 1000 {
		filters.Limit = 50
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return s.auditLogsRepo.List(ctx, filters)
}
