package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"firmbill/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, auditLog *models.AuditLog) error
	List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DBTX
}

func NewAuditLogsRepo(db DBTX) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	if auditLog.CreatedAt.IsZero() {
		auditLog.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, resource, resource_id, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, auditLog.ID, auditLog.UserID, auditLog.Action, auditLog.Resource, auditLog.ResourceID, auditLog.StatusCode, auditLog.CreatedAt)
	return err
}

func (r *auditLogsRepo) List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	var (
		conditions []string
		args       []any
	)
	if filters.Resource != nil {
		args = append(args, *filters.Resource)
		conditions = append(conditions, fmt.Sprintf("resource = $%d", len(args)))
	}
	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}

	query := `SELECT id, user_id, action, resource, resource_id, status_code, created_at FROM audit_logs`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, filters.Limit, filters.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		if err := rows.Scan(&log.ID, &log.UserID, &log.Action, &log.Resource, &log.ResourceID, &log.StatusCode, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
