package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one administrative action
type AuditLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"user_id" db:"user_id"`
	Action     string     `json:"action" db:"action"`
	Resource   string     `json:"resource" db:"resource"`
	ResourceID *string    `json:"resource_id" db:"resource_id"`
	StatusCode int        `json:"status_code" db:"status_code"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// AuditLogFilters represents filters for querying audit logs
type AuditLogFilters struct {
	Resource *string    `json:"resource"`
	UserID   *uuid.UUID `json:"user_id"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
