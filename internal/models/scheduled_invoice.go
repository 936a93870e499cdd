package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduledStatus is the state of a scheduled invoice. executed and failed are terminal.
type ScheduledStatus string

const (
	ScheduledPending  ScheduledStatus = "pending"
	ScheduledExecuted ScheduledStatus = "executed"
	ScheduledFailed   ScheduledStatus = "failed"
)

// Valid reports whether s is a known scheduled status
func (s ScheduledStatus) Valid() bool {
	switch s {
	case ScheduledPending, ScheduledExecuted, ScheduledFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s ScheduledStatus) Terminal() bool {
	switch s {
	case ScheduledExecuted, ScheduledFailed:
		return true
	case ScheduledPending:
		return false
	}
	return true
}

// ScheduledInvoice is an intent to generate and send one invoice on or after ScheduleDate
type ScheduledInvoice struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	FirmID       uuid.UUID       `json:"firm_id" db:"firm_id"`
	ScheduleDate time.Time       `json:"schedule_date" db:"schedule_date"`
	PlanType     PlanType        `json:"plan_type" db:"plan_type"`
	Duration     string          `json:"duration" db:"duration"`
	NumUsers     int             `json:"num_users" db:"num_users"`
	BaseAmount   decimal.Decimal `json:"base_amount" db:"base_amount"`
	Status       ScheduledStatus `json:"status" db:"status"`
	ExecutedAt   *time.Time      `json:"executed_at" db:"executed_at"`
	InvoiceID    *uuid.UUID      `json:"invoice_id" db:"invoice_id"`
	ErrorMessage *string         `json:"error_message" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ScheduledStatusUpdate moves a pending entry to a terminal state
type ScheduledStatusUpdate struct {
	Status       ScheduledStatus
	ExecutedAt   *time.Time
	InvoiceID    *uuid.UUID
	ErrorMessage *string
}
