package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
)

// Valid reports whether s is a known invoice status
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// draft -> sent -> paid, and paid -> sent to unmark a payment.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	switch s {
	case InvoiceDraft:
		return next == InvoiceSent
	case InvoiceSent:
		return next == InvoicePaid
	case InvoicePaid:
		return next == InvoiceSent
	}
	return false
}

// CanEdit reports whether line items may still change
func (s InvoiceStatus) CanEdit() bool {
	return s == InvoiceDraft
}

// Invoice is a generated or draft billing document for one firm
type Invoice struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	InvoiceNumber      string          `json:"invoice_number" db:"invoice_number"`
	FirmID             uuid.UUID       `json:"firm_id" db:"firm_id"`
	ScheduledInvoiceID *uuid.UUID      `json:"scheduled_invoice_id,omitempty" db:"scheduled_invoice_id"`
	PlanType           PlanType        `json:"plan_type" db:"plan_type"`
	Duration           string          `json:"duration" db:"duration"`
	NumUsers           int             `json:"num_users" db:"num_users"`
	BaseAmount         decimal.Decimal `json:"base_amount" db:"base_amount"`
	Subtotal           decimal.Decimal `json:"subtotal" db:"subtotal"`
	FeeA               decimal.Decimal `json:"fee_a" db:"fee_a"`
	FeeB               decimal.Decimal `json:"fee_b" db:"fee_b"`
	Tax                decimal.Decimal `json:"tax" db:"tax"`
	Total              decimal.Decimal `json:"total" db:"total"`
	IssueDate          time.Time       `json:"issue_date" db:"issue_date"`
	DueDate            time.Time       `json:"due_date" db:"due_date"`
	Status             InvoiceStatus   `json:"status" db:"status"`
	SentAt             *time.Time      `json:"sent_at" db:"sent_at"`
	PaidAt             *time.Time      `json:"paid_at" db:"paid_at"`
	DocumentKey        *string         `json:"document_key,omitempty" db:"document_key"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// InvoiceFilters narrows invoice listings
type InvoiceFilters struct {
	Status *InvoiceStatus
	FirmID *uuid.UUID
	Limit  int
	Offset int
}
