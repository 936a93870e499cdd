package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanType is the subscription tier a firm is billed for
type PlanType string

const (
	PlanStarter      PlanType = "starter"
	PlanProfessional PlanType = "professional"
	PlanEnterprise   PlanType = "enterprise"
)

// PlanTypes lists every plan in display order
var PlanTypes = []PlanType{PlanStarter, PlanProfessional, PlanEnterprise}

// Valid reports whether p is one of the known plans
func (p PlanType) Valid() bool {
	switch p {
	case PlanStarter, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}

// Label is the human readable plan name printed on documents
func (p PlanType) Label() string {
	switch p {
	case PlanStarter:
		return "Starter"
	case PlanProfessional:
		return "Professional"
	case PlanEnterprise:
		return "Enterprise"
	}
	return string(p)
}

// Firm is a client organization billed via invoices
type Firm struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	BillingAddress    string          `json:"billing_address" db:"billing_address"`
	Email             string          `json:"email" db:"email"`
	CCEmails          []string        `json:"cc_emails" db:"cc_emails"`
	BCCEmails         []string        `json:"bcc_emails" db:"bcc_emails"`
	IncludeDefaultBCC bool            `json:"include_default_bcc" db:"include_default_bcc"`
	PlanType          PlanType        `json:"plan_type" db:"plan_type"`
	NumUsers          int             `json:"num_users" db:"num_users"`
	BasePrice         decimal.Decimal `json:"base_price" db:"base_price"`
	SubscriptionStart *time.Time      `json:"subscription_start" db:"subscription_start"`
	SubscriptionEnd   *time.Time      `json:"subscription_end" db:"subscription_end"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}
