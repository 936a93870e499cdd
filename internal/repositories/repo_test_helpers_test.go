package repositories

import (
	"time"

	"firmbill/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

var (
	invoiceColumnNames = []string{"id", "invoice_number", "firm_id", "scheduled_invoice_id", "plan_type", "duration", "num_users", "base_amount", "subtotal", "fee_a", "fee_b", "tax", "total", "issue_date", "due_date", "status", "sent_at", "paid_at", "document_key", "created_at", "updated_at"}
	scheduledColumnNames = []string{"id", "firm_id", "schedule_date", "plan_type", "duration", "num_users", "base_amount", "status", "executed_at", "invoice_id", "error_message", "created_at", "updated_at"}
	firmColumnNames = []string{"id", "name", "billing_address", "email", "cc_emails", "bcc_emails", "include_default_bcc", "plan_type", "num_users", "base_price", "subscription_start", "subscription_end", "created_at", "updated_at"}
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stringPtr(s string) *string {
	return &s
}

func addInvoiceRow(rows *pgxmock.Rows, id uuid.UUID, number string, firmID uuid.UUID, status models.InvoiceStatus) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(id, number, firmID, nil, models.PlanProfessional, "12 months", 2,
		decimal.RequireFromString("1000"), decimal.RequireFromString("2000.00"), decimal.RequireFromString("50.00"),
		decimal.RequireFromString("50.00"), decimal.RequireFromString("300.00"), decimal.RequireFromString("2400.00"),
		date(2026, 3, 1), date(2026, 3, 31), status, nil, nil, nil, now, now)
}

func addScheduledRow(rows *pgxmock.Rows, id, firmID uuid.UUID, scheduleDate time.Time, status models.ScheduledStatus) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(id, firmID, scheduleDate, models.PlanStarter, "12 months", 3,
		decimal.RequireFromString("450.50"), status, nil, nil, nil, now, now)
}
