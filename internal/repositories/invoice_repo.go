package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"firmbill/internal/common"
	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filters models.InvoiceFilters) ([]*models.Invoice, error)
	UpdateDraft(ctx context.Context, invoice *models.Invoice) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvoiceStatus, at time.Time) error
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	SetDocumentKey(ctx context.Context, id uuid.UUID, key string) error
	DeleteDraft(ctx context.Context, id uuid.UUID) error
	NextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error)
}

type invoiceRepo struct {
	db DBTX
}

func NewInvoiceRepo(db DBTX) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, invoice_number, firm_id, scheduled_invoice_id, plan_type, duration, num_users, base_amount, subtotal, fee_a, fee_b, tax, total, issue_date, due_date, status, sent_at, paid_at, document_key, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	err := row.Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.FirmID, &invoice.ScheduledInvoiceID, &invoice.PlanType, &invoice.Duration, &invoice.NumUsers, &invoice.BaseAmount, &invoice.Subtotal, &invoice.FeeA, &invoice.FeeB, &invoice.Tax, &invoice.Total, &invoice.IssueDate, &invoice.DueDate, &invoice.Status, &invoice.SentAt, &invoice.PaidAt, &invoice.DocumentKey, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (id, invoice_number, firm_id, scheduled_invoice_id, plan_type, duration, num_users, base_amount, subtotal, fee_a, fee_b, tax, total, issue_date, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, invoice.ID, invoice.InvoiceNumber, invoice.FirmID, invoice.ScheduledInvoiceID, invoice.PlanType, invoice.Duration, invoice.NumUsers, invoice.BaseAmount, invoice.Subtotal, invoice.FeeA, invoice.FeeB, invoice.Tax, invoice.Total, invoice.IssueDate, invoice.DueDate, invoice.Status)
	if pgErrorCode(err) == pgUniqueViolation {
		return common.Wrap("create invoice "+invoice.InvoiceNumber, common.ErrAllocationConflict, err)
	}
	return err
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFound("invoice")
	}
	return invoice, err
}

func (r *invoiceRepo) List(ctx context.Context, filters models.InvoiceFilters) ([]*models.Invoice, error) {
	var (
		conditions []string
		args       []any
	)
	if filters.Status != nil {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.FirmID != nil {
		args = append(args, *filters.FirmID)
		conditions = append(conditions, fmt.Sprintf("firm_id = $%d", len(args)))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, filters.Limit, filters.Offset)
	query += fmt.Sprintf(` ORDER BY invoice_number DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// UpdateDraft rewrites the line items of a draft invoice.
func (r *invoiceRepo) UpdateDraft(ctx context.Context, invoice *models.Invoice) error {
	query := `
		UPDATE invoices
		SET plan_type = $1, duration = $2, num_users = $3, base_amount = $4, subtotal = $5, fee_a = $6, fee_b = $7, tax = $8, total = $9, due_date = $10, document_key = NULL, updated_at = NOW()
		WHERE id = $11 AND status = 'draft'
	`
	tag, err := r.db.Exec(ctx, query, invoice.PlanType, invoice.Duration, invoice.NumUsers, invoice.BaseAmount, invoice.Subtotal, invoice.FeeA, invoice.FeeB, invoice.Tax, invoice.Total, invoice.DueDate, invoice.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.InvalidState("invoice %s is not a draft", invoice.ID)
	}
	return nil
}

// TransitionStatus moves an invoice from one status to another, failing when
// the stored status is no longer from.
func (r *invoiceRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvoiceStatus, at time.Time) error {
	var query string
	switch to {
	case models.InvoiceSent:
		if from == models.InvoicePaid {
			query = `UPDATE invoices SET status = $1, paid_at = NULL, updated_at = $2 WHERE id = $3 AND status = $4`
		} else {
			query = `UPDATE invoices SET status = $1, sent_at = $2, updated_at = $2 WHERE id = $3 AND status = $4`
		}
	case models.InvoicePaid:
		query = `UPDATE invoices SET status = $1, paid_at = $2, updated_at = $2 WHERE id = $3 AND status = $4`
	default:
		return common.InvalidState("cannot move invoice to %s", to)
	}

	tag, err := r.db.Exec(ctx, query, to, at, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.InvalidState("invoice %s is no longer %s", id, from)
	}
	return nil
}

// MarkSent records a delivery. Drafts become sent; sent and paid invoices keep
// their status and only the timestamp moves.
func (r *invoiceRepo) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE invoices
		SET status = CASE WHEN status = 'draft' THEN 'sent' ELSE status END, sent_at = $1, updated_at = NOW()
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, sentAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("invoice")
	}
	return nil
}

func (r *invoiceRepo) SetDocumentKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.db.Exec(ctx, `UPDATE invoices SET document_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	return err
}

func (r *invoiceRepo) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.InvalidState("invoice %s is not a draft", id)
	}
	return nil
}

// NextInvoiceNumber returns PREFIX-YEAR-NNNN following the last number issued
// in that year. Callers must hold the invoice number lock.
func (r *invoiceRepo) NextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error) {
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, year)
	query := `
		SELECT invoice_number FROM invoices
		WHERE invoice_number LIKE $1
		ORDER BY invoice_number DESC
		LIMIT 1
	`
	var last string
	err := r.db.QueryRow(ctx, query, yearPrefix+"%").Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return FormatInvoiceNumber(prefix, year, 1), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last invoice number: %w", err)
	}

	seq, err := strconv.Atoi(strings.TrimPrefix(last, yearPrefix))
	if err != nil {
		return "", common.Wrap("parse invoice number "+last, common.ErrAllocationConflict, err)
	}
	return FormatInvoiceNumber(prefix, year, seq+1), nil
}

// FormatInvoiceNumber renders PREFIX-YEAR-NNNN
func FormatInvoiceNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}
