package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firmbill/internal/common"
	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ScheduledInvoiceRepository interface {
	Create(ctx context.Context, entry *models.ScheduledInvoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledInvoice, error)
	List(ctx context.Context, status *models.ScheduledStatus, limit, offset int) ([]*models.ScheduledInvoice, error)
	UpdatePending(ctx context.Context, entry *models.ScheduledInvoice) error
	DeletePending(ctx context.Context, id uuid.UUID) error
	ListDuePending(ctx context.Context, asOf time.Time) ([]*models.ScheduledInvoice, error)
	SetStatus(ctx context.Context, id uuid.UUID, update models.ScheduledStatusUpdate) error
	ExistsPending(ctx context.Context, firmID uuid.UUID, scheduleDate time.Time) (bool, error)
}

type scheduledInvoiceRepo struct {
	db DBTX
}

func NewScheduledInvoiceRepo(db DBTX) ScheduledInvoiceRepository {
	return &scheduledInvoiceRepo{db: db}
}

const scheduledColumns = `id, firm_id, schedule_date, plan_type, duration, num_users, base_amount, status, executed_at, invoice_id, error_message, created_at, updated_at`

func scanScheduled(row pgx.Row) (*models.ScheduledInvoice, error) {
	entry := &models.ScheduledInvoice{}
	err := row.Scan(&entry.ID, &entry.FirmID, &entry.ScheduleDate, &entry.PlanType, &entry.Duration, &entry.NumUsers, &entry.BaseAmount, &entry.Status, &entry.ExecutedAt, &entry.InvoiceID, &entry.ErrorMessage, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *scheduledInvoiceRepo) Create(ctx context.Context, entry *models.ScheduledInvoice) error {
	query := `
		INSERT INTO scheduled_invoices (id, firm_id, schedule_date, plan_type, duration, num_users, base_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, entry.ID, entry.FirmID, entry.ScheduleDate, entry.PlanType, entry.Duration, entry.NumUsers, entry.BaseAmount, entry.Status)
	if pgErrorCode(err) == pgForeignKeyViolation {
		return common.Validation("firm_id", "firm does not exist")
	}
	return err
}

func (r *scheduledInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledInvoice, error) {
	query := `SELECT ` + scheduledColumns + ` FROM scheduled_invoices WHERE id = $1`
	entry, err := scanScheduled(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFound("scheduled invoice")
	}
	return entry, err
}

func (r *scheduledInvoiceRepo) List(ctx context.Context, status *models.ScheduledStatus, limit, offset int) ([]*models.ScheduledInvoice, error) {
	if status != nil {
		query := `SELECT ` + scheduledColumns + ` FROM scheduled_invoices WHERE status = $1 ORDER BY schedule_date ASC, created_at ASC LIMIT $2 OFFSET $3`
		return r.query(ctx, query, *status, limit, offset)
	}
	query := `SELECT ` + scheduledColumns + ` FROM scheduled_invoices ORDER BY schedule_date ASC, created_at ASC LIMIT $1 OFFSET $2`
	return r.query(ctx, query, limit, offset)
}

func (r *scheduledInvoiceRepo) UpdatePending(ctx context.Context, entry *models.ScheduledInvoice) error {
	query := `
		UPDATE scheduled_invoices
		SET schedule_date = $1, plan_type = $2, duration = $3, num_users = $4, base_amount = $5, updated_at = NOW()
		WHERE id = $6 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, entry.ScheduleDate, entry.PlanType, entry.Duration, entry.NumUsers, entry.BaseAmount, entry.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.InvalidState("scheduled invoice %s is not pending", entry.ID)
	}
	return nil
}

func (r *scheduledInvoiceRepo) DeletePending(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM scheduled_invoices WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.InvalidState("scheduled invoice %s is not pending", id)
	}
	return nil
}

// ListDuePending returns pending entries scheduled on or before asOf, oldest first.
func (r *scheduledInvoiceRepo) ListDuePending(ctx context.Context, asOf time.Time) ([]*models.ScheduledInvoice, error) {
	query := `
		SELECT ` + scheduledColumns + `
		FROM scheduled_invoices
		WHERE status = 'pending' AND schedule_date <= $1::date
		ORDER BY schedule_date ASC, created_at ASC
	`
	return r.query(ctx, query, asOf)
}

// SetStatus moves a pending entry to a terminal status. An entry that has
// already left pending is rejected with ErrInvalidState.
func (r *scheduledInvoiceRepo) SetStatus(ctx context.Context, id uuid.UUID, update models.ScheduledStatusUpdate) error {
	if !update.Status.Terminal() {
		return common.InvalidState("scheduled invoice cannot move to %s", update.Status)
	}
	query := `
		UPDATE scheduled_invoices
		SET status = $1, executed_at = $2, invoice_id = $3, error_message = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, update.Status, update.ExecutedAt, update.InvoiceID, update.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update scheduled invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.InvalidState("scheduled invoice %s already left pending", id)
	}
	return nil
}

func (r *scheduledInvoiceRepo) ExistsPending(ctx context.Context, firmID uuid.UUID, scheduleDate time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM scheduled_invoices WHERE firm_id = $1 AND schedule_date = $2::date AND status = 'pending')`
	var exists bool
	err := r.db.QueryRow(ctx, query, firmID, scheduleDate).Scan(&exists)
	return exists, err
}

func (r *scheduledInvoiceRepo) query(ctx context.Context, query string, args ...any) ([]*models.ScheduledInvoice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.ScheduledInvoice
	for rows.Next() {
		entry, err := scanScheduled(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
