package repositories

import (
	"context"
	"errors"

	"firmbill/internal/common"
	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FirmRepository interface {
	Create(ctx context.Context, firm *models.Firm) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Firm, error)
	Update(ctx context.Context, firm *models.Firm) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Firm, error)
	ListWithSubscriptionEnd(ctx context.Context) ([]*models.Firm, error)
}

type firmRepo struct {
	db DBTX
}

func NewFirmRepo(db DBTX) FirmRepository {
	return &firmRepo{db: db}
}

const firmColumns = `id, name, billing_address, email, cc_emails, bcc_emails, include_default_bcc, plan_type, num_users, base_price, subscription_start, subscription_end, created_at, updated_at`

func scanFirm(row pgx.Row) (*models.Firm, error) {
	firm := &models.Firm{}
	err := row.Scan(&firm.ID, &firm.Name, &firm.BillingAddress, &firm.Email, &firm.CCEmails, &firm.BCCEmails, &firm.IncludeDefaultBCC, &firm.PlanType, &firm.NumUsers, &firm.BasePrice, &firm.SubscriptionStart, &firm.SubscriptionEnd, &firm.CreatedAt, &firm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return firm, nil
}

func (r *firmRepo) Create(ctx context.Context, firm *models.Firm) error {
	query := `
		INSERT INTO firms (id, name, billing_address, email, cc_emails, bcc_emails, include_default_bcc, plan_type, num_users, base_price, subscription_start, subscription_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, firm.ID, firm.Name, firm.BillingAddress, firm.Email, firm.CCEmails, firm.BCCEmails, firm.IncludeDefaultBCC, firm.PlanType, firm.NumUsers, firm.BasePrice, firm.SubscriptionStart, firm.SubscriptionEnd)
	if pgErrorCode(err) == pgUniqueViolation {
		return common.Validation("email", "a firm with this email already exists")
	}
	return err
}

func (r *firmRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Firm, error) {
	query := `SELECT ` + firmColumns + ` FROM firms WHERE id = $1`
	firm, err := scanFirm(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFound("firm")
	}
	return firm, err
}

func (r *firmRepo) Update(ctx context.Context, firm *models.Firm) error {
	query := `
		UPDATE firms
		SET name = $1, billing_address = $2, email = $3, cc_emails = $4, bcc_emails = $5, include_default_bcc = $6, plan_type = $7, num_users = $8, base_price = $9, subscription_start = $10, subscription_end = $11, updated_at = NOW()
		WHERE id = $12
	`
	tag, err := r.db.Exec(ctx, query, firm.Name, firm.BillingAddress, firm.Email, firm.CCEmails, firm.BCCEmails, firm.IncludeDefaultBCC, firm.PlanType, firm.NumUsers, firm.BasePrice, firm.SubscriptionStart, firm.SubscriptionEnd, firm.ID)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return common.Validation("email", "a firm with this email already exists")
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("firm")
	}
	return nil
}

func (r *firmRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM firms WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return common.InvalidState("firm %s is referenced by invoices or scheduled invoices", id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("firm")
	}
	return nil
}

func (r *firmRepo) List(ctx context.Context, limit, offset int) ([]*models.Firm, error) {
	query := `SELECT ` + firmColumns + ` FROM firms ORDER BY name ASC LIMIT $1 OFFSET $2`
	return r.query(ctx, query, limit, offset)
}

func (r *firmRepo) ListWithSubscriptionEnd(ctx context.Context) ([]*models.Firm, error) {
	query := `SELECT ` + firmColumns + ` FROM firms WHERE subscription_end IS NOT NULL ORDER BY subscription_end ASC`
	return r.query(ctx, query)
}

func (r *firmRepo) query(ctx context.Context, query string, args ...any) ([]*models.Firm, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var firms []*models.Firm
	for rows.Next() {
		firm, err := scanFirm(rows)
		if err != nil {
			return nil, err
		}
		firms = append(firms, firm)
	}
	return firms, rows.Err()
}
