package services

import (
	"context"
	"errors"

	"firmbill/internal/billing"
	"firmbill/internal/common"
	"firmbill/internal/models"
	"firmbill/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ScheduledInvoiceService interface {
	Create(ctx context.Context, req *ScheduledInvoiceRequest) (*models.ScheduledInvoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ScheduledInvoice, error)
	List(ctx context.Context, status *models.ScheduledStatus, limit, offset int) ([]*models.ScheduledInvoice, error)
	Update(ctx context.Context, id uuid.UUID, req *ScheduledInvoiceRequest) (*models.ScheduledInvoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BulkCreateFromSubscriptions(ctx context.Context) (*BulkScheduleResult, error)
}

type scheduledInvoiceService struct {
	scheduledRepo repositories.ScheduledInvoiceRepository
	firmRepo      repositories.FirmRepository
	leadDays      int
	logger        zerolog.Logger
}

func NewScheduledInvoiceService(scheduledRepo repositories.ScheduledInvoiceRepository, firmRepo repositories.FirmRepository, leadDays int, logger zerolog.Logger) ScheduledInvoiceService {
	return &scheduledInvoiceService{
		scheduledRepo: scheduledRepo,
		firmRepo:      firmRepo,
		leadDays:      leadDays,
		logger:        logger,
	}
}

// ScheduledInvoiceRequest creates or edits a pending entry. Unset line fields
// default to the firm's current terms.
type ScheduledInvoiceRequest struct {
	FirmID       uuid.UUID        `json:"firm_id"`
	ScheduleDate string           `json:"schedule_date"`
	PlanType     *models.PlanType `json:"plan_type"`
	Duration     *string          `json:"duration"`
	NumUsers     *int             `json:"num_users"`
	BaseAmount   *decimal.Decimal `json:"base_amount"`
}

// BulkScheduleResult reports what a bulk run created
type BulkScheduleResult struct {
	Created int                        `json:"created"`
	Skipped int                        `json:"skipped"`
	Entries []*models.ScheduledInvoice `json:"entries"`
}

func (s *scheduledInvoiceService) firm(ctx context.Context, id uuid.UUID) (*models.Firm, error) {
	if id == uuid.Nil {
		return nil, common.Validation("firm_id", "is required")
	}
	firm, err := s.firmRepo.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.Validation("firm_id", "firm does not exist")
	}
	return firm, err
}

func (s *scheduledInvoiceService) Create(ctx context.Context, req *ScheduledInvoiceRequest) (*models.ScheduledInvoice, error) {
	firm, err := s.firm(ctx, req.FirmID)
	if err != nil {
		return nil, err
	}
	date, err := common.ParseDate(req.ScheduleDate, "schedule_date")
	if err != nil {
		return nil, err
	}

	line := &InvoicePreview{
		PlanType:   firm.PlanType,
		Duration:   DefaultDuration,
		NumUsers:   firm.NumUsers,
		BaseAmount: firm.BasePrice,
	}
	if err := applyLineOverrides(line, req.PlanType, req.Duration, req.NumUsers, req.BaseAmount); err != nil {
		return nil, err
	}

	entry := &models.ScheduledInvoice{
		ID:           uuid.New(),
		FirmID:       firm.ID,
		ScheduleDate: date,
		PlanType:     line.PlanType,
		Duration:     line.Duration,
		NumUsers:     line.NumUsers,
		BaseAmount:   line.BaseAmount,
		Status:       models.ScheduledPending,
	}
	if err := s.scheduledRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *scheduledInvoiceService) Get(ctx context.Context, id uuid.UUID) (*models.ScheduledInvoice, error) {
	return s.scheduledRepo.GetByID(ctx, id)
}

func (s *scheduledInvoiceService) List(ctx context.Context, status *models.ScheduledStatus, limit, offset int) ([]*models.ScheduledInvoice, error) {
	if status != nil && !status.Valid() {
		return nil, common.Validation("status", "must be one of pending, executed, failed")
	}
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.scheduledRepo.List(ctx, status, limit, offset)
}

// Update edits a pending entry. The firm reference cannot change.
func (s *scheduledInvoiceService) Update(ctx context.Context, id uuid.UUID, req *ScheduledInvoiceRequest) (*models.ScheduledInvoice, error) {
	entry, err := s.scheduledRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.ScheduledPending {
		return nil, common.InvalidState("scheduled invoice %s is %s and can no longer be edited", id, entry.Status)
	}
	if req.FirmID != uuid.Nil && req.FirmID != entry.FirmID {
		return nil, common.Validation("firm_id", "cannot be changed")
	}

	if req.ScheduleDate != "" {
		date, err := common.ParseDate(req.ScheduleDate, "schedule_date")
		if err != nil {
			return nil, err
		}
		entry.ScheduleDate = date
	}
	line := &InvoicePreview{
		PlanType:   entry.PlanType,
		Duration:   entry.Duration,
		NumUsers:   entry.NumUsers,
		BaseAmount: entry.BaseAmount,
	}
	if err := applyLineOverrides(line, req.PlanType, req.Duration, req.NumUsers, req.BaseAmount); err != nil {
		return nil, err
	}
	entry.PlanType = line.PlanType
	entry.Duration = line.Duration
	entry.NumUsers = line.NumUsers
	entry.BaseAmount = line.BaseAmount

	if err := s.scheduledRepo.UpdatePending(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *scheduledInvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	entry, err := s.scheduledRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.Status != models.ScheduledPending {
		return common.InvalidState("scheduled invoice %s is %s and can no longer be deleted", id, entry.Status)
	}
	return s.scheduledRepo.DeletePending(ctx, id)
}

// BulkCreateFromSubscriptions schedules a renewal invoice for every firm with
// a subscription end date, skipping firms already pending on that date.
func (s *scheduledInvoiceService) BulkCreateFromSubscriptions(ctx context.Context) (*BulkScheduleResult, error) {
	firms, err := s.firmRepo.ListWithSubscriptionEnd(ctx)
	if err != nil {
		return nil, err
	}

	result := &BulkScheduleResult{Entries: []*models.ScheduledInvoice{}}
	for _, firm := range firms {
		if firm.SubscriptionEnd == nil {
			continue
		}
		date := billing.ScheduleDateFor(*firm.SubscriptionEnd, s.leadDays)

		exists, err := s.scheduledRepo.ExistsPending(ctx, firm.ID, date)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		entry := &models.ScheduledInvoice{
			ID:           uuid.New(),
			FirmID:       firm.ID,
			ScheduleDate: date,
			PlanType:     firm.PlanType,
			Duration:     DefaultDuration,
			NumUsers:     firm.NumUsers,
			BaseAmount:   firm.BasePrice,
			Status:       models.ScheduledPending,
		}
		if err := s.scheduledRepo.Create(ctx, entry); err != nil {
			return nil, err
		}
		result.Created++
		result.Entries = append(result.Entries, entry)
	}

	s.logger.Info().Int("created", result.Created).Int("skipped", result.Skipped).Msg("bulk scheduling finished")
	return result, nil
}
