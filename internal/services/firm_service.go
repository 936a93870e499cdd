package services

import (
	"context"
	"strings"
	"time"

	"firmbill/internal/caching"
	"firmbill/internal/common"
	"firmbill/internal/models"
	"firmbill/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const firmCacheTTL = 10 * time.Minute

type FirmService interface {
	Create(ctx context.Context, req *FirmRequest) (*models.Firm, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Firm, error)
	List(ctx context.Context, limit, offset int) ([]*models.Firm, error)
	Update(ctx context.Context, id uuid.UUID, req *FirmRequest) (*models.Firm, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type firmService struct {
	firmRepo repositories.FirmRepository
	cache    caching.CacheService
	logger   zerolog.Logger
}

func NewFirmService(firmRepo repositories.FirmRepository, cache caching.CacheService, logger zerolog.Logger) FirmService {
	return &firmService{firmRepo: firmRepo, cache: cache, logger: logger}
}

// FirmRequest is the create/update payload for a firm
type FirmRequest struct {
	Name              string          `json:"name"`
	BillingAddress    string          `json:"billing_address"`
	Email             string          `json:"email"`
	CCEmails          []string        `json:"cc_emails"`
	BCCEmails         []string        `json:"bcc_emails"`
	IncludeDefaultBCC bool            `json:"include_default_bcc"`
	PlanType          models.PlanType `json:"plan_type"`
	NumUsers          int             `json:"num_users"`
	BasePrice         decimal.Decimal `json:"base_price"`
	SubscriptionStart *string         `json:"subscription_start"`
	SubscriptionEnd   *string         `json:"subscription_end"`
}

// apply validates the request and copies it onto firm
func (r *FirmRequest) apply(firm *models.Firm) error {
	if err := common.ValidateRequiredString(r.Name, "name"); err != nil {
		return err
	}
	if err := common.ValidateEmail(r.Email, "email"); err != nil {
		return err
	}
	if err := common.ValidateEmailList(r.CCEmails, "cc_emails"); err != nil {
		return err
	}
	if err := common.ValidateEmailList(r.BCCEmails, "bcc_emails"); err != nil {
		return err
	}
	if !r.PlanType.Valid() {
		return common.Validation("plan_type", "must be one of starter, professional, enterprise")
	}
	if r.NumUsers <= 0 {
		return common.Validation("num_users", "must be positive")
	}
	if r.BasePrice.IsNegative() {
		return common.Validation("base_price", "must not be negative")
	}

	start, err := common.ParseOptionalDate(r.SubscriptionStart, "subscription_start")
	if err != nil {
		return err
	}
	end, err := common.ParseOptionalDate(r.SubscriptionEnd, "subscription_end")
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return common.Validation("subscription_end", "must not be before subscription_start")
	}

	firm.Name = strings.TrimSpace(r.Name)
	firm.BillingAddress = strings.TrimSpace(r.BillingAddress)
	firm.Email = strings.TrimSpace(r.Email)
	firm.CCEmails = nonNil(r.CCEmails)
	firm.BCCEmails = nonNil(r.BCCEmails)
	firm.IncludeDefaultBCC = r.IncludeDefaultBCC
	firm.PlanType = r.PlanType
	firm.NumUsers = r.NumUsers
	firm.BasePrice = r.BasePrice
	firm.SubscriptionStart = start
	firm.SubscriptionEnd = end
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *firmService) Create(ctx context.Context, req *FirmRequest) (*models.Firm, error) {
	firm := &models.Firm{ID: uuid.New()}
	if err := req.apply(firm); err != nil {
		return nil, err
	}
	if err := s.firmRepo.Create(ctx, firm); err != nil {
		return nil, err
	}
	return firm, nil
}

// Get reads through the firm cache
func (s *firmService) Get(ctx context.Context, id uuid.UUID) (*models.Firm, error) {
	if cached, err := s.cache.GetFirm(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("firm_id", id.String()).Msg("firm cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	firm, err := s.firmRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetFirm(ctx, firm, firmCacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("firm_id", id.String()).Msg("firm cache write failed")
	}
	return firm, nil
}

func (s *firmService) List(ctx context.Context, limit, offset int) ([]*models.Firm, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.firmRepo.List(ctx, limit, offset)
}

func (s *firmService) Update(ctx context.Context, id uuid.UUID, req *FirmRequest) (*models.Firm, error) {
	existing, err := s.firmRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(existing); err != nil {
		return nil, err
	}
	if err := s.firmRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return existing, nil
}

func (s *firmService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.firmRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *firmService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.DeleteFirm(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("firm_id", id.String()).Msg("firm cache invalidation failed")
	}
}
