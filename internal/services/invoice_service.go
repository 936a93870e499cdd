package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"firmbill/internal/billing"
	"firmbill/internal/caching"
	"firmbill/internal/common"
	"firmbill/internal/documents"
	"firmbill/internal/models"
	"firmbill/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultDuration labels an invoice when no duration is given.
const DefaultDuration = "12 months"

// ErrArchiveUnavailable is returned when no document archive is configured.
var ErrArchiveUnavailable = errors.New("document archive is not configured")

// DocumentRenderer draws invoice documents.
type DocumentRenderer interface {
	Render(kind documents.Kind, data documents.InvoiceData) (*documents.Document, error)
}

// InvoiceDeliverer emails a document and marks the invoice sent.
type InvoiceDeliverer interface {
	Deliver(ctx context.Context, invoice *models.Invoice, firm *models.Firm, doc *documents.Document, extra []string) error
}

// InvoiceServiceInterface defines the interface for invoice service
type InvoiceServiceInterface interface {
	Preview(ctx context.Context, req *InvoiceRequest) (*InvoicePreview, error)
	Generate(ctx context.Context, req *InvoiceRequest) (*models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filters models.InvoiceFilters) ([]*models.Invoice, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, req *InvoiceUpdateRequest) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	UnmarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Send(ctx context.Context, id uuid.UUID, req *SendInvoiceRequest) (*models.Invoice, error)
	Document(ctx context.Context, id uuid.UUID, kind documents.Kind) (*documents.Document, error)
	DocumentURL(ctx context.Context, id uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvoiceSettings carries the invoicing policy the service applies
type InvoiceSettings struct {
	Prefix         string
	DefaultDueDays int
	DocumentKind   documents.Kind
	Issuer         documents.Issuer
	Location       *time.Location
	PresignTTL     time.Duration
	Clock          func() time.Time
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	firmRepo    repositories.FirmRepository
	locker      caching.Locker
	renderer    DocumentRenderer
	archive     DocumentArchive
	deliverer   InvoiceDeliverer
	settings    InvoiceSettings
	logger      zerolog.Logger
}

// NewInvoiceService creates a new invoice service. archive may be nil.
func NewInvoiceService(
	invoiceRepo repositories.InvoiceRepository,
	firmRepo repositories.FirmRepository,
	locker caching.Locker,
	renderer DocumentRenderer,
	archive DocumentArchive,
	deliverer InvoiceDeliverer,
	settings InvoiceSettings,
	logger zerolog.Logger,
) InvoiceServiceInterface {
	if settings.Clock == nil {
		settings.Clock = time.Now
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.PresignTTL <= 0 {
		settings.PresignTTL = 15 * time.Minute
	}
	if settings.DocumentKind == "" {
		settings.DocumentKind = documents.KindPDF
	}
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		firmRepo:    firmRepo,
		locker:      locker,
		renderer:    renderer,
		archive:     archive,
		deliverer:   deliverer,
		settings:    settings,
		logger:      logger,
	}
}

// InvoiceRequest selects a firm and optionally overrides its billed terms
type InvoiceRequest struct {
	FirmID     uuid.UUID        `json:"firm_id"`
	PlanType   *models.PlanType `json:"plan_type"`
	Duration   *string          `json:"duration"`
	NumUsers   *int             `json:"num_users"`
	BaseAmount *decimal.Decimal `json:"base_amount"`
	DueDate    *string          `json:"due_date"`
}

// InvoiceUpdateRequest edits the line items of a draft
type InvoiceUpdateRequest struct {
	PlanType   *models.PlanType `json:"plan_type"`
	Duration   *string          `json:"duration"`
	NumUsers   *int             `json:"num_users"`
	BaseAmount *decimal.Decimal `json:"base_amount"`
	DueDate    *string          `json:"due_date"`
}

// SendInvoiceRequest controls document kind and extra CC recipients
type SendInvoiceRequest struct {
	Kind            string   `json:"kind"`
	ExtraRecipients []string `json:"extra_recipients"`
}

// InvoicePreview shows what Generate would produce, without a number
type InvoicePreview struct {
	FirmID     uuid.UUID       `json:"firm_id"`
	FirmName   string          `json:"firm_name"`
	PlanType   models.PlanType `json:"plan_type"`
	Duration   string          `json:"duration"`
	NumUsers   int             `json:"num_users"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    time.Time       `json:"due_date"`
	billing.Amounts
}

// DraftInvoice builds a draft whose amounts derive from base and users.
func DraftInvoice(number string, firmID uuid.UUID, plan models.PlanType, duration string, numUsers int, base decimal.Decimal, issueDate, dueDate time.Time) *models.Invoice {
	amounts := billing.CalculateAmounts(base, numUsers)
	return &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		FirmID:        firmID,
		PlanType:      plan,
		Duration:      duration,
		NumUsers:      numUsers,
		BaseAmount:    base,
		Subtotal:      amounts.Subtotal,
		FeeA:          amounts.FeeA,
		FeeB:          amounts.FeeB,
		Tax:           amounts.Tax,
		Total:         amounts.Total,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Status:        models.InvoiceDraft,
	}
}

func (s *invoiceService) today() time.Time {
	return billing.DateOnly(s.settings.Clock(), s.settings.Location)
}

// resolve validates the request against the firm and fills defaults from it
func (s *invoiceService) resolve(ctx context.Context, req *InvoiceRequest) (*InvoicePreview, error) {
	if req.FirmID == uuid.Nil {
		return nil, common.Validation("firm_id", "is required")
	}
	firm, err := s.firmRepo.GetByID(ctx, req.FirmID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Validation("firm_id", "firm does not exist")
		}
		return nil, err
	}

	p := &InvoicePreview{
		FirmID:     firm.ID,
		FirmName:   firm.Name,
		PlanType:   firm.PlanType,
		Duration:   DefaultDuration,
		NumUsers:   firm.NumUsers,
		BaseAmount: firm.BasePrice,
		IssueDate:  s.today(),
	}
	if err := applyLineOverrides(p, req.PlanType, req.Duration, req.NumUsers, req.BaseAmount); err != nil {
		return nil, err
	}

	due, err := common.ParseOptionalDate(req.DueDate, "due_date")
	if err != nil {
		return nil, err
	}
	if due != nil {
		p.DueDate = *due
	} else {
		p.DueDate = billing.DueDateFromToday(p.IssueDate, s.settings.DefaultDueDays)
	}

	p.Amounts = billing.CalculateAmounts(p.BaseAmount, p.NumUsers)
	return p, nil
}

func applyLineOverrides(p *InvoicePreview, plan *models.PlanType, duration *string, numUsers *int, base *decimal.Decimal) error {
	if plan != nil {
		if !plan.Valid() {
			return common.Validation("plan_type", "must be one of starter, professional, enterprise")
		}
		p.PlanType = *plan
	}
	if duration != nil {
		if strings.TrimSpace(*duration) == "" {
			return common.Validation("duration", "must not be empty")
		}
		p.Duration = strings.TrimSpace(*duration)
	}
	if numUsers != nil {
		if *numUsers <= 0 {
			return common.Validation("num_users", "must be positive")
		}
		p.NumUsers = *numUsers
	}
	if base != nil {
		if base.IsNegative() {
			return common.Validation("base_amount", "must not be negative")
		}
		p.BaseAmount = *base
	}
	return nil
}

// Preview computes amounts without allocating an invoice number
func (s *invoiceService) Preview(ctx context.Context, req *InvoiceRequest) (*InvoicePreview, error) {
	return s.resolve(ctx, req)
}

// Generate allocates the next number under the shared lock and stores a draft
func (s *invoiceService) Generate(ctx context.Context, req *InvoiceRequest) (*models.Invoice, error) {
	p, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, caching.InvoiceNumberLock)
	if err != nil {
		return nil, err
	}
	defer unlock()

	number, err := s.invoiceRepo.NextInvoiceNumber(ctx, s.settings.Prefix, p.IssueDate.Year())
	if err != nil {
		return nil, err
	}

	invoice := DraftInvoice(number, p.FirmID, p.PlanType, p.Duration, p.NumUsers, p.BaseAmount, p.IssueDate, p.DueDate)
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info().Str("invoice_number", number).Str("firm_id", p.FirmID.String()).Msg("invoice generated")
	return invoice, nil
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *invoiceService) List(ctx context.Context, filters models.InvoiceFilters) ([]*models.Invoice, error) {
	if filters.Status != nil && !filters.Status.Valid() {
		return nil, common.Validation("status", "must be one of draft, sent, paid")
	}
	filters.Limit, filters.Offset = common.ValidatePaginationParams(filters.Limit, filters.Offset)
	return s.invoiceRepo.List(ctx, filters)
}

// UpdateDraft edits line items and recomputes every amount
func (s *invoiceService) UpdateDraft(ctx context.Context, id uuid.UUID, req *InvoiceUpdateRequest) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.CanEdit() {
		return nil, common.InvalidState("invoice %s is %s and can no longer be edited", invoice.InvoiceNumber, invoice.Status)
	}

	p := &InvoicePreview{
		PlanType:   invoice.PlanType,
		Duration:   invoice.Duration,
		NumUsers:   invoice.NumUsers,
		BaseAmount: invoice.BaseAmount,
	}
	if err := applyLineOverrides(p, req.PlanType, req.Duration, req.NumUsers, req.BaseAmount); err != nil {
		return nil, err
	}
	due, err := common.ParseOptionalDate(req.DueDate, "due_date")
	if err != nil {
		return nil, err
	}
	if due != nil {
		invoice.DueDate = *due
	}

	amounts := billing.CalculateAmounts(p.BaseAmount, p.NumUsers)
	invoice.PlanType = p.PlanType
	invoice.Duration = p.Duration
	invoice.NumUsers = p.NumUsers
	invoice.BaseAmount = p.BaseAmount
	invoice.Subtotal = amounts.Subtotal
	invoice.FeeA = amounts.FeeA
	invoice.FeeB = amounts.FeeB
	invoice.Tax = amounts.Tax
	invoice.Total = amounts.Total

	if err := s.invoiceRepo.UpdateDraft(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// UpdateStatus applies a manual transition. draft -> sent only happens by
// delivering the invoice, so it is rejected here.
func (s *invoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error) {
	if !status.Valid() {
		return nil, common.Validation("status", "must be one of draft, sent, paid")
	}
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.CanTransitionTo(status) {
		return nil, common.InvalidState("invoice %s cannot move from %s to %s", invoice.InvoiceNumber, invoice.Status, status)
	}
	if invoice.Status == models.InvoiceDraft {
		return nil, common.InvalidState("invoice %s is a draft; send it to mark it sent", invoice.InvoiceNumber)
	}

	if err := s.invoiceRepo.TransitionStatus(ctx, id, invoice.Status, status, s.settings.Clock()); err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *invoiceService) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.UpdateStatus(ctx, id, models.InvoicePaid)
}

func (s *invoiceService) UnmarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoicePaid {
		return nil, common.InvalidState("invoice %s is not paid", invoice.InvoiceNumber)
	}
	return s.UpdateStatus(ctx, id, models.InvoiceSent)
}

// Send renders, archives and emails the invoice
func (s *invoiceService) Send(ctx context.Context, id uuid.UUID, req *SendInvoiceRequest) (*models.Invoice, error) {
	kind := s.settings.DocumentKind
	if req != nil && req.Kind != "" {
		parsed, err := documents.ParseKind(req.Kind)
		if err != nil {
			return nil, common.Validation("kind", err.Error())
		}
		kind = parsed
	}
	var extra []string
	if req != nil {
		if err := common.ValidateEmailList(req.ExtraRecipients, "extra_recipients"); err != nil {
			return nil, err
		}
		extra = req.ExtraRecipients
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	firm, err := s.firmRepo.GetByID(ctx, invoice.FirmID)
	if err != nil {
		return nil, err
	}

	doc, err := s.renderer.Render(kind, documents.NewInvoiceData(s.settings.Issuer, invoice, firm))
	if err != nil {
		return nil, err
	}
	s.store(ctx, invoice, doc)

	if err := s.deliverer.Deliver(ctx, invoice, firm, doc, extra); err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, id)
}

// store archives doc and records its key. Failures are logged and ignored.
func (s *invoiceService) store(ctx context.Context, invoice *models.Invoice, doc *documents.Document) {
	if s.archive == nil {
		return
	}
	key := ArchiveKey(doc.Filename)
	if err := s.archive.Store(ctx, key, doc.Content, doc.ContentType); err != nil {
		s.logger.Warn().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("document archive failed")
		return
	}
	if err := s.invoiceRepo.SetDocumentKey(ctx, invoice.ID, key); err != nil {
		s.logger.Warn().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("failed to record document key")
		return
	}
	invoice.DocumentKey = &key
}

// Document renders the invoice on demand
func (s *invoiceService) Document(ctx context.Context, id uuid.UUID, kind documents.Kind) (*documents.Document, error) {
	if kind == "" {
		kind = s.settings.DocumentKind
	}
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	firm, err := s.firmRepo.GetByID(ctx, invoice.FirmID)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(kind, documents.NewInvoiceData(s.settings.Issuer, invoice, firm))
}

// DocumentURL returns a presigned link to the archived document, archiving it first if needed
func (s *invoiceService) DocumentURL(ctx context.Context, id uuid.UUID) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveUnavailable
	}
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if invoice.DocumentKey == nil {
		doc, err := s.Document(ctx, id, "")
		if err != nil {
			return "", err
		}
		key := ArchiveKey(doc.Filename)
		if err := s.archive.Store(ctx, key, doc.Content, doc.ContentType); err != nil {
			return "", err
		}
		if err := s.invoiceRepo.SetDocumentKey(ctx, id, key); err != nil {
			return "", err
		}
		invoice.DocumentKey = &key
	}

	return s.archive.PresignedURL(ctx, *invoice.DocumentKey, s.settings.PresignTTL)
}

// Delete removes a draft and its archived document
func (s *invoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceDraft {
		return common.InvalidState("invoice %s is %s; only drafts can be deleted", invoice.InvoiceNumber, invoice.Status)
	}
	if err := s.invoiceRepo.DeleteDraft(ctx, id); err != nil {
		return err
	}
	if s.archive != nil && invoice.DocumentKey != nil {
		if err := s.archive.Remove(ctx, *invoice.DocumentKey); err != nil {
			s.logger.Warn().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("failed to remove archived document")
		}
	}
	return nil
}
