// Package jobs holds the scheduled invoice batch processor.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firmbill/internal/billing"
	"firmbill/internal/caching"
	"firmbill/internal/common"
	"firmbill/internal/documents"
	"firmbill/internal/models"
	"firmbill/internal/services"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ScheduledStore is the slice of the scheduled invoice repository the processor needs.
type ScheduledStore interface {
	ListDuePending(ctx context.Context, asOf time.Time) ([]*models.ScheduledInvoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledInvoice, error)
	SetStatus(ctx context.Context, id uuid.UUID, update models.ScheduledStatusUpdate) error
}

// InvoiceStore allocates numbers and persists generated invoices.
type InvoiceStore interface {
	NextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	SetDocumentKey(ctx context.Context, id uuid.UUID, key string) error
	DeleteDraft(ctx context.Context, id uuid.UUID) error
}

// FirmStore looks up the billed firm.
type FirmStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Firm, error)
}

// ProcessError names one entry that ended in failed.
type ProcessError struct {
	ScheduledID uuid.UUID `json:"scheduled_id"`
	Message     string    `json:"message"`
}

// ProcessResult summarizes one batch run.
type ProcessResult struct {
	ProcessedCount int            `json:"processed_count"`
	Errors         []ProcessError `json:"errors"`
}

// ProcessOneResult is returned by an ad hoc single-entry run.
type ProcessOneResult struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Recipient     string    `json:"recipient"`
}

// ProcessorConfig carries invoicing policy for generated invoices.
type ProcessorConfig struct {
	Prefix       string
	DocumentKind documents.Kind
	Issuer       documents.Issuer
	Location     *time.Location
	Clock        func() time.Time
}

// Processor advances due scheduled invoices to executed or failed, one at a time.
type Processor struct {
	scheduled ScheduledStore
	invoices  InvoiceStore
	firms     FirmStore
	locker    caching.Locker
	renderer  services.DocumentRenderer
	archive   services.DocumentArchive
	deliverer services.InvoiceDeliverer
	config    ProcessorConfig
	logger    zerolog.Logger
}

// NewProcessor wires a processor. archive may be nil.
func NewProcessor(
	scheduled ScheduledStore,
	invoices InvoiceStore,
	firms FirmStore,
	locker caching.Locker,
	renderer services.DocumentRenderer,
	archive services.DocumentArchive,
	deliverer services.InvoiceDeliverer,
	config ProcessorConfig,
	logger zerolog.Logger,
) *Processor {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.DocumentKind == "" {
		config.DocumentKind = documents.KindPDF
	}
	return &Processor{
		scheduled: scheduled,
		invoices:  invoices,
		firms:     firms,
		locker:    locker,
		renderer:  renderer,
		archive:   archive,
		deliverer: deliverer,
		config:    config,
		logger:    logger,
	}
}

// ProcessDue handles every pending entry scheduled on or before today.
// A failing entry is marked failed and reported; it never stops the run.
// The error is non-nil only when the due list cannot be read.
func (p *Processor) ProcessDue(ctx context.Context) (*ProcessResult, error) {
	today := billing.DateOnly(p.config.Clock(), p.config.Location)

	due, err := p.scheduled.ListDuePending(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled invoices: %w", err)
	}

	result := &ProcessResult{Errors: []ProcessError{}}
	for _, candidate := range due {
		entry, unlock, err := p.claim(ctx, candidate.ID)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrInvalidState):
				p.logger.Info().Err(err).Str("scheduled_id", candidate.ID.String()).Msg("skipping scheduled invoice no longer pending")
			default:
				p.logger.Warn().Err(err).Str("scheduled_id", candidate.ID.String()).Msg("could not claim scheduled invoice, left pending")
			}
			continue
		}

		invoice, _, err := p.execute(ctx, entry, today)
		if err != nil {
			p.fail(ctx, entry.ID, err)
			result.Errors = append(result.Errors, ProcessError{ScheduledID: entry.ID, Message: err.Error()})
		} else {
			result.ProcessedCount++
			p.logger.Info().
				Str("scheduled_id", entry.ID.String()).
				Str("invoice_number", invoice.InvoiceNumber).
				Msg("scheduled invoice executed")
		}
		unlock()
	}

	p.logger.Info().
		Time("as_of", today).
		Int("due", len(due)).
		Int("processed", result.ProcessedCount).
		Int("failed", len(result.Errors)).
		Msg("scheduled invoice run finished")
	return result, nil
}

// ProcessOne runs a single pending entry now. Unlike ProcessDue it returns
// the failure to the caller, after still marking the entry failed.
func (p *Processor) ProcessOne(ctx context.Context, id uuid.UUID) (*ProcessOneResult, error) {
	entry, unlock, err := p.claim(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	today := billing.DateOnly(p.config.Clock(), p.config.Location)
	invoice, firm, err := p.execute(ctx, entry, today)
	if err != nil {
		p.fail(ctx, id, err)
		return nil, err
	}

	p.logger.Info().
		Str("scheduled_id", id.String()).
		Str("invoice_number", invoice.InvoiceNumber).
		Msg("scheduled invoice executed on demand")
	return &ProcessOneResult{
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		Recipient:     firm.Email,
	}, nil
}

// claim takes the entry's lock and re-reads it under the lock. The entry is
// returned only while still pending; the caller must release unlock.
func (p *Processor) claim(ctx context.Context, id uuid.UUID) (*models.ScheduledInvoice, func(), error) {
	unlock, err := p.locker.Lock(ctx, caching.ScheduledInvoiceLock(id))
	if err != nil {
		return nil, nil, err
	}
	entry, err := p.scheduled.GetByID(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	if entry.Status != models.ScheduledPending {
		unlock()
		return nil, nil, common.InvalidState("scheduled invoice %s is %s, not pending", id, entry.Status)
	}
	return entry, unlock, nil
}

// execute generates, renders and delivers the invoice for entry, then marks it executed.
// A draft that never reached the firm is discarded.
func (p *Processor) execute(ctx context.Context, entry *models.ScheduledInvoice, today time.Time) (*models.Invoice, *models.Firm, error) {
	firm, err := p.firms.GetByID(ctx, entry.FirmID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.Validation("firm_id", "firm does not exist")
		}
		return nil, nil, err
	}

	invoice, err := p.generate(ctx, entry, today)
	if err != nil {
		return nil, nil, err
	}

	doc, err := p.renderer.Render(p.config.DocumentKind, documents.NewInvoiceData(p.config.Issuer, invoice, firm))
	if err != nil {
		p.discard(ctx, invoice)
		return nil, nil, err
	}
	p.store(ctx, invoice, doc)

	if err := p.deliverer.Deliver(ctx, invoice, firm, doc, nil); err != nil {
		p.discard(ctx, invoice)
		return nil, nil, err
	}

	executedAt := p.config.Clock()
	err = p.scheduled.SetStatus(ctx, entry.ID, models.ScheduledStatusUpdate{
		Status:     models.ScheduledExecuted,
		ExecutedAt: &executedAt,
		InvoiceID:  &invoice.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	return invoice, firm, nil
}

// generate allocates the next number and stores the draft under the shared
// numbering lock. The due date is the schedule date.
func (p *Processor) generate(ctx context.Context, entry *models.ScheduledInvoice, today time.Time) (*models.Invoice, error) {
	unlock, err := p.locker.Lock(ctx, caching.InvoiceNumberLock)
	if err != nil {
		return nil, err
	}
	defer unlock()

	number, err := p.invoices.NextInvoiceNumber(ctx, p.config.Prefix, today.Year())
	if err != nil {
		return nil, err
	}

	invoice := services.DraftInvoice(number, entry.FirmID, entry.PlanType, entry.Duration, entry.NumUsers, entry.BaseAmount, today, entry.ScheduleDate)
	invoice.ScheduledInvoiceID = &entry.ID
	if err := p.invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (p *Processor) store(ctx context.Context, invoice *models.Invoice, doc *documents.Document) {
	if p.archive == nil {
		return
	}
	key := services.ArchiveKey(doc.Filename)
	if err := p.archive.Store(ctx, key, doc.Content, doc.ContentType); err != nil {
		p.logger.Warn().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("document archive failed")
		return
	}
	if err := p.invoices.SetDocumentKey(ctx, invoice.ID, key); err != nil {
		p.logger.Warn().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("failed to record document key")
		return
	}
	invoice.DocumentKey = &key
}

// discard deletes an unsent draft and its archived document. Deleting the
// newest draft hands its number back to the allocator.
func (p *Processor) discard(ctx context.Context, invoice *models.Invoice) {
	ctx = context.WithoutCancel(ctx)
	if p.archive != nil && invoice.DocumentKey != nil {
		if err := p.archive.Remove(ctx, *invoice.DocumentKey); err != nil {
			p.logger.Warn().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("failed to remove archived document")
		}
	}
	if err := p.invoices.DeleteDraft(ctx, invoice.ID); err != nil {
		p.logger.Error().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("failed to discard unsent draft invoice")
	}
}

func (p *Processor) fail(ctx context.Context, id uuid.UUID, cause error) {
	message := cause.Error()
	p.logger.Error().Err(cause).Str("scheduled_id", id.String()).Msg("scheduled invoice failed")

	err := p.scheduled.SetStatus(ctx, id, models.ScheduledStatusUpdate{
		Status:       models.ScheduledFailed,
		ErrorMessage: &message,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("scheduled_id", id.String()).Msg("failed to mark scheduled invoice failed")
	}
}
