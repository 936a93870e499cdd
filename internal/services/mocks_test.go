package services

import (
	"context"
	"time"

	"firmbill/internal/documents"
	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockFirmRepository struct {
	mock.Mock
}

func (m *MockFirmRepository) Create(ctx context.Context, firm *models.Firm) error {
	args := m.Called(ctx, firm)
	return args.Error(0)
}

func (m *MockFirmRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Firm, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Firm), args.Error(1)
}

func (m *MockFirmRepository) Update(ctx context.Context, firm *models.Firm) error {
	args := m.Called(ctx, firm)
	return args.Error(0)
}

func (m *MockFirmRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFirmRepository) List(ctx context.Context, limit, offset int) ([]*models.Firm, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Firm), args.Error(1)
}

func (m *MockFirmRepository) ListWithSubscriptionEnd(ctx context.Context) ([]*models.Firm, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Firm), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, filters models.InvoiceFilters) ([]*models.Invoice, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateDraft(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvoiceStatus, at time.Time) error {
	args := m.Called(ctx, id, from, to, at)
	return args.Error(0)
}

func (m *MockInvoiceRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	args := m.Called(ctx, id, sentAt)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SetDocumentKey(ctx context.Context, id uuid.UUID, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error) {
	args := m.Called(ctx, prefix, year)
	return args.String(0), args.Error(1)
}

type MockScheduledInvoiceRepository struct {
	mock.Mock
}

func (m *MockScheduledInvoiceRepository) Create(ctx context.Context, entry *models.ScheduledInvoice) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockScheduledInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledInvoice), args.Error(1)
}

func (m *MockScheduledInvoiceRepository) List(ctx context.Context, status *models.ScheduledStatus, limit, offset int) ([]*models.ScheduledInvoice, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]*models.ScheduledInvoice), args.Error(1)
}

func (m *MockScheduledInvoiceRepository) UpdatePending(ctx context.Context, entry *models.ScheduledInvoice) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockScheduledInvoiceRepository) DeletePending(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScheduledInvoiceRepository) ListDuePending(ctx context.Context, asOf time.Time) ([]*models.ScheduledInvoice, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).([]*models.ScheduledInvoice), args.Error(1)
}

func (m *MockScheduledInvoiceRepository) SetStatus(ctx context.Context, id uuid.UUID, update models.ScheduledStatusUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockScheduledInvoiceRepository) ExistsPending(ctx context.Context, firmID uuid.UUID, scheduleDate time.Time) (bool, error) {
	args := m.Called(ctx, firmID, scheduleDate)
	return args.Bool(0), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) Render(kind documents.Kind, data documents.InvoiceData) (*documents.Document, error) {
	args := m.Called(kind, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documents.Document), args.Error(1)
}

type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDocumentArchive) Store(ctx context.Context, key string, content []byte, contentType string) error {
	args := m.Called(ctx, key, content, contentType)
	return args.Error(0)
}

func (m *MockDocumentArchive) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentArchive) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockInvoiceDeliverer struct {
	mock.Mock
}

func (m *MockInvoiceDeliverer) Deliver(ctx context.Context, invoice *models.Invoice, firm *models.Firm, doc *documents.Document, extra []string) error {
	args := m.Called(ctx, invoice, firm, doc, extra)
	return args.Error(0)
}
