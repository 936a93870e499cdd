package handlers

import (
	"context"

	"firmbill/internal/documents"
	"firmbill/internal/jobs"
	"firmbill/internal/jobs/background"
	"firmbill/internal/models"
	"firmbill/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*services.TokenClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

func (m *MockAuthService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *services.TokenClaims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) CreateAdmin(ctx context.Context, email, name, password string) (*models.User, error) {
	args := m.Called(ctx, email, name, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockFirmService struct {
	mock.Mock
}

func (m *MockFirmService) Create(ctx context.Context, req *services.FirmRequest) (*models.Firm, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Firm), args.Error(1)
}

func (m *MockFirmService) Get(ctx context.Context, id uuid.UUID) (*models.Firm, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Firm), args.Error(1)
}

func (m *MockFirmService) List(ctx context.Context, limit, offset int) ([]*models.Firm, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Firm), args.Error(1)
}

func (m *MockFirmService) Update(ctx context.Context, id uuid.UUID, req *services.FirmRequest) (*models.Firm, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Firm), args.Error(1)
}

func (m *MockFirmService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) invoice(args mock.Arguments) (*models.Invoice, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Preview(ctx context.Context, req *services.InvoiceRequest) (*services.InvoicePreview, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InvoicePreview), args.Error(1)
}

func (m *MockInvoiceService) Generate(ctx context.Context, req *services.InvoiceRequest) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, req))
}

func (m *MockInvoiceService) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id))
}

func (m *MockInvoiceService) List(ctx context.Context, filters models.InvoiceFilters) ([]*models.Invoice, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) UpdateDraft(ctx context.Context, id uuid.UUID, req *services.InvoiceUpdateRequest) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id, req))
}

func (m *MockInvoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id, status))
}

func (m *MockInvoiceService) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id))
}

func (m *MockInvoiceService) UnmarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id))
}

func (m *MockInvoiceService) Send(ctx context.Context, id uuid.UUID, req *services.SendInvoiceRequest) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id, req))
}

func (m *MockInvoiceService) Document(ctx context.Context, id uuid.UUID, kind documents.Kind) (*documents.Document, error) {
	args := m.Called(ctx, id, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documents.Document), args.Error(1)
}

func (m *MockInvoiceService) DocumentURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockScheduledInvoiceService struct {
	mock.Mock
}

func (m *MockScheduledInvoiceService) entry(args mock.Arguments) (*models.ScheduledInvoice, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledInvoice), args.Error(1)
}

func (m *MockScheduledInvoiceService) Create(ctx context.Context, req *services.ScheduledInvoiceRequest) (*models.ScheduledInvoice, error) {
	return m.entry(m.Called(ctx, req))
}

func (m *MockScheduledInvoiceService) Get(ctx context.Context, id uuid.UUID) (*models.ScheduledInvoice, error) {
	return m.entry(m.Called(ctx, id))
}

func (m *MockScheduledInvoiceService) List(ctx context.Context, status *models.ScheduledStatus, limit, offset int) ([]*models.ScheduledInvoice, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledInvoice), args.Error(1)
}

func (m *MockScheduledInvoiceService) Update(ctx context.Context, id uuid.UUID, req *services.ScheduledInvoiceRequest) (*models.ScheduledInvoice, error) {
	return m.entry(m.Called(ctx, id, req))
}

func (m *MockScheduledInvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScheduledInvoiceService) BulkCreateFromSubscriptions(ctx context.Context) (*services.BulkScheduleResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BulkScheduleResult), args.Error(1)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ProcessDue(ctx context.Context) (*jobs.ProcessResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobs.ProcessResult), args.Error(1)
}

func (m *MockProcessor) ProcessOne(ctx context.Context, id uuid.UUID) (*jobs.ProcessOneResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobs.ProcessOneResult), args.Error(1)
}

type MockJobRunner struct {
	mock.Mock
}

func (m *MockJobRunner) GetJobStatus() []background.JobStatus {
	args := m.Called()
	return args.Get(0).([]background.JobStatus)
}

func (m *MockJobRunner) RunNow(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

type MockAuditLogsService struct {
	mock.Mock
}

func (m *MockAuditLogsService) LogActivity(ctx context.Context, userID *uuid.UUID, action, resource string, resourceID *string, statusCode int) error {
	args := m.Called(ctx, userID, action, resource, resourceID, statusCode)
	return args.Error(0)
}

func (m *MockAuditLogsService) ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
