package services

import (
	"context"
	"testing"
	"time"

	"firmbill/internal/common"
	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ScheduledInvoiceServiceTestSuite struct {
	suite.Suite
	scheduledRepo *MockScheduledInvoiceRepository
	firmRepo      *MockFirmRepository
	service       ScheduledInvoiceService
	firm          *models.Firm
	ctx           context.Context
}

func (suite *ScheduledInvoiceServiceTestSuite) SetupTest() {
	suite.scheduledRepo = new(MockScheduledInvoiceRepository)
	suite.firmRepo = new(MockFirmRepository)
	suite.service = NewScheduledInvoiceService(suite.scheduledRepo, suite.firmRepo, 30, zerolog.Nop())
	suite.ctx = context.Background()

	end := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	suite.firm = &models.Firm{
		ID:              uuid.New(),
		Name:            "Hart & Vale",
		PlanType:        models.PlanStarter,
		NumUsers:        4,
		BasePrice:       decimal.RequireFromString("250"),
		SubscriptionEnd: &end,
	}
}

func (suite *ScheduledInvoiceServiceTestSuite) TearDownTest() {
	suite.scheduledRepo.AssertExpectations(suite.T())
	suite.firmRepo.AssertExpectations(suite.T())
}

func TestScheduledInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ScheduledInvoiceServiceTestSuite))
}

func (suite *ScheduledInvoiceServiceTestSuite) TestCreate_DefaultsFromFirm() {
	suite.firmRepo.On("GetByID", mock.Anything, suite.firm.ID).Return(suite.firm, nil)
	suite.scheduledRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ScheduledInvoice")).Return(nil)

	entry, err := suite.service.Create(suite.ctx, &ScheduledInvoiceRequest{FirmID: suite.firm.ID, ScheduleDate: "2026-03-01"})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ScheduledPending, entry.Status)
	assert.Equal(suite.T(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), entry.ScheduleDate)
	assert.Equal(suite.T(), 4, entry.NumUsers)
	assert.True(suite.T(), entry.BaseAmount.Equal(decimal.RequireFromString("250")))
	assert.Equal(suite.T(), models.PlanStarter, entry.PlanType)
}

func (suite *ScheduledInvoiceServiceTestSuite) TestCreate_BadDate() {
	suite.firmRepo.On("GetByID", mock.Anything, suite.firm.ID).Return(suite.firm, nil)

	_, err := suite.service.Create(suite.ctx, &ScheduledInvoiceRequest{FirmID: suite.firm.ID, ScheduleDate: "March 1"})

	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *ScheduledInvoiceServiceTestSuite) TestCreate_MissingFirm() {
	_, err := suite.service.Create(suite.ctx, &ScheduledInvoiceRequest{ScheduleDate: "2026-03-01"})
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *ScheduledInvoiceServiceTestSuite) TestUpdate_RejectsTerminalEntry() {
	entry := &models.ScheduledInvoice{ID: uuid.New(), FirmID: suite.firm.ID, Status: models.ScheduledExecuted}
	suite.scheduledRepo.On("GetByID", mock.Anything, entry.ID).Return(entry, nil)

	_, err := suite.service.Update(suite.ctx, entry.ID, &ScheduledInvoiceRequest{ScheduleDate: "2026-03-02"})

	assert.ErrorIs(suite.T(), err, common.ErrInvalidState)
	suite.scheduledRepo.AssertNotCalled(suite.T(), "UpdatePending", mock.Anything, mock.Anything)
}

func (suite *ScheduledInvoiceServiceTestSuite) TestUpdate_PendingEntry() {
	entry := &models.ScheduledInvoice{ID: uuid.New(), FirmID: suite.firm.ID, Status: models.ScheduledPending, PlanType: models.PlanStarter, Duration: DefaultDuration, NumUsers: 4, BaseAmount: decimal.RequireFromString("250")}
	users := 6
	suite.scheduledRepo.On("GetByID", mock.Anything, entry.ID).Return(entry, nil)
	suite.scheduledRepo.On("UpdatePending", mock.Anything, entry).Return(nil)

	updated, err := suite.service.Update(suite.ctx, entry.ID, &ScheduledInvoiceRequest{ScheduleDate: "2026-03-02", NumUsers: &users})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 6, updated.NumUsers)
	assert.Equal(suite.T(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), updated.ScheduleDate)
}

func (suite *ScheduledInvoiceServiceTestSuite) TestDelete_RejectsFailedEntry() {
	entry := &models.ScheduledInvoice{ID: uuid.New(), Status: models.ScheduledFailed}
	suite.scheduledRepo.On("GetByID", mock.Anything, entry.ID).Return(entry, nil)

	err := suite.service.Delete(suite.ctx, entry.ID)

	assert.ErrorIs(suite.T(), err, common.ErrInvalidState)
}

func (suite *ScheduledInvoiceServiceTestSuite) TestBulkCreateFromSubscriptions() {
	// 2026-04-30 minus 30 days is Tuesday 2026-03-31
	scheduled := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	// 2026-03-09 minus 30 days is Saturday 2026-02-07, moved to Friday 2026-02-06
	weekendEnd := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	weekendFirm := &models.Firm{ID: uuid.New(), PlanType: models.PlanEnterprise, NumUsers: 10, BasePrice: decimal.RequireFromString("90"), SubscriptionEnd: &weekendEnd}

	alreadyEnd := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	alreadyFirm := &models.Firm{ID: uuid.New(), SubscriptionEnd: &alreadyEnd}

	suite.firmRepo.On("ListWithSubscriptionEnd", mock.Anything).Return([]*models.Firm{suite.firm, weekendFirm, alreadyFirm}, nil)
	suite.scheduledRepo.On("ExistsPending", mock.Anything, suite.firm.ID, scheduled).Return(false, nil)
	suite.scheduledRepo.On("ExistsPending", mock.Anything, weekendFirm.ID, time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)).Return(false, nil)
	suite.scheduledRepo.On("ExistsPending", mock.Anything, alreadyFirm.ID, mock.Anything).Return(true, nil)
	suite.scheduledRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ScheduledInvoice")).Return(nil).Twice()

	result, err := suite.service.BulkCreateFromSubscriptions(suite.ctx)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, result.Created)
	assert.Equal(suite.T(), 1, result.Skipped)
	require.Len(suite.T(), result.Entries, 2)
	assert.Equal(suite.T(), scheduled, result.Entries[0].ScheduleDate)
	assert.Equal(suite.T(), time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC), result.Entries[1].ScheduleDate)
	assert.Equal(suite.T(), 10, result.Entries[1].NumUsers)
}

func (suite *ScheduledInvoiceServiceTestSuite) TestList_RejectsUnknownStatus() {
	bogus := models.ScheduledStatus("queued")
	_, err := suite.service.List(suite.ctx, &bogus, 10, 0)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}
