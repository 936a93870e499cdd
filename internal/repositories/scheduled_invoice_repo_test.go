package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"firmbill/internal/common"
	"firmbill/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ScheduledInvoiceRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    ScheduledInvoiceRepository
	context context.Context
}

func (suite *ScheduledInvoiceRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewScheduledInvoiceRepo(mock)
	suite.context = context.Background()
}

func (suite *ScheduledInvoiceRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestScheduledInvoiceRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ScheduledInvoiceRepoTestSuite))
}

func (suite *ScheduledInvoiceRepoTestSuite) TestListDuePending_OrdersByScheduleDate() {
	asOf := date(2026, 3, 5)
	firmID := uuid.New()
	first, second := uuid.New(), uuid.New()

	rows := pgxmock.NewRows(scheduledColumnNames)
	addScheduledRow(rows, first, firmID, date(2026, 3, 1), models.ScheduledPending)
	addScheduledRow(rows, second, firmID, date(2026, 3, 5), models.ScheduledPending)

	suite.mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'pending' AND schedule_date <= $1::date`)).
		WithArgs(asOf).
		WillReturnRows(rows)

	entries, err := suite.repo.ListDuePending(suite.context, asOf)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), entries, 2)
	assert.Equal(suite.T(), first, entries[0].ID)
	assert.Equal(suite.T(), second, entries[1].ID)
	assert.Equal(suite.T(), "450.50", entries[0].BaseAmount.StringFixed(2))
	assert.Equal(suite.T(), models.ScheduledPending, entries[0].Status)
}

func (suite *ScheduledInvoiceRepoTestSuite) TestListDuePending_Empty() {
	asOf := date(2026, 3, 5)
	suite.mock.ExpectQuery(regexp.QuoteMeta(`schedule_date <= $1::date`)).
		WithArgs(asOf).
		WillReturnRows(pgxmock.NewRows(scheduledColumnNames))

	entries, err := suite.repo.ListDuePending(suite.context, asOf)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), entries)
}

func (suite *ScheduledInvoiceRepoTestSuite) TestSetStatus_Executed() {
	id, invoiceID := uuid.New(), uuid.New()
	executedAt := time.Date(2026, 3, 5, 6, 0, 0, 0, time.UTC)
	update := models.ScheduledStatusUpdate{Status: models.ScheduledExecuted, ExecutedAt: &executedAt, InvoiceID: &invoiceID}

	suite.mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $5 AND status = 'pending'`)).
		WithArgs(models.ScheduledExecuted, &executedAt, &invoiceID, pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.SetStatus(suite.context, id, update))
}

func (suite *ScheduledInvoiceRepoTestSuite) TestSetStatus_AlreadyLeftPending() {
	id := uuid.New()
	update := models.ScheduledStatusUpdate{Status: models.ScheduledFailed, ErrorMessage: stringPtr("smtp down")}

	suite.mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $5 AND status = 'pending'`)).
		WithArgs(models.ScheduledFailed, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.SetStatus(suite.context, id, update)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidState)
}

func (suite *ScheduledInvoiceRepoTestSuite) TestSetStatus_RejectsPendingTarget() {
	err := suite.repo.SetStatus(suite.context, uuid.New(), models.ScheduledStatusUpdate{Status: models.ScheduledPending})
	assert.ErrorIs(suite.T(), err, common.ErrInvalidState)
}

func (suite *ScheduledInvoiceRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM scheduled_invoices WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	entry, err := suite.repo.GetByID(suite.context, id)
	assert.Nil(suite.T(), entry)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ScheduledInvoiceRepoTestSuite) TestUpdatePending_RejectsExecuted() {
	entry := &models.ScheduledInvoice{ID: uuid.New(), ScheduleDate: date(2026, 4, 1), PlanType: models.PlanStarter, NumUsers: 2}
	suite.mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $6 AND status = 'pending'`)).
		WithArgs(entry.ScheduleDate, entry.PlanType, entry.Duration, entry.NumUsers, pgxmock.AnyArg(), entry.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(suite.T(), suite.repo.UpdatePending(suite.context, entry), common.ErrInvalidState)
}

func (suite *ScheduledInvoiceRepoTestSuite) TestDeletePending() {
	id := uuid.New()
	suite.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM scheduled_invoices WHERE id = $1 AND status = 'pending'`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(suite.T(), suite.repo.DeletePending(suite.context, id))
}

func (suite *ScheduledInvoiceRepoTestSuite) TestExistsPending() {
	firmID := uuid.New()
	day := date(2026, 4, 3)
	suite.mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(firmID, day).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := suite.repo.ExistsPending(suite.context, firmID, day)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), exists)
}
