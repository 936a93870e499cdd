package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"firmbill/internal/common"
	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FirmRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    FirmRepository
	context context.Context
}

func (suite *FirmRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewFirmRepo(mock)
	suite.context = context.Background()
}

func (suite *FirmRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestFirmRepoTestSuite(t *testing.T) {
	suite.Run(t, new(FirmRepoTestSuite))
}

func (suite *FirmRepoTestSuite) TestGetByID_Success() {
	id := uuid.New()
	end := date(2026, 12, 31)
	now := time.Now()
	rows := pgxmock.NewRows(firmColumnNames).AddRow(id, "Hart & Vale LLP", "1 Court St", "billing@hartvale.example",
		[]string{"partner@hartvale.example"}, []string{}, true, models.PlanEnterprise, 12,
		decimal.RequireFromString("99.90"), nil, &end, now, now)

	suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM firms WHERE id = $1`)).WithArgs(id).WillReturnRows(rows)

	firm, err := suite.repo.GetByID(suite.context, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Hart & Vale LLP", firm.Name)
	assert.Equal(suite.T(), []string{"partner@hartvale.example"}, firm.CCEmails)
	assert.True(suite.T(), firm.IncludeDefaultBCC)
	assert.Equal(suite.T(), models.PlanEnterprise, firm.PlanType)
	assert.Nil(suite.T(), firm.SubscriptionStart)
	require.NotNil(suite.T(), firm.SubscriptionEnd)
	assert.Equal(suite.T(), end, *firm.SubscriptionEnd)
}

func (suite *FirmRepoTestSuite) TestDelete_Referenced() {
	id := uuid.New()
	suite.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM firms WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := suite.repo.Delete(suite.context, id)
	assert.ErrorIs(suite.T(), err, common.ErrInvalidState)
}

func (suite *FirmRepoTestSuite) TestDelete_Missing() {
	id := uuid.New()
	suite.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM firms WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(suite.T(), suite.repo.Delete(suite.context, id), common.ErrNotFound)
}

func (suite *FirmRepoTestSuite) TestCreate_DuplicateEmail() {
	firm := &models.Firm{ID: uuid.New(), Name: "Dup", Email: "dup@example.com", PlanType: models.PlanStarter, NumUsers: 1}
	suite.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO firms`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := suite.repo.Create(suite.context, firm)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *FirmRepoTestSuite) TestList_QueryError() {
	suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM firms ORDER BY name ASC`)).
		WithArgs(50, 0).
		WillReturnError(errors.New("connection reset"))

	firms, err := suite.repo.List(suite.context, 50, 0)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), firms)
}
