package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ReservationRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     ReservationRepository
	tenantID uuid.UUID
	orderID  uuid.UUID
	ctx      context.Context
}

func (suite *ReservationRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewReservationRepository(mock)
	suite.tenantID = uuid.New()
	suite.orderID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *ReservationRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestReservationRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ReservationRepoTestSuite))
}

func (suite *ReservationRepoTestSuite) TestUpdateStatus_TransitionApplied() {
	reservationID := uuid.New()

	suite.mock.ExpectExec("UPDATE fg_reservations").
		WithArgs("released", suite.tenantID, reservationID, "reserved").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	moved, err := suite.repo.UpdateStatus(suite.ctx, suite.tenantID, reservationID, "reserved", "released")

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), moved)
}

func (suite *ReservationRepoTestSuite) TestUpdateStatus_LostRace() {
	reservationID := uuid.New()

	suite.mock.ExpectExec("UPDATE fg_reservations").
		WithArgs("consumed", suite.tenantID, reservationID, "reserved").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	moved, err := suite.repo.UpdateStatus(suite.ctx, suite.tenantID, reservationID, "reserved", "consumed")

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), moved)
}

func (suite *ReservationRepoTestSuite) TestSumReservedByOrder_OnlyActiveRows() {
	productID := uuid.New()

	rows := pgxmock.NewRows([]string{"product_id", "sum"}).AddRow(productID, 4.0)
	suite.mock.ExpectQuery("SELECT product_id, SUM").
		WithArgs(suite.tenantID, suite.orderID).
		WillReturnRows(rows)

	reserved, err := suite.repo.SumReservedByOrder(suite.ctx, suite.tenantID, suite.orderID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4.0, reserved[productID])
}
