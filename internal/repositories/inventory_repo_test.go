package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type InventoryRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      InventoryRepository
	tenantID  uuid.UUID
	productID uuid.UUID
	ctx       context.Context
}

func (suite *InventoryRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewInventoryRepository(mock)
	suite.tenantID = uuid.New()
	suite.productID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *InventoryRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestInventoryRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryRepoTestSuite))
}

func (suite *InventoryRepoTestSuite) TestGetFinishedGoods() {
	suite.mock.ExpectQuery("SELECT COALESCE").
		WithArgs(suite.tenantID, suite.productID).
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(12.5))

	qty, err := suite.repo.GetFinishedGoods(suite.ctx, suite.tenantID, suite.productID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 12.5, qty)
}

// A product that was never stocked has no fg_stock row at all. That is a
// quantity of zero, not an error the caller should surface as not-found.
func (suite *InventoryRepoTestSuite) TestGetFinishedGoods_MissingRowIsZero() {
	suite.mock.ExpectQuery("SELECT COALESCE").
		WithArgs(suite.tenantID, suite.productID).
		WillReturnError(pgx.ErrNoRows)

	qty, err := suite.repo.GetFinishedGoods(suite.ctx, suite.tenantID, suite.productID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, qty)
}

func (suite *InventoryRepoTestSuite) TestDeductFinishedGoods_InsufficientStock() {
	suite.mock.ExpectExec("UPDATE fg_stock").
		WithArgs(9.0, suite.tenantID, suite.productID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.DeductFinishedGoods(suite.ctx, suite.tenantID, suite.productID, 9.0)

	assert.ErrorIs(suite.T(), err, ErrInsufficientStock)
}
