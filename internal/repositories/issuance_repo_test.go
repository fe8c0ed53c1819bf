package repositories

import (
	"context"
	"testing"
	"time"

	"fabworks/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type IssuanceRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     IssuanceRepository
	tenantID uuid.UUID
	orderID  uuid.UUID
	staffID  uuid.UUID
	ctx      context.Context
}

func (suite *IssuanceRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewIssuanceRepository(mock)
	suite.tenantID = uuid.New()
	suite.orderID = uuid.New()
	suite.staffID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *IssuanceRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestIssuanceRepoTestSuite(t *testing.T) {
	suite.Run(t, new(IssuanceRepoTestSuite))
}

func (suite *IssuanceRepoTestSuite) TestIssue_DeductsAndAppendsInOneTx() {
	issuance := &models.StockIssuance{
		ID:          uuid.New(),
		TenantID:    suite.tenantID,
		OrderID:     suite.orderID,
		ComponentID: uuid.New(),
		Quantity:    3.5,
		IssuedAt:    time.Now().UTC(),
		StaffID:     suite.staffID,
	}

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec("UPDATE component_stock").
		WithArgs(issuance.Quantity, issuance.TenantID, issuance.ComponentID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec("INSERT INTO stock_issuances").
		WithArgs(issuance.ID, issuance.TenantID, issuance.OrderID, issuance.ComponentID, issuance.Quantity, issuance.IssuedAt, issuance.Notes, issuance.StaffID, issuance.PurchaseOrderID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Issue(suite.ctx, issuance)

	assert.NoError(suite.T(), err)
}

// The original ledger row is read-only; the reversal flow locks it, derives
// the remaining quantity from prior reversal events and only appends.
func (suite *IssuanceRepoTestSuite) TestReverse_AppendsEventWithoutTouchingIssuance() {
	reversal := &models.IssuanceReversal{
		ID:         uuid.New(),
		TenantID:   suite.tenantID,
		IssuanceID: uuid.New(),
		Quantity:   2,
		StaffID:    suite.staffID,
		ReversedAt: time.Now().UTC(),
	}

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery("SELECT quantity").
		WithArgs(reversal.TenantID, reversal.IssuanceID).
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(10.0))
	suite.mock.ExpectQuery("SELECT COALESCE").
		WithArgs(reversal.TenantID, reversal.IssuanceID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(4.0))
	suite.mock.ExpectExec("INSERT INTO issuance_reversals").
		WithArgs(reversal.ID, reversal.TenantID, reversal.IssuanceID, reversal.Quantity, reversal.Reason, reversal.StaffID, reversal.ReversedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec("UPDATE component_stock").
		WithArgs(reversal.Quantity, reversal.TenantID, reversal.IssuanceID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Reverse(suite.ctx, reversal)

	assert.NoError(suite.T(), err)
}

func (suite *IssuanceRepoTestSuite) TestIssue_InsufficientStockRollsBack() {
	issuance := &models.StockIssuance{
		ID:          uuid.New(),
		TenantID:    suite.tenantID,
		OrderID:     suite.orderID,
		ComponentID: uuid.New(),
		Quantity:    99,
		IssuedAt:    time.Now().UTC(),
		StaffID:     suite.staffID,
	}

	suite.mock.ExpectBegin()
	// The conditional WHERE clause matches no row when stock is short.
	suite.mock.ExpectExec("UPDATE component_stock").
		WithArgs(issuance.Quantity, issuance.TenantID, issuance.ComponentID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	suite.mock.ExpectRollback()

	err := suite.repo.Issue(suite.ctx, issuance)

	assert.ErrorIs(suite.T(), err, ErrInsufficientStock)
}

func (suite *IssuanceRepoTestSuite) TestReverse_ExceedsRemainingRollsBack() {
	reversal := &models.IssuanceReversal{
		ID:         uuid.New(),
		TenantID:   suite.tenantID,
		IssuanceID: uuid.New(),
		Quantity:   50,
		StaffID:    suite.staffID,
		ReversedAt: time.Now().UTC(),
	}

	// 10 issued, 6 already reversed: only 4 remain.
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery("SELECT quantity").
		WithArgs(reversal.TenantID, reversal.IssuanceID).
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(10.0))
	suite.mock.ExpectQuery("SELECT COALESCE").
		WithArgs(reversal.TenantID, reversal.IssuanceID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(6.0))
	suite.mock.ExpectRollback()

	err := suite.repo.Reverse(suite.ctx, reversal)

	assert.ErrorIs(suite.T(), err, ErrReversalExceedsRemaining)
}

func (suite *IssuanceRepoTestSuite) TestSumEffectiveByOrder() {
	compA := uuid.New()
	compB := uuid.New()

	rows := pgxmock.NewRows([]string{"component_id", "sum"}).
		AddRow(compA, 7.5).
		AddRow(compB, 2.0)
	suite.mock.ExpectQuery("SELECT s.component_id, SUM").
		WithArgs(suite.tenantID, suite.orderID).
		WillReturnRows(rows)

	issued, err := suite.repo.SumEffectiveByOrder(suite.ctx, suite.tenantID, suite.orderID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 7.5, issued[compA])
	assert.Equal(suite.T(), 2.0, issued[compB])
}
