package services

import (
	"context"
	"testing"
	"time"

	"fabworks/internal/common"
	"fabworks/internal/models"
	"fabworks/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockIssuanceRepository struct {
	mock.Mock
}

func (m *MockIssuanceRepository) Issue(ctx context.Context, issuance *models.StockIssuance) error {
	args := m.Called(ctx, issuance)
	return args.Error(0)
}

func (m *MockIssuanceRepository) Reverse(ctx context.Context, reversal *models.IssuanceReversal) error {
	args := m.Called(ctx, reversal)
	return args.Error(0)
}

func (m *MockIssuanceRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.StockIssuance, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockIssuance), args.Error(1)
}

func (m *MockIssuanceRepository) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.StockIssuance, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StockIssuance), args.Error(1)
}

func (m *MockIssuanceRepository) SumEffectiveByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (map[uuid.UUID]float64, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]float64), args.Error(1)
}

func (m *MockIssuanceRepository) ListReversals(ctx context.Context, tenantID, issuanceID uuid.UUID) ([]*models.IssuanceReversal, error) {
	args := m.Called(ctx, tenantID, issuanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IssuanceReversal), args.Error(1)
}

type IssuanceServiceTestSuite struct {
	suite.Suite
	issuanceRepo   *MockIssuanceRepository
	requirementSvc *MockRequirementService
	service        IssuanceService

	tenantID uuid.UUID
	orderID  uuid.UUID
	staffID  uuid.UUID
}

func (suite *IssuanceServiceTestSuite) SetupTest() {
	suite.issuanceRepo = &MockIssuanceRepository{}
	suite.requirementSvc = &MockRequirementService{}
	suite.service = NewIssuanceService(suite.issuanceRepo, suite.requirementSvc)
	suite.tenantID = uuid.New()
	suite.orderID = uuid.New()
	suite.staffID = uuid.New()
}

func (suite *IssuanceServiceTestSuite) TearDownTest() {
	suite.issuanceRepo.AssertExpectations(suite.T())
	suite.requirementSvc.AssertExpectations(suite.T())
}

func TestIssuanceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IssuanceServiceTestSuite))
}

func (suite *IssuanceServiceTestSuite) TestIssue_AllEntriesSucceed() {
	compA := uuid.New()
	compB := uuid.New()

	suite.issuanceRepo.On("Issue", mock.Anything, mock.Anything).Return(nil).Twice()
	suite.requirementSvc.On("Invalidate", mock.Anything, suite.tenantID, suite.orderID).Once()

	batch := &models.IssueBatch{Entries: []models.IssueEntry{
		{ComponentID: compA, Quantity: 3},
		{ComponentID: compB, Quantity: 1.5},
	}}

	result, err := suite.service.Issue(context.Background(), suite.tenantID, suite.orderID, suite.staffID, batch)

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result.Issued, 2)
	assert.Nil(suite.T(), result.Failed)

	// One timestamp for the whole batch.
	assert.Equal(suite.T(), result.Issued[0].IssuedAt, result.Issued[1].IssuedAt)
}

func (suite *IssuanceServiceTestSuite) TestIssue_StopsAtFirstFailure() {
	compA := uuid.New()
	compB := uuid.New()
	compC := uuid.New()

	suite.issuanceRepo.On("Issue", mock.Anything, mock.MatchedBy(func(i *models.StockIssuance) bool {
		return i.ComponentID == compA
	})).Return(nil).Once()
	suite.issuanceRepo.On("Issue", mock.Anything, mock.MatchedBy(func(i *models.StockIssuance) bool {
		return i.ComponentID == compB
	})).Return(repositories.ErrInsufficientStock).Once()
	// compC is never attempted.

	suite.requirementSvc.On("Invalidate", mock.Anything, suite.tenantID, suite.orderID).Once()

	batch := &models.IssueBatch{Entries: []models.IssueEntry{
		{ComponentID: compA, Quantity: 2},
		{ComponentID: compB, Quantity: 9},
		{ComponentID: compC, Quantity: 1},
	}}

	result, err := suite.service.Issue(context.Background(), suite.tenantID, suite.orderID, suite.staffID, batch)

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result.Issued, 1)
	assert.NotNil(suite.T(), result.Failed)
	assert.Equal(suite.T(), compB, result.Failed.ComponentID)
	assert.Contains(suite.T(), result.Message, "insufficient stock")
}

func (suite *IssuanceServiceTestSuite) TestIssue_RejectsNonPositiveQuantity() {
	batch := &models.IssueBatch{Entries: []models.IssueEntry{
		{ComponentID: uuid.New(), Quantity: 0},
	}}

	_, err := suite.service.Issue(context.Background(), suite.tenantID, suite.orderID, suite.staffID, batch)

	be, ok := common.AsBusinessError(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "INVALID_QUANTITY", be.Code)
}

func (suite *IssuanceServiceTestSuite) TestReverse_Success() {
	issuanceID := uuid.New()
	issuance := &models.StockIssuance{
		ID: issuanceID, OrderID: suite.orderID, ComponentID: uuid.New(), Quantity: 10, Reversed: 0,
	}

	suite.issuanceRepo.On("GetByID", mock.Anything, suite.tenantID, issuanceID).Return(issuance, nil).Once()
	suite.issuanceRepo.On("Reverse", mock.Anything, mock.MatchedBy(func(r *models.IssuanceReversal) bool {
		return r.IssuanceID == issuanceID && r.Quantity == 4 && r.StaffID == suite.staffID
	})).Return(nil).Once()
	suite.requirementSvc.On("Invalidate", mock.Anything, suite.tenantID, suite.orderID).Once()

	reversal, err := suite.service.Reverse(context.Background(), suite.tenantID, issuanceID, suite.staffID, 4, nil)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4.0, reversal.Quantity)
}

func (suite *IssuanceServiceTestSuite) TestReverse_ExceedsRemaining() {
	issuanceID := uuid.New()
	// 10 issued, 4 already reversed: only 6 remain.
	issuance := &models.StockIssuance{
		ID: issuanceID, OrderID: suite.orderID, ComponentID: uuid.New(), Quantity: 10, Reversed: 4,
	}

	suite.issuanceRepo.On("GetByID", mock.Anything, suite.tenantID, issuanceID).Return(issuance, nil).Once()
	suite.issuanceRepo.On("Reverse", mock.Anything, mock.Anything).Return(repositories.ErrReversalExceedsRemaining).Once()

	_, err := suite.service.Reverse(context.Background(), suite.tenantID, issuanceID, suite.staffID, 7, nil)

	be, ok := common.AsBusinessError(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "REVERSAL_EXCEEDS_REMAINING", be.Code)
	assert.Contains(suite.T(), be.Message, "6")
}

func (suite *IssuanceServiceTestSuite) TestGetView_Reconciliation() {
	userID := uuid.New()
	compA := uuid.New() // fully issued
	compB := uuid.New() // partially issued
	compAdhoc := uuid.New()

	view := &models.RequirementView{
		OrderID: suite.orderID,
		Components: []*models.ComponentRequirement{
			{ComponentID: compA, Code: "A", Required: 5},
			{ComponentID: compB, Code: "B", Required: 10},
		},
	}
	suite.requirementSvc.On("GetView", mock.Anything, suite.tenantID, suite.orderID, userID, (*bool)(nil)).Return(view, nil).Once()

	now := time.Now().UTC()
	notes := "evening picking"
	suite.issuanceRepo.On("ListByOrder", mock.Anything, suite.tenantID, suite.orderID).
		Return([]*models.StockIssuance{
			{ID: uuid.New(), ComponentID: compA, Quantity: 6, Reversed: 1, IssuedAt: now, StaffID: suite.staffID, Notes: &notes},
			{ID: uuid.New(), ComponentID: compB, Quantity: 4, Reversed: 0, IssuedAt: now, StaffID: suite.staffID, Notes: &notes},
			{ID: uuid.New(), ComponentID: compAdhoc, Quantity: 2, Reversed: 0, IssuedAt: now.Add(2 * time.Minute), StaffID: suite.staffID, Notes: nil},
		}, nil).Once()
	suite.issuanceRepo.On("SumEffectiveByOrder", mock.Anything, suite.tenantID, suite.orderID).
		Return(map[uuid.UUID]float64{compA: 5, compB: 4, compAdhoc: 2}, nil).Once()

	result, err := suite.service.GetView(context.Background(), suite.tenantID, suite.orderID, userID)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), result.FullyIssued)
	assert.Len(suite.T(), result.Components, 3)

	byComponent := make(map[uuid.UUID]*models.ComponentIssueState)
	for _, state := range result.Components {
		byComponent[state.ComponentID] = state
	}

	assert.Equal(suite.T(), models.IssuanceFullyIssued, byComponent[compA].Status)
	assert.Equal(suite.T(), 5.0, byComponent[compA].Issued)
	assert.Equal(suite.T(), 0.0, byComponent[compA].Remaining)

	assert.Equal(suite.T(), models.IssuancePartiallyIssued, byComponent[compB].Status)
	assert.Equal(suite.T(), 6.0, byComponent[compB].Remaining)

	// Ad-hoc component has no required baseline.
	assert.Equal(suite.T(), 0.0, byComponent[compAdhoc].Required)
	assert.Equal(suite.T(), models.IssuanceFullyIssued, byComponent[compAdhoc].Status)

	// Same staff+notes+minute collapses into one group; the ad-hoc row
	// lands in its own.
	assert.Len(suite.T(), result.Groups, 2)
	assert.Len(suite.T(), result.Groups[0].Issuances, 2)
}

func (suite *IssuanceServiceTestSuite) TestGetView_FullyIssuedWhenAllCovered() {
	userID := uuid.New()
	compA := uuid.New()

	view := &models.RequirementView{
		OrderID: suite.orderID,
		Components: []*models.ComponentRequirement{
			{ComponentID: compA, Code: "A", Required: 5},
		},
	}
	suite.requirementSvc.On("GetView", mock.Anything, suite.tenantID, suite.orderID, userID, (*bool)(nil)).Return(view, nil).Once()
	suite.issuanceRepo.On("ListByOrder", mock.Anything, suite.tenantID, suite.orderID).
		Return([]*models.StockIssuance{
			{ID: uuid.New(), ComponentID: compA, Quantity: 5, IssuedAt: time.Now(), StaffID: suite.staffID},
		}, nil).Once()
	suite.issuanceRepo.On("SumEffectiveByOrder", mock.Anything, suite.tenantID, suite.orderID).
		Return(map[uuid.UUID]float64{compA: 5}, nil).Once()

	result, err := suite.service.GetView(context.Background(), suite.tenantID, suite.orderID, userID)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), result.FullyIssued)
}
