package services

import (
	"context"
	"errors"
	"testing"

	"fabworks/internal/common"
	"fabworks/internal/models"
	"fabworks/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) GetFinishedGoods(ctx context.Context, tenantID, productID uuid.UUID) (float64, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockInventoryRepository) DeductFinishedGoods(ctx context.Context, tenantID, productID uuid.UUID, quantity float64) error {
	args := m.Called(ctx, tenantID, productID, quantity)
	return args.Error(0)
}

type MockRequirementService struct {
	mock.Mock
}

func (m *MockRequirementService) GetView(ctx context.Context, tenantID, orderID, userID uuid.UUID, applyOverride *bool) (*models.RequirementView, error) {
	args := m.Called(ctx, tenantID, orderID, userID, applyOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RequirementView), args.Error(1)
}

func (m *MockRequirementService) ComponentStatus(ctx context.Context, tenantID, componentID uuid.UUID) (*models.ComponentStatus, error) {
	args := m.Called(ctx, tenantID, componentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ComponentStatus), args.Error(1)
}

func (m *MockRequirementService) Invalidate(ctx context.Context, tenantID, orderID uuid.UUID) {
	m.Called(ctx, tenantID, orderID)
}

func (m *MockRequirementService) SetCoveragePreference(ctx context.Context, tenantID, userID uuid.UUID, apply bool) error {
	args := m.Called(ctx, tenantID, userID, apply)
	return args.Error(0)
}

type ReservationServiceTestSuite struct {
	suite.Suite
	reservationRepo *MockReservationRepository
	inventoryRepo   *MockInventoryRepository
	orderRepo       *MockOrderRepository
	requirementSvc  *MockRequirementService
	service         ReservationService

	tenantID  uuid.UUID
	orderID   uuid.UUID
	productID uuid.UUID
}

func (suite *ReservationServiceTestSuite) SetupTest() {
	suite.reservationRepo = &MockReservationRepository{}
	suite.inventoryRepo = &MockInventoryRepository{}
	suite.orderRepo = &MockOrderRepository{}
	suite.requirementSvc = &MockRequirementService{}
	suite.service = NewReservationService(suite.reservationRepo, suite.inventoryRepo, suite.orderRepo, suite.requirementSvc)
	suite.tenantID = uuid.New()
	suite.orderID = uuid.New()
	suite.productID = uuid.New()
}

func (suite *ReservationServiceTestSuite) TearDownTest() {
	suite.reservationRepo.AssertExpectations(suite.T())
	suite.inventoryRepo.AssertExpectations(suite.T())
	suite.orderRepo.AssertExpectations(suite.T())
	suite.requirementSvc.AssertExpectations(suite.T())
}

func TestReservationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReservationServiceTestSuite))
}

func (suite *ReservationServiceTestSuite) TestReserve_Success() {
	suite.orderRepo.On("GetByID", mock.Anything, suite.tenantID, suite.orderID).Return(&models.Order{ID: suite.orderID}, nil).Once()
	suite.inventoryRepo.On("GetFinishedGoods", mock.Anything, suite.tenantID, suite.productID).Return(10.0, nil).Once()
	suite.reservationRepo.On("SumActiveReservedByProduct", mock.Anything, suite.tenantID, suite.productID).Return(3.0, nil).Once()
	suite.reservationRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *models.FinishedGoodReservation) bool {
		return r.Quantity == 5 && r.Status == models.ReservationReserved && r.OrderID == suite.orderID
	})).Return(nil).Once()
	suite.requirementSvc.On("Invalidate", mock.Anything, suite.tenantID, suite.orderID).Once()

	reservation, err := suite.service.Reserve(context.Background(), suite.tenantID, suite.orderID, suite.productID, 5)

	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, reservation.ID)
}

func (suite *ReservationServiceTestSuite) TestReserve_RejectsBeyondUnreservedPool() {
	suite.orderRepo.On("GetByID", mock.Anything, suite.tenantID, suite.orderID).Return(&models.Order{ID: suite.orderID}, nil).Once()
	suite.inventoryRepo.On("GetFinishedGoods", mock.Anything, suite.tenantID, suite.productID).Return(10.0, nil).Once()
	suite.reservationRepo.On("SumActiveReservedByProduct", mock.Anything, suite.tenantID, suite.productID).Return(8.0, nil).Once()

	_, err := suite.service.Reserve(context.Background(), suite.tenantID, suite.orderID, suite.productID, 5)

	be, ok := common.AsBusinessError(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "INSUFFICIENT_FINISHED_GOODS", be.Code)
}

func (suite *ReservationServiceTestSuite) TestRelease_Success() {
	reservationID := uuid.New()
	suite.reservationRepo.On("GetByID", mock.Anything, suite.tenantID, reservationID).
		Return(&models.FinishedGoodReservation{ID: reservationID, OrderID: suite.orderID}, nil).Once()
	suite.reservationRepo.On("UpdateStatus", mock.Anything, suite.tenantID, reservationID, models.ReservationReserved, models.ReservationReleased).
		Return(true, nil).Once()
	suite.requirementSvc.On("Invalidate", mock.Anything, suite.tenantID, suite.orderID).Once()

	err := suite.service.Release(context.Background(), suite.tenantID, reservationID)

	assert.NoError(suite.T(), err)
}

func (suite *ReservationServiceTestSuite) TestRelease_AlreadyTerminal() {
	reservationID := uuid.New()
	suite.reservationRepo.On("GetByID", mock.Anything, suite.tenantID, reservationID).
		Return(&models.FinishedGoodReservation{ID: reservationID, OrderID: suite.orderID}, nil).Once()
	suite.reservationRepo.On("UpdateStatus", mock.Anything, suite.tenantID, reservationID, models.ReservationReserved, models.ReservationReleased).
		Return(false, nil).Once()

	err := suite.service.Release(context.Background(), suite.tenantID, reservationID)

	be, ok := common.AsBusinessError(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "RESERVATION_NOT_ACTIVE", be.Code)
}

func (suite *ReservationServiceTestSuite) TestConsume_Success() {
	reservationID := uuid.New()
	reservation := &models.FinishedGoodReservation{
		ID: reservationID, OrderID: suite.orderID, ProductID: suite.productID, Quantity: 4,
	}
	suite.reservationRepo.On("GetByID", mock.Anything, suite.tenantID, reservationID).Return(reservation, nil).Once()
	suite.reservationRepo.On("UpdateStatus", mock.Anything, suite.tenantID, reservationID, models.ReservationReserved, models.ReservationConsumed).
		Return(true, nil).Once()
	suite.inventoryRepo.On("DeductFinishedGoods", mock.Anything, suite.tenantID, suite.productID, 4.0).Return(nil).Once()
	suite.requirementSvc.On("Invalidate", mock.Anything, suite.tenantID, suite.orderID).Once()

	err := suite.service.Consume(context.Background(), suite.tenantID, reservationID)

	assert.NoError(suite.T(), err)
}

func (suite *ReservationServiceTestSuite) TestConsume_StockGoneRestoresReservation() {
	reservationID := uuid.New()
	reservation := &models.FinishedGoodReservation{
		ID: reservationID, OrderID: suite.orderID, ProductID: suite.productID, Quantity: 4,
	}
	suite.reservationRepo.On("GetByID", mock.Anything, suite.tenantID, reservationID).Return(reservation, nil).Once()
	suite.reservationRepo.On("UpdateStatus", mock.Anything, suite.tenantID, reservationID, models.ReservationReserved, models.ReservationConsumed).
		Return(true, nil).Once()
	suite.inventoryRepo.On("DeductFinishedGoods", mock.Anything, suite.tenantID, suite.productID, 4.0).
		Return(repositories.ErrInsufficientStock).Once()
	// Compensating flip back to reserved.
	suite.reservationRepo.On("UpdateStatus", mock.Anything, suite.tenantID, reservationID, models.ReservationConsumed, models.ReservationReserved).
		Return(true, nil).Once()

	err := suite.service.Consume(context.Background(), suite.tenantID, reservationID)

	be, ok := common.AsBusinessError(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "INSUFFICIENT_FINISHED_GOODS", be.Code)
}

func (suite *ReservationServiceTestSuite) TestConsume_TransportErrorIsNotBusiness() {
	reservationID := uuid.New()
	reservation := &models.FinishedGoodReservation{
		ID: reservationID, OrderID: suite.orderID, ProductID: suite.productID, Quantity: 4,
	}
	suite.reservationRepo.On("GetByID", mock.Anything, suite.tenantID, reservationID).Return(reservation, nil).Once()
	suite.reservationRepo.On("UpdateStatus", mock.Anything, suite.tenantID, reservationID, models.ReservationReserved, models.ReservationConsumed).
		Return(true, nil).Once()
	suite.inventoryRepo.On("DeductFinishedGoods", mock.Anything, suite.tenantID, suite.productID, 4.0).
		Return(errors.New("connection reset")).Once()
	suite.reservationRepo.On("UpdateStatus", mock.Anything, suite.tenantID, reservationID, models.ReservationConsumed, models.ReservationReserved).
		Return(true, nil).Once()

	err := suite.service.Consume(context.Background(), suite.tenantID, reservationID)

	assert.Error(suite.T(), err)
	_, ok := common.AsBusinessError(err)
	assert.False(suite.T(), ok)
}
