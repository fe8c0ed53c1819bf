package services

import (
	"context"
	"fmt"
	"log"

	"fabworks/internal/common"
	"fabworks/internal/models"
	"fabworks/internal/repositories"

	"github.com/google/uuid"
)

type ReservationService interface {
	Reserve(ctx context.Context, tenantID, orderID, productID uuid.UUID, quantity float64) (*models.FinishedGoodReservation, error)
	// Release returns a reserved quantity to the pool without touching
	// finished-goods stock.
	Release(ctx context.Context, tenantID, reservationID uuid.UUID) error
	// Consume marks the reservation consumed and deducts finished goods.
	Consume(ctx context.Context, tenantID, reservationID uuid.UUID) error
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.FinishedGoodReservation, error)
}

type reservationService struct {
	reservationRepo    repositories.ReservationRepository
	inventoryRepo      repositories.InventoryRepository
	orderRepo          repositories.OrderRepository
	requirementService RequirementService
}

func NewReservationService(reservationRepo repositories.ReservationRepository, inventoryRepo repositories.InventoryRepository, orderRepo repositories.OrderRepository, requirementService RequirementService) ReservationService {
	return &reservationService{
		reservationRepo:    reservationRepo,
		inventoryRepo:      inventoryRepo,
		orderRepo:          orderRepo,
		requirementService: requirementService,
	}
}

// Reserve checks the finished-goods pool against all active reservations
// before creating a new one. Over-reserving beyond physical stock is
// rejected; over-reserving beyond the order quantity is allowed, the
// coverage factor simply clamps at zero.
func (s *reservationService) Reserve(ctx context.Context, tenantID, orderID, productID uuid.UUID, quantity float64) (*models.FinishedGoodReservation, error) {
	if _, err := s.orderRepo.GetByID(ctx, tenantID, orderID); err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	available, err := s.inventoryRepo.GetFinishedGoods(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get finished goods stock: %w", err)
	}
	alreadyReserved, err := s.reservationRepo.SumActiveReservedByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum active reservations: %w", err)
	}
	if quantity > available-alreadyReserved {
		return nil, common.NewBusinessError("INSUFFICIENT_FINISHED_GOODS",
			"only %s finished units are unreserved", common.FormatQuantity(available-alreadyReserved))
	}

	reservation := &models.FinishedGoodReservation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		Status:    models.ReservationReserved,
	}
	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.requirementService.Invalidate(ctx, tenantID, orderID)
	return reservation, nil
}

func (s *reservationService) Release(ctx context.Context, tenantID, reservationID uuid.UUID) error {
	reservation, err := s.reservationRepo.GetByID(ctx, tenantID, reservationID)
	if err != nil {
		return fmt.Errorf("failed to get reservation: %w", err)
	}

	moved, err := s.reservationRepo.UpdateStatus(ctx, tenantID, reservationID, models.ReservationReserved, models.ReservationReleased)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	if !moved {
		return common.NewBusinessError("RESERVATION_NOT_ACTIVE", "reservation is not in reserved state")
	}

	s.requirementService.Invalidate(ctx, tenantID, reservation.OrderID)
	return nil
}

func (s *reservationService) Consume(ctx context.Context, tenantID, reservationID uuid.UUID) error {
	reservation, err := s.reservationRepo.GetByID(ctx, tenantID, reservationID)
	if err != nil {
		return fmt.Errorf("failed to get reservation: %w", err)
	}

	moved, err := s.reservationRepo.UpdateStatus(ctx, tenantID, reservationID, models.ReservationReserved, models.ReservationConsumed)
	if err != nil {
		return fmt.Errorf("failed to consume reservation: %w", err)
	}
	if !moved {
		return common.NewBusinessError("RESERVATION_NOT_ACTIVE", "reservation is not in reserved state")
	}

	if err := s.inventoryRepo.DeductFinishedGoods(ctx, tenantID, reservation.ProductID, reservation.Quantity); err != nil {
		// Put the reservation back so the two records stay consistent.
		if _, flipErr := s.reservationRepo.UpdateStatus(ctx, tenantID, reservationID, models.ReservationConsumed, models.ReservationReserved); flipErr != nil {
			log.Printf("Failed to restore reservation %s after stock deduction failure: %v", reservationID.String(), flipErr)
		}
		if err == repositories.ErrInsufficientStock {
			return common.NewBusinessError("INSUFFICIENT_FINISHED_GOODS", "finished goods stock no longer covers this reservation")
		}
		return fmt.Errorf("failed to deduct finished goods: %w", err)
	}

	s.requirementService.Invalidate(ctx, tenantID, reservation.OrderID)
	return nil
}

func (s *reservationService) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.FinishedGoodReservation, error) {
	return s.reservationRepo.ListByOrder(ctx, tenantID, orderID)
}
