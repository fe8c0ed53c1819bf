package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fabworks/internal/caching"
	"fabworks/internal/models"
	"fabworks/internal/repositories"

	"github.com/google/uuid"
)

const requirementViewTTL = 5 * time.Minute

type RequirementService interface {
	// GetView returns the full derived requirement view for one order.
	// applyOverride, when non-nil, wins over the stored user preference.
	GetView(ctx context.Context, tenantID, orderID, userID uuid.UUID, applyOverride *bool) (*models.RequirementView, error)
	// ComponentStatus returns the cross-order picture for one component.
	ComponentStatus(ctx context.Context, tenantID, componentID uuid.UUID) (*models.ComponentStatus, error)
	// Invalidate bumps the order's generation and drops cached views.
	// Every stock or reservation mutation must call it.
	Invalidate(ctx context.Context, tenantID, orderID uuid.UUID)
	SetCoveragePreference(ctx context.Context, tenantID, userID uuid.UUID, apply bool) error
}

type requirementService struct {
	orderRepo       repositories.OrderRepository
	bomRepo         repositories.BOMRepository
	componentRepo   repositories.ComponentRepository
	reservationRepo repositories.ReservationRepository
	cacheService    caching.CacheService
}

func NewRequirementService(orderRepo repositories.OrderRepository, bomRepo repositories.BOMRepository, componentRepo repositories.ComponentRepository, reservationRepo repositories.ReservationRepository, cacheService caching.CacheService) RequirementService {
	return &requirementService{
		orderRepo:       orderRepo,
		bomRepo:         bomRepo,
		componentRepo:   componentRepo,
		reservationRepo: reservationRepo,
		cacheService:    cacheService,
	}
}

func (s *requirementService) GetView(ctx context.Context, tenantID, orderID, userID uuid.UUID, applyOverride *bool) (*models.RequirementView, error) {
	applyCoverage := s.resolveCoverage(ctx, tenantID, userID, applyOverride)

	generation, err := s.cacheService.GetOrderGeneration(ctx, tenantID, orderID)
	if err != nil {
		log.Printf("Failed to read generation for order %s: %v", orderID.String(), err)
		generation = -1 // unknown: treat any cached view as stale
	}

	if generation >= 0 {
		view, cachedGen, cacheErr := s.cacheService.GetRequirementView(ctx, tenantID, orderID, applyCoverage)
		if cacheErr != nil {
			log.Printf("Cache error for order %s requirements: %v", orderID.String(), cacheErr)
		} else if view != nil && cachedGen == generation {
			return view, nil
		}
	}

	view, err := s.compute(ctx, tenantID, orderID, applyCoverage)
	if err != nil {
		return nil, err
	}

	if generation >= 0 {
		if cacheErr := s.cacheService.SetRequirementView(ctx, tenantID, orderID, applyCoverage, view, generation, requirementViewTTL); cacheErr != nil {
			log.Printf("Failed to cache requirements for order %s: %v", orderID.String(), cacheErr)
		}
	}
	return view, nil
}

// compute rebuilds the derived view: explode, scale by coverage, classify.
func (s *requirementService) compute(ctx context.Context, tenantID, orderID uuid.UUID, applyCoverage bool) (*models.RequirementView, error) {
	if _, err := s.orderRepo.GetByID(ctx, tenantID, orderID); err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	// Order lines and reservations are independent lookups; fetch them
	// together and join before the coverage step needs both.
	var (
		wg       sync.WaitGroup
		lines    []*models.OrderLine
		reserved map[uuid.UUID]float64
		lineErr  error
		resErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		lines, lineErr = s.orderRepo.GetLines(ctx, tenantID, orderID)
	}()
	go func() {
		defer wg.Done()
		reserved, resErr = s.reservationRepo.SumReservedByOrder(ctx, tenantID, orderID)
	}()
	wg.Wait()
	if lineErr != nil {
		return nil, fmt.Errorf("failed to get order lines: %w", lineErr)
	}
	if resErr != nil {
		return nil, fmt.Errorf("failed to get reservations: %w", resErr)
	}

	view := &models.RequirementView{OrderID: orderID, AppliedCoverage: applyCoverage}
	if len(lines) == 0 {
		return view, nil
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			productIDs = append(productIDs, line.ProductID)
		}
	}

	bomRows, err := s.bomRepo.GetByProductIDs(ctx, tenantID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get BOM rows: %w", err)
	}

	coverage := ComputeCoverage(lines, reserved)
	byProduct, components := Explode(lines, bomRows, coverage, applyCoverage)
	view.ByProduct = byProduct
	view.Components = components

	if len(components) == 0 {
		return view, nil
	}

	componentIDs := make([]uuid.UUID, 0, len(components))
	for _, req := range components {
		componentIDs = append(componentIDs, req.ComponentID)
	}
	statuses, err := s.componentRepo.GetStatuses(ctx, tenantID, componentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get component statuses: %w", err)
	}

	for _, req := range components {
		req.OrderID = orderID
		ApplyStatus(req, statuses[req.ComponentID], applyCoverage)
	}
	return view, nil
}

func (s *requirementService) ComponentStatus(ctx context.Context, tenantID, componentID uuid.UUID) (*models.ComponentStatus, error) {
	statuses, err := s.componentRepo.GetStatuses(ctx, tenantID, []uuid.UUID{componentID})
	if err != nil {
		return nil, fmt.Errorf("failed to get component status: %w", err)
	}
	status := statuses[componentID]
	if status != nil && status.GlobalApparentShortfall == 0 && status.GlobalRealShortfall == 0 {
		status.GlobalApparentShortfall, status.GlobalRealShortfall = Classify(status.TotalRequired, status.InStock, status.OnOrder)
	}
	return status, nil
}

func (s *requirementService) Invalidate(ctx context.Context, tenantID, orderID uuid.UUID) {
	if _, err := s.cacheService.BumpOrderGeneration(ctx, tenantID, orderID); err != nil {
		log.Printf("Failed to bump generation for order %s: %v", orderID.String(), err)
	}
	if err := s.cacheService.DeleteRequirementViews(ctx, tenantID, orderID); err != nil {
		log.Printf("Failed to invalidate requirement views for order %s: %v", orderID.String(), err)
	}
}

func (s *requirementService) SetCoveragePreference(ctx context.Context, tenantID, userID uuid.UUID, apply bool) error {
	return s.cacheService.SetCoveragePreference(ctx, tenantID, userID, apply, 30*24*time.Hour)
}

func (s *requirementService) resolveCoverage(ctx context.Context, tenantID, userID uuid.UUID, applyOverride *bool) bool {
	if applyOverride != nil {
		return *applyOverride
	}
	apply, found, err := s.cacheService.GetCoveragePreference(ctx, tenantID, userID)
	if err != nil {
		log.Printf("Failed to read coverage preference for user %s: %v", userID.String(), err)
	}
	if !found {
		return true // coverage on by default
	}
	return apply
}
