package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"fabworks/internal/common"
	"fabworks/internal/models"
	"fabworks/internal/repositories"

	"github.com/google/uuid"
)

// allocationTolerance absorbs float64 noise when checking that an
// allocation split adds up to its order quantity.
const allocationTolerance = 1e-9

type SourcingService interface {
	// BuildGroups proposes supplier groups for every component of the
	// order that carries a real shortfall.
	BuildGroups(ctx context.Context, tenantID, orderID, userID uuid.UUID) (*models.SourcingView, error)
	// CreatePurchaseOrders turns the edited selection into one draft
	// purchase order per supplier. Each group is atomic; groups succeed
	// or fail independently.
	CreatePurchaseOrders(ctx context.Context, tenantID, orderID, userID uuid.UUID, selection *models.SourcingSelection) (*models.PurchaseOrderBatchResult, error)
}

type sourcingService struct {
	supplierRepo       repositories.SupplierRepository
	purchaseOrderRepo  repositories.PurchaseOrderRepository
	requirementService RequirementService
}

func NewSourcingService(supplierRepo repositories.SupplierRepository, purchaseOrderRepo repositories.PurchaseOrderRepository, requirementService RequirementService) SourcingService {
	return &sourcingService{
		supplierRepo:       supplierRepo,
		purchaseOrderRepo:  purchaseOrderRepo,
		requirementService: requirementService,
	}
}

func (s *sourcingService) BuildGroups(ctx context.Context, tenantID, orderID, userID uuid.UUID) (*models.SourcingView, error) {
	view, err := s.requirementService.GetView(ctx, tenantID, orderID, userID, nil)
	if err != nil {
		return nil, err
	}

	var shortfalls []*models.ComponentRequirement
	for _, req := range view.Components {
		if req.RealShortfall > 0 {
			shortfalls = append(shortfalls, req)
		}
	}

	result := &models.SourcingView{OrderID: orderID, Groups: []*models.SupplierGroup{}}
	if len(shortfalls) == 0 {
		return result, nil
	}

	componentIDs := make([]uuid.UUID, 0, len(shortfalls))
	for _, req := range shortfalls {
		componentIDs = append(componentIDs, req.ComponentID)
	}
	options, err := s.supplierRepo.GetOptionsByComponents(ctx, tenantID, componentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier options: %w", err)
	}

	// Options arrive sorted by price per component, so the first one per
	// component is the default selection.
	optionsByComponent := make(map[uuid.UUID][]*models.SupplierOption)
	for _, option := range options {
		optionsByComponent[option.ComponentID] = append(optionsByComponent[option.ComponentID], option)
	}

	groups := make(map[uuid.UUID]*models.SupplierGroup)
	var groupOrder []uuid.UUID
	for _, req := range shortfalls {
		component := &models.SourcingComponent{
			ComponentID:   req.ComponentID,
			Code:          req.Code,
			Description:   req.Description,
			Shortfall:     req.RealShortfall,
			OrderQuantity: req.RealShortfall,
			Allocation:    DefaultAllocation(req.RealShortfall, req.RealShortfall),
		}

		candidates := optionsByComponent[req.ComponentID]
		if len(candidates) == 0 {
			result.NoSupplier = append(result.NoSupplier, component)
			continue
		}
		component.Selected = candidates[0]
		component.Alternatives = candidates[1:]

		group, ok := groups[component.Selected.SupplierID]
		if !ok {
			group = &models.SupplierGroup{
				SupplierID:   component.Selected.SupplierID,
				SupplierName: component.Selected.SupplierName,
				ContactEmail: component.Selected.SupplierEmail,
			}
			groups[component.Selected.SupplierID] = group
			groupOrder = append(groupOrder, component.Selected.SupplierID)
		}
		group.Components = append(group.Components, component)
	}

	for _, supplierID := range groupOrder {
		result.Groups = append(result.Groups, groups[supplierID])
	}
	sort.SliceStable(result.Groups, func(i, j int) bool {
		if len(result.Groups[i].Components) != len(result.Groups[j].Components) {
			return len(result.Groups[i].Components) > len(result.Groups[j].Components)
		}
		return result.Groups[i].SupplierName < result.Groups[j].SupplierName
	})
	return result, nil
}

// DefaultAllocation splits an order quantity against a shortfall: cover
// the order first, anything beyond it goes to stock.
func DefaultAllocation(orderQuantity, shortfall float64) models.Allocation {
	forThisOrder := orderQuantity
	if shortfall < forThisOrder {
		forThisOrder = shortfall
	}
	forStock := orderQuantity - shortfall
	if forStock < 0 {
		forStock = 0
	}
	return models.Allocation{ForThisOrder: forThisOrder, ForStock: forStock}
}

func (s *sourcingService) CreatePurchaseOrders(ctx context.Context, tenantID, orderID, userID uuid.UUID, selection *models.SourcingSelection) (*models.PurchaseOrderBatchResult, error) {
	if len(selection.Components) == 0 {
		return nil, common.NewBusinessError("EMPTY_SELECTION", "no components selected for purchasing")
	}
	for _, line := range selection.Components {
		if line.OrderQuantity <= 0 {
			return nil, common.NewBusinessError("INVALID_QUANTITY",
				"order quantity for component %s must be positive", line.ComponentID.String())
		}
		if line.Allocation.ForThisOrder < 0 || line.Allocation.ForStock < 0 {
			return nil, common.NewBusinessError("INVALID_ALLOCATION", "allocation quantities must be non-negative")
		}
		if math.Abs(line.Allocation.ForThisOrder+line.Allocation.ForStock-line.OrderQuantity) > allocationTolerance {
			return nil, common.NewBusinessError("INVALID_ALLOCATION",
				"allocation for component %s does not add up to its order quantity", line.ComponentID.String())
		}
	}

	// Missing reference data is fatal for the whole request, not a
	// per-group failure.
	draft, err := s.purchaseOrderRepo.GetStatusByName(ctx, "draft")
	if err != nil {
		if err == repositories.ErrStatusNotFound {
			return nil, common.NewBusinessError("MISSING_STATUS", "purchase order status 'draft' is not configured")
		}
		return nil, fmt.Errorf("failed to get draft status: %w", err)
	}

	type groupLine struct {
		option *models.SupplierOption
		line   *models.SourcingSelectionLine
	}
	groups := make(map[uuid.UUID][]groupLine)
	groupNames := make(map[uuid.UUID]string)
	var groupOrder []uuid.UUID
	for _, line := range selection.Components {
		option, err := s.supplierRepo.GetOptionByID(ctx, tenantID, line.SupplierOptionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get supplier option %s: %w", line.SupplierOptionID.String(), err)
		}
		if option.ComponentID != line.ComponentID {
			return nil, common.NewBusinessError("OPTION_MISMATCH",
				"supplier option %s does not sell component %s", option.ID.String(), line.ComponentID.String())
		}
		if _, ok := groups[option.SupplierID]; !ok {
			groupOrder = append(groupOrder, option.SupplierID)
			groupNames[option.SupplierID] = option.SupplierName
		}
		groups[option.SupplierID] = append(groups[option.SupplierID], groupLine{option: option, line: line})
	}

	result := &models.PurchaseOrderBatchResult{}
	for _, supplierID := range groupOrder {
		members := groups[supplierID]
		po := &models.PurchaseOrder{
			ID:         uuid.New(),
			TenantID:   tenantID,
			SupplierID: supplierID,
			StatusID:   draft.ID,
			Notes:      selection.Notes,
		}
		lines := make([]*models.PurchaseOrderLine, 0, len(members))
		links := make([]*models.PurchaseOrderLink, 0, len(members))
		for _, member := range members {
			lines = append(lines, &models.PurchaseOrderLine{
				ID:                  uuid.New(),
				TenantID:            tenantID,
				PurchaseOrderID:     po.ID,
				ComponentID:         member.line.ComponentID,
				SupplierComponentID: member.option.SupplierComponentID,
				Quantity:            member.line.OrderQuantity,
				UnitPrice:           member.option.UnitPrice,
			})
			links = append(links, &models.PurchaseOrderLink{
				ID:              uuid.New(),
				TenantID:        tenantID,
				PurchaseOrderID: po.ID,
				OrderID:         orderID,
				ComponentID:     member.line.ComponentID,
				ForThisOrder:    member.line.Allocation.ForThisOrder,
				ForStock:        member.line.Allocation.ForStock,
			})
		}

		if err := s.purchaseOrderRepo.CreateWithLines(ctx, po, lines, links); err != nil {
			log.Printf("Failed to create purchase order for supplier %s: %v", supplierID.String(), err)
			result.Failed = append(result.Failed, &models.PurchaseOrderFailure{
				SupplierID:   supplierID,
				SupplierName: groupNames[supplierID],
				Message:      "purchase order could not be created",
			})
			continue
		}
		result.Created = append(result.Created, &models.PurchaseOrderCreation{
			PurchaseOrderID: po.ID,
			SupplierID:      supplierID,
			SupplierName:    groupNames[supplierID],
			LineCount:       len(lines),
		})
	}

	if len(result.Created) > 0 {
		// New on-order supply changes real shortfalls for this order.
		s.requirementService.Invalidate(ctx, tenantID, orderID)
	}
	return result, nil
}
