package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fabworks/internal/common"
	"fabworks/internal/models"
	"fabworks/internal/repositories"

	"github.com/google/uuid"
)

type IssuanceService interface {
	// Issue processes a batch entry by entry. The batch is not
	// all-or-nothing: on the first failing entry it stops, reports the
	// failure in the result and leaves earlier entries committed.
	Issue(ctx context.Context, tenantID, orderID, staffID uuid.UUID, batch *models.IssueBatch) (*models.IssueResult, error)
	// Reverse re-credits stock for part or all of one issuance and
	// records the reversal as its own event.
	Reverse(ctx context.Context, tenantID, issuanceID, staffID uuid.UUID, quantity float64, reason *string) (*models.IssuanceReversal, error)
	// GetView reconciles the ledger against the order's effective
	// requirements.
	GetView(ctx context.Context, tenantID, orderID, userID uuid.UUID) (*models.OrderIssueView, error)
	ListReversals(ctx context.Context, tenantID, issuanceID uuid.UUID) ([]*models.IssuanceReversal, error)
}

type issuanceService struct {
	issuanceRepo       repositories.IssuanceRepository
	requirementService RequirementService
}

func NewIssuanceService(issuanceRepo repositories.IssuanceRepository, requirementService RequirementService) IssuanceService {
	return &issuanceService{
		issuanceRepo:       issuanceRepo,
		requirementService: requirementService,
	}
}

func (s *issuanceService) Issue(ctx context.Context, tenantID, orderID, staffID uuid.UUID, batch *models.IssueBatch) (*models.IssueResult, error) {
	if len(batch.Entries) == 0 {
		return nil, common.NewBusinessError("EMPTY_BATCH", "no components to issue")
	}
	for _, entry := range batch.Entries {
		if entry.Quantity <= 0 {
			return nil, common.NewBusinessError("INVALID_QUANTITY",
				"issue quantity for component %s must be positive", entry.ComponentID.String())
		}
	}

	// One timestamp for the whole batch so display grouping keeps the
	// entries together.
	issuedAt := time.Now().UTC()

	result := &models.IssueResult{}
	for i := range batch.Entries {
		entry := batch.Entries[i]
		issuance := &models.StockIssuance{
			ID:          uuid.New(),
			TenantID:    tenantID,
			OrderID:     orderID,
			ComponentID: entry.ComponentID,
			Quantity:    entry.Quantity,
			IssuedAt:    issuedAt,
			Notes:       batch.Notes,
			StaffID:     staffID,
		}
		if err := s.issuanceRepo.Issue(ctx, issuance); err != nil {
			result.Failed = &entry
			if err == repositories.ErrInsufficientStock {
				result.Message = fmt.Sprintf("insufficient stock for component %s; earlier entries remain issued", entry.ComponentID.String())
			} else {
				result.Message = fmt.Sprintf("failed to issue component %s; earlier entries remain issued", entry.ComponentID.String())
			}
			break
		}
		result.Issued = append(result.Issued, issuance)
	}

	if len(result.Issued) > 0 {
		s.requirementService.Invalidate(ctx, tenantID, orderID)
	}
	return result, nil
}

func (s *issuanceService) Reverse(ctx context.Context, tenantID, issuanceID, staffID uuid.UUID, quantity float64, reason *string) (*models.IssuanceReversal, error) {
	if quantity <= 0 {
		return nil, common.NewBusinessError("INVALID_QUANTITY", "reversal quantity must be positive")
	}

	issuance, err := s.issuanceRepo.GetByID(ctx, tenantID, issuanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get issuance: %w", err)
	}

	reversal := &models.IssuanceReversal{
		ID:         uuid.New(),
		TenantID:   tenantID,
		IssuanceID: issuanceID,
		Quantity:   quantity,
		Reason:     reason,
		StaffID:    staffID,
		ReversedAt: time.Now().UTC(),
	}
	if err := s.issuanceRepo.Reverse(ctx, reversal); err != nil {
		if err == repositories.ErrReversalExceedsRemaining {
			return nil, common.NewBusinessError("REVERSAL_EXCEEDS_REMAINING",
				"only %s remains reversible on this issuance", common.FormatQuantity(issuance.Effective()))
		}
		return nil, fmt.Errorf("failed to reverse issuance: %w", err)
	}

	s.requirementService.Invalidate(ctx, tenantID, issuance.OrderID)
	return reversal, nil
}

func (s *issuanceService) GetView(ctx context.Context, tenantID, orderID, userID uuid.UUID) (*models.OrderIssueView, error) {
	// The required baseline is the coverage-adjusted requirement, so a
	// reservation that shrinks demand also shrinks what counts as fully
	// issued.
	requirementView, err := s.requirementService.GetView(ctx, tenantID, orderID, userID, nil)
	if err != nil {
		return nil, err
	}
	issuances, err := s.issuanceRepo.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issuances: %w", err)
	}
	issued, err := s.issuanceRepo.SumEffectiveByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum issued quantities: %w", err)
	}

	view := &models.OrderIssueView{OrderID: orderID}
	covered := make(map[uuid.UUID]bool)

	allCovered := true
	for _, req := range requirementView.Components {
		covered[req.ComponentID] = true
		state := &models.ComponentIssueState{
			ComponentID: req.ComponentID,
			Required:    req.Required,
			Issued:      issued[req.ComponentID],
		}
		state.Remaining = state.Required - state.Issued
		if state.Remaining < 0 {
			state.Remaining = 0
		}
		state.Status = issueStatus(state.Required, state.Issued)
		if state.Required > 0 && state.Status != models.IssuanceFullyIssued {
			allCovered = false
		}
		view.Components = append(view.Components, state)
	}

	// Ad-hoc issuances of components outside the BOM have no required
	// baseline. They never affect the fully-issued flag.
	var adhoc []uuid.UUID
	for componentID := range issued {
		if !covered[componentID] {
			adhoc = append(adhoc, componentID)
		}
	}
	sort.Slice(adhoc, func(i, j int) bool { return adhoc[i].String() < adhoc[j].String() })
	for _, componentID := range adhoc {
		view.Components = append(view.Components, &models.ComponentIssueState{
			ComponentID: componentID,
			Issued:      issued[componentID],
			Status:      issueStatus(0, issued[componentID]),
		})
	}

	view.FullyIssued = allCovered && len(requirementView.Components) > 0
	view.Groups = groupIssuances(issuances)
	return view, nil
}

func (s *issuanceService) ListReversals(ctx context.Context, tenantID, issuanceID uuid.UUID) ([]*models.IssuanceReversal, error) {
	return s.issuanceRepo.ListReversals(ctx, tenantID, issuanceID)
}

func issueStatus(required, issued float64) string {
	switch {
	case issued <= 0:
		return models.IssuanceNotIssued
	case required > 0 && issued < required:
		return models.IssuancePartiallyIssued
	default:
		return models.IssuanceFullyIssued
	}
}

// groupIssuances buckets ledger rows by staff, notes and minute to
// approximate one batch action. Collisions between unrelated same-minute
// issuances are tolerated.
func groupIssuances(issuances []*models.StockIssuance) []*models.IssuanceGroup {
	groups := make(map[string]*models.IssuanceGroup)
	var order []string
	for _, issuance := range issuances {
		notes := ""
		if issuance.Notes != nil {
			notes = *issuance.Notes
		}
		key := fmt.Sprintf("%s|%s|%s", issuance.StaffID.String(), notes, issuance.IssuedAt.Truncate(time.Minute).Format(time.RFC3339))
		group, ok := groups[key]
		if !ok {
			group = &models.IssuanceGroup{
				Key:      key,
				StaffID:  issuance.StaffID,
				Notes:    issuance.Notes,
				IssuedAt: issuance.IssuedAt.Truncate(time.Minute),
			}
			groups[key] = group
			order = append(order, key)
		}
		group.Issuances = append(group.Issuances, issuance)
	}

	result := make([]*models.IssuanceGroup, 0, len(order))
	for _, key := range order {
		result = append(result, groups[key])
	}
	return result
}
