package repositories

import (
	"context"
	"errors"

	"fabworks/internal/models"

	"github.com/google/uuid"
)

var ErrReversalExceedsRemaining = errors.New("reversal quantity exceeds remaining effective quantity")

// IssuanceRepository owns the append-only issuance ledger. Issue and
// Reverse each run in their own transaction so a single ledger mutation and
// its stock counterpart land together or not at all.
type IssuanceRepository interface {
	// Issue deducts component stock and appends one ledger row atomically.
	// Returns ErrInsufficientStock when the deduction cannot be covered.
	Issue(ctx context.Context, issuance *models.StockIssuance) error
	// Reverse appends a reversal event against one issuance and re-credits
	// component stock in one transaction. The original ledger row is never
	// written; the remaining quantity is derived from the reversal events.
	Reverse(ctx context.Context, reversal *models.IssuanceReversal) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.StockIssuance, error)
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.StockIssuance, error)
	// SumEffectiveByOrder returns issued-minus-reversed per component.
	SumEffectiveByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (map[uuid.UUID]float64, error)
	ListReversals(ctx context.Context, tenantID, issuanceID uuid.UUID) ([]*models.IssuanceReversal, error)
}

type issuanceRepo struct {
	db DB
}

func NewIssuanceRepository(db DB) IssuanceRepository {
	return &issuanceRepo{db: db}
}

func (r *issuanceRepo) Issue(ctx context.Context, issuance *models.StockIssuance) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	deduct := `
		UPDATE component_stock
		SET quantity = quantity - $1, last_updated = NOW()
		WHERE tenant_id = $2 AND component_id = $3 AND quantity >= $1
	`
	tag, err := tx.Exec(ctx, deduct, issuance.Quantity, issuance.TenantID, issuance.ComponentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}

	insert := `
		INSERT INTO stock_issuances (id, tenant_id, order_id, component_id, quantity, issued_at, notes, staff_id, purchase_order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, insert, issuance.ID, issuance.TenantID, issuance.OrderID, issuance.ComponentID, issuance.Quantity, issuance.IssuedAt, issuance.Notes, issuance.StaffID, issuance.PurchaseOrderID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *issuanceRepo) Reverse(ctx context.Context, reversal *models.IssuanceReversal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock the issuance row so concurrent reversals of the same issuance
	// serialize; the row itself is read-only, the remaining quantity comes
	// from the reversal events.
	lock := `
		SELECT quantity
		FROM stock_issuances
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`
	var issued float64
	if err := tx.QueryRow(ctx, lock, reversal.TenantID, reversal.IssuanceID).Scan(&issued); err != nil {
		return err
	}

	reversedSum := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM issuance_reversals
		WHERE tenant_id = $1 AND issuance_id = $2
	`
	var reversed float64
	if err := tx.QueryRow(ctx, reversedSum, reversal.TenantID, reversal.IssuanceID).Scan(&reversed); err != nil {
		return err
	}
	if issued-reversed < reversal.Quantity {
		return ErrReversalExceedsRemaining
	}

	insert := `
		INSERT INTO issuance_reversals (id, tenant_id, issuance_id, quantity, reason, staff_id, reversed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, insert, reversal.ID, reversal.TenantID, reversal.IssuanceID, reversal.Quantity, reversal.Reason, reversal.StaffID, reversal.ReversedAt)
	if err != nil {
		return err
	}

	credit := `
		UPDATE component_stock
		SET quantity = quantity + $1, last_updated = NOW()
		WHERE tenant_id = $2 AND component_id = (
			SELECT component_id FROM stock_issuances WHERE tenant_id = $2 AND id = $3
		)
	`
	if _, err := tx.Exec(ctx, credit, reversal.Quantity, reversal.TenantID, reversal.IssuanceID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *issuanceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.StockIssuance, error) {
	issuance := &models.StockIssuance{}
	query := `
		SELECT s.id, s.tenant_id, s.order_id, s.component_id, s.quantity,
		       COALESCE((SELECT SUM(r.quantity) FROM issuance_reversals r WHERE r.tenant_id = s.tenant_id AND r.issuance_id = s.id), 0),
		       s.issued_at, s.notes, s.staff_id, s.purchase_order_id
		FROM stock_issuances s
		WHERE s.tenant_id = $1 AND s.id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&issuance.ID, &issuance.TenantID, &issuance.OrderID, &issuance.ComponentID, &issuance.Quantity, &issuance.Reversed, &issuance.IssuedAt, &issuance.Notes, &issuance.StaffID, &issuance.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	return issuance, nil
}

func (r *issuanceRepo) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.StockIssuance, error) {
	query := `
		SELECT s.id, s.tenant_id, s.order_id, s.component_id, s.quantity,
		       COALESCE((SELECT SUM(r.quantity) FROM issuance_reversals r WHERE r.tenant_id = s.tenant_id AND r.issuance_id = s.id), 0),
		       s.issued_at, s.notes, s.staff_id, s.purchase_order_id
		FROM stock_issuances s
		WHERE s.tenant_id = $1 AND s.order_id = $2
		ORDER BY s.issued_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issuances []*models.StockIssuance
	for rows.Next() {
		issuance := &models.StockIssuance{}
		if err := rows.Scan(&issuance.ID, &issuance.TenantID, &issuance.OrderID, &issuance.ComponentID, &issuance.Quantity, &issuance.Reversed, &issuance.IssuedAt, &issuance.Notes, &issuance.StaffID, &issuance.PurchaseOrderID); err != nil {
			return nil, err
		}
		issuances = append(issuances, issuance)
	}
	return issuances, rows.Err()
}

func (r *issuanceRepo) SumEffectiveByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (map[uuid.UUID]float64, error) {
	query := `
		SELECT s.component_id, SUM(s.quantity - COALESCE(r.reversed, 0))
		FROM stock_issuances s
		LEFT JOIN (
			SELECT tenant_id, issuance_id, SUM(quantity) AS reversed
			FROM issuance_reversals
			GROUP BY tenant_id, issuance_id
		) r ON r.tenant_id = s.tenant_id AND r.issuance_id = s.id
		WHERE s.tenant_id = $1 AND s.order_id = $2
		GROUP BY s.component_id
	`
	rows, err := r.db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issued := make(map[uuid.UUID]float64)
	for rows.Next() {
		var componentID uuid.UUID
		var qty float64
		if err := rows.Scan(&componentID, &qty); err != nil {
			return nil, err
		}
		issued[componentID] = qty
	}
	return issued, rows.Err()
}

func (r *issuanceRepo) ListReversals(ctx context.Context, tenantID, issuanceID uuid.UUID) ([]*models.IssuanceReversal, error) {
	query := `
		SELECT id, tenant_id, issuance_id, quantity, reason, staff_id, reversed_at
		FROM issuance_reversals
		WHERE tenant_id = $1 AND issuance_id = $2
		ORDER BY reversed_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, issuanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reversals []*models.IssuanceReversal
	for rows.Next() {
		reversal := &models.IssuanceReversal{}
		if err := rows.Scan(&reversal.ID, &reversal.TenantID, &reversal.IssuanceID, &reversal.Quantity, &reversal.Reason, &reversal.StaffID, &reversal.ReversedAt); err != nil {
			return nil, err
		}
		reversals = append(reversals, reversal)
	}
	return reversals, rows.Err()
}
