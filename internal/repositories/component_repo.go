package repositories

import (
	"context"

	"fabworks/internal/models"

	"github.com/google/uuid"
)

// ComponentRepository serves component reference data and the raw stock
// picture the shortfall classifier consumes. Global shortfall figures are
// left zero here; the classifier derives them from the raw totals.
type ComponentRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Component, error)
	// GetStatuses returns, per component: stock on hand, open supplier-order
	// quantity, cross-order demand in both raw and coverage-adjusted form,
	// with per-order and per-purchase-order breakdowns.
	GetStatuses(ctx context.Context, tenantID uuid.UUID, componentIDs []uuid.UUID) (map[uuid.UUID]*models.ComponentStatus, error)
}

type componentRepo struct {
	db DB
}

func NewComponentRepository(db DB) ComponentRepository {
	return &componentRepo{db: db}
}

func (r *componentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Component, error) {
	component := &models.Component{}
	query := `
		SELECT id, tenant_id, code, description, created_at, updated_at
		FROM components
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&component.ID, &component.TenantID, &component.Code, &component.Description, &component.CreatedAt, &component.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return component, nil
}

func (r *componentRepo) GetStatuses(ctx context.Context, tenantID uuid.UUID, componentIDs []uuid.UUID) (map[uuid.UUID]*models.ComponentStatus, error) {
	if len(componentIDs) == 0 {
		return map[uuid.UUID]*models.ComponentStatus{}, nil
	}

	statuses := make(map[uuid.UUID]*models.ComponentStatus, len(componentIDs))
	for _, id := range componentIDs {
		statuses[id] = &models.ComponentStatus{ComponentID: id}
	}

	stockQuery := `
		SELECT c.id, COALESCE(s.quantity, 0)
		FROM components c
		LEFT JOIN component_stock s ON s.tenant_id = c.tenant_id AND s.component_id = c.id
		WHERE c.tenant_id = $1 AND c.id = ANY($2)
	`
	rows, err := r.db.Query(ctx, stockQuery, tenantID, componentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var qty float64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		if st, ok := statuses[id]; ok {
			st.InStock = qty
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Open supplier orders, per purchase order so the caller can show the
	// on-order breakdown.
	onOrderQuery := `
		SELECT pl.component_id, pl.purchase_order_id, pl.quantity, po.expected_date
		FROM purchase_order_lines pl
		JOIN purchase_orders po ON po.tenant_id = pl.tenant_id AND po.id = pl.purchase_order_id
		JOIN purchase_order_statuses ps ON ps.id = po.status_id
		WHERE pl.tenant_id = $1 AND pl.component_id = ANY($2) AND ps.name NOT IN ('received', 'cancelled')
	`
	rows, err = r.db.Query(ctx, onOrderQuery, tenantID, componentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var supply models.OnOrderSupply
		var componentID uuid.UUID
		if err := rows.Scan(&componentID, &supply.PurchaseOrderID, &supply.Quantity, &supply.ExpectedDate); err != nil {
			return nil, err
		}
		if st, ok := statuses[componentID]; ok {
			st.OnOrder += supply.Quantity
			st.OnOrderBreakdown = append(st.OnOrderBreakdown, supply)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Cross-order demand over every open order, summed twice: raw, and
	// scaled by the remaining (unreserved) fraction of each order line.
	// The classifier picks the total matching its coverage setting so the
	// global figures can never dip below the per-order ones.
	demandQuery := `
		SELECT b.component_id, o.id,
		       SUM(b.qty_per_unit * ol.quantity),
		       SUM(b.qty_per_unit * GREATEST(0, ol.quantity - COALESCE(res.reserved, 0)))
		FROM orders o
		JOIN order_lines ol ON ol.tenant_id = o.tenant_id AND ol.order_id = o.id
		JOIN bom_rows b ON b.tenant_id = o.tenant_id AND b.product_id = ol.product_id
		LEFT JOIN (
			SELECT tenant_id, order_id, product_id, SUM(quantity) AS reserved
			FROM fg_reservations
			WHERE status = 'reserved'
			GROUP BY tenant_id, order_id, product_id
		) res ON res.tenant_id = o.tenant_id AND res.order_id = o.id AND res.product_id = ol.product_id
		WHERE o.tenant_id = $1 AND b.component_id = ANY($2)
		  AND o.status NOT IN ('delivered', 'cancelled')
		GROUP BY b.component_id, o.id
	`
	rows, err = r.db.Query(ctx, demandQuery, tenantID, componentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var demand models.OrderDemand
		var componentID uuid.UUID
		if err := rows.Scan(&componentID, &demand.OrderID, &demand.RequiredRaw, &demand.Required); err != nil {
			return nil, err
		}
		if st, ok := statuses[componentID]; ok {
			st.TotalRequired += demand.Required
			st.TotalRequiredRaw += demand.RequiredRaw
			st.OrderCount++
			st.OrderBreakdown = append(st.OrderBreakdown, demand)
		}
	}
	return statuses, rows.Err()
}
