package repositories

import (
	"context"

	"fabworks/internal/models"

	"github.com/google/uuid"
)

type OrderRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	GetLines(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.OrderLine, error)
	ListOpen(ctx context.Context, tenantID uuid.UUID) ([]*models.Order, error)
	// ListTenantsWithOpenOrders spans tenants; background jobs only.
	ListTenantsWithOpenOrders(ctx context.Context) ([]uuid.UUID, error)
}

type orderRepo struct {
	db DB
}

func NewOrderRepository(db DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, tenant_id, customer_id, status, delivery_date, total_amount, notes, created_at, updated_at
		FROM orders
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&order.ID, &order.TenantID, &order.CustomerID, &order.Status, &order.DeliveryDate, &order.TotalAmount, &order.Notes, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) GetLines(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.OrderLine, error) {
	query := `
		SELECT id, tenant_id, order_id, product_id, quantity, unit_price, created_at, updated_at
		FROM order_lines
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*models.OrderLine
	for rows.Next() {
		line := &models.OrderLine{}
		if err := rows.Scan(&line.ID, &line.TenantID, &line.OrderID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *orderRepo) ListOpen(ctx context.Context, tenantID uuid.UUID) ([]*models.Order, error) {
	query := `
		SELECT id, tenant_id, customer_id, status, delivery_date, total_amount, notes, created_at, updated_at
		FROM orders
		WHERE tenant_id = $1 AND status NOT IN ('delivered', 'cancelled')
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.TenantID, &order.CustomerID, &order.Status, &order.DeliveryDate, &order.TotalAmount, &order.Notes, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *orderRepo) ListTenantsWithOpenOrders(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT tenant_id
		FROM orders
		WHERE status NOT IN ('delivered', 'cancelled')
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []uuid.UUID
	for rows.Next() {
		var tenantID uuid.UUID
		if err := rows.Scan(&tenantID); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenantID)
	}
	return tenants, rows.Err()
}
