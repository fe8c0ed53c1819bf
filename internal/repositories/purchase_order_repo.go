package repositories

import (
	"context"
	"errors"

	"fabworks/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrStatusNotFound = errors.New("purchase order status not found")

type PurchaseOrderRepository interface {
	GetStatusByName(ctx context.Context, name string) (*models.PurchaseOrderStatus, error)
	// CreateWithLines inserts the purchase order, all its lines and all its
	// customer-order link rows in one transaction.
	CreateWithLines(ctx context.Context, po *models.PurchaseOrder, lines []*models.PurchaseOrderLine, links []*models.PurchaseOrderLink) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error)
}

type purchaseOrderRepo struct {
	db DB
}

func NewPurchaseOrderRepository(db DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) GetStatusByName(ctx context.Context, name string) (*models.PurchaseOrderStatus, error) {
	status := &models.PurchaseOrderStatus{}
	query := `SELECT id, name FROM purchase_order_statuses WHERE name = $1`
	err := r.db.QueryRow(ctx, query, name).Scan(&status.ID, &status.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusNotFound
		}
		return nil, err
	}
	return status, nil
}

func (r *purchaseOrderRepo) CreateWithLines(ctx context.Context, po *models.PurchaseOrder, lines []*models.PurchaseOrderLine, links []*models.PurchaseOrderLink) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	insertPO := `
		INSERT INTO purchase_orders (id, tenant_id, supplier_id, status_id, notes, expected_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	if _, err := tx.Exec(ctx, insertPO, po.ID, po.TenantID, po.SupplierID, po.StatusID, po.Notes, po.ExpectedDate); err != nil {
		return err
	}

	insertLine := `
		INSERT INTO purchase_order_lines (id, tenant_id, purchase_order_id, component_id, supplier_component_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, line := range lines {
		if _, err := tx.Exec(ctx, insertLine, line.ID, line.TenantID, line.PurchaseOrderID, line.ComponentID, line.SupplierComponentID, line.Quantity, line.UnitPrice); err != nil {
			return err
		}
	}

	insertLink := `
		INSERT INTO purchase_order_links (id, tenant_id, purchase_order_id, order_id, component_id, for_this_order, for_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, link := range links {
		if _, err := tx.Exec(ctx, insertLink, link.ID, link.TenantID, link.PurchaseOrderID, link.OrderID, link.ComponentID, link.ForThisOrder, link.ForStock); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *purchaseOrderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PurchaseOrder, error) {
	po := &models.PurchaseOrder{}
	query := `
		SELECT id, tenant_id, supplier_id, status_id, notes, expected_date, created_at, updated_at
		FROM purchase_orders
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&po.ID, &po.TenantID, &po.SupplierID, &po.StatusID, &po.Notes, &po.ExpectedDate, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}

	linesQuery := `
		SELECT id, tenant_id, purchase_order_id, component_id, supplier_component_id, quantity, unit_price
		FROM purchase_order_lines
		WHERE tenant_id = $1 AND purchase_order_id = $2
	`
	rows, err := r.db.Query(ctx, linesQuery, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		line := &models.PurchaseOrderLine{}
		if err := rows.Scan(&line.ID, &line.TenantID, &line.PurchaseOrderID, &line.ComponentID, &line.SupplierComponentID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		po.Lines = append(po.Lines, line)
	}
	return po, rows.Err()
}
