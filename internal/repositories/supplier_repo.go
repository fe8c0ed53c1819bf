package repositories

import (
	"context"

	"fabworks/internal/models"

	"github.com/google/uuid"
)

type SupplierRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Supplier, error)
	// GetOptionsByComponents returns every supplier option for the given
	// components, joined with supplier identity and contact email.
	GetOptionsByComponents(ctx context.Context, tenantID uuid.UUID, componentIDs []uuid.UUID) ([]*models.SupplierOption, error)
	GetOptionByID(ctx context.Context, tenantID, id uuid.UUID) (*models.SupplierOption, error)
}

type supplierRepo struct {
	db DB
}

func NewSupplierRepository(db DB) SupplierRepository {
	return &supplierRepo{db: db}
}

func (r *supplierRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	query := `
		SELECT id, tenant_id, name, contact_email, contact_phone, address, created_at, updated_at
		FROM suppliers
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&supplier.ID, &supplier.TenantID, &supplier.Name, &supplier.ContactEmail, &supplier.ContactPhone, &supplier.Address, &supplier.CreatedAt, &supplier.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (r *supplierRepo) GetOptionsByComponents(ctx context.Context, tenantID uuid.UUID, componentIDs []uuid.UUID) ([]*models.SupplierOption, error) {
	if len(componentIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT so.id, so.tenant_id, so.supplier_id, s.name, s.contact_email, so.component_id, so.supplier_component_id, so.unit_price
		FROM supplier_options so
		JOIN suppliers s ON s.tenant_id = so.tenant_id AND s.id = so.supplier_id
		WHERE so.tenant_id = $1 AND so.component_id = ANY($2)
		ORDER BY so.component_id, so.unit_price
	`
	rows, err := r.db.Query(ctx, query, tenantID, componentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []*models.SupplierOption
	for rows.Next() {
		option := &models.SupplierOption{}
		if err := rows.Scan(&option.ID, &option.TenantID, &option.SupplierID, &option.SupplierName, &option.SupplierEmail, &option.ComponentID, &option.SupplierComponentID, &option.UnitPrice); err != nil {
			return nil, err
		}
		options = append(options, option)
	}
	return options, rows.Err()
}

func (r *supplierRepo) GetOptionByID(ctx context.Context, tenantID, id uuid.UUID) (*models.SupplierOption, error) {
	option := &models.SupplierOption{}
	query := `
		SELECT so.id, so.tenant_id, so.supplier_id, s.name, s.contact_email, so.component_id, so.supplier_component_id, so.unit_price
		FROM supplier_options so
		JOIN suppliers s ON s.tenant_id = so.tenant_id AND s.id = so.supplier_id
		WHERE so.tenant_id = $1 AND so.id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&option.ID, &option.TenantID, &option.SupplierID, &option.SupplierName, &option.SupplierEmail, &option.ComponentID, &option.SupplierComponentID, &option.UnitPrice)
	if err != nil {
		return nil, err
	}
	return option, nil
}
