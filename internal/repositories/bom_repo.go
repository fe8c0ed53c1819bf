package repositories

import (
	"context"

	"fabworks/internal/models"

	"github.com/google/uuid"
)

type BOMRepository interface {
	GetByProductIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) ([]*models.BOMRow, error)
}

type bomRepo struct {
	db DB
}

func NewBOMRepository(db DB) BOMRepository {
	return &bomRepo{db: db}
}

func (r *bomRepo) GetByProductIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) ([]*models.BOMRow, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT b.id, b.tenant_id, b.product_id, b.component_id, b.qty_per_unit, c.code, c.description
		FROM bom_rows b
		JOIN components c ON c.tenant_id = b.tenant_id AND c.id = b.component_id
		WHERE b.tenant_id = $1 AND b.product_id = ANY($2)
		ORDER BY c.code
	`
	rows, err := r.db.Query(ctx, query, tenantID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bomRows []*models.BOMRow
	for rows.Next() {
		row := &models.BOMRow{}
		if err := rows.Scan(&row.ID, &row.TenantID, &row.ProductID, &row.ComponentID, &row.QtyPerUnit, &row.ComponentCode, &row.ComponentDescription); err != nil {
			return nil, err
		}
		bomRows = append(bomRows, row)
	}
	return bomRows, rows.Err()
}
