package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// InventoryRepository covers the finished-goods stock pool, consumed when
// a reservation ships. Component stock moves through the issuance ledger.
type InventoryRepository interface {
	// GetFinishedGoods reports a product with no stock row as zero.
	GetFinishedGoods(ctx context.Context, tenantID, productID uuid.UUID) (float64, error)
	DeductFinishedGoods(ctx context.Context, tenantID, productID uuid.UUID, quantity float64) error
}

type inventoryRepo struct {
	db DB
}

func NewInventoryRepository(db DB) InventoryRepository {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) GetFinishedGoods(ctx context.Context, tenantID, productID uuid.UUID) (float64, error) {
	var qty float64
	query := `
		SELECT COALESCE(quantity, 0)
		FROM fg_stock
		WHERE tenant_id = $1 AND product_id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, productID).Scan(&qty)
	if err != nil {
		// No row means nothing ever stocked, which is a quantity of
		// zero, not a missing resource.
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return qty, nil
}

// DeductFinishedGoods is conditional on sufficient stock; the WHERE clause
// is the atomicity guarantee, there is no read-modify-write window.
func (r *inventoryRepo) DeductFinishedGoods(ctx context.Context, tenantID, productID uuid.UUID, quantity float64) error {
	query := `
		UPDATE fg_stock
		SET quantity = quantity - $1, last_updated = NOW()
		WHERE tenant_id = $2 AND product_id = $3 AND quantity >= $1
	`
	tag, err := r.db.Exec(ctx, query, quantity, tenantID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}
