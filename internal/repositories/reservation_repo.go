package repositories

import (
	"context"

	"fabworks/internal/models"

	"github.com/google/uuid"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.FinishedGoodReservation) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.FinishedGoodReservation, error)
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.FinishedGoodReservation, error)
	// SumReservedByOrder returns active reserved quantity per product.
	SumReservedByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (map[uuid.UUID]float64, error)
	// SumActiveReservedByProduct returns reserved quantity for one product
	// across all orders, for availability checks against the FG pool.
	SumActiveReservedByProduct(ctx context.Context, tenantID, productID uuid.UUID) (float64, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to string) (bool, error)
}

type reservationRepo struct {
	db DB
}

func NewReservationRepository(db DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, reservation *models.FinishedGoodReservation) error {
	query := `
		INSERT INTO fg_reservations (id, tenant_id, order_id, product_id, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, reservation.ID, reservation.TenantID, reservation.OrderID, reservation.ProductID, reservation.Quantity, reservation.Status)
	return err
}

func (r *reservationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.FinishedGoodReservation, error) {
	reservation := &models.FinishedGoodReservation{}
	query := `
		SELECT id, tenant_id, order_id, product_id, quantity, status, created_at, updated_at
		FROM fg_reservations
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&reservation.ID, &reservation.TenantID, &reservation.OrderID, &reservation.ProductID, &reservation.Quantity, &reservation.Status, &reservation.CreatedAt, &reservation.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *reservationRepo) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.FinishedGoodReservation, error) {
	query := `
		SELECT id, tenant_id, order_id, product_id, quantity, status, created_at, updated_at
		FROM fg_reservations
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*models.FinishedGoodReservation
	for rows.Next() {
		reservation := &models.FinishedGoodReservation{}
		if err := rows.Scan(&reservation.ID, &reservation.TenantID, &reservation.OrderID, &reservation.ProductID, &reservation.Quantity, &reservation.Status, &reservation.CreatedAt, &reservation.UpdatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

func (r *reservationRepo) SumReservedByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (map[uuid.UUID]float64, error) {
	query := `
		SELECT product_id, SUM(quantity)
		FROM fg_reservations
		WHERE tenant_id = $1 AND order_id = $2 AND status = 'reserved'
		GROUP BY product_id
	`
	rows, err := r.db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reserved := make(map[uuid.UUID]float64)
	for rows.Next() {
		var productID uuid.UUID
		var qty float64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		reserved[productID] = qty
	}
	return reserved, rows.Err()
}

func (r *reservationRepo) SumActiveReservedByProduct(ctx context.Context, tenantID, productID uuid.UUID) (float64, error) {
	var qty float64
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM fg_reservations
		WHERE tenant_id = $1 AND product_id = $2 AND status = 'reserved'
	`
	err := r.db.QueryRow(ctx, query, tenantID, productID).Scan(&qty)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// UpdateStatus transitions a reservation only when it is still in the
// expected state; returns false when another caller got there first.
func (r *reservationRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to string) (bool, error) {
	query := `
		UPDATE fg_reservations
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, to, tenantID, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
