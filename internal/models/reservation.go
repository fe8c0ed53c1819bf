package models

import (
	"time"

	"github.com/google/uuid"
)

// Reservation statuses. Consumed and released are terminal and mutually
// exclusive transitions from reserved.
const (
	ReservationReserved = "reserved"
	ReservationConsumed = "consumed"
	ReservationReleased = "released"
)

// FinishedGoodReservation sets finished units of a product aside against an
// order line, shrinking the quantity still needing component explosion.
type FinishedGoodReservation struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
