package models

import (
	"github.com/google/uuid"
)

// BOMRow maps one product to one component with the per-unit quantity.
type BOMRow struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	ComponentID uuid.UUID `json:"component_id" db:"component_id"`
	QtyPerUnit  float64   `json:"qty_per_unit" db:"qty_per_unit"`

	// Denormalized component metadata carried by the BOM lookup so the
	// explosion does not need a second round trip.
	ComponentCode        string `json:"component_code" db:"component_code"`
	ComponentDescription string `json:"component_description" db:"component_description"`
}
