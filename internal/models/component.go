package models

import (
	"time"

	"github.com/google/uuid"
)

// Component is immutable reference data describing a purchasable part.
type Component struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// OrderDemand is one open order's share of a component's total demand.
// Required is scaled by finished-goods coverage; RequiredRaw is not.
type OrderDemand struct {
	OrderID     uuid.UUID `json:"order_id"`
	Required    float64   `json:"required"`
	RequiredRaw float64   `json:"required_raw"`
}

// OnOrderSupply is one open supplier order expected to deliver a component.
type OnOrderSupply struct {
	PurchaseOrderID uuid.UUID  `json:"purchase_order_id"`
	Quantity        float64    `json:"quantity"`
	ExpectedDate    *time.Time `json:"expected_date,omitempty"`
}

// ComponentStatus is the raw stock picture for one component as returned by
// the component-status lookup. Global figures may be zero when the query
// skips the cross-order aggregation; callers fall back to recomputing them.
type ComponentStatus struct {
	ComponentID uuid.UUID `json:"component_id"`
	InStock     float64   `json:"in_stock"`
	OnOrder     float64   `json:"on_order"`

	// TotalRequired is coverage-adjusted; TotalRequiredRaw ignores
	// finished-goods reservations. Callers aggregate under the same
	// coverage setting as their per-order figures.
	TotalRequired    float64 `json:"total_required"`
	TotalRequiredRaw float64 `json:"total_required_raw"`

	OrderCount              int             `json:"order_count"`
	GlobalApparentShortfall float64         `json:"global_apparent_shortfall"`
	GlobalRealShortfall     float64         `json:"global_real_shortfall"`
	OrderBreakdown          []OrderDemand   `json:"order_breakdown,omitempty"`
	OnOrderBreakdown        []OnOrderSupply `json:"on_order_breakdown,omitempty"`
}
