package models

import (
	"github.com/google/uuid"
)

// CoverageFactor is derived per order line: the fraction of the ordered
// quantity still needing component explosion after finished-goods
// reservations are taken into account.
type CoverageFactor struct {
	ProductID uuid.UUID `json:"product_id"`
	Ordered   float64   `json:"ordered"`
	Reserved  float64   `json:"reserved"`
	Remain    float64   `json:"remain"`
	Factor    float64   `json:"factor"`
}

// ComponentRequirement is the derived, never-persisted requirement row for
// one component within one order, plus the cross-order global picture.
type ComponentRequirement struct {
	OrderID     uuid.UUID `json:"order_id"`
	ComponentID uuid.UUID `json:"component_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`

	Required          float64 `json:"required"`
	InStock           float64 `json:"in_stock"`
	OnOrder           float64 `json:"on_order"`
	ApparentShortfall float64 `json:"apparent_shortfall"`
	RealShortfall     float64 `json:"real_shortfall"`

	// Apparently short but already covered by open supplier orders; no
	// purchasing action needed.
	CoveredOnOrder bool `json:"covered_on_order"`

	TotalRequiredAllOrders  float64 `json:"total_required_all_orders"`
	OrderCount              int     `json:"order_count"`
	GlobalApparentShortfall float64 `json:"global_apparent_shortfall"`
	GlobalRealShortfall     float64 `json:"global_real_shortfall"`
}

// ProductRequirement keeps the per-product breakdown for display; the
// flattened per-component list is what issuance consumes.
type ProductRequirement struct {
	ProductID   uuid.UUID `json:"product_id"`
	ComponentID uuid.UUID `json:"component_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	QtyPerUnit  float64   `json:"qty_per_unit"`
	LineQty     float64   `json:"line_qty"`
	Required    float64   `json:"required"`
}

// RequirementView is the full derived view for one order.
type RequirementView struct {
	OrderID         uuid.UUID               `json:"order_id"`
	AppliedCoverage bool                    `json:"applied_coverage"`
	ByProduct       []*ProductRequirement   `json:"by_product"`
	Components      []*ComponentRequirement `json:"components"`
}
