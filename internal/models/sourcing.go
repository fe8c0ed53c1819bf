package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierOption is one supplier's offer for one component.
type SupplierOption struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	TenantID            uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	SupplierID          uuid.UUID       `json:"supplier_id" db:"supplier_id"`
	SupplierName        string          `json:"supplier_name" db:"supplier_name"`
	SupplierEmail       *string         `json:"supplier_email" db:"supplier_email"`
	ComponentID         uuid.UUID       `json:"component_id" db:"component_id"`
	SupplierComponentID string          `json:"supplier_component_id" db:"supplier_component_id"`
	UnitPrice           decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Allocation splits a purchased quantity between the triggering order and
// general stock. Both halves are non-negative; they only move on explicit
// caller action.
type Allocation struct {
	ForThisOrder float64 `json:"for_this_order"`
	ForStock     float64 `json:"for_stock"`
}

// SourcingComponent is one shortfall component inside a supplier group:
// the selected (cheapest by default) option, every alternative, and the
// editable order quantity with its allocation split.
type SourcingComponent struct {
	ComponentID   uuid.UUID         `json:"component_id"`
	Code          string            `json:"code"`
	Description   string            `json:"description"`
	Shortfall     float64           `json:"shortfall"`
	OrderQuantity float64           `json:"order_quantity"`
	Allocation    Allocation        `json:"allocation"`
	Selected      *SupplierOption   `json:"selected"`
	Alternatives  []*SupplierOption `json:"alternatives"`
}

// SupplierGroup collects the shortfall components whose selected option
// belongs to one supplier.
type SupplierGroup struct {
	SupplierID   uuid.UUID            `json:"supplier_id"`
	SupplierName string               `json:"supplier_name"`
	ContactEmail *string              `json:"contact_email"`
	Components   []*SourcingComponent `json:"components"`
}

// SourcingView is the full sourcing proposal for one order. Components
// with a real shortfall but no supplier option at all are listed under
// NoSupplier; they cannot join any group.
type SourcingView struct {
	OrderID    uuid.UUID            `json:"order_id"`
	Groups     []*SupplierGroup     `json:"groups"`
	NoSupplier []*SourcingComponent `json:"no_supplier,omitempty"`
}

// SourcingSelection is the caller-edited form posted back to create
// purchase orders: which options were kept and the final quantities.
type SourcingSelection struct {
	Notes      *string                  `json:"notes,omitempty"`
	Components []*SourcingSelectionLine `json:"components"`
}

type SourcingSelectionLine struct {
	ComponentID      uuid.UUID  `json:"component_id"`
	SupplierOptionID uuid.UUID  `json:"supplier_option_id"`
	OrderQuantity    float64    `json:"order_quantity"`
	Allocation       Allocation `json:"allocation"`
}
