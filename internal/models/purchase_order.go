package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrder struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	SupplierID uuid.UUID `json:"supplier_id" db:"supplier_id"`
	StatusID   uuid.UUID `json:"status_id" db:"status_id"`
	Notes      *string   `json:"notes" db:"notes"`

	ExpectedDate *time.Time `json:"expected_date" db:"expected_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	Lines []*PurchaseOrderLine `json:"lines,omitempty"`
}

type PurchaseOrderLine struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	TenantID            uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	PurchaseOrderID     uuid.UUID       `json:"purchase_order_id" db:"purchase_order_id"`
	ComponentID         uuid.UUID       `json:"component_id" db:"component_id"`
	SupplierComponentID string          `json:"supplier_component_id" db:"supplier_component_id"`
	Quantity            float64         `json:"quantity" db:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// PurchaseOrderLink ties a purchase order back to the customer order that
// triggered it, carrying the final allocation split.
type PurchaseOrderLink struct {
	ID              uuid.UUID `json:"id" db:"id"`
	TenantID        uuid.UUID `json:"tenant_id" db:"tenant_id"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id" db:"purchase_order_id"`
	OrderID         uuid.UUID `json:"order_id" db:"order_id"`
	ComponentID     uuid.UUID `json:"component_id" db:"component_id"`
	ForThisOrder    float64   `json:"for_this_order" db:"for_this_order"`
	ForStock        float64   `json:"for_stock" db:"for_stock"`
}

// PurchaseOrderCreation reports one supplier group turned into a
// purchase order.
type PurchaseOrderCreation struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	SupplierID      uuid.UUID `json:"supplier_id"`
	SupplierName    string    `json:"supplier_name"`
	LineCount       int       `json:"line_count"`
}

// PurchaseOrderFailure reports one supplier group that could not be
// created. Other groups in the same request are unaffected.
type PurchaseOrderFailure struct {
	SupplierID   uuid.UUID `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	Message      string    `json:"message"`
}

// PurchaseOrderBatchResult is the per-group outcome of one creation
// request: each supplier group is atomic, groups are independent.
type PurchaseOrderBatchResult struct {
	Created []*PurchaseOrderCreation `json:"created"`
	Failed  []*PurchaseOrderFailure  `json:"failed,omitempty"`
}

// PurchaseOrderStatus is reference data ("draft", "sent", "received").
// Purchase orders cannot be created when the draft row is missing.
type PurchaseOrderStatus struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}
