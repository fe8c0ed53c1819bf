package models

import (
	"time"

	"github.com/google/uuid"
)

// Issuance coverage states derived per (order, component) pair.
const (
	IssuanceNotIssued       = "not_issued"
	IssuancePartiallyIssued = "partially_issued"
	IssuanceFullyIssued     = "fully_issued"
)

// StockIssuance is an append-only ledger row: components taken from
// inventory against an order. Reversals never mutate it; Reversed is
// derived by summing the issuance's reversal events at read time.
type StockIssuance struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TenantID        uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	OrderID         uuid.UUID  `json:"order_id" db:"order_id"`
	ComponentID     uuid.UUID  `json:"component_id" db:"component_id"`
	Quantity        float64    `json:"quantity" db:"quantity"`
	Reversed        float64    `json:"reversed"`
	IssuedAt        time.Time  `json:"issued_at" db:"issued_at"`
	Notes           *string    `json:"notes" db:"notes"`
	StaffID         uuid.UUID  `json:"staff_id" db:"staff_id"`
	PurchaseOrderID *uuid.UUID `json:"purchase_order_id" db:"purchase_order_id"`
}

// Effective is the issued quantity net of reversals.
func (s *StockIssuance) Effective() float64 {
	return s.Quantity - s.Reversed
}

// IssuanceReversal is a separately auditable event that re-credits stock.
type IssuanceReversal struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	IssuanceID uuid.UUID `json:"issuance_id" db:"issuance_id"`
	Quantity   float64   `json:"quantity" db:"quantity"`
	Reason     *string   `json:"reason" db:"reason"`
	StaffID    uuid.UUID `json:"staff_id" db:"staff_id"`
	ReversedAt time.Time `json:"reversed_at" db:"reversed_at"`
}

// IssueEntry is one component's quantity inside an issue batch. Ad-hoc
// entries reference components outside the order's BOM and carry no
// "required" baseline.
type IssueEntry struct {
	ComponentID uuid.UUID `json:"component_id"`
	Quantity    float64   `json:"quantity"`
}

// IssueBatch is the issue request for one order.
type IssueBatch struct {
	Entries []IssueEntry `json:"entries"`
	Notes   *string      `json:"notes,omitempty"`
}

// IssueResult reports the per-entry outcome. The batch is not
// all-or-nothing: entries before a failure stay committed.
type IssueResult struct {
	Issued  []*StockIssuance `json:"issued"`
	Failed  *IssueEntry      `json:"failed,omitempty"`
	Message string           `json:"message,omitempty"`
}

// IssuanceGroup approximates one batch action for display: rows sharing
// staff, notes and minute. The key is synthetic, never stored, and
// collisions between unrelated same-minute issuances are tolerated.
type IssuanceGroup struct {
	Key       string           `json:"key"`
	StaffID   uuid.UUID        `json:"staff_id"`
	Notes     *string          `json:"notes"`
	IssuedAt  time.Time        `json:"issued_at"`
	Issuances []*StockIssuance `json:"issuances"`
}

// ComponentIssueState is the derived coverage of one component on one order.
type ComponentIssueState struct {
	ComponentID uuid.UUID `json:"component_id"`
	Required    float64   `json:"required"`
	Issued      float64   `json:"issued"`
	Remaining   float64   `json:"remaining"`
	Status      string    `json:"status"`
}

// OrderIssueView is the issuance picture for a whole order.
type OrderIssueView struct {
	OrderID     uuid.UUID              `json:"order_id"`
	FullyIssued bool                   `json:"fully_issued"`
	Components  []*ComponentIssueState `json:"components"`
	Groups      []*IssuanceGroup       `json:"groups"`
}
