package services

import (
	"fabworks/internal/models"
)

// Classify computes both shortfall figures from one requirement total.
// Apparent ignores incoming supply; real is the actionable purchasing gap.
// The same function serves the per-order and the global aggregation so the
// formula lives in exactly one place.
func Classify(required, inStock, onOrder float64) (apparent, real float64) {
	apparent = required - inStock
	if apparent < 0 {
		apparent = 0
	}
	real = required - inStock - onOrder
	if real < 0 {
		real = 0
	}
	return apparent, real
}

// ApplyStatus merges a component's raw stock picture into its requirement
// row: per-order shortfalls from the effective requirement, global
// shortfalls from the cross-order total. The global total is taken under
// the same coverage setting as the per-order requirement; mixing the two
// could report a global shortfall below the order's own. When the status
// source did not precompute the global figures they are derived here with
// the same formula.
func ApplyStatus(req *models.ComponentRequirement, status *models.ComponentStatus, applyCoverage bool) {
	if status == nil {
		req.ApparentShortfall, req.RealShortfall = Classify(req.Required, 0, 0)
		return
	}

	req.InStock = status.InStock
	req.OnOrder = status.OnOrder
	req.ApparentShortfall, req.RealShortfall = Classify(req.Required, status.InStock, status.OnOrder)
	req.CoveredOnOrder = req.ApparentShortfall > 0 && req.RealShortfall == 0

	total := status.TotalRequired
	if !applyCoverage {
		total = status.TotalRequiredRaw
	}
	req.TotalRequiredAllOrders = total
	req.OrderCount = status.OrderCount

	if status.GlobalApparentShortfall == 0 && status.GlobalRealShortfall == 0 {
		req.GlobalApparentShortfall, req.GlobalRealShortfall = Classify(total, status.InStock, status.OnOrder)
	} else {
		req.GlobalApparentShortfall = status.GlobalApparentShortfall
		req.GlobalRealShortfall = status.GlobalRealShortfall
	}
}
