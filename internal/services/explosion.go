package services

import (
	"sort"

	"fabworks/internal/models"

	"github.com/google/uuid"
)

// ComputeCoverage derives the finished-goods coverage factor for every
// order line: remain = max(0, ordered - reserved), factor = remain/ordered.
// Lines of the same product share one factor keyed by product.
func ComputeCoverage(lines []*models.OrderLine, reserved map[uuid.UUID]float64) map[uuid.UUID]*models.CoverageFactor {
	ordered := make(map[uuid.UUID]float64, len(lines))
	for _, line := range lines {
		ordered[line.ProductID] += line.Quantity
	}

	factors := make(map[uuid.UUID]*models.CoverageFactor, len(ordered))
	for productID, qty := range ordered {
		remain := qty - reserved[productID]
		if remain < 0 {
			remain = 0
		}
		factor := 1.0
		if qty > 0 {
			factor = remain / qty
		}
		factors[productID] = &models.CoverageFactor{
			ProductID: productID,
			Ordered:   qty,
			Reserved:  reserved[productID],
			Remain:    remain,
			Factor:    factor,
		}
	}
	return factors
}

// Explode multiplies every BOM row by its order-line quantity, optionally
// scaled by the line's coverage factor. It returns the per-product
// breakdown for display and the flattened per-component aggregation used
// for issuance and shortfall classification. Pure: identical inputs yield
// identical outputs.
func Explode(lines []*models.OrderLine, bomRows []*models.BOMRow, coverage map[uuid.UUID]*models.CoverageFactor, applyCoverage bool) ([]*models.ProductRequirement, []*models.ComponentRequirement) {
	bomByProduct := make(map[uuid.UUID][]*models.BOMRow)
	for _, row := range bomRows {
		bomByProduct[row.ProductID] = append(bomByProduct[row.ProductID], row)
	}

	var byProduct []*models.ProductRequirement
	flat := make(map[uuid.UUID]*models.ComponentRequirement)
	var order []uuid.UUID

	for _, line := range lines {
		factor := 1.0
		if applyCoverage {
			if cf, ok := coverage[line.ProductID]; ok {
				factor = cf.Factor
			}
		}
		for _, row := range bomByProduct[line.ProductID] {
			required := row.QtyPerUnit * line.Quantity * factor
			byProduct = append(byProduct, &models.ProductRequirement{
				ProductID:   line.ProductID,
				ComponentID: row.ComponentID,
				Code:        row.ComponentCode,
				Description: row.ComponentDescription,
				QtyPerUnit:  row.QtyPerUnit,
				LineQty:     line.Quantity,
				Required:    required,
			})

			req, ok := flat[row.ComponentID]
			if !ok {
				req = &models.ComponentRequirement{
					ComponentID: row.ComponentID,
					Code:        row.ComponentCode,
					Description: row.ComponentDescription,
				}
				flat[row.ComponentID] = req
				order = append(order, row.ComponentID)
			}
			req.Required += required
		}
	}

	components := make([]*models.ComponentRequirement, 0, len(order))
	for _, id := range order {
		components = append(components, flat[id])
	}
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].Code < components[j].Code
	})
	return byProduct, components
}
