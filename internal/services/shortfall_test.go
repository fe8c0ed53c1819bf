package services

import (
	"testing"

	"fabworks/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		required     float64
		inStock      float64
		onOrder      float64
		wantApparent float64
		wantReal     float64
	}{
		{"fully stocked", 10, 15, 0, 0, 0},
		{"short with no supply inbound", 10, 4, 0, 6, 6},
		{"short but covered on order", 10, 4, 8, 6, 0},
		{"short and partially covered", 10, 4, 3, 6, 3},
		{"zero requirement", 0, 5, 5, 0, 0},
		{"nothing anywhere", 7, 0, 0, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apparent, real := Classify(tt.required, tt.inStock, tt.onOrder)
			assert.Equal(t, tt.wantApparent, apparent)
			assert.Equal(t, tt.wantReal, real)
			assert.LessOrEqual(t, real, apparent)
		})
	}
}

func TestApplyStatus(t *testing.T) {
	componentID := uuid.New()

	req := &models.ComponentRequirement{ComponentID: componentID, Required: 10}
	status := &models.ComponentStatus{
		ComponentID:      componentID,
		InStock:          4,
		OnOrder:          8,
		TotalRequired:    25,
		TotalRequiredRaw: 31,
		OrderCount:       3,
	}

	ApplyStatus(req, status, true)

	assert.Equal(t, 4.0, req.InStock)
	assert.Equal(t, 8.0, req.OnOrder)
	assert.Equal(t, 6.0, req.ApparentShortfall)
	assert.Equal(t, 0.0, req.RealShortfall)
	assert.True(t, req.CoveredOnOrder)

	assert.Equal(t, 25.0, req.TotalRequiredAllOrders)
	assert.Equal(t, 3, req.OrderCount)
	assert.Equal(t, 21.0, req.GlobalApparentShortfall)
	assert.Equal(t, 13.0, req.GlobalRealShortfall)

	// Global demand can only add to this order's demand.
	assert.GreaterOrEqual(t, req.GlobalRealShortfall, req.RealShortfall)
}

func TestApplyStatus_CoverageOffUsesRawTotal(t *testing.T) {
	componentID := uuid.New()

	// 10 ordered with 4 reserved and 2 per unit: the raw requirement is 20,
	// the coverage-adjusted one 12. With the toggle off the order sees 20,
	// so the global total must be aggregated raw as well.
	req := &models.ComponentRequirement{ComponentID: componentID, Required: 20}
	status := &models.ComponentStatus{
		ComponentID:      componentID,
		InStock:          0,
		OnOrder:          0,
		TotalRequired:    12,
		TotalRequiredRaw: 20,
		OrderCount:       1,
	}

	ApplyStatus(req, status, false)

	assert.Equal(t, 20.0, req.RealShortfall)
	assert.Equal(t, 20.0, req.TotalRequiredAllOrders)
	assert.Equal(t, 20.0, req.GlobalRealShortfall)
	assert.GreaterOrEqual(t, req.GlobalRealShortfall, req.RealShortfall)
	assert.GreaterOrEqual(t, req.GlobalApparentShortfall, req.ApparentShortfall)
}

func TestApplyStatus_NoStatus(t *testing.T) {
	req := &models.ComponentRequirement{ComponentID: uuid.New(), Required: 5}

	ApplyStatus(req, nil, true)

	assert.Equal(t, 5.0, req.ApparentShortfall)
	assert.Equal(t, 5.0, req.RealShortfall)
	assert.False(t, req.CoveredOnOrder)
}

func TestApplyStatus_PrecomputedGlobals(t *testing.T) {
	req := &models.ComponentRequirement{ComponentID: uuid.New(), Required: 5}
	status := &models.ComponentStatus{
		InStock:                 1,
		OnOrder:                 0,
		TotalRequired:           30,
		TotalRequiredRaw:        30,
		GlobalApparentShortfall: 29,
		GlobalRealShortfall:     20,
	}

	ApplyStatus(req, status, true)

	assert.Equal(t, 29.0, req.GlobalApparentShortfall)
	assert.Equal(t, 20.0, req.GlobalRealShortfall)
}
