package common

import (
	"fmt"
	"math"
)

// integerTolerance is the display threshold: quantities this close to a
// whole number render as integers. Display only; arithmetic always runs on
// the raw values.
const integerTolerance = 0.001

// FormatQuantity renders a quantity for display: integers within tolerance
// print without decimals, everything else to two places.
func FormatQuantity(q float64) string {
	rounded := math.Round(q)
	if math.Abs(q-rounded) < integerTolerance {
		return fmt.Sprintf("%.0f", rounded)
	}
	return fmt.Sprintf("%.2f", q)
}
