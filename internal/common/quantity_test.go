package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"exact integer", 5, "5"},
		{"just under integer", 4.9995, "5"},
		{"just over integer", 5.0004, "5"},
		{"outside tolerance", 5.002, "5.00"},
		{"fractional", 2.5, "2.50"},
		{"zero", 0, "0"},
		{"float noise", 11.999999999999998, "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatQuantity(tt.in))
		})
	}
}
