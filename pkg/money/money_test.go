package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMul(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		want      string
	}{
		{"electricity units", "100", "8", "800"},
		{"fractional rate", "37", "7.35", "271.95"},
		{"rounds half up", "1", "0.005", "0.01"},
		{"zero quantity", "0", "1200", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mul(decimal.RequireFromString(tt.quantity), decimal.RequireFromString(tt.unitPrice))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	got := Sum(FromInt(12000), FromInt(800), decimal.RequireFromString("0.10"), decimal.RequireFromString("0.20"))
	assert.Equal(t, "12800.3", got.String())
}

func TestSigns(t *testing.T) {
	assert.True(t, IsNegative(FromInt(-1)))
	assert.False(t, IsNegative(Zero))
	assert.True(t, IsPositive(FromInt(1)))
	assert.False(t, IsPositive(Zero))
}
