package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPctChange(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		previous string
		want     *float64
	}{
		{"both zero", "0", "0", nil},
		{"from zero", "25", "0", ptr(100)},
		{"growth", "150", "100", ptr(50)},
		{"decline", "75", "100", ptr(-25)},
		{"negative previous", "10", "-20", ptr(150)},
		{"rounded", "1", "3", ptr(-66.67)},
		{"to zero", "0", "40", ptr(-100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PctChange(decimal.RequireFromString(tt.current), decimal.RequireFromString(tt.previous))
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.0001)
		})
	}
}

func ptr(v float64) *float64 { return &v }
