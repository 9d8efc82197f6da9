package compare

import (
	"math"
	"testing"
)

func TestPriceComparator(t *testing.T) {
	tests := []struct {
		name        string
		original    float64
		current     float64
		threshold   float64
		wantChanged bool
		wantRatio   float64
	}{
		{
			name:        "20 percent increase above threshold",
			original:    100000,
			current:     120000,
			threshold:   0.05,
			wantChanged: true,
			wantRatio:   0.2,
		},
		{
			name:        "decrease also flags",
			original:    100000,
			current:     90000,
			threshold:   0.05,
			wantChanged: true,
			wantRatio:   0.1,
		},
		{
			name:        "small drift below threshold",
			original:    100,
			current:     103,
			threshold:   0.05,
			wantChanged: false,
			wantRatio:   0.03,
		},
		{
			name:        "identical price",
			original:    100,
			current:     100,
			threshold:   0.05,
			wantChanged: false,
			wantRatio:   0,
		},
		{
			name:        "ratio exactly at threshold does not flag",
			original:    100,
			current:     105,
			threshold:   0.05,
			wantChanged: false,
			wantRatio:   0.05,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := PriceComparator{Threshold: tt.threshold}
			changed, ratio := c.Compare(tt.original, tt.current)
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if math.Abs(ratio-tt.wantRatio) > 1e-9 {
				t.Errorf("ratio = %v, want %v", ratio, tt.wantRatio)
			}
		})
	}
}

func TestPriceComparator_InvalidInput(t *testing.T) {
	c := PriceComparator{Threshold: 0.05}
	cases := []struct {
		name     string
		original float64
		current  float64
	}{
		{"zero original", 0, 100},
		{"zero current", 100, 0},
		{"negative original", -5, 100},
		{"negative current", 100, -5},
		{"both zero", 0, 0},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			changed, ratio := c.Compare(tt.original, tt.current)
			if changed || ratio != 0 {
				t.Errorf("Compare(%v, %v) = (%v, %v), want (false, 0)",
					tt.original, tt.current, changed, ratio)
			}
		})
	}
}
