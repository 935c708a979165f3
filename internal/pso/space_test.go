package pso

import "testing"

func TestNewParameterSpaceRejectsInvalidBounds(t *testing.T) {
	cases := []struct {
		name string
		min  []float64
		max  []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []float64{0, 0}, []float64{1}},
		{"min equals max", []float64{0, 1}, []float64{1, 1}},
		{"min above max", []float64{2, 0}, []float64{1, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewParameterSpace(tc.min, tc.max); err == nil {
				t.Errorf("expected error for bounds %v / %v", tc.min, tc.max)
			}
		})
	}
}

func TestParameterSpaceClamp(t *testing.T) {
	space, err := NewParameterSpace([]float64{-1, 0}, []float64{1, 10})
	if err != nil {
		t.Fatalf("NewParameterSpace: %v", err)
	}

	if x, clamped := space.Clamp(0, 0.5); clamped || x != 0.5 {
		t.Errorf("in-bounds value moved: got %v (clamped %v)", x, clamped)
	}
	if x, clamped := space.Clamp(0, -3); !clamped || x != -1 {
		t.Errorf("below-min not clamped to -1: got %v (clamped %v)", x, clamped)
	}
	if x, clamped := space.Clamp(1, 11); !clamped || x != 10 {
		t.Errorf("above-max not clamped to 10: got %v (clamped %v)", x, clamped)
	}
}

func TestParameterSpaceIsCopied(t *testing.T) {
	min := []float64{-1}
	max := []float64{1}
	space, err := NewParameterSpace(min, max)
	if err != nil {
		t.Fatalf("NewParameterSpace: %v", err)
	}
	min[0] = 99
	if space.Min(0) != -1 {
		t.Errorf("space aliases caller slice: min = %v", space.Min(0))
	}
}
