package interp

import (
	"math"
	"testing"
)

// TestLinear_InsideAndOutside tests interpolation inside the range and NaN outside
func TestLinear_InsideAndOutside(t *testing.T) {
	l, err := NewLinear([]float64{10, 0, 20}, []float64{5, 0, 25})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		x        float64
		expected float64
	}{
		{0, 0},
		{5, 2.5},
		{10, 5},
		{15, 15},
		{20, 25},
	}
	for _, tt := range tests {
		if got := l.At(tt.x); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("At(%v): expected %v, got %v", tt.x, tt.expected, got)
		}
	}

	for _, x := range []float64{-0.1, 20.1, math.NaN()} {
		if got := l.At(x); !math.IsNaN(got) {
			t.Errorf("At(%v): expected NaN, got %v", x, got)
		}
	}
}

// TestLinear_SingleSample tests that a lone sample only answers at its own coordinate
func TestLinear_SingleSample(t *testing.T) {
	l, err := NewLinear([]float64{3}, []float64{7})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := l.At(3); got != 7 {
		t.Errorf("At(3): expected 7, got %v", got)
	}
	if got := l.At(3.5); !math.IsNaN(got) {
		t.Errorf("At(3.5): expected NaN, got %v", got)
	}
}

func TestLinear_Errors(t *testing.T) {
	if _, err := NewLinear(nil, nil); err == nil {
		t.Error("expected error for empty samples")
	}
	if _, err := NewLinear([]float64{1, 1}, []float64{2, 3}); err == nil {
		t.Error("expected error for duplicate samples")
	}
	if _, err := NewLinear([]float64{1}, []float64{2, 3}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestBracket(t *testing.T) {
	xs := []float64{0, 10, 20, 50}
	tests := []struct {
		x     float64
		i     int
		w     float64
		valid bool
	}{
		{0, 0, 0, true},
		{5, 0, 0.5, true},
		{10, 1, 0, true},
		{35, 2, 0.5, true},
		{50, 3, 0, true},
		{-1, 0, 0, false},
		{51, 0, 0, false},
	}
	for _, tt := range tests {
		i, w, ok := Bracket(xs, tt.x)
		if ok != tt.valid || (ok && (i != tt.i || math.Abs(w-tt.w) > 1e-12)) {
			t.Errorf("Bracket(%v) = (%d, %v, %v), want (%d, %v, %v)", tt.x, i, w, ok, tt.i, tt.w, tt.valid)
		}
	}
}

func TestBlend_IgnoresZeroWeightNaN(t *testing.T) {
	if got := Blend(4, math.NaN(), 0); got != 4 {
		t.Errorf("Blend(4, NaN, 0) = %v, want 4", got)
	}
	if got := Blend(4, 8, 0.25); got != 5 {
		t.Errorf("Blend(4, 8, 0.25) = %v, want 5", got)
	}
	if got := Blend(4, math.NaN(), 0.5); !math.IsNaN(got) {
		t.Errorf("Blend(4, NaN, 0.5) = %v, want NaN", got)
	}
}
