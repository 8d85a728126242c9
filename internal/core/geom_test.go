package core

import (
	"math"
	"testing"
)

func TestPointDist(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
	}{
		{"same point", Pt(1, 1), Pt(1, 1), 0},
		{"horizontal", Pt(0, 0), Pt(5, 0), 5},
		{"vertical", Pt(0, -2), Pt(0, 2), 4},
		{"3-4-5 triangle", Pt(0, 0), Pt(3, 4), 5},
		{"negative quadrant", Pt(-1, -1), Pt(-4, -5), 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Dist(tc.b); got != tc.expected {
				t.Errorf("Dist() = %v, expected %v", got, tc.expected)
			}
			// Also test symmetry
			if got := tc.b.Dist(tc.a); got != tc.expected {
				t.Errorf("Dist() (reversed) = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestPointToward(t *testing.T) {
	p := Pt(0, 0)
	target := Pt(3, 4)

	got := p.Toward(target, 1, p.Dist(target))
	if math.Abs(got.X-0.6) > 1e-12 || math.Abs(got.Y-0.8) > 1e-12 {
		t.Errorf("Toward() = %v, expected (0.6, 0.8)", got)
	}
	if l := got.Sub(p).Len(); math.Abs(l-1) > 1e-12 {
		t.Errorf("displacement length = %v, expected 1", l)
	}
}

func TestPointArithmetic(t *testing.T) {
	a, b := Pt(1, 2), Pt(3, -1)

	if got := a.Add(b); got != Pt(4, 1) {
		t.Errorf("Add() = %v", got)
	}
	if got := a.Sub(b); got != Pt(-2, 3) {
		t.Errorf("Sub() = %v", got)
	}
	if got := a.Scale(2); got != Pt(2, 4) {
		t.Errorf("Scale() = %v", got)
	}
}

func TestPointString(t *testing.T) {
	if got := Pt(1, -2.5).String(); got != "(1.000, -2.500)" {
		t.Errorf("String() = %q", got)
	}
	// Truncated to three digits
	if got := Pt(1.23456, 0).String(); got != "(1.235, 0.000)" {
		t.Errorf("String() = %q", got)
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(5, 10, 20, 15)

	if r.Right() != 25 {
		t.Errorf("Right() = %d, expected 25", r.Right())
	}
	if r.Bottom() != 25 {
		t.Errorf("Bottom() = %d, expected 25", r.Bottom())
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, expected int
	}{
		{5, 0, 10, 5},   // within range
		{-5, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tc := range tests {
		result := Clamp(tc.val, tc.min, tc.max)
		if result != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.min, tc.max, result, tc.expected)
		}
	}
}

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	for i := 0; i < 100; i++ {
		x, y := a.Uniform(-10, 10), b.Uniform(-10, 10)
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
		if x < -10 || x > 10 {
			t.Fatalf("Uniform() = %v out of range", x)
		}
		d := a.IntN(4)
		if d != b.IntN(4) {
			t.Fatalf("IntN draw %d differs", i)
		}
		if d < 0 || d >= 4 {
			t.Fatalf("IntN(4) = %d out of range", d)
		}
	}
}
