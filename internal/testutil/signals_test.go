package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}

	if math.Abs(s[0]) > 1e-15 || math.Abs(s[12]-1) > 1e-12 {
		t.Fatalf("s[0] = %v, s[12] = %v", s[0], s[12])
	}
}

func TestDeterministicNoiseReproducible(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 100)
	b := DeterministicNoise(42, 1.0, 100)
	RequireSliceNearlyEqual(t, a, b, 0)
}

func TestImpulseAndDC(t *testing.T) {
	imp := Impulse(4, 2)
	RequireSliceNearlyEqual(t, imp, []float64{0, 0, 1, 0}, 0)

	if got := Impulse(3, 5); got[0] != 0 || got[2] != 0 {
		t.Fatalf("out of range impulse = %v", got)
	}

	RequireSliceNearlyEqual(t, DC(0.5, 3), []float64{0.5, 0.5, 0.5}, 0)
}

func TestSplit32(t *testing.T) {
	block := Stereo32([]float64{1, 2, 3, 4, 5}, []float64{6, 7, 8, 9, 10})
	parts := Split32(block, 2)

	if len(parts) != 3 || len(parts[2][0]) != 1 || parts[2][1][0] != 10 {
		t.Fatalf("unexpected split %v", parts)
	}

	parts[0][0][0] = -1
	if block[0][0] != -1 {
		t.Fatal("Split32 must return views")
	}
}

func TestMaxStep(t *testing.T) {
	step, last := MaxStep(0, []float32{0.1, 0.3, 0.25})
	if math.Abs(step-0.2) > 1e-6 || math.Abs(last-0.25) > 1e-6 {
		t.Fatalf("MaxStep = %v, %v", step, last)
	}
}
