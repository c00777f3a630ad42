package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if diff := math.Abs(got[i] - want[i]); diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireBounded32 fails t if any sample of block is non-finite or its
// magnitude exceeds limit.
func RequireBounded32(t *testing.T, block [][]float32, limit float64) {
	t.Helper()

	for ch, buf := range block {
		for i, v := range buf {
			x := float64(v)
			if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > limit {
				t.Fatalf("channel %d index %d: %v exceeds ±%v", ch, i, x, limit)
			}
		}
	}
}

// MaxStep returns the largest absolute difference between consecutive
// samples, continuing from prev. It returns the step and the last sample.
func MaxStep(prev float64, data []float32) (float64, float64) {
	var step float64

	for _, v := range data {
		x := float64(v)
		step = math.Max(step, math.Abs(x-prev))
		prev = x
	}

	return step, prev
}
