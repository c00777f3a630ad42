package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(10, 0, 4); got != 4 {
		t.Fatalf("ClampInt(10, 0, 4) = %d, want 4", got)
	}

	if got := ClampInt(-3, 4, 0); got != 0 {
		t.Fatalf("ClampInt(-3, 4, 0) = %d, want 0", got)
	}
}

func TestDBConversions(t *testing.T) {
	db := LinearToDB(DBToLinear(-6))
	if !NearlyEqual(db, -6, 1e-10) {
		t.Fatalf("LinearToDB(DBToLinear(-6)) = %v, want -6", db)
	}

	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}

	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("expected NaN for negative amplitude")
	}

	p := DBPowerToLinear(3)
	if !NearlyEqual(p, 2.0, 0.01) {
		t.Fatalf("DBPowerToLinear(3) = %v, want ~2.0", p)
	}

	if !math.IsInf(LinearPowerToDB(0), -1) {
		t.Fatal("expected -Inf for zero power")
	}
}

func TestLinearToDBFloor(t *testing.T) {
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1), 1e-12} {
		if got := LinearToDBFloor(v, -70); got != -70 {
			t.Fatalf("LinearToDBFloor(%v) = %v, want -70", v, got)
		}
	}

	if got := LinearToDBFloor(1, -70); got != 0 {
		t.Fatalf("LinearToDBFloor(1) = %v, want 0", got)
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 {
		t.Fatal("expected tiny value to flush to zero")
	}

	if FlushDenormals(1e-3) != 1e-3 {
		t.Fatal("expected normal value to pass through")
	}
}

func TestTimeConstantCoeff(t *testing.T) {
	c := TimeConstantCoeff(0.01, 48000)
	if c <= 0 || c >= 1 {
		t.Fatalf("coefficient = %v, want in (0, 1)", c)
	}

	if TimeConstantCoeff(0, 48000) != 1 {
		t.Fatal("zero time should be instantaneous")
	}
}
