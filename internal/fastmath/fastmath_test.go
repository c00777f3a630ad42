package fastmath

import (
	"math"
	"testing"
)

func TestApproximationsTrackMath(t *testing.T) {
	for _, x := range []float64{0.001, 0.1, 0.5, 1, 2, 10, 1000} {
		if got, want := Log2(x), math.Log2(x); math.Abs(got-want) > 0.1 {
			t.Fatalf("Log2(%v) = %v, want %v", x, got, want)
		}

		if got, want := Sqrt(x), math.Sqrt(x); math.Abs(got-want) > 0.05*want {
			t.Fatalf("Sqrt(%v) = %v, want %v", x, got, want)
		}

		if got, want := LinearToDB(x), 20*math.Log10(x); math.Abs(got-want) > 0.6 {
			t.Fatalf("LinearToDB(%v) = %v, want %v", x, got, want)
		}
	}

	for _, x := range []float64{-6, -1, 0, 0.5, 3} {
		if got, want := Pow2(x), math.Exp2(x); math.Abs(got-want) > 0.06*want {
			t.Fatalf("Pow2(%v) = %v, want %v", x, got, want)
		}

		if got, want := DBToLinear(x*6), math.Pow(10, x*6/20); math.Abs(got-want) > 0.06*want {
			t.Fatalf("DBToLinear(%v) = %v, want %v", x*6, got, want)
		}
	}
}

func TestTanh(t *testing.T) {
	for x := -5.0; x <= 5; x += 0.125 {
		got := Tanh(x)
		if math.Abs(got-math.Tanh(x)) > 0.03 {
			t.Fatalf("Tanh(%v) = %v, want %v", x, got, math.Tanh(x))
		}

		if math.Abs(got) > 1 {
			t.Fatalf("Tanh(%v) = %v escaped [-1, 1]", x, got)
		}
	}

	if Sqrt(-1) != 0 {
		t.Fatal("Sqrt of negative must be 0")
	}
}

func TestSinTracksMath(t *testing.T) {
	for _, x := range []float64{-math.Pi / 2, -1, -0.25, 0, 0.3, 1, math.Pi / 2, 4} {
		if got, want := Sin(x), math.Sin(x); math.Abs(got-want) > 1e-4 {
			t.Fatalf("Sin(%v) = %v, want %v", x, got, want)
		}
	}
}
