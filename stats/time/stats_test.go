package time

import (
	"math"
	"testing"
)

func TestScalarStats(t *testing.T) {
	tests := []struct {
		name  string
		in    []float64
		rms   float64
		peak  float64
		dc    float64
		crest float64
	}{
		{"empty", nil, 0, 0, 0, 0},
		{"square", []float64{1, -1, 1, -1}, 1, 1, 0, 1},
		{"dc", []float64{0.5, 0.5}, 0.5, 0.5, 0.5, 1},
		{"impulse", []float64{0, 0, 0, 2}, 1, 2, 0.5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RMS(tt.in); math.Abs(got-tt.rms) > 1e-12 {
				t.Fatalf("RMS = %v, want %v", got, tt.rms)
			}

			if got := Peak(tt.in); got != tt.peak {
				t.Fatalf("Peak = %v, want %v", got, tt.peak)
			}

			if got := DC(tt.in); math.Abs(got-tt.dc) > 1e-12 {
				t.Fatalf("DC = %v, want %v", got, tt.dc)
			}

			if got := CrestFactor(tt.in); math.Abs(got-tt.crest) > 1e-12 {
				t.Fatalf("CrestFactor = %v, want %v", got, tt.crest)
			}
		})
	}
}

func TestSineCrestFactor(t *testing.T) {
	x := make([]float64, 4800)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * float64(i) / 48)
	}

	if got := CrestFactorDB(x); math.Abs(got-3.0103) > 0.01 {
		t.Fatalf("sine crest = %v dB, want 3.01", got)
	}
}

func TestBlockStats(t *testing.T) {
	block := [][]float64{{1, -1, 1, -1}, {0, 0, 0, 4}}

	if got := BlockPeak(block); got != 4 {
		t.Fatalf("BlockPeak = %v", got)
	}

	if got := BlockRMS(block); math.Abs(got-math.Sqrt(20.0/8)) > 1e-12 {
		t.Fatalf("BlockRMS = %v", got)
	}

	if got := BlockCrestFactorDB(block); math.Abs(got-20*math.Log10(2)) > 1e-9 {
		t.Fatalf("BlockCrestFactorDB = %v", got)
	}
}

func TestAccumulatorMatchesScalar(t *testing.T) {
	x := []float64{0.1, -0.4, 0.3, 0.9, -0.2, 0.05}
	a := NewAccumulator(1)
	a.Update([][]float64{x[:3]})
	a.UpdateFloat32([][]float32{{0.9, -0.2, 0.05}})

	s := a.Result(0)
	if s.Length != len(x) {
		t.Fatalf("Length = %d", s.Length)
	}

	if math.Abs(s.RMS-RMS(x)) > 1e-6 || math.Abs(s.Peak-0.9) > 1e-6 {
		t.Fatalf("summary %+v disagrees with scalar stats", s)
	}

	if s.ZeroCrossings != 4 {
		t.Fatalf("ZeroCrossings = %d, want 4", s.ZeroCrossings)
	}

	a.Reset()

	if r := a.Result(0); r.Length != 0 || !math.IsInf(r.Peak_dB, -1) {
		t.Fatalf("after Reset: %+v", r)
	}
}
