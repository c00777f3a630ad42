package oversample

import (
	"errors"
	"math"
	"testing"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/internal/testutil"
)

func roundTrip(t *testing.T, m *Manager, in []float64, block int) []float64 {
	t.Helper()

	out := make([]float64, len(in))
	for start := 0; start < len(in); start += block {
		end := min(start+block, len(in))
		wide := m.ProcessUp([][]float64{in[start:end]})

		if got, want := len(wide[0]), (end-start)*m.Factor(); got != want {
			t.Fatalf("wide length = %d, want %d", got, want)
		}

		m.ProcessDown(wide, [][]float64{out[start:end]})
	}

	return out
}

func TestManagerRoundTripFIRIsDelayedInput(t *testing.T) {
	for _, q := range []Quality{QualityGood, QualityBest} {
		m, err := NewManager(WithFactor(2), WithQuality(q))
		if err != nil {
			t.Fatal(err)
		}

		if err := m.Prepare(48000, 256, 1); err != nil {
			t.Fatal(err)
		}

		in := testutil.DeterministicSine(1000, 48000, 0.5, 4096)
		out := roundTrip(t, m, in, 256)
		lat := m.LatencySamples()

		if float64(lat) != m.Latency() {
			t.Fatalf("%v: 2x FIR latency %v not integral", q, m.Latency())
		}

		var maxErr float64
		for i := 1024; i < len(in); i++ {
			maxErr = math.Max(maxErr, math.Abs(out[i]-in[i-lat]))
		}

		if maxErr > 5e-3 {
			t.Fatalf("%v: round-trip error %v", q, maxErr)
		}
	}
}

func TestManagerLatency(t *testing.T) {
	tests := []struct {
		quality Quality
		factor  int
		want    float64
	}{
		{QualityGood, 1, 0},
		{QualityGood, 2, 15},
		{QualityGood, 4, 22.5},
		{QualityBest, 2, 31},
		{QualityDraft, 4, 0},
	}

	for _, tt := range tests {
		m, err := NewManager(WithFactor(tt.factor), WithQuality(tt.quality))
		if err != nil {
			t.Fatal(err)
		}

		if err := m.Prepare(48000, 64, 2); err != nil {
			t.Fatal(err)
		}

		if got := m.Latency(); got != tt.want {
			t.Fatalf("%v x%d: latency = %v, want %v", tt.quality, tt.factor, got, tt.want)
		}
	}
}

func TestManagerPreservesPassbandLevel(t *testing.T) {
	for _, q := range []Quality{QualityDraft, QualityGood, QualityBest} {
		for _, f := range []int{2, 4, 8, 16} {
			m, err := NewManager(WithFactor(f), WithQuality(q))
			if err != nil {
				t.Fatal(err)
			}

			if err := m.Prepare(48000, 512, 1); err != nil {
				t.Fatal(err)
			}

			in := testutil.DeterministicSine(997, 48000, 0.5, 9600)
			out := roundTrip(t, m, in, 512)

			inRMS := rms(in[4800:])
			outRMS := rms(out[4800:])

			if d := 20 * math.Log10(outRMS/inRMS); math.Abs(d) > 0.05 {
				t.Fatalf("%v x%d: level change %v dB", q, f, d)
			}
		}
	}
}

func TestManagerRejectsImages(t *testing.T) {
	// A tone just below the high-rate band edge must be removed by the
	// decimator before it can fold back into the base band.
	for _, q := range []Quality{QualityDraft, QualityGood, QualityBest} {
		m, err := NewManager(WithFactor(2), WithQuality(q))
		if err != nil {
			t.Fatal(err)
		}

		if err := m.Prepare(48000, 512, 1); err != nil {
			t.Fatal(err)
		}

		wide := testutil.DeterministicSine(36000, 96000, 1, 8192)
		out := make([]float64, 4096)

		for start := 0; start < len(out); start += 512 {
			m.ProcessDown([][]float64{wide[2*start : 2*start+1024]}, [][]float64{out[start : start+512]})
		}

		if level := 20 * math.Log10(rms(out[2048:])+1e-20); level > -40 {
			t.Fatalf("%v: alias level %v dBFS, want < -40", q, level)
		}
	}
}

func TestManagerSetFactorValidation(t *testing.T) {
	m, err := NewManager()
	if err != nil {
		t.Fatal(err)
	}

	if err := m.SetFactor(3); !errors.Is(err, ErrInvalidFactor) {
		t.Fatalf("SetFactor(3) = %v, want ErrInvalidFactor", err)
	}

	if _, err := NewManager(WithFactor(32)); !errors.Is(err, ErrInvalidFactor) {
		t.Fatalf("NewManager(32) = %v, want ErrInvalidFactor", err)
	}
}

func TestManagerResourceFallback(t *testing.T) {
	m, err := NewManager(WithFactor(2), WithMaxWorkSamples(4096))
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Prepare(48000, 1024, 2); err != nil {
		t.Fatal(err)
	}

	err = m.SetFactor(16)
	if !errors.Is(err, ErrResource) {
		t.Fatalf("SetFactor(16) = %v, want ErrResource", err)
	}

	if m.Factor() != 1 || !m.Fallback() {
		t.Fatalf("factor = %d fallback = %v, want 1/true", m.Factor(), m.Fallback())
	}

	in := [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}
	wide := m.ProcessUp(in)

	if &wide[0][0] != &in[0][0] {
		t.Fatal("factor 1 must pass block through")
	}

	if err := m.SetFactor(4); err != nil {
		t.Fatalf("recovering SetFactor(4): %v", err)
	}

	if m.Fallback() || m.Factor() != 4 {
		t.Fatalf("factor = %d fallback = %v after recovery", m.Factor(), m.Fallback())
	}
}

func TestManagerSelectPrepared(t *testing.T) {
	m, err := NewManager(WithFactor(2), WithMaxFactor(8))
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Prepare(44100, 128, 2); err != nil {
		t.Fatal(err)
	}

	for _, f := range []int{1, 4, 8, 2} {
		if !m.SelectPrepared(f) {
			t.Fatalf("SelectPrepared(%d) = false", f)
		}

		if m.SampleRate() != 44100*float64(f) {
			t.Fatalf("SampleRate = %v at x%d", m.SampleRate(), f)
		}
	}

	if m.SelectPrepared(16) {
		t.Fatal("SelectPrepared(16) beyond prepared maximum succeeded")
	}
}

func TestManagerSelectPreparedDoesNotAllocate(t *testing.T) {
	m, err := NewManager(WithFactor(2), WithMaxFactor(4))
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Prepare(48000, 64, 2); err != nil {
		t.Fatal(err)
	}

	block := [][]float64{make([]float64, 64), make([]float64, 64)}
	out := [][]float64{make([]float64, 64), make([]float64, 64)}
	f := 2

	allocs := testing.AllocsPerRun(50, func() {
		f = 6 - f
		m.SelectPrepared(f)
		m.ProcessDown(m.ProcessUp(block), out)
	})

	if allocs != 0 {
		t.Fatalf("allocs per block = %v, want 0", allocs)
	}
}

func TestParseQuality(t *testing.T) {
	for _, q := range []Quality{QualityDraft, QualityGood, QualityBest} {
		got, err := ParseQuality(q.String())
		if err != nil || got != q {
			t.Fatalf("ParseQuality(%q) = %v, %v", q.String(), got, err)
		}
	}

	if _, err := ParseQuality("ultra"); err == nil {
		t.Fatal("expected error")
	}
}

func rms(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v * v
	}

	return math.Sqrt(s / float64(len(x)))
}
