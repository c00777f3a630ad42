package spectral

import (
	"math"
	"testing"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/internal/testutil"
)

func TestAnalyzerSinePower(t *testing.T) {
	const fs = 48000.0

	a, err := NewAnalyzer(2048, fs)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	a.Write(testutil.DeterministicSine(1000, fs, 0.5, int(fs)))

	if a.Frames() == 0 {
		t.Fatal("no frames analysed")
	}

	if err := a.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	// A²/2 = 0.125 lands within a few bins of 1 kHz
	if p := a.BandPower(900, 1100); math.Abs(p-0.125)/0.125 > 0.02 {
		t.Fatalf("BandPower(900, 1100) = %g, want 0.125", p)
	}

	if p := a.BandPower(2000, 20000); p > 1e-6 {
		t.Fatalf("leakage above 2 kHz = %g", p)
	}

	if c := a.Centroid(); math.Abs(c-1000) > 20 {
		t.Fatalf("Centroid() = %g, want about 1000", c)
	}
}

func TestAnalyzerStereoAndReset(t *testing.T) {
	a, err := NewAnalyzer(256, 48000)
	if err != nil {
		t.Fatal(err)
	}

	l := testutil.DeterministicSine(3000, 48000, 1, 4096)
	r := make([]float64, len(l))

	for i, v := range l {
		r[i] = -v
	}

	a.WriteStereo([][]float64{l, r})

	if lvl := a.BandLevelDB(0, 24000); lvl > -150 {
		t.Fatalf("cancelled mid signal level = %g dB", lvl)
	}

	a.Reset()

	if a.Frames() != 0 || a.Centroid() != 0 {
		t.Fatal("Reset did not clear state")
	}

	if s := a.Spectrum(); len(s) != 129 {
		t.Fatalf("len(Spectrum()) = %d", len(s))
	}
}

func TestAnalyzerValidation(t *testing.T) {
	for _, n := range []int{0, 100, 32, 1 << 20} {
		if _, err := NewAnalyzer(n, 48000); err == nil {
			t.Errorf("NewAnalyzer(%d) expected error", n)
		}
	}

	if _, err := NewAnalyzer(1024, 0); err == nil {
		t.Error("expected sample rate error")
	}
}

func TestGoertzel(t *testing.T) {
	g, err := NewGoertzel(1000, 48000)
	if err != nil {
		t.Fatal(err)
	}

	// 480 samples hold exactly 10 cycles
	g.ProcessBlock(testutil.DeterministicSine(1000, 48000, 0.3, 480))

	if a := g.Amplitude(); math.Abs(a-0.3) > 1e-9 {
		t.Fatalf("Amplitude() = %g, want 0.3", a)
	}

	g.Reset()
	g.ProcessBlock(testutil.DeterministicSine(2000, 48000, 0.3, 480))

	if a := g.Amplitude(); a > 1e-9 {
		t.Fatalf("off-bin Amplitude() = %g", a)
	}

	if _, err := NewGoertzel(30000, 48000); err == nil {
		t.Fatal("expected frequency error")
	}
}
