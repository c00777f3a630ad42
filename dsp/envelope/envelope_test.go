package envelope

import (
	"math"
	"testing"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/internal/testutil"
)

func TestPeakAttackTimeConstant(t *testing.T) {
	const sr = 48000.0

	p, err := NewPeak(sr, 1, 10, 100)
	if err != nil {
		t.Fatal(err)
	}

	var e float64
	for range int(0.010 * sr) {
		e = p.Process(1, 0)
	}

	if want := 1 - math.Exp(-1); math.Abs(e-want) > 0.01 {
		t.Fatalf("envelope after one attack constant = %v, want %v", e, want)
	}

	for range int(0.100 * sr) {
		e = p.Process(0, 0)
	}

	if want := (1 - math.Exp(-1)) * math.Exp(-1); math.Abs(e-want) > 0.01 {
		t.Fatalf("envelope after one release constant = %v, want %v", e, want)
	}
}

func TestPeakInstantAttack(t *testing.T) {
	p, err := NewPeak(48000, 2, 0, 50)
	if err != nil {
		t.Fatal(err)
	}

	if e := p.Process(-0.7, 1); e != 0.7 {
		t.Fatalf("instant attack = %v, want 0.7", e)
	}

	if p.Value(0) != 0 {
		t.Fatal("channels must be independent")
	}
}

func TestPeakSetTimesValidation(t *testing.T) {
	p, err := NewPeak(48000, 1, 1, 10)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		attack  float64
		release float64
	}{
		{"negative attack", -1, 10},
		{"zero release", 1, 0},
		{"NaN attack", math.NaN(), 10},
	}

	for _, tt := range tests {
		if err := p.SetTimes(tt.attack, tt.release); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}

	if p.Attack() != 1 || p.Release() != 10 {
		t.Fatalf("failed SetTimes changed times to %v/%v", p.Attack(), p.Release())
	}

	if _, err := NewPeak(0, 1, 1, 1); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestRMSOfSine(t *testing.T) {
	r, err := NewRMS(96, 1)
	if err != nil {
		t.Fatal(err)
	}

	x := testutil.DeterministicSine(1000, 48000, 1, 4800)

	var v float64
	for _, s := range x {
		v = r.Process(s, 0)
	}

	if math.Abs(v-1/math.Sqrt2) > 1e-9 {
		t.Fatalf("RMS = %v, want %v", v, 1/math.Sqrt2)
	}
}

func TestRMSDefaultWindowAndEco(t *testing.T) {
	r, err := NewRMS(0, 2)
	if err != nil {
		t.Fatal(err)
	}

	if r.Window() != DefaultRMSWindow {
		t.Fatalf("window = %d", r.Window())
	}

	r.SetEco(true)

	var v float64
	for range 1000 {
		v = r.Process(0.5, 1)
	}

	if math.Abs(v-0.5) > 0.025 {
		t.Fatalf("eco RMS of DC 0.5 = %v", v)
	}

	r.Reset()

	if got := r.Process(0, 1); got != 0 {
		t.Fatalf("after Reset = %v", got)
	}
}

func TestAdaptiveSensitivityIsLevelIndependent(t *testing.T) {
	for _, level := range []float64{0.01, 0.5} {
		a := NewAdaptive(48000, 1, 0, 0)

		for range 5 * 48000 {
			a.Process(level, 0)
		}

		if s := a.Sensitivity(level, 0); math.Abs(s-1) > 0.02 {
			t.Fatalf("level %v: sensitivity = %v, want ~1", level, s)
		}

		if s := a.Sensitivity(2*level, 0); math.Abs(s-2) > 0.05 {
			t.Fatalf("level %v: doubled sensitivity = %v, want ~2", level, s)
		}
	}

	a := NewAdaptive(48000, 1, 0, 0)
	if a.Threshold(0) != ThresholdFloor {
		t.Fatalf("silent threshold = %v, want floor", a.Threshold(0))
	}
}

func TestTransientDetectsHitsNotSteadyTone(t *testing.T) {
	const sr = 48000.0

	tr, err := NewTransient(sr, 1)
	if err != nil {
		t.Fatal(err)
	}

	var steady float64
	for i := range 2 * int(sr) {
		a := tr.Process(0.5*math.Sin(2*math.Pi*1000*float64(i)/sr), 0)
		if i > int(sr) {
			steady = math.Max(steady, a)
		}
	}

	if steady > 0.25 {
		t.Fatalf("steady tone transient amount = %v, want small", steady)
	}

	tr.Reset()

	for i := range int(sr) {
		tr.Process(0.05*math.Sin(2*math.Pi*200*float64(i)/sr), 0)
	}

	var hit float64
	for i := range 2000 {
		x := 0.8 * math.Sin(2*math.Pi*100*float64(i)/sr) * math.Exp(-float64(i)/sr*20)
		hit = math.Max(hit, tr.Process(x, 0))
	}

	if hit < 0.9 {
		t.Fatalf("hit transient amount = %v, want near 1", hit)
	}
}
