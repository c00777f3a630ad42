package biquad

import (
	"math"
	"testing"
)

func TestSectionIdentity(t *testing.T) {
	s := NewSection(Coefficients{B0: 1})

	for _, x := range []float64{0.5, -1, 0.25} {
		if got := s.ProcessSample(x); got != x {
			t.Fatalf("ProcessSample(%v) = %v, want %v", x, got, x)
		}
	}
}

func TestSectionBlockMatchesSample(t *testing.T) {
	c := Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.6, A2: 0.2}
	a := NewSection(c)
	b := NewSection(c)

	buf := []float64{1, 0, 0.5, -0.25, 0, 0, 1, -1}
	want := make([]float64, len(buf))

	for i, x := range buf {
		want[i] = a.ProcessSample(x)
	}

	b.ProcessBlock(buf)

	for i := range buf {
		if math.Abs(buf[i]-want[i]) > 1e-12 {
			t.Fatalf("buf[%d] = %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestSectionStateRoundTrip(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.5, B1: 0.5, A1: -0.3})
	s.ProcessSample(1)

	st := s.State()
	y1 := s.ProcessSample(0.2)

	s.SetState(st)

	if y2 := s.ProcessSample(0.2); y2 != y1 {
		t.Fatalf("restored output = %v, want %v", y2, y1)
	}

	s.Reset()

	if s.State() != [2]float64{} {
		t.Fatal("Reset must clear state")
	}
}

func TestChainUpdatePreservesState(t *testing.T) {
	c := NewChain([]Coefficients{{B0: 0.5, B1: 0.5, A1: -0.5}}, WithGain(2))
	c.ProcessSample(1)

	before := c.Section(0).State()
	c.UpdateCoefficients([]Coefficients{{B0: 0.4, B1: 0.4, A1: -0.4}}, 1)

	if c.Section(0).State() != before {
		t.Fatal("same section count must keep delay-line state")
	}

	if c.Gain() != 1 {
		t.Fatalf("gain = %v, want 1", c.Gain())
	}
}

func TestChainDCResponse(t *testing.T) {
	c := NewChain([]Coefficients{{B0: 0.5, B1: 0.5}})
	if db := c.MagnitudeDB(0.001, 48000); math.Abs(db) > 1e-6 {
		t.Fatalf("DC magnitude = %v dB, want 0", db)
	}
}
