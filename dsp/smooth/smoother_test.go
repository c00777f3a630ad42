package smooth

import (
	"math"
	"sync"
	"testing"
)

func TestSmootherCoefficient(t *testing.T) {
	tests := []struct {
		name string
		sr   float64
		ramp float64
		want float64
	}{
		{"10ms at 48k", 48000, 0.01, 1 - math.Exp(-1/480.0)},
		{"zero ramp clamps to 1ms", 48000, 0, 1 - math.Exp(-1/48.0)},
		{"negative ramp clamps to 1ms", 44100, -3, 1 - math.Exp(-1/44.1)},
		{"NaN ramp clamps to 1ms", 48000, math.NaN(), 1 - math.Exp(-1/48.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Prepare(tt.sr, tt.ramp)

			c := s.Coefficient()
			if math.Abs(c-tt.want) > 1e-12 {
				t.Fatalf("coefficient = %v, want %v", c, tt.want)
			}

			if !(c > 0 && c < 1) {
				t.Fatalf("coefficient %v outside (0,1)", c)
			}
		})
	}
}

func TestSmootherConvergesWithinSettleSamples(t *testing.T) {
	s := New()
	s.Prepare(48000, 0.02)
	s.Reset(0)
	s.SetTarget(1)

	n := s.SettleSamples(1e-4)
	if want := int(math.Ceil(math.Log(1e-4) / math.Log(1-s.Coefficient()))); n != want {
		t.Fatalf("SettleSamples = %d, want %d", n, want)
	}

	prev := 0.0
	for range n {
		v := s.Next()
		if v < prev {
			t.Fatalf("ramp not monotonic: %v after %v", v, prev)
		}

		prev = v
	}

	if d := math.Abs(s.Current() - 1); d >= 1e-4 {
		t.Fatalf("after %d samples |current-target| = %v, want < 1e-4", n, d)
	}
}

func TestSmootherSteadyState(t *testing.T) {
	s := New()
	s.Reset(0.25)

	for range 100 {
		if v := s.Next(); v != 0.25 {
			t.Fatalf("steady state moved to %v", v)
		}
	}

	if s.IsSmoothing() {
		t.Fatal("IsSmoothing = true in steady state")
	}
}

func TestSmootherSnapsToTarget(t *testing.T) {
	s := New()
	s.Prepare(48000, 0.001)
	s.Reset(0)
	s.SetTarget(1)

	for range 48000 {
		s.Next()
	}

	if s.Current() != 1 {
		t.Fatalf("current = %v, want exactly 1 after snap", s.Current())
	}
}

func TestSmootherIgnoresNonFiniteTarget(t *testing.T) {
	s := New()
	s.Reset(0.5)
	s.SetTarget(math.NaN())
	s.SetTarget(math.Inf(-1))

	if s.Target() != 0.5 {
		t.Fatalf("target = %v, want 0.5", s.Target())
	}
}

func TestSmootherBlockMatchesNext(t *testing.T) {
	a, b := New(), New()
	a.Prepare(48000, 0.005)
	b.Prepare(48000, 0.005)
	a.SetTarget(-2)
	b.SetTarget(-2)

	buf := make([]float64, 256)
	b.Block(buf)

	for i := range buf {
		if v := a.Next(); v != buf[i] {
			t.Fatalf("Block[%d] = %v, Next = %v", i, buf[i], v)
		}
	}
}

func TestSmootherSkipMatchesClosedForm(t *testing.T) {
	a, b := New(), New()
	a.Prepare(48000, 0.005)
	b.Prepare(48000, 0.005)
	a.SetTarget(1)
	b.SetTarget(1)

	for range 64 {
		a.Next()
	}

	if got := b.Skip(64); math.Abs(got-a.Current()) > 1e-9 {
		t.Fatalf("Skip(64) = %v, Next x64 = %v", got, a.Current())
	}
}

func TestSmootherConcurrentSetTarget(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := range 1000 {
			s.SetTarget(float64(i % 2))
		}
	}()

	for range 1000 {
		v := s.Next()
		if v < 0 || v > 1 {
			t.Errorf("value %v escaped target range", v)
			break
		}
	}

	wg.Wait()
}

func TestBank(t *testing.T) {
	b := NewBank(3)
	b.Prepare(48000, 0.01)
	b.SetTarget(1, 2)

	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}

	b.Skip(48000)

	if v := b.At(1).Current(); math.Abs(v-2) > 1e-9 {
		t.Fatalf("smoother 1 = %v, want 2", v)
	}

	b.SetTarget(0, 5)
	b.Reset()

	if b.At(0).Current() != 5 {
		t.Fatalf("Reset did not snap to target: %v", b.At(0).Current())
	}
}
