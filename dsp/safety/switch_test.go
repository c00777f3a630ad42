package safety

import (
	"math"
	"testing"
)

func switchSignals(n, offset int) ([][]float64, [][]float64) {
	dry := [][]float64{make([]float64, n)}
	wet := [][]float64{make([]float64, n)}

	for i := range n {
		v := 0.5 * math.Sin(2*math.Pi*100*float64(offset+i)/48000)
		dry[0][i] = v
		wet[0][i] = -v
	}

	return dry, wet
}

func TestSwitchTransitionIsClickFree(t *testing.T) {
	for _, curve := range []Curve{Linear, EqualPower} {
		s := NewSwitch(false, curve)
		s.Prepare(48000, DefaultFade)

		const block = 128

		out := [][]float64{make([]float64, block)}
		prev := 0.0
		first := true

		for b := range 40 {
			switch b {
			case 2:
				s.SetEnabled(true)
			case 4:
				s.SetEnabled(false) // reverse mid-ramp
			case 12:
				s.SetEnabled(true)
			}

			dry, wet := switchSignals(block, b*block)
			s.Mix(dry, wet, out)

			for i, v := range out[0] {
				if !first && math.Abs(v-prev) > 0.05 {
					t.Fatalf("curve %d block %d sample %d: delta %v", curve, b, i, math.Abs(v-prev))
				}

				prev = v
				first = false
			}
		}

		if s.State() != Active {
			t.Fatalf("final state = %v, want Active", s.State())
		}
	}
}

func TestSwitchStates(t *testing.T) {
	s := NewSwitch(true, Linear)
	if s.State() != Active || s.Position() != 1 {
		t.Fatalf("initial state %v position %v", s.State(), s.Position())
	}

	s.SetEnabled(false)

	dry, wet := switchSignals(64, 0)
	out := [][]float64{make([]float64, 64)}
	s.Mix(dry, wet, out)

	if s.State() != RampingOut {
		t.Fatalf("state = %v, want RampingOut", s.State())
	}

	if !s.NeedsWet() {
		t.Fatal("wet path still needed while ramping out")
	}

	for range 20 {
		s.Mix(dry, wet, out)
	}

	if s.State() != Bypassed || s.Position() != 0 {
		t.Fatalf("state = %v position %v, want Bypassed at 0", s.State(), s.Position())
	}

	for i := range out[0] {
		if out[0][i] != dry[0][i] {
			t.Fatalf("bypassed output differs from dry at %d", i)
		}
	}

	if s.NeedsWet() {
		t.Fatal("NeedsWet = true when bypassed")
	}
}

func TestSwitchStateString(t *testing.T) {
	if RampingIn.String() != "RampingIn" || SwitchState(9).String() != "Unknown" {
		t.Fatal("unexpected state names")
	}
}
