package safety

import (
	"math"
	"sync/atomic"
)

// DefaultFade is the crossfade time used by the click-free switch.
const DefaultFade = 0.010

// SwitchState is the state of a click-free switch.
type SwitchState int32

const (
	// Bypassed passes the dry signal only.
	Bypassed SwitchState = iota
	// RampingIn is fading from dry to wet.
	RampingIn
	// Active passes the wet signal only.
	Active
	// RampingOut is fading from wet to dry.
	RampingOut
)

// String returns the state name.
func (s SwitchState) String() string {
	switch s {
	case Bypassed:
		return "Bypassed"
	case RampingIn:
		return "RampingIn"
	case Active:
		return "Active"
	case RampingOut:
		return "RampingOut"
	default:
		return "Unknown"
	}
}

// Curve selects the crossfade law.
type Curve int

const (
	// Linear keeps dry+wet gains summing to one.
	Linear Curve = iota
	// EqualPower keeps dry²+wet² gains summing to one.
	EqualPower
)

// Switch crossfades between a dry and a wet signal when the enabled flag
// changes, so toggling processing never produces a discontinuity.
//
// SetEnabled may be called from any goroutine; Mix belongs to the audio
// goroutine. Reversing direction mid-ramp continues from the current
// position.
type Switch struct {
	enabled atomic.Bool
	state   atomic.Int32

	curve    Curve
	position float64 // 0 = dry, 1 = wet
	step     float64
}

// NewSwitch returns a switch in the given initial state and 10 ms fade at
// 48 kHz. Call Prepare to set the real sample rate.
func NewSwitch(enabled bool, curve Curve) *Switch {
	s := &Switch{curve: curve}
	s.Prepare(48000, DefaultFade)
	s.enabled.Store(enabled)
	s.Snap()

	return s
}

// Prepare sets the fade time. A non-positive fade selects DefaultFade.
func (s *Switch) Prepare(sampleRate, fadeSeconds float64) {
	if !(fadeSeconds > 0) || math.IsInf(fadeSeconds, 0) {
		fadeSeconds = DefaultFade
	}

	if !(sampleRate > 0) {
		sampleRate = 48000
	}

	s.step = 1 / math.Max(1, math.Round(fadeSeconds*sampleRate))
}

// SetEnabled requests the wet (true) or dry (false) path.
func (s *Switch) SetEnabled(on bool) { s.enabled.Store(on) }

// Enabled returns the most recently requested state.
func (s *Switch) Enabled() bool { return s.enabled.Load() }

// State returns the current switch state.
func (s *Switch) State() SwitchState { return SwitchState(s.state.Load()) }

// Position returns the crossfade position, 0 for dry and 1 for wet.
func (s *Switch) Position() float64 { return s.position }

// Snap jumps to the requested state without a ramp.
func (s *Switch) Snap() {
	if s.enabled.Load() {
		s.position = 1
		s.state.Store(int32(Active))
	} else {
		s.position = 0
		s.state.Store(int32(Bypassed))
	}
}

// NeedsWet reports whether the next Mix call will use the wet signal.
func (s *Switch) NeedsWet() bool {
	return s.enabled.Load() || s.position > 0
}

// Mix writes the crossfade of dry and wet into out, advancing the ramp per
// sample. out may alias wet or dry. All slices are indexed by the shortest
// common length.
func (s *Switch) Mix(dry, wet, out [][]float64) {
	channels := min(len(dry), len(wet), len(out))
	if channels == 0 {
		return
	}

	n := len(out[0])
	for ch := range channels {
		n = min(n, len(dry[ch]), len(wet[ch]), len(out[ch]))
	}

	if n == 0 {
		return
	}

	target := 0.0
	if s.enabled.Load() {
		target = 1
	}

	// Fast paths when settled.
	if s.position == target {
		s.settle(target)

		if target == 1 {
			for ch := range channels {
				if &out[ch][0] != &wet[ch][0] {
					copy(out[ch][:n], wet[ch][:n])
				}
			}
		} else {
			for ch := range channels {
				if &out[ch][0] != &dry[ch][0] {
					copy(out[ch][:n], dry[ch][:n])
				}
			}
		}

		return
	}

	if target == 1 {
		s.state.Store(int32(RampingIn))
	} else {
		s.state.Store(int32(RampingOut))
	}

	pos := s.position
	for i := range n {
		if pos < target {
			pos = math.Min(target, pos+s.step)
		} else if pos > target {
			pos = math.Max(target, pos-s.step)
		}

		gDry, gWet := s.gains(pos)
		for ch := range channels {
			out[ch][i] = gDry*dry[ch][i] + gWet*wet[ch][i]
		}
	}

	s.position = pos
	if pos == target {
		s.settle(target)
	}
}

func (s *Switch) settle(target float64) {
	if target == 1 {
		s.state.Store(int32(Active))
	} else {
		s.state.Store(int32(Bypassed))
	}
}

func (s *Switch) gains(pos float64) (float64, float64) {
	if s.curve == EqualPower {
		return math.Cos(pos * math.Pi / 2), math.Sin(pos * math.Pi / 2)
	}

	return 1 - pos, pos
}
