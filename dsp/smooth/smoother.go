package smooth

import (
	"math"
	"sync/atomic"
)

const (
	// DefaultRamp is the ramp time used when Prepare is given a non-positive
	// or non-finite ramp.
	DefaultRamp = 0.001

	snapThreshold = 1e-9
)

// Smoother is a one-pole exponential parameter ramp.
//
// SetTarget may be called concurrently with Next. All other methods belong
// to the audio goroutine.
type Smoother struct {
	target atomic.Uint64

	current     float64
	coefficient float64
	sampleRate  float64
	ramp        float64
}

// New returns a Smoother prepared for 48 kHz with the default ramp and a
// value of zero.
func New() *Smoother {
	s := &Smoother{}
	s.Prepare(48000, DefaultRamp)

	return s
}

// Prepare computes the per-sample coefficient 1 - exp(-1/(ramp*sampleRate)).
// The current value is kept.
func (s *Smoother) Prepare(sampleRate, rampSeconds float64) {
	if !(rampSeconds > 0) || math.IsInf(rampSeconds, 0) {
		rampSeconds = DefaultRamp
	}

	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		sampleRate = 48000
	}

	s.sampleRate = sampleRate
	s.ramp = rampSeconds
	s.coefficient = 1 - math.Exp(-1/(rampSeconds*sampleRate))

	if s.coefficient <= 0 {
		s.coefficient = math.SmallestNonzeroFloat64
	}
}

// SetTarget publishes a new target. Non-finite values are ignored.
func (s *Smoother) SetTarget(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	s.target.Store(math.Float64bits(v))
}

// Target returns the most recently published target.
func (s *Smoother) Target() float64 {
	return math.Float64frombits(s.target.Load())
}

// Next advances the ramp by one sample and returns the new value.
func (s *Smoother) Next() float64 {
	target := s.Target()

	diff := target - s.current
	if math.Abs(diff) < snapThreshold {
		s.current = target
		return target
	}

	s.current += s.coefficient * diff

	return s.current
}

// Block fills dst with consecutive ramp values.
func (s *Smoother) Block(dst []float64) {
	target := s.Target()
	cur := s.current

	for i := range dst {
		diff := target - cur
		if math.Abs(diff) < snapThreshold {
			cur = target
		} else {
			cur += s.coefficient * diff
		}

		dst[i] = cur
	}

	s.current = cur
}

// Skip advances the ramp by n samples in O(1) and returns the new value.
func (s *Smoother) Skip(n int) float64 {
	if n <= 0 {
		return s.current
	}

	target := s.Target()
	s.current = target - (target-s.current)*math.Pow(1-s.coefficient, float64(n))

	if math.Abs(target-s.current) < snapThreshold {
		s.current = target
	}

	return s.current
}

// Reset snaps both current value and target to v.
func (s *Smoother) Reset(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	s.current = v
	s.target.Store(math.Float64bits(v))
}

// Current returns the value produced by the last Next call.
func (s *Smoother) Current() float64 { return s.current }

// Coefficient returns the per-sample smoothing coefficient in (0, 1].
func (s *Smoother) Coefficient() float64 { return s.coefficient }

// Ramp returns the ramp time in seconds.
func (s *Smoother) Ramp() float64 { return s.ramp }

// IsSmoothing reports whether the current value still differs from target.
func (s *Smoother) IsSmoothing() bool {
	return s.current != s.Target()
}

// SettleSamples returns the number of samples needed for a step to decay
// below tolerance of its initial size.
func (s *Smoother) SettleSamples(tolerance float64) int {
	if !(tolerance > 0) || tolerance >= 1 {
		return 0
	}

	if s.coefficient >= 1 {
		return 1
	}

	return int(math.Ceil(math.Log(tolerance) / math.Log(1-s.coefficient)))
}
