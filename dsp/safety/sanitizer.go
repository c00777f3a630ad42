package safety

import (
	"math"
	"sync/atomic"
)

// DefaultEscapeCeiling bounds sanitized samples when clipping is enabled.
const DefaultEscapeCeiling = 4.0

// Sanitizer replaces NaN and ±Inf samples with zero and optionally clamps
// finite samples to ±ceiling. Per-channel counts of replaced samples are
// kept in atomics so diagnostics can read them from another goroutine.
type Sanitizer struct {
	ceiling float64
	counts  []atomic.Uint64
	total   atomic.Uint64
}

// NewSanitizer creates a sanitizer for up to channels channels. A positive
// ceiling enables clamping; zero disables it.
func NewSanitizer(channels int, ceiling float64) *Sanitizer {
	if !(ceiling > 0) || math.IsInf(ceiling, 0) {
		ceiling = 0
	}

	return &Sanitizer{
		ceiling: ceiling,
		counts:  make([]atomic.Uint64, max(channels, 1)),
	}
}

// Ceiling returns the clamp level, or 0 when clamping is disabled.
func (s *Sanitizer) Ceiling() float64 { return s.ceiling }

// ProcessBlock scans block and repairs it in place. It returns the number
// of non-finite samples replaced in this call.
func (s *Sanitizer) ProcessBlock(block [][]float64) int {
	replaced := 0

	for ch, buf := range block {
		n := 0

		for i, x := range buf {
			switch {
			case math.IsNaN(x) || math.IsInf(x, 0):
				buf[i] = 0
				n++
			case s.ceiling > 0 && x > s.ceiling:
				buf[i] = s.ceiling
			case s.ceiling > 0 && x < -s.ceiling:
				buf[i] = -s.ceiling
			}
		}

		if n > 0 {
			if ch < len(s.counts) {
				s.counts[ch].Add(uint64(n))
			}

			s.total.Add(uint64(n))
			replaced += n
		}
	}

	return replaced
}

// Count returns the number of replaced samples on channel ch since the last
// TakeCount.
func (s *Sanitizer) Count(ch int) uint64 {
	if ch < 0 || ch >= len(s.counts) {
		return 0
	}

	return s.counts[ch].Load()
}

// Total returns the number of replaced samples over all channels since the
// last TakeCount.
func (s *Sanitizer) Total() uint64 { return s.total.Load() }

// TakeCount returns the total count and resets all counters.
func (s *Sanitizer) TakeCount() uint64 {
	for i := range s.counts {
		s.counts[i].Store(0)
	}

	return s.total.Swap(0)
}
