package envelope

import "math"

// Default adaptive threshold time constants.
const (
	DefaultThresholdRiseMs = 300.0
	DefaultThresholdFallMs = 3000.0

	// ThresholdFloor keeps sensitivity bounded on near-silence.
	ThresholdFloor = 1e-4
)

// Adaptive is a slow threshold that follows program level, used to
// normalise detector output so quiet passages are not over-triggered and
// loud passages are not under-triggered.
type Adaptive struct {
	riseCoef float64
	fallCoef float64
	level    []float64
}

// NewAdaptive creates an adaptive threshold with the given rise and fall
// times in milliseconds.
func NewAdaptive(sampleRate float64, channels int, riseMs, fallMs float64) *Adaptive {
	if riseMs <= 0 {
		riseMs = DefaultThresholdRiseMs
	}

	if fallMs <= 0 {
		fallMs = DefaultThresholdFallMs
	}

	return &Adaptive{
		riseCoef: msToCoeff(riseMs, sampleRate),
		fallCoef: msToCoeff(fallMs, sampleRate),
		level:    make([]float64, max(channels, 1)),
	}
}

// Process tracks envelope e on channel ch and returns the threshold.
func (a *Adaptive) Process(e float64, ch int) float64 {
	l := a.level[ch]
	if e > l {
		l += a.riseCoef * (e - l)
	} else {
		l += a.fallCoef * (e - l)
	}

	a.level[ch] = l

	return l
}

// Threshold returns the current threshold of channel ch, never below
// ThresholdFloor.
func (a *Adaptive) Threshold(ch int) float64 {
	return math.Max(a.level[ch], ThresholdFloor)
}

// Sensitivity returns e relative to the current threshold.
func (a *Adaptive) Sensitivity(e float64, ch int) float64 {
	return e / a.Threshold(ch)
}

// Reset clears all channels.
func (a *Adaptive) Reset() { clear(a.level) }
