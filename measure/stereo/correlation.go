// Package stereo measures inter-channel relationships of a stereo signal.
package stereo

import (
	"fmt"
	"math"
)

// DefaultWindow is the default averaging time constant in seconds.
const DefaultWindow = 0.3

const silence = 1e-20

// Correlator tracks the Pearson correlation of left and right over an
// exponentially weighted window. +1 is mono-compatible, 0 uncorrelated and
// -1 fully out of phase. Silence reads 0.
type Correlator struct {
	coeff  float64
	window float64

	lr, ll, rr float64
}

// NewCorrelator creates a correlator with the given window in seconds.
func NewCorrelator(sampleRate, windowSeconds float64) (*Correlator, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("stereo: sample rate must be positive and finite: %f", sampleRate)
	}

	if windowSeconds <= 0 || math.IsNaN(windowSeconds) {
		windowSeconds = DefaultWindow
	}

	return &Correlator{
		coeff:  1 - math.Exp(-1/(windowSeconds*sampleRate)),
		window: windowSeconds,
	}, nil
}

// Window returns the averaging time constant in seconds.
func (c *Correlator) Window() float64 { return c.window }

// ProcessBlock feeds paired left/right samples. Extra samples of the longer
// slice are ignored.
func (c *Correlator) ProcessBlock(left, right []float64) {
	n := min(len(left), len(right))
	k := c.coeff
	lr, ll, rr := c.lr, c.ll, c.rr

	for i := range n {
		l, r := left[i], right[i]
		lr += k * (l*r - lr)
		ll += k * (l*l - ll)
		rr += k * (r*r - rr)
	}

	c.lr, c.ll, c.rr = lr, ll, rr
}

// Value returns the current correlation in [-1, 1].
func (c *Correlator) Value() float64 {
	den := c.ll * c.rr
	if !(den > silence) {
		return 0
	}

	v := c.lr / math.Sqrt(den)

	return math.Max(-1, math.Min(1, v))
}

// Reset clears the averages.
func (c *Correlator) Reset() {
	c.lr, c.ll, c.rr = 0, 0, 0
}
