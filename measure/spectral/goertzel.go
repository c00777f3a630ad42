package spectral

import (
	"fmt"
	"math"
)

// Goertzel evaluates one DFT bin over all samples fed since Reset.
type Goertzel struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	cos, sin   float64
	s0, s1     float64
	n          int
}

// NewGoertzel creates a single-bin detector for frequency in [0, sampleRate/2].
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}

	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	w := 2 * math.Pi * frequency / sampleRate

	return &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
		coeff:      2 * math.Cos(w),
		cos:        math.Cos(w),
		sin:        math.Sin(w),
	}, nil
}

// Frequency returns the analysed frequency in Hz.
func (g *Goertzel) Frequency() float64 { return g.frequency }

// ProcessBlock feeds samples.
func (g *Goertzel) ProcessBlock(input []float64) {
	s0, s1 := g.s0, g.s1
	for _, x := range input {
		s := x + g.coeff*s0 - s1
		s1 = s0
		s0 = s
	}

	g.s0, g.s1 = s0, s1
	g.n += len(input)
}

// Amplitude returns the estimated peak amplitude of the analysed component,
// exact when the block holds a whole number of its cycles.
func (g *Goertzel) Amplitude() float64 {
	if g.n == 0 {
		return 0
	}

	re := g.s0 - g.s1*g.cos
	im := g.s1 * g.sin

	return 2 * math.Hypot(re, im) / float64(g.n)
}

// Reset clears the accumulator.
func (g *Goertzel) Reset() {
	g.s0, g.s1 = 0, 0
	g.n = 0
}
