// Package spectral provides offline and monitoring-rate spectrum analysis:
// a Welch-averaged power spectrum and a single-bin Goertzel detector.
package spectral

import (
	"fmt"
	"math"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	minSize = 64
	maxSize = 1 << 16
)

type forwardPlan interface {
	Forward(dst, src []complex128) error
}

// Analyzer averages Hann-windowed power spectra over 50%-overlapped frames.
type Analyzer struct {
	size       int
	hop        int
	sampleRate float64

	plan   forwardPlan
	window []float64
	norm   float64

	ring   []float64
	filled int
	pos    int
	since  int

	frame    []float64
	in, out  []complex128
	re, im   []float64
	power    []float64
	sum      []float64
	frames   int
	frameErr error
}

// NewAnalyzer creates an analyzer with a power-of-two frame size.
func NewAnalyzer(size int, sampleRate float64) (*Analyzer, error) {
	if size < minSize || size > maxSize || bits.OnesCount(uint(size)) != 1 {
		return nil, fmt.Errorf("spectral: frame size must be a power of two in [%d, %d]: %d", minSize, maxSize, size)
	}

	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spectral: sample rate must be positive and finite: %f", sampleRate)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectral: %w", err)
	}

	bins := size/2 + 1

	a := &Analyzer{
		size:       size,
		hop:        size / 2,
		sampleRate: sampleRate,
		plan:       plan,
		window:     Hann(size),
		ring:       make([]float64, size),
		frame:      make([]float64, size),
		in:         make([]complex128, size),
		out:        make([]complex128, size),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		power:      make([]float64, bins),
		sum:        make([]float64, bins),
	}

	var ss float64
	for _, w := range a.window {
		ss += w * w
	}

	a.norm = 1 / (ss * float64(size))

	return a, nil
}

// Hann returns a periodic Hann window.
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}

	return w
}

// Size returns the frame size.
func (a *Analyzer) Size() int { return a.size }

// Frames returns the number of frames averaged so far.
func (a *Analyzer) Frames() int { return a.frames }

// Err returns the first transform error, if any.
func (a *Analyzer) Err() error { return a.frameErr }

// BinFrequency returns the centre frequency of bin k.
func (a *Analyzer) BinFrequency(k int) float64 {
	return float64(k) * a.sampleRate / float64(a.size)
}

// Write feeds mono samples. A frame is analysed every size/2 samples once
// the first full frame is available.
func (a *Analyzer) Write(samples []float64) {
	for _, x := range samples {
		a.push(x)
	}
}

func (a *Analyzer) push(x float64) {
	a.ring[a.pos] = x
	a.pos = (a.pos + 1) % a.size
	a.filled = min(a.filled+1, a.size)
	a.since++

	if a.filled == a.size && a.since >= a.hop {
		a.since = 0
		a.analyse()
	}
}

// WriteStereo feeds the mid signal (L+R)/2 of a planar block.
func (a *Analyzer) WriteStereo(block [][]float64) {
	switch len(block) {
	case 0:
		return
	case 1:
		a.Write(block[0])
		return
	}

	n := min(len(block[0]), len(block[1]))
	for i := range n {
		a.push(0.5 * (block[0][i] + block[1][i]))
	}
}

func (a *Analyzer) analyse() {
	// unroll the ring so the oldest sample comes first
	copy(a.frame, a.ring[a.pos:])
	copy(a.frame[a.size-a.pos:], a.ring[:a.pos])

	vecmath.MulBlockInPlace(a.frame, a.window)

	for i, v := range a.frame {
		a.in[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		if a.frameErr == nil {
			a.frameErr = err
		}

		return
	}

	for k := range a.re {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}

	vecmath.Power(a.power, a.re, a.im)

	last := len(a.power) - 1
	for k, p := range a.power {
		// one-sided spectrum: fold negative frequencies except DC and Nyquist
		if k != 0 && k != last {
			p *= 2
		}

		a.sum[k] += p * a.norm
	}

	a.frames++
}

// Spectrum returns the averaged one-sided power spectral density per bin,
// scaled so that the bins of a sine of amplitude A sum to A²/2.
func (a *Analyzer) Spectrum() []float64 {
	out := make([]float64, len(a.sum))
	if a.frames == 0 {
		return out
	}

	inv := 1 / float64(a.frames)
	for k, s := range a.sum {
		out[k] = s * inv
	}

	return out
}

// BandPower returns the averaged power between lo and hi Hz.
func (a *Analyzer) BandPower(lo, hi float64) float64 {
	if a.frames == 0 {
		return 0
	}

	var p float64

	for k, s := range a.sum {
		f := a.BinFrequency(k)
		if f >= lo && f < hi {
			p += s
		}
	}

	return p / float64(a.frames)
}

// BandLevelDB returns BandPower in dB, floored at -200 dB.
func (a *Analyzer) BandLevelDB(lo, hi float64) float64 {
	p := a.BandPower(lo, hi)
	if p <= 1e-20 {
		return -200
	}

	return 10 * math.Log10(p)
}

// Centroid returns the power-weighted mean frequency in Hz, or 0 for
// silence.
func (a *Analyzer) Centroid() float64 {
	var num, den float64

	for k, s := range a.sum {
		num += a.BinFrequency(k) * s
		den += s
	}

	if den <= 0 {
		return 0
	}

	return num / den
}

// Reset discards buffered samples and accumulated spectra.
func (a *Analyzer) Reset() {
	clear(a.ring)
	clear(a.sum)
	a.filled = 0
	a.pos = 0
	a.since = 0
	a.frames = 0
	a.frameErr = nil
}
