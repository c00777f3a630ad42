// Package tpt provides topology-preserving transform (zero-delay feedback)
// one-pole filters.
//
// A TPT one-pole keeps its cutoff accurate up to Nyquist and stays stable
// under per-sample cutoff modulation, which makes it the building block for
// DC blockers and envelope followers elsewhere in the module.
package tpt

import (
	"fmt"
	"math"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"
)

// OnePole is a TPT one-pole filter producing low-pass and high-pass outputs
// from one shared integrator state.
type OnePole struct {
	sampleRate float64
	cutoff     float64
	g          float64
	s          float64
}

// NewOnePole creates a one-pole filter at cutoff Hz.
func NewOnePole(sampleRate, cutoff float64) (*OnePole, error) {
	f := &OnePole{}
	if err := f.Prepare(sampleRate, cutoff); err != nil {
		return nil, err
	}

	return f, nil
}

// Prepare sets sample rate and cutoff and clears the state.
func (f *OnePole) Prepare(sampleRate, cutoff float64) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("tpt: sample rate must be positive and finite: %f", sampleRate)
	}

	f.sampleRate = sampleRate
	f.s = 0

	return f.SetCutoff(cutoff)
}

// SetCutoff updates the cutoff frequency without touching state.
// Cutoff must lie in (0, sampleRate/2).
func (f *OnePole) SetCutoff(cutoff float64) error {
	nyquist := f.sampleRate / 2
	if !(cutoff > 0) || cutoff >= nyquist {
		return fmt.Errorf("tpt: cutoff must be in (0, %f): %f", nyquist, cutoff)
	}

	f.cutoff = cutoff
	wc := math.Tan(math.Pi * cutoff / f.sampleRate)
	f.g = wc / (1 + wc)

	return nil
}

// Cutoff returns the current cutoff in Hz.
func (f *OnePole) Cutoff() float64 { return f.cutoff }

// LowPass processes one sample and returns the low-pass output.
func (f *OnePole) LowPass(x float64) float64 {
	v := (x - f.s) * f.g
	lp := v + f.s
	f.s = core.FlushDenormals(lp + v)

	return lp
}

// HighPass processes one sample and returns the high-pass output.
func (f *OnePole) HighPass(x float64) float64 {
	return x - f.LowPass(x)
}

// Reset clears the integrator state.
func (f *OnePole) Reset() { f.s = 0 }

// ResetTo sets the integrator so a constant input x passes without a
// transient on the low-pass output.
func (f *OnePole) ResetTo(x float64) { f.s = x }
