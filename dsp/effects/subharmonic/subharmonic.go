// Package subharmonic synthesises an octave-down bass line from the low band
// of the input.
package subharmonic

import (
	"fmt"
	"math"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/saturation"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/envelope"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/filter/biquad"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/filter/design"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/smooth"
)

const (
	// BandFrequency is the corner of the analysis low-pass.
	BandFrequency = 120.0
	// SmoothFrequency is the corner of the low-pass applied to the divider
	// output.
	SmoothFrequency = 90.0

	envelopeAttackMs  = 5.0
	envelopeReleaseMs = 50.0

	// the divider holds its state below this band level
	minThreshold      = 1e-4
	relativeThreshold = 0.1
	butterworthQ      = 1 / math.Sqrt2
)

type divider struct {
	armed bool
	sign  float64
}

// Subharmonic halves the frequency of the dominant low-band partial with a
// zero-crossing flip-flop, shapes it with the band envelope, smooths it and
// mixes it under the input.
//
// This processor is real-time safe and not thread-safe, except SetAmount.
type Subharmonic struct {
	sampleRate float64

	band     []*biquad.Chain
	smoother []*biquad.Chain
	env      *envelope.Peak
	dividers []divider
	amount   smooth.Smoother
}

// New creates a subharmonic generator for channels channels at sampleRate.
func New(sampleRate float64, channels int) (*Subharmonic, error) {
	if sampleRate <= 2*BandFrequency || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("subharmonic sample rate must exceed %g Hz: %f", 2*BandFrequency, sampleRate)
	}

	if channels < 1 {
		return nil, fmt.Errorf("subharmonic channels must be positive: %d", channels)
	}

	env, err := envelope.NewPeak(sampleRate, channels, envelopeAttackMs, envelopeReleaseMs)
	if err != nil {
		return nil, err
	}

	s := &Subharmonic{
		sampleRate: sampleRate,
		band:       make([]*biquad.Chain, channels),
		smoother:   make([]*biquad.Chain, channels),
		env:        env,
		dividers:   make([]divider, channels),
	}

	lp := design.Lowpass(BandFrequency, butterworthQ, sampleRate)
	post := design.Lowpass(SmoothFrequency, butterworthQ, sampleRate)

	for ch := range channels {
		s.band[ch] = biquad.NewChain([]biquad.Coefficients{lp, lp})
		s.smoother[ch] = biquad.NewChain([]biquad.Coefficients{post, post})
	}

	s.amount.Prepare(sampleRate, 0.02)
	s.Reset()

	return s, nil
}

// SetAmount sets the mix level of the synthesised octave in [0, 1].
func (s *Subharmonic) SetAmount(amount float64) error {
	if amount < 0 || amount > 1 || math.IsNaN(amount) {
		return fmt.Errorf("subharmonic amount must be in [0, 1]: %f", amount)
	}

	s.amount.SetTarget(amount)

	return nil
}

// Amount returns the target amount.
func (s *Subharmonic) Amount() float64 { return s.amount.Target() }

// Channels returns the number of prepared channels.
func (s *Subharmonic) Channels() int { return len(s.dividers) }

// ProcessBlock adds the octave-down signal to block in place.
func (s *Subharmonic) ProcessBlock(block [][]float64) {
	if len(block) == 0 {
		return
	}

	channels := min(len(block), len(s.dividers))
	n := len(block[0])

	for i := range n {
		amount := s.amount.Next()

		for ch := range channels {
			x := block[ch][i]
			sub := s.next(x, ch)

			if amount == 0 {
				continue
			}

			block[ch][i] = saturation.SoftBound(x + amount*sub)
		}
	}
}

// next runs the analysis path. It must run even at zero amount so the
// filters and divider stay in phase with the input.
func (s *Subharmonic) next(x float64, ch int) float64 {
	b := s.band[ch].ProcessSample(x)
	e := s.env.Process(b, ch)

	d := &s.dividers[ch]

	thr := max(minThreshold, relativeThreshold*e)
	switch {
	case !d.armed && b > thr:
		d.armed = true
		d.sign = -d.sign
	case d.armed && b < -thr:
		d.armed = false
	}

	sq := 0.0
	if e > minThreshold {
		sq = d.sign * e
	}

	return s.smoother[ch].ProcessSample(sq)
}

// Reset clears filter, envelope and divider state. The amount snaps to its
// target.
func (s *Subharmonic) Reset() {
	for ch := range s.dividers {
		s.band[ch].Reset()
		s.smoother[ch].Reset()
		s.dividers[ch] = divider{sign: 1}
	}

	s.env.Reset()
	s.amount.Reset(s.amount.Target())
}
