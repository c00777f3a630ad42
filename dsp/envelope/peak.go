package envelope

import (
	"fmt"
	"math"
)

// Peak is a one-pole attack/release follower on |x|.
type Peak struct {
	sampleRate  float64
	attackMs    float64
	releaseMs   float64
	attackCoef  float64
	releaseCoef float64
	env         []float64
}

// NewPeak creates a peak follower for channels channels.
func NewPeak(sampleRate float64, channels int, attackMs, releaseMs float64) (*Peak, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("envelope: sample rate must be positive and finite: %f", sampleRate)
	}

	if channels < 1 {
		return nil, fmt.Errorf("envelope: channels must be >= 1: %d", channels)
	}

	p := &Peak{sampleRate: sampleRate, env: make([]float64, channels)}
	if err := p.SetTimes(attackMs, releaseMs); err != nil {
		return nil, err
	}

	return p, nil
}

// SetTimes updates attack and release in milliseconds. Zero attack gives an
// instantaneous rise.
func (p *Peak) SetTimes(attackMs, releaseMs float64) error {
	if attackMs < 0 || math.IsNaN(attackMs) || math.IsInf(attackMs, 0) {
		return fmt.Errorf("envelope: attack must be >= 0: %f", attackMs)
	}

	if !(releaseMs > 0) || math.IsInf(releaseMs, 0) {
		return fmt.Errorf("envelope: release must be > 0: %f", releaseMs)
	}

	p.attackMs = attackMs
	p.releaseMs = releaseMs
	p.attackCoef = msToCoeff(attackMs, p.sampleRate)
	p.releaseCoef = msToCoeff(releaseMs, p.sampleRate)

	return nil
}

// Attack returns the attack time in milliseconds.
func (p *Peak) Attack() float64 { return p.attackMs }

// Release returns the release time in milliseconds.
func (p *Peak) Release() float64 { return p.releaseMs }

// Process feeds one sample of channel ch and returns the envelope.
func (p *Peak) Process(x float64, ch int) float64 {
	a := math.Abs(x)
	e := p.env[ch]

	if a > e {
		e += p.attackCoef * (a - e)
	} else {
		e += p.releaseCoef * (a - e)
	}

	if e < 1e-30 {
		e = 0
	}

	p.env[ch] = e

	return e
}

// Value returns the current envelope of channel ch.
func (p *Peak) Value(ch int) float64 { return p.env[ch] }

// Reset clears all channels.
func (p *Peak) Reset() { clear(p.env) }

// msToCoeff returns the per-sample smoothing coefficient for a time
// constant in milliseconds. Non-positive times are instantaneous.
func msToCoeff(ms, sampleRate float64) float64 {
	if ms <= 0 {
		return 1
	}

	return 1 - math.Exp(-1/(ms*0.001*sampleRate))
}
