package envelope

import (
	"fmt"
	"math"
)

// Transient reports how much a signal is currently rising above its
// sustained level, as an amount in [0, 1].
//
// A fast and a slow peak follower run side by side; their difference is
// normalised by the adaptive threshold of the slow envelope so that the
// same musical accent produces a similar reading at any program level.
type Transient struct {
	fast     *Peak
	slow     *Peak
	adaptive *Adaptive
	amount   []float64
}

// NewTransient creates a transient detector with default time constants.
func NewTransient(sampleRate float64, channels int) (*Transient, error) {
	fast, err := NewPeak(sampleRate, channels, 0.1, 20)
	if err != nil {
		return nil, fmt.Errorf("transient: %w", err)
	}

	slow, err := NewPeak(sampleRate, channels, 15, 150)
	if err != nil {
		return nil, fmt.Errorf("transient: %w", err)
	}

	return &Transient{
		fast:     fast,
		slow:     slow,
		adaptive: NewAdaptive(sampleRate, channels, DefaultThresholdRiseMs, DefaultThresholdFallMs),
		amount:   make([]float64, channels),
	}, nil
}

// Process feeds one sample of channel ch and returns the transient amount.
func (t *Transient) Process(x float64, ch int) float64 {
	f := t.fast.Process(x, ch)
	s := t.slow.Process(x, ch)
	t.adaptive.Process(s, ch)

	d := (f - s) / t.adaptive.Threshold(ch)
	amt := math.Min(math.Max(d, 0), 1)
	t.amount[ch] = amt

	return amt
}

// Amount returns the last transient amount of channel ch.
func (t *Transient) Amount(ch int) float64 { return t.amount[ch] }

// Reset clears all state.
func (t *Transient) Reset() {
	t.fast.Reset()
	t.slow.Reset()
	t.adaptive.Reset()
	clear(t.amount)
}
