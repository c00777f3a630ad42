package safety

import (
	"fmt"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/filter/tpt"
)

// DefaultDCCutoff is the DC blocker corner frequency in Hz.
const DefaultDCCutoff = 5.0

// DCBlocker removes DC offset with a per-channel TPT one-pole high-pass.
type DCBlocker struct {
	cutoff  float64
	filters []tpt.OnePole
}

// NewDCBlocker creates a DC blocker with the given cutoff. A non-positive
// cutoff selects DefaultDCCutoff.
func NewDCBlocker(cutoff float64) *DCBlocker {
	if !(cutoff > 0) {
		cutoff = DefaultDCCutoff
	}

	return &DCBlocker{cutoff: cutoff}
}

// Prepare allocates per-channel state for sampleRate.
func (d *DCBlocker) Prepare(sampleRate float64, channels int) error {
	if channels < 1 {
		return fmt.Errorf("dc blocker: channels must be >= 1: %d", channels)
	}

	d.filters = make([]tpt.OnePole, channels)
	for i := range d.filters {
		if err := d.filters[i].Prepare(sampleRate, d.cutoff); err != nil {
			return fmt.Errorf("dc blocker: %w", err)
		}
	}

	return nil
}

// Cutoff returns the corner frequency in Hz.
func (d *DCBlocker) Cutoff() float64 { return d.cutoff }

// ProcessSample filters one sample of channel ch.
func (d *DCBlocker) ProcessSample(x float64, ch int) float64 {
	return d.filters[ch].HighPass(x)
}

// ProcessBlock filters every channel of block in place. Channels beyond the
// prepared count are left untouched.
func (d *DCBlocker) ProcessBlock(block [][]float64) {
	for ch := range min(len(block), len(d.filters)) {
		f := &d.filters[ch]
		buf := block[ch]

		for i, x := range buf {
			buf[i] = f.HighPass(x)
		}
	}
}

// Reset clears all channel states.
func (d *DCBlocker) Reset() {
	for i := range d.filters {
		d.filters[i].Reset()
	}
}
