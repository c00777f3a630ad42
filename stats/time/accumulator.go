package time

import "math"

// Summary holds whole-signal statistics for one channel.
//
//nolint:revive
type Summary struct {
	Length         int
	DC             float64
	RMS            float64
	RMS_dB         float64
	Peak           float64
	Peak_dB        float64
	CrestFactor_dB float64
	ZeroCrossings  int
}

// Accumulator gathers per-channel statistics across successive blocks.
type Accumulator struct {
	n     []int
	sum   []float64
	sumSq []float64
	peak  []float64
	zc    []int
	last  []float64
}

// NewAccumulator creates an accumulator for channels channels.
func NewAccumulator(channels int) *Accumulator {
	channels = max(channels, 1)

	return &Accumulator{
		n:     make([]int, channels),
		sum:   make([]float64, channels),
		sumSq: make([]float64, channels),
		peak:  make([]float64, channels),
		zc:    make([]int, channels),
		last:  make([]float64, channels),
	}
}

// Update adds one multi-channel block.
func (a *Accumulator) Update(block [][]float64) {
	for ch := range min(len(block), len(a.n)) {
		for _, x := range block[ch] {
			if a.n[ch] > 0 && a.last[ch]*x < 0 {
				a.zc[ch]++
			}

			a.n[ch]++
			a.sum[ch] += x
			a.sumSq[ch] += x * x
			a.peak[ch] = math.Max(a.peak[ch], math.Abs(x))
			a.last[ch] = x
		}
	}
}

// UpdateFloat32 adds one float32 block.
func (a *Accumulator) UpdateFloat32(block [][]float32) {
	for ch := range min(len(block), len(a.n)) {
		for _, v := range block[ch] {
			x := float64(v)
			if a.n[ch] > 0 && a.last[ch]*x < 0 {
				a.zc[ch]++
			}

			a.n[ch]++
			a.sum[ch] += x
			a.sumSq[ch] += x * x
			a.peak[ch] = math.Max(a.peak[ch], math.Abs(x))
			a.last[ch] = x
		}
	}
}

// Channels returns the number of channels tracked.
func (a *Accumulator) Channels() int { return len(a.n) }

// Result returns the summary of channel ch.
func (a *Accumulator) Result(ch int) Summary {
	if ch < 0 || ch >= len(a.n) || a.n[ch] == 0 {
		return Summary{RMS_dB: math.Inf(-1), Peak_dB: math.Inf(-1)}
	}

	nf := float64(a.n[ch])
	rms := math.Sqrt(a.sumSq[ch] / nf)
	peak := a.peak[ch]

	s := Summary{
		Length:        a.n[ch],
		DC:            a.sum[ch] / nf,
		RMS:           rms,
		RMS_dB:        ampTodB(rms),
		Peak:          peak,
		Peak_dB:       ampTodB(peak),
		ZeroCrossings: a.zc[ch],
	}

	if rms > 0 {
		s.CrestFactor_dB = 20 * math.Log10(peak/rms)
	}

	return s
}

// Reset clears all accumulated data.
func (a *Accumulator) Reset() {
	for ch := range a.n {
		a.n[ch] = 0
		a.sum[ch] = 0
		a.sumSq[ch] = 0
		a.peak[ch] = 0
		a.zc[ch] = 0
		a.last[ch] = 0
	}
}

func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}
