package loudness

import "math"

// Legacy is an unweighted 400 ms RMS loudness estimate.
//
// Deprecated: Legacy ignores K-weighting and gating and reads several LU
// away from BS.1770 on program material. Use Meter.
type Legacy struct {
	window  int
	squares [][]float64
	sums    []float64
	idx     int
	filled  int
	floor   float64
}

// NewLegacy creates a legacy estimator.
//
// Deprecated: use NewMeter.
func NewLegacy(sampleRate float64, channels int) *Legacy {
	if !(sampleRate > 0) {
		sampleRate = fallbackSampleRate
	}

	channels = max(channels, 1)
	window := max(int(math.Round(0.4*sampleRate)), 1)

	l := &Legacy{
		window:  window,
		squares: make([][]float64, channels),
		sums:    make([]float64, channels),
		floor:   DefaultFloor,
	}

	for ch := range l.squares {
		l.squares[ch] = make([]float64, window)
	}

	return l
}

// ProcessBlock feeds a planar block.
func (l *Legacy) ProcessBlock(block [][]float64) {
	if len(block) == 0 {
		return
	}

	channels := min(len(block), len(l.squares))

	for i := range block[0] {
		for ch := range channels {
			x := block[ch][i]
			sq := x * x
			l.sums[ch] += sq - l.squares[ch][l.idx]
			l.squares[ch][l.idx] = sq
		}

		l.idx = (l.idx + 1) % l.window
		l.filled = min(l.filled+1, l.window)
	}
}

// Loudness returns -0.691 + 10·log10 of the summed channel mean squares.
func (l *Legacy) Loudness() float64 {
	if l.filled == 0 {
		return l.floor
	}

	var ms float64
	for _, s := range l.sums {
		ms += math.Max(s, 0) / float64(l.window)
	}

	if ms <= 0 {
		return l.floor
	}

	return math.Max(-0.691+10*math.Log10(ms), l.floor)
}

// Reset clears the window.
func (l *Legacy) Reset() {
	for ch := range l.squares {
		clear(l.squares[ch])
	}

	clear(l.sums)
	l.idx = 0
	l.filled = 0
}
