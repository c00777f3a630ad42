package loudness

import "math"

const (
	histMin  = -70.0
	histMax  = 5.0
	histStep = 0.01
	histBins = int((histMax - histMin) / histStep)
)

// histogram stores block loudness values at 0.01 LU resolution together
// with the summed linear power of each bin, so gated means and percentiles
// are O(bins) without keeping every block.
type histogram struct {
	counts []uint32
	powers []float64
	total  uint64
}

func newHistogram() *histogram {
	return &histogram{
		counts: make([]uint32, histBins),
		powers: make([]float64, histBins),
	}
}

func binOf(lufs float64) int {
	return min(int((lufs-histMin)/histStep), histBins-1)
}

func binCenter(b int) float64 {
	return histMin + (float64(b)+0.5)*histStep
}

// add records a block. Blocks at or below the absolute gate are dropped.
func (h *histogram) add(lufs, power float64) {
	if !(lufs > histMin) {
		return
	}

	b := binOf(lufs)
	h.counts[b]++
	h.powers[b] += power
	h.total++
}

// meanPower returns the mean linear power of blocks louder than gate.
func (h *histogram) meanPower(gate float64) (float64, uint64) {
	start := 0
	if gate > histMin {
		start = binOf(gate)
	}

	var (
		sum float64
		n   uint64
	)

	for b := start; b < histBins; b++ {
		if b == start && binCenter(b) <= gate {
			continue
		}

		sum += h.powers[b]
		n += uint64(h.counts[b])
	}

	if n == 0 {
		return 0, 0
	}

	return sum / float64(n), n
}

// percentiles returns the loudness at fractions lo and hi of the blocks
// louder than gate.
func (h *histogram) percentiles(gate, lo, hi float64) (float64, float64, bool) {
	start := 0
	if gate > histMin {
		start = binOf(gate) + 1
	}

	var n uint64
	for b := start; b < histBins; b++ {
		n += uint64(h.counts[b])
	}

	if n == 0 {
		return 0, 0, false
	}

	loRank := uint64(math.Floor(lo * float64(n-1)))
	hiRank := uint64(math.Floor(hi * float64(n-1)))

	var (
		seen         uint64
		loVal, hiVal float64
		loSet        bool
	)

	for b := start; b < histBins; b++ {
		c := uint64(h.counts[b])
		if c == 0 {
			continue
		}

		seen += c

		if !loSet && seen > loRank {
			loVal = binCenter(b)
			loSet = true
		}

		if seen > hiRank {
			hiVal = binCenter(b)
			break
		}
	}

	return loVal, hiVal, true
}

func (h *histogram) reset() {
	clear(h.counts)
	clear(h.powers)
	h.total = 0
}
