package oversample

// stage is one 2x half-band step of a cascade. Implementations keep
// independent up and down state per channel.
type stage interface {
	// up writes 2*len(src) samples into dst.
	up(dst, src []float64, ch int)
	// down writes len(src)/2 samples into dst.
	down(dst, src []float64, ch int)
	reset()
	// delay is the combined up+down group delay in samples at the stage's
	// high rate.
	delay() float64
}

// iirStage is a polyphase IIR half-band: two chains of first-order allpass
// sections (in the low-rate domain) whose outputs form the even and odd
// high-rate phases.
type iirStage struct {
	coeffs []float64
	upX    [][]float64
	upY    [][]float64
	downX  [][]float64
	downY  [][]float64
}

func newIIRStage(coeffs []float64, channels int) *iirStage {
	s := &iirStage{coeffs: coeffs}
	s.upX = makeState(channels, len(coeffs))
	s.upY = makeState(channels, len(coeffs))
	s.downX = makeState(channels, len(coeffs))
	s.downY = makeState(channels, len(coeffs))

	return s
}

func makeState(channels, n int) [][]float64 {
	st := make([][]float64, channels)
	for i := range st {
		st[i] = make([]float64, n)
	}

	return st
}

// allpassPair runs a through the even-index coefficients and b through the
// odd-index ones.
func allpassPair(coeffs, x, y []float64, a, b float64) (float64, float64) {
	n := len(coeffs)
	for i := 0; i+1 < n; i += 2 {
		ta := (a-y[i])*coeffs[i] + x[i]
		tb := (b-y[i+1])*coeffs[i+1] + x[i+1]
		x[i], x[i+1] = a, b
		y[i], y[i+1] = ta, tb
		a, b = ta, tb
	}

	if n%2 == 1 {
		i := n - 1
		ta := (a-y[i])*coeffs[i] + x[i]
		x[i] = a
		y[i] = ta
		a = ta
	}

	return a, b
}

func (s *iirStage) up(dst, src []float64, ch int) {
	x, y := s.upX[ch], s.upY[ch]
	for i, v := range src {
		a, b := allpassPair(s.coeffs, x, y, v, v)
		dst[2*i] = a
		dst[2*i+1] = b
	}

	flushState(y)
}

func (s *iirStage) down(dst, src []float64, ch int) {
	x, y := s.downX[ch], s.downY[ch]
	for i := range len(src) / 2 {
		a, b := allpassPair(s.coeffs, x, y, src[2*i+1], src[2*i])
		dst[i] = 0.5 * (a + b)
	}

	flushState(y)
}

func (s *iirStage) reset() {
	for ch := range s.upX {
		clear(s.upX[ch])
		clear(s.upY[ch])
		clear(s.downX[ch])
		clear(s.downY[ch])
	}
}

func (s *iirStage) delay() float64 { return 0 }

func flushState(y []float64) {
	for i, v := range y {
		if v > -1e-30 && v < 1e-30 {
			y[i] = 0
		}
	}
}

// firStage is a linear-phase half-band FIR split into two polyphase
// branches for interpolation and evaluated at every other output for
// decimation.
type firStage struct {
	taps []float64
	even []float64 // 2*taps[0], 2*taps[2], ...
	odd  []float64 // 2*taps[1], 2*taps[3], ...

	upHist   [][]float64
	upPos    []int
	downHist [][]float64
	downPos  []int
}

func newFIRStage(taps []float64, channels int) *firStage {
	s := &firStage{taps: taps}

	for i, h := range taps {
		if i%2 == 0 {
			s.even = append(s.even, 2*h)
		} else {
			s.odd = append(s.odd, 2*h)
		}
	}

	// Histories are stored twice so a contiguous window is always
	// available without wrapping.
	s.upHist = makeState(channels, 2*len(s.even))
	s.upPos = make([]int, channels)
	s.downHist = makeState(channels, 2*len(taps))
	s.downPos = make([]int, channels)

	return s
}

func (s *firStage) up(dst, src []float64, ch int) {
	hist := s.upHist[ch]
	n := len(s.even)
	pos := s.upPos[ch]

	for i, v := range src {
		pos--
		if pos < 0 {
			pos = n - 1
		}

		hist[pos] = v
		hist[pos+n] = v

		w := hist[pos : pos+n]

		var acc0 float64
		for k, h := range s.even {
			acc0 += h * w[k]
		}

		var acc1 float64
		for k, h := range s.odd {
			acc1 += h * w[k]
		}

		dst[2*i] = acc0
		dst[2*i+1] = acc1
	}

	s.upPos[ch] = pos
}

func (s *firStage) down(dst, src []float64, ch int) {
	hist := s.downHist[ch]
	n := len(s.taps)
	pos := s.downPos[ch]

	// Outputs are aligned to the even input phase so the up/down round
	// trip has an integer delay at the base rate.
	for i := range len(src) / 2 {
		pos--
		if pos < 0 {
			pos = n - 1
		}

		hist[pos] = src[2*i]
		hist[pos+n] = src[2*i]

		w := hist[pos : pos+n]

		var acc float64
		for k, h := range s.taps {
			acc += h * w[k]
		}

		dst[i] = acc

		pos--
		if pos < 0 {
			pos = n - 1
		}

		hist[pos] = src[2*i+1]
		hist[pos+n] = src[2*i+1]
	}

	s.downPos[ch] = pos
}

func (s *firStage) reset() {
	for ch := range s.upHist {
		clear(s.upHist[ch])
		clear(s.downHist[ch])
		s.upPos[ch] = 0
		s.downPos[ch] = 0
	}
}

func (s *firStage) delay() float64 {
	return float64(len(s.taps) - 1)
}
