package envelope

import (
	"fmt"
	"math"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/internal/fastmath"
)

// DefaultRMSWindow is the RMS window length in samples.
const DefaultRMSWindow = 128

// RMS is a sliding-window RMS detector.
//
// The running sum is recomputed from the window once per revolution so
// rounding error cannot accumulate.
type RMS struct {
	window int
	eco    bool
	buf    [][]float64
	sum    []float64
	pos    []int
}

// NewRMS creates an RMS detector with a window of n samples for channels
// channels. n <= 0 selects DefaultRMSWindow.
func NewRMS(n, channels int) (*RMS, error) {
	if channels < 1 {
		return nil, fmt.Errorf("envelope: channels must be >= 1: %d", channels)
	}

	if n <= 0 {
		n = DefaultRMSWindow
	}

	r := &RMS{
		window: n,
		buf:    make([][]float64, channels),
		sum:    make([]float64, channels),
		pos:    make([]int, channels),
	}
	for ch := range r.buf {
		r.buf[ch] = make([]float64, n)
	}

	return r, nil
}

// SetEco selects the fast square root.
func (r *RMS) SetEco(eco bool) { r.eco = eco }

// Window returns the window length in samples.
func (r *RMS) Window() int { return r.window }

// Process feeds one sample of channel ch and returns the current RMS.
func (r *RMS) Process(x float64, ch int) float64 {
	buf := r.buf[ch]
	p := r.pos[ch]
	sq := x * x

	r.sum[ch] += sq - buf[p]
	buf[p] = sq

	p++
	if p == r.window {
		p = 0

		var s float64
		for _, v := range buf {
			s += v
		}

		r.sum[ch] = s
	}

	r.pos[ch] = p

	ms := r.sum[ch] / float64(r.window)
	if ms <= 0 {
		return 0
	}

	if r.eco {
		return fastmath.Sqrt(ms)
	}

	return math.Sqrt(ms)
}

// Reset clears all channels.
func (r *RMS) Reset() {
	for ch := range r.buf {
		clear(r.buf[ch])
		r.sum[ch] = 0
		r.pos[ch] = 0
	}
}
