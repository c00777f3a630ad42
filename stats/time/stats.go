// Package time provides time-domain block statistics: peak, RMS, DC offset
// and crest factor for single channels and multi-channel blocks.
//
// The scalar helpers are allocation free and used on the audio goroutine by
// the adaptive oversampling controller. [Accumulator] gathers whole-render
// summaries for offline reports.
package time

import "math"

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// DC returns the mean (DC offset) of the signal.
func DC(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	// Kahan summation.
	var sum, c float64
	for _, x := range signal {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(signal))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	var peak float64
	for _, x := range signal {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}

	return peak
}

// CrestFactor returns peak / RMS. Returns 0 if RMS is zero.
func CrestFactor(signal []float64) float64 {
	r := RMS(signal)
	if r == 0 {
		return 0
	}

	return Peak(signal) / r
}

// CrestFactorDB returns the crest factor in dB. Silent signals yield 0.
func CrestFactorDB(signal []float64) float64 {
	cf := CrestFactor(signal)
	if cf == 0 {
		return 0
	}

	return 20 * math.Log10(cf)
}

// BlockPeak returns the largest absolute sample over all channels.
func BlockPeak(block [][]float64) float64 {
	var peak float64
	for _, ch := range block {
		peak = math.Max(peak, Peak(ch))
	}

	return peak
}

// BlockRMS returns the RMS over all samples of all channels.
func BlockRMS(block [][]float64) float64 {
	var (
		sumSq float64
		n     int
	)

	for _, ch := range block {
		for _, x := range ch {
			sumSq += x * x
		}

		n += len(ch)
	}

	if n == 0 {
		return 0
	}

	return math.Sqrt(sumSq / float64(n))
}

// BlockCrestFactorDB returns the largest per-channel crest factor in dB.
func BlockCrestFactorDB(block [][]float64) float64 {
	var cf float64
	for _, ch := range block {
		cf = math.Max(cf, CrestFactorDB(ch))
	}

	return cf
}
