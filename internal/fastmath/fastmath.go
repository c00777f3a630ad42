// Package fastmath wraps the approximations used by Eco-tier processing.
//
// Each function trades a few decimal digits of accuracy for speed. Callers
// select between these and package math per block, depending on the active
// processing tier.
package fastmath

import (
	"github.com/meko-christian/algo-approx"
)

const (
	ln2    = 0.693147180559945309417232121458
	ln10   = 2.302585092994045684017991454684
	log2e  = 1 / ln2
	dbToLn = ln10 / 20
)

// Log2 computes log2(x) for x > 0.
func Log2(x float64) float64 {
	return approx.FastLog(x) * log2e
}

// Pow2 computes 2^x.
func Pow2(x float64) float64 {
	return approx.FastExp(x * ln2)
}

// Exp computes e^x.
func Exp(x float64) float64 {
	return approx.FastExp(x)
}

// Sqrt computes the square root of x >= 0.
func Sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}

	return approx.FastSqrt(x)
}

// LinearToDB computes 20*log10(x) for x > 0.
func LinearToDB(x float64) float64 {
	return approx.FastLog(x) / dbToLn
}

// DBToLinear computes 10^(db/20).
func DBToLinear(db float64) float64 {
	return approx.FastExp(db * dbToLn)
}

// Sin computes sin(x).
func Sin(x float64) float64 {
	return approx.FastSin(x)
}

// Tanh is a clamped rational approximation of tanh, exact at 0 and
// saturating to ±1 beyond |x| = 3.
func Tanh(x float64) float64 {
	switch {
	case x > 3:
		return 1
	case x < -3:
		return -1
	}

	x2 := x * x

	return x * (27 + x2) / (27 + 9*x2)
}
