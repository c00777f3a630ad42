package oversample

import (
	"errors"
	"fmt"
	"math"
)

// IIR half-band design: elliptic allpass-pair coefficients for a given
// coefficient count and normalized transition bandwidth.
func designIIR(numberOfCoeffs int, transition float64) ([]float64, error) {
	if numberOfCoeffs < 1 {
		return nil, fmt.Errorf("oversample: number of coefficients must be >= 1: %d", numberOfCoeffs)
	}

	if !(transition > 0) || transition >= 0.5 {
		return nil, fmt.Errorf("oversample: transition must be in (0, 0.5): %g", transition)
	}

	k, q := transitionParam(transition)
	order := numberOfCoeffs*2 + 1

	coeffs := make([]float64, numberOfCoeffs)
	for i := range numberOfCoeffs {
		coeffs[i] = allpassCoefficient(i, k, q, order)
		if !(math.Abs(coeffs[i]) < 1) {
			return nil, fmt.Errorf("oversample: unstable allpass coefficient[%d]: %g", i, coeffs[i])
		}
	}

	return coeffs, nil
}

// iirAttenuation returns the stopband attenuation in dB of an IIR half-band
// with the given coefficient count and transition bandwidth.
func iirAttenuation(numberOfCoeffs int, transition float64) float64 {
	_, q := transitionParam(transition)
	order := numberOfCoeffs*2 + 1
	v := 4 * math.Exp(float64(order)*0.5*math.Log(q))

	return -10 * math.Log10(v/(1+v))
}

func transitionParam(transition float64) (k, q float64) {
	k = math.Pow(math.Tan((1-transition*2)*math.Pi*0.25), 2)
	kksqrt := math.Pow(1-k*k, 0.25)
	e := 0.5 * (1 - kksqrt) / (1 + kksqrt)
	e4 := e * e * e * e
	q = e * (1 + e4*(2+e4*(15+150*e4)))

	return k, q
}

func allpassCoefficient(index int, k, q float64, order int) float64 {
	c := float64(index + 1)
	o := float64(order)

	var num float64

	sign := 1.0
	for i := 0; ; i++ {
		term := math.Pow(q, float64(i*(i+1))) * math.Sin(float64(2*i+1)*c*math.Pi/o) * sign
		num += term
		sign = -sign

		if math.Abs(term) <= 1e-100 {
			break
		}
	}

	var den float64

	sign = -1.0
	for i := 1; ; i++ {
		term := math.Pow(q, float64(i*i)) * math.Cos(2*float64(i)*c*math.Pi/o) * sign
		den += term
		sign = -sign

		if math.Abs(term) <= 1e-100 {
			break
		}
	}

	num *= math.Pow(q, 0.25)
	den += 0.5
	ww := (num * num) / (den * den)

	r := math.Sqrt((1-ww*k)*(1-ww/k)) / (1 + ww)

	return (1 - r) / (1 + r)
}

// FIR half-band design: Kaiser-windowed sinc with cutoff at a quarter of
// the high rate. Taps must be of the form 4m+3 so the centre tap lands on an
// odd index and every other tap is exactly zero.
func designFIR(taps int, attenuationDB float64) ([]float64, error) {
	if taps < 3 || (taps-3)%4 != 0 {
		return nil, fmt.Errorf("oversample: half-band taps must be 4m+3: %d", taps)
	}

	beta := kaiserBeta(attenuationDB)
	h := make([]float64, taps)
	center := (taps - 1) / 2

	var sum float64

	for n := range taps {
		d := n - center
		switch {
		case d == 0:
			h[n] = 0.5
		case d%2 == 0:
			h[n] = 0
		default:
			h[n] = 0.5 * sinc(0.5*float64(d)) * kaiserWindow(n, taps, beta)
		}

		sum += h[n]
	}

	if sum == 0 {
		return nil, errors.New("oversample: designed zero-sum filter")
	}

	for i := range h {
		h[i] /= sum
	}

	return h, nil
}

func kaiserBeta(attenuationDB float64) float64 {
	switch {
	case attenuationDB > 50:
		return 0.1102 * (attenuationDB - 8.7)
	case attenuationDB >= 21:
		return 0.5842*math.Pow(attenuationDB-21, 0.4) + 0.07886*(attenuationDB-21)
	default:
		return 0
	}
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}

func kaiserWindow(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}

	t := 2*float64(i)/float64(n-1) - 1
	a := math.Sqrt(math.Max(0, 1-t*t))

	return besselI0(beta*a) / besselI0(beta)
}

func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0

	x2 := (x * x) / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)

		sum += term
		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
