package weighting

import (
	"fmt"
	"math"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/filter/biquad"
)

// BS.1770 analog prototype parameters.
const (
	shelfFreq = 1681.974450955533
	shelfGain = 3.999843853973347
	shelfQ    = 0.7071752369554196

	rlbFreq = 38.13547087602444
	rlbQ    = 0.5003270373238773
)

// Type identifies which part of the K-weighting cascade to build.
type Type int

const (
	// TypeK is the full K-weighting curve: pre-filter followed by RLB.
	TypeK Type = iota

	// TypePreFilter is the high-shelf stage alone.
	TypePreFilter

	// TypeRLB is the revised low-frequency B-curve high-pass alone.
	TypeRLB

	// TypeZ applies no weighting.
	TypeZ
)

// String returns a human-readable name for the weighting type.
func (t Type) String() string {
	switch t {
	case TypeK:
		return "K"
	case TypePreFilter:
		return "PreFilter"
	case TypeRLB:
		return "RLB"
	case TypeZ:
		return "Z"
	default:
		return "Unknown"
	}
}

// New returns a [biquad.Chain] configured for the given weighting curve at
// the specified sample rate.
func New(t Type, sampleRate float64) (*biquad.Chain, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("weighting: sample rate must be positive and finite: %f", sampleRate)
	}

	switch t {
	case TypeK:
		return biquad.NewChain([]biquad.Coefficients{PreFilter(sampleRate), RLB(sampleRate)}), nil
	case TypePreFilter:
		return biquad.NewChain([]biquad.Coefficients{PreFilter(sampleRate)}), nil
	case TypeRLB:
		return biquad.NewChain([]biquad.Coefficients{RLB(sampleRate)}), nil
	case TypeZ:
		return biquad.NewChain([]biquad.Coefficients{{B0: 1}}), nil
	default:
		return nil, fmt.Errorf("weighting: unknown type %d", int(t))
	}
}

// PreFilter returns the high-shelf stage coefficients for sampleRate.
func PreFilter(sampleRate float64) biquad.Coefficients {
	k := math.Tan(math.Pi * shelfFreq / sampleRate)
	vh := math.Pow(10, shelfGain/20)
	vb := math.Pow(vh, 0.4996667741545416)
	a0 := 1 + k/shelfQ + k*k

	return biquad.Coefficients{
		B0: (vh + vb*k/shelfQ + k*k) / a0,
		B1: 2 * (k*k - vh) / a0,
		B2: (vh - vb*k/shelfQ + k*k) / a0,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/shelfQ + k*k) / a0,
	}
}

// RLB returns the high-pass stage coefficients for sampleRate. The
// numerator is left unnormalised (1, -2, 1) as in the recommendation.
func RLB(sampleRate float64) biquad.Coefficients {
	k := math.Tan(math.Pi * rlbFreq / sampleRate)
	a0 := 1 + k/rlbQ + k*k

	return biquad.Coefficients{
		B0: 1,
		B1: -2,
		B2: 1,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/rlbQ + k*k) / a0,
	}
}
