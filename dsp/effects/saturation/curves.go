package saturation

import (
	"fmt"
	"math"
)

// Mode selects the saturation curve family.
type Mode int

const (
	// ModeSine is a sine fold-over that clamps smoothly beyond unity.
	ModeSine Mode = iota
	// ModeDrive is a symmetric asymptotic drive curve.
	ModeDrive
	// ModeHysteresis is a magnetic tape/core model with memory.
	ModeHysteresis
	// ModeTransformer adds even harmonics through an asymmetric bend.
	ModeTransformer
	// ModeTube mixes odd and even harmonics through a biased tanh.
	ModeTube

	numModes
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSine:
		return "sine"
	case ModeDrive:
		return "drive"
	case ModeHysteresis:
		return "hysteresis"
	case ModeTransformer:
		return "transformer"
	case ModeTube:
		return "tube"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name to its value.
func ParseMode(s string) (Mode, error) {
	for m := ModeSine; m < numModes; m++ {
		if m.String() == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("saturation: unknown mode %q", s)
}

func validMode(m Mode) bool { return m >= ModeSine && m < numModes }

// Curve is a waveshaper. Stateful curves keep separate state per channel.
type Curve interface {
	Shape(x float64, ch int) float64
	Reset()
}

// Sine shapes with sin(π/2·x) inside [-1, 1] and holds ±1 beyond, which is
// continuous in value and slope at the joint.
type Sine struct {
	sin func(float64) float64
}

// Shape implements Curve.
func (s Sine) Shape(x float64, _ int) float64 {
	switch {
	case x >= 1:
		return 1
	case x <= -1:
		return -1
	case s.sin != nil:
		return s.sin(math.Pi / 2 * x)
	default:
		return math.Sin(math.Pi / 2 * x)
	}
}

// Reset implements Curve.
func (Sine) Reset() {}

// Drive is x / (1+|x|^k)^(1/k). Larger Knee values give a harder bend.
type Drive struct {
	Knee float64
}

// Shape implements Curve.
func (d Drive) Shape(x float64, _ int) float64 {
	k := d.Knee
	if k <= 0 {
		k = 2.5
	}

	return x / math.Pow(1+math.Pow(math.Abs(x), k), 1/k)
}

// Reset implements Curve.
func (Drive) Reset() {}

// Transformer bends a tanh-bounded signal asymmetrically: (u + b·u²)/(1+b)
// with u = tanh(x). The result stays within [-1, 1].
type Transformer struct {
	Bias float64
	tanh func(float64) float64
}

// Shape implements Curve.
func (t *Transformer) Shape(x float64, _ int) float64 {
	u := t.tanh(x)
	return (u + t.Bias*u*u) / (1 + t.Bias)
}

// Reset implements Curve.
func (*Transformer) Reset() {}

// Tube is tanh(x+β) − tanh(β), an asymmetric curve whose bias β sets the
// amount of even-order content.
type Tube struct {
	Bias   float64
	offset float64
	tanh   func(float64) float64
}

// Shape implements Curve.
func (t *Tube) Shape(x float64, _ int) float64 {
	return t.tanh(x+t.Bias) - t.offset
}

// Reset implements Curve.
func (*Tube) Reset() {}
