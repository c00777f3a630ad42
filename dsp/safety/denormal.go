package safety

import (
	"github.com/cwbudde/algo-vecmath/cpu"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"
)

// NoiseFloor is the magnitude of the alternating offset injected into
// recursive filter inputs to keep their state out of the subnormal range.
const NoiseFloor = 1e-25

// DenormalGuard keeps recursive state out of the subnormal range.
//
// Go offers no portable way to set the FTZ/DAZ floating point control bits
// for a goroutine, so the guard always uses the software path: a tiny
// alternating offset fed into feedback paths plus explicit flushing of
// values that fall below core.DenormalThreshold. HardwareFTZ reports whether
// the CPU would support the hardware mode.
type DenormalGuard struct {
	sign  float64
	depth int
}

// NewDenormalGuard returns a ready guard.
func NewDenormalGuard() *DenormalGuard {
	return &DenormalGuard{sign: 1}
}

// Enter marks the start of a processing scope. Scopes nest.
func (g *DenormalGuard) Enter() {
	if g.sign == 0 {
		g.sign = 1
	}

	g.depth++
}

// Exit marks the end of a processing scope.
func (g *DenormalGuard) Exit() {
	if g.depth > 0 {
		g.depth--
	}
}

// Active reports whether at least one scope is open.
func (g *DenormalGuard) Active() bool { return g.depth > 0 }

// Inject adds the alternating noise floor to x.
func (g *DenormalGuard) Inject(x float64) float64 {
	g.sign = -g.sign
	return x + g.sign*NoiseFloor
}

// InjectBlock adds the alternating noise floor to every sample of buf.
func (g *DenormalGuard) InjectBlock(buf []float64) {
	s := g.sign
	for i := range buf {
		s = -s
		buf[i] += s * NoiseFloor
	}

	g.sign = s
}

// Flush returns zero for subnormal-range values and x otherwise.
func (g *DenormalGuard) Flush(x float64) float64 {
	return core.FlushDenormals(x)
}

// FlushBlock zeroes subnormal-range samples of buf in place.
func (g *DenormalGuard) FlushBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = core.FlushDenormals(x)
	}
}

// HardwareFTZ reports whether the host CPU has a flush-to-zero capable
// vector unit (SSE2 on amd64, NEON on arm64).
func HardwareFTZ() bool {
	f := cpu.DetectFeatures()

	return cpu.Supports(f, cpu.SIMDSSE2) || cpu.Supports(f, cpu.SIMDNEON)
}

// Platform returns the detected architecture name.
func Platform() string {
	return cpu.DetectFeatures().Architecture
}
