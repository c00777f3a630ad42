package dynamics

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/envelope"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/internal/fastmath"
)

const (
	defaultGlueThresholdDB = -18.0
	defaultGlueRatio       = 2.0
	defaultGlueAttackMs    = 10.0
	defaultGlueReleaseMs   = 100.0

	// GlueKneeDB is the fixed soft-knee width.
	GlueKneeDB = 6.0

	minGlueThresholdDB = -60.0
	maxGlueThresholdDB = 0.0
	minGlueRatio       = 1.0
	maxGlueRatio       = 10.0
	minGlueAttackMs    = 0.1
	maxGlueAttackMs    = 30.0
	minGlueReleaseMs   = 10.0
	maxGlueReleaseMs   = 2000.0
	minGlueMakeupDB    = -12.0
	maxGlueMakeupDB    = 24.0

	autoReleaseFastMs = 60.0
	autoReleaseSlowMs = 600.0
	accentHoldMs      = 300.0

	// log2Of10Div20 converts dB to the log2 domain: log2(10) / 20.
	log2Of10Div20 = 0.166096404744
)

// Glue is a stereo-linked console-style bus compressor.
//
// The detector follows the loudest channel so the stereo image does not
// shift under gain reduction. The gain computer works in the log2 domain
// with a fixed 6 dB quadratic soft knee. In auto-release mode the release
// time moves between 60 ms on peaky material and 600 ms on sustained
// material, steered by the adaptive program-level threshold and by the
// transient detector, whose reading is held for about 300 ms after each
// accent.
//
// Parameter setters are not safe for concurrent use with ProcessBlock;
// GainReductionDB may be read from any goroutine.
type Glue struct {
	sampleRate float64
	channels   int

	thresholdDB float64
	ratio       float64
	attackMs    float64
	releaseMs   float64
	autoRelease bool
	makeupDB    float64
	mix         float64
	eco         bool

	envelope     float64
	attackCoeff  float64
	releaseCoeff float64
	fastRelease  float64
	slowRelease  float64

	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	slope            float64
	makeupLin        float64

	program     *envelope.Adaptive
	accents     *envelope.Transient
	accent      float64
	accentDecay float64

	gainReduction atomic.Uint64
}

// NewGlue creates a glue compressor with program-friendly defaults:
// threshold -18 dB, ratio 2:1, attack 10 ms, release 100 ms.
func NewGlue(sampleRate float64, channels int) (*Glue, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("glue sample rate must be positive and finite: %f", sampleRate)
	}

	if channels < 1 {
		return nil, fmt.Errorf("glue channels must be positive: %d", channels)
	}

	accents, err := envelope.NewTransient(sampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("glue: %w", err)
	}

	g := &Glue{
		sampleRate:  sampleRate,
		channels:    channels,
		thresholdDB: defaultGlueThresholdDB,
		ratio:       defaultGlueRatio,
		attackMs:    defaultGlueAttackMs,
		releaseMs:   defaultGlueReleaseMs,
		mix:         1,
		program:     envelope.NewAdaptive(sampleRate, 1, envelope.DefaultThresholdRiseMs, envelope.DefaultThresholdFallMs),
		accents:     accents,
		accentDecay: math.Exp(-1 / (accentHoldMs * 0.001 * sampleRate)),
	}

	g.updateCoefficients()
	g.Reset()

	return g, nil
}

// SetThreshold sets the threshold in dBFS.
func (g *Glue) SetThreshold(dB float64) error {
	if dB < minGlueThresholdDB || dB > maxGlueThresholdDB || math.IsNaN(dB) {
		return fmt.Errorf("glue threshold must be in [%g, %g]: %f", minGlueThresholdDB, maxGlueThresholdDB, dB)
	}

	g.thresholdDB = dB
	g.updateCoefficients()

	return nil
}

// SetRatio sets the compression ratio.
func (g *Glue) SetRatio(ratio float64) error {
	if ratio < minGlueRatio || ratio > maxGlueRatio || math.IsNaN(ratio) {
		return fmt.Errorf("glue ratio must be in [%g, %g]: %f", minGlueRatio, maxGlueRatio, ratio)
	}

	g.ratio = ratio
	g.updateCoefficients()

	return nil
}

// SetAttack sets the attack time in milliseconds.
func (g *Glue) SetAttack(ms float64) error {
	if ms < minGlueAttackMs || ms > maxGlueAttackMs || math.IsNaN(ms) {
		return fmt.Errorf("glue attack must be in [%g, %g]: %f", minGlueAttackMs, maxGlueAttackMs, ms)
	}

	g.attackMs = ms
	g.updateTimeConstants()

	return nil
}

// SetRelease sets a fixed release time in milliseconds and leaves auto
// release.
func (g *Glue) SetRelease(ms float64) error {
	if ms < minGlueReleaseMs || ms > maxGlueReleaseMs || math.IsNaN(ms) {
		return fmt.Errorf("glue release must be in [%g, %g]: %f", minGlueReleaseMs, maxGlueReleaseMs, ms)
	}

	g.releaseMs = ms
	g.autoRelease = false
	g.updateTimeConstants()

	return nil
}

// SetAutoRelease toggles program-dependent release.
func (g *Glue) SetAutoRelease(on bool) { g.autoRelease = on }

// SetMakeup sets the makeup gain in dB.
func (g *Glue) SetMakeup(dB float64) error {
	if dB < minGlueMakeupDB || dB > maxGlueMakeupDB || math.IsNaN(dB) {
		return fmt.Errorf("glue makeup must be in [%g, %g]: %f", minGlueMakeupDB, maxGlueMakeupDB, dB)
	}

	g.makeupDB = dB
	g.updateCoefficients()

	return nil
}

// SetMix sets the parallel-compression mix in [0, 1].
func (g *Glue) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("glue mix must be in [0, 1]: %f", mix)
	}

	g.mix = mix

	return nil
}

// SetEco switches the gain computer to approximate log2/exp2.
func (g *Glue) SetEco(eco bool) { g.eco = eco }

// Threshold returns the threshold in dB.
func (g *Glue) Threshold() float64 { return g.thresholdDB }

// Ratio returns the compression ratio.
func (g *Glue) Ratio() float64 { return g.ratio }

// Attack returns the attack time in milliseconds.
func (g *Glue) Attack() float64 { return g.attackMs }

// Release returns the fixed release time in milliseconds.
func (g *Glue) Release() float64 { return g.releaseMs }

// AutoRelease reports whether program-dependent release is active.
func (g *Glue) AutoRelease() bool { return g.autoRelease }

// Makeup returns the makeup gain in dB.
func (g *Glue) Makeup() float64 { return g.makeupDB }

// Mix returns the dry/wet mix.
func (g *Glue) Mix() float64 { return g.mix }

// GainReductionDB returns the deepest gain reduction of the last block as
// a positive dB amount.
func (g *Glue) GainReductionDB() float64 {
	return math.Float64frombits(g.gainReduction.Load())
}

// ProcessBlock compresses block in place.
func (g *Glue) ProcessBlock(block [][]float64) {
	if len(block) == 0 {
		return
	}

	channels := min(len(block), g.channels)
	n := len(block[0])
	minGain := 1.0

	for i := range n {
		level := 0.0
		for ch := range channels {
			level = math.Max(level, math.Abs(block[ch][i]))
		}

		g.follow(level)

		gain := g.calculateGain(g.envelope)
		minGain = math.Min(minGain, gain)

		wet := gain * g.makeupLin
		for ch := range channels {
			x := block[ch][i]
			block[ch][i] = x + g.mix*(x*wet-x)
		}
	}

	g.gainReduction.Store(math.Float64bits(-20 * math.Log10(minGain)))
}

// CalculateOutputLevel returns the static output level for an input
// magnitude, including makeup.
func (g *Glue) CalculateOutputLevel(inputMagnitude float64) float64 {
	inputMagnitude = math.Abs(inputMagnitude)
	return inputMagnitude * g.calculateGain(inputMagnitude) * g.makeupLin
}

// Reset clears the detector and metering.
func (g *Glue) Reset() {
	g.envelope = 0
	g.program.Reset()
	g.accents.Reset()
	g.accent = 0
	g.gainReduction.Store(0)
}

func (g *Glue) follow(level float64) {
	g.accent = math.Max(g.accents.Process(level, 0), g.accent*g.accentDecay)

	switch {
	case level > g.envelope:
		g.envelope += (level - g.envelope) * g.attackCoeff
	case g.autoRelease:
		// peaky material or a recent accent releases fast
		s := g.program.Sensitivity(g.envelope, 0) - 1
		s = math.Max(g.accent, math.Min(1, s))
		coeff := g.slowRelease + (g.fastRelease-g.slowRelease)*s
		g.envelope = level + (g.envelope-level)*coeff
	default:
		g.envelope = level + (g.envelope-level)*g.releaseCoeff
	}

	g.program.Process(g.envelope, 0)
}

func (g *Glue) updateCoefficients() {
	g.thresholdLog2 = g.thresholdDB * log2Of10Div20
	g.kneeWidthLog2 = GlueKneeDB * log2Of10Div20
	g.invKneeWidthLog2 = 1 / g.kneeWidthLog2
	g.slope = 1 - 1/g.ratio
	g.makeupLin = math.Pow(10, g.makeupDB/20)

	g.updateTimeConstants()
}

func (g *Glue) updateTimeConstants() {
	g.attackCoeff = 1 - math.Exp(-math.Ln2/(g.attackMs*0.001*g.sampleRate))
	g.releaseCoeff = releaseCoefficient(g.releaseMs, g.sampleRate)
	g.fastRelease = releaseCoefficient(autoReleaseFastMs, g.sampleRate)
	g.slowRelease = releaseCoefficient(autoReleaseSlowMs, g.sampleRate)
}

func releaseCoefficient(ms, sampleRate float64) float64 {
	return math.Exp(-math.Ln2 / (ms * 0.001 * sampleRate))
}

// calculateGain is the log2-domain soft-knee gain computer.
func (g *Glue) calculateGain(level float64) float64 {
	if level <= 0 || g.slope == 0 {
		return 1
	}

	var levelLog2 float64
	if g.eco {
		levelLog2 = fastmath.Log2(level)
	} else {
		levelLog2 = math.Log2(level)
	}

	overshoot := levelLog2 - g.thresholdLog2
	halfWidth := g.kneeWidthLog2 * 0.5

	var effective float64

	switch {
	case overshoot < -halfWidth:
		return 1
	case overshoot > halfWidth:
		effective = overshoot
	default:
		scratch := overshoot + halfWidth
		effective = scratch * scratch * 0.5 * g.invKneeWidthLog2
	}

	gainLog2 := -effective * g.slope
	if g.eco {
		return math.Min(fastmath.Pow2(gainLog2), 1)
	}

	return math.Exp2(gainLog2)
}
