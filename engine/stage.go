package engine

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/dynamics"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/limiter"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/saturation"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/subharmonic"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/safety"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/smooth"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine/governor"
)

// Stage transforms one block in place.
type Stage interface {
	Name() string
	Prepare(ctx PrepareContext) error
	Process(block [][]float64, tier governor.Tier)
	Reset()
}

// PrepareContext describes the processing a stage is prepared for.
type PrepareContext struct {
	// SampleRate is the rate the stage runs at, including oversampling.
	SampleRate float64
	// BaseSampleRate is the host rate.
	BaseSampleRate float64
	// MaxBlockSize is the longest block the stage receives, at SampleRate.
	MaxBlockSize int
	Channels     int
	Config       Config
	Logger       logrus.FieldLogger
}

const (
	// HardCeiling bounds every output sample.
	HardCeiling = 2.0
	// InputCeiling bounds sanitized input samples.
	InputCeiling = 64.0
)

// gainStage is a smoothed linear trim.
type gainStage struct {
	gain smooth.Smoother
	ramp []float64
}

func (g *gainStage) prepare(ctx PrepareContext) {
	g.gain.Prepare(ctx.SampleRate, ctx.Config.SmoothingMs/1000)
	g.ramp = make([]float64, ctx.MaxBlockSize)
}

func (g *gainStage) setDB(db float64) { g.gain.SetTarget(core.DBToLinear(db)) }

func (g *gainStage) process(block [][]float64) {
	if len(block) == 0 {
		return
	}

	n := min(len(block[0]), len(g.ramp))

	if !g.gain.IsSmoothing() {
		gain := g.gain.Skip(n)
		if gain == 1 {
			return
		}

		for _, buf := range block {
			for i := range buf[:n] {
				buf[i] *= gain
			}
		}

		return
	}

	ramp := g.ramp[:n]
	g.gain.Block(ramp)

	for _, buf := range block {
		vecmath.MulBlockInPlace(buf[:n], ramp)
	}
}

// inputStage contains faults, removes DC and applies the input trim.
type inputStage struct {
	sanitizer *safety.Sanitizer
	dc        *safety.DCBlocker
	guard     *safety.DenormalGuard
	trim      gainStage
}

func newInputStage() *inputStage {
	return &inputStage{guard: safety.NewDenormalGuard()}
}

func (s *inputStage) Name() string { return "input" }

func (s *inputStage) Prepare(ctx PrepareContext) error {
	s.sanitizer = safety.NewSanitizer(ctx.Channels, InputCeiling)
	s.dc = safety.NewDCBlocker(ctx.Config.DCCutoffHz)
	s.trim.prepare(ctx)

	return s.dc.Prepare(ctx.SampleRate, ctx.Channels)
}

func (s *inputStage) Process(block [][]float64, _ governor.Tier) {
	s.sanitizer.ProcessBlock(block)

	s.guard.Enter()
	for _, buf := range block {
		s.guard.InjectBlock(buf)
	}
	s.guard.Exit()

	s.dc.ProcessBlock(block)
	s.trim.process(block)
}

func (s *inputStage) Reset() {
	s.dc.Reset()
	s.trim.gain.Reset(s.trim.gain.Target())
}

// outputStage removes DC and clamps to the hard ceiling.
type outputStage struct {
	dc        *safety.DCBlocker
	sanitizer *safety.Sanitizer
}

func (s *outputStage) Name() string { return "output" }

func (s *outputStage) Prepare(ctx PrepareContext) error {
	s.dc = safety.NewDCBlocker(ctx.Config.DCCutoffHz)
	s.sanitizer = safety.NewSanitizer(ctx.Channels, HardCeiling)

	return s.dc.Prepare(ctx.SampleRate, ctx.Channels)
}

func (s *outputStage) Process(block [][]float64, _ governor.Tier) {
	s.dc.ProcessBlock(block)

	for _, buf := range block {
		for i, x := range buf {
			buf[i] = core.FlushDenormals(x)
		}
	}

	s.sanitizer.ProcessBlock(block)
}

func (s *outputStage) Reset() {
	s.dc.Reset()
}

type saturationStage struct {
	sat  *saturation.Saturator
	mode saturation.Mode
}

func newSaturationStage() (*saturationStage, error) {
	sat, err := saturation.New()
	if err != nil {
		return nil, err
	}

	return &saturationStage{sat: sat, mode: sat.Mode()}, nil
}

func (s *saturationStage) Name() string { return "saturation" }

func (s *saturationStage) Prepare(ctx PrepareContext) error {
	return s.sat.Prepare(ctx.SampleRate, ctx.Channels)
}

func (s *saturationStage) apply(p Params) {
	if p.SaturationMode != s.mode {
		if s.sat.SetMode(p.SaturationMode) == nil {
			s.mode = p.SaturationMode
		}
	}

	_ = s.sat.SetDrive(p.Drive)
	_ = s.sat.SetMix(p.SaturationMix)
}

func (s *saturationStage) Process(block [][]float64, tier governor.Tier) {
	if eco := tier == governor.TierEco; eco != s.sat.Eco() {
		s.sat.SetEco(eco)
	}

	s.sat.ProcessBlock(block)
}

func (s *saturationStage) Reset() { s.sat.Reset() }

type subharmonicStage struct {
	sub    *subharmonic.Subharmonic
	amount float64
}

func (s *subharmonicStage) Name() string { return "subharmonic" }

func (s *subharmonicStage) Prepare(ctx PrepareContext) error {
	sub, err := subharmonic.New(ctx.SampleRate, ctx.Channels)
	if err != nil {
		return err
	}

	s.sub = sub

	if err := sub.SetAmount(s.amount); err != nil {
		return err
	}

	sub.Reset()

	return nil
}

func (s *subharmonicStage) apply(p Params) {
	s.amount = p.SubharmonicAmount
	if s.sub != nil {
		_ = s.sub.SetAmount(p.SubharmonicAmount)
	}
}

func (s *subharmonicStage) Process(block [][]float64, _ governor.Tier) {
	s.sub.ProcessBlock(block)
}

func (s *subharmonicStage) Reset() {
	if s.sub != nil {
		s.sub.Reset()
	}
}

const (
	glueThreshold = iota
	glueRatio
	glueMix
	numGlueParams
)

// glueStage smooths the compressor settings at block rate.
type glueStage struct {
	glue    *dynamics.Glue
	targets *smooth.Bank
	applied [numGlueParams]float64
}

func newGlueStage() *glueStage {
	g := &glueStage{targets: smooth.NewBank(numGlueParams)}

	def := DefaultParams()
	g.targets.SetTarget(glueThreshold, def.GlueThresholdDB)
	g.targets.SetTarget(glueRatio, def.GlueRatio)
	g.targets.SetTarget(glueMix, def.GlueMix)
	g.targets.Reset()

	return g
}

func (s *glueStage) Name() string { return "glue" }

func (s *glueStage) Prepare(ctx PrepareContext) error {
	glue, err := dynamics.NewGlue(ctx.SampleRate, ctx.Channels)
	if err != nil {
		return err
	}

	glue.SetAutoRelease(true)

	s.glue = glue
	s.targets.Prepare(ctx.SampleRate, ctx.Config.SmoothingMs/1000)
	s.targets.Reset()
	for i := range s.applied {
		s.applied[i] = math.NaN()
	}

	s.push()

	return nil
}

func (s *glueStage) apply(p Params) {
	s.targets.SetTarget(glueThreshold, p.GlueThresholdDB)
	s.targets.SetTarget(glueRatio, p.GlueRatio)
	s.targets.SetTarget(glueMix, p.GlueMix)
}

func (s *glueStage) push() {
	thr := s.targets.At(glueThreshold).Current()
	if thr != s.applied[glueThreshold] {
		if s.glue.SetThreshold(thr) == nil {
			s.applied[glueThreshold] = thr
		}
	}

	ratio := s.targets.At(glueRatio).Current()
	if ratio != s.applied[glueRatio] {
		if s.glue.SetRatio(ratio) == nil {
			s.applied[glueRatio] = ratio
		}
	}

	mix := s.targets.At(glueMix).Current()
	if mix != s.applied[glueMix] {
		if s.glue.SetMix(mix) == nil {
			s.applied[glueMix] = mix
		}
	}
}

func (s *glueStage) Process(block [][]float64, tier governor.Tier) {
	if len(block) == 0 {
		return
	}

	s.targets.Skip(len(block[0]))
	s.push()
	s.glue.SetEco(tier == governor.TierEco)
	s.glue.ProcessBlock(block)
}

func (s *glueStage) Reset() {
	s.targets.Reset()
	s.push()

	if s.glue != nil {
		s.glue.Reset()
	}
}

// limiterStage applies the output gain and then holds the ceiling, so no
// gain follows the limiter.
type limiterStage struct {
	trim      gainStage
	lim       *limiter.Limiter
	ceilingDB float64
	// err is the last oversampling fault reported by Prepare.
	err error
}

func (s *limiterStage) Name() string { return "limiter" }

func (s *limiterStage) Prepare(ctx PrepareContext) error {
	lim, err := limiter.New(
		limiter.WithCeiling(s.ceilingDB),
		limiter.WithTruePeak(ctx.Config.TruePeak),
		limiter.WithFactor(ctx.Config.TruePeakFactor),
		limiter.WithQuality(ctx.Config.quality()),
		limiter.WithAdaptive(ctx.Config.AdaptiveTruePeak),
	)
	if err != nil {
		return err
	}

	s.trim.prepare(ctx)
	s.lim = lim
	s.err = lim.Prepare(ctx.SampleRate, ctx.MaxBlockSize, ctx.Channels)

	if s.err != nil {
		ctx.Logger.WithFields(logrus.Fields{
			"function": "limiterStage.Prepare",
			"error":    s.err,
		}).Warn("True-peak limiting degraded to sample peak")
	}

	return nil
}

func (s *limiterStage) apply(p Params) {
	s.ceilingDB = p.CeilingDB
	if s.lim != nil {
		_ = s.lim.SetCeiling(p.CeilingDB)
	}
}

func (s *limiterStage) Process(block [][]float64, tier governor.Tier) {
	s.lim.SetEco(tier == governor.TierEco)
	s.lim.EnableAdaptive(tier == governor.TierHigh)
	s.trim.process(block)
	s.lim.ProcessBlock(block)
}

func (s *limiterStage) Reset() {
	s.trim.gain.Reset(s.trim.gain.Target())

	if s.lim != nil {
		s.lim.Reset()
	}
}
