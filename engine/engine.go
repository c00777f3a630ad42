package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/delay"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/limiter"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/oversample"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/safety"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine/governor"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/measure/loudness"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/measure/stereo"
)

// PrepareReport describes the configuration an engine was prepared with.
type PrepareReport struct {
	SampleRate   float64
	MaxBlockSize int
	Channels     int

	// Adjustments lists prepare arguments that were clamped.
	Adjustments []core.Adjustment
	// Warnings lists configuration and resource faults that were
	// recovered from.
	Warnings []string

	OversampleFactor   int
	OversampleFallback bool
	TruePeak           limiter.Guarantee
	LatencySamples     int

	// Err is set when a stage could not be prepared. The engine then
	// outputs silence until the next successful Prepare.
	Err error
}

// Clamped reports whether any prepare argument was out of range.
func (r PrepareReport) Clamped() bool { return len(r.Adjustments) > 0 }

type stageEntry struct {
	stage       Stage
	oversampled bool
	slot        governor.Slot
}

// Engine is the mastering chain. Prepare and Reset belong to the control
// goroutine and must not run concurrently with Process.
type Engine struct {
	ctx *Context
	cfg Config

	params  paramStore
	current Params
	applied bool

	input      *inputStage
	saturation *saturationStage
	sub        *subharmonicStage
	glue       *glueStage
	lim        *limiterStage
	output     *outputStage
	stages     []stageEntry

	os       *oversample.Manager
	sw       *safety.Switch
	dryDelay *delay.Compensator
	loudness *loudness.Meter
	corr     *stereo.Correlator
	gov      *governor.Governor

	sampleRate float64
	maxBlock   int
	channels   int
	prepared   bool

	work    core.Block
	dry     core.Block
	view    [][]float64
	dryView [][]float64

	gatingSeen  uint64
	resetMeters atomic.Bool
	metering    Metering
	report      PrepareReport
	latency     atomic.Int64
	meterFloor  float64
	stageNames  []string
}

var stageShares = map[string]float64{
	"input":       0.5,
	"saturation":  3,
	"subharmonic": 1,
	"glue":        2,
	"limiter":     3,
	"output":      0.5,
}

// New builds an unprepared engine. A nil ctx uses NewContext().
// Invalid config fields are replaced by defaults and logged.
func New(ctx *Context, cfg Config) (*Engine, error) {
	if ctx == nil {
		ctx = NewContext()
	}

	cfg, warnings := cfg.normalize()
	for _, w := range warnings {
		ctx.Logger.WithFields(logrus.Fields{
			"function": "engine.New",
			"change":   w,
		}).Warn("Invalid engine config replaced")
	}

	sat, err := newSaturationStage()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		ctx:        ctx,
		cfg:        cfg,
		input:      newInputStage(),
		saturation: sat,
		sub:        &subharmonicStage{},
		glue:       newGlueStage(),
		lim:        &limiterStage{ceilingDB: limiter.DefaultCeilingDB},
		output:     &outputStage{},
		sw:         safety.NewSwitch(true, safety.Linear),
		gov:        governor.New(ctx.Clock, cfg.Governor, governor.TierNormal),
		meterFloor: loudness.DefaultFloor,
	}

	e.stages = []stageEntry{
		{stage: e.input},
		{stage: e.saturation, oversampled: true},
		{stage: e.sub, oversampled: true},
		{stage: e.glue, oversampled: true},
		{stage: e.lim},
		{stage: e.output},
	}

	for i := range e.stages {
		name := e.stages[i].stage.Name()

		slot, err := e.gov.Budget().Register(name, stageShares[name])
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}

		e.stages[i].slot = slot
		e.stageNames = append(e.stageNames, name)
	}

	e.params.store(DefaultParams())
	e.metering.reset(e.meterFloor)

	return e, nil
}

// Config returns the normalized configuration.
func (e *Engine) Config() Config { return e.cfg }

// StageNames returns the stage order.
func (e *Engine) StageNames() []string {
	return append([]string(nil), e.stageNames...)
}

// Prepare clamps the arguments to the supported ranges, allocates every
// buffer and prepares all stages. Not real-time safe.
func (e *Engine) Prepare(sampleRate float64, maxBlockSamples, channelCount int) PrepareReport {
	log := e.ctx.Logger.WithFields(logrus.Fields{"function": "Engine.Prepare"})

	pc, adj := core.ProcessorConfig{
		SampleRate: sampleRate,
		BlockSize:  maxBlockSamples,
		Channels:   channelCount,
	}.Clamp()

	report := PrepareReport{
		SampleRate:   pc.SampleRate,
		MaxBlockSize: pc.BlockSize,
		Channels:     pc.Channels,
		Adjustments:  adj,
	}

	for _, a := range adj {
		log.WithFields(logrus.Fields{
			"field": a.Field,
			"from":  a.From,
			"to":    a.To,
		}).Warn("Prepare argument clamped")
	}

	e.prepared = false
	e.sampleRate = pc.SampleRate
	e.maxBlock = pc.BlockSize
	e.channels = pc.Channels

	ovs, err := oversample.NewManager(
		oversample.WithFactor(e.cfg.OversampleFactor),
		oversample.WithQuality(e.cfg.quality()),
	)
	if err == nil {
		err = ovs.Prepare(e.sampleRate, e.maxBlock, e.channels)
	}

	if err != nil {
		report.OversampleFallback = true
		report.Warnings = append(report.Warnings, err.Error())
		log.WithFields(logrus.Fields{"error": err}).Warn("Oversampling unavailable, running at base rate")
	}

	if ovs == nil {
		ovs, _ = oversample.NewManager(oversample.WithFactor(1))
		_ = ovs.Prepare(e.sampleRate, e.maxBlock, e.channels)
	}

	e.os = ovs
	factor := ovs.Factor()
	report.OversampleFactor = factor

	for _, st := range e.stages {
		pctx := PrepareContext{
			SampleRate:     e.sampleRate,
			BaseSampleRate: e.sampleRate,
			MaxBlockSize:   e.maxBlock,
			Channels:       e.channels,
			Config:         e.cfg,
			Logger:         e.ctx.Logger,
		}

		if st.oversampled {
			pctx.SampleRate *= float64(factor)
			pctx.MaxBlockSize *= factor
		}

		if err := st.stage.Prepare(pctx); err != nil {
			report.Err = fmt.Errorf("engine: prepare %s: %w", st.stage.Name(), err)
			log.WithFields(logrus.Fields{"stage": st.stage.Name(), "error": err}).Error("Stage prepare failed")
			e.report = report

			return report
		}
	}

	if e.lim.err != nil {
		report.Warnings = append(report.Warnings, e.lim.err.Error())
	}

	report.TruePeak = e.lim.lim.Guarantee()
	report.LatencySamples = ovs.LatencySamples() + e.lim.lim.LatencySamples()

	e.dryDelay, err = delay.NewCompensator(e.channels, report.LatencySamples)
	if err != nil {
		report.Err = fmt.Errorf("engine: %w", err)
		e.report = report

		return report
	}

	e.sw.Prepare(e.sampleRate, e.cfg.CrossfadeMs/1000)

	e.loudness = nil
	if e.cfg.Loudness {
		e.loudness = loudness.NewMeter(
			loudness.WithSampleRate(e.sampleRate),
			loudness.WithChannels(e.channels),
			loudness.WithBlockSize(e.maxBlock),
			loudness.WithFloor(e.meterFloor),
		)
		e.loudness.StartIntegration()
	}

	e.corr, err = stereo.NewCorrelator(e.sampleRate, stereo.DefaultWindow)
	if err != nil {
		report.Err = fmt.Errorf("engine: %w", err)
		e.report = report

		return report
	}

	e.gov.Prepare(e.sampleRate, e.maxBlock)

	e.work = core.NewBlock(e.channels, e.maxBlock)
	e.dry = core.NewBlock(e.channels, e.maxBlock)
	e.view = make([][]float64, e.channels)
	e.dryView = make([][]float64, e.channels)

	e.latency.Store(int64(report.LatencySamples))
	e.report = report
	e.prepared = true
	e.applied = false
	e.applyParams(true)

	log.WithFields(logrus.Fields{
		"sample_rate":    e.sampleRate,
		"max_block":      e.maxBlock,
		"channels":       e.channels,
		"oversample":     factor,
		"true_peak":      report.TruePeak.String(),
		"latency":        report.LatencySamples,
		"hardware_ftz":   safety.HardwareFTZ(),
		"loudness_meter": e.cfg.Loudness,
	}).Info("Engine prepared")

	return report
}

// LastPrepare returns the report of the most recent Prepare.
func (e *Engine) LastPrepare() PrepareReport { return e.report }

// LatencySamples returns the processing delay in host-rate samples.
func (e *Engine) LatencySamples() int { return int(e.latency.Load()) }

// SetParams publishes new parameter targets. Values are clamped into
// range. Safe from any goroutine.
func (e *Engine) SetParams(p Params) { e.params.store(p) }

// Params returns the current parameter targets.
func (e *Engine) Params() Params { return e.params.load() }

// ReadParams takes a snapshot from reg and publishes it.
func (e *Engine) ReadParams(reg ParamRegistry) {
	if reg != nil {
		e.params.store(reg.Snapshot())
	}
}

// Metering returns the readbacks.
func (e *Engine) Metering() *Metering { return &e.metering }

// Governor returns the performance governor.
func (e *Engine) Governor() *governor.Governor { return e.gov }

// ResetLoudness restarts loudness integration at the next block. Safe from
// any goroutine.
func (e *Engine) ResetLoudness() { e.resetMeters.Store(true) }

// Reset clears all processing state and snaps parameters to their
// targets. Not safe to call concurrently with Process.
func (e *Engine) Reset() {
	if !e.prepared {
		return
	}

	e.applied = false
	e.applyParams(true)

	e.os.Reset()
	e.dryDelay.Reset()
	e.corr.Reset()
	e.gov.Reset()

	if e.loudness != nil {
		e.loudness.Reset()
		e.loudness.StartIntegration()
	}

	e.gatingSeen = 0
	e.metering.reset(e.meterFloor)
}

func (e *Engine) applyParams(snap bool) {
	p := e.params.load()
	if e.applied && p == e.current {
		return
	}

	e.current = p
	e.applied = true

	e.input.trim.setDB(p.InputGainDB)
	e.lim.trim.setDB(p.OutputGainDB)
	e.saturation.apply(p)
	e.sub.apply(p)
	e.glue.apply(p)
	e.lim.apply(p)
	e.sw.SetEnabled(p.Enabled)
	e.gov.RequestTier(p.RequestedTier)

	if snap {
		for _, st := range e.stages {
			st.stage.Reset()
		}

		e.sw.Snap()
	}
}

// Process runs the chain on block in place. Blocks longer than the
// prepared maximum are processed in chunks; channels beyond the prepared
// count are zeroed. An unprepared engine outputs silence. Real-time safe.
func (e *Engine) Process(block [][]float32) {
	if len(block) == 0 {
		return
	}

	n := len(block[0])
	for _, buf := range block {
		n = min(n, len(buf))
	}

	if !e.prepared {
		for _, buf := range block {
			clear(buf)
		}

		return
	}

	if e.ctx.Registry != nil {
		e.params.store(e.ctx.Registry.Snapshot())
	}

	if e.resetMeters.Swap(false) && e.loudness != nil {
		e.loudness.Reset()
		e.loudness.StartIntegration()
		e.gatingSeen = 0
		e.metering.IntegratedLUFS.Store(e.meterFloor)
		e.metering.LoudnessRangeLU.Store(0)
	}

	channels := min(len(block), e.channels)
	for ch := channels; ch < len(block); ch++ {
		clear(block[ch])
	}

	for off := 0; off < n; off += e.maxBlock {
		end := min(off+e.maxBlock, n)
		e.processChunk(block[:channels], off, end)
	}
}

func (e *Engine) processChunk(block [][]float32, off, end int) {
	e.applyParams(false)
	tier := e.gov.Begin()

	n := end - off
	work := e.view[:len(block)]
	dry := e.dryView[:len(block)]

	for ch := range block {
		work[ch] = e.work[ch][:n]
		dry[ch] = e.dry[ch][:n]
		core.Widen(work[ch], block[ch][off:end])
	}

	budget := e.gov.Budget()

	var wide [][]float64

	for i, st := range e.stages {
		buf := work

		if st.oversampled {
			if wide == nil {
				wide = e.os.ProcessUp(work)
			}

			buf = wide
		} else if wide != nil {
			e.os.ProcessDown(wide, work)
			wide = nil
		}

		stageTier := tier
		if tier > governor.TierEco && budget.Remaining() < budget.Allowance(st.slot) {
			stageTier = governor.TierEco
		}

		start := e.ctx.Clock.Now()
		st.stage.Process(buf, stageTier)
		budget.Charge(st.slot, e.ctx.Clock.Now().Sub(start))

		if i == 0 {
			for ch := range work {
				copy(dry[ch], work[ch])
			}

			e.dryDelay.ProcessBlock(dry)
		}
	}

	e.sw.Mix(dry, work, work)

	for ch := range work {
		out := block[ch][off:end]
		for i, x := range work[ch] {
			y := core.Clamp(x, -HardCeiling, HardCeiling)
			work[ch][i] = y
			out[i] = float32(y)
		}
	}

	e.meter(work)
	e.gov.End(n)
	e.metering.LoadPercent.Store(e.gov.LoadPercent())
}

func (e *Engine) meter(work [][]float64) {
	if e.loudness != nil {
		e.loudness.ProcessBlock(work)
		e.metering.MomentaryLUFS.Store(e.loudness.Momentary())
		e.metering.ShortTermLUFS.Store(e.loudness.ShortTerm())
		e.metering.TruePeakDBTP.Store(e.loudness.TruePeakDBTP())

		if g := e.loudness.GatingBlocks(); g != e.gatingSeen {
			e.gatingSeen = g
			e.metering.IntegratedLUFS.Store(e.loudness.Integrated())
			e.metering.LoudnessRangeLU.Store(e.loudness.LoudnessRange())
		}
	}

	if len(work) >= 2 {
		e.corr.ProcessBlock(work[0], work[1])
		e.metering.Correlation.Store(e.corr.Value())
	} else {
		e.metering.Correlation.Store(1)
	}

	e.metering.GainReductionDB.Store(e.lim.lim.GainReductionDB())
	e.metering.GlueReductionDB.Store(e.glue.glue.GainReductionDB())
}
