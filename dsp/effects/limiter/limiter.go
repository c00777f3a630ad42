// Package limiter implements the output ceiling stage: a per-channel
// soft-knee/brickwall state machine that can run at an oversampled rate so
// inter-sample peaks are caught as well as sample peaks.
package limiter

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/delay"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/oversample"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/smooth"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/internal/fastmath"
	timestats "github.com/cilviademo/btz-sonic-alchemy-sub000/stats/time"
)

const (
	// DefaultCeilingDB is the ceiling used when none is configured.
	DefaultCeilingDB = -1.0
	MinCeilingDB     = -12.0
	MaxCeilingDB     = 0.0

	// KneeFraction places the knee start relative to the ceiling.
	KneeFraction = 0.9
	// KneeRatio is the initial compression ratio inside the knee.
	KneeRatio = 4.0

	// DefaultTruePeakFactor is the oversampling factor in true-peak mode.
	DefaultTruePeakFactor = 4

	releaseSeconds    = 0.050
	meterDecaySeconds = 0.300
	ceilingRamp       = 0.020

	// switchSeconds is the crossfade between the base and boosted paths.
	switchSeconds = 0.005
)

// State is the per-channel limiter region of the last sample.
type State int

const (
	StateBelowCeiling State = iota
	StateSoftKnee
	StateHardLimited
)

func (s State) String() string {
	switch s {
	case StateBelowCeiling:
		return "below-ceiling"
	case StateSoftKnee:
		return "soft-knee"
	case StateHardLimited:
		return "hard-limited"
	default:
		return "unknown"
	}
}

// Guarantee describes which peaks the ceiling holds for.
type Guarantee int

const (
	// GuaranteeTruePeak: peaks are detected on the oversampled signal, so
	// inter-sample overs are limited too.
	GuaranteeTruePeak Guarantee = iota
	// GuaranteeSamplePeak: only sample values are held below the ceiling.
	// Reconstructed inter-sample peaks may exceed it.
	GuaranteeSamplePeak
)

func (g Guarantee) String() string {
	if g == GuaranteeTruePeak {
		return "true-peak"
	}

	return "sample-peak"
}

type config struct {
	ceilingDB float64
	truePeak  bool
	factor    int
	quality   oversample.Quality
	adaptive  bool
	release   bool
}

// Option configures a Limiter.
type Option func(*config) error

// WithCeiling sets the initial ceiling in dBTP.
func WithCeiling(db float64) Option {
	return func(c *config) error {
		if err := checkCeiling(db); err != nil {
			return err
		}

		c.ceilingDB = db

		return nil
	}
}

// WithTruePeak enables or disables oversampled detection.
func WithTruePeak(on bool) Option {
	return func(c *config) error {
		c.truePeak = on
		return nil
	}
}

// WithFactor sets the true-peak oversampling factor.
func WithFactor(f int) Option {
	return func(c *config) error {
		if !oversample.ValidFactor(f) {
			return fmt.Errorf("limiter oversampling factor must be a power of two in [1, %d]: %d", oversample.MaxSupportedFactor, f)
		}

		c.factor = f

		return nil
	}
}

// WithQuality selects the oversampling filter family.
func WithQuality(q oversample.Quality) Option {
	return func(c *config) error {
		c.quality = q
		return nil
	}
}

// WithAdaptive lets a crest-factor controller double the factor on
// transient-heavy blocks. Both factors run side by side with equal
// latency and the limiter crossfades between them, so a switch never
// restarts a filter.
func WithAdaptive(on bool) Option {
	return func(c *config) error {
		c.adaptive = on
		return nil
	}
}

// WithRelease enables the smoothed release gain in front of the static
// curve.
func WithRelease(on bool) Option {
	return func(c *config) error {
		c.release = on
		return nil
	}
}

func checkCeiling(db float64) error {
	if db < MinCeilingDB || db > MaxCeilingDB || math.IsNaN(db) {
		return fmt.Errorf("limiter ceiling must be in [%g, %g] dBTP: %f", MinCeilingDB, MaxCeilingDB, db)
	}

	return nil
}

// Limiter holds each channel below a smoothed ceiling.
//
// Below 0.9×ceiling the signal passes unchanged. Above it the excess is
// compressed at 4:1 and bent asymptotically toward the ceiling; the output
// is finally clamped at the ceiling. With release enabled the static gain
// is applied through an envelope that attacks instantly and recovers over
// 50 ms. After decimation a base-rate clamp catches any filter overshoot,
// so every output sample satisfies |y| ≤ ceiling.
type Limiter struct {
	cfg config

	sampleRate float64
	channels   int
	maxBlock   int

	main     path
	boost    *path
	adaptive *oversample.Adaptive

	// mix is the boosted path's share of the output, ramped per sample.
	mix      float64
	mixStep  float64
	boosted  bool
	warm     int
	warmNeed int
	latency  int

	ceiling  smooth.Smoother
	ceilings []float64
	view     [][]float64

	eco         bool
	adaptiveOff bool

	display    float64
	meterDecay float64
	gr         atomic.Uint64
}

// path is one limiting chain: an optional oversampler, per-channel
// envelopes and an alignment delay at the base rate.
type path struct {
	os      *oversample.Manager
	pad     *delay.Compensator
	gains   []float64
	states  []State
	factor  int
	relCoef float64
	buf     [][]float64
	view    [][]float64
}

func newPath(channels, maxBlock int) path {
	p := path{
		gains:  make([]float64, channels),
		states: make([]State, channels),
		factor: 1,
		buf:    make([][]float64, channels),
		view:   make([][]float64, channels),
	}

	for ch := range p.buf {
		p.buf[ch] = make([]float64, maxBlock)
	}

	return p
}

func (p *path) latency() float64 {
	if p.os == nil {
		return 0
	}

	return p.os.Latency()
}

func (p *path) reset() {
	for ch := range p.gains {
		p.gains[ch] = 1
		p.states[ch] = StateBelowCeiling
	}

	if p.os != nil {
		p.os.Reset()
	}

	if p.pad != nil {
		p.pad.Reset()
	}
}

// New validates options and returns an unprepared limiter. True-peak mode
// and the release envelope are on by default.
func New(opts ...Option) (*Limiter, error) {
	cfg := config{
		ceilingDB: DefaultCeilingDB,
		truePeak:  true,
		factor:    DefaultTruePeakFactor,
		quality:   oversample.QualityGood,
		release:   true,
	}

	for _, o := range opts {
		if o == nil {
			continue
		}

		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	l := &Limiter{cfg: cfg, channels: 1}
	l.ceiling.Prepare(48000, ceilingRamp)
	l.ceiling.Reset(dbToLinear(cfg.ceilingDB))

	return l, nil
}

// Prepare allocates per-channel state and, in true-peak mode, the
// oversampler. If the oversampler cannot be built the limiter keeps
// working at the base rate, Guarantee reports GuaranteeSamplePeak and the
// error is returned for logging.
func (l *Limiter) Prepare(sampleRate float64, maxBlockSize, channels int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("limiter sample rate must be positive and finite: %f", sampleRate)
	}

	if maxBlockSize < 1 || channels < 1 {
		return fmt.Errorf("limiter block size and channels must be >= 1: %d, %d", maxBlockSize, channels)
	}

	l.sampleRate = sampleRate
	l.channels = channels
	l.maxBlock = maxBlockSize
	l.ceilings = make([]float64, maxBlockSize)
	l.view = make([][]float64, channels)
	l.ceiling.Prepare(sampleRate, ceilingRamp)
	l.meterDecay = math.Exp(-1 / (meterDecaySeconds * sampleRate))
	l.main = newPath(channels, maxBlockSize)
	l.boost = nil
	l.adaptive = nil
	l.latency = 0

	var err error

	if l.cfg.truePeak {
		l.main.os, err = newOversampler(l.cfg.factor, l.cfg.quality, sampleRate, maxBlockSize, channels)
		if err != nil {
			l.main.os = nil
			err = fmt.Errorf("limiter: true-peak oversampling unavailable: %w", err)
		}
	}

	boostFactor := min(2*l.cfg.factor, oversample.MaxSupportedFactor)
	if err == nil && l.main.os != nil && l.cfg.adaptive && boostFactor > l.cfg.factor {
		boost := newPath(channels, maxBlockSize)

		boost.os, err = newOversampler(boostFactor, l.cfg.quality, sampleRate, maxBlockSize, channels)
		if err != nil {
			err = fmt.Errorf("limiter: adaptive true-peak unavailable: %w", err)
		} else {
			l.boost = &boost

			cfg := oversample.DefaultAdaptiveConfig()
			cfg.Base = l.cfg.factor
			l.adaptive = oversample.NewAdaptive(cfg, boostFactor)
		}
	}

	if perr := l.alignPaths(); perr != nil && err == nil {
		err = perr
	}

	l.mixStep = 1 / (switchSeconds * sampleRate)
	l.warmNeed = max(int(switchSeconds*sampleRate), 2*l.latency+1)

	l.Reset()

	return err
}

func newOversampler(factor int, q oversample.Quality, sampleRate float64, maxBlock, channels int) (*oversample.Manager, error) {
	m, err := oversample.NewManager(oversample.WithFactor(factor), oversample.WithQuality(q))
	if err != nil {
		return nil, err
	}

	if err := m.Prepare(sampleRate, maxBlock, channels); err != nil {
		return nil, err
	}

	return m, nil
}

// alignPaths delays the faster path so both paths share the latency of
// the slower one.
func (l *Limiter) alignPaths() error {
	target := l.main.latency()
	if l.boost != nil {
		target = max(target, l.boost.latency())
	}

	l.latency = int(math.Round(target))

	for _, p := range []*path{&l.main, l.boost} {
		if p == nil {
			continue
		}

		p.pad = nil

		pad := int(math.Round(target - p.latency()))
		if pad <= 0 {
			continue
		}

		c, err := delay.NewCompensator(l.channels, pad)
		if err != nil {
			return fmt.Errorf("limiter: %w", err)
		}

		p.pad = c
	}

	return nil
}

// SetCeiling sets the ceiling target in dBTP.
func (l *Limiter) SetCeiling(db float64) error {
	if err := checkCeiling(db); err != nil {
		return err
	}

	l.ceiling.SetTarget(dbToLinear(db))

	return nil
}

// Ceiling returns the ceiling target in dBTP.
func (l *Limiter) Ceiling() float64 { return 20 * math.Log10(l.ceiling.Target()) }

// SetEco selects approximate metering math.
func (l *Limiter) SetEco(eco bool) { l.eco = eco }

// EnableAdaptive turns the crest-factor factor bump on or off. It has an
// effect only on a limiter built WithAdaptive(true). Safe on the audio
// goroutine.
func (l *Limiter) EnableAdaptive(on bool) { l.adaptiveOff = !on }

// Guarantee reports whether inter-sample peaks are covered.
func (l *Limiter) Guarantee() Guarantee {
	if l.main.os != nil && l.main.os.Factor() > 1 {
		return GuaranteeTruePeak
	}

	return GuaranteeSamplePeak
}

// State returns the region of the last processed sample of channel ch on
// the path that currently dominates the output.
func (l *Limiter) State(ch int) State { return l.active().states[ch] }

// Factor returns the oversampling factor the limiter is switching to or
// running at.
func (l *Limiter) Factor() int {
	if l.boost != nil && l.boosted {
		return l.boost.os.Factor()
	}

	if l.main.os == nil {
		return 1
	}

	return l.main.os.Factor()
}

// LatencySamples returns the base-rate delay added by oversampling. It
// does not change when the adaptive controller switches factors.
func (l *Limiter) LatencySamples() int { return l.latency }

func (l *Limiter) active() *path {
	if l.boost != nil && l.mix >= 0.5 {
		return l.boost
	}

	return &l.main
}

// GainReductionDB returns the display-smoothed gain reduction. Safe for
// concurrent use.
func (l *Limiter) GainReductionDB() float64 {
	return math.Float64frombits(l.gr.Load())
}

// ProcessBlock limits block in place. Blocks longer than the prepared
// maximum are processed in chunks. An unprepared limiter does nothing.
func (l *Limiter) ProcessBlock(block [][]float64) {
	if len(block) == 0 || l.maxBlock == 0 {
		return
	}

	channels := min(len(block), l.channels)
	total := len(block[0])

	for off := 0; off < total; off += l.maxBlock {
		end := min(off+l.maxBlock, total)
		for ch := range channels {
			l.view[ch] = block[ch][off:end]
		}

		l.processChunk(l.view[:channels])
	}
}

func (l *Limiter) processChunk(block [][]float64) {
	n := len(block[0])
	peakIn := timestats.BlockPeak(block)

	ceilings := l.ceilings[:n]
	l.ceiling.Block(ceilings)

	if l.boost != nil {
		l.processAdaptive(block, ceilings)
	} else {
		l.run(&l.main, block, ceilings)
	}

	for ch := range block {
		buf := block[ch]
		for i, c := range ceilings {
			buf[i] = math.Max(-c, math.Min(c, buf[i]))
		}
	}

	l.meter(peakIn, timestats.BlockPeak(block), n)
}

// processAdaptive runs the boosted path next to the main one while the
// controller is enabled or the crossfade has not finished, and blends the
// two. The boosted path must have run for warmNeed samples before it may
// take over.
func (l *Limiter) processAdaptive(block [][]float64, ceilings []float64) {
	n := len(block[0])

	want := false
	if l.adaptiveOff {
		l.adaptive.Reset()
	} else {
		want = l.adaptive.Observe(block) > l.cfg.factor
	}

	if l.adaptiveOff && l.mix == 0 {
		l.boosted = false
		l.warm = 0
		l.run(&l.main, block, ceilings)

		return
	}

	if l.warm == 0 {
		l.boost.reset()
	}

	ready := l.warm >= l.warmNeed
	l.warm = min(l.warm+n, l.warmNeed)
	l.boosted = want && ready

	alt := l.boost.view[:len(block)]
	for ch := range block {
		alt[ch] = l.boost.buf[ch][:n]
		copy(alt[ch], block[ch])
	}

	l.run(l.boost, alt, ceilings)
	l.run(&l.main, block, ceilings)

	for i := range n {
		if l.boosted {
			l.mix = math.Min(1, l.mix+l.mixStep)
		} else {
			l.mix = math.Max(0, l.mix-l.mixStep)
		}

		w := l.mix
		for ch := range block {
			block[ch][i] += w * (alt[ch][i] - block[ch][i])
		}
	}
}

func (l *Limiter) run(p *path, block [][]float64, ceilings []float64) {
	if p.os != nil {
		wide := p.os.ProcessUp(block)
		l.limit(p, wide, ceilings, p.os.Factor())
		p.os.ProcessDown(wide, block)
	} else {
		l.limit(p, block, ceilings, 1)
	}

	if p.pad != nil {
		p.pad.ProcessBlock(block)
	}
}

func (l *Limiter) limit(p *path, buf [][]float64, ceilings []float64, factor int) {
	if factor != p.factor || p.relCoef == 0 {
		p.factor = factor
		p.relCoef = 1 - math.Exp(-1/(releaseSeconds*l.sampleRate*float64(factor)))
	}

	for ch := range buf {
		g := p.gains[ch]
		st := p.states[ch]

		for j, x := range buf[ch] {
			c := ceilings[j/factor]
			a := math.Abs(x)

			var target float64

			st, target = staticGain(a, c)

			if l.cfg.release {
				if target < g {
					g = target
				} else {
					g += p.relCoef * (target - g)
				}
			} else {
				g = target
			}

			y := x * g
			buf[ch][j] = math.Max(-c, math.Min(c, y))
		}

		p.gains[ch] = g
		p.states[ch] = st
	}
}

// staticGain returns the region and gain for magnitude a under ceiling c.
func staticGain(a, c float64) (State, float64) {
	knee := KneeFraction * c
	if a <= knee {
		return StateBelowCeiling, 1
	}

	span := c - knee
	y := knee + span*math.Tanh((a-knee)/(KneeRatio*span))

	st := StateSoftKnee
	if a >= knee+KneeRatio*span {
		st = StateHardLimited
	}

	return st, math.Min(y, c) / a
}

// Curve returns the static output magnitude for input magnitude a at
// ceiling c.
func Curve(a, c float64) float64 {
	_, g := staticGain(math.Abs(a), c)
	return math.Abs(a) * g
}

func (l *Limiter) meter(peakIn, peakOut float64, n int) {
	gr := 0.0
	if peakIn > 0 && peakOut > 0 && peakIn > peakOut {
		if l.eco {
			gr = fastmath.LinearToDB(peakIn) - fastmath.LinearToDB(peakOut)
		} else {
			gr = 20 * math.Log10(peakIn/peakOut)
		}

		gr = math.Max(gr, 0)
	}

	if gr >= l.display {
		l.display = gr
	} else {
		l.display *= math.Pow(l.meterDecay, float64(n))
		l.display = math.Max(l.display, gr)
	}

	if l.display < 1e-6 {
		l.display = 0
	}

	l.gr.Store(math.Float64bits(l.display))
}

// Reset clears envelopes, state machines, the oversamplers and the meter.
func (l *Limiter) Reset() {
	l.main.reset()

	if l.boost != nil {
		l.boost.reset()
	}

	if l.adaptive != nil {
		l.adaptive.Reset()
	}

	l.mix = 0
	l.boosted = false
	l.warm = 0
	l.ceiling.Reset(l.ceiling.Target())
	l.display = 0
	l.gr.Store(0)
}

func dbToLinear(db float64) float64 { return math.Pow(10, db/20) }
