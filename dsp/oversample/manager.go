package oversample

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// ErrInvalidFactor is returned for factors outside {1, 2, 4, 8, 16}.
var ErrInvalidFactor = errors.New("oversample: factor must be one of 1, 2, 4, 8, 16")

// ErrNotPrepared is returned when a reconfiguration is requested before
// Prepare.
var ErrNotPrepared = errors.New("oversample: manager not prepared")

// ErrResource is returned when the work buffers for a factor would exceed
// the configured per-channel sample budget.
var ErrResource = errors.New("oversample: work buffer budget exceeded")

// MaxSupportedFactor is the largest oversampling factor.
const MaxSupportedFactor = 16

const defaultMaxWorkSamples = 1 << 20

// Quality selects the half-band stage family.
type Quality int

const (
	// QualityDraft uses polyphase IIR half-bands.
	QualityDraft Quality = iota
	// QualityGood uses 31-tap linear-phase FIR half-bands.
	QualityGood
	// QualityBest uses 63-tap linear-phase FIR half-bands.
	QualityBest
)

// String returns the quality name.
func (q Quality) String() string {
	switch q {
	case QualityDraft:
		return "draft"
	case QualityGood:
		return "good"
	case QualityBest:
		return "best"
	default:
		return "unknown"
	}
}

// ParseQuality maps a quality name to its value.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "draft":
		return QualityDraft, nil
	case "good":
		return QualityGood, nil
	case "best":
		return QualityBest, nil
	default:
		return 0, fmt.Errorf("oversample: unknown quality %q", s)
	}
}

// ValidFactor reports whether f is a supported oversampling factor.
func ValidFactor(f int) bool {
	return f >= 1 && f <= MaxSupportedFactor && f&(f-1) == 0
}

// Option configures a Manager.
type Option func(*config)

type config struct {
	factor         int
	maxFactor      int
	quality        Quality
	maxWorkSamples int
}

// WithFactor sets the initial active factor (default 2).
func WithFactor(f int) Option {
	return func(c *config) { c.factor = f }
}

// WithMaxFactor sets the largest factor prepared up front (default: the
// initial factor). SelectPrepared can switch to any factor up to this one.
func WithMaxFactor(f int) Option {
	return func(c *config) { c.maxFactor = f }
}

// WithQuality sets the stage family (default QualityGood).
func WithQuality(q Quality) Option {
	return func(c *config) { c.quality = q }
}

// WithMaxWorkSamples bounds the per-channel work buffer length.
func WithMaxWorkSamples(n int) Option {
	return func(c *config) { c.maxWorkSamples = n }
}

// Manager owns the half-band cascade and work buffers for one processing
// path. Prepare, SetFactor and SetQuality allocate; every other method is
// allocation free.
type Manager struct {
	cfg config

	sampleRate   float64
	maxBlockSize int
	channels     int
	prepared     bool

	factor   int
	fallback bool

	stages []stage
	bufs   [][][]float64 // [stage][channel][sample]
	view   [][]float64
}

// NewManager validates options and returns an unprepared Manager.
func NewManager(opts ...Option) (*Manager, error) {
	cfg := config{factor: 2, quality: QualityGood, maxWorkSamples: defaultMaxWorkSamples}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.maxFactor == 0 {
		cfg.maxFactor = cfg.factor
	}

	if !ValidFactor(cfg.factor) || !ValidFactor(cfg.maxFactor) {
		return nil, ErrInvalidFactor
	}

	if cfg.maxFactor < cfg.factor {
		cfg.maxFactor = cfg.factor
	}

	if cfg.quality < QualityDraft || cfg.quality > QualityBest {
		return nil, fmt.Errorf("oversample: invalid quality %d", int(cfg.quality))
	}

	if cfg.maxWorkSamples <= 0 {
		cfg.maxWorkSamples = defaultMaxWorkSamples
	}

	return &Manager{cfg: cfg, factor: 1}, nil
}

// Prepare builds the cascade for the configured maximum factor. On a
// resource failure the manager falls back to factor 1 and returns the
// error.
func (m *Manager) Prepare(sampleRate float64, maxBlockSize, channels int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("oversample: sample rate must be positive and finite: %f", sampleRate)
	}

	if maxBlockSize < 1 || channels < 1 {
		return fmt.Errorf("oversample: block size and channels must be >= 1: %d, %d", maxBlockSize, channels)
	}

	m.sampleRate = sampleRate
	m.maxBlockSize = maxBlockSize
	m.channels = channels
	m.prepared = true
	m.view = make([][]float64, channels)

	return m.rebuild(m.cfg.maxFactor, m.cfg.factor)
}

func (m *Manager) rebuild(maxFactor, active int) error {
	if maxFactor*m.maxBlockSize > m.cfg.maxWorkSamples {
		m.fallbackToUnity()
		return fmt.Errorf("%w: %d x %d samples", ErrResource, maxFactor, m.maxBlockSize)
	}

	n := bits.TrailingZeros(uint(maxFactor))
	stages := make([]stage, n)
	bufs := make([][][]float64, n)

	for s := range n {
		st, err := m.newStage()
		if err != nil {
			m.fallbackToUnity()
			return err
		}

		stages[s] = st
		bufs[s] = make([][]float64, m.channels)

		for ch := range m.channels {
			bufs[s][ch] = make([]float64, m.maxBlockSize<<(s+1))
		}
	}

	m.stages = stages
	m.bufs = bufs
	m.cfg.maxFactor = maxFactor
	m.factor = active
	m.fallback = false

	return nil
}

func (m *Manager) fallbackToUnity() {
	m.stages = nil
	m.bufs = nil
	m.cfg.maxFactor = 1
	m.factor = 1
	m.fallback = true
}

func (m *Manager) newStage() (stage, error) {
	switch m.cfg.quality {
	case QualityDraft:
		coeffs, err := designIIR(8, 0.04)
		if err != nil {
			return nil, err
		}

		return newIIRStage(coeffs, m.channels), nil
	case QualityBest:
		taps, err := designFIR(63, 90)
		if err != nil {
			return nil, err
		}

		return newFIRStage(taps, m.channels), nil
	default:
		taps, err := designFIR(31, 60)
		if err != nil {
			return nil, err
		}

		return newFIRStage(taps, m.channels), nil
	}
}

// SetFactor changes the active factor, growing the cascade if needed.
// Not real-time safe.
func (m *Manager) SetFactor(f int) error {
	if !ValidFactor(f) {
		return ErrInvalidFactor
	}

	m.cfg.factor = f

	if !m.prepared {
		m.cfg.maxFactor = max(m.cfg.maxFactor, f)
		return nil
	}

	if f <= m.cfg.maxFactor && !m.fallback {
		m.SelectPrepared(f)
		return nil
	}

	return m.rebuild(max(f, m.cfg.maxFactor), f)
}

// SetQuality rebuilds the cascade with a different stage family.
// Not real-time safe.
func (m *Manager) SetQuality(q Quality) error {
	if q < QualityDraft || q > QualityBest {
		return fmt.Errorf("oversample: invalid quality %d", int(q))
	}

	m.cfg.quality = q

	if !m.prepared {
		return nil
	}

	return m.rebuild(max(m.cfg.maxFactor, m.cfg.factor), m.cfg.factor)
}

// SelectPrepared switches to a factor whose stages already exist. It
// clears the stage state and reports whether the switch happened. Safe on
// the audio goroutine.
func (m *Manager) SelectPrepared(f int) bool {
	if !ValidFactor(f) || f > m.cfg.maxFactor {
		return false
	}

	if f != m.factor {
		m.factor = f
		m.Reset()
	}

	return true
}

// Factor returns the active factor.
func (m *Manager) Factor() int { return m.factor }

// MaxFactor returns the largest prepared factor.
func (m *Manager) MaxFactor() int { return m.cfg.maxFactor }

// Quality returns the stage family.
func (m *Manager) Quality() Quality { return m.cfg.quality }

// Fallback reports whether the last reconfiguration failed and the
// manager is running at factor 1.
func (m *Manager) Fallback() bool { return m.fallback }

// SampleRate returns the oversampled rate.
func (m *Manager) SampleRate() float64 { return m.sampleRate * float64(m.factor) }

// Latency returns the round-trip group delay in base-rate samples.
func (m *Manager) Latency() float64 {
	var d float64
	for s := range m.stageCount() {
		d += m.stages[s].delay() / float64(int(2)<<s)
	}

	return d
}

// LatencySamples returns Latency rounded to whole base-rate samples.
func (m *Manager) LatencySamples() int {
	return int(math.Round(m.Latency()))
}

// Reset clears all stage state.
func (m *Manager) Reset() {
	for _, s := range m.stages {
		s.reset()
	}
}

func (m *Manager) activeStages() int {
	return bits.TrailingZeros(uint(m.factor))
}

// ProcessUp interpolates block by the active factor and returns views into
// internal buffers of length len(block[0])*Factor(). The views stay valid
// until the next ProcessUp or ProcessDown. At factor 1 block is returned.
// Blocks longer than the prepared maximum are truncated.
func (m *Manager) ProcessUp(block [][]float64) [][]float64 {
	n := m.stageCount()
	if n == 0 || len(block) == 0 {
		return block
	}

	channels := min(len(block), m.channels)
	length := min(len(block[0]), m.maxBlockSize)

	for s := range n {
		for ch := range channels {
			var src []float64
			if s == 0 {
				src = block[ch][:length]
			} else {
				src = m.bufs[s-1][ch][:length<<s]
			}

			m.stages[s].up(m.bufs[s][ch][:length<<(s+1)], src, ch)
		}
	}

	for ch := range channels {
		m.view[ch] = m.bufs[n-1][ch][:length<<n]
	}

	return m.view[:channels]
}

// ProcessDown decimates wide by the active factor into out. len(out[ch])
// sets the base-rate length.
func (m *Manager) ProcessDown(wide, out [][]float64) {
	n := m.stageCount()
	channels := min(len(wide), len(out))

	if n == 0 {
		for ch := range channels {
			copy(out[ch], wide[ch])
		}

		return
	}

	channels = min(channels, m.channels)
	if channels == 0 {
		return
	}

	length := min(len(out[0]), m.maxBlockSize)

	for s := n - 1; s >= 0; s-- {
		for ch := range channels {
			var src []float64
			if s == n-1 {
				src = wide[ch][:length<<n]
			} else {
				src = m.bufs[s][ch][:length<<(s+1)]
			}

			var dst []float64
			if s == 0 {
				dst = out[ch][:length]
			} else {
				dst = m.bufs[s-1][ch][:length<<s]
			}

			m.stages[s].down(dst, src, ch)
		}
	}
}

func (m *Manager) stageCount() int {
	if m.fallback || len(m.stages) == 0 {
		return 0
	}

	return m.activeStages()
}
