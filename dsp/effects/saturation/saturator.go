package saturation

import (
	"fmt"
	"math"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/safety"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/smooth"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/internal/fastmath"
)

const (
	minDriveDB  = 0.0
	maxDriveDB  = 24.0
	minOutputDB = -24.0
	maxOutputDB = 12.0

	defaultTransformerBias = 0.2
	defaultTubeBias        = 0.25

	// SafetyBound is the absolute output limit of the stage.
	SafetyBound = 1.5
)

type config struct {
	mode     Mode
	driveDB  float64
	mix      float64
	outputDB float64
}

func defaultConfig() config {
	return config{mode: ModeDrive, driveDB: 6, mix: 1}
}

// Option mutates saturator construction parameters.
type Option func(*config) error

// WithMode selects the curve family.
func WithMode(m Mode) Option {
	return func(cfg *config) error {
		if !validMode(m) {
			return fmt.Errorf("saturation mode is invalid: %d", m)
		}

		cfg.mode = m

		return nil
	}
}

// WithDrive sets the input drive in dB.
func WithDrive(db float64) Option {
	return func(cfg *config) error {
		if err := checkDrive(db); err != nil {
			return err
		}

		cfg.driveDB = db

		return nil
	}
}

// WithMix sets the dry/wet mix in [0, 1].
func WithMix(mix float64) Option {
	return func(cfg *config) error {
		if err := checkMix(mix); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

// WithOutput sets the wet output trim in dB.
func WithOutput(db float64) Option {
	return func(cfg *config) error {
		if err := checkOutput(db); err != nil {
			return err
		}

		cfg.outputDB = db

		return nil
	}
}

func checkDrive(db float64) error {
	if db < minDriveDB || db > maxDriveDB || math.IsNaN(db) {
		return fmt.Errorf("saturation drive must be in [%g, %g] dB: %f", minDriveDB, maxDriveDB, db)
	}

	return nil
}

func checkMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("saturation mix must be in [0, 1]: %f", mix)
	}

	return nil
}

func checkOutput(db float64) error {
	if db < minOutputDB || db > maxOutputDB || math.IsNaN(db) {
		return fmt.Errorf("saturation output must be in [%g, %g] dB: %f", minOutputDB, maxOutputDB, db)
	}

	return nil
}

// Saturator applies a selectable curve with smoothed drive, mix and output
// trim. The wet path is DC-blocked before mixing and the final output is
// softly bounded to ±SafetyBound.
type Saturator struct {
	mode Mode
	eco  bool

	sine        Sine
	drive       Drive
	hysteresis  *Hysteresis
	transformer Transformer
	tube        Tube

	driveGain smooth.Smoother
	mix       smooth.Smoother
	output    smooth.Smoother

	dc *safety.DCBlocker

	sampleRate float64
	channels   int
}

// New creates a saturator. Call Prepare before processing.
func New(opts ...Option) (*Saturator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	s := &Saturator{
		mode:        cfg.mode,
		drive:       Drive{Knee: 2.5},
		hysteresis:  NewHysteresis(1),
		transformer: Transformer{Bias: defaultTransformerBias},
		tube:        Tube{Bias: defaultTubeBias},
		dc:          safety.NewDCBlocker(safety.DefaultDCCutoff),
		channels:    1,
	}
	s.SetEco(false)

	for _, sm := range []*smooth.Smoother{&s.driveGain, &s.mix, &s.output} {
		sm.Prepare(48000, smooth.DefaultRamp)
	}

	s.driveGain.Reset(dbToGain(cfg.driveDB))
	s.mix.Reset(cfg.mix)
	s.output.Reset(dbToGain(cfg.outputDB))

	return s, nil
}

// Prepare sizes per-channel state for sampleRate, which should be the rate
// the stage actually runs at.
func (s *Saturator) Prepare(sampleRate float64, channels int) error {
	if channels < 1 {
		return fmt.Errorf("saturation channels must be positive: %d", channels)
	}

	if err := s.dc.Prepare(sampleRate, channels); err != nil {
		return err
	}

	s.sampleRate = sampleRate
	s.channels = channels
	s.hysteresis = NewHysteresis(channels)
	s.hysteresis.tanh = s.transformer.tanh

	for _, sm := range []*smooth.Smoother{&s.driveGain, &s.mix, &s.output} {
		sm.Prepare(sampleRate, smooth.DefaultRamp)
	}

	return nil
}

// SampleRate returns the prepared processing rate.
func (s *Saturator) SampleRate() float64 { return s.sampleRate }

// Mode returns the active curve family.
func (s *Saturator) Mode() Mode { return s.mode }

// SetMode switches the curve family. Switching clears hysteresis memory.
func (s *Saturator) SetMode(m Mode) error {
	if !validMode(m) {
		return fmt.Errorf("saturation mode is invalid: %d", m)
	}

	if m != s.mode {
		s.hysteresis.Reset()
	}

	s.mode = m

	return nil
}

// SetDrive sets the drive target in dB.
func (s *Saturator) SetDrive(db float64) error {
	if err := checkDrive(db); err != nil {
		return err
	}

	s.driveGain.SetTarget(dbToGain(db))

	return nil
}

// SetMix sets the dry/wet target.
func (s *Saturator) SetMix(mix float64) error {
	if err := checkMix(mix); err != nil {
		return err
	}

	s.mix.SetTarget(mix)

	return nil
}

// SetOutput sets the wet output trim target in dB.
func (s *Saturator) SetOutput(db float64) error {
	if err := checkOutput(db); err != nil {
		return err
	}

	s.output.SetTarget(dbToGain(db))

	return nil
}

// SetEco selects the rational tanh and algo-approx sine instead of package
// math.
func (s *Saturator) SetEco(eco bool) {
	s.eco = eco

	tanh, sin := math.Tanh, math.Sin
	if eco {
		tanh, sin = fastmath.Tanh, fastmath.Sin
	}

	s.sine.sin = sin

	s.transformer.tanh = tanh
	s.tube.tanh = tanh
	s.tube.offset = tanh(s.tube.Bias)
	s.hysteresis.tanh = tanh
}

// Eco reports whether the approximation path is active.
func (s *Saturator) Eco() bool { return s.eco }

// Curve returns the curve used by the active mode.
func (s *Saturator) Curve() Curve {
	switch s.mode {
	case ModeSine:
		return &s.sine
	case ModeHysteresis:
		return s.hysteresis
	case ModeTransformer:
		return &s.transformer
	case ModeTube:
		return &s.tube
	default:
		return &s.drive
	}
}

// ProcessBlock saturates block in place. Channels beyond the prepared count
// are left untouched.
func (s *Saturator) ProcessBlock(block [][]float64) {
	if len(block) == 0 {
		return
	}

	channels := min(len(block), s.channels)
	n := len(block[0])
	curve := s.Curve()

	for i := range n {
		g := s.driveGain.Next()
		m := s.mix.Next()
		o := s.output.Next()

		for ch := range channels {
			x := block[ch][i]
			wet := s.dc.ProcessSample(curve.Shape(x*g, ch), ch) * o
			block[ch][i] = SoftBound(x + m*(wet-x))
		}
	}
}

// Reset clears filter and curve state and snaps parameters to their
// targets.
func (s *Saturator) Reset() {
	s.hysteresis.Reset()
	s.dc.Reset()

	for _, sm := range []*smooth.Smoother{&s.driveGain, &s.mix, &s.output} {
		sm.Reset(sm.Target())
	}
}

// SoftBound is the identity inside [-1, 1] and bends smoothly toward
// ±SafetyBound beyond it. Non-finite input maps to 0.
func SoftBound(x float64) float64 {
	a := math.Abs(x)
	if a <= 1 {
		return x
	}

	if math.IsNaN(x) {
		return 0
	}

	const knee = SafetyBound - 1

	y := 1 + knee*math.Tanh((a-1)/knee)
	if x < 0 {
		return -y
	}

	return y
}

func dbToGain(db float64) float64 { return math.Pow(10, db/20) }
