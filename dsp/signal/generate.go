// Package signal generates deterministic stereo program material for the
// offline harness: steady tones, seeded noise and a synthetic drum loop with
// strong transients.
package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"
)

// Kind names a generated material type.
type Kind string

const (
	KindSine  Kind = "sine"
	KindNoise Kind = "noise"
	KindDrums Kind = "drums"
)

// Generator creates deterministic signals from a shared configuration.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
	freq float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithFrequency sets the tone frequency used by KindSine (default 1 kHz).
func WithFrequency(hz float64) Option {
	return func(g *Generator) {
		g.freq = hz
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyProcessorOptions(coreOpts...),
		seed: 1,
		freq: 1000,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sine samples must be > 0: %d", samples)
	}

	if freqHz <= 0 || freqHz >= g.cfg.SampleRate/2 {
		return nil, fmt.Errorf("sine frequency must be in (0, %f): %f", g.cfg.SampleRate/2, freqHz)
	}

	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}

	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}

	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out, nil
}

// Drums generates a 120 BPM kick/snare/hat loop: pitched decaying kicks on
// beats one and three, noise snares on two and four, short hats on eighths.
func (g *Generator) Drums(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("drum samples must be > 0: %d", samples)
	}

	sr := g.cfg.SampleRate
	beat := int(sr / 2)
	eighth := beat / 2
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))

	for i := range out {
		posBeat := i % beat
		beatIdx := (i / beat) % 4
		t := float64(posBeat) / sr

		var v float64

		if beatIdx == 0 || beatIdx == 2 {
			f := 50 + 90*math.Exp(-t*30)
			v += math.Sin(2*math.Pi*f*t) * math.Exp(-t*12)
		} else {
			v += 0.6 * (rng.Float64()*2 - 1) * math.Exp(-t*25)
		}

		th := float64(i%eighth) / sr
		v += 0.15 * (rng.Float64()*2 - 1) * math.Exp(-th*120)

		out[i] = v
	}

	return Normalize(out, amplitude)
}

// Stereo renders kind at peak level levelDB (dBFS) for the given duration
// as a planar float32 stereo buffer. The right channel is decorrelated
// slightly from the left so stereo meters have something to show.
func (g *Generator) Stereo(kind Kind, seconds, levelDB float64) ([][]float32, error) {
	samples := int(math.Round(seconds * g.cfg.SampleRate))
	amp := core.DBToLinear(levelDB)

	var (
		mono []float64
		err  error
	)

	switch kind {
	case KindSine:
		mono, err = g.Sine(g.freq, amp, samples)
	case KindNoise:
		mono, err = g.WhiteNoise(amp, samples)
	case KindDrums:
		mono, err = g.Drums(amp, samples)
	default:
		return nil, fmt.Errorf("unknown signal kind %q", kind)
	}

	if err != nil {
		return nil, err
	}

	left := make([]float32, samples)
	right := make([]float32, samples)
	prev := 0.0

	for i, v := range mono {
		left[i] = float32(v)
		right[i] = float32(0.9*v + 0.1*prev)
		prev = v
	}

	return [][]float32{left, right}, nil
}

// Normalize scales data to target peak amplitude and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("normalize input must not be empty")
	}

	maxAbs := 0.0
	for _, v := range data {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	out := make([]float64, len(data))
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}

	scale := targetPeak / maxAbs
	for i, v := range data {
		out[i] = v * scale
	}

	return out, nil
}
