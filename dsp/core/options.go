package core

import "fmt"

// Valid ranges for prepare-time processing settings. Values outside are
// clamped by ProcessorConfig.Clamp.
const (
	MinSampleRate = 8000.0
	MaxSampleRate = 384000.0
	MinBlockSize  = 16
	MaxBlockSize  = 8192
	MinChannels   = 1
	MaxChannels   = 2
)

// ProcessorConfig defines common DSP processing settings.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	Channels   int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns sensible defaults for streaming use.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  512,
		Channels:   2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the maximum processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithChannels sets the channel count.
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Adjustment records one value that Clamp had to change.
type Adjustment struct {
	Field string
	From  string
	To    string
}

func (a Adjustment) String() string {
	return fmt.Sprintf("%s %s -> %s", a.Field, a.From, a.To)
}

// Clamp maps every field to the nearest valid value and reports what changed.
// Non-finite sample rates fall back to the default rate.
func (c ProcessorConfig) Clamp() (ProcessorConfig, []Adjustment) {
	var adj []Adjustment

	out := c

	switch {
	case !IsFinite(c.SampleRate) || c.SampleRate <= 0:
		out.SampleRate = DefaultProcessorConfig().SampleRate
	default:
		out.SampleRate = Clamp(c.SampleRate, MinSampleRate, MaxSampleRate)
	}

	if out.SampleRate != c.SampleRate {
		adj = append(adj, Adjustment{
			Field: "sample_rate",
			From:  fmt.Sprintf("%g", c.SampleRate),
			To:    fmt.Sprintf("%g", out.SampleRate),
		})
	}

	out.BlockSize = ClampInt(c.BlockSize, MinBlockSize, MaxBlockSize)
	if out.BlockSize != c.BlockSize {
		adj = append(adj, Adjustment{
			Field: "block_size",
			From:  fmt.Sprintf("%d", c.BlockSize),
			To:    fmt.Sprintf("%d", out.BlockSize),
		})
	}

	out.Channels = ClampInt(c.Channels, MinChannels, MaxChannels)
	if out.Channels != c.Channels {
		adj = append(adj, Adjustment{
			Field: "channels",
			From:  fmt.Sprintf("%d", c.Channels),
			To:    fmt.Sprintf("%d", out.Channels),
		})
	}

	return out, adj
}
