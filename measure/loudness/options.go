package loudness

import "github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"

// DefaultFloor is the reading reported for silence or missing data.
const DefaultFloor = -70.0

// MeterConfig defines configuration for the loudness meter. BlockSize is
// the largest block passed to ProcessBlock in one piece; longer blocks are
// split.
type MeterConfig struct {
	core.ProcessorConfig
	Floor    float64
	TruePeak bool
}

// MeterOption mutates a MeterConfig.
type MeterOption func(*MeterConfig)

// DefaultMeterConfig returns stereo 48 kHz metering with true peak on.
func DefaultMeterConfig() MeterConfig {
	return MeterConfig{
		ProcessorConfig: core.DefaultProcessorConfig(),
		Floor:           DefaultFloor,
		TruePeak:        true,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) MeterOption {
	return func(cfg *MeterConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithChannels sets the number of channels (1 for mono, 2 for stereo).
func WithChannels(channels int) MeterOption {
	return func(cfg *MeterConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// WithBlockSize sets the largest block processed in one piece.
func WithBlockSize(n int) MeterOption {
	return func(cfg *MeterConfig) {
		if n > 0 {
			cfg.BlockSize = n
		}
	}
}

// WithFloor sets the lowest reported loudness.
func WithFloor(lufs float64) MeterOption {
	return func(cfg *MeterConfig) {
		if lufs < 0 && lufs >= -200 {
			cfg.Floor = lufs
		}
	}
}

// WithTruePeak enables or disables 4x oversampled peak detection.
func WithTruePeak(on bool) MeterOption {
	return func(cfg *MeterConfig) {
		cfg.TruePeak = on
	}
}

// ApplyMeterOptions applies zero or more options to the default config.
func ApplyMeterOptions(opts ...MeterOption) MeterConfig {
	cfg := DefaultMeterConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
