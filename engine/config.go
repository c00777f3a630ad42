package engine

import (
	"fmt"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/oversample"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/safety"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine/governor"
)

// Config holds prepare-time settings. Changing it requires a new Prepare.
type Config struct {
	// OversampleFactor is the rate multiple of the nonlinear section.
	OversampleFactor int `toml:"oversample_factor"`
	// OversampleQuality is "draft", "good" or "best".
	OversampleQuality string `toml:"oversample_quality"`

	TruePeak       bool `toml:"true_peak"`
	TruePeakFactor int  `toml:"true_peak_factor"`
	// AdaptiveTruePeak lets the limiter double its factor on transient
	// material while the governor runs at the high tier.
	AdaptiveTruePeak bool `toml:"adaptive_true_peak"`

	Loudness bool `toml:"loudness"`

	CrossfadeMs float64 `toml:"crossfade_ms"`
	SmoothingMs float64 `toml:"smoothing_ms"`
	DCCutoffHz  float64 `toml:"dc_cutoff_hz"`

	Governor governor.Config `toml:"governor"`
}

// DefaultConfig returns 2x good-quality oversampling around the nonlinear
// section, a 4x true-peak limiter and loudness metering.
func DefaultConfig() Config {
	return Config{
		OversampleFactor:  2,
		OversampleQuality: oversample.QualityGood.String(),
		TruePeak:          true,
		TruePeakFactor:    4,
		AdaptiveTruePeak:  true,
		Loudness:          true,
		CrossfadeMs:       safety.DefaultFade * 1000,
		SmoothingMs:       20,
		DCCutoffHz:        safety.DefaultDCCutoff,
		Governor:          governor.DefaultConfig(),
	}
}

const (
	maxCrossfadeMs = 500.0
	maxSmoothingMs = 1000.0
	minDCCutoffHz  = 1.0
	maxDCCutoffHz  = 40.0
)

// normalize replaces invalid settings with defaults and describes each
// replacement.
func (c Config) normalize() (Config, []string) {
	def := DefaultConfig()

	var warnings []string

	fix := func(field string, from, to any) {
		warnings = append(warnings, fmt.Sprintf("%s %v -> %v", field, from, to))
	}

	if !oversample.ValidFactor(c.OversampleFactor) {
		fix("oversample_factor", c.OversampleFactor, def.OversampleFactor)
		c.OversampleFactor = def.OversampleFactor
	}

	if _, err := oversample.ParseQuality(c.OversampleQuality); err != nil {
		fix("oversample_quality", c.OversampleQuality, def.OversampleQuality)
		c.OversampleQuality = def.OversampleQuality
	}

	if !oversample.ValidFactor(c.TruePeakFactor) || c.TruePeakFactor < 2 {
		fix("true_peak_factor", c.TruePeakFactor, def.TruePeakFactor)
		c.TruePeakFactor = def.TruePeakFactor
	}

	if !(c.CrossfadeMs > 0) || c.CrossfadeMs > maxCrossfadeMs {
		fix("crossfade_ms", c.CrossfadeMs, def.CrossfadeMs)
		c.CrossfadeMs = def.CrossfadeMs
	}

	if !(c.SmoothingMs > 0) || c.SmoothingMs > maxSmoothingMs {
		fix("smoothing_ms", c.SmoothingMs, def.SmoothingMs)
		c.SmoothingMs = def.SmoothingMs
	}

	if !(c.DCCutoffHz >= minDCCutoffHz) || c.DCCutoffHz > maxDCCutoffHz {
		fix("dc_cutoff_hz", c.DCCutoffHz, def.DCCutoffHz)
		c.DCCutoffHz = def.DCCutoffHz
	}

	if !(c.Governor.OverloadThreshold > 0) {
		fix("governor.overload_threshold", c.Governor.OverloadThreshold, def.Governor.OverloadThreshold)
		c.Governor.OverloadThreshold = def.Governor.OverloadThreshold
	}

	if c.Governor.OverloadBlocks < 1 {
		fix("governor.overload_blocks", c.Governor.OverloadBlocks, def.Governor.OverloadBlocks)
		c.Governor.OverloadBlocks = def.Governor.OverloadBlocks
	}

	if c.Governor.DowngradeBlocks < 1 {
		fix("governor.downgrade_blocks", c.Governor.DowngradeBlocks, def.Governor.DowngradeBlocks)
		c.Governor.DowngradeBlocks = def.Governor.DowngradeBlocks
	}

	if c.Governor.UpgradeBlocks < 1 {
		fix("governor.upgrade_blocks", c.Governor.UpgradeBlocks, def.Governor.UpgradeBlocks)
		c.Governor.UpgradeBlocks = def.Governor.UpgradeBlocks
	}

	return c, warnings
}

func (c Config) quality() oversample.Quality {
	q, err := oversample.ParseQuality(c.OversampleQuality)
	if err != nil {
		return oversample.QualityGood
	}

	return q
}
