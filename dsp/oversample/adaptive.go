package oversample

import (
	timestats "github.com/cilviademo/btz-sonic-alchemy-sub000/stats/time"
)

// AdaptiveConfig tunes the crest-factor driven factor controller.
type AdaptiveConfig struct {
	// Base is the factor used for steady material.
	Base int
	// CrestThresholdDB is the block crest factor above which the factor is
	// doubled.
	CrestThresholdDB float64
	// HysteresisDB is subtracted from the threshold for the release
	// decision.
	HysteresisDB float64
	// HoldBlocks is the number of consecutive calm blocks required before
	// returning to Base.
	HoldBlocks int
}

// DefaultAdaptiveConfig returns a controller that doubles a 2x base on
// transient-heavy blocks.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Base:             2,
		CrestThresholdDB: 12,
		HysteresisDB:     3,
		HoldBlocks:       8,
	}
}

// Adaptive requests a higher factor while block crest factors are high and
// falls back to the base factor after a hold period. It only ever requests
// factors up to maxFactor.
type Adaptive struct {
	cfg       AdaptiveConfig
	maxFactor int
	requested int
	calm      int
}

// NewAdaptive creates a controller bounded by maxFactor.
func NewAdaptive(cfg AdaptiveConfig, maxFactor int) *Adaptive {
	if !ValidFactor(cfg.Base) {
		cfg.Base = 2
	}

	if !ValidFactor(maxFactor) {
		maxFactor = cfg.Base
	}

	cfg.Base = min(cfg.Base, maxFactor)

	if cfg.HoldBlocks < 1 {
		cfg.HoldBlocks = 1
	}

	if cfg.HysteresisDB < 0 {
		cfg.HysteresisDB = 0
	}

	return &Adaptive{cfg: cfg, maxFactor: maxFactor, requested: cfg.Base}
}

// Observe inspects one block and returns the requested factor.
func (a *Adaptive) Observe(block [][]float64) int {
	crest := timestats.BlockCrestFactorDB(block)
	boosted := min(a.cfg.Base*2, a.maxFactor)

	switch {
	case crest > a.cfg.CrestThresholdDB:
		a.requested = boosted
		a.calm = 0
	case crest < a.cfg.CrestThresholdDB-a.cfg.HysteresisDB:
		if a.requested != a.cfg.Base {
			a.calm++
			if a.calm >= a.cfg.HoldBlocks {
				a.requested = a.cfg.Base
				a.calm = 0
			}
		}
	default:
		a.calm = 0
	}

	return a.requested
}

// Requested returns the last requested factor.
func (a *Adaptive) Requested() int { return a.requested }

// Config returns the effective configuration.
func (a *Adaptive) Config() AdaptiveConfig { return a.cfg }

// Reset returns the controller to the base factor.
func (a *Adaptive) Reset() {
	a.requested = a.cfg.Base
	a.calm = 0
}
