package engine

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 readable from any goroutine.
type AtomicFloat struct {
	bits atomic.Uint64
}

// Load returns the value.
func (a *AtomicFloat) Load() float64 { return math.Float64frombits(a.bits.Load()) }

// Store sets the value.
func (a *AtomicFloat) Store(v float64) { a.bits.Store(math.Float64bits(v)) }

// Metering holds the readbacks published once per processed block. Each
// field is written only by the audio goroutine.
type Metering struct {
	MomentaryLUFS   AtomicFloat
	ShortTermLUFS   AtomicFloat
	IntegratedLUFS  AtomicFloat
	LoudnessRangeLU AtomicFloat
	TruePeakDBTP    AtomicFloat
	// GainReductionDB is the limiter's display gain reduction.
	GainReductionDB AtomicFloat
	GlueReductionDB AtomicFloat
	Correlation     AtomicFloat
	LoadPercent     AtomicFloat
}

// MeterSnapshot is a plain copy of Metering for a UI poll.
type MeterSnapshot struct {
	MomentaryLUFS   float64
	ShortTermLUFS   float64
	IntegratedLUFS  float64
	LoudnessRangeLU float64
	TruePeakDBTP    float64
	GainReductionDB float64
	GlueReductionDB float64
	Correlation     float64
	LoadPercent     float64
}

// Snapshot reads every readback. Fields are read individually, so values
// may straddle a block boundary.
func (m *Metering) Snapshot() MeterSnapshot {
	return MeterSnapshot{
		MomentaryLUFS:   m.MomentaryLUFS.Load(),
		ShortTermLUFS:   m.ShortTermLUFS.Load(),
		IntegratedLUFS:  m.IntegratedLUFS.Load(),
		LoudnessRangeLU: m.LoudnessRangeLU.Load(),
		TruePeakDBTP:    m.TruePeakDBTP.Load(),
		GainReductionDB: m.GainReductionDB.Load(),
		GlueReductionDB: m.GlueReductionDB.Load(),
		Correlation:     m.Correlation.Load(),
		LoadPercent:     m.LoadPercent.Load(),
	}
}

func (m *Metering) reset(floor float64) {
	m.MomentaryLUFS.Store(floor)
	m.ShortTermLUFS.Store(floor)
	m.IntegratedLUFS.Store(floor)
	m.LoudnessRangeLU.Store(0)
	m.TruePeakDBTP.Store(floor)
	m.GainReductionDB.Store(0)
	m.GlueReductionDB.Store(0)
	m.Correlation.Store(0)
	m.LoadPercent.Store(0)
}
