package engine

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/saturation"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine/governor"
)

// Params is the complete set of user parameter targets. It is also the
// full persisted state of an engine.
type Params struct {
	Enabled           bool
	InputGainDB       float64
	OutputGainDB      float64
	Drive             float64 // dB
	SaturationMode    saturation.Mode
	SaturationMix     float64
	SubharmonicAmount float64
	GlueThresholdDB   float64
	GlueRatio         float64
	GlueMix           float64
	CeilingDB         float64
	RequestedTier     governor.Tier
}

// ParamRegistry is the host-side parameter store. Snapshot must not
// allocate or block: it is called on the audio goroutine.
type ParamRegistry interface {
	Snapshot() Params
}

// ParamSpec describes one parameter's persisted key and range.
type ParamSpec struct {
	Key     string
	Min     float64
	Max     float64
	Default float64
}

type paramID int

const (
	paramEnabled paramID = iota
	paramInputGain
	paramOutputGain
	paramDrive
	paramSaturationMode
	paramSaturationMix
	paramSubharmonic
	paramGlueThreshold
	paramGlueRatio
	paramGlueMix
	paramCeiling
	paramTier
	numParams
)

var paramSpecs = [numParams]ParamSpec{
	paramEnabled:        {Key: "enabled", Min: 0, Max: 1, Default: 1},
	paramInputGain:      {Key: "input_gain_db", Min: -24, Max: 24, Default: 0},
	paramOutputGain:     {Key: "output_gain_db", Min: -24, Max: 24, Default: 0},
	paramDrive:          {Key: "drive_db", Min: 0, Max: 24, Default: 6},
	paramSaturationMode: {Key: "saturation_mode", Min: float64(saturation.ModeSine), Max: float64(saturation.ModeTube), Default: float64(saturation.ModeDrive)},
	paramSaturationMix:  {Key: "saturation_mix", Min: 0, Max: 1, Default: 1},
	paramSubharmonic:    {Key: "subharmonic_amount", Min: 0, Max: 1, Default: 0},
	paramGlueThreshold:  {Key: "glue_threshold_db", Min: -60, Max: 0, Default: -18},
	paramGlueRatio:      {Key: "glue_ratio", Min: 1, Max: 10, Default: 2},
	paramGlueMix:        {Key: "glue_mix", Min: 0, Max: 1, Default: 1},
	paramCeiling:        {Key: "ceiling_db", Min: -12, Max: 0, Default: -1},
	paramTier:           {Key: "quality_tier", Min: float64(governor.TierEco), Max: float64(governor.TierHigh), Default: float64(governor.TierNormal)},
}

// ParamSpecs returns the key and range of every parameter in a fixed order.
func ParamSpecs() []ParamSpec {
	out := make([]ParamSpec, numParams)
	copy(out, paramSpecs[:])

	return out
}

// DefaultParams returns the factory targets.
func DefaultParams() Params {
	var v [numParams]float64
	for id := range numParams {
		v[id] = paramSpecs[id].Default
	}

	return paramsFromArray(v)
}

func (p Params) array() [numParams]float64 {
	var v [numParams]float64

	if p.Enabled {
		v[paramEnabled] = 1
	}

	v[paramInputGain] = p.InputGainDB
	v[paramOutputGain] = p.OutputGainDB
	v[paramDrive] = p.Drive
	v[paramSaturationMode] = float64(p.SaturationMode)
	v[paramSaturationMix] = p.SaturationMix
	v[paramSubharmonic] = p.SubharmonicAmount
	v[paramGlueThreshold] = p.GlueThresholdDB
	v[paramGlueRatio] = p.GlueRatio
	v[paramGlueMix] = p.GlueMix
	v[paramCeiling] = p.CeilingDB
	v[paramTier] = float64(p.RequestedTier)

	return v
}

func paramsFromArray(v [numParams]float64) Params {
	return Params{
		Enabled:           v[paramEnabled] >= 0.5,
		InputGainDB:       v[paramInputGain],
		OutputGainDB:      v[paramOutputGain],
		Drive:             v[paramDrive],
		SaturationMode:    saturation.Mode(math.Round(v[paramSaturationMode])),
		SaturationMix:     v[paramSaturationMix],
		SubharmonicAmount: v[paramSubharmonic],
		GlueThresholdDB:   v[paramGlueThreshold],
		GlueRatio:         v[paramGlueRatio],
		GlueMix:           v[paramGlueMix],
		CeilingDB:         v[paramCeiling],
		RequestedTier:     governor.Tier(math.Round(v[paramTier])),
	}
}

// Clamp maps every value into its range. NaN values take the default.
func (p Params) Clamp() Params {
	v := p.array()
	for id := range numParams {
		spec := paramSpecs[id]
		if math.IsNaN(v[id]) {
			v[id] = spec.Default
			continue
		}

		v[id] = core.Clamp(v[id], spec.Min, spec.Max)
	}

	return paramsFromArray(v)
}

// Values returns the parameters as a key-value tree for persistence.
func (p Params) Values() map[string]float64 {
	v := p.array()
	out := make(map[string]float64, numParams)

	for id := range numParams {
		out[paramSpecs[id].Key] = v[id]
	}

	return out
}

// ParamsFromValues restores parameters from a key-value tree. Missing keys
// keep their defaults and values are clamped into range; unknown keys and
// non-finite values are errors.
func ParamsFromValues(values map[string]float64) (Params, error) {
	v := DefaultParams().array()

	for key, x := range values {
		id, ok := paramByKey(key)
		if !ok {
			return Params{}, fmt.Errorf("engine: unknown parameter %q", key)
		}

		if !core.IsFinite(x) {
			return Params{}, fmt.Errorf("engine: parameter %q is not finite: %f", key, x)
		}

		v[id] = x
	}

	return paramsFromArray(v).Clamp(), nil
}

func paramByKey(key string) (paramID, bool) {
	for id := range numParams {
		if paramSpecs[id].Key == key {
			return id, true
		}
	}

	return 0, false
}

// paramStore publishes targets from the control goroutine to the audio
// goroutine. Each value is a separate atomic, so a reader never sees a
// torn float.
type paramStore struct {
	values [numParams]atomic.Uint64
}

func (s *paramStore) store(p Params) {
	v := p.Clamp().array()
	for id := range numParams {
		s.values[id].Store(math.Float64bits(v[id]))
	}
}

func (s *paramStore) load() Params {
	var v [numParams]float64
	for id := range numParams {
		v[id] = math.Float64frombits(s.values[id].Load())
	}

	return paramsFromArray(v)
}
