package engine

import (
	"math"
	"testing"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/saturation"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine/governor"
)

func TestParamsValuesRoundTrip(t *testing.T) {
	p := DefaultParams()
	p.Enabled = false
	p.InputGainDB = -3.5
	p.SaturationMode = saturation.ModeHysteresis
	p.SubharmonicAmount = 0.25
	p.RequestedTier = governor.TierHigh

	values := p.Values()
	if len(values) != len(ParamSpecs()) {
		t.Fatalf("Values() has %d keys, want %d", len(values), len(ParamSpecs()))
	}

	got, err := ParamsFromValues(values)
	if err != nil {
		t.Fatalf("ParamsFromValues() error = %v", err)
	}

	if got != p {
		t.Fatalf("round trip = %+v, want %+v", got, p)
	}
}

func TestParamsFromValues(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]float64
		want    func(Params) bool
		wantErr bool
	}{
		{
			name:   "empty keeps defaults",
			values: map[string]float64{},
			want:   func(p Params) bool { return p == DefaultParams() },
		},
		{
			name:   "out of range is clamped",
			values: map[string]float64{"ceiling_db": 3, "glue_ratio": 0.2},
			want:   func(p Params) bool { return p.CeilingDB == 0 && p.GlueRatio == 1 },
		},
		{
			name:   "choice rounds",
			values: map[string]float64{"saturation_mode": 3.4, "quality_tier": 0},
			want: func(p Params) bool {
				return p.SaturationMode == saturation.ModeTransformer && p.RequestedTier == governor.TierEco
			},
		},
		{
			name:    "unknown key",
			values:  map[string]float64{"wow": 1},
			wantErr: true,
		},
		{
			name:    "not finite",
			values:  map[string]float64{"drive_db": math.Inf(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParamsFromValues(tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && !tt.want(got) {
				t.Fatalf("ParamsFromValues() = %+v", got)
			}
		})
	}
}

func TestParamsClamp(t *testing.T) {
	p := Params{
		InputGainDB:    math.NaN(),
		Drive:          -5,
		SaturationMode: saturation.Mode(99),
		GlueRatio:      50,
		RequestedTier:  governor.Tier(-3),
	}

	got := p.Clamp()

	if got.InputGainDB != 0 || got.Drive != 0 || got.SaturationMode != saturation.ModeTube ||
		got.GlueRatio != 10 || got.RequestedTier != governor.TierEco {
		t.Fatalf("Clamp() = %+v", got)
	}
}

func TestParamSpecsAreACopy(t *testing.T) {
	specs := ParamSpecs()
	specs[0].Key = "changed"

	if ParamSpecs()[0].Key != "enabled" {
		t.Fatal("ParamSpecs exposes internal table")
	}
}
