package main

import (
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/signal"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine/governor"
	timestats "github.com/cilviademo/btz-sonic-alchemy-sub000/stats/time"
)

// RenderCmd streams a synthetic signal through the engine.
type RenderCmd struct {
	Signal     string             `default:"sine" enum:"sine,noise,drums" help:"Test signal (sine, noise, drums)"`
	Seconds    float64            `default:"5" help:"Signal length in seconds"`
	Level      float64            `default:"-6" help:"Input peak level in dBFS"`
	Config     string             `type:"path" help:"TOML configuration file"`
	SampleRate float64            `name:"sample-rate" default:"48000" help:"Sample rate in Hz"`
	Block      int                `default:"512" help:"Host block size in samples"`
	Tier       string             `help:"Requested quality tier (eco, normal, high)"`
	Bypass     bool               `help:"Render with the engine bypassed"`
	Set        map[string]float64 `help:"Parameter overrides, e.g. --set drive_db=9"`
}

// renderResult carries everything the report prints.
type renderResult struct {
	Prepare     engine.PrepareReport
	Meters      engine.MeterSnapshot
	Diagnostics engine.Report
	MaxGRDB     float64
	Output      []timestats.Summary
	Elapsed     time.Duration
	Seconds     float64
}

// Run implements the render command.
func (c *RenderCmd) Run(g *Globals) error {
	log := g.Logger()

	res, err := c.render(log)
	if err != nil {
		return err
	}

	printRender(c, res)

	return nil
}

func (c *RenderCmd) render(log logrus.FieldLogger) (renderResult, error) {
	cfg, values, err := loadConfig(c.Config, log)
	if err != nil {
		return renderResult{}, err
	}

	overrides := maps.Clone(c.Set)
	if overrides == nil {
		overrides = map[string]float64{}
	}

	if c.Bypass {
		overrides["enabled"] = 0
	}

	params, err := resolveParams(values, overrides)
	if err != nil {
		return renderResult{}, err
	}

	if c.Tier != "" {
		tier, err := governor.ParseTier(c.Tier)
		if err != nil {
			return renderResult{}, err
		}

		params.RequestedTier = tier
	}

	eng, err := engine.New(engine.NewContext(engine.WithLogger(log)), cfg)
	if err != nil {
		return renderResult{}, err
	}

	// set before Prepare so the bypass switch starts in its final state
	eng.SetParams(params)

	rep := eng.Prepare(c.SampleRate, c.Block, 2)
	if rep.Err != nil {
		return renderResult{}, rep.Err
	}

	gen := signal.NewGenerator([]core.ProcessorOption{core.WithSampleRate(rep.SampleRate)})

	input, err := gen.Stereo(signal.Kind(c.Signal), c.Seconds, c.Level)
	if err != nil {
		return renderResult{}, err
	}

	acc := timestats.NewAccumulator(2)
	view := make([][]float32, 2)
	total := len(input[0])
	block := rep.MaxBlockSize

	var maxGR float64

	start := time.Now()

	for pos := 0; pos < total; pos += block {
		end := min(pos+block, total)
		view[0] = input[0][pos:end]
		view[1] = input[1][pos:end]

		eng.Process(view)
		acc.UpdateFloat32(view)

		maxGR = max(maxGR, eng.Metering().GainReductionDB.Load())
	}

	elapsed := time.Since(start)

	log.WithFields(logrus.Fields{
		"function": "render",
		"samples":  total,
		"elapsed":  elapsed,
	}).Debug("Render complete")

	return renderResult{
		Prepare:     rep,
		Meters:      eng.Metering().Snapshot(),
		Diagnostics: eng.ExportDiagnostics(),
		MaxGRDB:     maxGR,
		Output:      []timestats.Summary{acc.Result(0), acc.Result(1)},
		Elapsed:     elapsed,
		Seconds:     float64(total) / rep.SampleRate,
	}, nil
}

func printRender(c *RenderCmd, r renderResult) {
	printTitle("Sonic Alchemy render")
	printKV("Signal", fmt.Sprintf("%s, %.1f s at %.0f Hz", c.Signal, r.Seconds, r.Prepare.SampleRate))
	printKV("Oversampling", fmt.Sprintf("%dx", r.Prepare.OversampleFactor))
	printKV("Limiter", r.Prepare.TruePeak.String())
	printKV("Latency", fmt.Sprintf("%d samples", r.Prepare.LatencySamples))

	for _, w := range r.Prepare.Warnings {
		printWarnKV("Warning", w)
	}

	printSection("Loudness")
	printKV("Integrated", lufs(r.Meters.IntegratedLUFS))
	printKV("Short-term", lufs(r.Meters.ShortTermLUFS))
	printKV("Momentary", lufs(r.Meters.MomentaryLUFS))
	printKV("Loudness range", fmt.Sprintf("%.1f LU", r.Meters.LoudnessRangeLU))
	printKV("True peak", fmt.Sprintf("%.2f dBTP", r.Meters.TruePeakDBTP))
	printKV("Correlation", fmt.Sprintf("%+.2f", r.Meters.Correlation))

	printSection("Dynamics")
	printKV("Limiter GR (max)", fmt.Sprintf("%.2f dB", r.MaxGRDB))
	printKV("Glue GR", fmt.Sprintf("%.2f dB", r.Meters.GlueReductionDB))

	printSection("Output")
	for ch, s := range r.Output {
		printKV(fmt.Sprintf("Channel %d peak / RMS", ch+1), fmt.Sprintf("%.2f / %.2f dBFS", s.Peak_dB, s.RMS_dB))
	}

	printSection("Governor")
	d := r.Diagnostics
	printKV("Tier", fmt.Sprintf("%s (requested %s)", d.ActiveTier, d.RequestedTier))
	printKV("Load", fmt.Sprintf("%.1f%% (peak %.1f%%)", d.LoadPercent, d.PeakLoadPercent))

	if d.Overloaded {
		printWarnKV("Overload", "yes")
	}

	if r.Elapsed > 0 {
		printKV("Real-time factor", fmt.Sprintf("%.1fx", r.Seconds/r.Elapsed.Seconds()))
	}

	printSection("Diagnostics")
	printKV("Platform", d.Platform)
	printKV("Hardware FTZ", fmt.Sprintf("%t", d.HardwareFTZ))

	faults := fmt.Sprintf("%d in / %d out", d.InputFaults, d.OutputFaults)
	if d.InputFaults+d.OutputFaults > 0 {
		printWarnKV("Non-finite samples", faults)
	} else {
		printKV("Non-finite samples", faults)
	}
}

func lufs(v float64) string {
	if math.IsInf(v, -1) || v <= -70 {
		return "-inf LUFS"
	}

	return fmt.Sprintf("%.1f LUFS", v)
}
