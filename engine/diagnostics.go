package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/effects/limiter"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/safety"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine/governor"
)

// Report is a diagnostics export.
type Report struct {
	// InputFaults and OutputFaults count non-finite samples replaced since
	// the previous export.
	InputFaults  uint64
	OutputFaults uint64

	Overloaded      bool
	ActiveTier      governor.Tier
	RequestedTier   governor.Tier
	LoadPercent     float64
	PeakLoadPercent float64

	HardwareFTZ bool
	Platform    string

	OversampleFactor   int
	OversampleFallback bool
	TruePeak           limiter.Guarantee
	LatencySamples     int
}

// DiagnosticsSink receives exported reports. It is never called from
// Process.
type DiagnosticsSink interface {
	Report(r Report)
}

// ExportDiagnostics collects counters and flags, forwards them to the
// context's sink and logs a summary. It must not be called from the audio
// goroutine. Fault counters are reset by the export.
func (e *Engine) ExportDiagnostics() Report {
	r := Report{
		Overloaded:         e.gov.Overloaded(),
		ActiveTier:         e.gov.ActiveTier(),
		RequestedTier:      e.gov.RequestedTier(),
		LoadPercent:        e.gov.LoadPercent(),
		PeakLoadPercent:    e.gov.PeakLoadPercent(),
		HardwareFTZ:        safety.HardwareFTZ(),
		Platform:           safety.Platform(),
		OversampleFactor:   e.report.OversampleFactor,
		OversampleFallback: e.report.OversampleFallback,
		TruePeak:           e.report.TruePeak,
		LatencySamples:     e.report.LatencySamples,
	}

	if e.input.sanitizer != nil {
		r.InputFaults = e.input.sanitizer.TakeCount()
	}

	if e.output.sanitizer != nil {
		r.OutputFaults = e.output.sanitizer.TakeCount()
	}

	fields := logrus.Fields{
		"function":      "Engine.ExportDiagnostics",
		"input_faults":  r.InputFaults,
		"output_faults": r.OutputFaults,
		"overloaded":    r.Overloaded,
		"tier":          r.ActiveTier.String(),
		"load_percent":  r.LoadPercent,
		"hardware_ftz":  r.HardwareFTZ,
		"oversample":    r.OversampleFactor,
		"true_peak":     r.TruePeak.String(),
	}

	if r.InputFaults > 0 || r.OutputFaults > 0 || r.Overloaded || r.OversampleFallback {
		e.ctx.Logger.WithFields(fields).Warn("Engine diagnostics report faults")
	} else {
		e.ctx.Logger.WithFields(fields).Debug("Engine diagnostics")
	}

	if e.ctx.Diagnostics != nil {
		e.ctx.Diagnostics.Report(r)
	}

	return r
}
