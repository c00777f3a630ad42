package main

import (
	"fmt"
	"math"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/oversample"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/measure/spectral"
)

const (
	analyzeBlock  = 512
	analyzeFrames = 16
	settleSamples = 4096
)

// AnalyzeCmd measures the oversampler.
type AnalyzeCmd struct {
	Quality    string  `default:"good" enum:"draft,good,best" help:"Filter quality (draft, good, best)"`
	Factor     int     `default:"4" help:"Oversampling factor (2, 4, 8 or 16)"`
	SampleRate float64 `name:"sample-rate" default:"48000" help:"Base sample rate in Hz"`
	Size       int     `default:"4096" help:"Analysis frame size (power of two)"`
	Tone       float64 `default:"0.1" help:"Test tone as a fraction of the base sample rate"`
}

// rejection summarises one oversampler measurement. All levels are in dB
// relative to the in-band tone.
type rejection struct {
	Factor         int
	Quality        oversample.Quality
	LatencySamples int
	Tone           float64
	ImageDB        float64
	AliasDB        float64
	PassbandDB     float64
}

// Run implements the analyze command.
func (c *AnalyzeCmd) Run(g *Globals) error {
	q, err := oversample.ParseQuality(c.Quality)
	if err != nil {
		return err
	}

	r, err := measureRejection(q, c.Factor, c.SampleRate, c.Size, c.Tone)
	if err != nil {
		return err
	}

	g.Logger().WithField("factor", r.Factor).Debug("Analysis complete")

	printTitle("Oversampler analysis")
	printKV("Factor", fmt.Sprintf("%dx", r.Factor))
	printKV("Quality", r.Quality.String())
	printKV("Latency", fmt.Sprintf("%d samples", r.LatencySamples))
	printKV("Test tone", fmt.Sprintf("%.1f Hz", r.Tone))

	printSection("Rejection")
	printKV("Passband gain", fmt.Sprintf("%+.2f dB", r.PassbandDB))
	printKV("Image rejection", fmt.Sprintf("%.1f dB", r.ImageDB))
	printKV("Alias rejection", fmt.Sprintf("%.1f dB", r.AliasDB))

	return nil
}

func measureRejection(q oversample.Quality, factor int, sampleRate float64, size int, tone float64) (rejection, error) {
	if !oversample.ValidFactor(factor) || factor < 2 {
		return rejection{}, fmt.Errorf("factor must be 2, 4, 8 or 16: %d", factor)
	}

	if !(tone > 0 && tone < 0.5) {
		return rejection{}, fmt.Errorf("tone must be in (0, 0.5): %f", tone)
	}

	m, err := oversample.NewManager(oversample.WithFactor(factor), oversample.WithQuality(q))
	if err != nil {
		return rejection{}, err
	}

	if err := m.Prepare(sampleRate, analyzeBlock, 1); err != nil {
		return rejection{}, err
	}

	f0 := tone * sampleRate
	r := rejection{
		Factor:         m.Factor(),
		Quality:        q,
		LatencySamples: m.LatencySamples(),
		Tone:           f0,
	}

	wideRate := sampleRate * float64(factor)

	up, err := spectral.NewAnalyzer(size, wideRate)
	if err != nil {
		return rejection{}, err
	}

	upsample(m, up, f0, sampleRate, size*analyzeFrames)

	signal := bandLevel(up, f0)
	worst := -200.0

	for k := 1; k < factor; k++ {
		for _, f := range []float64{float64(k)*sampleRate - f0, float64(k)*sampleRate + f0} {
			if f < wideRate/2 {
				worst = math.Max(worst, bandLevel(up, f))
			}
		}
	}

	r.ImageDB = signal - worst

	ref, err := downLevel(m, f0, f0, sampleRate, size)
	if err != nil {
		return rejection{}, err
	}

	alias, err := downLevel(m, sampleRate-f0, f0, sampleRate, size)
	if err != nil {
		return rejection{}, err
	}

	// A unit sine carries half a unit of power.
	r.PassbandDB = ref - 10*math.Log10(0.5)
	r.AliasDB = ref - alias

	return r, nil
}

// upsample feeds a base-rate sine through m and analyses the wide output.
func upsample(m *oversample.Manager, a *spectral.Analyzer, freq, sampleRate float64, n int) {
	m.Reset()

	in := [][]float64{make([]float64, analyzeBlock)}
	w := 2 * math.Pi * freq / sampleRate
	total := settleSamples + n/m.Factor()

	for pos := 0; pos < total; pos += analyzeBlock {
		for i := range in[0] {
			in[0][i] = math.Sin(w * float64(pos+i))
		}

		wide := m.ProcessUp(in)
		if pos >= settleSamples {
			a.Write(wide[0])
		}
	}
}

// downLevel decimates a wide-rate sine at freq and returns the base-rate
// level around at.
func downLevel(m *oversample.Manager, freq, at, sampleRate float64, size int) (float64, error) {
	m.Reset()

	a, err := spectral.NewAnalyzer(size, sampleRate)
	if err != nil {
		return 0, err
	}

	factor := m.Factor()
	wide := [][]float64{make([]float64, analyzeBlock*factor)}
	out := [][]float64{make([]float64, analyzeBlock)}
	w := 2 * math.Pi * freq / (sampleRate * float64(factor))
	total := settleSamples + size*analyzeFrames

	for pos := 0; pos < total; pos += analyzeBlock {
		for i := range wide[0] {
			wide[0][i] = math.Sin(w * float64(pos*factor+i))
		}

		m.ProcessDown(wide, out)

		if pos >= settleSamples {
			a.Write(out[0])
		}
	}

	return bandLevel(a, at), nil
}

// bandLevel integrates the Hann main lobe around f.
func bandLevel(a *spectral.Analyzer, f float64) float64 {
	bin := a.BinFrequency(1)
	return a.BandLevelDB(f-3*bin, f+3*bin)
}
