package dynamics

import (
	"math"
	"testing"
)

func TestGlueStaticCurve(t *testing.T) {
	g, err := NewGlue(48000, 2)
	if err != nil {
		t.Fatalf("NewGlue() error = %v", err)
	}

	if err := g.SetThreshold(-20); err != nil {
		t.Fatal(err)
	}

	if err := g.SetRatio(4); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		inDB  float64
		outDB float64
	}{
		{"below knee", -30, -30},
		{"above knee", -8, -17},
		{"far above", 0, -15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := g.CalculateOutputLevel(math.Pow(10, tt.inDB/20))
			if got := 20 * math.Log10(out); math.Abs(got-tt.outDB) > 0.01 {
				t.Fatalf("output = %.3f dB, want %.3f dB", got, tt.outDB)
			}
		})
	}

	// inside the knee the curve must lie between unity and the full ratio
	in := math.Pow(10, -20.0/20)
	got := 20 * math.Log10(g.CalculateOutputLevel(in))
	if got >= -20 || got <= -23 {
		t.Fatalf("knee output = %.3f dB, want in (-23, -20)", got)
	}
}

func TestGlueSteadyGainReduction(t *testing.T) {
	g, err := NewGlue(48000, 1)
	if err != nil {
		t.Fatalf("NewGlue() error = %v", err)
	}

	_ = g.SetThreshold(-20)
	_ = g.SetRatio(4)

	block := [][]float64{make([]float64, 48000)}
	for i := range block[0] {
		block[0][i] = 0.5
	}

	g.ProcessBlock(block)

	for i := range block[0] {
		block[0][i] = 0.5
	}

	g.ProcessBlock(block)

	want := (20*math.Log10(0.5) + 20) * 0.75
	if got := g.GainReductionDB(); math.Abs(got-want) > 0.05 {
		t.Fatalf("GainReductionDB() = %.3f, want %.3f", got, want)
	}

	if got := block[0][len(block[0])-1]; math.Abs(20*math.Log10(got)-(20*math.Log10(0.5)-want)) > 0.05 {
		t.Fatalf("steady output = %g", got)
	}
}

func TestGlueStereoLink(t *testing.T) {
	g, err := NewGlue(48000, 2)
	if err != nil {
		t.Fatalf("NewGlue() error = %v", err)
	}

	n := 4800
	left := make([]float64, n)
	right := make([]float64, n)

	for i := range n {
		left[i] = 0.9 * math.Sin(2*math.Pi*100*float64(i)/48000)
		right[i] = 0.01 * math.Sin(2*math.Pi*100*float64(i)/48000)
	}

	block := [][]float64{append([]float64(nil), left...), append([]float64(nil), right...)}
	g.ProcessBlock(block)

	for i := range n {
		if math.Abs(left[i]) < 1e-3 {
			continue
		}

		gl := block[0][i] / left[i]
		gr := block[1][i] / right[i]

		if math.Abs(gl-gr) > 1e-9 {
			t.Fatalf("sample %d: left gain %g, right gain %g", i, gl, gr)
		}
	}

	if g.GainReductionDB() <= 0 {
		t.Fatal("expected gain reduction on loud left channel")
	}
}

func TestGlueMixZeroIsDry(t *testing.T) {
	g, err := NewGlue(48000, 1)
	if err != nil {
		t.Fatalf("NewGlue() error = %v", err)
	}

	if err := g.SetMix(0); err != nil {
		t.Fatal(err)
	}

	in := []float64{0.9, -0.9, 0.5, 0.1}
	block := [][]float64{append([]float64(nil), in...)}
	g.ProcessBlock(block)

	for i := range in {
		if block[0][i] != in[i] {
			t.Fatalf("sample %d: got %g, want %g", i, block[0][i], in[i])
		}
	}
}

func TestGlueEcoMatchesPrecise(t *testing.T) {
	g, err := NewGlue(48000, 1)
	if err != nil {
		t.Fatalf("NewGlue() error = %v", err)
	}

	_ = g.SetRatio(6)

	for _, db := range []float64{-40, -20, -12, -6, 0} {
		x := math.Pow(10, db/20)

		g.SetEco(false)
		precise := 20 * math.Log10(g.CalculateOutputLevel(x))

		g.SetEco(true)
		eco := 20 * math.Log10(g.CalculateOutputLevel(x))

		if math.Abs(precise-eco) > 1.5 {
			t.Errorf("%g dB: precise %.3f, eco %.3f", db, precise, eco)
		}
	}
}

func TestGlueAutoReleaseRecovers(t *testing.T) {
	g, err := NewGlue(48000, 1)
	if err != nil {
		t.Fatalf("NewGlue() error = %v", err)
	}

	g.SetAutoRelease(true)

	if !g.AutoRelease() {
		t.Fatal("auto release not enabled")
	}

	loud := [][]float64{make([]float64, 24000)}
	for i := range loud[0] {
		loud[0][i] = math.Sin(2 * math.Pi * 200 * float64(i) / 48000)
	}

	g.ProcessBlock(loud)

	if g.GainReductionDB() < 3 {
		t.Fatalf("expected reduction on loud input, got %g", g.GainReductionDB())
	}

	quiet := [][]float64{make([]float64, 4800)}
	for range 40 {
		clear(quiet[0])
		g.ProcessBlock(quiet)
	}

	if got := g.GainReductionDB(); got > 0.1 {
		t.Fatalf("gain reduction after 4 s of silence = %g dB", got)
	}

	if err := g.SetRelease(200); err != nil {
		t.Fatal(err)
	}

	if g.AutoRelease() {
		t.Fatal("SetRelease should leave auto release")
	}
}

func TestGlueAutoReleaseTracksAccents(t *testing.T) {
	const sr = 48000.0

	g, err := NewGlue(sr, 1)
	if err != nil {
		t.Fatalf("NewGlue() error = %v", err)
	}

	g.SetAutoRelease(true)

	steady := [][]float64{make([]float64, 2*int(sr))}
	for i := range steady[0] {
		steady[0][i] = 0.5 * math.Sin(2*math.Pi*1000*float64(i)/sr)
	}

	g.ProcessBlock(steady)

	if g.accent > 0.25 {
		t.Fatalf("accent on a steady tone = %g, want small", g.accent)
	}

	g.Reset()

	quiet := [][]float64{make([]float64, int(sr))}
	for i := range quiet[0] {
		quiet[0][i] = 0.05 * math.Sin(2*math.Pi*200*float64(i)/sr)
	}

	g.ProcessBlock(quiet)

	hit := [][]float64{make([]float64, 2000)}
	for i := range hit[0] {
		hit[0][i] = 0.8 * math.Sin(2*math.Pi*100*float64(i)/sr) * math.Exp(-float64(i)/sr*20)
	}

	g.ProcessBlock(hit)

	if g.accent < 0.5 {
		t.Fatalf("accent after a drum-like hit = %g, want > 0.5", g.accent)
	}
}

func TestGlueValidation(t *testing.T) {
	if _, err := NewGlue(0, 1); err == nil {
		t.Error("expected sample rate error")
	}

	if _, err := NewGlue(48000, 0); err == nil {
		t.Error("expected channels error")
	}

	g, err := NewGlue(48000, 1)
	if err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name string
		err  error
	}{
		{"ratio above 10", g.SetRatio(12)},
		{"ratio below 1", g.SetRatio(0.5)},
		{"attack too slow", g.SetAttack(50)},
		{"attack too fast", g.SetAttack(0.01)},
		{"release too short", g.SetRelease(1)},
		{"threshold positive", g.SetThreshold(3)},
		{"makeup NaN", g.SetMakeup(math.NaN())},
		{"mix above 1", g.SetMix(1.5)},
	}

	for _, c := range checks {
		if c.err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}
