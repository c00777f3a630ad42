package loudness

import (
	"math"
	"testing"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/internal/testutil"
)

const fs = 48000.0

func TestLoudness_Calibration(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		want     float64
	}{
		// BS.1770: a full-scale 1 kHz sine reads -3.01 LUFS per channel.
		{"mono", 1, -3.01},
		{"stereo", 2, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeter(WithSampleRate(fs), WithChannels(tt.channels))
			sig := testutil.DeterministicSine(1000, fs, 1.0, int(fs*4))

			block := make([][]float64, tt.channels)
			for ch := range block {
				block[ch] = sig
			}

			m.StartIntegration()
			m.ProcessBlock(block)

			readings := map[string]float64{
				"momentary":  m.Momentary(),
				"short-term": m.ShortTerm(),
				"integrated": m.Integrated(),
			}

			for k, v := range readings {
				if math.Abs(v-tt.want) > 0.1 {
					t.Errorf("%s = %.3f LUFS, want %.2f", k, v, tt.want)
				}
			}
		})
	}
}

func TestLoudness_SilenceReadsFloor(t *testing.T) {
	m := NewMeter(WithSampleRate(fs), WithChannels(2))
	m.StartIntegration()

	silence := [][]float64{make([]float64, int(fs*4)), make([]float64, int(fs*4))}
	m.ProcessBlock(silence)

	for name, v := range map[string]float64{
		"momentary":  m.Momentary(),
		"short-term": m.ShortTerm(),
		"integrated": m.Integrated(),
		"true peak":  m.TruePeakDBTP(),
	} {
		if v != DefaultFloor {
			t.Errorf("%s = %v, want floor %v", name, v, DefaultFloor)
		}
	}

	if lra := m.LoudnessRange(); lra != 0 {
		t.Errorf("LoudnessRange() = %v, want 0", lra)
	}

	if n := m.GatingBlocks(); n != 0 {
		t.Errorf("GatingBlocks() = %d, want 0", n)
	}
}

func TestLoudness_SilentTailDoesNotMoveIntegrated(t *testing.T) {
	m := NewMeter(WithSampleRate(fs), WithChannels(1), WithTruePeak(false))
	m.StartIntegration()

	m.ProcessBlock([][]float64{testutil.DeterministicSine(1000, fs, 0.1, int(fs*10))})

	before := m.Integrated()
	if math.Abs(before-(-23.01)) > 0.1 {
		t.Fatalf("integrated before tail = %.3f, want -23.01", before)
	}

	m.ProcessBlock([][]float64{make([]float64, int(fs*10))})

	// only the three blocks straddling the edge are added
	after := m.Integrated()
	if math.Abs(after-before) > 0.1 {
		t.Fatalf("silent tail moved integrated loudness: %.3f -> %.3f", before, after)
	}

	m.ProcessBlock([][]float64{make([]float64, int(fs*10))})

	if again := m.Integrated(); again != after {
		t.Fatalf("more silence changed integrated loudness: %.6f -> %.6f", after, again)
	}

	if m.Momentary() != DefaultFloor {
		t.Fatalf("momentary after 10 s silence = %v", m.Momentary())
	}
}

func TestLoudness_RelativeGate(t *testing.T) {
	m := NewMeter(WithSampleRate(fs), WithChannels(1), WithTruePeak(false))
	m.StartIntegration()

	// 20 dB quieter passage falls below the relative gate
	m.ProcessBlock([][]float64{testutil.DeterministicSine(1000, fs, 1.0, int(fs*5))})
	m.ProcessBlock([][]float64{testutil.DeterministicSine(1000, fs, 0.1, int(fs*5))})

	if got := m.Integrated(); math.Abs(got-(-3.01)) > 0.3 {
		t.Fatalf("Integrated() = %.3f, want about -3.01", got)
	}
}

func TestLoudness_Range(t *testing.T) {
	m := NewMeter(WithSampleRate(fs), WithChannels(1), WithTruePeak(false))
	m.StartIntegration()

	loud := testutil.DeterministicSine(1000, fs, 0.1, int(fs*5))
	quiet := testutil.DeterministicSine(1000, fs, 0.1/math.Sqrt(10), int(fs*5))

	for range 6 {
		m.ProcessBlock([][]float64{loud})
		m.ProcessBlock([][]float64{quiet})
	}

	// the two plateaus sit 10 LU apart
	if lra := m.LoudnessRange(); math.Abs(lra-10) > 0.3 {
		t.Fatalf("LoudnessRange() = %.3f LU, want 10", lra)
	}
}

func TestLoudness_TruePeak(t *testing.T) {
	m := NewMeter(WithSampleRate(fs), WithChannels(1))

	buf := make([]float64, int(fs))
	for i := range buf {
		buf[i] = math.Sin(math.Pi*float64(i)/2 + math.Pi/4)
	}

	m.ProcessBlock([][]float64{buf})

	if sp := m.SamplePeakDB(); math.Abs(sp-(-3.01)) > 0.02 {
		t.Errorf("SamplePeakDB() = %.3f, want -3.01", sp)
	}

	if tp := m.TruePeakDBTP(); math.Abs(tp) > 0.2 {
		t.Errorf("TruePeakDBTP() = %.3f, want 0", tp)
	}

	if p := m.Peaks(); len(p) != 1 || p[0] < 0.97 {
		t.Errorf("Peaks() = %v", p)
	}
}

func TestLoudness_InterleavedMatchesPlanar(t *testing.T) {
	left := testutil.DeterministicSine(440, fs, 0.5, int(fs))
	right := testutil.DeterministicSine(880, fs, 0.25, int(fs))

	planar := NewMeter(WithSampleRate(fs), WithChannels(2), WithTruePeak(false))
	planar.ProcessBlock([][]float64{left, right})

	inter := make([]float64, 0, 2*len(left))
	for i := range left {
		inter = append(inter, left[i], right[i])
	}

	il := NewMeter(WithSampleRate(fs), WithChannels(2), WithTruePeak(false))
	il.ProcessInterleaved(inter)

	if math.Abs(planar.Momentary()-il.Momentary()) > 1e-9 {
		t.Fatalf("planar %.6f, interleaved %.6f", planar.Momentary(), il.Momentary())
	}
}

func TestLoudness_ResetAndStop(t *testing.T) {
	m := NewMeter(WithSampleRate(fs), WithChannels(1), WithTruePeak(false))
	m.StartIntegration()
	m.ProcessBlock([][]float64{testutil.DeterministicSine(1000, fs, 0.5, int(fs))})

	blocks := m.GatingBlocks()
	if blocks == 0 {
		t.Fatal("no gating blocks recorded")
	}

	m.StopIntegration()
	m.ProcessBlock([][]float64{testutil.DeterministicSine(1000, fs, 0.5, int(fs))})

	if m.GatingBlocks() != blocks {
		t.Fatal("blocks recorded while integration was stopped")
	}

	m.Reset()

	if m.Integrated() != DefaultFloor || m.Momentary() != DefaultFloor {
		t.Fatal("Reset did not clear readings")
	}
}

func TestLegacy(t *testing.T) {
	l := NewLegacy(fs, 1)

	if l.Loudness() != DefaultFloor {
		t.Fatalf("empty Legacy = %v", l.Loudness())
	}

	l.ProcessBlock([][]float64{testutil.DeterministicSine(1000, fs, 1.0, int(fs))})

	want := -0.691 + 10*math.Log10(0.5)
	if got := l.Loudness(); math.Abs(got-want) > 0.05 {
		t.Fatalf("Loudness() = %.3f, want %.3f", got, want)
	}

	l.Reset()

	if l.Loudness() != DefaultFloor {
		t.Fatal("Reset did not clear the window")
	}
}
