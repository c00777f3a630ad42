package loudness

import (
	"math"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/filter/biquad"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/filter/weighting"
	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/oversample"
)

const (
	subBlockSeconds = 0.1
	momentaryBlocks = 4
	shortTermBlocks = 30

	absoluteGate    = -70.0
	relativeGate    = -10.0
	lraRelativeGate = -20.0
	lraLow          = 0.10
	lraHigh         = 0.95

	truePeakFactor = 4

	fallbackSampleRate = 48000.0
)

// Meter implements EBU R128 / ITU-R BS.1770-4 loudness metering.
//
// The K-weighted signal is squared and averaged over 100 ms sub-blocks.
// Momentary loudness is the mean of the last 4 sub-blocks, short-term the
// mean of the last 30. Every completed sub-block while integration runs
// adds one 400 ms gating block (75% overlap) to the integrated histogram
// and, once 3 s are available, one short-term value to the range
// histogram.
type Meter struct {
	sampleRate float64
	channels   int
	floor      float64
	maxBlock   int

	weights []float64
	filters []*biquad.Chain

	subLen   int
	subCount int
	subSum   []float64

	ring       [][]float64 // [channel][sub-block] mean squares
	ringIdx    int
	ringFilled int

	momentaryPower float64
	shortTermPower float64

	integrating bool
	gating      *histogram
	lra         *histogram

	os         *oversample.Manager
	samplePeak []float64
	truePeak   []float64
	view       [][]float64
	frame      [][]float64
}

// NewMeter creates a new loudness meter with the given options. Invalid
// sample rates fall back to the defaults of DefaultMeterConfig.
func NewMeter(opts ...MeterOption) *Meter {
	cfg := ApplyMeterOptions(opts...)

	m := &Meter{
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		floor:      cfg.Floor,
		maxBlock:   cfg.BlockSize,
	}

	m.reconfigure(cfg.TruePeak)

	return m
}

func (m *Meter) reconfigure(truePeak bool) {
	m.filters = make([]*biquad.Chain, m.channels)
	m.weights = make([]float64, m.channels)

	for ch := range m.channels {
		f, err := weighting.New(weighting.TypeK, m.sampleRate)
		if err != nil {
			m.sampleRate = fallbackSampleRate
			f, _ = weighting.New(weighting.TypeK, m.sampleRate)
		}

		m.filters[ch] = f
		m.weights[ch] = 1
	}

	m.subLen = max(int(math.Round(subBlockSeconds*m.sampleRate)), 1)
	m.subSum = make([]float64, m.channels)

	m.ring = make([][]float64, m.channels)
	for ch := range m.ring {
		m.ring[ch] = make([]float64, shortTermBlocks)
	}

	m.gating = newHistogram()
	m.lra = newHistogram()

	m.samplePeak = make([]float64, m.channels)
	m.truePeak = make([]float64, m.channels)
	m.view = make([][]float64, m.channels)

	m.frame = make([][]float64, m.channels)
	for ch := range m.frame {
		m.frame[ch] = make([]float64, 1)
	}

	m.os = nil

	if truePeak {
		mgr, err := oversample.NewManager(oversample.WithFactor(truePeakFactor), oversample.WithQuality(oversample.QualityGood))
		if err == nil && mgr.Prepare(m.sampleRate, m.maxBlock, m.channels) == nil {
			m.os = mgr
		}
	}

	m.Reset()
}

// SampleRate returns the metering sample rate.
func (m *Meter) SampleRate() float64 { return m.sampleRate }

// Channels returns the channel count.
func (m *Meter) Channels() int { return m.channels }

// Floor returns the reading used for silence.
func (m *Meter) Floor() float64 { return m.floor }

// Reset clears all filter, window, integration and peak state.
func (m *Meter) Reset() {
	for ch := range m.channels {
		m.filters[ch].Reset()
		clear(m.ring[ch])
	}

	clear(m.subSum)
	clear(m.samplePeak)
	clear(m.truePeak)

	m.subCount = 0
	m.ringIdx = 0
	m.ringFilled = 0
	m.momentaryPower = 0
	m.shortTermPower = 0

	m.gating.reset()
	m.lra.reset()

	if m.os != nil {
		m.os.Reset()
	}
}

// StartIntegration starts accumulating blocks for integrated loudness and
// loudness range.
func (m *Meter) StartIntegration() {
	m.integrating = true
}

// StopIntegration stops accumulating; readings keep their last values.
func (m *Meter) StopIntegration() {
	m.integrating = false
}

// Integrating reports whether integration is running.
func (m *Meter) Integrating() bool { return m.integrating }

// ProcessBlock meters a planar block. Extra channels are ignored.
func (m *Meter) ProcessBlock(block [][]float64) {
	if len(block) == 0 {
		return
	}

	channels := min(len(block), m.channels)
	total := len(block[0])

	for off := 0; off < total; off += m.maxBlock {
		end := min(off+m.maxBlock, total)
		for ch := range channels {
			m.view[ch] = block[ch][off:end]
		}

		m.processChunk(m.view[:channels])
	}
}

// ProcessSample meters a single multi-channel frame.
func (m *Meter) ProcessSample(samples []float64) {
	if len(samples) < m.channels {
		return
	}

	for ch := range m.channels {
		m.frame[ch][0] = samples[ch]
	}

	m.processChunk(m.frame)
}

// ProcessInterleaved meters a block of interleaved frames.
func (m *Meter) ProcessInterleaved(buf []float64) {
	for i := 0; i+m.channels <= len(buf); i += m.channels {
		m.ProcessSample(buf[i : i+m.channels])
	}
}

func (m *Meter) processChunk(block [][]float64) {
	channels := len(block)
	n := len(block[0])

	m.updatePeaks(block)

	for i := range n {
		for ch := range channels {
			y := m.filters[ch].ProcessSample(block[ch][i])
			m.subSum[ch] += y * y
		}

		m.subCount++
		if m.subCount == m.subLen {
			m.completeSubBlock()
		}
	}
}

func (m *Meter) updatePeaks(block [][]float64) {
	for ch, buf := range block {
		p := m.samplePeak[ch]
		for _, v := range buf {
			p = math.Max(p, math.Abs(v))
		}

		m.samplePeak[ch] = p
	}

	if m.os == nil {
		return
	}

	wide := m.os.ProcessUp(block)
	for ch, buf := range wide {
		p := m.truePeak[ch]
		for _, v := range buf {
			p = math.Max(p, math.Abs(v))
		}

		m.truePeak[ch] = p
	}
}

func (m *Meter) completeSubBlock() {
	inv := 1 / float64(m.subLen)

	for ch := range m.channels {
		m.ring[ch][m.ringIdx] = m.subSum[ch] * inv
		m.subSum[ch] = 0
	}

	m.subCount = 0
	m.ringIdx = (m.ringIdx + 1) % shortTermBlocks
	m.ringFilled = min(m.ringFilled+1, shortTermBlocks)

	m.momentaryPower = m.windowPower(momentaryBlocks)
	m.shortTermPower = m.windowPower(shortTermBlocks)

	if !m.integrating {
		return
	}

	if m.ringFilled >= momentaryBlocks {
		m.gating.add(m.toLUFS(m.momentaryPower), m.momentaryPower)
	}

	if m.ringFilled >= shortTermBlocks {
		m.lra.add(m.toLUFS(m.shortTermPower), m.shortTermPower)
	}
}

// windowPower returns the channel-weighted mean square over the last k
// sub-blocks, or over what is available before k have completed.
func (m *Meter) windowPower(k int) float64 {
	k = min(k, m.ringFilled)
	if k == 0 {
		return 0
	}

	var sum float64

	for ch := range m.channels {
		var s float64

		idx := m.ringIdx
		for range k {
			idx--
			if idx < 0 {
				idx += shortTermBlocks
			}

			s += m.ring[ch][idx]
		}

		sum += m.weights[ch] * s
	}

	return sum / float64(k)
}

// Momentary returns the loudness of the last 400 ms in LUFS.
func (m *Meter) Momentary() float64 { return m.clampFloor(m.toLUFS(m.momentaryPower)) }

// ShortTerm returns the loudness of the last 3 s in LUFS.
func (m *Meter) ShortTerm() float64 { return m.clampFloor(m.toLUFS(m.shortTermPower)) }

// Integrated returns the gated integrated loudness in LUFS since
// StartIntegration.
func (m *Meter) Integrated() float64 {
	absMean, n := m.gating.meanPower(absoluteGate)
	if n == 0 {
		return m.floor
	}

	gate := m.toLUFS(absMean) + relativeGate

	relMean, n := m.gating.meanPower(gate)
	if n == 0 {
		return m.floor
	}

	return m.clampFloor(m.toLUFS(relMean))
}

// LoudnessRange returns the EBU Tech 3342 loudness range in LU.
func (m *Meter) LoudnessRange() float64 {
	absMean, n := m.lra.meanPower(absoluteGate)
	if n == 0 {
		return 0
	}

	gate := m.toLUFS(absMean) + lraRelativeGate

	lo, hi, ok := m.lra.percentiles(gate, lraLow, lraHigh)
	if !ok {
		return 0
	}

	return math.Max(hi-lo, 0)
}

// GatingBlocks returns the number of 400 ms blocks above the absolute gate.
func (m *Meter) GatingBlocks() uint64 { return m.gating.total }

// Peaks returns the true peak per channel since Reset, or the sample peak
// when true-peak detection is off.
func (m *Meter) Peaks() []float64 {
	p := make([]float64, m.channels)
	if m.os == nil {
		copy(p, m.samplePeak)
	} else {
		copy(p, m.truePeak)
	}

	return p
}

// TruePeakDBTP returns the largest true peak in dBTP, or the sample peak
// when true-peak detection is off. Silence reads as the floor.
func (m *Meter) TruePeakDBTP() float64 {
	peaks := m.truePeak
	if m.os == nil {
		peaks = m.samplePeak
	}

	return m.peakDB(peaks)
}

// SamplePeakDB returns the largest sample peak in dBFS.
func (m *Meter) SamplePeakDB() float64 { return m.peakDB(m.samplePeak) }

func (m *Meter) peakDB(peaks []float64) float64 {
	p := 0.0
	for _, v := range peaks {
		p = math.Max(p, v)
	}

	if p <= 0 {
		return m.floor
	}

	return math.Max(20*math.Log10(p), m.floor)
}

func (m *Meter) toLUFS(meanSquare float64) float64 {
	if !(meanSquare > 0) {
		return m.floor
	}

	return -0.691 + 10*math.Log10(meanSquare)
}

func (m *Meter) clampFloor(lufs float64) float64 {
	if math.IsNaN(lufs) || lufs < m.floor {
		return m.floor
	}

	return lufs
}
