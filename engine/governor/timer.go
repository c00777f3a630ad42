package governor

import (
	"math"
	"time"
)

const (
	// DefaultOverloadThreshold is the load fraction above which a block
	// counts as overloaded.
	DefaultOverloadThreshold = 0.8
	// DefaultOverloadBlocks is the number of consecutive blocks needed to
	// set or clear the overload flag.
	DefaultOverloadBlocks = 3

	loadSmoothing = 0.1
)

// Clock returns a monotonic timestamp.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// BlockTimer measures block processing time against the real-time budget
// of the block.
type BlockTimer struct {
	clock      Clock
	sampleRate float64
	budget     time.Duration

	threshold float64
	blocks    int

	start   time.Time
	running bool

	last       float64
	average    float64
	peak       float64
	overloaded bool
	over       int
	under      int
}

// NewBlockTimer creates a timer. A nil clock uses SystemClock.
func NewBlockTimer(clock Clock) *BlockTimer {
	if clock == nil {
		clock = SystemClock{}
	}

	return &BlockTimer{
		clock:     clock,
		threshold: DefaultOverloadThreshold,
		blocks:    DefaultOverloadBlocks,
	}
}

// SetThreshold sets the overload threshold as a load fraction and the
// number of consecutive blocks that set or clear the flag. Non-positive
// values keep the current setting.
func (t *BlockTimer) SetThreshold(fraction float64, blocks int) {
	if fraction > 0 && !math.IsInf(fraction, 0) {
		t.threshold = fraction
	}

	if blocks > 0 {
		t.blocks = blocks
	}
}

// Prepare sets the nominal budget to blockSize/sampleRate seconds.
func (t *BlockTimer) Prepare(sampleRate float64, blockSize int) {
	t.sampleRate = sampleRate
	t.budget = t.budgetFor(blockSize)
	t.Reset()
}

// Budget returns the nominal block budget.
func (t *BlockTimer) Budget() time.Duration { return t.budget }

func (t *BlockTimer) budgetFor(n int) time.Duration {
	if !(t.sampleRate > 0) || n <= 0 {
		return 0
	}

	return time.Duration(float64(n) * float64(time.Second) / t.sampleRate)
}

// Begin marks the start of a block.
func (t *BlockTimer) Begin() {
	t.start = t.clock.Now()
	t.running = true
}

// End marks the end of a block of n samples and returns its load as a
// fraction of the n-sample budget.
func (t *BlockTimer) End(n int) float64 {
	if !t.running {
		return t.last
	}

	t.running = false

	return t.Observe(t.clock.Now().Sub(t.start), n)
}

// Observe records an externally measured block duration.
func (t *BlockTimer) Observe(elapsed time.Duration, n int) float64 {
	budget := t.budgetFor(n)
	if budget <= 0 {
		return t.last
	}

	load := float64(elapsed) / float64(budget)
	t.last = load
	t.average += loadSmoothing * (load - t.average)
	t.peak = math.Max(t.peak, load)

	if load > t.threshold {
		t.over++
		t.under = 0

		if t.over >= t.blocks {
			t.overloaded = true
		}
	} else {
		t.under++
		t.over = 0

		if t.under >= t.blocks {
			t.overloaded = false
		}
	}

	return load
}

// Load returns the last block's load fraction.
func (t *BlockTimer) Load() float64 { return t.last }

// Average returns the smoothed load fraction.
func (t *BlockTimer) Average() float64 { return t.average }

// Peak returns the highest load since Reset or ResetPeak.
func (t *BlockTimer) Peak() float64 { return t.peak }

// ResetPeak clears the peak.
func (t *BlockTimer) ResetPeak() { t.peak = 0 }

// Overloaded reports sustained overload.
func (t *BlockTimer) Overloaded() bool { return t.overloaded }

// Reset clears all statistics.
func (t *BlockTimer) Reset() {
	t.running = false
	t.last = 0
	t.average = 0
	t.peak = 0
	t.overloaded = false
	t.over = 0
	t.under = 0
}
