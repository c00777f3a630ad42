package governor

import (
	"math"
	"sync/atomic"
	"time"
)

// Config holds the governor thresholds.
type Config struct {
	OverloadThreshold float64 `toml:"overload_threshold"`
	OverloadBlocks    int     `toml:"overload_blocks"`
	DowngradeBlocks   int     `toml:"downgrade_blocks"`
	UpgradeBlocks     int     `toml:"upgrade_blocks"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		OverloadThreshold: DefaultOverloadThreshold,
		OverloadBlocks:    DefaultOverloadBlocks,
		DowngradeBlocks:   DefaultTierHold,
		UpgradeBlocks:     DefaultTierHold,
	}
}

// Governor combines the block timer, tier manager and budget allocator.
// Begin and End run on the audio thread; the readbacks are safe from any
// goroutine.
type Governor struct {
	timer  *BlockTimer
	tiers  *TierManager
	budget *BudgetAllocator

	requested atomic.Int64

	load       atomic.Uint64
	peak       atomic.Uint64
	overloaded atomic.Bool
	active     atomic.Int64
}

// New creates a governor starting at requested.
func New(clock Clock, cfg Config, requested Tier) *Governor {
	g := &Governor{
		timer:  NewBlockTimer(clock),
		tiers:  NewTierManager(requested),
		budget: NewBudgetAllocator(),
	}

	g.timer.SetThreshold(cfg.OverloadThreshold, cfg.OverloadBlocks)
	g.tiers.SetHold(cfg.DowngradeBlocks, cfg.UpgradeBlocks)
	g.requested.Store(int64(g.tiers.Requested()))
	g.active.Store(int64(g.tiers.Active()))

	return g
}

// Prepare sets the block budget and clears statistics.
func (g *Governor) Prepare(sampleRate float64, blockSize int) {
	g.timer.Prepare(sampleRate, blockSize)
	g.budget.SetBudget(g.timer.Budget())
	g.budget.NewBlock()
	g.tiers.Reset()
	g.publish()
}

// Budget returns the allocator for slot registration and charging.
func (g *Governor) Budget() *BudgetAllocator { return g.budget }

// Timer returns the block timer.
func (g *Governor) Timer() *BlockTimer { return g.timer }

// RequestTier sets the user tier. It is safe to call from any goroutine;
// the change is applied at the next Begin.
func (g *Governor) RequestTier(t Tier) {
	if t.Valid() {
		g.requested.Store(int64(t))
	}
}

// Begin starts timing a block and returns the tier to process it at.
func (g *Governor) Begin() Tier {
	if req := Tier(g.requested.Load()); req != g.tiers.Requested() {
		g.tiers.SetRequested(req)
		g.active.Store(int64(g.tiers.Active()))
	}

	g.budget.NewBlock()
	g.timer.Begin()

	return g.tiers.Active()
}

// End finishes timing a block of n samples, updates the tier and publishes
// the readbacks.
func (g *Governor) End(n int) {
	g.timer.End(n)
	g.tiers.Update(g.timer.Overloaded())
	g.publish()
}

// Observe records an externally measured block, for hosts that time
// processing themselves.
func (g *Governor) Observe(elapsed time.Duration, n int) {
	g.timer.Observe(elapsed, n)
	g.tiers.Update(g.timer.Overloaded())
	g.publish()
}

func (g *Governor) publish() {
	g.load.Store(math.Float64bits(g.timer.Average() * 100))
	g.peak.Store(math.Float64bits(g.timer.Peak() * 100))
	g.overloaded.Store(g.timer.Overloaded())
	g.active.Store(int64(g.tiers.Active()))
}

// LoadPercent returns the smoothed load as a percentage of the budget.
func (g *Governor) LoadPercent() float64 { return math.Float64frombits(g.load.Load()) }

// PeakLoadPercent returns the peak load since the last reset.
func (g *Governor) PeakLoadPercent() float64 { return math.Float64frombits(g.peak.Load()) }

// Overloaded reports sustained overload.
func (g *Governor) Overloaded() bool { return g.overloaded.Load() }

// ActiveTier returns the tier the last block ran at.
func (g *Governor) ActiveTier() Tier { return Tier(g.active.Load()) }

// RequestedTier returns the user tier.
func (g *Governor) RequestedTier() Tier { return Tier(g.requested.Load()) }

// Reset clears statistics and returns to the requested tier. Not safe to
// call concurrently with Begin/End.
func (g *Governor) Reset() {
	g.timer.Reset()
	g.tiers.SetRequested(Tier(g.requested.Load()))
	g.tiers.Reset()
	g.budget.NewBlock()
	g.publish()
}
