package governor

import "fmt"

// Tier is a processing quality level.
type Tier int

const (
	// TierEco uses approximations and the lowest oversampling factor.
	TierEco Tier = iota
	// TierNormal is the default.
	TierNormal
	// TierHigh raises oversampling and enables the adaptive factor.
	TierHigh
)

// DefaultTierHold is the number of consecutive blocks required before a
// tier change.
const DefaultTierHold = 5

func (t Tier) String() string {
	switch t {
	case TierEco:
		return "eco"
	case TierNormal:
		return "normal"
	case TierHigh:
		return "high"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier maps a tier name to its value.
func ParseTier(s string) (Tier, error) {
	for t := TierEco; t <= TierHigh; t++ {
		if t.String() == s {
			return t, nil
		}
	}

	return 0, fmt.Errorf("governor: unknown tier %q", s)
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool { return t >= TierEco && t <= TierHigh }

// TierManager applies hysteresis between the overload flag and the active
// tier. While overloaded for DowngradeBlocks consecutive blocks it steps
// down one tier; while healthy for UpgradeBlocks it steps back up, never
// above the requested tier.
type TierManager struct {
	requested Tier
	active    Tier

	downgradeBlocks int
	upgradeBlocks   int

	bad  int
	good int
}

// NewTierManager creates a manager starting at requested.
func NewTierManager(requested Tier) *TierManager {
	if !requested.Valid() {
		requested = TierNormal
	}

	return &TierManager{
		requested:       requested,
		active:          requested,
		downgradeBlocks: DefaultTierHold,
		upgradeBlocks:   DefaultTierHold,
	}
}

// SetHold configures the downgrade and upgrade delays in blocks.
// Non-positive values keep the current setting.
func (m *TierManager) SetHold(downgrade, upgrade int) {
	if downgrade > 0 {
		m.downgradeBlocks = downgrade
	}

	if upgrade > 0 {
		m.upgradeBlocks = upgrade
	}
}

// SetRequested sets the user tier. Lowering it takes effect immediately;
// raising it goes through the upgrade delay.
func (m *TierManager) SetRequested(t Tier) {
	if !t.Valid() {
		return
	}

	m.requested = t
	if m.active > t {
		m.active = t
		m.bad, m.good = 0, 0
	}
}

// Requested returns the user tier.
func (m *TierManager) Requested() Tier { return m.requested }

// Active returns the tier processing should use.
func (m *TierManager) Active() Tier { return m.active }

// Update consumes one block's overload flag and returns the active tier.
func (m *TierManager) Update(overloaded bool) Tier {
	if overloaded {
		m.good = 0
		m.bad++

		if m.bad >= m.downgradeBlocks && m.active > TierEco {
			m.active--
			m.bad = 0
		}

		return m.active
	}

	m.bad = 0

	if m.active >= m.requested {
		m.good = 0
		return m.active
	}

	m.good++
	if m.good >= m.upgradeBlocks {
		m.active++
		m.good = 0
	}

	return m.active
}

// Reset returns to the requested tier.
func (m *TierManager) Reset() {
	m.active = m.requested
	m.bad, m.good = 0, 0
}
