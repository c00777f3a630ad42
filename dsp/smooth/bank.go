package smooth

// Bank is a fixed set of smoothers sharing sample rate and ramp time.
// It is sized once at prepare time and indexed by small integer IDs.
type Bank struct {
	smoothers []Smoother
}

// NewBank allocates n smoothers.
func NewBank(n int) *Bank {
	return &Bank{smoothers: make([]Smoother, max(n, 0))}
}

// Prepare prepares every smoother in the bank.
func (b *Bank) Prepare(sampleRate, rampSeconds float64) {
	for i := range b.smoothers {
		b.smoothers[i].Prepare(sampleRate, rampSeconds)
	}
}

// Len returns the number of smoothers.
func (b *Bank) Len() int { return len(b.smoothers) }

// At returns the i-th smoother.
func (b *Bank) At(i int) *Smoother { return &b.smoothers[i] }

// SetTarget publishes a target for smoother i.
func (b *Bank) SetTarget(i int, v float64) { b.smoothers[i].SetTarget(v) }

// Skip advances every smoother by n samples.
func (b *Bank) Skip(n int) {
	for i := range b.smoothers {
		b.smoothers[i].Skip(n)
	}
}

// Reset snaps every smoother to its current target.
func (b *Bank) Reset() {
	for i := range b.smoothers {
		b.smoothers[i].Reset(b.smoothers[i].Target())
	}
}
