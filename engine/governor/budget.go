package governor

import (
	"fmt"
	"time"
)

// Slot is a handle returned by BudgetAllocator.Register.
type Slot int

type slot struct {
	name  string
	share float64
	cost  time.Duration
}

// BudgetAllocator splits the block budget across named modules. A module
// charges its measured cost and can ask before expensive work whether it
// still fits its share. The check is advisory; nothing is preempted.
type BudgetAllocator struct {
	slots  []slot
	budget time.Duration
}

// NewBudgetAllocator returns an empty allocator.
func NewBudgetAllocator() *BudgetAllocator { return &BudgetAllocator{} }

// Register adds a module with a relative share of the budget and returns
// its handle. Register before processing starts.
func (b *BudgetAllocator) Register(name string, share float64) (Slot, error) {
	if !(share > 0) {
		return -1, fmt.Errorf("governor: budget share must be positive: %f", share)
	}

	for _, s := range b.slots {
		if s.name == name {
			return -1, fmt.Errorf("governor: budget slot %q already registered", name)
		}
	}

	b.slots = append(b.slots, slot{name: name, share: share})

	return Slot(len(b.slots) - 1), nil
}

// SetBudget sets the block budget to divide.
func (b *BudgetAllocator) SetBudget(d time.Duration) { b.budget = d }

// Allowance returns the slot's share of the budget.
func (b *BudgetAllocator) Allowance(h Slot) time.Duration {
	var total float64
	for _, s := range b.slots {
		total += s.share
	}

	if total == 0 || int(h) < 0 || int(h) >= len(b.slots) {
		return 0
	}

	return time.Duration(float64(b.budget) * b.slots[h].share / total)
}

// Charge records elapsed time against the slot for the current block.
func (b *BudgetAllocator) Charge(h Slot, elapsed time.Duration) {
	if int(h) >= 0 && int(h) < len(b.slots) {
		b.slots[h].cost += elapsed
	}
}

// Cost returns the time charged to the slot in the current block.
func (b *BudgetAllocator) Cost(h Slot) time.Duration {
	if int(h) < 0 || int(h) >= len(b.slots) {
		return 0
	}

	return b.slots[h].cost
}

// HasHeadroom reports whether the slot has used less than its allowance.
func (b *BudgetAllocator) HasHeadroom(h Slot) bool {
	return b.Cost(h) < b.Allowance(h)
}

// Remaining returns the block budget minus everything charged so far.
func (b *BudgetAllocator) Remaining() time.Duration {
	d := b.budget
	for _, s := range b.slots {
		d -= s.cost
	}

	return d
}

// Name returns the slot name.
func (b *BudgetAllocator) Name(h Slot) string {
	if int(h) < 0 || int(h) >= len(b.slots) {
		return ""
	}

	return b.slots[h].name
}

// Len returns the number of registered slots.
func (b *BudgetAllocator) Len() int { return len(b.slots) }

// NewBlock clears the per-block costs.
func (b *BudgetAllocator) NewBlock() {
	for i := range b.slots {
		b.slots[i].cost = 0
	}
}
