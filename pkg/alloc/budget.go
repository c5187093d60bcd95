package alloc

import (
	"fmt"
	"sync/atomic"
)

// Budget is the default Allocator: pure accounting over the Go heap with a
// hard byte budget. IDs are monotonically increasing and never reused within
// a process, which makes use-after-free and double-free diagnosable in dumps.
//
// Counters are atomic only because the allocator is a process-wide
// collaborator shared by independent single-goroutine runtimes; the
// primitives themselves stay unsynchronized.
type Budget struct {
	budget int64
	inUse  atomic.Int64
	live   atomic.Int64
	nextID atomic.Uint64
}

// NewBudget creates an allocator with the given byte budget.
// budget <= 0 means unbounded.
func NewBudget(budget int64) *Budget {
	b := &Budget{budget: budget}
	b.nextID.Store(1)
	return b
}

var defaultAllocator atomic.Pointer[Budget]

func init() {
	defaultAllocator.Store(NewBudget(0))
}

// Default returns the process-wide allocator used by primitives constructed
// without an explicit one.
func Default() Allocator { return defaultAllocator.Load() }

// SetDefault replaces the process-wide allocator. Intended for app bootstrap
// (config-driven budget) and tests.
func SetDefault(b *Budget) { defaultAllocator.Store(b) }

func (b *Budget) Allocate(size, align int64) *Allocation {
	if size < 0 {
		panic(fmt.Sprintf("alloc: negative size %d", size))
	}
	if align <= 0 {
		align = 1
	}
	// Account the aligned size so the budget matches what a real backing
	// allocator would burn.
	aligned := (size + align - 1) / align * align

	if b.budget > 0 && b.inUse.Load()+aligned > b.budget {
		panic(&OutOfMemoryError{Requested: aligned, InUse: b.inUse.Load(), Budget: b.budget})
	}

	b.inUse.Add(aligned)
	b.live.Add(1)

	return &Allocation{
		ID:    b.nextID.Add(1) - 1,
		Size:  aligned,
		Align: align,
	}
}

func (b *Budget) Deallocate(a *Allocation) {
	if a == nil {
		panic("alloc: deallocate of nil ticket")
	}
	if a.released {
		panic(fmt.Sprintf("alloc: double deallocate of allocation %d", a.ID))
	}
	a.released = true

	if b.inUse.Add(-a.Size) < 0 {
		panic(fmt.Sprintf("alloc: in-use underflow on allocation %d", a.ID))
	}
	if b.live.Add(-1) < 0 {
		panic(fmt.Sprintf("alloc: live underflow on allocation %d", a.ID))
	}
}

func (b *Budget) InUse() int64 { return b.inUse.Load() }
func (b *Budget) Live() int64  { return b.live.Load() }
