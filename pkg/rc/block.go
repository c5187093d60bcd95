package rc

import (
	"github.com/Borislavv/advanced-memory/pkg/affinity"
	"github.com/Borislavv/advanced-memory/pkg/alloc"
	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
	"github.com/Borislavv/advanced-memory/pkg/resource"
)

// block is the allocation unit shared by every Shared/Weak handle: one
// header {strong, weak} plus the payload slot. Counters are plain integers
// on purpose — see pkg/affinity for how the single-goroutine constraint that
// makes this sound is enforced.
//
// Lifecycle invariants:
//   - strong == 0 implies the payload was finalized (exactly once).
//   - the block is released exactly when strong == 0 && weak == 0.
type block[T any] struct {
	strong uint64
	weak   uint64

	value     T
	finalized bool
	fin       func(T)

	owner  affinity.Owner
	alloc  alloc.Allocator
	ticket *alloc.Allocation
}

func newBlock[T any](value T, fin func(T), a alloc.Allocator, owner affinity.Owner) *block[T] {
	b := &block[T]{
		strong: 1,
		value:  value,
		fin:    fin,
		owner:  owner,
		alloc:  a,
	}
	b.ticket = a.Allocate(blockHeaderWeight+resource.WeightOf(value), blockAlign)
	return b
}

const (
	// Header cost charged on top of the payload weight: two counters,
	// finalized flag, finalizer and bookkeeping pointers.
	blockHeaderWeight = 64
	blockAlign        = 8
)

// finalizeValue destroys the payload. Called exactly once, at the strong
// count's transition to zero.
func (b *block[T]) finalizeValue() {
	if b.finalized {
		panic("rc: payload finalized twice")
	}
	b.finalized = true

	resource.Finalize(b.value, b.fin)
	lifetrace.OnFinalize(lifetrace.KindShared)

	var zero T
	b.value = zero
	b.fin = nil
}

// release returns the block storage. Called exactly once, when both counters
// reached zero; the allocator ticket itself traps double release.
func (b *block[T]) release() {
	b.alloc.Deallocate(b.ticket)
	lifetrace.OnRelease(lifetrace.KindShared, b.ticket.Size)
}
