package rc

import (
	"github.com/Borislavv/advanced-memory/pkg/affinity"
	"github.com/Borislavv/advanced-memory/pkg/alloc"
	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
)

// Shared is a strong handle into one reference-counted block. All clones
// point at the same block and the same payload; the payload is finalized when
// the last strong handle drops, and the block storage is returned only once
// every weak handle is gone too.
//
// Access through Shared alone is read-only by contract; nest a borrow.Cell
// as the payload when mutation through shared ownership is required.
type Shared[T any] struct {
	b    *block[T]
	live bool
}

// Option configures the block at construction.
type Option[T any] func(*opts[T])

type opts[T any] struct {
	fin   func(T)
	alloc alloc.Allocator
}

// WithFinalizer sets the payload cleanup func, run exactly once when the
// last strong handle drops.
func WithFinalizer[T any](fin func(T)) Option[T] {
	return func(o *opts[T]) { o.fin = fin }
}

// WithAllocator overrides the process-wide allocator.
func WithAllocator[T any](a alloc.Allocator) Option[T] {
	return func(o *opts[T]) { o.alloc = a }
}

// New allocates a block with strong=1, weak=0 holding value.
func New[T any](value T, options ...Option[T]) *Shared[T] {
	o := &opts[T]{alloc: alloc.Default()}
	for _, opt := range options {
		opt(o)
	}

	s := &Shared[T]{
		b:    newBlock(value, o.fin, o.alloc, affinity.Capture()),
		live: true,
	}
	lifetrace.OnAlloc(lifetrace.KindShared, s.b.ticket.Size)
	return s
}

// Clone returns a new strong handle to the same block. O(1): bumps the
// strong counter, never copies the payload. Deep duplication is the visibly
// distinct CloneValue.
func (s *Shared[T]) Clone() *Shared[T] {
	s.use("Clone")
	s.b.strong++
	return &Shared[T]{b: s.b, live: true}
}

// CloneValue is the expensive duplication: it copies the payload through the
// caller-supplied copy func into a fresh block with its own counters. It is
// deliberately a separate operation so a cheap Clone is never silently
// substituted by a deep copy, or vice versa.
func (s *Shared[T]) CloneValue(copyFn func(T) T) *Shared[T] {
	s.use("CloneValue")
	if copyFn == nil {
		panic("rc: CloneValue requires a copy func")
	}

	dup := &Shared[T]{
		b:    newBlock(copyFn(s.b.value), s.b.fin, s.b.alloc, affinity.Capture()),
		live: true,
	}
	lifetrace.OnAlloc(lifetrace.KindShared, dup.b.ticket.Size)
	return dup
}

// Deref returns a pointer to the payload. Mutating through it while other
// strong handles exist is the caller's contract violation; use borrow.Cell
// for checked mutation.
func (s *Shared[T]) Deref() *T {
	s.use("Deref")
	return &s.b.value
}

// Drop releases this handle. At strong's transition to zero the payload is
// finalized; the block is returned once weak is also zero. Double drop panics.
func (s *Shared[T]) Drop() {
	s.use("Drop")
	s.live = false

	if s.b.strong == 0 {
		panic("rc: strong count underflow")
	}
	s.b.strong--
	if s.b.strong > 0 {
		return
	}

	// Hold an implicit weak while the finalizer runs: a finalizer that drops
	// weak handles to this very block (cyclic shapes do) must not release
	// the storage out from under us.
	s.b.weak++
	s.b.finalizeValue()
	s.b.weak--
	if s.b.weak == 0 {
		s.b.release()
	}
}

// Downgrade returns a non-owning weak handle, bumping the weak counter.
func (s *Shared[T]) Downgrade() *Weak[T] {
	s.use("Downgrade")
	s.b.weak++
	lifetrace.OnAlloc(lifetrace.KindWeak, 0)
	return &Weak[T]{b: s.b, live: true}
}

// StrongCount returns the number of live strong handles to the block.
func (s *Shared[T]) StrongCount() uint64 {
	s.use("StrongCount")
	return s.b.strong
}

// WeakCount returns the number of live weak handles to the block.
func (s *Shared[T]) WeakCount() uint64 {
	s.use("WeakCount")
	return s.b.weak
}

// IsLive reports whether this handle still participates in ownership.
func (s *Shared[T]) IsLive() bool { return s != nil && s.live }

// use guards every operation: affinity first, then handle liveness.
func (s *Shared[T]) use(op string) {
	s.b.owner.Check("rc.Shared")
	if !s.live {
		panic("rc: " + op + " on dropped Shared handle")
	}
}
