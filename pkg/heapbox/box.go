package heapbox

import (
	"unsafe"

	"github.com/Borislavv/advanced-memory/pkg/affinity"
	"github.com/Borislavv/advanced-memory/pkg/alloc"
	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
	"github.com/Borislavv/advanced-memory/pkg/resource"
)

// Box is exclusive heap ownership of one value: no header beyond the value
// itself, no sharing, no counters. Ownership moves (IntoInner) or ends (Drop);
// it is never duplicated. Misuse after the box is consumed panics, which keeps
// double-finalization structurally unreachable.
type Box[T any] struct {
	value  T
	fin    func(T)
	alloc  alloc.Allocator
	ticket *alloc.Allocation
	owner  affinity.Owner
	alive  bool
}

// Option configures a Box at construction.
type Option[T any] func(*Box[T])

// WithFinalizer sets the cleanup func run exactly once when the box is
// dropped. Ignored by IntoInner: the value leaves the box alive.
func WithFinalizer[T any](fin func(T)) Option[T] {
	return func(b *Box[T]) { b.fin = fin }
}

// WithAllocator overrides the process-wide allocator.
func WithAllocator[T any](a alloc.Allocator) Option[T] {
	return func(b *Box[T]) { b.alloc = a }
}

// New moves value to the heap under single ownership. Always succeeds;
// allocator budget exhaustion is fatal by design.
func New[T any](value T, opts ...Option[T]) *Box[T] {
	b := &Box[T]{
		value: value,
		alloc: alloc.Default(),
		owner: affinity.Capture(),
		alive: true,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.ticket = b.alloc.Allocate(resource.WeightOf(value), int64(unsafe.Alignof(value)))
	lifetrace.OnAlloc(lifetrace.KindBox, b.ticket.Size)
	return b
}

// Get returns a pointer granting read and write access to the boxed value.
func (b *Box[T]) Get() *T {
	b.owner.Check("heapbox.Box")
	if !b.alive {
		panic("heapbox: use after drop")
	}
	return &b.value
}

// Set replaces the boxed value. The previous value is returned so the caller
// decides whether to finalize it; the box never finalizes on Set.
func (b *Box[T]) Set(value T) (prev T) {
	b.owner.Check("heapbox.Box")
	if !b.alive {
		panic("heapbox: use after drop")
	}
	prev, b.value = b.value, value
	return prev
}

// IntoInner consumes the box and returns the value by value. The allocation
// is released, the finalizer is NOT run (ownership moved out), and any
// further use of the box panics.
func (b *Box[T]) IntoInner() T {
	b.owner.Check("heapbox.Box")
	if !b.alive {
		panic("heapbox: into-inner on dropped box")
	}
	b.alive = false

	value := b.value
	var zero T
	b.value = zero

	b.alloc.Deallocate(b.ticket)
	lifetrace.OnRelease(lifetrace.KindBox, b.ticket.Size)
	return value
}

// Drop finalizes the boxed value (finalizer first, then the allocation is
// returned). Exactly-once: a second Drop panics.
func (b *Box[T]) Drop() {
	b.owner.Check("heapbox.Box")
	if !b.alive {
		panic("heapbox: double drop")
	}
	b.alive = false

	resource.Finalize(b.value, b.fin)
	lifetrace.OnFinalize(lifetrace.KindBox)

	var zero T
	b.value = zero

	b.alloc.Deallocate(b.ticket)
	lifetrace.OnRelease(lifetrace.KindBox, b.ticket.Size)
}

// IsAlive reports whether the box still owns its value.
func (b *Box[T]) IsAlive() bool { return b.alive }
