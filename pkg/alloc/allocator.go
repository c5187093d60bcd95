package alloc

// The ownership primitives never talk to the Go heap directly for lifecycle
// accounting; they go through an Allocator collaborator. Allocation failure
// is fatal by convention (panic), never a recoverable error, so the Allocate
// signature carries no error.

// Allocation is the ticket handed out for one block. It must be returned to
// the same allocator exactly once; a second Deallocate panics.
type Allocation struct {
	ID    uint64
	Size  int64
	Align int64

	released bool
}

// Released reports whether the ticket has already been returned.
func (a *Allocation) Released() bool { return a.released }

type Allocator interface {
	// Allocate accounts size bytes with the given alignment and returns a
	// live ticket. Panics with *OutOfMemoryError when the budget is exceeded.
	Allocate(size, align int64) *Allocation
	// Deallocate returns a ticket. Panics on double release or foreign ticket.
	Deallocate(a *Allocation)
	// InUse returns currently accounted bytes.
	InUse() int64
	// Live returns the number of outstanding allocations.
	Live() int64
}

// OutOfMemoryError is delivered via panic: the runtime treats budget
// exhaustion the way a systems allocator treats a failed malloc.
type OutOfMemoryError struct {
	Requested int64
	InUse     int64
	Budget    int64
}

func (e *OutOfMemoryError) Error() string {
	return "alloc: budget exceeded"
}
