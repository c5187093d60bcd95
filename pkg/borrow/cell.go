package borrow

import (
	"unsafe"

	"github.com/Borislavv/advanced-memory/pkg/affinity"
	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
)

// Cell wraps a value with a runtime borrow-state machine, moving the
// exclusivity check from construction time to call time. It is the payload
// to nest inside rc.Shared when mutation through shared ownership is needed;
// the cell itself never touches reference counts.
//
// State encoding in one int: 0 unborrowed, n > 0 shared by n readers,
// mutBorrow (-1) exclusively borrowed.
type Cell[T any] struct {
	value T
	state int
	owner affinity.Owner
}

const mutBorrow = -1

// New wraps value in an unborrowed cell. The cell has no lifecycle of its
// own — it lives and dies with whatever owns it — so construction is not a
// traced allocation; only borrow conflicts reach the tracer.
func New[T any](value T) *Cell[T] {
	return &Cell[T]{value: value, owner: affinity.Capture()}
}

// Borrow grants shared read access. Incompatible state (an outstanding
// mutable borrow) is a programmer logic error and panics with *ConflictError;
// use TryBorrow where the conflict is an expected runtime condition.
func (c *Cell[T]) Borrow() *Ref[T] {
	ref, err := c.TryBorrow()
	if err != nil {
		panic(err)
	}
	return ref
}

// TryBorrow is Borrow returning the conflict as a value instead of panicking.
func (c *Cell[T]) TryBorrow() (*Ref[T], error) {
	c.owner.Check("borrow.Cell")
	if c.state == mutBorrow {
		lifetrace.OnBorrowConflict()
		return nil, &ConflictError{Op: "borrow", State: c.stateName()}
	}
	c.state++
	return &Ref[T]{cell: c}, nil
}

// BorrowMut grants exclusive read/write access; any outstanding borrow
// panics with *ConflictError.
func (c *Cell[T]) BorrowMut() *RefMut[T] {
	ref, err := c.TryBorrowMut()
	if err != nil {
		panic(err)
	}
	return ref
}

// TryBorrowMut is BorrowMut returning the conflict as a value.
func (c *Cell[T]) TryBorrowMut() (*RefMut[T], error) {
	c.owner.Check("borrow.Cell")
	if c.state != 0 {
		lifetrace.OnBorrowConflict()
		return nil, &ConflictError{Op: "borrow_mut", State: c.stateName()}
	}
	c.state = mutBorrow
	return &RefMut[T]{cell: c}, nil
}

// Replace swaps new in under an implicit short-lived mutable borrow and
// returns the previous value. Atomic with respect to the cell's own state
// machine: no other borrow can interleave within the call. The old value is
// returned un-finalized — ownership moves to the caller.
func (c *Cell[T]) Replace(value T) T {
	guard := c.BorrowMut()
	defer guard.Release()

	prev := c.value
	c.value = value
	return prev
}

// Swap exchanges the two cells' values, each under its own implicit mutable
// borrow. Cells are acquired in address order so concurrent-looking nested
// swaps behave deterministically; a self-swap short-circuits instead of
// double-borrowing the same cell.
func (c *Cell[T]) Swap(other *Cell[T]) {
	if c == other {
		return
	}

	first, second := c, other
	if uintptr(unsafe.Pointer(other)) < uintptr(unsafe.Pointer(c)) {
		first, second = other, c
	}

	g1 := first.BorrowMut()
	defer g1.Release()
	g2 := second.BorrowMut()
	defer g2.Release()

	c.value, other.value = other.value, c.value
}

// stateName renders the current state for conflict diagnostics.
func (c *Cell[T]) stateName() string {
	switch {
	case c.state == mutBorrow:
		return "mut_borrowed"
	case c.state > 0:
		return "shared_borrowed"
	default:
		return "unborrowed"
	}
}
