package borrow

// Guards are the only way to reach a cell's value: acquiring one is the only
// way to obtain access and releasing it is the only way to give the access
// back. Callers pair acquisition with `defer guard.Release()` so the borrow
// is returned on every exit path.

// Ref is a shared (read) borrow guard.
type Ref[T any] struct {
	cell     *Cell[T]
	released bool
}

// Get returns the borrowed value. Read-only by contract.
func (r *Ref[T]) Get() *T {
	if r.released {
		panic("borrow: guard used after release")
	}
	return &r.cell.value
}

// Release returns exactly the access this guard was granted: one shared slot.
// A second release panics — it would corrupt the state machine.
func (r *Ref[T]) Release() {
	if r.released {
		panic("borrow: shared guard released twice")
	}
	r.released = true

	r.cell.owner.Check("borrow.Cell")
	if r.cell.state <= 0 {
		panic("borrow: shared release with no outstanding shared borrow")
	}
	r.cell.state--
}

// RefMut is an exclusive (read/write) borrow guard.
type RefMut[T any] struct {
	cell     *Cell[T]
	released bool
}

// Get returns the borrowed value with write access.
func (r *RefMut[T]) Get() *T {
	if r.released {
		panic("borrow: guard used after release")
	}
	return &r.cell.value
}

// Set stores value through the exclusive borrow.
func (r *RefMut[T]) Set(value T) {
	if r.released {
		panic("borrow: guard used after release")
	}
	r.cell.value = value
}

// Release resets the cell back to unborrowed. A second release panics.
func (r *RefMut[T]) Release() {
	if r.released {
		panic("borrow: mutable guard released twice")
	}
	r.released = true

	r.cell.owner.Check("borrow.Cell")
	if r.cell.state != mutBorrow {
		panic("borrow: mutable release without outstanding mutable borrow")
	}
	r.cell.state = 0
}
