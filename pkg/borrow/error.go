package borrow

// ConflictError is the single failure mode of the cell state machine: the
// requested borrow is incompatible with the current state. Try* operations
// return it; Borrow/BorrowMut deliver it via panic because an unexpected
// overlap is a logic error, not a runtime condition.
type ConflictError struct {
	Op    string // "borrow" or "borrow_mut"
	State string // state at the moment of the attempt
}

func (e *ConflictError) Error() string {
	return "borrow: " + e.Op + " conflicts with cell state " + e.State
}
