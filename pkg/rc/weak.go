package rc

import (
	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
)

// Weak is a non-owning handle into the same block as its originating Shared.
// It observes liveness but never extends it: the payload dies with the last
// strong handle regardless of how many weak handles remain. This is what
// breaks ownership cycles — the "refers to but does not own" edge.
type Weak[T any] struct {
	b    *block[T]
	live bool
}

// Upgrade reconstructs a strong handle if the payload is still alive
// (strong > 0). A dangling weak handle is a routine outcome, not an error,
// so the miss case is (nil, false).
func (w *Weak[T]) Upgrade() (*Shared[T], bool) {
	w.use("Upgrade")
	if w.b.strong == 0 {
		lifetrace.OnUpgradeMiss()
		return nil, false
	}
	w.b.strong++
	return &Shared[T]{b: w.b, live: true}, true
}

// Clone returns another weak handle to the same block.
func (w *Weak[T]) Clone() *Weak[T] {
	w.use("Clone")
	w.b.weak++
	lifetrace.OnAlloc(lifetrace.KindWeak, 0)
	return &Weak[T]{b: w.b, live: true}
}

// Drop releases this weak handle. If it was the last handle of any kind
// (strong == 0 && weak == 0 after the decrement), the block is returned.
func (w *Weak[T]) Drop() {
	w.use("Drop")
	w.live = false

	if w.b.weak == 0 {
		panic("rc: weak count underflow")
	}
	w.b.weak--
	lifetrace.OnRelease(lifetrace.KindWeak, 0)
	if w.b.weak == 0 && w.b.strong == 0 {
		w.b.release()
	}
}

// StrongCount returns the block's strong counter (0 once the payload died).
func (w *Weak[T]) StrongCount() uint64 {
	w.use("StrongCount")
	return w.b.strong
}

// WeakCount returns the block's weak counter.
func (w *Weak[T]) WeakCount() uint64 {
	w.use("WeakCount")
	return w.b.weak
}

// IsLive reports whether this handle was not yet dropped.
func (w *Weak[T]) IsLive() bool { return w != nil && w.live }

func (w *Weak[T]) use(op string) {
	w.b.owner.Check("rc.Weak")
	if !w.live {
		panic("rc: " + op + " on dropped Weak handle")
	}
}
