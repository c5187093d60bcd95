package affinity

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
)

// The ownership primitives (rc.Shared, rc.Weak, borrow.Cell, heapbox.Box) keep
// plain, unsynchronized counters by design: the single-threaded path must not
// pay for atomics it never needs. The trade is only sound while a given value
// never crosses a goroutine boundary, and Go cannot express that statically,
// so the constraint is enforced here as a runtime identity check instead.
// Every primitive captures an Owner at construction and re-checks it on each
// counter or borrow-state mutation while checks are enabled.

var enabled atomic.Bool

// Enable turns goroutine-affinity checking on for primitives created afterwards.
func Enable() { enabled.Store(true) }

// Disable turns checking off. Already captured owners keep checking.
func Disable() { enabled.Store(false) }

// Enabled reports whether new captures will carry a goroutine identity.
func Enabled() bool { return enabled.Load() }

// Owner is the goroutine identity captured at construction time.
// The zero Owner performs no checks (checks were disabled at capture).
type Owner struct {
	gid uint64
}

// Capture snapshots the calling goroutine's identity when checking is enabled.
func Capture() Owner {
	if !enabled.Load() {
		return Owner{}
	}
	return Owner{gid: ID()}
}

// Check panics if the calling goroutine differs from the captured owner.
// what names the violated primitive for the panic message.
func (o Owner) Check(what string) {
	if o.gid == 0 {
		return
	}
	if cur := ID(); cur != o.gid {
		lifetrace.OnAffinityViolation()
		panic(&ViolationError{What: what, Owner: o.gid, Caller: cur})
	}
}

// ViolationError reports a primitive used from a foreign goroutine.
// It is always delivered via panic: crossing a goroutine boundary with a
// non-synchronized primitive is a logic error, not a runtime condition.
type ViolationError struct {
	What   string
	Owner  uint64
	Caller uint64
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf(
		"affinity: %s owned by goroutine %d used from goroutine %d",
		e.What, e.Owner, e.Caller,
	)
}

var stackBufPool = &sync.Pool{New: func() any {
	buf := make([]byte, 64)
	return &buf
}}

var goroutinePrefix = []byte("goroutine ")

// ID returns the current goroutine id parsed from the runtime.Stack header
// ("goroutine N [running]: ..."). There is no public runtime API for this.
func ID() uint64 {
	bufPtr := stackBufPool.Get().(*[]byte)
	defer stackBufPool.Put(bufPtr)

	buf := (*bufPtr)[:runtime.Stack(*bufPtr, false)]
	buf = bytes.TrimPrefix(buf, goroutinePrefix)

	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		panic("affinity: malformed goroutine stack header")
	}

	id, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		panic("affinity: malformed goroutine id: " + err.Error())
	}
	return id
}
