package buffer

import (
	"sync"
)

// RingBuffer keeps the most recent lifecycle events (packed into uint64) for
// the /memory/stats debug endpoint. Writers drop on overflow: losing trace
// events is preferable to blocking an allocation path.
//
// Guarded by a mutex: the tracer is a process-wide default, so events arrive
// from every goroutine running its own primitives while the debug server
// drains from another.
type RingBuffer struct {
	mu       sync.Mutex
	buf      []uint64
	mask     uint64
	head     uint64
	tail     uint64
	capacity uint64
}

// NewRingBuffer allocates a ring of the given size (must be a power of 2).
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("buffer: ring size must be a positive power of 2")
	}
	return &RingBuffer{
		buf:      make([]uint64, size),
		capacity: uint64(size),
		mask:     uint64(size - 1),
	}
}

// Push appends one packed event. Returns false when the ring is full.
func (r *RingBuffer) Push(v uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.head-r.tail >= r.capacity {
		return false // buffer full
	}
	r.buf[r.head&r.mask] = v
	r.head++
	return true
}

// Drain removes and returns up to max oldest events.
func (r *RingBuffer) Drain(max int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.head - r.tail
	if n == 0 {
		return nil
	}
	if n > uint64(max) {
		n = uint64(max)
	}

	result := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		result = append(result, r.buf[(r.tail+i)&r.mask])
	}
	r.tail += n
	return result
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.head - r.tail)
}
