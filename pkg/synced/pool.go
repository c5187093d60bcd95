package synced

import (
	"sync"

	"github.com/Borislavv/advanced-memory/pkg/resource"
)

// BatchPool is a generic object pool for weighted values.
//
// The main goal is to:
// - Minimize allocations by reusing objects.
// - Keep a simple Get/Put API similar to sync.Pool.
//
// The tracer pools its per-site stat records here so that churn in the site
// cache (ristretto evictions) does not turn into allocator churn.
type BatchPool[T resource.Sized] struct {
	pool      *sync.Pool
	allocFunc func() T
}

// NewBatchPool creates a new BatchPool.
// - allocFunc: function to construct a new T.
func NewBatchPool[T resource.Sized](allocFunc func() T) *BatchPool[T] {
	bp := &BatchPool[T]{allocFunc: allocFunc}
	bp.pool = &sync.Pool{
		New: func() any {
			return allocFunc()
		},
	}
	return bp
}

// Get retrieves an object from the pool, allocating if necessary.
// Never returns nil (unless allocFunc does).
func (bp *BatchPool[T]) Get() T {
	return bp.pool.Get().(T)
}

// Put returns an object to the pool for future reuse.
func (bp *BatchPool[T]) Put(v T) {
	bp.pool.Put(v)
}
