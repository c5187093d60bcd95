package resource

import "unsafe"

// Sized reports how many bytes a value occupies against the allocator budget.
type Sized interface {
	Weight() int64
}

// Finalizable marks payload types that carry their own cleanup logic.
// The owning primitive calls Finalize exactly once, right before the value
// becomes unreachable (last strong handle dropped, box dropped, etc.).
type Finalizable interface {
	Finalize()
}

// Finalize runs the explicit finalizer when set, otherwise the value's own
// Finalize if it implements Finalizable.
func Finalize[T any](value T, fin func(T)) {
	if fin != nil {
		fin(value)
		return
	}
	if f, ok := any(value).(Finalizable); ok {
		f.Finalize()
	}
}

// WeightOf reports the shallow footprint accounted against the allocator.
// Payload types owning indirect storage can refine it by implementing Sized.
func WeightOf[T any](value T) int64 {
	if s, ok := any(value).(Sized); ok {
		return s.Weight()
	}
	return int64(unsafe.Sizeof(value))
}
