package heapbox

import (
	"testing"

	"github.com/Borislavv/advanced-memory/pkg/alloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox_NewGetSet(t *testing.T) {
	a := alloc.NewBudget(0)

	b := New(10, WithAllocator[int](a))
	assert.Equal(t, 10, *b.Get())
	assert.Equal(t, int64(1), a.Live())

	prev := b.Set(20)
	assert.Equal(t, 10, prev)
	assert.Equal(t, 20, *b.Get())

	b.Drop()
	assert.Equal(t, int64(0), a.Live())
	assert.Equal(t, int64(0), a.InUse())
}

func TestBox_SetNeverFinalizesPrevious(t *testing.T) {
	finalized := 0
	b := New("first", WithFinalizer(func(string) { finalized++ }))

	prev := b.Set("second")
	assert.Equal(t, "first", prev)
	assert.Equal(t, 0, finalized, "Set hands the previous value back, it must not finalize it")

	b.Drop()
	assert.Equal(t, 1, finalized)
}

func TestBox_IntoInnerSkipsFinalizer(t *testing.T) {
	a := alloc.NewBudget(0)

	finalized := 0
	b := New("moved",
		WithFinalizer(func(string) { finalized++ }),
		WithAllocator[string](a),
	)

	v := b.IntoInner()
	assert.Equal(t, "moved", v)
	assert.Equal(t, 0, finalized, "ownership moved out, the value is still alive")
	assert.Equal(t, int64(0), a.Live())
	assert.False(t, b.IsAlive())

	assert.Panics(t, func() { b.Get() })
	assert.Panics(t, func() { b.Drop() })
	assert.Panics(t, func() { b.IntoInner() })
}

func TestBox_DropRunsFinalizerExactlyOnce(t *testing.T) {
	finalized := 0
	b := New(1, WithFinalizer(func(int) { finalized++ }))

	b.Drop()
	require.Equal(t, 1, finalized)

	assert.Panics(t, func() { b.Drop() })
	assert.Equal(t, 1, finalized)
}

func TestBox_UseAfterDropPanics(t *testing.T) {
	b := New(1)
	b.Drop()

	assert.Panics(t, func() { b.Get() })
	assert.Panics(t, func() { b.Set(2) })
	assert.Panics(t, func() { b.IntoInner() })
}

// Boxes nest: a finalizer that drops the tail turns a single Drop on the head
// into a cascade over the whole list.
func TestBox_RecursiveListCascade(t *testing.T) {
	a := alloc.NewBudget(0)

	type list struct {
		head int
		tail *Box[list]
	}

	fin := func(l list) {
		if l.tail != nil {
			l.tail.Drop()
		}
	}

	var tail *Box[list]
	for i := 3; i >= 1; i-- {
		tail = New(list{head: i, tail: tail},
			WithFinalizer[list](fin),
			WithAllocator[list](a),
		)
	}
	require.Equal(t, int64(3), a.Live())
	assert.Equal(t, 1, tail.Get().head)
	assert.Equal(t, 2, tail.Get().tail.Get().head)

	tail.Drop()
	assert.Equal(t, int64(0), a.Live())
	assert.Equal(t, int64(0), a.InUse())
}
