package borrow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_SharedBorrowsThenMutate(t *testing.T) {
	cell := New([]int{1, 2, 3})

	r1 := cell.Borrow()
	r2 := cell.Borrow()
	assert.Equal(t, []int{1, 2, 3}, *r1.Get())
	assert.Equal(t, []int{1, 2, 3}, *r2.Get())

	// A mutable borrow must be refused while readers are out.
	m, err := cell.TryBorrowMut()
	require.Error(t, err)
	assert.Nil(t, m)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "borrow_mut", conflict.Op)

	r1.Release()
	r2.Release()

	m = cell.BorrowMut()
	*m.Get() = append(*m.Get(), 4)
	m.Release()

	r := cell.Borrow()
	assert.Equal(t, []int{1, 2, 3, 4}, *r.Get())
	r.Release()
}

func TestCell_ReadBlockedByMutableBorrow(t *testing.T) {
	cell := New("state")

	m := cell.BorrowMut()

	_, err := cell.TryBorrow()
	require.Error(t, err)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "borrow", conflict.Op)

	assert.Panics(t, func() { cell.Borrow() })
	assert.Panics(t, func() { cell.BorrowMut() })

	m.Release()

	r := cell.Borrow()
	assert.Equal(t, "state", *r.Get())
	r.Release()
}

func TestCell_Replace(t *testing.T) {
	cell := New(10)

	old := cell.Replace(20)
	assert.Equal(t, 10, old)

	r := cell.Borrow()
	assert.Equal(t, 20, *r.Get())
	r.Release()
}

func TestCell_ReplacePanicsWhileBorrowed(t *testing.T) {
	cell := New(10)
	r := cell.Borrow()
	defer r.Release()

	assert.Panics(t, func() { cell.Replace(20) })
}

func TestCell_Swap(t *testing.T) {
	left := New("left")
	right := New("right")

	left.Swap(right)

	lr := left.Borrow()
	rr := right.Borrow()
	assert.Equal(t, "right", *lr.Get())
	assert.Equal(t, "left", *rr.Get())
	lr.Release()
	rr.Release()
}

func TestCell_SwapWithSelfIsNoop(t *testing.T) {
	cell := New(1)
	cell.Swap(cell)

	r := cell.Borrow()
	assert.Equal(t, 1, *r.Get())
	r.Release()
}

func TestCell_SwapPanicsWhileBorrowed(t *testing.T) {
	left := New(1)
	right := New(2)

	m := right.BorrowMut()
	defer m.Release()

	assert.Panics(t, func() { left.Swap(right) })
}

func TestRef_UseAfterReleasePanics(t *testing.T) {
	cell := New(1)

	r := cell.Borrow()
	r.Release()
	assert.Panics(t, func() { r.Get() })
	assert.Panics(t, func() { r.Release() })

	m := cell.BorrowMut()
	m.Release()
	assert.Panics(t, func() { m.Get() })
	assert.Panics(t, func() { m.Release() })
}

func TestRefMut_Set(t *testing.T) {
	cell := New(1)

	m := cell.BorrowMut()
	m.Set(5)
	m.Release()

	r := cell.Borrow()
	assert.Equal(t, 5, *r.Get())
	r.Release()
}

func TestCell_ManyReadersInterleaved(t *testing.T) {
	cell := New(0)

	guards := make([]*Ref[int], 0, 8)
	for i := 0; i < 8; i++ {
		guards = append(guards, cell.Borrow())
	}
	for _, g := range guards {
		g.Release()
	}

	m := cell.BorrowMut()
	*m.Get() = 7
	m.Release()

	r := cell.Borrow()
	assert.Equal(t, 7, *r.Get())
	r.Release()
}
