package wcsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRollback(t *testing.T) {
	s := NewStore()
	a := s.NewCell(1)
	b := s.NewCells(3, 7)
	s.SetInt(a, 2) // depth 0: permanent
	require.Equal(t, 0, s.trailLen())

	d1 := s.Checkpoint()
	require.Equal(t, 1, d1)
	s.SetInt(a, 3)
	s.SetInt(b+1, 8)
	d2 := s.Checkpoint()
	s.SetInt(a, 4)
	s.SetInt(a, 5)
	s.SetBool(b+2, false)
	require.Equal(t, 2, s.Depth())

	s.Rollback(d2)
	assert.Equal(t, int64(3), s.Int(a))
	assert.Equal(t, int64(8), s.Int(b+1))
	assert.Equal(t, int64(7), s.Int(b+2))
	assert.Equal(t, 1, s.Depth())

	s.Restore()
	assert.Equal(t, int64(2), s.Int(a))
	assert.Equal(t, int64(7), s.Int(b))
	assert.Equal(t, int64(7), s.Int(b+1))
	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, 0, s.trailLen())
}

func TestStoreRollbackSeveralDepths(t *testing.T) {
	s := NewStore()
	c := s.NewCell(0)
	d := s.Checkpoint()
	for i := 1; i <= 10; i++ {
		s.Checkpoint()
		s.SetCost(c, Cost(i))
	}
	require.Equal(t, 11, s.Depth())
	s.Rollback(d)
	assert.Equal(t, Cost(0), s.Cost(c))
	assert.Equal(t, 0, s.Depth())
}

func TestStoreSameValueIsNotTrailed(t *testing.T) {
	s := NewStore()
	c := s.NewCell(5)
	s.Checkpoint()
	s.SetInt(c, 5)
	assert.Equal(t, 0, s.trailLen())
	s.SetBool(c, true)
	assert.Equal(t, 1, s.trailLen())
	assert.True(t, s.Bool(c))
}

func TestStoreInvalidRollback(t *testing.T) {
	s := NewStore()
	assert.Panics(t, func() { s.Rollback(1) })
	assert.Panics(t, func() { s.Restore() })
	d := s.Checkpoint()
	s.Rollback(d)
	assert.Panics(t, func() { s.Rollback(d) })
	s.Checkpoint()
	assert.Panics(t, func() { s.Rollback(0) })
	assert.Panics(t, func() { s.Rollback(2) })
}

func TestCostArithmetic(t *testing.T) {
	assert.Equal(t, Cost(5), Add(2, 3))
	assert.Equal(t, MaxCost, Add(MaxCost, 3))
	assert.Equal(t, MaxCost, Add(MaxCost-1, 3))
	assert.Equal(t, Cost(2), Sub(5, 3))
	assert.Equal(t, MinCost, Sub(3, 5))
	assert.Equal(t, MaxCost, Sub(MaxCost, 3))
	assert.True(t, Cut(5, 5))
	assert.False(t, Cut(4, 5))
	assert.Equal(t, "inf", MaxCost.String())
	assert.Equal(t, "12", Cost(12).String())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OPTIMUM", Sat.String())
	assert.Equal(t, "UNSATISFIABLE", Unsat.String())
	assert.Equal(t, "INDETERMINATE", Indet.String())
	assert.Panics(t, func() { _ = Status(12).String() })
}
