package wcsp

import "fmt"

// A Cell is a reversible integer slot in a Store.
type Cell int32

type trailEntry struct {
	cell Cell
	old  int64
}

// A Store holds all the reversible state used during search.
// Writes are recorded on a trail so that they can be undone in LIFO order.
// A checkpoint is only an index in that trail.
type Store struct {
	values []int64
	trail  []trailEntry
	marks  []int // trail length when each checkpoint was taken
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		values: make([]int64, 0, 1024),
		trail:  make([]trailEntry, 0, 4096),
	}
}

// NewCell allocates a new cell holding val.
func (s *Store) NewCell(val int64) Cell {
	s.values = append(s.values, val)
	return Cell(len(s.values) - 1)
}

// NewCells allocates n consecutive cells holding val and returns the first one.
func (s *Store) NewCells(n int, val int64) Cell {
	first := Cell(len(s.values))
	for i := 0; i < n; i++ {
		s.values = append(s.values, val)
	}
	return first
}

// Depth is the number of checkpoints currently pushed.
func (s *Store) Depth() int {
	return len(s.marks)
}

// Checkpoint pushes a save point and returns its depth.
func (s *Store) Checkpoint() int {
	s.marks = append(s.marks, len(s.trail))
	return len(s.marks)
}

// Rollback restores every cell to the value it had when checkpoint depth was taken,
// and pops that checkpoint and all the ones pushed after it.
func (s *Store) Rollback(depth int) {
	if depth < 1 || depth > len(s.marks) {
		panic(fmt.Sprintf("wcsp: rollback to depth %d, current depth is %d", depth, len(s.marks)))
	}
	mark := s.marks[depth-1]
	for i := len(s.trail) - 1; i >= mark; i-- {
		e := s.trail[i]
		s.values[e.cell] = e.old
	}
	s.trail = s.trail[:mark]
	s.marks = s.marks[:depth-1]
}

// Restore rolls back the innermost checkpoint.
func (s *Store) Restore() {
	s.Rollback(len(s.marks))
}

// Int returns the value of c.
func (s *Store) Int(c Cell) int64 {
	return s.values[c]
}

// SetInt sets the value of c.
// At depth 0 the write is permanent.
func (s *Store) SetInt(c Cell, val int64) {
	old := s.values[c]
	if old == val {
		return
	}
	if len(s.marks) > 0 {
		s.trail = append(s.trail, trailEntry{cell: c, old: old})
	}
	s.values[c] = val
}

// Cost returns the value of c as a Cost.
func (s *Store) Cost(c Cell) Cost {
	return Cost(s.values[c])
}

// SetCost sets the value of c.
func (s *Store) SetCost(c Cell, val Cost) {
	s.SetInt(c, int64(val))
}

// Bool returns the value of c as a boolean.
func (s *Store) Bool(c Cell) bool {
	return s.values[c] != 0
}

// SetBool sets the value of c.
func (s *Store) SetBool(c Cell, val bool) {
	if val {
		s.SetInt(c, 1)
	} else {
		s.SetInt(c, 0)
	}
}

// trailLen is useful to check that nothing was written.
func (s *Store) trailLen() int {
	return len(s.trail)
}
