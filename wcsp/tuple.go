package wcsp

import (
	"fmt"
	"sort"
	"strings"
)

// A Tuple is a list of value indexes, one per position of a scope.
// Value indexes are offsets from the initial lower bound of each variable.
type Tuple []int

// Equal is true iff t and t2 hold the same indexes.
func (t Tuple) Equal(t2 Tuple) bool {
	if len(t) != len(t2) {
		return false
	}
	for i := range t {
		if t[i] != t2[i] {
			return false
		}
	}
	return true
}

func (t Tuple) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, idx := range t {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", idx)
	}
	sb.WriteByte(')')
	return sb.String()
}

// encode turns t into a map key.
// Each index is written on two big-endian bytes, so that comparing keys
// compares tuples lexicographically.
func encode(t Tuple) string {
	b := make([]byte, 2*len(t))
	for i, idx := range t {
		b[2*i] = byte(idx >> 8)
		b[2*i+1] = byte(idx)
	}
	return string(b)
}

// decode is the inverse of encode. It writes into t if it is large enough.
func decode(key string, t Tuple) Tuple {
	n := len(key) / 2
	if cap(t) < n {
		t = make(Tuple, n)
	}
	t = t[:n]
	for i := range t {
		t[i] = int(key[2*i])<<8 | int(key[2*i+1])
	}
	return t
}

// A tupleTable associates costs with tuples. Absent tuples have the default cost,
// and no tuple is ever stored with the default cost.
type tupleTable struct {
	costs   map[string]Cost
	defCost Cost
}

func newTupleTable(defCost Cost) tupleTable {
	return tupleTable{costs: make(map[string]Cost), defCost: defCost}
}

func (tt *tupleTable) eval(key string) Cost {
	if c, ok := tt.costs[key]; ok {
		return c
	}
	return tt.defCost
}

func (tt *tupleTable) set(key string, c Cost) {
	if c == tt.defCost {
		delete(tt.costs, key)
	} else {
		tt.costs[key] = c
	}
}

func (tt *tupleTable) len() int { return len(tt.costs) }

// sortedKeys returns the keys of the explicit tuples, in lexicographic order.
func (tt *tupleTable) sortedKeys() []string {
	keys := make([]string, 0, len(tt.costs))
	for k := range tt.costs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
