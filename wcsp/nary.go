package wcsp

import (
	"fmt"
	"sort"
	"strings"
)

// Nary is a cost function of any arity >= 3, given as a table of explicit tuples
// and a default cost for all the other ones.
//
// It does not propagate by itself: it waits until only two of its variables are
// left unassigned, and then hands over to a binary constraint holding the
// corresponding slice of its table.
type Nary struct {
	constraintBase
	scope       []*Variable
	pos         map[*Variable]int
	table       tupleTable
	nonassigned Cell
	counted     []Cell // counted[i] is true once scope[i] was seen assigned
	pairs       map[[2]int]*Binary
	retired     bool // merged into another constraint
}

func newNary(pb *Problem, scope []*Variable, defCost Cost) *Nary {
	if len(scope) < 3 {
		panic(fmt.Sprintf("wcsp: n-ary constraints need an arity of at least 3, got %d", len(scope)))
	}
	c := &Nary{
		constraintBase: newConstraintBase(pb, true),
		scope:          make([]*Variable, len(scope)),
		pos:            make(map[*Variable]int, len(scope)),
		table:          newTupleTable(defCost),
		nonassigned:    pb.store.NewCell(int64(len(scope))),
		counted:        make([]Cell, len(scope)),
		pairs:          make(map[[2]int]*Binary),
	}
	copy(c.scope, scope)
	for i, v := range scope {
		if !v.enumerated {
			panic(fmt.Sprintf("wcsp: n-ary constraints require enumerated variables, %s is not", v.name))
		}
		if _, ok := c.pos[v]; ok {
			panic(fmt.Sprintf("wcsp: variable %s appears twice in an n-ary scope", v.name))
		}
		c.pos[v] = i
		c.counted[i] = pb.store.NewCell(0)
		v.addLink(c, i)
	}
	return c
}

func (c *Nary) Arity() int { return len(c.scope) }

func (c *Nary) Var(i int) *Variable { return c.scope[i] }

func (c *Nary) Index(v *Variable) int {
	if i, ok := c.pos[v]; ok {
		return i
	}
	return -1
}

// Scope returns a copy of the current scope.
func (c *Nary) Scope() []*Variable {
	res := make([]*Variable, len(c.scope))
	copy(res, c.scope)
	return res
}

// DefaultCost returns the cost of the tuples that are not explicitly listed.
func (c *Nary) DefaultCost() Cost { return c.table.defCost }

// NbTuples returns the number of explicit tuples.
func (c *Nary) NbTuples() int { return c.table.len() }

func (c *Nary) checkTuple(t Tuple) {
	if len(t) != len(c.scope) {
		panic(fmt.Sprintf("wcsp: tuple %v has length %d, arity is %d", t, len(t), len(c.scope)))
	}
	for i, idx := range t {
		if idx < 0 || idx >= c.scope[i].InitDomainSize() {
			panic(fmt.Sprintf("wcsp: tuple %v has an invalid index at position %d", t, i))
		}
	}
}

// Eval returns the cost of t.
func (c *Nary) Eval(t Tuple) Cost {
	c.checkTuple(t)
	return c.table.eval(encode(t))
}

// SetTuple sets the cost of t.
func (c *Nary) SetTuple(t Tuple, cost Cost) {
	c.checkTuple(t)
	c.table.set(encode(t), cost)
	c.resetTightness()
}

// SetTupleInScope sets the cost of t, whose indexes are given for the variables of
// scope instead of the current scope of c.
func (c *Nary) SetTupleInScope(t Tuple, cost Cost, scope []*Variable) {
	if len(t) != len(c.scope) || len(scope) != len(c.scope) {
		panic(fmt.Sprintf("wcsp: tuple %v does not match a scope of arity %d", t, len(c.scope)))
	}
	nt := make(Tuple, len(t))
	seen := make([]bool, len(t))
	for i, v := range scope {
		p := c.Index(v)
		if p < 0 {
			panic(fmt.Sprintf("wcsp: variable %s is not in the scope of the constraint", v.name))
		}
		if seen[p] {
			panic(fmt.Sprintf("wcsp: variable %s appears twice in the given scope", v.name))
		}
		seen[p] = true
		nt[p] = t[i]
	}
	c.SetTuple(nt, cost)
}

// FirstLex returns the first tuple in lexicographic order and its cost.
func (c *Nary) FirstLex() (Tuple, Cost) {
	t := make(Tuple, len(c.scope))
	return t, c.table.eval(encode(t))
}

// NextLex moves t to the next tuple in lexicographic order, over the initial domains,
// and returns its cost. When t was the last tuple, it returns false and t is back to the first one.
func (c *Nary) NextLex(t Tuple) (Cost, bool) {
	c.checkTuple(t)
	for i := len(t) - 1; i >= 0; i-- {
		t[i]++
		if t[i] < c.scope[i].InitDomainSize() {
			return c.table.eval(encode(t)), true
		}
		t[i] = 0
	}
	return MinCost, false
}

// Each calls fn on each explicit tuple, in lexicographic order, until fn returns false.
// t is only valid during the call.
func (c *Nary) Each(fn func(t Tuple, cost Cost) bool) {
	var t Tuple
	for _, k := range c.table.sortedKeys() {
		t = decode(k, t)
		if !fn(t, c.table.costs[k]) {
			return
		}
	}
}

func (c *Nary) Propagate() error { return nil }

func (c *Nary) Assign(i int) error {
	if !c.Connected() {
		return nil
	}
	s := c.pb.store
	if s.Bool(c.counted[i]) {
		return nil
	}
	s.SetBool(c.counted[i], true)
	n := s.Int(c.nonassigned) - 1
	s.SetInt(c.nonassigned, n)
	if n > 2 {
		return nil
	}
	c.Deconnect()
	return c.projectNaryBinary()
}

// projectNaryBinary fills the binary constraint over the two uncounted variables with
// the slice of the table given by the values of the other ones, and connects it.
func (c *Nary) projectNaryBinary() error {
	s := c.pb.store
	t := make(Tuple, len(c.scope))
	free := make([]int, 0, 2)
	for i, v := range c.scope {
		if s.Bool(c.counted[i]) {
			t[i] = v.index(v.Value())
		} else {
			free = append(free, i)
		}
	}
	px, py := free[0], free[1]
	x, y := c.scope[px], c.scope[py]
	b := c.reduction(x, y)
	if b.x != x {
		px, py = py, px
		x, y = y, x
	}
	b.fill(func(a, bv Value) Cost {
		t[px], t[py] = x.index(a), y.index(bv)
		return c.table.eval(encode(t))
	})
	b.Reconnect()
	return b.Propagate()
}

// reduction returns the binary constraint over x and y used for arity reduction,
// creating it if needed.
func (c *Nary) reduction(x, y *Variable) *Binary {
	key := [2]int{x.id, y.id}
	if key[0] > key[1] {
		key[0], key[1] = key[1], key[0]
	}
	if b, ok := c.pairs[key]; ok {
		return b
	}
	b := newBinary(c.pb, x, y, nil, false)
	b.reduction = true
	c.pb.constrs = append(c.pb.constrs, b)
	c.pairs[key] = b
	return b
}

// An elimination remembers what is needed to give a value to a variable
// that was projected out of a constraint.
type elimination struct {
	x     *Variable
	scope []*Variable // before the projection
	xi    int         // position of x in scope
	table tupleTable  // before the projection
	dom   []Value
	costs []Cost // unary costs of dom
}

// best returns the value of x that minimizes the cost, given the values of the rest of the scope.
func (e *elimination) best(sol []Value) Value {
	t := make(Tuple, len(e.scope))
	for i, v := range e.scope {
		if i != e.xi {
			t[i] = v.index(sol[v.id])
		}
	}
	best, bestCost := e.dom[0], MaxCost
	for i, a := range e.dom {
		t[e.xi] = e.x.index(a)
		if cost := Add(e.table.eval(encode(t)), e.costs[i]); cost < bestCost {
			best, bestCost = a, cost
		}
	}
	return best
}

// Project removes x from the scope. The cost of each remaining tuple becomes the
// minimum, over the domain of x, of its previous cost plus the unary cost of x.
// x must not appear in any other connected constraint.
func (c *Nary) Project(x *Variable) {
	xi := c.Index(x)
	if xi < 0 {
		panic(fmt.Sprintf("wcsp: variable %s is not in the scope of the constraint", x.name))
	}
	if len(c.scope) <= 3 {
		panic("wcsp: cannot project an n-ary constraint of arity 3")
	}
	if x.connectedLinks() != 1 {
		panic(fmt.Sprintf("wcsp: variable %s appears in other constraints", x.name))
	}
	last := len(c.scope) - 1
	dom := x.Values()
	unary := make([]Cost, len(dom))
	newDef := MaxCost
	for i, a := range dom {
		unary[i] = x.Cost(a)
		if cost := Add(c.table.defCost, unary[i]); cost < newDef {
			newDef = cost
		}
	}
	// Move x to the last position so that tuples sharing the same values for the
	// other variables are consecutive once sorted.
	swapped := make(map[string]Cost, c.table.len())
	var t Tuple
	for k, cost := range c.table.costs {
		t = decode(k, t)
		a := x.valueAt(t[xi])
		if !x.CanBe(a) {
			continue
		}
		t[xi], t[last] = t[last], t[xi]
		swapped[encode(t)] = Add(cost, x.Cost(a))
	}
	keys := make([]string, 0, len(swapped))
	for k := range swapped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := newTupleTable(newDef)
	plen := 2 * last
	present := make([]bool, x.InitDomainSize())
	for i := 0; i < len(keys); {
		prefix := keys[i][:plen]
		best := MaxCost
		j := i
		for ; j < len(keys) && keys[j][:plen] == prefix; j++ {
			if cost := swapped[keys[j]]; cost < best {
				best = cost
			}
			present[int(keys[j][plen])<<8|int(keys[j][plen+1])] = true
		}
		if j-i < len(dom) {
			for k, a := range dom {
				if !present[x.index(a)] {
					if cost := Add(c.table.defCost, unary[k]); cost < best {
						best = cost
					}
				}
			}
		}
		for k := i; k < j; k++ {
			present[int(keys[k][plen])<<8|int(keys[k][plen+1])] = false
		}
		res.set(prefix, best)
		i = j
	}
	c.pb.elims = append(c.pb.elims, elimination{
		x:     x,
		scope: c.Scope(),
		xi:    xi,
		table: c.table,
		dom:   dom,
		costs: unary,
	})
	for _, a := range dom {
		x.setCost(a, MinCost)
	}
	x.eliminated = true
	s := c.pb.store
	if !s.Bool(c.counted[xi]) {
		s.SetInt(c.nonassigned, s.Int(c.nonassigned)-1)
	}
	moved := c.scope[last]
	c.scope[xi] = moved
	c.scope[last] = nil
	c.scope = c.scope[:last]
	c.counted[xi] = c.counted[last]
	c.counted = c.counted[:last]
	delete(c.pos, x)
	if moved != x {
		c.pos[moved] = xi
		moved.setLinkPos(c, xi)
	}
	x.removeLink(c)
	c.table = res
	c.resetTightness()
}

// enumerate calls fn on every combination of indexes of t at the given positions,
// over the initial domains of vars.
func enumerate(t Tuple, positions []int, vars []*Variable, fn func()) {
	for _, p := range positions {
		t[p] = 0
	}
	for {
		fn()
		i := len(positions) - 1
		for ; i >= 0; i-- {
			p := positions[i]
			t[p]++
			if t[p] < vars[p].InitDomainSize() {
				break
			}
			t[p] = 0
		}
		if i < 0 {
			return
		}
	}
}

// Sum adds other to c. The scope of c becomes the union of both scopes, ordered by
// variable id, and other is removed from the problem.
func (c *Nary) Sum(other *Nary) {
	if other == c {
		panic("wcsp: cannot sum a constraint with itself")
	}
	if other.retired || c.retired {
		panic("wcsp: cannot sum a retired constraint")
	}
	union := c.Scope()
	for _, v := range other.scope {
		if c.Index(v) < 0 {
			union = append(union, v)
		}
	}
	sort.Slice(union, func(i, j int) bool { return union[i].id < union[j].id })
	pos := make(map[*Variable]int, len(union))
	for i, v := range union {
		pos[v] = i
	}
	var privC, privO []int // positions of the variables that are only in c (resp. other)
	for i, v := range union {
		inC, inO := c.Index(v) >= 0, other.Index(v) >= 0
		if !inO {
			privC = append(privC, i)
		}
		if !inC {
			privO = append(privO, i)
		}
	}
	res := newTupleTable(Add(c.table.defCost, other.table.defCost))
	t := make(Tuple, len(union))
	project := func(scope []*Variable) Tuple {
		pt := make(Tuple, len(scope))
		for i, v := range scope {
			pt[i] = t[pos[v]]
		}
		return pt
	}
	var t1 Tuple
	for k, cost := range c.table.costs {
		t1 = decode(k, t1)
		for i, v := range c.scope {
			t[pos[v]] = t1[i]
		}
		enumerate(t, privO, union, func() {
			res.set(encode(t), Add(cost, other.table.eval(encode(project(other.scope)))))
		})
	}
	for k, cost := range other.table.costs {
		t1 = decode(k, t1)
		for i, v := range other.scope {
			t[pos[v]] = t1[i]
		}
		enumerate(t, privC, union, func() {
			res.set(encode(t), Add(c.table.eval(encode(project(c.scope))), cost))
		})
	}
	s := c.pb.store
	counted := make([]Cell, len(union))
	nonassigned := 0
	for i, v := range union {
		var was bool
		if p := c.Index(v); p >= 0 {
			was = s.Bool(c.counted[p])
		} else {
			was = s.Bool(other.counted[other.Index(v)])
		}
		counted[i] = s.NewCell(0)
		s.SetBool(counted[i], was)
		if !was {
			nonassigned++
		}
	}
	other.Deconnect()
	other.retired = true
	for _, v := range other.scope {
		v.removeLink(other)
	}
	for i, v := range union {
		if c.Index(v) < 0 {
			v.addLink(c, i)
		} else {
			v.setLinkPos(c, i)
		}
	}
	c.scope = union
	c.pos = pos
	c.counted = counted
	s.SetInt(c.nonassigned, int64(nonassigned))
	c.table = res
	c.resetTightness()
}

// Permute reorders the scope of c. newScope must be a permutation of the current scope.
func (c *Nary) Permute(newScope []*Variable) {
	if len(newScope) != len(c.scope) {
		panic(fmt.Sprintf("wcsp: permutation of length %d for a scope of arity %d", len(newScope), len(c.scope)))
	}
	perm := make([]int, len(newScope))
	seen := make([]bool, len(newScope))
	for i, v := range newScope {
		p := c.Index(v)
		if p < 0 || seen[p] {
			panic("wcsp: invalid scope permutation")
		}
		seen[p] = true
		perm[i] = p
	}
	res := newTupleTable(c.table.defCost)
	var t Tuple
	nt := make(Tuple, len(newScope))
	for k, cost := range c.table.costs {
		t = decode(k, t)
		for i, p := range perm {
			nt[i] = t[p]
		}
		res.set(encode(nt), cost)
	}
	counted := make([]Cell, len(newScope))
	for i, p := range perm {
		counted[i] = c.counted[p]
	}
	c.scope = make([]*Variable, len(newScope))
	copy(c.scope, newScope)
	for i, v := range c.scope {
		c.pos[v] = i
		v.setLinkPos(c, i)
	}
	c.counted = counted
	c.table = res
}

func (c *Nary) ComputeTightness() float64 {
	ub := c.pb.Ub()
	total := 1.0
	for _, v := range c.scope {
		total *= float64(v.InitDomainSize())
	}
	sum := 0.0
	for _, cost := range c.table.costs {
		sum += capped(cost, ub)
	}
	sum += capped(c.table.defCost, ub) * (total - float64(c.table.len()))
	return sum / total
}

func (c *Nary) Tightness() float64 { return c.cachedTightness(c.ComputeTightness) }

func (c *Nary) String() string {
	names := make([]string, len(c.scope))
	for i, v := range c.scope {
		names[i] = v.name
	}
	return fmt.Sprintf("nary(%s; %d tuples, default %v)", strings.Join(names, ", "), c.table.len(), c.table.defCost)
}
