package wcsp

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naryProblem returns a problem with arity variables of the given domain sizes and
// one n-ary constraint over all of them, filled with random costs.
func naryProblem(rng *rand.Rand, sizes []int, defCost Cost, density float64) (*Problem, *Nary) {
	pb := NewProblem("nary", MaxCost)
	scope := make([]int, len(sizes))
	for i, size := range sizes {
		scope[i] = pb.MakeEnumeratedVariable(fmt.Sprintf("x%d", i), 0, Value(size-1))
	}
	c := pb.Nary(pb.PostNaryConstraint(scope, defCost))
	t, _ := c.FirstLex()
	for ok := true; ok; _, ok = c.NextLex(t) {
		if rng.Float64() < density {
			c.SetTuple(t, Cost(rng.Intn(10)))
		}
	}
	return pb, c
}

// evalBy evaluates c on an assignment given per variable.
func evalBy(c *Nary, assign map[*Variable]int) Cost {
	t := make(Tuple, c.Arity())
	for i, v := range c.scope {
		t[i] = assign[v]
	}
	return c.Eval(t)
}

// eachAssignment calls fn on every assignment of vars, over their initial domains.
func eachAssignment(vars []*Variable, fn func(assign map[*Variable]int)) {
	assign := make(map[*Variable]int, len(vars))
	var rec func(i int)
	rec = func(i int) {
		if i == len(vars) {
			fn(assign)
			return
		}
		for idx := 0; idx < vars[i].InitDomainSize(); idx++ {
			assign[vars[i]] = idx
			rec(i + 1)
		}
	}
	rec(0)
}

func TestTupleEncoding(t *testing.T) {
	tuples := []Tuple{{0, 0, 0}, {1, 2, 3}, {255, 256, 65535}}
	for _, tuple := range tuples {
		assert.True(t, tuple.Equal(decode(encode(tuple), nil)), "tuple %v", tuple)
	}
	assert.Less(t, encode(Tuple{0, 255}), encode(Tuple{1, 0}))
	assert.Less(t, encode(Tuple{1, 255}), encode(Tuple{1, 256}))
	assert.Equal(t, "(1 2 3)", Tuple{1, 2, 3}.String())
}

func TestSetTupleRoundTrip(t *testing.T) {
	pb := NewProblem("nary", 100)
	x := pb.MakeEnumeratedVariable("x", 0, 2)
	y := pb.MakeEnumeratedVariable("y", 0, 2)
	z := pb.MakeEnumeratedVariable("z", 0, 2)
	c := pb.Nary(pb.PostNaryConstraint([]int{x, y, z}, 5))
	c.SetTuple(Tuple{0, 1, 2}, 3)
	assert.Equal(t, Cost(3), c.Eval(Tuple{0, 1, 2}))
	assert.Equal(t, Cost(5), c.Eval(Tuple{2, 1, 0}))
	assert.Equal(t, 1, c.NbTuples())
	c.SetTuple(Tuple{0, 1, 2}, 5)
	assert.Equal(t, Cost(5), c.Eval(Tuple{0, 1, 2}))
	assert.Equal(t, 0, c.NbTuples())
	c.SetTuple(Tuple{2, 2, 2}, MaxCost)
	assert.Equal(t, MaxCost, c.Eval(Tuple{2, 2, 2}))

	assert.Panics(t, func() { c.SetTuple(Tuple{0, 1}, 3) })
	assert.Panics(t, func() { c.Eval(Tuple{0, 1, 3}) })
	assert.Panics(t, func() { c.Eval(Tuple{-1, 1, 1}) })
}

func TestSetTupleInScope(t *testing.T) {
	pb := NewProblem("nary", 100)
	x := pb.MakeEnumeratedVariable("x", 0, 1)
	y := pb.MakeEnumeratedVariable("y", 0, 2)
	z := pb.MakeEnumeratedVariable("z", 0, 3)
	w := pb.MakeEnumeratedVariable("w", 0, 3)
	c := pb.Nary(pb.PostNaryConstraint([]int{x, y, z}, 0))
	c.SetTupleInScope(Tuple{3, 1, 2}, 7, []*Variable{pb.Var(z), pb.Var(x), pb.Var(y)})
	assert.Equal(t, Cost(7), c.Eval(Tuple{1, 2, 3}))
	assert.Panics(t, func() {
		c.SetTupleInScope(Tuple{0, 0, 0}, 1, []*Variable{pb.Var(x), pb.Var(y), pb.Var(w)})
	})
	assert.Panics(t, func() {
		c.SetTupleInScope(Tuple{0, 0, 0}, 1, []*Variable{pb.Var(x), pb.Var(y), pb.Var(y)})
	})
}

func TestLexicographicEnumeration(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, c := naryProblem(rng, []int{2, 3, 1, 4}, 9, 0.3)
	t0, cost := c.FirstLex()
	require.Equal(t, Tuple{0, 0, 0, 0}, t0)
	require.Equal(t, c.Eval(Tuple{0, 0, 0, 0}), cost)
	seen := map[string]bool{encode(t0): true}
	prev := encode(t0)
	nb := 1
	for {
		cost, ok := c.NextLex(t0)
		if !ok {
			break
		}
		key := encode(t0)
		assert.Less(t, prev, key)
		assert.False(t, seen[key])
		assert.Equal(t, c.Eval(t0), cost)
		seen[key] = true
		prev = key
		nb++
	}
	assert.Equal(t, 2*3*1*4, nb)
	assert.Equal(t, Tuple{0, 0, 0, 0}, t0)

	var explicit []string
	c.Each(func(tuple Tuple, cost Cost) bool {
		assert.NotEqual(t, c.DefaultCost(), cost)
		explicit = append(explicit, encode(tuple))
		return true
	})
	assert.Len(t, explicit, c.NbTuples())
	assert.IsIncreasing(t, explicit)
}

func TestPermute(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	pb, c := naryProblem(rng, []int{2, 3, 4, 2}, 4, 0.5)
	vars := c.Scope()
	before := map[string]Cost{}
	eachAssignment(vars, func(assign map[*Variable]int) {
		before[fmt.Sprint(assign[vars[0]], assign[vars[1]], assign[vars[2]], assign[vars[3]])] = evalBy(c, assign)
	})
	c.Permute([]*Variable{vars[2], vars[0], vars[3], vars[1]})
	assert.Equal(t, vars[2], c.Var(0))
	assert.Equal(t, 2, c.Index(vars[3]))
	for i, v := range c.scope {
		for _, l := range v.links {
			if l.c == Constraint(c) {
				assert.Equal(t, i, l.pos)
			}
		}
	}
	eachAssignment(vars, func(assign map[*Variable]int) {
		key := fmt.Sprint(assign[vars[0]], assign[vars[1]], assign[vars[2]], assign[vars[3]])
		assert.Equal(t, before[key], evalBy(c, assign))
	})
	assert.Panics(t, func() { c.Permute([]*Variable{vars[0], vars[0], vars[1], vars[2]}) })
	assert.Panics(t, func() { c.Permute(vars[:3]) })
	other := pb.Var(pb.MakeEnumeratedVariable("other", 0, 1))
	assert.Panics(t, func() { c.Permute([]*Variable{vars[0], vars[1], vars[2], other}) })
}

func TestProject(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		pb, c := naryProblem(rng, []int{2, 3, 3, 2, 2}, Cost(rng.Intn(5)), 0.4)
		vars := c.Scope()
		xi := rng.Intn(len(vars))
		x := vars[xi]
		unary := make([]Cost, x.InitDomainSize())
		for i := range unary {
			unary[i] = Cost(rng.Intn(3))
		}
		pb.PostUnaryConstraint(x.id, unary)
		rest := make([]*Variable, 0, len(vars)-1)
		for _, v := range vars {
			if v != x {
				rest = append(rest, v)
			}
		}
		expected := map[string]Cost{}
		eachAssignment(rest, func(assign map[*Variable]int) {
			best := MaxCost
			for a := 0; a < x.InitDomainSize(); a++ {
				assign[x] = a
				if cost := Add(evalBy(c, assign), unary[a]); cost < best {
					best = cost
				}
			}
			delete(assign, x)
			expected[fmt.Sprint(assign)] = best
		})

		c.Project(x)
		require.Equal(t, len(vars)-1, c.Arity())
		assert.Equal(t, -1, c.Index(x))
		assert.True(t, x.Eliminated())
		assert.Equal(t, 0, x.connectedLinks())
		for a := x.Inf(); a <= x.Sup(); a++ {
			assert.Equal(t, MinCost, x.Cost(a))
		}
		eachAssignment(rest, func(assign map[*Variable]int) {
			assert.Equal(t, expected[fmt.Sprint(assign)], evalBy(c, assign), "seed %d", seed)
		})
		c.Each(func(_ Tuple, cost Cost) bool {
			assert.NotEqual(t, c.DefaultCost(), cost)
			return true
		})

		// The eliminated variable gets its best value back.
		sol := make([]Value, pb.NbVars())
		assign := map[*Variable]int{}
		for _, v := range rest {
			sol[v.id] = Value(rng.Intn(v.InitDomainSize()))
			assign[v] = int(sol[v.id])
		}
		e := pb.elims[0]
		a := e.best(sol)
		assign[x] = x.index(a)
		got := Add(e.table.eval(encode(tupleOf(e.scope, assign))), unary[x.index(a)])
		assert.Equal(t, expected[fmt.Sprint(withoutVar(assign, x))], got)
	}
}

func tupleOf(scope []*Variable, assign map[*Variable]int) Tuple {
	t := make(Tuple, len(scope))
	for i, v := range scope {
		t[i] = assign[v]
	}
	return t
}

func withoutVar(assign map[*Variable]int, x *Variable) map[*Variable]int {
	res := make(map[*Variable]int, len(assign))
	for v, a := range assign {
		if v != x {
			res[v] = a
		}
	}
	return res
}

func TestProjectInvalid(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pb, c := naryProblem(rng, []int{2, 2, 2, 2}, 0, 0.5)
	vars := c.Scope()
	pb.PostBinaryConstraint(vars[0].id, vars[1].id, []Cost{0, 1, 1, 0})
	assert.Panics(t, func() { c.Project(vars[0]) })
	other := pb.Var(pb.MakeEnumeratedVariable("other", 0, 1))
	assert.Panics(t, func() { c.Project(other) })
	c.Project(vars[3])
	assert.Panics(t, func() { c.Project(vars[2]) }) // arity 3
}

func TestSum(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		pb := NewProblem("sum", MaxCost)
		ids := make([]int, 5)
		for i := range ids {
			ids[i] = pb.MakeEnumeratedVariable(fmt.Sprintf("x%d", i), 0, Value(1+rng.Intn(2)))
		}
		fill := func(c *Nary) {
			t, _ := c.FirstLex()
			for ok := true; ok; _, ok = c.NextLex(t) {
				if rng.Intn(3) == 0 {
					c.SetTuple(t, Cost(rng.Intn(10)))
				}
			}
		}
		c1 := pb.Nary(pb.PostNaryConstraint([]int{ids[3], ids[0], ids[1]}, Cost(rng.Intn(3))))
		c2 := pb.Nary(pb.PostNaryConstraint([]int{ids[1], ids[4], ids[3]}, Cost(rng.Intn(3))))
		fill(c1)
		fill(c2)
		vars := []*Variable{pb.Var(ids[0]), pb.Var(ids[1]), pb.Var(ids[3]), pb.Var(ids[4])}
		expected := map[string]Cost{}
		eachAssignment(vars, func(assign map[*Variable]int) {
			expected[fmt.Sprint(assign)] = Add(evalBy(c1, assign), evalBy(c2, assign))
		})
		c1.Sum(c2)
		require.Equal(t, vars, c1.Scope())
		assert.False(t, c2.Connected())
		assert.Equal(t, -1, pb.Var(ids[4]).links[0].c.Index(pb.Var(ids[2])))
		for _, v := range vars {
			assert.Equal(t, 1, v.connectedLinks())
		}
		eachAssignment(vars, func(assign map[*Variable]int) {
			assert.Equal(t, expected[fmt.Sprint(assign)], evalBy(c1, assign), "seed %d", seed)
		})
		assert.Panics(t, func() { c1.Sum(c1) })
		assert.Panics(t, func() { c1.Sum(c2) })
	}
}

func TestArityReduction(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	pb, c := naryProblem(rng, []int{3, 3, 3, 3}, 2, 0.5)
	vars := c.Scope()
	st := pb.store
	d := st.Checkpoint()
	require.NoError(t, vars[0].Assign(1))
	require.NoError(t, pb.Propagate())
	assert.True(t, c.Connected())
	require.NoError(t, vars[2].Assign(0))
	require.NoError(t, pb.Propagate())
	assert.False(t, c.Connected())
	require.Len(t, c.pairs, 1)
	var b *Binary
	for _, b = range c.pairs {
	}
	assert.True(t, b.Connected())
	assert.Equal(t, vars[1], b.x)
	assert.Equal(t, vars[3], b.y)
	for _, a := range vars[1].Values() {
		for _, e := range vars[3].Values() {
			assert.Equal(t, c.Eval(Tuple{1, int(a), 0, int(e)}), b.InitialCost(a, e))
		}
	}
	pb.whenContradiction()
	st.Rollback(d)
	assert.True(t, c.Connected())
	assert.False(t, b.Connected())
	assert.Equal(t, MinCost, pb.Lb())
}

func TestNaryTightness(t *testing.T) {
	pb := NewProblem("tight", 10)
	x := pb.MakeEnumeratedVariable("x", 0, 1)
	y := pb.MakeEnumeratedVariable("y", 0, 1)
	z := pb.MakeEnumeratedVariable("z", 0, 1)
	c := pb.Nary(pb.PostNaryConstraint([]int{x, y, z}, 2))
	c.SetTuple(Tuple{0, 0, 0}, MaxCost)
	// (10 + 7*2) / 8
	assert.InDelta(t, 3.0, c.Tightness(), 1e-9)
	c.SetTuple(Tuple{0, 0, 0}, 2)
	assert.InDelta(t, 2.0, c.Tightness(), 1e-9)
}
