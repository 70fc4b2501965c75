package cfn

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/crillab/gowcsp/wcsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queens(n int) *Problem {
	pb := New(fmt.Sprintf("queens-%d", n))
	for i := 0; i < n; i++ {
		if err := pb.AddRange(fmt.Sprintf("q%d", i), 0, wcsp.Value(n-1)); err != nil {
			panic(err)
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var forbidden [][]wcsp.Value
			for a := 0; a < n; a++ {
				for b := 0; b < n; b++ {
					if a == b || a-b == j-i || b-a == j-i {
						forbidden = append(forbidden, []wcsp.Value{wcsp.Value(a), wcsp.Value(b)})
					}
				}
			}
			vars := []string{fmt.Sprintf("q%d", i), fmt.Sprintf("q%d", j)}
			if err := pb.Add(Forbid(vars, forbidden...)); err != nil {
				panic(err)
			}
		}
	}
	return pb
}

func TestQueens(t *testing.T) {
	pb := queens(5)
	model, cost := pb.Solve()
	require.NotNil(t, model)
	assert.Equal(t, wcsp.MinCost, cost)
	assert.Len(t, model, 5)
	assert.Equal(t, wcsp.MinCost, pb.Cost(model))
	assert.Equal(t, wcsp.Sat, pb.Solver().Status())

	pb = queens(3)
	model, cost = pb.Solve()
	assert.Nil(t, model)
	assert.Equal(t, wcsp.MaxCost, cost)
	assert.Equal(t, wcsp.Unsat, pb.Solver().Status())
}

func TestSoftColoring(t *testing.T) {
	// A triangle with two colors: one edge has to be violated, the cheapest one.
	pb := New("coloring")
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, pb.AddVar(name, 1, 2))
	}
	same := [][]wcsp.Value{{1, 1}, {2, 2}}
	require.NoError(t, pb.Add(Soft([]string{"a", "b"}, 5, same...)))
	require.NoError(t, pb.Add(Soft([]string{"b", "c"}, 3, same...)))
	require.NoError(t, pb.Add(Soft([]string{"a", "c"}, 4, same...)))
	require.NoError(t, pb.Add(Unary("a", map[wcsp.Value]wcsp.Cost{2: 1})))
	model, cost := pb.Solve()
	require.NotNil(t, model)
	assert.Equal(t, wcsp.Cost(3), cost)
	assert.Equal(t, wcsp.Value(1), model["a"])
	assert.Equal(t, model["b"], model["c"])
	assert.NotEqual(t, model["a"], model["b"])
}

func TestHoles(t *testing.T) {
	pb := New("holes")
	require.NoError(t, pb.AddVar("x", 10, 0, 5))
	require.NoError(t, pb.Add(Unary("x", map[wcsp.Value]wcsp.Cost{0: 2, 5: 1, 10: 4})))
	model, cost := pb.Solve()
	require.NotNil(t, model)
	assert.Equal(t, wcsp.Value(5), model["x"])
	assert.Equal(t, wcsp.Cost(1), cost)
	assert.Equal(t, wcsp.MaxCost, pb.Cost(Model{"x": 3}))
}

func TestArityFour(t *testing.T) {
	// Tuples with exactly two ones cost nothing.
	pb := New("sum")
	vars := []string{"a", "b", "c", "d"}
	for _, name := range vars {
		require.NoError(t, pb.AddRange(name, 0, 1))
	}
	c := Constr{Vars: vars}
	for i := 0; i < 16; i++ {
		tuple := make([]wcsp.Value, 4)
		ones := 0
		for j := range tuple {
			tuple[j] = wcsp.Value((i >> j) & 1)
			ones += int(tuple[j])
		}
		if ones != 2 {
			c.Tuples = append(c.Tuples, tuple)
			c.Costs = append(c.Costs, wcsp.Cost(1+ones))
		}
	}
	require.NoError(t, pb.Add(c))
	require.NoError(t, pb.Add(Unary("a", map[wcsp.Value]wcsp.Cost{1: 10})))
	model, cost := pb.Solve()
	require.NotNil(t, model)
	assert.Equal(t, wcsp.MinCost, cost)
	assert.Equal(t, wcsp.Value(0), model["a"])
	assert.Equal(t, wcsp.Value(2), model["b"]+model["c"]+model["d"])
}

func TestLastTupleWins(t *testing.T) {
	c := Constr{
		Vars:    []string{"x"},
		Tuples:  [][]wcsp.Value{{0}, {0}},
		Costs:   []wcsp.Cost{5, 1},
		Default: 3,
	}
	assert.Equal(t, wcsp.Cost(1), c.Cost(0))
	assert.Equal(t, wcsp.Cost(3), c.Cost(1))
	pb := New("last")
	require.NoError(t, pb.AddRange("x", 0, 1))
	require.NoError(t, pb.Add(c))
	_, cost := pb.Solve()
	assert.Equal(t, wcsp.Cost(1), cost)
}

func TestErrors(t *testing.T) {
	pb := New("errors")
	require.NoError(t, pb.AddRange("x", 0, 2))
	assert.ErrorIs(t, pb.AddVar("x", 1), ErrDuplicateVar)
	assert.ErrorIs(t, pb.AddVar("y"), ErrEmptyDomain)
	assert.ErrorIs(t, pb.AddRange("y", 2, 1), ErrEmptyDomain)
	require.NoError(t, pb.AddVar("y", 0, 4))
	assert.ErrorIs(t, pb.Add(Forbid([]string{"x", "z"}, []wcsp.Value{0, 0})), ErrUnknownVar)
	assert.ErrorIs(t, pb.Add(Forbid([]string{"x", "x"}, []wcsp.Value{0, 0})), ErrDuplicateVar)
	assert.ErrorIs(t, pb.Add(Forbid([]string{"x", "y"}, []wcsp.Value{0})), ErrBadTuple)
	assert.ErrorIs(t, pb.Add(Forbid([]string{"x", "y"}, []wcsp.Value{0, 2})), ErrBadTuple)
	assert.ErrorIs(t, pb.Add(Constr{Vars: []string{"x"}, Tuples: [][]wcsp.Value{{0}}}), ErrBadTuple)
	assert.ErrorIs(t, pb.Add(Constr{}), ErrBadTuple)
	assert.ErrorIs(t, pb.Add(Soft([]string{"x"}, -1, []wcsp.Value{0})), ErrBadTuple)
	assert.Equal(t, []string{"x", "y"}, pb.Vars())
}

func TestOptimalResults(t *testing.T) {
	pb := New("results")
	for i := 0; i < 6; i++ {
		require.NoError(t, pb.AddRange(fmt.Sprintf("x%d", i), 0, 3))
	}
	for i := 0; i < 5; i++ {
		vars := []string{fmt.Sprintf("x%d", i), fmt.Sprintf("x%d", i+1)}
		require.NoError(t, pb.Add(Soft(vars, wcsp.Cost(i+1), []wcsp.Value{0, 0}, []wcsp.Value{1, 2}, []wcsp.Value{3, 3})))
		require.NoError(t, pb.Add(Unary(vars[0], map[wcsp.Value]wcsp.Cost{0: 1, 2: 2})))
	}
	results := make(chan Result)
	var costs []wcsp.Cost
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			assert.NotNil(t, res.Model)
			costs = append(costs, res.Cost)
		}
	}()
	res := pb.Optimal(results, nil)
	<-done
	require.Equal(t, wcsp.Sat, res.Status)
	require.NotEmpty(t, costs)
	for i := 1; i < len(costs); i++ {
		assert.Less(t, costs[i], costs[i-1])
	}
	assert.Equal(t, res.Cost, costs[len(costs)-1])
	assert.Equal(t, res.Cost, pb.Cost(res.Model))
}

// eachModel calls fn on every assignment of the variables of pb.
func eachModel(pb *Problem, fn func(Model)) {
	m := make(Model)
	var rec func(i int)
	rec = func(i int) {
		if i == len(pb.vars) {
			fn(m)
			return
		}
		v := pb.vars[i]
		for val := v.lo; val <= v.hi; val++ {
			if v.values[val] {
				m[v.name] = val
				rec(i + 1)
			}
		}
	}
	rec(0)
}

func randomProblem(seed int64) *Problem {
	rng := rand.New(rand.NewSource(seed))
	pb := New(fmt.Sprintf("random-%d", seed))
	n := 3 + rng.Intn(3)
	var names []string
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("v%d", i)
		names = append(names, name)
		var values []wcsp.Value
		for val := wcsp.Value(-1); val <= 2; val++ {
			if rng.Intn(3) > 0 {
				values = append(values, val)
			}
		}
		if len(values) == 0 {
			values = []wcsp.Value{0}
		}
		if err := pb.AddVar(name, values...); err != nil {
			panic(err)
		}
	}
	randCost := func() wcsp.Cost {
		if rng.Intn(6) == 0 {
			return wcsp.MaxCost
		}
		return wcsp.Cost(rng.Intn(5))
	}
	nbConstrs := 2 + rng.Intn(5)
	for i := 0; i < nbConstrs; i++ {
		arity := 1 + rng.Intn(n)
		perm := rng.Perm(n)[:arity]
		c := Constr{Default: wcsp.Cost(rng.Intn(3))}
		for _, p := range perm {
			c.Vars = append(c.Vars, names[p])
		}
		for j := rng.Intn(8); j > 0; j-- {
			tuple := make([]wcsp.Value, arity)
			for k, p := range perm {
				v := pb.vars[p]
				vals := make([]wcsp.Value, 0, len(v.values))
				for val := v.lo; val <= v.hi; val++ {
					if v.values[val] {
						vals = append(vals, val)
					}
				}
				tuple[k] = vals[rng.Intn(len(vals))]
			}
			c.Tuples = append(c.Tuples, tuple)
			c.Costs = append(c.Costs, randCost())
		}
		if err := pb.Add(c); err != nil {
			panic(err)
		}
	}
	return pb
}

func TestRandomAgainstBruteForce(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		pb := randomProblem(seed)
		if seed%2 == 1 {
			pb.Preprocess = wcsp.PreprocessOptions{EliminateDegreeOne: true, MergeIncluded: true}
		}
		best := wcsp.MaxCost
		eachModel(pb, func(m Model) {
			if c := pb.Cost(m); c < best {
				best = c
			}
		})
		model, cost := pb.Solve()
		require.Equal(t, best, cost, "seed %d\n%s", seed, pb)
		if best == wcsp.MaxCost {
			assert.Nil(t, model, "seed %d", seed)
		} else {
			require.NotNil(t, model, "seed %d", seed)
			assert.Equal(t, best, pb.Cost(model), "seed %d", seed)
		}
	}
}
