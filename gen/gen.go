// Package gen generates random weighted constraint problems.
//
// Problems are fully determined by their parameters, including the seed,
// so they can be used for benchmarks and regression tests.
package gen

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/crillab/gowcsp/wcsp"
)

// ErrInvalidParams is returned when parameters cannot describe a problem.
var ErrInvalidParams = errors.New("gen: invalid parameters")

// maxTuples bounds the number of explicit tuples of n-ary constraints.
const maxTuples = 1 << 16

// maxTable bounds the size of binary and ternary cost tables.
const maxTable = 1 << 24

// Params describe a family of random problems.
type Params struct {
	NbVars     int
	DomainSize int
	Arities    map[int]int // Number of constraints of each arity; arity 1 means unary costs
	Density    float64     // Proportion of tuples with a non-zero cost, in [0, 1]
	MaxCost    wcsp.Cost   // Soft costs are drawn in [1, MaxCost]
	HardRatio  float64     // Proportion of non-zero costs that are wcsp.MaxCost, in [0, 1]
	Ub         wcsp.Cost   // Initial upper bound; 0 means wcsp.MaxCost
	Seed       int64
}

// DefaultParams returns parameters for a small binary problem.
func DefaultParams() Params {
	return Params{
		NbVars:     20,
		DomainSize: 5,
		Arities:    map[int]int{2: 40},
		Density:    0.3,
		MaxCost:    10,
		HardRatio:  0.1,
		Seed:       33,
	}
}

func (p Params) check() error {
	switch {
	case p.NbVars <= 0:
		return fmt.Errorf("%w: %d variables", ErrInvalidParams, p.NbVars)
	case p.DomainSize <= 0 || p.DomainSize > wcsp.MaxDomainSize:
		return fmt.Errorf("%w: domain size %d", ErrInvalidParams, p.DomainSize)
	case p.Density < 0 || p.Density > 1:
		return fmt.Errorf("%w: density %v", ErrInvalidParams, p.Density)
	case p.HardRatio < 0 || p.HardRatio > 1:
		return fmt.Errorf("%w: hard ratio %v", ErrInvalidParams, p.HardRatio)
	case p.MaxCost <= 0 || p.MaxCost >= wcsp.MaxCost:
		return fmt.Errorf("%w: max cost %v", ErrInvalidParams, p.MaxCost)
	case p.Ub < 0:
		return fmt.Errorf("%w: upper bound %v", ErrInvalidParams, p.Ub)
	}
	for arity, nb := range p.Arities {
		if arity <= 0 || arity > p.NbVars {
			return fmt.Errorf("%w: arity %d with %d variables", ErrInvalidParams, arity, p.NbVars)
		}
		if nb < 0 {
			return fmt.Errorf("%w: %d constraints of arity %d", ErrInvalidParams, nb, arity)
		}
		if arity <= 3 && nb > 0 && math.Pow(float64(p.DomainSize), float64(arity)) > maxTable {
			return fmt.Errorf("%w: tables of arity %d over %d values are too large", ErrInvalidParams, arity, p.DomainSize)
		}
	}
	return nil
}

type generator struct {
	Params
	rng *rand.Rand
	pb  *wcsp.Problem
}

func (g *generator) cost() wcsp.Cost {
	if g.rng.Float64() >= g.Density {
		return wcsp.MinCost
	}
	if g.rng.Float64() < g.HardRatio {
		return wcsp.MaxCost
	}
	return 1 + wcsp.Cost(g.rng.Int63n(int64(g.MaxCost)))
}

func (g *generator) costs(n int) []wcsp.Cost {
	res := make([]wcsp.Cost, n)
	for i := range res {
		res[i] = g.cost()
	}
	return res
}

func (g *generator) scope(arity int) []int {
	return g.rng.Perm(g.NbVars)[:arity]
}

func (g *generator) nary(arity int) {
	scope := g.scope(arity)
	c := g.pb.Nary(g.pb.PostNaryConstraint(scope, wcsp.MinCost))
	total := math.Pow(float64(g.DomainSize), float64(arity))
	nb := int(math.Min(g.Density*total, maxTuples))
	t := make(wcsp.Tuple, arity)
	for i := 0; i < nb; i++ {
		for j := range t {
			t[j] = g.rng.Intn(g.DomainSize)
		}
		cost := wcsp.MaxCost
		if g.rng.Float64() >= g.HardRatio {
			cost = 1 + wcsp.Cost(g.rng.Int63n(int64(g.MaxCost)))
		}
		c.SetTuple(t, cost)
	}
}

// Random generates a problem from the given parameters.
// Variables are named x0, x1, and so on, with domains [0, DomainSize-1].
// Constraints are generated by increasing arity.
func Random(p Params) (*wcsp.Problem, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	ub := p.Ub
	if ub == 0 {
		ub = wcsp.MaxCost
	}
	name := fmt.Sprintf("random-%d-%d-%d", p.NbVars, p.DomainSize, p.Seed)
	g := &generator{Params: p, rng: rand.New(rand.NewSource(p.Seed)), pb: wcsp.NewProblem(name, ub)}
	for i := 0; i < p.NbVars; i++ {
		g.pb.MakeEnumeratedVariable(fmt.Sprintf("x%d", i), 0, wcsp.Value(p.DomainSize-1))
	}
	d := p.DomainSize
	for arity := 1; arity <= p.NbVars; arity++ {
		for i := 0; i < p.Arities[arity]; i++ {
			switch arity {
			case 1:
				g.pb.PostUnaryConstraint(g.scope(1)[0], g.costs(d))
			case 2:
				s := g.scope(2)
				g.pb.PostBinaryConstraint(s[0], s[1], g.costs(d*d))
			case 3:
				s := g.scope(3)
				g.pb.PostTernaryConstraint(s[0], s[1], s[2], g.costs(d*d*d))
			default:
				g.nary(arity)
			}
		}
	}
	g.pb.SortVariables()
	g.pb.SortConstraints()
	return g.pb, nil
}
