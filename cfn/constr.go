package cfn

import (
	"fmt"
	"strings"

	"github.com/crillab/gowcsp/wcsp"
)

// A Constr is a cost function over named variables.
// Each tuple in Tuples gives one value per variable of Vars and costs the associated
// element of Costs; every other tuple costs Default.
// When a tuple appears several times, the last occurrence wins.
type Constr struct {
	Vars    []string
	Tuples  [][]wcsp.Value
	Costs   []wcsp.Cost
	Default wcsp.Cost
}

// Hard returns a constraint that only allows the given tuples.
func Hard(vars []string, allowed ...[]wcsp.Value) Constr {
	costs := make([]wcsp.Cost, len(allowed))
	return Constr{Vars: vars, Tuples: allowed, Costs: costs, Default: wcsp.MaxCost}
}

// Forbid returns a constraint that forbids the given tuples.
func Forbid(vars []string, forbidden ...[]wcsp.Value) Constr {
	return Soft(vars, wcsp.MaxCost, forbidden...)
}

// Soft returns a constraint where each given tuple costs weight.
func Soft(vars []string, weight wcsp.Cost, tuples ...[]wcsp.Value) Constr {
	costs := make([]wcsp.Cost, len(tuples))
	for i := range costs {
		costs[i] = weight
	}
	return Constr{Vars: vars, Tuples: tuples, Costs: costs}
}

// Unary returns a constraint giving a cost to some values of a variable.
func Unary(name string, costs map[wcsp.Value]wcsp.Cost) Constr {
	c := Constr{Vars: []string{name}}
	for val, cost := range costs {
		c.Tuples = append(c.Tuples, []wcsp.Value{val})
		c.Costs = append(c.Costs, cost)
	}
	return c
}

// Arity returns the number of variables of c.
func (c Constr) Arity() int { return len(c.Vars) }

// Cost returns the cost of the given values.
func (c Constr) Cost(vals ...wcsp.Value) wcsp.Cost {
	res := c.Default
	for i, t := range c.Tuples {
		if equal(t, vals) {
			res = c.Costs[i]
		}
	}
	return res
}

func equal(t1, t2 []wcsp.Value) bool {
	if len(t1) != len(t2) {
		return false
	}
	for i := range t1 {
		if t1[i] != t2[i] {
			return false
		}
	}
	return true
}

func (c Constr) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(%s):", strings.Join(c.Vars, ", "))
	for i, t := range c.Tuples {
		fmt.Fprintf(&sb, " %v->%v", t, c.Costs[i])
	}
	fmt.Fprintf(&sb, " default %v", c.Default)
	return sb.String()
}
