package wcsp

import (
	"fmt"
	"sort"
)

// Unary is a soft domain restriction: assigning x to a value outside the permitted
// set costs penalty. It works for interval variables as well as enumerated ones.
type Unary struct {
	constraintBase
	x         *Variable
	permitted []Value // sorted, no duplicates
	penalty   Cost
}

func newUnary(pb *Problem, x *Variable, permitted []Value, penalty Cost) *Unary {
	vals := make([]Value, len(permitted))
	copy(vals, permitted)
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	j := 0
	for i, v := range vals {
		if i == 0 || v != vals[j-1] {
			vals[j] = v
			j++
		}
	}
	c := &Unary{
		constraintBase: newConstraintBase(pb, true),
		x:              x,
		permitted:      vals[:j],
		penalty:        penalty,
	}
	x.addLink(c, 0)
	return c
}

func (c *Unary) Arity() int { return 1 }

func (c *Unary) Var(i int) *Variable {
	if i != 0 {
		panic(fmt.Sprintf("wcsp: invalid position %d in unary constraint", i))
	}
	return c.x
}

func (c *Unary) Index(v *Variable) int {
	if v == c.x {
		return 0
	}
	return -1
}

// Permits is true iff a is in the permitted set.
func (c *Unary) Permits(a Value) bool {
	i := sort.Search(len(c.permitted), func(i int) bool { return c.permitted[i] >= a })
	return i < len(c.permitted) && c.permitted[i] == a
}

// Penalty returns the cost of a forbidden value.
func (c *Unary) Penalty() Cost { return c.penalty }

func (c *Unary) Propagate() error {
	if !c.Connected() {
		return nil
	}
	if c.x.Assigned() {
		c.Deconnect()
		if !c.Permits(c.x.Value()) {
			return c.pb.IncreaseLb(c.penalty)
		}
		return nil
	}
	if !Cut(Add(c.pb.Lb(), c.penalty), c.pb.Ub()) {
		return nil
	}
	// Paying the penalty is not an option anymore: only permitted values remain.
	inf, sup := c.x.Inf(), c.x.Sup()
	i := sort.Search(len(c.permitted), func(i int) bool { return c.permitted[i] >= inf })
	j := sort.Search(len(c.permitted), func(i int) bool { return c.permitted[i] > sup }) - 1
	if i > j {
		return ErrContradiction
	}
	if err := c.x.Increase(c.permitted[i]); err != nil {
		return err
	}
	if err := c.x.Decrease(c.permitted[j]); err != nil {
		return err
	}
	if c.x.Enumerated() {
		for _, a := range c.x.Values() {
			if !c.Permits(a) {
				if err := c.x.Remove(a); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *Unary) Assign(i int) error {
	return c.Propagate()
}

func (c *Unary) ComputeTightness() float64 {
	size := float64(c.x.InitDomainSize())
	forbidden := size - float64(len(c.permitted))
	if forbidden < 0 {
		forbidden = 0
	}
	return capped(c.penalty, c.pb.Ub()) * forbidden / size
}

func (c *Unary) Tightness() float64 { return c.cachedTightness(c.ComputeTightness) }

func (c *Unary) String() string {
	return fmt.Sprintf("unary(%s in %v else %v)", c.x.name, c.permitted, c.penalty)
}
