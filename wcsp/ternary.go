package wcsp

import "fmt"

// Ternary is a cost table over three enumerated variables, with the same
// delta mechanism as Binary.
type Ternary struct {
	constraintBase
	x, y, z *Variable
	sizeX   int
	sizeY   int
	sizeZ   int
	costs   []Cost // costs[(ia*sizeY+ib)*sizeZ+ic]
	deltaX  Cell
	deltaY  Cell
	deltaZ  Cell
}

func newTernary(pb *Problem, x, y, z *Variable, costs []Cost) *Ternary {
	if x == y || x == z || y == z {
		panic("wcsp: ternary constraint over a repeated variable")
	}
	if !x.enumerated || !y.enumerated || !z.enumerated {
		panic("wcsp: ternary constraints require enumerated variables")
	}
	sx, sy, sz := x.InitDomainSize(), y.InitDomainSize(), z.InitDomainSize()
	if len(costs) != sx*sy*sz {
		panic(fmt.Sprintf("wcsp: ternary constraint needs %d costs, got %d", sx*sy*sz, len(costs)))
	}
	tab := make([]Cost, len(costs))
	copy(tab, costs)
	c := &Ternary{
		constraintBase: newConstraintBase(pb, true),
		x:              x,
		y:              y,
		z:              z,
		sizeX:          sx,
		sizeY:          sy,
		sizeZ:          sz,
		costs:          tab,
		deltaX:         pb.store.NewCells(sx, 0),
		deltaY:         pb.store.NewCells(sy, 0),
		deltaZ:         pb.store.NewCells(sz, 0),
	}
	x.addLink(c, 0)
	y.addLink(c, 1)
	z.addLink(c, 2)
	return c
}

func (c *Ternary) Arity() int { return 3 }

func (c *Ternary) Var(i int) *Variable {
	switch i {
	case 0:
		return c.x
	case 1:
		return c.y
	case 2:
		return c.z
	default:
		panic(fmt.Sprintf("wcsp: invalid position %d in ternary constraint", i))
	}
}

func (c *Ternary) Index(v *Variable) int {
	switch v {
	case c.x:
		return 0
	case c.y:
		return 1
	case c.z:
		return 2
	default:
		return -1
	}
}

func (c *Ternary) offset(ia, ib, ic int) int {
	return (ia*c.sizeY+ib)*c.sizeZ + ic
}

// Cost returns the current cost of (a, b, d), once the projected costs are removed.
func (c *Ternary) Cost(a, b, d Value) Cost {
	ia, ib, ic := c.x.index(a), c.y.index(b), c.z.index(d)
	s := c.pb.store
	res := Sub(c.costs[c.offset(ia, ib, ic)], s.Cost(c.deltaX+Cell(ia)))
	res = Sub(res, s.Cost(c.deltaY+Cell(ib)))
	return Sub(res, s.Cost(c.deltaZ+Cell(ic)))
}

// AddCosts adds costs given for the variables u, v, w, which must be the scope of c in any order.
func (c *Ternary) AddCosts(u, v, w *Variable, costs []Cost) {
	if len(costs) != len(c.costs) {
		panic(fmt.Sprintf("wcsp: ternary constraint needs %d costs, got %d", len(c.costs), len(costs)))
	}
	sizes := []int{u.InitDomainSize(), v.InitDomainSize(), w.InitDomainSize()}
	pos := [3]int{c.Index(u), c.Index(v), c.Index(w)}
	if pos[0] < 0 || pos[1] < 0 || pos[2] < 0 || pos[0] == pos[1] || pos[0] == pos[2] || pos[1] == pos[2] {
		panic("wcsp: variables do not match the scope of the ternary constraint")
	}
	var idx [3]int
	for i := 0; i < sizes[0]; i++ {
		for j := 0; j < sizes[1]; j++ {
			for k := 0; k < sizes[2]; k++ {
				idx[pos[0]], idx[pos[1]], idx[pos[2]] = i, j, k
				off := c.offset(idx[0], idx[1], idx[2])
				c.costs[off] = Add(c.costs[off], costs[(i*sizes[1]+j)*sizes[2]+k])
			}
		}
	}
	c.resetTightness()
}

// project moves the minimum cost of each value of target to its unary cost.
// cost evaluates a tuple given in the (target, o1, o2) order.
func (c *Ternary) project(target, o1, o2 *Variable, delta Cell, cost func(a, b, d Value) Cost) error {
	s := c.pb.store
	var err error
	target.each(func(a Value) {
		if err != nil {
			return
		}
		minCost := MaxCost
		o1.each(func(b Value) {
			o2.each(func(d Value) {
				if cc := cost(a, b, d); cc < minCost {
					minCost = cc
				}
			})
		})
		if minCost > MinCost {
			cell := delta + Cell(target.index(a))
			s.SetCost(cell, Add(s.Cost(cell), minCost))
			err = target.Project(a, minCost)
		}
	})
	return err
}

func (c *Ternary) Propagate() error {
	if err := c.project(c.x, c.y, c.z, c.deltaX, c.Cost); err != nil {
		return err
	}
	err := c.project(c.y, c.x, c.z, c.deltaY, func(b, a, d Value) Cost { return c.Cost(a, b, d) })
	if err != nil {
		return err
	}
	return c.project(c.z, c.x, c.y, c.deltaZ, func(d, a, b Value) Cost { return c.Cost(a, b, d) })
}

func (c *Ternary) Assign(i int) error {
	if err := c.Propagate(); err != nil {
		return err
	}
	if allAssigned(c.x, c.y, c.z) {
		c.Deconnect()
	}
	return nil
}

func (c *Ternary) ComputeTightness() float64 {
	ub := c.pb.Ub()
	sum := 0.0
	for _, cost := range c.costs {
		sum += capped(cost, ub)
	}
	return sum / float64(len(c.costs))
}

func (c *Ternary) Tightness() float64 { return c.cachedTightness(c.ComputeTightness) }

func (c *Ternary) String() string {
	return fmt.Sprintf("ternary(%s, %s, %s)", c.x.name, c.y.name, c.z.name)
}
