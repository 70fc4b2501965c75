package wcsp

import "fmt"

// Binary is a cost table over two enumerated variables.
// The table is sized to the initial domains; the costs already moved to the unary
// costs of x and y are kept in reversible deltas, so the current cost of (a, b) is
// costs[a][b] - deltaX[a] - deltaY[b].
type Binary struct {
	constraintBase
	x, y      *Variable
	sizeX     int
	sizeY     int
	costs     []Cost // costs[ia*sizeY+ib]
	deltaX    Cell
	deltaY    Cell
	reduction bool // true for the constraints n-ary constraints are reduced to
}

func newBinary(pb *Problem, x, y *Variable, costs []Cost, connected bool) *Binary {
	if x == y {
		panic(fmt.Sprintf("wcsp: binary constraint over twice the same variable %s", x.name))
	}
	if !x.enumerated || !y.enumerated {
		panic("wcsp: binary constraints require enumerated variables")
	}
	sx, sy := x.InitDomainSize(), y.InitDomainSize()
	if costs != nil && len(costs) != sx*sy {
		panic(fmt.Sprintf("wcsp: binary constraint over %s and %s needs %d costs, got %d", x.name, y.name, sx*sy, len(costs)))
	}
	tab := make([]Cost, sx*sy)
	copy(tab, costs)
	c := &Binary{
		constraintBase: newConstraintBase(pb, connected),
		x:              x,
		y:              y,
		sizeX:          sx,
		sizeY:          sy,
		costs:          tab,
		deltaX:         pb.store.NewCells(sx, 0),
		deltaY:         pb.store.NewCells(sy, 0),
	}
	x.addLink(c, 0)
	y.addLink(c, 1)
	return c
}

func (c *Binary) Arity() int { return 2 }

func (c *Binary) Var(i int) *Variable {
	switch i {
	case 0:
		return c.x
	case 1:
		return c.y
	default:
		panic(fmt.Sprintf("wcsp: invalid position %d in binary constraint", i))
	}
}

func (c *Binary) Index(v *Variable) int {
	switch v {
	case c.x:
		return 0
	case c.y:
		return 1
	default:
		return -1
	}
}

// Cost returns the current cost of (a, b), once the projected costs are removed.
func (c *Binary) Cost(a, b Value) Cost {
	ia, ib := c.x.index(a), c.y.index(b)
	s := c.pb.store
	res := Sub(c.costs[ia*c.sizeY+ib], s.Cost(c.deltaX+Cell(ia)))
	return Sub(res, s.Cost(c.deltaY+Cell(ib)))
}

// InitialCost returns the cost of (a, b) as it was posted.
func (c *Binary) InitialCost(a, b Value) Cost {
	return c.costs[c.x.index(a)*c.sizeY+c.y.index(b)]
}

// AddCosts adds costs to the table. Costs are given for the variables u and v,
// which must be the scope of c, in any order.
func (c *Binary) AddCosts(u, v *Variable, costs []Cost) {
	if len(costs) != len(c.costs) {
		panic(fmt.Sprintf("wcsp: binary constraint needs %d costs, got %d", len(c.costs), len(costs)))
	}
	switch {
	case u == c.x && v == c.y:
		for i, cost := range costs {
			c.costs[i] = Add(c.costs[i], cost)
		}
	case u == c.y && v == c.x:
		for ib := 0; ib < c.sizeY; ib++ {
			for ia := 0; ia < c.sizeX; ia++ {
				i := ia*c.sizeY + ib
				c.costs[i] = Add(c.costs[i], costs[ib*c.sizeX+ia])
			}
		}
	default:
		panic("wcsp: variables do not match the scope of the binary constraint")
	}
	c.resetTightness()
}

// fill resets the table with the costs given by fn on the current domains and clears the deltas.
// Values outside the current domains are left untouched: they are never read again on this branch.
func (c *Binary) fill(fn func(a, b Value) Cost) {
	s := c.pb.store
	c.x.each(func(a Value) {
		ia := c.x.index(a)
		s.SetCost(c.deltaX+Cell(ia), MinCost)
		c.y.each(func(b Value) {
			c.costs[ia*c.sizeY+c.y.index(b)] = fn(a, b)
		})
	})
	c.y.each(func(b Value) {
		s.SetCost(c.deltaY+Cell(c.y.index(b)), MinCost)
	})
	c.resetTightness()
}

// projectX moves, for each value of x, the minimum cost over y to the unary cost of x.
func (c *Binary) projectX() error {
	s := c.pb.store
	var err error
	c.x.each(func(a Value) {
		if err != nil {
			return
		}
		minCost := MaxCost
		c.y.each(func(b Value) {
			if cost := c.Cost(a, b); cost < minCost {
				minCost = cost
			}
		})
		if minCost > MinCost {
			d := c.deltaX + Cell(c.x.index(a))
			s.SetCost(d, Add(s.Cost(d), minCost))
			err = c.x.Project(a, minCost)
		}
	})
	return err
}

// projectY is the symmetric of projectX.
func (c *Binary) projectY() error {
	s := c.pb.store
	var err error
	c.y.each(func(b Value) {
		if err != nil {
			return
		}
		minCost := MaxCost
		c.x.each(func(a Value) {
			if cost := c.Cost(a, b); cost < minCost {
				minCost = cost
			}
		})
		if minCost > MinCost {
			d := c.deltaY + Cell(c.y.index(b))
			s.SetCost(d, Add(s.Cost(d), minCost))
			err = c.y.Project(b, minCost)
		}
	})
	return err
}

func (c *Binary) Propagate() error {
	if err := c.projectX(); err != nil {
		return err
	}
	return c.projectY()
}

func (c *Binary) Assign(i int) error {
	if err := c.Propagate(); err != nil {
		return err
	}
	if allAssigned(c.x, c.y) {
		c.Deconnect()
	}
	return nil
}

func (c *Binary) ComputeTightness() float64 {
	ub := c.pb.Ub()
	sum := 0.0
	for _, cost := range c.costs {
		sum += capped(cost, ub)
	}
	return sum / float64(len(c.costs))
}

func (c *Binary) Tightness() float64 { return c.cachedTightness(c.ComputeTightness) }

func (c *Binary) String() string {
	return fmt.Sprintf("binary(%s, %s)", c.x.name, c.y.name)
}
