package wcsp

import (
	"fmt"
	"sort"
	"strings"
)

// A Problem is a set of variables and cost functions, together with the
// bounds of the optimization: the lower bound lb is the cost every solution
// below the current node has to pay, and the upper bound ub is the cost of the
// best solution found so far (or the initial bound).
type Problem struct {
	Name    string
	store   *Store
	vars    []*Variable
	constrs []Constraint
	unaries []*Unary
	lb      Cell
	ub      Cost
	order   []*Variable // search order, eliminated variables excluded
	sorted  []Constraint
	elims   []elimination
	// Propagation queues.
	assignQueue []*Variable
	acQueue     []*Variable
	ncQueue     []*Variable
	lbChanged   bool
}

// NewProblem returns an empty problem with the given initial upper bound.
func NewProblem(name string, ub Cost) *Problem {
	pb := &Problem{Name: name, store: NewStore(), ub: ub}
	pb.lb = pb.store.NewCell(0)
	return pb
}

// Store returns the reversible store of the problem.
func (pb *Problem) Store() *Store { return pb.store }

// NbVars returns the number of variables.
func (pb *Problem) NbVars() int { return len(pb.vars) }

// Var returns the variable with the given id.
func (pb *Problem) Var(id int) *Variable { return pb.vars[id] }

// NbConstraints returns the number of constraints, including the ones created for arity reduction.
func (pb *Problem) NbConstraints() int { return len(pb.constrs) }

// Constraint returns the constraint with the given id.
func (pb *Problem) Constraint(id int) Constraint { return pb.constrs[id] }

// Nary returns the n-ary constraint with the given id.
func (pb *Problem) Nary(id int) *Nary {
	c, ok := pb.constrs[id].(*Nary)
	if !ok {
		panic(fmt.Sprintf("wcsp: constraint %d is not an n-ary constraint", id))
	}
	return c
}

// Lb returns the current lower bound.
func (pb *Problem) Lb() Cost { return pb.store.Cost(pb.lb) }

// Ub returns the current upper bound.
func (pb *Problem) Ub() Cost { return pb.ub }

// UpdateUb lowers the upper bound to c if c is better.
func (pb *Problem) UpdateUb(c Cost) {
	if c < pb.ub {
		pb.ub = c
	}
}

// IncreaseLb adds c to the lower bound.
// It returns ErrContradiction if the lower bound reaches the upper bound.
func (pb *Problem) IncreaseLb(c Cost) error {
	if c == MinCost {
		return nil
	}
	lb := Add(pb.Lb(), c)
	pb.store.SetCost(pb.lb, lb)
	pb.lbChanged = true
	if Cut(lb, pb.ub) {
		return ErrContradiction
	}
	return nil
}

// EnforceUb fails if the current node cannot improve the upper bound, and
// otherwise makes the next propagation prune values with respect to the current upper bound.
func (pb *Problem) EnforceUb() error {
	if Cut(pb.Lb(), pb.ub) {
		return ErrContradiction
	}
	pb.lbChanged = true
	return nil
}

func (pb *Problem) checkDomain(name string, lo, hi Value) {
	if hi < lo {
		panic(fmt.Sprintf("wcsp: empty domain [%d,%d] for variable %s", lo, hi, name))
	}
}

func (pb *Problem) newVariable(name string, lo, hi Value, enumerated bool) *Variable {
	s := pb.store
	v := &Variable{
		pb:         pb,
		id:         len(pb.vars),
		name:       name,
		enumerated: enumerated,
		initInf:    lo,
		initSup:    hi,
		inf:        s.NewCell(int64(lo)),
		sup:        s.NewCell(int64(hi)),
		size:       s.NewCell(int64(hi-lo) + 1),
	}
	if enumerated {
		size := v.InitDomainSize()
		v.removed = s.NewCells(size, 0)
		v.costs = s.NewCells(size, 0)
		v.support = s.NewCell(int64(lo))
	}
	pb.vars = append(pb.vars, v)
	pb.order = nil
	return v
}

// MakeEnumeratedVariable adds a variable with domain [lo, hi] and returns its id.
func (pb *Problem) MakeEnumeratedVariable(name string, lo, hi Value) int {
	pb.checkDomain(name, lo, hi)
	if int(hi-lo)+1 > MaxDomainSize {
		panic(fmt.Sprintf("wcsp: domain of %s is too large (%d values, max is %d)", name, int(hi-lo)+1, MaxDomainSize))
	}
	return pb.newVariable(name, lo, hi, true).id
}

// MakeIntervalVariable adds a variable with domain [lo, hi] that only supports bound reductions.
func (pb *Problem) MakeIntervalVariable(name string, lo, hi Value) int {
	pb.checkDomain(name, lo, hi)
	return pb.newVariable(name, lo, hi, false).id
}

// PostUnaryConstraint adds costs to the unary costs of an enumerated variable.
// costs is indexed by value offset from the initial lower bound.
func (pb *Problem) PostUnaryConstraint(id int, costs []Cost) {
	v := pb.vars[id]
	if !v.enumerated {
		panic(fmt.Sprintf("wcsp: cannot post unary costs on interval variable %s", v.name))
	}
	if len(costs) != v.InitDomainSize() {
		panic(fmt.Sprintf("wcsp: variable %s needs %d unary costs, got %d", v.name, v.InitDomainSize(), len(costs)))
	}
	for i, c := range costs {
		a := v.valueAt(i)
		v.setCost(a, Add(v.Cost(a), c))
	}
	pb.queueNC(v)
}

// PostUnary adds a constraint that costs penalty when v is assigned outside permitted.
func (pb *Problem) PostUnary(id int, permitted []Value, penalty Cost) int {
	c := newUnary(pb, pb.vars[id], permitted, penalty)
	pb.constrs = append(pb.constrs, c)
	pb.unaries = append(pb.unaries, c)
	return c.id
}

// PostBinaryConstraint adds a cost table over x and y, indexed by offsets: costs[a*|dom(y)|+b].
// If a table already exists over the same variables, costs are added to it and its id is returned.
func (pb *Problem) PostBinaryConstraint(x, y int, costs []Cost) int {
	vx, vy := pb.vars[x], pb.vars[y]
	for _, l := range vx.links {
		if b, ok := l.c.(*Binary); ok && !b.reduction && b.Index(vy) >= 0 {
			b.AddCosts(vx, vy, costs)
			return b.id
		}
	}
	c := newBinary(pb, vx, vy, costs, true)
	pb.constrs = append(pb.constrs, c)
	return c.id
}

// PostTernaryConstraint adds a cost table over x, y and z, indexed by offsets:
// costs[(a*|dom(y)|+b)*|dom(z)|+c].
// If a table already exists over the same variables, costs are added to it and its id is returned.
func (pb *Problem) PostTernaryConstraint(x, y, z int, costs []Cost) int {
	vx, vy, vz := pb.vars[x], pb.vars[y], pb.vars[z]
	for _, l := range vx.links {
		if t, ok := l.c.(*Ternary); ok && t.Index(vy) >= 0 && t.Index(vz) >= 0 {
			t.AddCosts(vx, vy, vz, costs)
			return t.id
		}
	}
	c := newTernary(pb, vx, vy, vz, costs)
	pb.constrs = append(pb.constrs, c)
	return c.id
}

// PostNaryConstraint adds an n-ary constraint whose tuples all cost defCost.
// Tuples are then set with Nary(id).SetTuple.
func (pb *Problem) PostNaryConstraint(scope []int, defCost Cost) int {
	vars := make([]*Variable, len(scope))
	for i, id := range scope {
		vars[i] = pb.vars[id]
	}
	c := newNary(pb, vars, defCost)
	pb.constrs = append(pb.constrs, c)
	return c.id
}

// SortVariables sorts the constraints of each variable, small arities first,
// and computes the order in which variables are considered by the search.
// It must be called again after preprocessing.
func (pb *Problem) SortVariables() {
	pb.order = pb.order[:0]
	for _, v := range pb.vars {
		v.sortLinks()
		if !v.eliminated {
			pb.order = append(pb.order, v)
		}
	}
}

// searchOrder returns the variables the search has to assign.
func (pb *Problem) searchOrder() []*Variable {
	if pb.order == nil {
		pb.SortVariables()
	}
	return pb.order
}

// SortConstraints computes the tightness of every constraint and sorts them, tightest first.
func (pb *Problem) SortConstraints() {
	pb.sorted = pb.sorted[:0]
	for _, c := range pb.constrs {
		c.Tightness()
		pb.sorted = append(pb.sorted, c)
	}
	sort.SliceStable(pb.sorted, func(i, j int) bool {
		return pb.sorted[i].Tightness() > pb.sorted[j].Tightness()
	})
}

// SortedConstraints returns the constraints, tightest first, as computed by the last call to SortConstraints.
func (pb *Problem) SortedConstraints() []Constraint {
	res := make([]Constraint, len(pb.sorted))
	copy(res, pb.sorted)
	return res
}

// Cost returns the cost of a complete assignment, given for every variable, eliminated ones included.
// It only uses the constraints as they were posted and the unary costs the search started with,
// so it must be called before Solve.
func (pb *Problem) Cost(sol []Value) Cost {
	if len(sol) != len(pb.vars) {
		panic(fmt.Sprintf("wcsp: assignment of length %d for %d variables", len(sol), len(pb.vars)))
	}
	res := pb.Lb()
	for i, v := range pb.vars {
		res = Add(res, v.Cost(sol[i]))
	}
	for _, c := range pb.constrs {
		if !c.Connected() {
			continue
		}
		switch c := c.(type) {
		case *Unary:
			if !c.Permits(sol[c.x.id]) {
				res = Add(res, c.penalty)
			}
		case *Binary:
			res = Add(res, c.InitialCost(sol[c.x.id], sol[c.y.id]))
		case *Ternary:
			ia, ib, ic := c.x.index(sol[c.x.id]), c.y.index(sol[c.y.id]), c.z.index(sol[c.z.id])
			res = Add(res, c.costs[c.offset(ia, ib, ic)])
		case *Nary:
			t := make(Tuple, len(c.scope))
			for i, v := range c.scope {
				t[i] = v.index(sol[v.id])
			}
			res = Add(res, c.Eval(t))
		}
	}
	return res
}

// String returns a human-readable description of the problem.
func (pb *Problem) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "problem %q: %d variables, %d constraints, lb=%v, ub=%v\n", pb.Name, len(pb.vars), len(pb.constrs), pb.Lb(), pb.ub)
	for _, v := range pb.vars {
		fmt.Fprintf(&sb, "%v\n", v)
	}
	for _, c := range pb.constrs {
		if c.Connected() {
			fmt.Fprintf(&sb, "%v\n", c)
		}
	}
	return sb.String()
}
