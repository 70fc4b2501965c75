package wcsp

// Constraint is a cost function over an ordered scope of variables.
// Constraints only ever tighten the problem: they remove values and
// move costs towards unary costs and the problem lower bound.
type Constraint interface {
	// ID returns the index of the constraint in its problem.
	ID() int
	Arity() int
	// Var returns the variable at position i of the scope.
	Var(i int) *Variable
	// Index returns the position of v in the scope, or -1.
	Index(v *Variable) int
	// Connected is true iff the constraint still takes part in propagation.
	Connected() bool
	Deconnect()
	Reconnect()
	// Propagate enforces the local consistency of the constraint.
	// Calling it twice in a row without any domain change in between has no effect.
	Propagate() error
	// Assign is called when the variable at position i becomes assigned.
	Assign(i int) error
	// ComputeTightness returns the average cost of a tuple, capped at the upper bound.
	ComputeTightness() float64
	// Tightness returns a cached value of ComputeTightness.
	Tightness() float64
	ConflictWeight() int64
	incConflictWeight()
}

// constraintBase holds the state shared by every kind of constraint.
type constraintBase struct {
	pb             *Problem
	id             int
	connected      Cell
	conflictWeight int64
	tight          float64 // < 0 when not computed yet
}

func newConstraintBase(pb *Problem, connected bool) constraintBase {
	var val int64
	if connected {
		val = 1
	}
	return constraintBase{
		pb:        pb,
		id:        len(pb.constrs),
		connected: pb.store.NewCell(val),
		tight:     -1,
	}
}

func (c *constraintBase) ID() int { return c.id }

func (c *constraintBase) Connected() bool { return c.pb.store.Bool(c.connected) }

func (c *constraintBase) Deconnect() { c.pb.store.SetBool(c.connected, false) }

func (c *constraintBase) Reconnect() { c.pb.store.SetBool(c.connected, true) }

func (c *constraintBase) ConflictWeight() int64 { return c.conflictWeight }

func (c *constraintBase) incConflictWeight() { c.conflictWeight++ }

func (c *constraintBase) resetTightness() { c.tight = -1 }

// cachedTightness returns the tightness of c, computing it if needed.
func (c *constraintBase) cachedTightness(compute func() float64) float64 {
	if c.tight < 0 {
		c.tight = compute()
	}
	return c.tight
}

// capped returns c as a float, capped at ub.
func capped(c, ub Cost) float64 {
	if c > ub {
		return float64(ub)
	}
	return float64(c)
}

// allAssigned is true iff every variable in vars is assigned.
func allAssigned(vars ...*Variable) bool {
	for _, v := range vars {
		if !v.Assigned() {
			return false
		}
	}
	return true
}
