package wcsp

import "fmt"

// A Variable is either enumerated (explicit domain with a unary cost per value)
// or interval (bounds only, no unary costs).
// Its domain state lives in the problem's Store, so it is restored on backtrack.
type Variable struct {
	pb         *Problem
	id         int
	name       string
	enumerated bool
	initInf    Value
	initSup    Value
	inf        Cell
	sup        Cell
	size       Cell
	removed    Cell // enumerated only: first of InitDomainSize() cells
	costs      Cell // enumerated only: first of InitDomainSize() cells
	support    Cell // enumerated only
	links      []link
	eliminated bool // projected out by preprocessing; its value is recovered in solutions
	// Propagation queue flags. They are not reversible: queues are emptied on contradiction.
	inNC     bool
	inAC     bool
	inAssign bool
}

// ID returns the index of v in its problem.
func (v *Variable) ID() int { return v.id }

// Name returns the name v was created with.
func (v *Variable) Name() string { return v.name }

// Enumerated is true iff v has an explicit domain with unary costs.
func (v *Variable) Enumerated() bool { return v.enumerated }

// Eliminated is true iff v was projected out of the problem during preprocessing.
func (v *Variable) Eliminated() bool { return v.eliminated }

// Inf returns the current lower bound of the domain.
func (v *Variable) Inf() Value { return Value(v.pb.store.Int(v.inf)) }

// Sup returns the current upper bound of the domain.
func (v *Variable) Sup() Value { return Value(v.pb.store.Int(v.sup)) }

// DomainSize returns the current number of values in the domain.
func (v *Variable) DomainSize() int { return int(v.pb.store.Int(v.size)) }

// InitDomainSize returns the number of values the domain was created with.
func (v *Variable) InitDomainSize() int { return int(v.initSup-v.initInf) + 1 }

// Assigned is true iff the domain is a singleton.
func (v *Variable) Assigned() bool { return v.Inf() == v.Sup() }

// Value returns the value of an assigned variable.
func (v *Variable) Value() Value {
	if !v.Assigned() {
		panic(fmt.Sprintf("wcsp: variable %s is not assigned", v.name))
	}
	return v.Inf()
}

// index returns the offset of a from the initial lower bound.
func (v *Variable) index(a Value) int { return int(a - v.initInf) }

// valueAt is the inverse of index.
func (v *Variable) valueAt(i int) Value { return v.initInf + Value(i) }

// CanBe is true iff a is in the current domain.
func (v *Variable) CanBe(a Value) bool {
	if a < v.Inf() || a > v.Sup() {
		return false
	}
	if !v.enumerated {
		return true
	}
	return !v.pb.store.Bool(v.removed + Cell(v.index(a)))
}

// Cost returns the current unary cost of a, or MinCost for interval variables.
func (v *Variable) Cost(a Value) Cost {
	if !v.enumerated {
		return MinCost
	}
	return v.pb.store.Cost(v.costs + Cell(v.index(a)))
}

func (v *Variable) setCost(a Value, c Cost) {
	v.pb.store.SetCost(v.costs+Cell(v.index(a)), c)
}

// Support returns a value believed to have a null unary cost.
func (v *Variable) Support() Value {
	if !v.enumerated {
		return v.Inf()
	}
	a := Value(v.pb.store.Int(v.support))
	if !v.CanBe(a) {
		return v.Inf()
	}
	return a
}

// Values returns the current domain, in increasing order.
func (v *Variable) Values() []Value {
	res := make([]Value, 0, v.DomainSize())
	v.each(func(a Value) {
		res = append(res, a)
	})
	return res
}

// each calls fn on each value of an enumerated domain, in increasing order.
func (v *Variable) each(fn func(a Value)) {
	sup := v.Sup()
	for a := v.Inf(); a <= sup; a++ {
		if v.CanBe(a) {
			fn(a)
		}
	}
}

// Degree returns the number of connected constraints of arity >= 2 involving v.
func (v *Variable) Degree() int {
	deg := 0
	for _, l := range v.links {
		if l.c.Arity() >= 2 && l.c.Connected() {
			deg++
		}
	}
	return deg
}

// WeightedDegree is like Degree, but each constraint counts for 1 + its conflict weight.
func (v *Variable) WeightedDegree() int64 {
	var deg int64
	for _, l := range v.links {
		if l.c.Arity() >= 2 && l.c.Connected() {
			deg += 1 + l.c.ConflictWeight()
		}
	}
	return deg
}

func (v *Variable) String() string {
	if v.Assigned() {
		return fmt.Sprintf("%s=%d", v.name, v.Value())
	}
	if !v.enumerated {
		return fmt.Sprintf("%s[%d,%d]", v.name, v.Inf(), v.Sup())
	}
	return fmt.Sprintf("%s%v", v.name, v.Values())
}

// Assign reduces the domain to {a}.
func (v *Variable) Assign(a Value) error {
	if !v.CanBe(a) {
		return ErrContradiction
	}
	if v.Assigned() {
		return nil
	}
	s := v.pb.store
	if v.enumerated {
		sup := v.Sup()
		for b := v.Inf(); b <= sup; b++ {
			if b != a {
				s.SetBool(v.removed+Cell(v.index(b)), true)
			}
		}
		s.SetInt(v.support, int64(a))
		v.pb.queueNC(v)
	}
	s.SetInt(v.inf, int64(a))
	s.SetInt(v.sup, int64(a))
	s.SetInt(v.size, 1)
	v.pb.queueAC(v)
	v.pb.queueAssign(v)
	return nil
}

// Remove removes a from the domain.
// Holes cannot be made in interval domains: a is only removed if it is a bound.
func (v *Variable) Remove(a Value) error {
	if !v.CanBe(a) {
		return nil
	}
	if !v.enumerated {
		switch a {
		case v.Inf():
			return v.Increase(a + 1)
		case v.Sup():
			return v.Decrease(a - 1)
		default:
			return nil
		}
	}
	s := v.pb.store
	size := v.DomainSize()
	if size == 1 {
		return ErrContradiction
	}
	s.SetBool(v.removed+Cell(v.index(a)), true)
	s.SetInt(v.size, int64(size-1))
	if a == v.Inf() {
		b := a + 1
		for !v.CanBe(b) {
			b++
		}
		s.SetInt(v.inf, int64(b))
	} else if a == v.Sup() {
		b := a - 1
		for !v.CanBe(b) {
			b--
		}
		s.SetInt(v.sup, int64(b))
	}
	v.pb.queueAC(v)
	if Value(s.Int(v.support)) == a {
		v.pb.queueNC(v)
	}
	if size-1 == 1 {
		v.pb.queueNC(v)
		v.pb.queueAssign(v)
	}
	return nil
}

// Increase removes all values strictly lower than newInf.
func (v *Variable) Increase(newInf Value) error {
	inf, sup := v.Inf(), v.Sup()
	if newInf <= inf {
		return nil
	}
	if newInf > sup {
		return ErrContradiction
	}
	if v.enumerated {
		for a := inf; a < newInf; a++ {
			if err := v.Remove(a); err != nil {
				return err
			}
		}
		return nil
	}
	s := v.pb.store
	s.SetInt(v.inf, int64(newInf))
	s.SetInt(v.size, int64(sup-newInf)+1)
	v.pb.queueAC(v)
	if newInf == sup {
		v.pb.queueAssign(v)
	}
	return nil
}

// Decrease removes all values strictly greater than newSup.
func (v *Variable) Decrease(newSup Value) error {
	inf, sup := v.Inf(), v.Sup()
	if newSup >= sup {
		return nil
	}
	if newSup < inf {
		return ErrContradiction
	}
	if v.enumerated {
		for a := sup; a > newSup; a-- {
			if err := v.Remove(a); err != nil {
				return err
			}
		}
		return nil
	}
	s := v.pb.store
	s.SetInt(v.sup, int64(newSup))
	s.SetInt(v.size, int64(newSup-inf)+1)
	v.pb.queueAC(v)
	if newSup == inf {
		v.pb.queueAssign(v)
	}
	return nil
}

// Project adds c to the unary cost of a.
// Values whose cost becomes too high are pruned by the next node consistency pass.
func (v *Variable) Project(a Value, c Cost) error {
	if !v.enumerated {
		panic(fmt.Sprintf("wcsp: cannot project a cost on interval variable %s", v.name))
	}
	if c == MinCost || !v.CanBe(a) {
		return nil
	}
	v.setCost(a, Add(v.Cost(a), c))
	v.pb.queueNC(v)
	return nil
}

// FindSupport moves the minimum unary cost of the domain to the problem lower bound,
// caches a value of null cost as the support, and removes every value whose cost
// would make the lower bound reach the upper bound.
func (v *Variable) FindSupport() error {
	if !v.enumerated {
		return nil
	}
	minCost := MaxCost
	var best Value
	found := false
	v.each(func(a Value) {
		if c := v.Cost(a); !found || c < minCost {
			minCost, best, found = c, a, true
		}
	})
	if minCost > MinCost {
		v.each(func(a Value) {
			v.setCost(a, Sub(v.Cost(a), minCost))
		})
		if err := v.pb.IncreaseLb(minCost); err != nil {
			return err
		}
	}
	v.pb.store.SetInt(v.support, int64(best))
	lb, ub := v.pb.Lb(), v.pb.Ub()
	sup := v.Sup()
	for a := v.Inf(); a <= sup; a++ {
		if v.CanBe(a) && Cut(Add(lb, v.Cost(a)), ub) {
			if err := v.Remove(a); err != nil {
				return err
			}
		}
	}
	return nil
}
