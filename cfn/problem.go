package cfn

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/crillab/gowcsp/wcsp"
)

var (
	// ErrUnknownVar is returned when a constraint uses a variable that was never declared.
	ErrUnknownVar = errors.New("cfn: unknown variable")
	// ErrDuplicateVar is returned when a variable is declared twice, or appears twice in a constraint.
	ErrDuplicateVar = errors.New("cfn: duplicate variable")
	// ErrEmptyDomain is returned when a variable is declared without any value.
	ErrEmptyDomain = errors.New("cfn: empty domain")
	// ErrBadTuple is returned when a tuple does not fit the scope of its constraint.
	ErrBadTuple = errors.New("cfn: invalid tuple")
)

// A Model associates variable names with values.
type Model map[string]wcsp.Value

// A Result is the result of a search on named variables.
type Result struct {
	Status wcsp.Status
	Model  Model
	Cost   wcsp.Cost
}

type variable struct {
	name   string
	lo, hi wcsp.Value
	values map[wcsp.Value]bool
}

func (v *variable) size() int { return int(v.hi-v.lo) + 1 }

// A Problem is a weighted constraint problem over named variables.
// The underlying wcsp.Problem is built again each time the problem is solved,
// so variables and constraints can still be added between two searches.
type Problem struct {
	Name       string
	Ub         wcsp.Cost // Solutions must cost strictly less than Ub. wcsp.MaxCost by default
	Options    wcsp.Options
	Preprocess wcsp.PreprocessOptions
	Logger     *slog.Logger
	Observer   wcsp.Observer
	verbose    bool
	vars       []*variable
	index      map[string]int
	constrs    []Constr
	solver     *wcsp.Solver
}

// New returns a new, empty problem.
func New(name string) *Problem {
	return &Problem{
		Name:    name,
		Ub:      wcsp.MaxCost,
		Options: wcsp.DefaultOptions(),
		index:   make(map[string]int),
	}
}

// SetVerbose makes the solver log every choice point.
func (pb *Problem) SetVerbose(verbose bool) {
	pb.verbose = verbose
}

// AddVar declares a variable that can take any of the given values.
func (pb *Problem) AddVar(name string, values ...wcsp.Value) error {
	if _, ok := pb.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateVar, name)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyDomain, name)
	}
	v := &variable{name: name, lo: values[0], hi: values[0], values: make(map[wcsp.Value]bool, len(values))}
	for _, val := range values {
		v.values[val] = true
		if val < v.lo {
			v.lo = val
		}
		if val > v.hi {
			v.hi = val
		}
	}
	if v.size() > wcsp.MaxDomainSize {
		return fmt.Errorf("cfn: domain of %q is too large (%d values)", name, v.size())
	}
	pb.index[name] = len(pb.vars)
	pb.vars = append(pb.vars, v)
	return nil
}

// AddRange declares a variable whose domain is [lo, hi].
func (pb *Problem) AddRange(name string, lo, hi wcsp.Value) error {
	if lo > hi {
		return fmt.Errorf("%w: %q", ErrEmptyDomain, name)
	}
	values := make([]wcsp.Value, 0, int(hi-lo)+1)
	for val := lo; val <= hi; val++ {
		values = append(values, val)
	}
	return pb.AddVar(name, values...)
}

// Vars returns the names of the variables, in declaration order.
func (pb *Problem) Vars() []string {
	res := make([]string, len(pb.vars))
	for i, v := range pb.vars {
		res[i] = v.name
	}
	return res
}

// Add adds the given constraint to the problem.
func (pb *Problem) Add(c Constr) error {
	if len(c.Vars) == 0 {
		return fmt.Errorf("%w: constraint has no variable", ErrBadTuple)
	}
	if len(c.Tuples) != len(c.Costs) {
		return fmt.Errorf("%w: %d tuples but %d costs", ErrBadTuple, len(c.Tuples), len(c.Costs))
	}
	seen := make(map[string]bool, len(c.Vars))
	for _, name := range c.Vars {
		if _, ok := pb.index[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVar, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %q appears twice in a constraint", ErrDuplicateVar, name)
		}
		seen[name] = true
	}
	for i, t := range c.Tuples {
		if len(t) != len(c.Vars) {
			return fmt.Errorf("%w: %v has %d values, %d expected", ErrBadTuple, t, len(t), len(c.Vars))
		}
		for j, val := range t {
			if v := pb.vars[pb.index[c.Vars[j]]]; !v.values[val] {
				return fmt.Errorf("%w: %v is not a value of %q", ErrBadTuple, val, v.name)
			}
		}
		if c.Costs[i] < 0 {
			return fmt.Errorf("%w: negative cost %v", ErrBadTuple, c.Costs[i])
		}
	}
	if c.Default < 0 {
		return fmt.Errorf("%w: negative default cost %v", ErrBadTuple, c.Default)
	}
	pb.constrs = append(pb.constrs, c)
	return nil
}

// Problem builds the underlying wcsp problem.
// Variable i of the result is the i-th declared variable.
func (pb *Problem) Problem() *wcsp.Problem {
	res := wcsp.NewProblem(pb.Name, pb.Ub)
	for _, v := range pb.vars {
		id := res.MakeEnumeratedVariable(v.name, v.lo, v.hi)
		if len(v.values) == v.size() {
			continue
		}
		holes := make([]wcsp.Cost, v.size())
		for i := range holes {
			if !v.values[v.lo+wcsp.Value(i)] {
				holes[i] = wcsp.MaxCost
			}
		}
		res.PostUnaryConstraint(id, holes)
	}
	for _, c := range pb.constrs {
		pb.post(res, c)
	}
	res.SortVariables()
	res.SortConstraints()
	return res
}

// dense returns the full cost table of c, indexed by offsets, the first variable being the most significant.
func (pb *Problem) dense(c Constr, scope []*variable) []wcsp.Cost {
	size := 1
	for _, v := range scope {
		size *= v.size()
	}
	costs := make([]wcsp.Cost, size)
	for i := range costs {
		costs[i] = c.Default
	}
	for i, t := range c.Tuples {
		offset := 0
		for j, v := range scope {
			offset = offset*v.size() + int(t[j]-v.lo)
		}
		costs[offset] = c.Costs[i]
	}
	return costs
}

func (pb *Problem) post(res *wcsp.Problem, c Constr) {
	ids := make([]int, len(c.Vars))
	scope := make([]*variable, len(c.Vars))
	for i, name := range c.Vars {
		ids[i] = pb.index[name]
		scope[i] = pb.vars[ids[i]]
	}
	switch len(ids) {
	case 1:
		res.PostUnaryConstraint(ids[0], pb.dense(c, scope))
	case 2:
		res.PostBinaryConstraint(ids[0], ids[1], pb.dense(c, scope))
	case 3:
		res.PostTernaryConstraint(ids[0], ids[1], ids[2], pb.dense(c, scope))
	default:
		nary := res.Nary(res.PostNaryConstraint(ids, c.Default))
		for i, t := range c.Tuples {
			tuple := make(wcsp.Tuple, len(t))
			for j, val := range t {
				tuple[j] = int(val - scope[j].lo)
			}
			nary.SetTuple(tuple, c.Costs[i])
		}
	}
}

func (pb *Problem) newSolver() *wcsp.Solver {
	wpb := pb.Problem()
	if merged, eliminated := wpb.Preprocess(pb.Preprocess); merged+eliminated > 0 && pb.Logger != nil {
		pb.Logger.Info("preprocessing done", "merged", merged, "eliminated", eliminated)
	}
	s := wcsp.New(wpb)
	s.Options = pb.Options
	s.Verbose = pb.verbose
	s.Logger = pb.Logger
	s.Observer = pb.Observer
	pb.solver = s
	return s
}

// Solver returns the solver used by the last search, or nil if no search was run yet.
func (pb *Problem) Solver() *wcsp.Solver {
	return pb.solver
}

func (pb *Problem) model(sol []wcsp.Value) Model {
	if sol == nil {
		return nil
	}
	res := make(Model, len(pb.vars))
	for i, v := range pb.vars {
		res[v.name] = sol[i]
	}
	return res
}

// Solve returns an optimal model and its cost.
// If the problem has no solution below Ub, the returned model is nil.
func (pb *Problem) Solve() (Model, wcsp.Cost) {
	res := pb.Optimal(nil, nil)
	return res.Model, res.Cost
}

// Optimal looks for an optimal model.
// If results is non-nil, each improving model is written to it, and it is closed before the method returns.
// If data is sent to stop, the search may end prematurely, with the Indet status.
func (pb *Problem) Optimal(results chan Result, stop chan struct{}) Result {
	s := pb.newSolver()
	var localRes chan wcsp.Result
	done := make(chan struct{})
	if results != nil {
		localRes = make(chan wcsp.Result)
		go func() {
			defer close(done)
			defer close(results)
			for res := range localRes {
				results <- pb.result(res)
			}
		}()
	} else {
		close(done)
	}
	res := s.Optimal(localRes, stop)
	<-done
	return pb.result(res)
}

func (pb *Problem) result(res wcsp.Result) Result {
	r := Result{Status: res.Status, Model: pb.model(res.Solution), Cost: res.Cost}
	if r.Model == nil {
		r.Cost = wcsp.MaxCost
	}
	return r
}

// Cost returns the cost of m with respect to the constraints of pb.
// Values absent from a variable's domain cost wcsp.MaxCost.
func (pb *Problem) Cost(m Model) wcsp.Cost {
	cost := wcsp.MinCost
	for _, v := range pb.vars {
		if !v.values[m[v.name]] {
			return wcsp.MaxCost
		}
	}
	vals := make([]wcsp.Value, 0, 4)
	for _, c := range pb.constrs {
		vals = vals[:0]
		for _, name := range c.Vars {
			vals = append(vals, m[name])
		}
		cost = wcsp.Add(cost, c.Cost(vals...))
	}
	return cost
}

// String returns a human-readable description of the problem.
func (pb *Problem) String() string {
	res := fmt.Sprintf("problem %s: %d vars, %d constraints\n", pb.Name, len(pb.vars), len(pb.constrs))
	for _, v := range pb.vars {
		values := make([]int, 0, len(v.values))
		for val := range v.values {
			values = append(values, int(val))
		}
		sort.Ints(values)
		res += fmt.Sprintf("%s: %v\n", v.name, values)
	}
	for _, c := range pb.constrs {
		res += c.String() + "\n"
	}
	return res
}
