package wcsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DefaultEpsilon is the default tolerance when comparing variable scores:
// a variable has to be better by more than that to be preferred to an earlier one.
const DefaultEpsilon = 1. / 100001.

// Stats are statistics about the search.
type Stats struct {
	NbNodes      int64 // How many branches were explored
	NbBacktracks int64
	NbSolutions  int64 // How many times the upper bound was improved
}

// Options tune the search.
type Options struct {
	BinaryBranching  bool    // Branch on the support value, then refute it, instead of trying every value in turn
	ConflictWeighted bool    // Weight the degree of variables with the number of conflicts of their constraints
	Epsilon          float64 // Tolerance when comparing variable scores
	NodeLimit        int64   // Maximum number of nodes; 0 means no limit
}

// DefaultOptions returns the options used by New.
func DefaultOptions() Options {
	return Options{
		BinaryBranching: true,
		Epsilon:         DefaultEpsilon,
	}
}

// An Observer is notified of search events.
type Observer interface {
	Node(depth int)
	Backtrack()
	Solution(cost Cost)
}

// A Solver runs a depth-first branch and bound on a problem.
type Solver struct {
	Verbose  bool         // Indicates whether each choice point should be logged at the Info level. False by default
	Logger   *slog.Logger // Where search events are logged; nil means nowhere
	Observer Observer     // Optional
	Options  Options
	Stats    Stats // Statistics about the search.
	pb       *Problem
	status   Status
	best     []Value // Best solution found so far, indexed by variable id
	depth    int
	results  chan Result
	stop     chan struct{}
}

// New makes a solver for the given problem, with default options.
func New(pb *Problem) *Solver {
	return &Solver{pb: pb, Options: DefaultOptions()}
}

// Problem returns the problem s solves.
func (s *Solver) Problem() *Problem { return s.pb }

// Status returns the status of the last search.
func (s *Solver) Status() Status { return s.status }

// Ub returns the current upper bound, i.e the cost of the best solution found so far, if any.
func (s *Solver) Ub() Cost { return s.pb.Ub() }

// Lb returns the current lower bound.
func (s *Solver) Lb() Cost { return s.pb.Lb() }

// Propagate runs propagation on the current node until a fixpoint is reached.
func (s *Solver) Propagate() error { return s.pb.Propagate() }

func (s *Solver) logger() *slog.Logger {
	if s.Logger == nil {
		s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

// trace logs a choice point.
func (s *Solver) trace(msg string, v *Variable, a Value) {
	level := slog.LevelDebug
	if s.Verbose {
		level = slog.LevelInfo
	}
	l := s.logger()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, msg,
		"depth", s.depth,
		"var", v.name,
		"value", a,
		"lb", s.pb.Lb(),
		"ub", s.pb.Ub(),
	)
}

func (s *Solver) node() {
	s.Stats.NbNodes++
	if s.Observer != nil {
		s.Observer.Node(s.depth)
	}
}

func (s *Solver) backtrack() {
	s.Stats.NbBacktracks++
	if s.Observer != nil {
		s.Observer.Backtrack()
	}
}

// checkStop returns ErrStopped if the caller asked the search to stop.
func (s *Solver) checkStop() error {
	select {
	case <-s.stop:
		return ErrStopped
	default:
	}
	if s.Options.NodeLimit > 0 && s.Stats.NbNodes >= s.Options.NodeLimit {
		return ErrStopped
	}
	return nil
}

// selectVariable returns the unassigned variable with the smallest domain size
// divided by degree, or nil if every variable is assigned.
func (s *Solver) selectVariable() *Variable {
	var best *Variable
	var bestScore float64
	for _, v := range s.pb.searchOrder() {
		if v.Assigned() {
			continue
		}
		var deg float64
		if s.Options.ConflictWeighted {
			deg = float64(v.WeightedDegree())
		} else {
			deg = float64(v.Degree())
		}
		score := float64(v.DomainSize()) / (deg + 1)
		if best == nil || score < bestScore-s.Options.Epsilon {
			best, bestScore = v, score
		}
	}
	return best
}

func (s *Solver) recursiveSolve() error {
	if err := s.checkStop(); err != nil {
		return err
	}
	v := s.selectVariable()
	if v == nil {
		s.newSolution()
		return nil
	}
	if !v.enumerated {
		return s.binaryChoicePoint(v, v.Inf())
	}
	if s.Options.BinaryBranching {
		return s.binaryChoicePoint(v, v.Support())
	}
	return s.narySortedChoicePoint(v)
}

// binaryChoicePoint first tries v=a, then v!=a.
// A contradiction in the second branch is the caller's to handle.
func (s *Solver) binaryChoicePoint(v *Variable, a Value) error {
	st := s.pb.store
	s.depth++
	defer func() { s.depth-- }()
	d := st.Checkpoint()
	s.node()
	s.trace("try", v, a)
	err := v.Assign(a)
	if err == nil {
		err = s.pb.Propagate()
	}
	if err == nil {
		err = s.recursiveSolve()
	}
	s.pb.whenContradiction()
	st.Rollback(d)
	if err != nil && !errors.Is(err, ErrContradiction) {
		return err
	}
	s.backtrack()
	if err := s.pb.EnforceUb(); err != nil {
		return err
	}
	s.node()
	s.trace("refute", v, a)
	if err := v.Remove(a); err != nil {
		return err
	}
	if err := s.pb.Propagate(); err != nil {
		return err
	}
	return s.recursiveSolve()
}

// narySortedChoicePoint tries each value of v in turn, cheapest first.
func (s *Solver) narySortedChoicePoint(v *Variable) error {
	st := s.pb.store
	s.depth++
	defer func() { s.depth-- }()
	for _, a := range sortedValues(v) {
		d := st.Checkpoint()
		s.node()
		s.trace("try", v, a)
		err := s.pb.EnforceUb()
		if err == nil {
			err = v.Assign(a)
		}
		if err == nil {
			err = s.pb.Propagate()
		}
		if err == nil {
			err = s.recursiveSolve()
		}
		s.pb.whenContradiction()
		st.Rollback(d)
		if err != nil && !errors.Is(err, ErrContradiction) {
			return err
		}
	}
	s.backtrack()
	return nil
}

// newSolution is called when every variable is assigned: the lower bound is then the cost of the assignment.
func (s *Solver) newSolution() {
	cost := s.pb.Lb()
	if Cut(cost, s.pb.Ub()) {
		return
	}
	s.pb.UpdateUb(cost)
	s.best = s.pb.assignment()
	s.Stats.NbSolutions++
	s.logger().Info("new solution",
		"cost", cost,
		"nodes", s.Stats.NbNodes,
		"backtracks", s.Stats.NbBacktracks,
	)
	if s.Observer != nil {
		s.Observer.Solution(cost)
	}
	if s.results != nil {
		s.results <- Result{Status: Sat, Solution: s.Solution(), Cost: cost}
	}
}

// assignment returns the value of every variable, once every non-eliminated variable is assigned.
func (pb *Problem) assignment() []Value {
	sol := make([]Value, len(pb.vars))
	for i, v := range pb.vars {
		if !v.eliminated {
			sol[i] = v.Value()
		}
	}
	for i := len(pb.elims) - 1; i >= 0; i-- {
		e := &pb.elims[i]
		sol[e.x.id] = e.best(sol)
	}
	return sol
}

// Optimal looks for a solution of minimal cost, strictly below the initial upper bound of the problem.
// If results is non-nil, each improving solution will be written to it.
// In any case, results will be closed at the end of the call.
// The search state is restored when the method returns, but the upper bound keeps its new value.
func (s *Solver) Optimal(results chan Result, stop chan struct{}) (res Result) {
	if results != nil {
		defer close(results)
	}
	s.results, s.stop = results, stop
	defer func() { s.results, s.stop = nil, nil }()
	initUb := s.pb.Ub()
	st := s.pb.store
	d := st.Checkpoint()
	s.pb.queueAll()
	err := s.pb.Propagate()
	if err == nil {
		err = s.recursiveSolve()
	}
	s.pb.whenContradiction()
	st.Rollback(d)
	found := s.pb.Ub() < initUb
	switch {
	case errors.Is(err, ErrStopped):
		s.status = Indet
	case found:
		s.status = Sat
	default:
		s.status = Unsat
	}
	res.Status = s.status
	if found {
		res.Solution = s.Solution()
		res.Cost = s.pb.Ub()
	}
	s.logger().Info("search done",
		"status", s.status,
		"cost", s.pb.Ub(),
		"nodes", s.Stats.NbNodes,
		"backtracks", s.Stats.NbBacktracks,
	)
	return res
}

// Solve looks for an optimal solution and returns whether a solution was found, and its cost.
func (s *Solver) Solve() (bool, Cost) {
	res := s.Optimal(nil, nil)
	return res.Solution != nil, s.pb.Ub()
}

// Solution returns the best solution found, indexed by variable id.
// If no solution was found, the method will panic.
func (s *Solver) Solution() []Value {
	if s.best == nil {
		panic("cannot call Solution() from a solver without solution")
	}
	res := make([]Value, len(s.best))
	copy(res, s.best)
	return res
}

// OutputSolution writes the status of the last search and the best solution found, if any.
func (s *Solver) OutputSolution(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "s %s\n", s.status)
	if s.best != nil {
		fmt.Fprintf(&sb, "o %v\nv", s.pb.Ub())
		for _, a := range s.best {
			fmt.Fprintf(&sb, " %d", a)
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
