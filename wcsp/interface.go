package wcsp

// A Result is a status, either Sat, Unsat or Indet.
// If a solution was found, the Result also holds the best one and its cost.
// Solution is indexed by variable id.
type Result struct {
	Status   Status
	Solution []Value
	Cost     Cost
}

// Interface is any type implementing a solver.
// The basic Solver defined in this package implements it.
// Any solver built on top of it (for instance one working on named variables) can implement it, too.
type Interface interface {
	// Optimal optimizes the problem and returns the best result.
	// If the results chan is non nil, it will write the associated solution each time a better one is found.
	// The last solution, if any, will be returned with the Sat status once proven optimal.
	// If no solution at all could be found, the Unsat status will be returned.
	// If the solver prematurely stopped, the Indet status will be returned, with the best solution found so far, if any.
	// If data is sent to stop, the method may stop prematurely.
	// In any case, results will be closed before the function returns.
	Optimal(results chan Result, stop chan struct{}) Result
}
