package wcsp

import (
	"errors"
	"math"
	"strconv"
)

// Describes basic types and constants that are used in the solver

// Status is the status of a given problem or search at a given moment.
type Status byte

const (
	// Indet means the problem is not proven optimal or infeasible yet.
	Indet = Status(iota)
	// Sat means a solution was found and proven optimal.
	Sat
	// Unsat means no assignment has a cost below the initial upper bound.
	Unsat
)

func (s Status) String() string {
	switch s {
	case Indet:
		return "INDETERMINATE"
	case Sat:
		return "OPTIMUM"
	case Unsat:
		return "UNSATISFIABLE"
	default:
		panic("invalid status")
	}
}

// Cost is a non-negative cost. MaxCost means "forbidden".
type Cost int64

const (
	// MinCost is the neutral cost.
	MinCost Cost = 0
	// MaxCost is the infeasible cost. Arithmetic saturates at this value.
	MaxCost Cost = math.MaxInt64 / 4
)

// Add returns a+b, capped at MaxCost.
func Add(a, b Cost) Cost {
	if a >= MaxCost || b >= MaxCost || a >= MaxCost-b {
		return MaxCost
	}
	return a + b
}

// Sub returns a-b. MaxCost is absorbing and results never go below MinCost.
func Sub(a, b Cost) Cost {
	if a >= MaxCost {
		return MaxCost
	}
	if b >= a {
		return MinCost
	}
	return a - b
}

// Cut is true iff lb reaches ub, i.e the current node cannot improve the incumbent.
func Cut(lb, ub Cost) bool {
	return lb >= ub
}

func (c Cost) String() string {
	if c >= MaxCost {
		return "inf"
	}
	return strconv.FormatInt(int64(c), 10)
}

// Value is a domain element.
type Value int

// MaxDomainSize is the largest supported enumerated domain.
// Tuples encode value indexes on 16 bits.
const MaxDomainSize = 1 << 16

var (
	// ErrContradiction is returned when the current node is infeasible or cannot improve the upper bound.
	// It is caught by the nearest choice point.
	ErrContradiction = errors.New("wcsp: contradiction")
	// ErrStopped is returned when the search was interrupted by the caller.
	ErrStopped = errors.New("wcsp: search stopped")
)
