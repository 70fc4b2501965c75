// Package cfn provides a modeling layer on top of the wcsp solver.
// It allows the user to describe cost function networks with named variables and constraints
// given as tables of tuples, instead of dense cost arrays indexed by value offsets.
//
// Definition
//
// A cost function network is a set of variables, each with a finite domain, and a set of cost functions.
// Each cost function gives a non-negative cost to each combination of values of the variables it covers.
// A combination whose cost is wcsp.MaxCost is forbidden: such constraints are called *hard constraints*,
// the other ones being *soft constraints*.
//
// The solver looks for an assignment of all variables minimizing the sum of all costs.
// Note that the traditional CSP decision problem is a special case where all constraints are hard.
//
// Describing a problem
//
// Variables are declared with AddVar or AddRange, then constraints are added with Add:
//
//	pb := cfn.New("example")
//	pb.AddRange("x", 0, 2)
//	pb.AddRange("y", 0, 2)
//	pb.Add(cfn.Forbid([]string{"x", "y"}, []wcsp.Value{1, 1}))
//	pb.Add(cfn.Unary("x", map[wcsp.Value]wcsp.Cost{0: 3}))
//	model, cost := pb.Solve()
//
// Constraints over one, two or three variables are compiled into dense tables;
// larger ones are kept as tuple tables with a default cost.
package cfn
