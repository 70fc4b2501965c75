/*
Package wcsp gives access to a weighted constraint satisfaction problem solver.
A problem is a set of variables with finite domains, and a set of cost functions
(constraints) over those variables. The solver looks for an assignment of all
variables whose total cost is minimal, and strictly lower than an initial upper bound.
A cost of MaxCost means "forbidden".

Describing a problem

A problem is built programmatically. Variables are created first, then constraints are
posted over their ids. Costs are given for value offsets, i.e the difference between
a value and the initial lower bound of the domain:

    pb := wcsp.NewProblem("example", 10)
    x := pb.MakeEnumeratedVariable("x", 0, 1)
    y := pb.MakeEnumeratedVariable("y", 0, 1)
    pb.PostBinaryConstraint(x, y, []wcsp.Cost{
        0, 5, // x=0, y=0 and x=0, y=1
        5, 0, // x=1, y=0 and x=1, y=1
    })

Constraints of arity greater than 3 are given as a table of tuples, with a default cost
for all the tuples that are not listed:

    c := pb.PostNaryConstraint([]int{x, y, z, t}, wcsp.MaxCost)
    pb.Nary(c).SetTuple(wcsp.Tuple{0, 1, 1, 0}, 0)

Solving a problem

    s := wcsp.New(pb)
    if found, cost := s.Solve(); found {
        fmt.Println(cost, s.Solution())
    }

The solver runs a depth-first branch and bound. At each node, costs are moved from the
constraints to the unary costs of the variables and then to a global lower bound,
so that whole subtrees can be skipped when that bound reaches the cost of the best
solution found so far. All the state modified during search is kept in a reversible
Store, so going back to a previous node is only a matter of undoing writes.

Interrupting the search

Optimal accepts a results channel, on which every improving solution is sent, and a stop
channel. When something is sent on stop, or when Options.NodeLimit nodes were explored,
the search ends with the Indet status and the best solution found so far.
*/
package wcsp
