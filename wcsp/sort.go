package wcsp

import "sort"

// valueSorter is a structure to facilitate the sorting of the values of a domain
// according to their respective unary costs.
type valueSorter struct {
	values []Value
	costs  []Cost
}

func (vs *valueSorter) Len() int { return len(vs.values) }
func (vs *valueSorter) Less(i, j int) bool {
	return vs.costs[i] < vs.costs[j] || (vs.costs[i] == vs.costs[j] && vs.values[i] < vs.values[j])
}
func (vs *valueSorter) Swap(i, j int) {
	vs.values[i], vs.values[j] = vs.values[j], vs.values[i]
	vs.costs[i], vs.costs[j] = vs.costs[j], vs.costs[i]
}

// sortedValues returns the domain of v, sorted by increasing unary cost, then increasing value.
func sortedValues(v *Variable) []Value {
	vs := &valueSorter{values: v.Values()}
	vs.costs = make([]Cost, len(vs.values))
	for i, a := range vs.values {
		vs.costs[i] = v.Cost(a)
	}
	sort.Sort(vs)
	return vs.values
}
