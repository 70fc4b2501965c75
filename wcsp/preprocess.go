package wcsp

// PreprocessOptions bound the work done by Preprocess.
type PreprocessOptions struct {
	EliminateDegreeOne bool
	MergeIncluded      bool
	MaxTuples          int // Constraints with more explicit tuples are left alone; 0 means no limit
}

// Includes returns true iff every variable of c is in the scope of c2.
func (c *Nary) Includes(c2 *Nary) bool {
	if len(c.scope) > len(c2.scope) {
		return false
	}
	for _, v := range c.scope {
		if c2.Index(v) < 0 {
			return false
		}
	}
	return true
}

func (opts PreprocessOptions) fits(c *Nary) bool {
	return opts.MaxTuples == 0 || c.NbTuples() <= opts.MaxTuples
}

func (pb *Problem) activeNary() []*Nary {
	var res []*Nary
	for _, c := range pb.constrs {
		if n, ok := c.(*Nary); ok && n.Connected() && !n.retired {
			res = append(res, n)
		}
	}
	return res
}

// MergeIncluded sums every n-ary constraint into another one whose scope includes it.
// It returns the number of constraints that were removed.
func (pb *Problem) MergeIncluded(opts PreprocessOptions) int {
	nb := 0
	narys := pb.activeNary()
	for i, c := range narys {
		if c.retired || !opts.fits(c) {
			continue
		}
		for j, c2 := range narys {
			if i == j || c2.retired || !opts.fits(c2) || !c.Includes(c2) {
				continue
			}
			c2.Sum(c)
			nb++
			break
		}
	}
	return nb
}

// EliminateDegreeOne projects out every variable that only appears in one
// n-ary constraint of arity at least 4.
// It returns the number of eliminated variables.
func (pb *Problem) EliminateDegreeOne(opts PreprocessOptions) int {
	nb := 0
	for _, v := range pb.vars {
		if v.eliminated || !v.enumerated || v.connectedLinks() != 1 {
			continue
		}
		for _, l := range v.links {
			if !l.c.Connected() {
				continue
			}
			if c, ok := l.c.(*Nary); ok && c.Arity() > 3 && opts.fits(c) {
				c.Project(v)
				nb++
			}
			break
		}
	}
	return nb
}

// Preprocess simplifies the structure of the problem before search.
// Constraints are merged first, since merging can lower the degree of variables.
// It must be called before any checkpoint was taken.
func (pb *Problem) Preprocess(opts PreprocessOptions) (merged, eliminated int) {
	if pb.store.Depth() > 0 {
		panic("wcsp: cannot preprocess a problem during search")
	}
	if opts.MergeIncluded {
		merged = pb.MergeIncluded(opts)
	}
	if opts.EliminateDegreeOne {
		eliminated = pb.EliminateDegreeOne(opts)
	}
	if merged+eliminated > 0 {
		pb.SortVariables()
		pb.SortConstraints()
	}
	return merged, eliminated
}
