package wcsp

import "sort"

// A link connects a variable to a constraint it appears in, at position pos of its scope.
type link struct {
	c   Constraint
	pos int
}

// addLink registers c as a constraint involving v at position pos.
func (v *Variable) addLink(c Constraint, pos int) {
	v.links = append(v.links, link{c: c, pos: pos})
}

// removeLink unregisters c from v's constraints.
// It is only used during preprocessing, when the structure of the problem changes.
func (v *Variable) removeLink(c Constraint) {
	for i, l := range v.links {
		if l.c == c {
			copy(v.links[i:], v.links[i+1:])
			v.links[len(v.links)-1] = link{}
			v.links = v.links[:len(v.links)-1]
			return
		}
	}
}

// setLinkPos updates the position of v in c's scope.
func (v *Variable) setLinkPos(c Constraint, pos int) {
	for i := range v.links {
		if v.links[i].c == c {
			v.links[i].pos = pos
			return
		}
	}
	panic("wcsp: variable " + v.name + " is not linked to the constraint")
}

// connectedLinks returns the number of connected constraints of v, unary ones included.
func (v *Variable) connectedLinks() int {
	nb := 0
	for _, l := range v.links {
		if l.c.Connected() {
			nb++
		}
	}
	return nb
}

// Utilities for sorting the links of a variable: small arities first, then by constraint id.
type linkSorter []link

func (ls linkSorter) Len() int { return len(ls) }

func (ls linkSorter) Less(i, j int) bool {
	ai, aj := ls[i].c.Arity(), ls[j].c.Arity()
	return ai < aj || (ai == aj && ls[i].c.ID() < ls[j].c.ID())
}

func (ls linkSorter) Swap(i, j int) { ls[i], ls[j] = ls[j], ls[i] }

func (v *Variable) sortLinks() {
	sort.Stable(linkSorter(v.links))
}
