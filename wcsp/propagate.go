package wcsp

// Event queues. A variable is in a queue at most once.

func (pb *Problem) queueAssign(v *Variable) {
	if !v.inAssign {
		v.inAssign = true
		pb.assignQueue = append(pb.assignQueue, v)
	}
}

func (pb *Problem) queueAC(v *Variable) {
	if !v.inAC {
		v.inAC = true
		pb.acQueue = append(pb.acQueue, v)
	}
}

func (pb *Problem) queueNC(v *Variable) {
	if !v.inNC {
		v.inNC = true
		pb.ncQueue = append(pb.ncQueue, v)
	}
}

func popVar(queue *[]*Variable) *Variable {
	q := *queue
	if len(q) == 0 {
		return nil
	}
	v := q[0]
	q[0] = nil
	*queue = q[1:]
	if len(*queue) == 0 {
		*queue = q[:0]
	}
	return v
}

// queueAll makes the next call to Propagate consider every variable and every constraint.
func (pb *Problem) queueAll() {
	for _, v := range pb.vars {
		if v.eliminated {
			continue
		}
		pb.queueNC(v)
		pb.queueAC(v)
		if v.Assigned() {
			pb.queueAssign(v)
		}
	}
	pb.lbChanged = true
}

// whenContradiction empties the queues.
func (pb *Problem) whenContradiction() {
	for _, q := range [][]*Variable{pb.assignQueue, pb.acQueue, pb.ncQueue} {
		for _, v := range q {
			v.inAssign, v.inAC, v.inNC = false, false, false
		}
	}
	pb.assignQueue = pb.assignQueue[:0]
	pb.acQueue = pb.acQueue[:0]
	pb.ncQueue = pb.ncQueue[:0]
	pb.lbChanged = false
}

// fail records a contradiction raised while propagating c, if any.
func (pb *Problem) fail(c Constraint, err error) error {
	if c != nil {
		c.incConflictWeight()
	}
	pb.whenContradiction()
	return err
}

// Propagate runs every pending event until a fixpoint is reached:
// assignments first, then constraint revisions, then node consistency, and,
// when the lower bound moved, a pruning pass over all variables.
func (pb *Problem) Propagate() error {
	if Cut(pb.Lb(), pb.ub) {
		pb.whenContradiction()
		return ErrContradiction
	}
	for {
		if v := popVar(&pb.assignQueue); v != nil {
			v.inAssign = false
			for _, l := range v.links {
				if l.c.Connected() {
					if err := l.c.Assign(l.pos); err != nil {
						return pb.fail(l.c, err)
					}
				}
			}
			continue
		}
		if v := popVar(&pb.acQueue); v != nil {
			v.inAC = false
			for _, l := range v.links {
				if l.c.Connected() {
					if err := l.c.Propagate(); err != nil {
						return pb.fail(l.c, err)
					}
				}
			}
			continue
		}
		if v := popVar(&pb.ncQueue); v != nil {
			v.inNC = false
			if err := v.FindSupport(); err != nil {
				return pb.fail(nil, err)
			}
			continue
		}
		if pb.lbChanged {
			pb.lbChanged = false
			for _, v := range pb.vars {
				if !v.eliminated {
					pb.queueNC(v)
				}
			}
			for _, c := range pb.unaries {
				if c.Connected() {
					pb.queueAC(c.x)
				}
			}
			continue
		}
		return nil
	}
}
