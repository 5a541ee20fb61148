package fst

// Empty rejects every input.
func Empty() *Machine {
	m := NewMachine()
	m.SetStart(m.AddState())
	return m
}

// Epsilon accepts only the empty string.
func Epsilon() *Machine {
	m := NewMachine()
	s := m.AddState()
	m.SetStart(s)
	m.SetFinal(s, One)
	return m
}

// Accept maps s to itself.
func Accept(s string) *Machine {
	return Cross(s, s)
}

// Cross maps in to out. When the lengths differ the shorter side is padded
// with epsilons at the end.
func Cross(in, out string) *Machine {
	ir, or := []rune(in), []rune(out)
	m := NewMachine()
	cur := m.AddState()
	m.SetStart(cur)
	for i := 0; i < len(ir) || i < len(or); i++ {
		a := Arc{In: epsIn, Out: epsOut, Weight: One}
		if i < len(ir) {
			a.In = runeIn(ir[i])
		}
		if i < len(or) {
			a.Out = runeOut(or[i])
		}
		next := m.AddState()
		a.Next = next
		m.AddArc(cur, a)
		cur = next
	}
	m.SetFinal(cur, One)
	return m
}

// Insert emits s without consuming input.
func Insert(s string) *Machine { return Cross("", s) }

// Delete consumes s without emitting anything.
func Delete(s string) *Machine { return Cross(s, "") }

// AcceptSet maps any single rune in set to itself.
func AcceptSet(set *RuneSet) *Machine {
	return single(Input{Kind: InSet, Set: set}, Output{Kind: OutCopy})
}

// DeleteSet consumes any single rune in set.
func DeleteSet(set *RuneSet) *Machine {
	return single(Input{Kind: InSet, Set: set}, epsOut)
}

func single(in Input, out Output) *Machine {
	m := NewMachine()
	s, f := m.AddState(), m.AddState()
	m.SetStart(s)
	m.SetFinal(f, One)
	m.AddArc(s, Arc{In: in, Out: out, Weight: One, Next: f})
	return m
}

// MapEntry is one row of a string substitution table.
type MapEntry struct {
	In, Out string
	Weight  Weight
}

// StringMap builds a union of Cross(e.In, e.Out) sharing input prefixes.
// Entries with the same input keep their table order.
func StringMap(entries []MapEntry) *Machine {
	m := NewMachine()
	root := m.AddState()
	m.SetStart(root)
	type key struct {
		from StateID
		r    rune
	}
	children := make(map[key]StateID)
	for _, e := range entries {
		cur := root
		for _, r := range e.In {
			k := key{cur, r}
			next, ok := children[k]
			if !ok {
				next = m.AddState()
				m.AddArc(cur, Arc{In: runeIn(r), Out: epsOut, Weight: One, Next: next})
				children[k] = next
			}
			cur = next
		}
		out := []rune(e.Out)
		if len(out) == 0 {
			end := m.AddState()
			m.AddArc(cur, Arc{In: epsIn, Out: epsOut, Weight: e.Weight, Next: end})
			m.SetFinal(end, One)
			continue
		}
		w := e.Weight
		for _, r := range out {
			next := m.AddState()
			m.AddArc(cur, Arc{In: epsIn, Out: runeOut(r), Weight: w, Next: next})
			w = One
			cur = next
		}
		m.SetFinal(cur, One)
	}
	return m
}

// Concat accepts the concatenation of its operands in order.
func Concat(fs ...Fst) *Machine {
	if len(fs) == 0 {
		return Epsilon()
	}
	m := NewMachine()
	starts := make([]StateID, len(fs))
	bounds := make([]int, len(fs)+1)
	for i, f := range fs {
		bounds[i] = len(m.states)
		starts[i] = appendFst(m, f)
	}
	bounds[len(fs)] = len(m.states)
	for i := 0; i < len(fs)-1; i++ {
		for s := bounds[i]; s < bounds[i+1]; s++ {
			st := &m.states[s]
			if st.final.IsZero() {
				continue
			}
			st.arcs = append(st.arcs, Arc{In: epsIn, Out: epsOut, Weight: st.final, Next: starts[i+1]})
			st.final = Zero
		}
	}
	m.SetStart(starts[0])
	return m
}

// Union accepts any operand. Alternatives are tried in argument order, so the
// first of several equally weighted paths wins.
func Union(fs ...Fst) *Machine {
	if len(fs) == 0 {
		return Empty()
	}
	m := NewMachine()
	start := m.AddState()
	m.SetStart(start)
	for _, f := range fs {
		s := appendFst(m, f)
		m.AddArc(start, Arc{In: epsIn, Out: epsOut, Weight: One, Next: s})
	}
	return m
}

// Star accepts zero or more repetitions of f.
func Star(f Fst) *Machine {
	m := NewMachine()
	hub := m.AddState()
	m.SetStart(hub)
	m.SetFinal(hub, One)
	first := len(m.states)
	s := appendFst(m, f)
	for i := first; i < len(m.states); i++ {
		st := &m.states[i]
		if st.final.IsZero() {
			continue
		}
		st.arcs = append(st.arcs, Arc{In: epsIn, Out: epsOut, Weight: st.final, Next: hub})
		st.final = Zero
	}
	m.AddArc(hub, Arc{In: epsIn, Out: epsOut, Weight: One, Next: s})
	return m
}

// Plus accepts one or more repetitions of f.
func Plus(f Fst) *Machine { return Concat(f, Star(f)) }

// Optional accepts f or the empty string.
func Optional(f Fst) *Machine { return Union(f, Epsilon()) }

// Repeat accepts between min and max repetitions of f. A negative max means
// unbounded.
func Repeat(f Fst, lo, hi int) *Machine {
	if lo < 0 {
		lo = 0
	}
	parts := make([]Fst, 0, lo+1)
	for i := 0; i < lo; i++ {
		parts = append(parts, f)
	}
	switch {
	case hi < 0:
		parts = append(parts, Star(f))
	case hi > lo:
		// Nested optionals keep the machine linear in hi-lo.
		var tail Fst = Optional(f)
		for i := lo + 1; i < hi; i++ {
			tail = Optional(Concat(f, tail))
		}
		parts = append(parts, tail)
	}
	return Concat(parts...)
}

// Weighted adds w to every path through f.
func Weighted(f Fst, w Weight) *Machine {
	m := NewMachine()
	start := m.AddState()
	m.SetStart(start)
	s := appendFst(m, f)
	m.AddArc(start, Arc{In: epsIn, Out: epsOut, Weight: w, Next: s})
	return m
}
