// Package fst implements weighted finite-state transducers over runes in the
// tropical semiring, with the regular operations, lazy composition and
// shortest-path extraction.
//
// A path's weight is the sum of its arc weights plus the final weight of its
// last state. Among equal-weight paths the winner is fixed by arc order, so
// results depend only on how a transducer was built.
package fst

// StateID indexes a state inside a transducer.
type StateID int32

// NoState marks the absence of a state.
const NoState StateID = -1

// Fst is the read-only view shared by materialized and lazy transducers.
type Fst interface {
	Start() StateID
	Final(s StateID) Weight
	Arcs(s StateID) []Arc
}

// Alphabets names the symbol domains a transducer reads and writes. An empty
// name is compatible with anything.
type Alphabets struct {
	In, Out string
}

// alphabetDeclarer is implemented by transducers that carry Alphabets.
type alphabetDeclarer interface {
	Alphabets() Alphabets
}

type state struct {
	arcs  []Arc
	final Weight
}

// Machine is a materialized transducer. It is built by the operations in this
// package and must not be modified once shared between goroutines.
type Machine struct {
	start     StateID
	states    []state
	alphabets Alphabets
}

// NewMachine returns a machine with no states.
func NewMachine() *Machine {
	return &Machine{start: NoState}
}

// AddState appends a non-final state.
func (m *Machine) AddState() StateID {
	m.states = append(m.states, state{final: Zero})
	return StateID(len(m.states) - 1)
}

// SetStart marks s as the start state.
func (m *Machine) SetStart(s StateID) { m.start = s }

// SetFinal sets the final weight of s. Zero makes s non-final.
func (m *Machine) SetFinal(s StateID, w Weight) { m.states[s].final = w }

// AddArc appends an arc leaving from.
func (m *Machine) AddArc(from StateID, a Arc) {
	m.states[from].arcs = append(m.states[from].arcs, a)
}

// Start implements Fst.
func (m *Machine) Start() StateID { return m.start }

// Final implements Fst.
func (m *Machine) Final(s StateID) Weight { return m.states[s].final }

// Arcs implements Fst.
func (m *Machine) Arcs(s StateID) []Arc { return m.states[s].arcs }

// NumStates returns the number of states.
func (m *Machine) NumStates() int { return len(m.states) }

// NumArcs returns the total arc count.
func (m *Machine) NumArcs() int {
	n := 0
	for i := range m.states {
		n += len(m.states[i].arcs)
	}
	return n
}

// Alphabets returns the declared interface alphabets.
func (m *Machine) Alphabets() Alphabets { return m.alphabets }

// WithAlphabets returns a shallow copy of m declaring the given alphabets.
// States are shared, so neither copy may be modified afterwards.
func (m *Machine) WithAlphabets(a Alphabets) *Machine {
	cp := *m
	cp.alphabets = a
	return &cp
}

// appendFst copies every state of f reachable from its start into dst and
// returns the id of the copied start. Machines are copied wholesale.
func appendFst(dst *Machine, f Fst) StateID {
	if f.Start() == NoState {
		return dst.AddState()
	}
	if src, ok := f.(*Machine); ok {
		offset := StateID(len(dst.states))
		for _, st := range src.states {
			arcs := make([]Arc, len(st.arcs))
			for i, a := range st.arcs {
				a.Next += offset
				arcs[i] = a
			}
			dst.states = append(dst.states, state{arcs: arcs, final: st.final})
		}
		return src.start + offset
	}

	ids := make(map[StateID]StateID)
	var queue []StateID
	visit := func(s StateID) StateID {
		if id, ok := ids[s]; ok {
			return id
		}
		id := dst.AddState()
		ids[s] = id
		queue = append(queue, s)
		return id
	}
	start := visit(f.Start())
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		id := ids[s]
		dst.SetFinal(id, f.Final(s))
		for _, a := range f.Arcs(s) {
			a.Next = visit(a.Next)
			dst.AddArc(id, a)
		}
	}
	return start
}

// Expand materializes the reachable part of any transducer.
func Expand(f Fst) *Machine {
	m := NewMachine()
	m.SetStart(appendFst(m, f))
	if d, ok := f.(alphabetDeclarer); ok {
		m.alphabets = d.Alphabets()
	}
	return m
}

// Trim returns a copy of m without states that are unreachable from the start
// or cannot reach a final state. Arc order is preserved.
func Trim(m *Machine) *Machine {
	out := NewMachine()
	out.alphabets = m.alphabets
	if m.start == NoState {
		return out
	}
	n := len(m.states)
	reach := make([]bool, n)
	stack := []StateID{m.start}
	reach[m.start] = true
	rev := make([][]StateID, n)
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range m.states[s].arcs {
			rev[a.Next] = append(rev[a.Next], s)
			if !reach[a.Next] {
				reach[a.Next] = true
				stack = append(stack, a.Next)
			}
		}
	}
	coreach := make([]bool, n)
	for s := 0; s < n; s++ {
		if reach[s] && !m.states[s].final.IsZero() {
			coreach[s] = true
			stack = append(stack, StateID(s))
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range rev[s] {
			if !coreach[p] {
				coreach[p] = true
				stack = append(stack, p)
			}
		}
	}
	if !coreach[m.start] {
		out.SetStart(out.AddState())
		return out
	}
	ids := make([]StateID, n)
	for s := 0; s < n; s++ {
		ids[s] = NoState
		if coreach[s] {
			ids[s] = out.AddState()
		}
	}
	for s := 0; s < n; s++ {
		if ids[s] == NoState {
			continue
		}
		out.SetFinal(ids[s], m.states[s].final)
		for _, a := range m.states[s].arcs {
			if ids[a.Next] == NoState {
				continue
			}
			a.Next = ids[a.Next]
			out.AddArc(ids[s], a)
		}
	}
	out.SetStart(ids[m.start])
	return out
}
