package fst

import (
	"fmt"
	"sync"
)

type pairKey struct {
	a, b StateID
}

// Composed is the lazy composition of two transducers. States are pairs of
// operand states and are expanded on first access. It is safe for
// concurrent use.
type Composed struct {
	a, b      Fst
	alphabets Alphabets
	start     StateID

	mu     sync.Mutex
	ids    map[pairKey]StateID
	pairs  []pairKey
	arcs   [][]Arc
	done   []bool
	finals []Weight
}

// Compose returns a transducer that feeds the output of a into b.
// An empty composition is not an error; it rejects every input.
func Compose(a, b Fst) (*Composed, error) {
	var al Alphabets
	if d, ok := a.(alphabetDeclarer); ok {
		al.In = d.Alphabets().In
		al.Out = d.Alphabets().Out
	}
	if d, ok := b.(alphabetDeclarer); ok {
		bin := d.Alphabets().In
		if al.Out != "" && bin != "" && al.Out != bin {
			return nil, fmt.Errorf("%w: %q feeds %q", ErrIncompatibleAlphabet, al.Out, bin)
		}
		al.Out = d.Alphabets().Out
	}
	c := &Composed{a: a, b: b, alphabets: al, start: NoState, ids: make(map[pairKey]StateID)}
	if a.Start() != NoState && b.Start() != NoState {
		c.start = c.intern(pairKey{a.Start(), b.Start()})
	}
	return c, nil
}

// MustCompose is Compose for operands known to be compatible.
func MustCompose(a, b Fst) *Composed {
	c, err := Compose(a, b)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Composed) intern(k pairKey) StateID {
	if id, ok := c.ids[k]; ok {
		return id
	}
	id := StateID(len(c.pairs))
	c.ids[k] = id
	c.pairs = append(c.pairs, k)
	c.arcs = append(c.arcs, nil)
	c.done = append(c.done, false)
	c.finals = append(c.finals, c.a.Final(k.a).Times(c.b.Final(k.b)))
	return id
}

// Start implements Fst.
func (c *Composed) Start() StateID { return c.start }

// Final implements Fst.
func (c *Composed) Final(s StateID) Weight {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finals[s]
}

// Alphabets returns the input alphabet of a and the output alphabet of b.
func (c *Composed) Alphabets() Alphabets { return c.alphabets }

// Arcs implements Fst. The arc order follows a's arcs, then b's arcs, which
// keeps expansion deterministic.
func (c *Composed) Arcs(s StateID) []Arc {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done[s] {
		return c.arcs[s]
	}
	k := c.pairs[s]
	var out []Arc
	for _, x := range c.a.Arcs(k.a) {
		if x.Out.Kind == OutEpsilon {
			out = append(out, Arc{In: x.In, Out: epsOut, Weight: x.Weight, Next: c.intern(pairKey{x.Next, k.b})})
			continue
		}
		for _, y := range c.b.Arcs(k.b) {
			if y.IsEpsilonIn() {
				continue
			}
			if arc, ok := matchArcs(x, y); ok {
				arc.Next = c.intern(pairKey{x.Next, y.Next})
				out = append(out, arc)
			}
		}
	}
	for _, y := range c.b.Arcs(k.b) {
		if !y.IsEpsilonIn() {
			continue
		}
		// An epsilon-input arc in b cannot copy, so its output is a rune or nothing.
		out = append(out, Arc{In: epsIn, Out: y.Out, Weight: y.Weight, Next: c.intern(pairKey{k.a, y.Next})})
	}
	c.arcs[s] = out
	c.done[s] = true
	return out
}

// matchArcs joins an emitting arc x of the first operand with a consuming arc
// y of the second.
func matchArcs(x, y Arc) (Arc, bool) {
	w := x.Weight.Times(y.Weight)
	if x.Out.Kind == OutRune {
		r := x.Out.Rune
		if !y.In.Matches(r) {
			return Arc{}, false
		}
		out, _ := resolve(y.Out, r)
		return Arc{In: x.In, Out: out, Weight: w}, true
	}

	// x copies its input, so what it emits depends on what it consumes.
	switch x.In.Kind {
	case InRune:
		r := x.In.Rune
		if !y.In.Matches(r) {
			return Arc{}, false
		}
		out, _ := resolve(y.Out, r)
		return Arc{In: x.In, Out: out, Weight: w}, true
	case InSet:
		switch y.In.Kind {
		case InRune:
			if !x.In.Set.Contains(y.In.Rune) {
				return Arc{}, false
			}
			out, _ := resolve(y.Out, y.In.Rune)
			return Arc{In: runeIn(y.In.Rune), Out: out, Weight: w}, true
		case InSet:
			set := x.In.Set.Intersect(y.In.Set)
			if set.Empty() {
				return Arc{}, false
			}
			return Arc{In: Input{Kind: InSet, Set: set}, Out: y.Out, Weight: w}, true
		}
	}
	return Arc{}, false
}

func resolve(out Output, r rune) (Output, bool) {
	if out.Kind == OutCopy {
		return runeOut(r), true
	}
	return out, out.Kind == OutRune
}

// ComposeExpand composes a and b and materializes the trimmed result.
func ComposeExpand(a, b Fst) (*Machine, error) {
	c, err := Compose(a, b)
	if err != nil {
		return nil, err
	}
	return Trim(Expand(c)), nil
}
