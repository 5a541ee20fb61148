package fst

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Weight is a tropical-semiring value. Lower is preferred; Zero rejects.
type Weight float64

// One is the multiplicative identity (free path), Zero the additive one (no path).
var (
	One  Weight = 0
	Zero        = Weight(math.Inf(1))
)

// Times extends a path by another weight.
func (w Weight) Times(o Weight) Weight { return w + o }

// Plus picks the better of two alternatives.
func (w Weight) Plus(o Weight) Weight {
	if o < w {
		return o
	}
	return w
}

// IsZero reports whether w is the rejecting weight.
func (w Weight) IsZero() bool { return math.IsInf(float64(w), 1) }

// Range is an inclusive rune interval.
type Range struct {
	Lo, Hi rune
}

// RuneSet is an immutable sorted list of disjoint, non-adjacent ranges.
type RuneSet struct {
	ranges []Range
}

// AnyRune matches every code point.
var AnyRune = NewRuneSet(Range{0, utf8.MaxRune})

// NewRuneSet builds a normalized set from arbitrary ranges.
func NewRuneSet(rs ...Range) *RuneSet {
	cp := make([]Range, 0, len(rs))
	for _, r := range rs {
		if r.Lo > r.Hi {
			r.Lo, r.Hi = r.Hi, r.Lo
		}
		cp = append(cp, r)
	}
	sort.Slice(cp, func(i, j int) bool { return cp[i].Lo < cp[j].Lo })
	out := cp[:0]
	for _, r := range cp {
		if n := len(out); n > 0 && r.Lo <= out[n-1].Hi+1 {
			if r.Hi > out[n-1].Hi {
				out[n-1].Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return &RuneSet{ranges: out}
}

// Contains reports membership.
func (s *RuneSet) Contains(r rune) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].Hi >= r })
	return i < len(s.ranges) && s.ranges[i].Lo <= r
}

// Empty reports whether the set has no members.
func (s *RuneSet) Empty() bool { return len(s.ranges) == 0 }

// Ranges returns a copy of the normalized ranges.
func (s *RuneSet) Ranges() []Range {
	return append([]Range(nil), s.ranges...)
}

// Complement returns every code point outside s.
func (s *RuneSet) Complement() *RuneSet {
	var out []Range
	next := rune(0)
	for _, r := range s.ranges {
		if r.Lo > next {
			out = append(out, Range{next, r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= utf8.MaxRune {
		out = append(out, Range{next, utf8.MaxRune})
	}
	return &RuneSet{ranges: out}
}

// Intersect returns the members common to s and o.
func (s *RuneSet) Intersect(o *RuneSet) *RuneSet {
	if s == o {
		return s
	}
	var out []Range
	i, j := 0, 0
	for i < len(s.ranges) && j < len(o.ranges) {
		a, b := s.ranges[i], o.ranges[j]
		lo, hi := max(a.Lo, b.Lo), min(a.Hi, b.Hi)
		if lo <= hi {
			out = append(out, Range{lo, hi})
		}
		if a.Hi < b.Hi {
			i++
		} else {
			j++
		}
	}
	return &RuneSet{ranges: out}
}

func (s *RuneSet) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for _, r := range s.ranges {
		sb.WriteRune(r.Lo)
		if r.Hi != r.Lo {
			sb.WriteByte('-')
			sb.WriteRune(r.Hi)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// InKind selects what an arc consumes.
type InKind uint8

const (
	InEpsilon InKind = iota
	InRune
	InSet
)

// OutKind selects what an arc emits.
type OutKind uint8

const (
	OutEpsilon OutKind = iota
	OutRune
	// OutCopy emits the rune consumed by the same arc.
	OutCopy
)

// Input is the consuming side of an arc label.
type Input struct {
	Kind InKind
	Rune rune
	Set  *RuneSet
}

// Output is the emitting side of an arc label.
type Output struct {
	Kind OutKind
	Rune rune
}

// Matches reports whether the label consumes r.
func (in Input) Matches(r rune) bool {
	switch in.Kind {
	case InRune:
		return in.Rune == r
	case InSet:
		return in.Set.Contains(r)
	}
	return false
}

// Emit resolves the output for the consumed rune r.
func (out Output) Emit(r rune) (rune, bool) {
	switch out.Kind {
	case OutRune:
		return out.Rune, true
	case OutCopy:
		return r, true
	}
	return 0, false
}

// Arc is a weighted transition.
type Arc struct {
	In     Input
	Out    Output
	Weight Weight
	Next   StateID
}

// IsEpsilonIn reports whether the arc moves without consuming input.
func (a Arc) IsEpsilonIn() bool { return a.In.Kind == InEpsilon }

var (
	epsIn  = Input{Kind: InEpsilon}
	epsOut = Output{Kind: OutEpsilon}
)

func runeIn(r rune) Input   { return Input{Kind: InRune, Rune: r} }
func runeOut(r rune) Output { return Output{Kind: OutRune, Rune: r} }
