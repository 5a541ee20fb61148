package fst

import (
	"container/heap"
	"math"
	"slices"
)

// Path is the best way to consume input[from:End].
type Path struct {
	End    int
	Output string
	Weight Weight
}

type searchNode struct {
	state   StateID
	pos     int32
	dist    Weight
	parent  int32
	out     rune
	emits   bool
	settled bool
	picked  bool
}

type queueItem struct {
	dist Weight
	seq  uint64
	node int32
}

type queue []queueItem

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(queueItem)) }
func (q *queue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// search runs over (state, position) pairs, which is the lazy composition of
// the linear input acceptor with f. Goal nodes have state NoState and one
// exists per end position. Dijkstra settles the distances first. A depth
// first walk in arc order over the tight arcs then picks, for every goal,
// the optimal path whose arc index sequence is lexicographically smallest.
// When exact is non-negative only the goal for that position is considered.
type search struct {
	f     Fst
	input []rune
	nodes []searchNode
	index map[uint64]int32
	goals map[int32]int32
	q     queue
	seq   uint64
}

type frame struct {
	node int32
	arc  int
	arcs []Arc
}

func newSearch(f Fst, input []rune) *search {
	return &search{
		f:     f,
		input: input,
		index: make(map[uint64]int32),
		goals: make(map[int32]int32),
	}
}

func (s *search) relax(id int32, d Weight) {
	n := &s.nodes[id]
	if n.settled || d >= n.dist {
		return
	}
	n.dist = d
	s.seq++
	heap.Push(&s.q, queueItem{dist: d, seq: s.seq, node: id})
}

func nodeKey(st StateID, pos int32) uint64 {
	return uint64(uint32(st))<<32 | uint64(uint32(pos))
}

func (s *search) node(st StateID, pos int32) int32 {
	k := nodeKey(st, pos)
	if id, ok := s.index[k]; ok {
		return id
	}
	id := int32(len(s.nodes))
	s.nodes = append(s.nodes, searchNode{state: st, pos: pos, dist: Zero, parent: -2})
	s.index[k] = id
	return id
}

func (s *search) goal(pos int32) int32 {
	if id, ok := s.goals[pos]; ok {
		return id
	}
	id := int32(len(s.nodes))
	s.nodes = append(s.nodes, searchNode{state: NoState, pos: pos, dist: Zero, parent: -2})
	s.goals[pos] = id
	return id
}

// step reports where arc a leads from pos and what it writes.
func (s *search) step(a Arc, pos int32) (next int32, out rune, emits, ok bool) {
	var consumed rune
	next = pos
	if !a.IsEpsilonIn() {
		if int(pos) >= len(s.input) || !a.In.Matches(s.input[pos]) {
			return 0, 0, false, false
		}
		consumed = s.input[pos]
		next = pos + 1
	} else if a.Out.Kind == OutCopy {
		return 0, 0, false, false
	}
	out, emits = a.Out.Emit(consumed)
	return next, out, emits, true
}

func (s *search) run(from int, exact int, visit func(goal int32)) {
	if s.f.Start() == NoState {
		return
	}
	root := s.node(s.f.Start(), int32(from))
	s.distances(root, exact)
	s.pick(root, exact, visit)
}

// distances settles every node whose distance is at most that of the exact
// goal, or every reachable node when exact is negative.
func (s *search) distances(root int32, exact int) {
	s.relax(root, One)
	bound := Zero
	for s.q.Len() > 0 {
		it := heap.Pop(&s.q).(queueItem)
		if it.dist > bound {
			return
		}
		n := &s.nodes[it.node]
		if n.settled || it.dist != n.dist {
			continue
		}
		n.settled = true
		if n.state == NoState {
			if int(n.pos) == exact {
				bound = n.dist
			}
			continue
		}
		st, pos, dist := n.state, n.pos, n.dist
		if fw := s.f.Final(st); !fw.IsZero() && (exact < 0 || int(pos) == exact) {
			s.relax(s.goal(pos), dist.Times(fw))
		}
		for _, a := range s.f.Arcs(st) {
			if next, _, _, ok := s.step(a, pos); ok {
				s.relax(s.node(a.Next, next), dist.Times(a.Weight))
			}
		}
	}
}

// tight reports whether reaching a node at d is optimal for it.
func tight(d, best Weight) bool {
	if d == best {
		return true
	}
	return math.Abs(float64(d-best)) <= 1e-9*math.Max(1, math.Abs(float64(best)))
}

// pick walks the settled nodes depth first, final weight before arcs and
// arcs in order. The first visit of a node is along its smallest optimal
// path, and that is the path output reports.
func (s *search) pick(root int32, exact int, visit func(goal int32)) {
	if !s.nodes[root].settled {
		return
	}
	s.nodes[root].picked = true
	s.nodes[root].parent = -1
	stack := []frame{{node: root, arc: -1}}
	reach := func(id, parent int32, d Weight, out rune, emits bool) bool {
		n := &s.nodes[id]
		if n.picked || !n.settled || !tight(d, n.dist) {
			return false
		}
		n.picked, n.parent, n.out, n.emits = true, parent, out, emits
		return true
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		cur := s.nodes[top.node]
		if top.arc < 0 {
			top.arc = 0
			top.arcs = s.f.Arcs(cur.state)
			fw := s.f.Final(cur.state)
			if fw.IsZero() || (exact >= 0 && int(cur.pos) != exact) {
				continue
			}
			g, ok := s.goals[cur.pos]
			if ok && reach(g, top.node, cur.dist.Times(fw), 0, false) {
				visit(g)
				if exact >= 0 {
					return
				}
			}
			continue
		}
		if top.arc >= len(top.arcs) {
			stack = stack[:len(stack)-1]
			continue
		}
		a := top.arcs[top.arc]
		top.arc++
		next, out, emits, ok := s.step(a, cur.pos)
		if !ok {
			continue
		}
		id, ok := s.index[nodeKey(a.Next, next)]
		if ok && reach(id, top.node, cur.dist.Times(a.Weight), out, emits) {
			stack = append(stack, frame{node: id, arc: -1})
		}
	}
}

func (s *search) output(goal int32) string {
	var rs []rune
	for id := goal; id >= 0; id = s.nodes[id].parent {
		if s.nodes[id].emits {
			rs = append(rs, s.nodes[id].out)
		}
	}
	slices.Reverse(rs)
	return string(rs)
}

// ShortestPath returns the output and weight of the cheapest path through f
// that consumes exactly input. Among equally cheap paths the one that takes
// the earlier arc at the first point where they differ wins, so the earliest
// alternative of a Union or StringMap takes the tie.
func ShortestPath(f Fst, input string) (string, Weight, error) {
	return ShortestPathRunes(f, []rune(input))
}

// ShortestPathRunes is ShortestPath over a rune slice.
func ShortestPathRunes(f Fst, input []rune) (string, Weight, error) {
	s := newSearch(f, input)
	found := int32(-1)
	s.run(0, len(input), func(goal int32) {
		if int(s.nodes[goal].pos) == len(input) {
			found = goal
		}
	})
	if found < 0 {
		return "", Zero, ErrNoPath
	}
	return s.output(found), s.nodes[found].dist, nil
}

// PrefixPaths returns, for every end offset at which some path starting at
// from is accepted, the best such path. Results are ordered by End. Empty
// matches are reported with End == from.
func PrefixPaths(f Fst, input []rune, from int) []Path {
	s := newSearch(f, input)
	var paths []Path
	s.run(from, -1, func(goal int32) {
		g := s.nodes[goal]
		paths = append(paths, Path{End: int(g.pos), Output: s.output(goal), Weight: g.dist})
	})
	slices.SortFunc(paths, func(a, b Path) int { return a.End - b.End })
	return paths
}

// LongestPrefixPath returns the best path for the largest end offset that
// keep admits. Only that path's output is built, so a long input costs one
// search rather than one output per end offset.
func LongestPrefixPath(f Fst, input []rune, from int, keep func(end int) bool) (Path, bool) {
	s := newSearch(f, input)
	best := int32(-1)
	s.run(from, -1, func(goal int32) {
		end := s.nodes[goal].pos
		if keep(int(end)) && (best < 0 || end > s.nodes[best].pos) {
			best = goal
		}
	})
	if best < 0 {
		return Path{}, false
	}
	g := s.nodes[best]
	return Path{End: int(g.pos), Output: s.output(best), Weight: g.dist}, true
}

// Accepts reports whether f accepts input.
func Accepts(f Fst, input string) bool {
	_, _, err := ShortestPath(f, input)
	return err == nil
}
