// Package classify splits text into a non-overlapping cover of tagged spans.
//
// Every class tagger is tried at every admissible start offset, keeping its
// longest admissible match. The candidates form a lattice over rune
// positions. The selected cover minimizes total cost, where a tagged span
// costs its class weight plus its path weight and each untagged rune costs
// the grammar's plain cost. Equal costs prefer fewer spans, then the cover
// whose first differing boundary comes earlier.
package classify

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/baditaflorin/go_text_normalization/internal/core/domain"
	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
	"github.com/baditaflorin/go_text_normalization/internal/core/grammar"
	"github.com/baditaflorin/go_text_normalization/internal/pool"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

var runePool = pool.NewRuneBufferPool(512)

// ErrCoverIncomplete means no cover reached the end of the input. The plain
// fallback makes this unreachable; seeing it indicates a defect.
var ErrCoverIncomplete = errors.New("classify: cover does not reach end of input")

// Candidate is one lattice edge. Start and End are rune offsets.
type Candidate struct {
	Start  int
	End    int
	Class  string
	Weight float64
	Output string
	class  int
}

// Classifier tags text with one grammar table. It keeps no per-call state.
type Classifier struct {
	table  *grammar.Table
	logger ports.Logger
}

// New returns a classifier for table.
func New(table *grammar.Table, logger ports.Logger) *Classifier {
	return &Classifier{table: table, logger: logger}
}

// Candidates builds the parse lattice for text.
func (c *Classifier) Candidates(text string) []Candidate {
	buf := runePool.Runes(text)
	defer runePool.Put(buf)
	return c.candidates(*buf)
}

func (c *Classifier) candidates(runes []rune) []Candidate {
	bounds := boundaries(runes)
	type key struct{ start, end int }
	best := make(map[key]int)
	var out []Candidate
	for ci, class := range c.table.Classes {
		for s := 0; s < len(runes); s++ {
			if !bounds[s] || unicode.IsSpace(runes[s]) || dashAfterDigit(runes, s) {
				continue
			}
			p, ok := fst.LongestPrefixPath(class.Tagger, runes, s, func(end int) bool {
				return end > s && bounds[end]
			})
			if !ok {
				continue
			}
			cand := Candidate{
				Start:  s,
				End:    p.End,
				Class:  class.Name,
				Weight: class.Weight + float64(p.Weight),
				Output: p.Output,
				class:  ci,
			}
			k := key{s, p.End}
			if j, ok := best[k]; ok {
				if cand.Weight < out[j].Weight {
					out[j] = cand
				}
			} else {
				best[k] = len(out)
				out = append(out, cand)
			}
		}
	}
	return out
}

// Classify returns the best cover of text. Adjacent untagged runes are merged
// into single plain spans.
func (c *Classifier) Classify(text string) ([]domain.TaggedSpan, error) {
	if text == "" {
		return nil, nil
	}
	buf := runePool.Runes(text)
	defer runePool.Put(buf)
	runes := *buf
	cands := c.candidates(runes)
	edges, err := c.cover(len(runes), cands)
	if err != nil {
		c.logger.Error("cover selection failed", "language", c.table.Language, "length", len(runes))
		return nil, err
	}

	// Invalid UTF-8 bytes decode to one U+FFFD each, so offsets come from
	// ranging over text rather than from rune widths.
	offsets := make([]int, 0, len(runes)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	var spans []domain.TaggedSpan
	for _, e := range edges {
		start, end := offsets[e.start], offsets[e.end]
		if e.cand < 0 {
			if n := len(spans); n > 0 && spans[n-1].IsPlain() {
				spans[n-1].End = end
				spans[n-1].Text = text[spans[n-1].Start:end]
				continue
			}
			spans = append(spans, domain.TaggedSpan{Start: start, End: end, Text: text[start:end], Class: domain.PlainClass})
			continue
		}
		cand := cands[e.cand]
		span := domain.TaggedSpan{
			Start:  start,
			End:    end,
			Text:   text[start:end],
			Class:  cand.Class,
			Weight: cand.Weight,
		}
		if fields, err := domain.ParseFields(cand.Output); err == nil {
			span.Fields = fields
			span.Tagged = domain.FormatFields(fields)
		} else {
			span.Tagged = strings.TrimSpace(cand.Output)
		}
		spans = append(spans, span)
	}
	c.logger.Debug("classified", "language", c.table.Language, "candidates", len(cands), "spans", len(spans))
	return spans, nil
}

type edge struct {
	start, end int
	cand       int
}

type cell struct {
	cost  float64
	count int
	prev  int
	cand  int
}

func sameCost(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(a))
}

// cover runs the shortest path over positions 0..n with the lattice
// candidates and one plain edge per rune.
func (c *Classifier) cover(n int, cands []Candidate) ([]edge, error) {
	byStart := make([][]int, n)
	for i, cand := range cands {
		byStart[cand.Start] = append(byStart[cand.Start], i)
	}
	cells := make([]cell, n+1)
	for i := range cells {
		cells[i] = cell{cost: math.Inf(1), prev: -1, cand: -1}
	}
	cells[0].cost = 0

	boundaryPath := func(pos int) []int {
		var bs []int
		for p := pos; p > 0; p = cells[p].prev {
			bs = append(bs, p)
		}
		for i, j := 0, len(bs)-1; i < j; i, j = i+1, j-1 {
			bs[i], bs[j] = bs[j], bs[i]
		}
		return bs
	}
	relax := func(from, to int, w float64, cand int) {
		cost := cells[from].cost + w
		count := cells[from].count + 1
		cur := &cells[to]
		better := false
		switch {
		case math.IsInf(cur.cost, 1):
			better = true
		case !sameCost(cost, cur.cost):
			better = cost < cur.cost
		case count != cur.count:
			better = count < cur.count
		case from != cur.prev:
			a, b := boundaryPath(from), boundaryPath(cur.prev)
			for i := 0; i < len(a) && i < len(b); i++ {
				if a[i] != b[i] {
					better = a[i] < b[i]
					break
				}
			}
		}
		if better {
			*cur = cell{cost: cost, count: count, prev: from, cand: cand}
		}
	}

	for i := 0; i < n; i++ {
		if math.IsInf(cells[i].cost, 1) {
			continue
		}
		for _, ci := range byStart[i] {
			relax(i, cands[ci].End, cands[ci].Weight, ci)
		}
		relax(i, i+1, c.table.PlainCost, -1)
	}
	if math.IsInf(cells[n].cost, 1) {
		return nil, ErrCoverIncomplete
	}

	var edges []edge
	for p := n; p > 0; p = cells[p].prev {
		edges = append(edges, edge{start: cells[p].prev, end: p, cand: cells[p].cand})
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges, nil
}

// boundaries marks the rune offsets where a tagged span may start or end.
// Offsets inside a run of letters and marks, or inside a run of digits, are
// not boundaries.
func boundaries(runes []rune) []bool {
	b := make([]bool, len(runes)+1)
	b[0], b[len(runes)] = true, true
	for i := 1; i < len(runes); i++ {
		b[i] = !sameRun(runes[i-1], runes[i])
	}
	return b
}

// dashAfterDigit reports whether runes[i] is a dash directly after a digit.
// Such a dash joins two numbers, so no span may start there and read it as a
// minus sign.
func dashAfterDigit(runes []rune, i int) bool {
	if i == 0 || !unicode.IsDigit(runes[i-1]) {
		return false
	}
	switch runes[i] {
	case '-', '–', '−':
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || r == '\u200c' || r == '\u200d'
}

func sameRun(a, b rune) bool {
	if unicode.IsDigit(a) && unicode.IsDigit(b) {
		return true
	}
	return isWordRune(a) && isWordRune(b)
}
