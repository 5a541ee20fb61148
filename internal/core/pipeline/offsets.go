package pipeline

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/baditaflorin/go_text_normalization/internal/core/domain"
)

// segmentEdge pairs an offset in the caller's text with the same point in
// the filtered text.
type segmentEdge struct {
	src, dst int
}

// realign moves span offsets from filtered back onto text. The pre-filters
// work on one normalization segment at a time, so segment edges exist in
// both strings. A span edge inside a segment moves to the end of the segment
// and spans left empty are dropped. Spans are returned unchanged when the
// filters did not keep segments apart.
func realign(text, filtered string, spans []domain.TaggedSpan, pre func(string) string) []domain.TaggedSpan {
	if text == filtered || len(spans) == 0 {
		return spans
	}
	edges := []segmentEdge{{0, 0}}
	src, dst := 0, 0
	for src < len(text) {
		n := norm.NFC.NextBoundaryInString(text[src:], true)
		if n <= 0 {
			n = len(text) - src
		}
		dst += len(pre(text[src : src+n]))
		src += n
		edges = append(edges, segmentEdge{src, dst})
	}
	if dst != len(filtered) {
		return spans
	}

	at := func(off int) int {
		i := sort.Search(len(edges), func(i int) bool { return edges[i].dst >= off })
		if i == len(edges) {
			return len(text)
		}
		return edges[i].src
	}
	out := make([]domain.TaggedSpan, 0, len(spans))
	for _, s := range spans {
		s.Start, s.End = at(s.Start), at(s.End)
		if s.Start == s.End {
			continue
		}
		s.Text = text[s.Start:s.End]
		out = append(out, s)
	}
	return out
}
