// Package verbalize turns classified spans into spoken-form text.
package verbalize

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/baditaflorin/go_text_normalization/internal/core/domain"
	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
	"github.com/baditaflorin/go_text_normalization/internal/core/grammar"
	"github.com/baditaflorin/go_text_normalization/internal/pool"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

var builders = pool.NewStringBuilderPool()

// ErrUnknownClass is wrapped by gaps for spans whose class is not in the table.
var ErrUnknownClass = errors.New("unknown class")

// Verbalizer renders spans with one grammar table.
type Verbalizer struct {
	table  *grammar.Table
	logger ports.Logger
}

// New returns a verbalizer for table.
func New(table *grammar.Table, logger ports.Logger) *Verbalizer {
	return &Verbalizer{table: table, logger: logger}
}

// Span verbalizes a single span. Plain spans are returned unchanged. A span
// whose verbalizer rejects the tagged value yields a *domain.VerbalizationGap.
func (v *Verbalizer) Span(span domain.TaggedSpan) (string, error) {
	if span.IsPlain() {
		return span.Text, nil
	}
	class, ok := v.table.Class(span.Class)
	if !ok {
		return "", v.gap(span, fmt.Errorf("%w: %s", ErrUnknownClass, span.Class))
	}
	fields := span.Fields
	if fields == nil {
		var err error
		if fields, err = domain.ParseFields(span.Tagged); err != nil {
			return "", v.gap(span, err)
		}
	}
	out, _, err := fst.ShortestPath(class.Verbalizer, domain.FormatFields(fields))
	if err != nil {
		return "", v.gap(span, err)
	}
	return out, nil
}

func (v *Verbalizer) gap(span domain.TaggedSpan, err error) *domain.VerbalizationGap {
	v.logger.Warn("verbalization gap",
		"language", v.table.Language,
		"class", span.Class,
		"tagged", span.Tagged,
		"error", err.Error())
	return &domain.VerbalizationGap{Class: span.Class, Tagged: span.Tagged, Text: span.Text, Err: err}
}

// Verbalize renders spans in order and joins them. Spans that cannot be
// verbalized keep their written text and are returned as gaps.
func (v *Verbalizer) Verbalize(spans []domain.TaggedSpan) (string, []*domain.VerbalizationGap) {
	b := builders.Get()
	defer builders.Put(b)
	var (
		gaps      []*domain.VerbalizationGap
		spaceNext bool
	)
	for _, span := range spans {
		text, err := v.Span(span)
		spaced := false
		if err != nil {
			var gap *domain.VerbalizationGap
			if errors.As(err, &gap) {
				gaps = append(gaps, gap)
			}
			text = span.Text
		} else if !span.IsPlain() {
			if class, ok := v.table.Class(span.Class); ok {
				spaced = class.Join == grammar.JoinSpaced
			}
		}
		if text == "" {
			continue
		}
		last, ok := b.LastRune()
		if (spaced && ok && isWordRune(last)) || (spaceNext && startsWord(text)) {
			b.WriteRune(' ')
		}
		b.WriteString(text)
		spaceNext = spaced
	}
	return b.String(), gaps
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func startsWord(s string) bool {
	r, n := utf8.DecodeRuneInString(s)
	return n > 0 && isWordRune(r)
}
