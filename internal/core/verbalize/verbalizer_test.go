package verbalize

import (
	"testing"
	"testing/fstest"

	"github.com/baditaflorin/go_text_normalization/internal/adapters/grammarsource"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/logger"
	"github.com/baditaflorin/go_text_normalization/internal/core/domain"
	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
	"github.com/baditaflorin/go_text_normalization/internal/core/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGrammar = fstest.MapFS{
	"xx/grammar.yaml": {Data: []byte(`
language: xx
tables:
  - {name: digit, file: tables/digits.tsv}
rules: [rules/main.tsv]
classes:
  - {name: cardinal, tagger: cardinal_tagger, verbalizer: cardinal_verbalizer, weight: 1.1}
  - {name: tight, tagger: tight_tagger, verbalizer: tight_verbalizer, weight: 1, join: attached}
`)},
	"xx/tables/digits.tsv": {Data: []byte("1\tone\n2\ttwo\n")},
	"xx/rules/main.tsv": {Data: []byte(
		"cardinal_tagger\temit:integer( [0-9]+ )\n" +
			"cardinal_verbalizer\tread:integer( $digit ( +\" \" $digit )* )\n" +
			"tight_tagger\temit:sym( \"#\" )\n" +
			"tight_verbalizer\tread:sym( \"#\":\"hash\" )\n")},
}

func newVerbalizer(t *testing.T) *Verbalizer {
	t.Helper()
	tbl, err := grammar.Load("xx", grammarsource.FromFS(testGrammar))
	require.NoError(t, err)
	return New(tbl, logger.Nop())
}

func plain(s string) domain.TaggedSpan {
	return domain.TaggedSpan{Class: domain.PlainClass, Text: s}
}

func card(text, value string) domain.TaggedSpan {
	return domain.TaggedSpan{
		Class:  "cardinal",
		Text:   text,
		Tagged: `integer: "` + value + `"`,
		Fields: []domain.Field{{Key: "integer", Value: value}},
	}
}

func TestVerbalizeJoin(t *testing.T) {
	v := newVerbalizer(t)
	tight := domain.TaggedSpan{Class: "tight", Text: "#", Tagged: `sym: "#"`}

	tests := []struct {
		name  string
		spans []domain.TaggedSpan
		want  string
	}{
		{"plain only", []domain.TaggedSpan{plain("hello there")}, "hello there"},
		{"spaced between words", []domain.TaggedSpan{plain("x"), card("12", "12"), plain("y")}, "x one two y"},
		{"existing spaces kept", []domain.TaggedSpan{plain("x "), card("12", "12"), plain(" y")}, "x one two y"},
		{"punctuation stays attached", []domain.TaggedSpan{plain("("), card("21", "21"), plain(")")}, "(two one)"},
		{"adjacent spaced spans", []domain.TaggedSpan{card("1", "1"), card("2", "2")}, "one two"},
		{"attached class", []domain.TaggedSpan{plain("a"), tight, plain("b")}, "ahashb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gaps := v.Verbalize(tt.spans)
			assert.Empty(t, gaps)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerbalizeGaps(t *testing.T) {
	v := newVerbalizer(t)

	got, gaps := v.Verbalize([]domain.TaggedSpan{plain("n="), card("3", "3"), plain("!")})
	assert.Equal(t, "n=3!", got)
	require.Len(t, gaps, 1)
	assert.Equal(t, "cardinal", gaps[0].Class)
	assert.Equal(t, "3", gaps[0].Text)
	assert.ErrorIs(t, gaps[0], fst.ErrNoPath)

	malformed := domain.TaggedSpan{Class: "cardinal", Text: "12", Tagged: `integer "12"`}
	_, err := v.Span(malformed)
	var gap *domain.VerbalizationGap
	require.ErrorAs(t, err, &gap)
	assert.ErrorIs(t, err, domain.ErrMalformedFields)

	_, err = v.Span(domain.TaggedSpan{Class: "money", Text: "$1", Tagged: `integer: "1"`})
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestSpanReparsesTagged(t *testing.T) {
	v := newVerbalizer(t)
	out, err := v.Span(domain.TaggedSpan{Class: "cardinal", Text: "12", Tagged: `integer:"12"`})
	require.NoError(t, err)
	assert.Equal(t, "one two", out)
}
