package grammar

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/baditaflorin/go_text_normalization/internal/adapters/grammarsource"
	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, b *Builder, rhs string) *fst.Machine {
	t.Helper()
	m, err := compileExpr(rhs, b.Lookup)
	require.NoError(t, err, rhs)
	return m
}

func TestCompileExpr(t *testing.T) {
	b := NewBuilder("xx")
	require.NoError(t, b.AddTable("digit", []fst.MapEntry{{In: "1", Out: "one"}, {In: "2", Out: "two"}}))

	tests := []struct {
		name  string
		rhs   string
		input string
		want  string
	}{
		{"literal", `"ab"`, "ab", "ab"},
		{"cross", `"a":"xyz"`, "a", "xyz"},
		{"insert and delete", `-"<" "a" +">"`, "<a", "a>"},
		{"class star", `[0-9]*`, "123", "123"},
		{"negated class", `[^ ]+`, "abc", "abc"},
		{"any", `. .`, "xy", "xy"},
		{"delete any", `-. "b"`, "ab", "b"},
		{"table ref", `$digit ( +" " $digit )*`, "121", "one two one"},
		{"alternation", `( "a":"x" | "b":"y" )+`, "abba", "xyyx"},
		{"counted", `[0-9]{2,3}`, "123", "123"},
		{"exact count", `[a-z]{2}`, "ab", "ab"},
		{"weights pick cheaper", `( "a":"heavy" <2> | "a":"light" <1> )`, "a", "light"},
		{"escaped quote", `"\"":"q"`, `"`, "q"},
		{"compose", `[0-9]+ @ $digit+`, "21", "twoone"},
		{"emit", `emit:integer( [0-9]+ )`, "12", `integer: "12" `},
		{"read", `read:integer( $digit+ )`, `integer: "12"`, "onetwo"},
		{"empty alternative", `"a" ( "b" | )`, "a", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compile(t, b, tt.rhs)
			got, _, err := fst.ShortestPath(m, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileExprErrors(t *testing.T) {
	b := NewBuilder("xx")
	for _, rhs := range []string{
		`"unterminated`,
		`[0-9`,
		`( "a"`,
		`"a" )`,
		`$missing`,
		`*`,
		`+x`,
		`<-1>`,
		`[9-0]`,
		`"a"{3,1}`,
		`foo:bar(`,
		`nope`,
	} {
		_, err := compileExpr(rhs, b.Lookup)
		assert.Error(t, err, rhs)
	}
}

func TestBuilderRowsUnionInOrder(t *testing.T) {
	b := NewBuilder("xx")
	require.NoError(t, b.AddRule("word", `"a":"first"`, 0))
	require.NoError(t, b.AddRule("word", `"a":"second"`, 0))
	require.NoError(t, b.AddRule("word", `"b":"bee"`, 0))
	m, err := b.Lookup("word")
	require.NoError(t, err)
	out, _, err := fst.ShortestPath(m, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	err = b.AddRule("word", `"c"`, 0)
	assert.Error(t, err, "rows after reference must fail")
	assert.Error(t, b.AddRule("loop", `$loop`, 0))
	assert.Equal(t, []string{"word"}, b.Names())
}

func TestLoadRulesReportsLine(t *testing.T) {
	b := NewBuilder("xx")
	data := []byte("# comment\n\nok\t\"a\"\nbad\t\"a\" )\n")
	err := b.LoadRules("rules/test.tsv", data)
	var le *GrammarLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "xx", le.Language)
	assert.Equal(t, "rules/test.tsv", le.Table)
	assert.Equal(t, 4, le.Line)
	assert.ErrorIs(t, err, ErrGrammarLoad)
}

func TestParseStringTable(t *testing.T) {
	entries, err := parseStringTable("xx", "t.tsv", []byte("1\tone\n2\ttwo\t0.5\n# c\nkm\n"))
	require.NoError(t, err)
	assert.Equal(t, []fst.MapEntry{
		{In: "1", Out: "one"},
		{In: "2", Out: "two", Weight: 0.5},
		{In: "km", Out: "km"},
	}, entries)

	for _, bad := range []string{"1\tone\tx\n", "a\tb\tc\td\n", "\tone\n", "1\tone\t-2\n", "# only comments\n"} {
		_, err := parseStringTable("xx", "t.tsv", []byte(bad))
		var le *GrammarLoadError
		assert.True(t, errors.As(err, &le), bad)
	}
}

var testGrammar = fstest.MapFS{
	"xx/grammar.yaml": {Data: []byte(`
language: xx
name: Test
tables:
  - file: tables/digit.tsv
rules:
  - rules/main.tsv
classes:
  - name: cardinal
    tagger: cardinal_tagger
    verbalizer: cardinal_verbalizer
    weight: 1.1
  - name: tight
    tagger: tight_tagger
    verbalizer: tight_verbalizer
    weight: 2
    join: attached
`)},
	"xx/tables/digit.tsv": {Data: []byte("1\tone\n2\ttwo\n")},
	"xx/rules/main.tsv": {Data: []byte(
		"cardinal_tagger\temit:integer( [0-9]+ )\n" +
			"cardinal_verbalizer\tread:integer( $digit ( +\" \" $digit )* )\n" +
			"tight_tagger\temit:sym( \"#\" )\n" +
			"tight_verbalizer\tread:sym( \"#\":\"hash\" )\n")},
}

func TestLoad(t *testing.T) {
	tbl, err := Load("xx", grammarsource.FromFS(testGrammar))
	require.NoError(t, err)
	assert.Equal(t, "Test", tbl.Name)
	assert.Equal(t, DefaultPlainCost, tbl.PlainCost)
	require.Len(t, tbl.Classes, 2)

	c, ok := tbl.Class("cardinal")
	require.True(t, ok)
	assert.Equal(t, JoinSpaced, c.Join)
	assert.Equal(t, fst.Alphabets{In: AlphabetText, Out: AlphabetTagged}, c.Tagger.Alphabets())

	tagged, _, err := fst.ShortestPath(c.Tagger, "12")
	require.NoError(t, err)
	assert.Equal(t, `integer: "12" `, tagged)
	spoken, _, err := fst.ShortestPath(c.Verbalizer, `integer: "12"`)
	require.NoError(t, err)
	assert.Equal(t, "one two", spoken)

	tight, _ := tbl.Class("tight")
	assert.Equal(t, JoinAttached, tight.Join)
	assert.Greater(t, tbl.NumStates(), 0)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("yy", grammarsource.FromFS(testGrammar))
	assert.ErrorIs(t, err, ErrNoGrammar)

	broken := fstest.MapFS{}
	for k, v := range testGrammar {
		broken[k] = v
	}
	broken["xx/tables/digit.tsv"] = &fstest.MapFile{Data: []byte("1\tone\tnope\n")}
	_, err = Load("xx", grammarsource.FromFS(broken))
	var le *GrammarLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "tables/digit.tsv", le.Table)
	assert.Equal(t, 1, le.Line)

	missing := fstest.MapFS{"xx/grammar.yaml": testGrammar["xx/grammar.yaml"]}
	_, err = Load("xx", grammarsource.FromFS(missing))
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "tables/digit.tsv", le.Table)

	badClass := fstest.MapFS{
		"xx/grammar.yaml": {Data: []byte("classes:\n  - name: c\n    tagger: nope\n    verbalizer: nope\n")},
	}
	_, err = Load("xx", grammarsource.FromFS(badClass))
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ManifestFile, le.Table)
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no classes", "language: xx\n"},
		{"reserved", "classes:\n  - {name: plain, tagger: a, verbalizer: b}\n"},
		{"duplicate", "classes:\n  - {name: a, tagger: a, verbalizer: b}\n  - {name: a, tagger: a, verbalizer: b}\n"},
		{"join", "classes:\n  - {name: a, tagger: a, verbalizer: b, join: sideways}\n"},
		{"negative", "classes:\n  - {name: a, tagger: a, verbalizer: b, weight: -1}\n"},
		{"syntax", "classes: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest("xx", []byte(tt.yaml))
			assert.ErrorIs(t, err, ErrGrammarLoad)
		})
	}
}
