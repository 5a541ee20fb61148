// Package grammar loads per-language grammar data into immutable tables of
// tagger and verbalizer transducers.
//
// A grammar directory holds a grammar.yaml manifest, string tables and rule
// files. Rule files are tab-separated rows of lhs, rhs and an optional
// weight. Rows sharing an lhs are unioned in file order. The rhs language:
//
//	"lit"          accept lit
//	"in":"out"     rewrite in to out
//	+"s"  -"s"     insert or delete s
//	[0-9] [^"]     accept one rune of a class
//	-[..]  .  -.   delete a class rune, accept any rune, delete any rune
//	$name          a table or an earlier rule
//	<1.5>          add a weight
//	( ... )        group
//	emit:key(...)  wrap the output as key: "..."
//	read:key(...)  consume key: "..." and the space after it
//	a b            concatenation
//	a | b          union
//	a @ b          composition (lowest precedence)
//	* + ? {n,m}    repetition, written directly after a term
package grammar

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

// Alphabet names declared on loaded transducers.
const (
	AlphabetText   = "text"
	AlphabetTagged = "tagged"
)

// ErrNoGrammar is returned when a source has no manifest for a language.
var ErrNoGrammar = errors.New("no grammar for language")

// Class is one semiotic class of a loaded grammar.
type Class struct {
	Name       string
	Weight     float64
	Join       JoinPolicy
	Tagger     *fst.Machine
	Verbalizer *fst.Machine
}

// Table is the immutable grammar of one language.
type Table struct {
	Language  string
	Name      string
	PlainCost float64
	Classes   []*Class
	Tests     []string
	byName    map[string]*Class
}

// Class returns the class called name.
func (t *Table) Class(name string) (*Class, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// NumStates sums the states of every class transducer.
func (t *Table) NumStates() int {
	n := 0
	for _, c := range t.Classes {
		n += c.Tagger.NumStates() + c.Verbalizer.NumStates()
	}
	return n
}

// Load reads the grammar directory lang from src.
func Load(lang string, src ports.GrammarSource) (*Table, error) {
	var man *Manifest
	err := src.Read(path.Join(lang, ManifestFile), func(data []byte) error {
		var err error
		man, err = ParseManifest(lang, data)
		return err
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoGrammar, lang)
		}
		return nil, err
	}
	if man.Language != "" && man.Language != lang {
		return nil, loadError(lang, ManifestFile, 0, "manifest declares language %q", man.Language)
	}

	b := NewBuilder(lang)
	for _, spec := range man.Tables {
		name := spec.TableName()
		err := src.Read(path.Join(lang, spec.File), func(data []byte) error {
			entries, err := parseStringTable(lang, spec.File, data)
			if err != nil {
				return err
			}
			if err := b.AddTable(name, entries); err != nil {
				return &GrammarLoadError{Language: lang, Table: spec.File, Err: err}
			}
			return nil
		})
		if err != nil {
			return nil, asLoadError(lang, spec.File, err)
		}
	}
	for _, file := range man.Rules {
		err := src.Read(path.Join(lang, file), func(data []byte) error {
			return b.LoadRules(file, data)
		})
		if err != nil {
			return nil, asLoadError(lang, file, err)
		}
	}

	t := &Table{
		Language:  lang,
		Name:      man.Name,
		PlainCost: man.PlainCost,
		Tests:     man.Tests,
		byName:    make(map[string]*Class, len(man.Classes)),
	}
	for _, spec := range man.Classes {
		tagger, err := b.Lookup(spec.Tagger)
		if err != nil {
			return nil, loadError(lang, ManifestFile, 0, "class %s: tagger: %v", spec.Name, err)
		}
		verbalizer, err := b.Lookup(spec.Verbalizer)
		if err != nil {
			return nil, loadError(lang, ManifestFile, 0, "class %s: verbalizer: %v", spec.Name, err)
		}
		c := &Class{
			Name:       spec.Name,
			Weight:     spec.Weight,
			Join:       spec.Join,
			Tagger:     fst.Trim(tagger).WithAlphabets(fst.Alphabets{In: AlphabetText, Out: AlphabetTagged}),
			Verbalizer: fst.Trim(verbalizer).WithAlphabets(fst.Alphabets{In: AlphabetTagged, Out: AlphabetText}),
		}
		t.Classes = append(t.Classes, c)
		t.byName[c.Name] = c
	}
	return t, nil
}

func asLoadError(lang, file string, err error) error {
	var le *GrammarLoadError
	if errors.As(err, &le) {
		return err
	}
	return &GrammarLoadError{Language: lang, Table: file, Msg: "read", Err: err}
}
