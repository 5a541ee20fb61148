package grammar

import (
	"fmt"
	"strings"

	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
)

// Builder accumulates tables and rule rows for one language. A name must be
// defined before it is referenced and cannot gain rows once referenced, which
// keeps every grammar non-recursive.
type Builder struct {
	lang  string
	rows  map[string][]fst.Fst
	built map[string]*fst.Machine
	used  map[string]bool
	order []string
}

// NewBuilder returns an empty builder for lang.
func NewBuilder(lang string) *Builder {
	return &Builder{
		lang:  lang,
		rows:  make(map[string][]fst.Fst),
		built: make(map[string]*fst.Machine),
		used:  make(map[string]bool),
	}
}

// Names returns the defined names in definition order.
func (b *Builder) Names() []string { return append([]string(nil), b.order...) }

func (b *Builder) add(name string, m fst.Fst) error {
	if b.used[name] {
		return fmt.Errorf("%s gains rows after being referenced", name)
	}
	if _, ok := b.rows[name]; !ok {
		b.order = append(b.order, name)
	}
	b.rows[name] = append(b.rows[name], m)
	delete(b.built, name)
	return nil
}

// AddTable defines name as a string map.
func (b *Builder) AddTable(name string, entries []fst.MapEntry) error {
	if _, ok := b.rows[name]; ok {
		return fmt.Errorf("table %s is already defined", name)
	}
	return b.add(name, fst.StringMap(entries))
}

// AddRule compiles rhs and appends it, with weight w, to the union for lhs.
func (b *Builder) AddRule(lhs, rhs string, w fst.Weight) error {
	if !validName(lhs) {
		return fmt.Errorf("invalid rule name %q", lhs)
	}
	m, err := compileExpr(rhs, func(name string) (*fst.Machine, error) {
		if name == lhs {
			return nil, fmt.Errorf("%s refers to itself", lhs)
		}
		return b.Lookup(name)
	})
	if err != nil {
		return err
	}
	if w != fst.One {
		m = fst.Weighted(m, w)
	}
	return b.add(lhs, m)
}

// Lookup returns the union of every row of name and freezes it.
func (b *Builder) Lookup(name string) (*fst.Machine, error) {
	if m, ok := b.built[name]; ok {
		b.used[name] = true
		return m, nil
	}
	rows, ok := b.rows[name]
	if !ok {
		return nil, fmt.Errorf("undefined name $%s", name)
	}
	var m *fst.Machine
	if len(rows) == 1 {
		m = rows[0].(*fst.Machine)
	} else {
		m = fst.Union(rows...)
	}
	b.built[name] = m
	b.used[name] = true
	return m, nil
}

// LoadRules reads rule rows `lhs<TAB>rhs[<TAB>weight]` into the builder.
func (b *Builder) LoadRules(file string, data []byte) error {
	rows, err := readRows(data)
	if err != nil {
		return &GrammarLoadError{Language: b.lang, Table: file, Msg: "read", Err: err}
	}
	for _, r := range rows {
		if len(r.cells) < 2 || len(r.cells) > 3 {
			return loadError(b.lang, file, r.line, "expected lhs, rhs and optional weight, got %d columns", len(r.cells))
		}
		lhs := strings.TrimSpace(r.cells[0])
		w := fst.One
		if len(r.cells) == 3 {
			var ok bool
			if w, ok = parseWeight(r.cells[2]); !ok {
				return loadError(b.lang, file, r.line, "invalid weight %q", r.cells[2])
			}
		}
		if err := b.AddRule(lhs, r.cells[1], w); err != nil {
			return &GrammarLoadError{Language: b.lang, Table: file, Line: r.line, Msg: lhs, Err: err}
		}
	}
	return nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}
