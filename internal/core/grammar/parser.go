package grammar

import (
	"fmt"

	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
)

// resolver returns the machine bound to a rule or table name.
type resolver func(name string) (*fst.Machine, error)

type parser struct {
	toks    []token
	i       int
	resolve resolver
}

// compileExpr parses one right-hand side into a transducer.
//
//	expr  := union ('@' union)*
//	union := seq ('|' seq)*
//	seq   := term*
//	term  := atom quant*
func compileExpr(rhs string, resolve resolver) (*fst.Machine, error) {
	toks, err := tokenize(rhs)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, resolve: resolve}
	m, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("col %d: unexpected token", t.pos+1)
	}
	return m, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) take() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expr() (*fst.Machine, error) {
	left, err := p.union()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokCompose {
		p.take()
		right, err := p.union()
		if err != nil {
			return nil, err
		}
		if left, err = fst.ComposeExpand(left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) union() (*fst.Machine, error) {
	first, err := p.seq()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokBar {
		return first, nil
	}
	alts := []fst.Fst{first}
	for p.peek().kind == tokBar {
		p.take()
		next, err := p.seq()
		if err != nil {
			return nil, err
		}
		alts = append(alts, next)
	}
	return fst.Union(alts...), nil
}

func (p *parser) seq() (*fst.Machine, error) {
	var parts []fst.Fst
	for {
		switch p.peek().kind {
		case tokEOF, tokBar, tokCompose, tokRParen:
			if len(parts) == 1 {
				return parts[0].(*fst.Machine), nil
			}
			return fst.Concat(parts...), nil
		}
		m, err := p.term()
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
}

func (p *parser) term() (*fst.Machine, error) {
	m, err := p.atom()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokQuant {
		q := p.take()
		switch {
		case q.lo == 0 && q.hi == -1:
			m = fst.Star(m)
		case q.lo == 1 && q.hi == -1:
			m = fst.Plus(m)
		case q.lo == 0 && q.hi == 1:
			m = fst.Optional(m)
		default:
			m = fst.Repeat(m, q.lo, q.hi)
		}
	}
	return m, nil
}

func (p *parser) atom() (*fst.Machine, error) {
	t := p.take()
	switch t.kind {
	case tokString:
		return fst.Accept(t.text), nil
	case tokCross:
		return fst.Cross(t.text, t.out), nil
	case tokInsert:
		return fst.Insert(t.text), nil
	case tokDelete:
		return fst.Delete(t.text), nil
	case tokClass:
		return fst.AcceptSet(t.set), nil
	case tokDeleteClass:
		return fst.DeleteSet(t.set), nil
	case tokAny:
		return fst.AcceptSet(fst.AnyRune), nil
	case tokDeleteAny:
		return fst.DeleteSet(fst.AnyRune), nil
	case tokWeight:
		return fst.Weighted(fst.Epsilon(), fst.Weight(t.weight)), nil
	case tokRef:
		return p.resolve(t.text)
	case tokLParen, tokEmit, tokRead:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.take().kind != tokRParen {
			return nil, fmt.Errorf("col %d: missing ')'", t.pos+1)
		}
		switch t.kind {
		case tokEmit:
			return EmitField(t.text, inner), nil
		case tokRead:
			return ReadField(t.text, inner), nil
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("col %d: unexpected end of rule", t.pos+1)
	}
	return nil, fmt.Errorf("col %d: unexpected token", t.pos+1)
}

// EmitField wraps the output of value in the tagged-field markup for key.
func EmitField(key string, value fst.Fst) *fst.Machine {
	return fst.Concat(fst.Insert(key+`: "`), value, fst.Insert(`" `))
}

// ReadField consumes the tagged-field markup for key around value, together
// with the single space that separates it from the next field.
func ReadField(key string, value fst.Fst) *fst.Machine {
	return fst.Concat(fst.Delete(key+`: "`), value, fst.Delete(`"`), fst.Optional(fst.Delete(" ")))
}
