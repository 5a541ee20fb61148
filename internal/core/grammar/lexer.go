package grammar

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokCross
	tokInsert
	tokDelete
	tokClass
	tokDeleteClass
	tokAny
	tokDeleteAny
	tokRef
	tokWeight
	tokLParen
	tokRParen
	tokEmit
	tokRead
	tokBar
	tokCompose
	tokQuant
)

type token struct {
	kind   tokenKind
	pos    int
	text   string
	out    string
	set    *fst.RuneSet
	weight float64
	lo, hi int
}

type lexer struct {
	src     []rune
	i       int
	termEnd bool
}

func (lx *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("col %d: %s", lx.i+1, fmt.Sprintf(format, args...))
}

func (lx *lexer) peek(off int) rune {
	if lx.i+off < len(lx.src) {
		return lx.src[lx.i+off]
	}
	return 0
}

func tokenize(rhs string) ([]token, error) {
	lx := &lexer{src: []rune(rhs)}
	var toks []token
	for {
		t, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) next() (token, error) {
	for lx.i < len(lx.src) && unicode.IsSpace(lx.src[lx.i]) {
		lx.i++
		lx.termEnd = false
	}
	pos := lx.i
	if lx.i >= len(lx.src) {
		return token{kind: tokEOF, pos: pos}, nil
	}
	c := lx.src[lx.i]

	if lx.termEnd {
		switch c {
		case '*':
			lx.i++
			return token{kind: tokQuant, pos: pos, lo: 0, hi: -1}, nil
		case '+':
			lx.i++
			return token{kind: tokQuant, pos: pos, lo: 1, hi: -1}, nil
		case '?':
			lx.i++
			return token{kind: tokQuant, pos: pos, lo: 0, hi: 1}, nil
		case '{':
			return lx.counted(pos)
		}
	}

	switch c {
	case '"':
		s, err := lx.quoted()
		if err != nil {
			return token{}, err
		}
		lx.termEnd = true
		if lx.peek(0) == ':' && lx.peek(1) == '"' {
			lx.i++
			out, err := lx.quoted()
			if err != nil {
				return token{}, err
			}
			return token{kind: tokCross, pos: pos, text: s, out: out}, nil
		}
		return token{kind: tokString, pos: pos, text: s}, nil
	case '+':
		lx.i++
		if lx.peek(0) != '"' {
			return token{}, lx.errorf(`'+' must precede a quoted insertion`)
		}
		s, err := lx.quoted()
		if err != nil {
			return token{}, err
		}
		lx.termEnd = true
		return token{kind: tokInsert, pos: pos, text: s}, nil
	case '-':
		lx.i++
		lx.termEnd = true
		switch lx.peek(0) {
		case '"':
			s, err := lx.quoted()
			return token{kind: tokDelete, pos: pos, text: s}, err
		case '[':
			set, err := lx.class()
			return token{kind: tokDeleteClass, pos: pos, set: set}, err
		case '.':
			lx.i++
			return token{kind: tokDeleteAny, pos: pos}, nil
		}
		return token{}, lx.errorf(`'-' must precede a string, class or '.'`)
	case '[':
		set, err := lx.class()
		lx.termEnd = true
		return token{kind: tokClass, pos: pos, set: set}, err
	case '.':
		lx.i++
		lx.termEnd = true
		return token{kind: tokAny, pos: pos}, nil
	case '$':
		lx.i++
		name := lx.ident()
		if name == "" {
			return token{}, lx.errorf("expected a name after '$'")
		}
		lx.termEnd = true
		return token{kind: tokRef, pos: pos, text: name}, nil
	case '<':
		end := lx.i + 1
		for end < len(lx.src) && lx.src[end] != '>' {
			end++
		}
		if end == len(lx.src) {
			return token{}, lx.errorf("unterminated weight")
		}
		body := string(lx.src[lx.i+1 : end])
		w, err := strconv.ParseFloat(strings.TrimSpace(body), 64)
		if err != nil || w < 0 {
			return token{}, lx.errorf("invalid weight %q", body)
		}
		lx.i = end + 1
		lx.termEnd = true
		return token{kind: tokWeight, pos: pos, weight: w}, nil
	case '(':
		lx.i++
		lx.termEnd = false
		return token{kind: tokLParen, pos: pos}, nil
	case ')':
		lx.i++
		lx.termEnd = true
		return token{kind: tokRParen, pos: pos}, nil
	case '|':
		lx.i++
		lx.termEnd = false
		return token{kind: tokBar, pos: pos}, nil
	case '@':
		lx.i++
		lx.termEnd = false
		return token{kind: tokCompose, pos: pos}, nil
	}

	if isIdentRune(c) {
		word := lx.ident()
		if lx.peek(0) != ':' {
			return token{}, lx.errorf("unexpected word %q", word)
		}
		lx.i++
		key := lx.ident()
		if key == "" || lx.peek(0) != '(' {
			return token{}, lx.errorf("expected %s:key(", word)
		}
		lx.i++
		lx.termEnd = false
		switch word {
		case "emit":
			return token{kind: tokEmit, pos: pos, text: key}, nil
		case "read":
			return token{kind: tokRead, pos: pos, text: key}, nil
		}
		return token{}, lx.errorf("unknown field form %q", word)
	}
	return token{}, lx.errorf("unexpected %q", c)
}

func (lx *lexer) counted(pos int) (token, error) {
	end := lx.i
	for end < len(lx.src) && lx.src[end] != '}' {
		end++
	}
	if end == len(lx.src) {
		return token{}, lx.errorf("unterminated repetition")
	}
	body := string(lx.src[lx.i+1 : end])
	lx.i = end + 1
	lo, hi := 0, 0
	var err error
	if a, b, ok := strings.Cut(body, ","); ok {
		if lo, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
			return token{}, lx.errorf("invalid repetition {%s}", body)
		}
		hi = -1
		if strings.TrimSpace(b) != "" {
			if hi, err = strconv.Atoi(strings.TrimSpace(b)); err != nil || hi < lo {
				return token{}, lx.errorf("invalid repetition {%s}", body)
			}
		}
	} else {
		if lo, err = strconv.Atoi(strings.TrimSpace(body)); err != nil {
			return token{}, lx.errorf("invalid repetition {%s}", body)
		}
		hi = lo
	}
	if lo < 0 {
		return token{}, lx.errorf("invalid repetition {%s}", body)
	}
	return token{kind: tokQuant, pos: pos, lo: lo, hi: hi}, nil
}

func (lx *lexer) ident() string {
	start := lx.i
	for lx.i < len(lx.src) && isIdentRune(lx.src[lx.i]) {
		lx.i++
	}
	return string(lx.src[start:lx.i])
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func unescape(r rune) rune {
	switch r {
	case 't':
		return '\t'
	case 'n':
		return '\n'
	}
	return r
}

// quoted reads a double-quoted string starting at the opening quote.
func (lx *lexer) quoted() (string, error) {
	lx.i++
	var sb strings.Builder
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		switch c {
		case '"':
			lx.i++
			return sb.String(), nil
		case '\\':
			if lx.i+1 >= len(lx.src) {
				return "", lx.errorf("dangling escape")
			}
			lx.i++
			sb.WriteRune(unescape(lx.src[lx.i]))
		default:
			sb.WriteRune(c)
		}
		lx.i++
	}
	return "", lx.errorf("unterminated string")
}

// class reads a bracketed character class starting at '['.
func (lx *lexer) class() (*fst.RuneSet, error) {
	lx.i++
	negate := false
	if lx.peek(0) == '^' {
		negate = true
		lx.i++
	}
	var ranges []fst.Range
	readRune := func() (rune, error) {
		if lx.i >= len(lx.src) {
			return 0, lx.errorf("unterminated class")
		}
		c := lx.src[lx.i]
		lx.i++
		if c == '\\' {
			if lx.i >= len(lx.src) {
				return 0, lx.errorf("dangling escape")
			}
			c = unescape(lx.src[lx.i])
			lx.i++
		}
		return c, nil
	}
	for {
		if lx.i >= len(lx.src) {
			return nil, lx.errorf("unterminated class")
		}
		if lx.src[lx.i] == ']' {
			lx.i++
			break
		}
		lo, err := readRune()
		if err != nil {
			return nil, err
		}
		hi := lo
		if lx.peek(0) == '-' && lx.peek(1) != ']' && lx.peek(1) != 0 {
			lx.i++
			if hi, err = readRune(); err != nil {
				return nil, err
			}
			if hi < lo {
				return nil, lx.errorf("reversed range %q-%q", lo, hi)
			}
		}
		ranges = append(ranges, fst.Range{Lo: lo, Hi: hi})
	}
	set := fst.NewRuneSet(ranges...)
	if negate {
		set = set.Complement()
	}
	if set.Empty() {
		return nil, lx.errorf("empty class")
	}
	return set, nil
}
