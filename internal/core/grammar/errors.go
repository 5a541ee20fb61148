package grammar

import (
	"errors"
	"fmt"
)

// ErrGrammarLoad is the sentinel every GrammarLoadError unwraps to.
var ErrGrammarLoad = errors.New("grammar load error")

// GrammarLoadError locates a defect in a language's grammar data.
type GrammarLoadError struct {
	Language string
	Table    string
	Line     int
	Msg      string
	Err      error
}

func (e *GrammarLoadError) Error() string {
	loc := e.Table
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Table, e.Line)
	}
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	return fmt.Sprintf("grammar %s: %s: %s", e.Language, loc, msg)
}

func (e *GrammarLoadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrGrammarLoad, e.Err}
	}
	return []error{ErrGrammarLoad}
}

func loadError(lang, table string, line int, format string, args ...any) *GrammarLoadError {
	return &GrammarLoadError{Language: lang, Table: table, Line: line, Msg: fmt.Sprintf(format, args...)}
}
