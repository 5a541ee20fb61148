// Package textfilter provides the text filters applied before classification
// and after verbalization.
package textfilter

import "github.com/baditaflorin/go_text_normalization/internal/ports"

// Chain applies filters in order.
type Chain []ports.TextFilter

// Apply implements ports.TextFilter.
func (c Chain) Apply(text string) string {
	for _, f := range c {
		text = f.Apply(text)
	}
	return text
}

// FilterType selects a predefined filter.
type FilterType int

const (
	// WhitespaceFilter collapses and trims whitespace
	WhitespaceFilter FilterType = iota
	// NFCFilter composes to Unicode NFC
	NFCFilter
	// LowerFilter lowercases with language-specific rules
	LowerFilter
	// FlattenFilter turns line breaks and tabs into spaces
	FlattenFilter
)

// FilterFactory creates filters by type for one language.
type FilterFactory struct {
	language string
}

// NewFilterFactory creates a factory for the language code lang.
func NewFilterFactory(lang string) *FilterFactory {
	return &FilterFactory{language: lang}
}

// CreateFilter creates a filter of the specified type
func (f *FilterFactory) CreateFilter(filterType FilterType) ports.TextFilter {
	switch filterType {
	case NFCFilter:
		return NewNFC()
	case LowerFilter:
		return NewLower(f.language)
	case FlattenFilter:
		return NewFlatten()
	default:
		return NewWhitespace()
	}
}

// Pre returns the filters run before classification. Runs of whitespace are
// kept so that span offsets index the caller's text.
func (f *FilterFactory) Pre(nfc bool) Chain {
	chain := Chain{f.CreateFilter(FlattenFilter)}
	if nfc {
		chain = append(chain, f.CreateFilter(NFCFilter))
	}
	return chain
}

// Post returns the filters run on verbalized output.
func (f *FilterFactory) Post() Chain {
	return Chain{f.CreateFilter(WhitespaceFilter)}
}
