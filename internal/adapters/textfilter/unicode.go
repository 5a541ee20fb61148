package textfilter

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

// NFC composes text into Unicode normalization form C.
type NFC struct{}

// NewNFC creates an NFC filter.
func NewNFC() ports.TextFilter {
	return NFC{}
}

// Apply implements ports.TextFilter.
func (NFC) Apply(text string) string {
	return norm.NFC.String(text)
}

// Lower lowercases text with the casing rules of one language.
type Lower struct {
	tag language.Tag
}

// NewLower creates a lowercasing filter for the BCP 47 code lang. Unknown
// codes fall back to language.Und.
func NewLower(lang string) ports.TextFilter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	return &Lower{tag: tag}
}

// Apply implements ports.TextFilter. A Caser keeps state, so each call gets
// its own.
func (l *Lower) Apply(text string) string {
	return cases.Lower(l.tag).String(text)
}
