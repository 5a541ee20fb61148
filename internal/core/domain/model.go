// Package domain holds the value types shared by the normalization pipeline.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Language is one of the enumerated normalization languages.
type Language string

// The supported language codes.
const (
	English       Language = "en"
	Hindi         Language = "hi"
	Bengali       Language = "bn"
	Kannada       Language = "kn"
	Tamil         Language = "ta"
	Telugu        Language = "te"
	Marathi       Language = "mr"
	Gujarati      Language = "gu"
	Malayalam     Language = "ml"
	Nepali        Language = "ne"
	Sanskrit      Language = "sa"
	Punjabi       Language = "pa"
	Assamese      Language = "as"
	Bodo          Language = "brx"
	Dogri         Language = "doi"
	Bhojpuri      Language = "bho"
	Magahi        Language = "mag"
	Maithili      Language = "mai"
	Chhattisgarhi Language = "hne"
)

// Languages lists every code in a fixed order.
var Languages = []Language{
	English, Hindi, Bengali, Kannada, Tamil, Telugu, Marathi, Gujarati, Malayalam, Nepali,
	Sanskrit, Punjabi, Assamese, Bodo, Dogri, Bhojpuri, Magahi, Maithili, Chhattisgarhi,
}

var (
	// ErrUnsupportedLanguage is returned when a code is unknown or has no grammar.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrInvalidCasing is returned for a casing mode outside the enumeration.
	ErrInvalidCasing = errors.New("invalid casing mode")
)

// ParseLanguage validates a language code.
func ParseLanguage(code string) (Language, error) {
	c := Language(strings.ToLower(strings.TrimSpace(code)))
	for _, l := range Languages {
		if l == c {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// Casing selects how plain segments are cased after verbalization.
type Casing string

const (
	Cased      Casing = "cased"
	LowerCased Casing = "lower_cased"
)

// ParseCasing validates a casing mode. The empty string means Cased.
func ParseCasing(s string) (Casing, error) {
	switch Casing(s) {
	case Cased, "":
		return Cased, nil
	case LowerCased:
		return LowerCased, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCasing, s)
}

// PlainClass is the pseudo-class of untagged text.
const PlainClass = "plain"

// TaggedSpan is one element of the cover of an input string. Start and End
// are byte offsets into the input. Tagged holds the canonical field
// serialization, or the raw tagger output when it does not parse.
type TaggedSpan struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Text   string  `json:"text"`
	Class  string  `json:"class"`
	Tagged string  `json:"tagged,omitempty"`
	Fields []Field `json:"fields,omitempty"`
	Weight float64 `json:"weight"`
}

// IsPlain reports whether the span carries no semiotic class.
func (s TaggedSpan) IsPlain() bool { return s.Class == PlainClass }

// VerbalizationGap reports a verbalizer that rejected its tagger's output.
type VerbalizationGap struct {
	Class  string
	Tagged string
	Text   string
	Err    error
}

func (g *VerbalizationGap) Error() string {
	return fmt.Sprintf("verbalization gap: class %s rejected %q (from %q)", g.Class, g.Tagged, g.Text)
}

func (g *VerbalizationGap) Unwrap() error { return g.Err }
