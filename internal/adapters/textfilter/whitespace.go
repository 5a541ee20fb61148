package textfilter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/baditaflorin/go_text_normalization/internal/pool"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

// Whitespace collapses every run of whitespace, including line breaks and
// tabs, to a single space and trims both ends.
type Whitespace struct {
	// Pre-computed decision table for ASCII characters (0-127)
	// 0 = keep as is, 1 = whitespace
	asciiTable [128]byte

	bytePool *pool.BufferPool
}

// NewWhitespace creates a whitespace filter
func NewWhitespace() ports.TextFilter {
	w := &Whitespace{
		bytePool: pool.NewBufferPool(4096),
	}
	for i := 0; i < 128; i++ {
		if unicode.IsSpace(rune(i)) {
			w.asciiTable[i] = 1
		}
	}
	return w
}

// Apply implements ports.TextFilter.
func (w *Whitespace) Apply(text string) string {
	if len(text) == 0 {
		return ""
	}
	if w.clean(text) {
		return text
	}

	buffer := w.bytePool.Get()
	defer w.bytePool.Put(buffer)
	if cap(*buffer) < len(text) {
		*buffer = make([]byte, 0, len(text))
	}

	pending := false
	for i := 0; i < len(text); {
		b := text[i]
		if b < utf8.RuneSelf {
			if w.asciiTable[b] == 1 {
				pending = true
			} else {
				if pending && len(*buffer) > 0 {
					*buffer = append(*buffer, ' ')
				}
				pending = false
				*buffer = append(*buffer, b)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			pending = true
		} else {
			if pending && len(*buffer) > 0 {
				*buffer = append(*buffer, ' ')
			}
			pending = false
			*buffer = append(*buffer, text[i:i+size]...)
		}
		i += size
	}
	return string(*buffer)
}

// clean reports whether text is already collapsed and trimmed.
func (w *Whitespace) clean(text string) bool {
	prevSpace := true
	for i := 0; i < len(text); {
		b := text[i]
		space := false
		size := 1
		if b < utf8.RuneSelf {
			if w.asciiTable[b] == 1 {
				if b != ' ' {
					return false
				}
				space = true
			}
		} else {
			var r rune
			r, size = utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				return false
			}
		}
		if space && prevSpace {
			return false
		}
		prevSpace = space
		i += size
	}
	return !prevSpace
}

// Flatten replaces ASCII line breaks and tabs with spaces. Byte offsets are
// preserved.
type Flatten struct{}

// NewFlatten creates a flatten filter
func NewFlatten() ports.TextFilter { return Flatten{} }

// Apply implements ports.TextFilter.
func (Flatten) Apply(text string) string {
	i := strings.IndexAny(text, "\t\n\v\f\r")
	if i < 0 {
		return text
	}
	b := []byte(text)
	for ; i < len(b); i++ {
		switch b[i] {
		case '\t', '\n', '\v', '\f', '\r':
			b[i] = ' '
		}
	}
	return string(b)
}
