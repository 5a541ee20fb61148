package textfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhitespace(t *testing.T) {
	w := NewWhitespace()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"clean", "one two", "one two"},
		{"runs", "  one \t\n two  ", "one two"},
		{"unicode space", "एक सौ तेईस", "एक सौ तेईस"},
		{"only spaces", " \n\t ", ""},
		{"line breaks", "a\r\nb", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Apply(tt.in))
		})
	}
}

func TestFlatten(t *testing.T) {
	f := NewFlatten()
	assert.Equal(t, "plain text", f.Apply("plain text"))
	assert.Equal(t, "a b  c ", f.Apply("a\tb\r\nc\n"))
	assert.Equal(t, len("१२\t३"), len(f.Apply("१२\t३")))
}

func TestNFC(t *testing.T) {
	n := NewNFC()
	assert.Equal(t, "\u00e9", n.Apply("e\u0301"))
	// Nukta letters are composition exclusions and stay decomposed.
	assert.Equal(t, "\u0915\u093c", n.Apply("\u0958"))
}

func TestLower(t *testing.T) {
	assert.Equal(t, "hello world", NewLower("en").Apply("Hello WORLD"))
	assert.Equal(t, "नमस्ते", NewLower("hi").Apply("नमस्ते"))
	assert.Equal(t, "abc", NewLower("not a tag!").Apply("ABC"))
}

func TestChain(t *testing.T) {
	f := NewFilterFactory("en")
	c := Chain{f.CreateFilter(WhitespaceFilter), f.CreateFilter(LowerFilter)}
	assert.Equal(t, "a b", c.Apply("  A \n B "))
	assert.Len(t, f.Pre(true), 2)
	assert.Len(t, f.Pre(false), 1)
	assert.Equal(t, "a  b", f.Pre(false).Apply("a\r\nb"))
	assert.Equal(t, "a b", f.Post().Apply(" a  b "))
}
