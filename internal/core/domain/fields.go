package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Field is one key/value pair of a tagged representation.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ErrMalformedFields is returned by ParseFields.
var ErrMalformedFields = errors.New("malformed tagged fields")

// FormatFields renders fields as `key: "value"` joined by single spaces.
func FormatFields(fields []Field) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.Key)
		sb.WriteString(`: "`)
		sb.WriteString(f.Value)
		sb.WriteByte('"')
	}
	return sb.String()
}

// ParseFields reads the output of a tagger. Whitespace between fields and
// after the colon is optional. Values may not contain a double quote.
func ParseFields(s string) ([]Field, error) {
	var fields []Field
	i := 0
	skip := func() {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	for {
		skip()
		if i == len(s) {
			return fields, nil
		}
		start := i
		for i < len(s) && isKeyByte(s[i]) {
			i++
		}
		if i == start {
			return nil, fmt.Errorf("%w: expected key at offset %d in %q", ErrMalformedFields, i, s)
		}
		key := s[start:i]
		if i == len(s) || s[i] != ':' {
			return nil, fmt.Errorf("%w: expected ':' after %q", ErrMalformedFields, key)
		}
		i++
		skip()
		if i == len(s) || s[i] != '"' {
			return nil, fmt.Errorf("%w: expected quoted value for %q", ErrMalformedFields, key)
		}
		i++
		end := strings.IndexByte(s[i:], '"')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated value for %q", ErrMalformedFields, key)
		}
		fields = append(fields, Field{Key: key, Value: s[i : i+end]})
		i += end + 1
	}
}

func isKeyByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
