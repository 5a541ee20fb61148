package ports

// GrammarSource provides read access to grammar directories, one per
// language code. Names are slash-separated and relative to the source root.
type GrammarSource interface {
	// Read calls fn with the content of name. data is only valid until fn
	// returns. A missing file yields an error wrapping fs.ErrNotExist.
	Read(name string, fn func(data []byte) error) error
}
