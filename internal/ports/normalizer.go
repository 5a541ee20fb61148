package ports

import "github.com/baditaflorin/go_text_normalization/internal/core/domain"

// Normalizer converts written text to its spoken form for one language.
type Normalizer interface {
	Normalize(text string) string
	Classify(text string) ([]domain.TaggedSpan, error)
}

// TextFilter rewrites text before classification or after verbalization.
type TextFilter interface {
	Apply(text string) string
}
