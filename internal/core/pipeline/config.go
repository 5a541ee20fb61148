package pipeline

import (
	"fmt"
	"runtime"

	"github.com/baditaflorin/go_text_normalization/internal/core/domain"
)

// Config holds the settings of one normalization pipeline.
type Config struct {
	Language domain.Language
	Casing   domain.Casing
	// NFC composes input to Unicode NFC before classification.
	NFC bool
	// Workers bounds the parallelism of batch calls.
	Workers int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Language: domain.Hindi,
		Casing:   domain.Cased,
		NFC:      false,
		Workers:  runtime.NumCPU(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := domain.ParseLanguage(string(c.Language)); err != nil {
		return err
	}
	if _, err := domain.ParseCasing(string(c.Casing)); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}
