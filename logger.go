package textnormalization

import (
	"os"

	"github.com/baditaflorin/go_text_normalization/internal/adapters/logger"
	"github.com/baditaflorin/l"
)

// createDefaultLogger creates the logger used when no WithLogger option is
// given.
func createDefaultLogger() (Logger, error) {
	return logger.NewCustomStdLogger(l.Config{
		Output:      os.Stdout,
		JsonFormat:  false,
		AsyncWrite:  true,
		BufferSize:  1024 * 1024,      // 1MB buffer
		MaxFileSize: 10 * 1024 * 1024, // 10MB max file size
		MaxBackups:  5,
		AddSource:   true,
		Metrics:     true,
	})
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger { return logger.Nop() }
