package warmup

import (
	"context"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

// WarmupConfig defines configuration for warming up the system
type WarmupConfig struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of iterations per routine
	Iterations int
	// Sample text size for warmup
	SampleTextSize int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultWarmupConfig returns the default warmup configuration
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Concurrency:    runtime.NumCPU(),
		Iterations:     100,
		SampleTextSize: 1000,
		Duration:       5 * time.Second,
		ForceGC:        true,
	}
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	normalizers []ports.Normalizer
	config      WarmupConfig
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config WarmupConfig) *Manager {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterNormalizer adds a normalizer to be warmed up
func (wm *Manager) RegisterNormalizer(norm ports.Normalizer) {
	wm.normalizers = append(wm.normalizers, norm)
}

// Normalizers returns the number of registered normalizers.
func (wm *Manager) Normalizers() int { return len(wm.normalizers) }

// WarmUp runs every registered normalizer over sample text. It stops early
// when ctx is done or the configured duration elapses; running out of time
// is not an error.
func (wm *Manager) WarmUp(ctx context.Context) error {
	if len(wm.normalizers) == 0 {
		return nil
	}
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.normalizers),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	warmupCtx := ctx
	if wm.config.Duration > 0 {
		var cancel context.CancelFunc
		warmupCtx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	}

	sample := generateSampleText(wm.config.SampleTextSize)
	g, gctx := errgroup.WithContext(warmupCtx)
	for i := 0; i < wm.config.Concurrency; i++ {
		g.Go(func() error {
			for j := 0; j < wm.config.Iterations; j++ {
				if gctx.Err() != nil {
					return nil
				}
				for _, normalizer := range wm.normalizers {
					_ = normalizer.Normalize(sample)
					if _, err := normalizer.Classify(sample); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}
	wm.logger.Info("System warmup completed",
		"duration", time.Since(startTime),
	)
	return nil
}

// generateSampleText creates sample text of about size bytes that mixes
// plain words with every common kind of semiotic token.
func generateSampleText(size int) string {
	tokens := []string{
		"the", "123", "quick", "₹100", "brown", "12:30", "fox", "15/08/1947",
		"नमस्ते", "3.14", "दुनिया", "5 kg", "over", "1,00,000", "lazy", "$1.50",
		"10-20", "dog", "21st", "½", "Dr.", "9876543210", "40%", "१२३",
	}

	var sb strings.Builder
	for i := 0; sb.Len() < size; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(tokens[i%len(tokens)])
	}
	return sb.String()
}
