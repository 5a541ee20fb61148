package warmup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baditaflorin/go_text_normalization/internal/adapters/logger"
	"github.com/baditaflorin/go_text_normalization/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNormalizer struct {
	calls atomic.Int64
	err   error
}

func (c *countingNormalizer) Normalize(text string) string {
	c.calls.Add(1)
	return text
}

func (c *countingNormalizer) Classify(string) ([]domain.TaggedSpan, error) {
	return nil, c.err
}

func TestWarmUp(t *testing.T) {
	n := &countingNormalizer{}
	m := NewManager(logger.Nop(), WarmupConfig{Concurrency: 3, Iterations: 4, SampleTextSize: 64})
	m.RegisterNormalizer(n)
	assert.Equal(t, 1, m.Normalizers())

	require.NoError(t, m.WarmUp(context.Background()))
	assert.Equal(t, int64(12), n.calls.Load())
}

func TestWarmUpNothingRegistered(t *testing.T) {
	m := NewManager(logger.Nop(), DefaultWarmupConfig())
	assert.NoError(t, m.WarmUp(context.Background()))
}

func TestWarmUpErrors(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(logger.Nop(), WarmupConfig{Concurrency: 2, Iterations: 5})
	m.RegisterNormalizer(&countingNormalizer{err: boom})
	assert.ErrorIs(t, m.WarmUp(context.Background()), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m = NewManager(logger.Nop(), WarmupConfig{Concurrency: 2, Iterations: 5})
	m.RegisterNormalizer(&countingNormalizer{})
	assert.ErrorIs(t, m.WarmUp(ctx), context.Canceled)
}

func TestWarmUpDurationElapses(t *testing.T) {
	n := &countingNormalizer{}
	m := NewManager(logger.Nop(), WarmupConfig{Concurrency: 1, Iterations: 1 << 30, Duration: 20 * time.Millisecond})
	m.RegisterNormalizer(n)
	require.NoError(t, m.WarmUp(context.Background()))
	assert.Positive(t, n.calls.Load())
}

func TestGenerateSampleText(t *testing.T) {
	s := generateSampleText(200)
	assert.GreaterOrEqual(t, len(s), 200)
	assert.Contains(t, s, "₹100")
	assert.Empty(t, generateSampleText(0))
}
