// Package pipeline wires classification and verbalization into a single
// written-to-spoken pass over one input string.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baditaflorin/go_text_normalization/internal/core/classify"
	"github.com/baditaflorin/go_text_normalization/internal/core/domain"
	"github.com/baditaflorin/go_text_normalization/internal/core/grammar"
	"github.com/baditaflorin/go_text_normalization/internal/core/verbalize"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

// Result is the outcome of one normalization. Span offsets and texts index
// the caller's input, even when a pre-filter such as NFC changed its length.
type Result struct {
	Text  string                     `json:"normalized"`
	Spans []domain.TaggedSpan        `json:"spans"`
	Gaps  []*domain.VerbalizationGap `json:"-"`
}

// Filters are the text filters around the core stages. Lower, when set, is
// applied to plain spans only.
type Filters struct {
	Pre   ports.TextFilter
	Post  ports.TextFilter
	Lower ports.TextFilter
}

// Pipeline is immutable and safe for concurrent use.
type Pipeline struct {
	config     Config
	table      *grammar.Table
	classifier *classify.Classifier
	verbalizer *verbalize.Verbalizer
	filters    Filters
	logger     ports.Logger
}

// New builds a pipeline over a loaded grammar table.
func New(config Config, table *grammar.Table, filters Filters, logger ports.Logger) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		config:     config,
		table:      table,
		classifier: classify.New(table, logger),
		verbalizer: verbalize.New(table, logger),
		filters:    filters,
		logger:     logger,
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.config }

// Table returns the grammar table.
func (p *Pipeline) Table() *grammar.Table { return p.table }

func (p *Pipeline) pre(text string) string {
	if p.filters.Pre == nil {
		return text
	}
	return p.filters.Pre.Apply(text)
}

// Classify runs the pre-filters and the classifier. Span offsets and texts
// refer to text as passed in.
func (p *Pipeline) Classify(text string) ([]domain.TaggedSpan, error) {
	filtered := p.pre(text)
	spans, err := p.classifier.Classify(filtered)
	if err != nil {
		return nil, err
	}
	return realign(text, filtered, spans, p.pre), nil
}

// Run normalizes text. It never fails: a cover defect returns the input
// unchanged and verbalization gaps keep their written form. Verbalization
// sees the filtered span texts.
func (p *Pipeline) Run(text string) Result {
	start := time.Now()
	filtered := p.pre(text)
	spans, err := p.classifier.Classify(filtered)
	if err != nil {
		p.logger.Error("classification failed, returning input",
			"language", p.config.Language,
			"error", err.Error())
		return Result{Text: text}
	}

	spoken := spans
	if p.filters.Lower != nil {
		spoken = make([]domain.TaggedSpan, len(spans))
		copy(spoken, spans)
		for i := range spoken {
			if spoken[i].IsPlain() {
				spoken[i].Text = p.filters.Lower.Apply(spoken[i].Text)
			}
		}
	}

	out, gaps := p.verbalizer.Verbalize(spoken)
	if p.filters.Post != nil {
		out = p.filters.Post.Apply(out)
	}
	p.logger.Debug("normalized",
		"language", p.config.Language,
		"spans", len(spans),
		"gaps", len(gaps),
		"duration", time.Since(start))
	return Result{Text: out, Spans: realign(text, filtered, spans, p.pre), Gaps: gaps}
}

// RunBatch normalizes texts concurrently with at most Workers goroutines.
// Output order matches input order.
func (p *Pipeline) RunBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.Run(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
