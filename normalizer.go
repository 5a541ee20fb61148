// Package textnormalization converts written text into its spoken form.
//
// A Normalizer is built for one language and casing mode. It splits the
// input into semiotic spans (numbers, dates, times, money, measures,
// telephone numbers, abbreviations) with weighted transducer grammars,
// verbalizes each span and joins the result:
//
//	n, err := textnormalization.New("hi", textnormalization.Cased)
//	if err != nil {
//		return err
//	}
//	n.Normalize("₹100") // "एक सौ रुपये"
//
// Grammars for Hindi and English are embedded. Grammars for the other
// supported codes can be supplied from disk with WithGrammarDir.
package textnormalization

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/baditaflorin/go_text_normalization/internal/adapters/grammarsource"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/textfilter"
	"github.com/baditaflorin/go_text_normalization/internal/core/domain"
	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
	"github.com/baditaflorin/go_text_normalization/internal/core/grammar"
	"github.com/baditaflorin/go_text_normalization/internal/core/pipeline"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
	"github.com/baditaflorin/go_text_normalization/pkg/testcases"
)

//go:embed data
var embedded embed.FS

// Types shared with the internal pipeline.
type (
	Language         = domain.Language
	Casing           = domain.Casing
	Field            = domain.Field
	TaggedSpan       = domain.TaggedSpan
	VerbalizationGap = domain.VerbalizationGap
	GrammarLoadError = grammar.GrammarLoadError
	Logger           = ports.Logger
)

// Casing modes.
const (
	Cased      = domain.Cased
	LowerCased = domain.LowerCased
)

// PlainClass is the class of spans that pass through unchanged.
const PlainClass = domain.PlainClass

var (
	ErrUnsupportedLanguage  = domain.ErrUnsupportedLanguage
	ErrInvalidCasing        = domain.ErrInvalidCasing
	ErrGrammarLoad          = grammar.ErrGrammarLoad
	ErrNoPath               = fst.ErrNoPath
	ErrIncompatibleAlphabet = fst.ErrIncompatibleAlphabet
)

// Languages returns every supported language code.
func Languages() []Language {
	return append([]Language(nil), domain.Languages...)
}

// EmbeddedGrammars returns the codes whose grammars ship with the package.
func EmbeddedGrammars() []Language {
	var out []Language
	for _, lang := range domain.Languages {
		if _, err := fs.Stat(embedded, path.Join("data", string(lang), grammar.ManifestFile)); err == nil {
			out = append(out, lang)
		}
	}
	return out
}

// Result is the detailed outcome of one normalization.
type Result = pipeline.Result

// GapHandler is called for every span whose verbalizer rejected its tagged
// value. The span keeps its written form in the output.
type GapHandler func(gap *VerbalizationGap)

// Config holds the construction options of a Normalizer.
type Config struct {
	Logger     Logger
	GrammarDir string
	Source     ports.GrammarSource
	NFC        bool
	Workers    int
	OnGap      GapHandler
}

// Option defines a functional option for configuring a Normalizer.
type Option func(*Config)

// WithLogger sets a custom logger.
func WithLogger(logger Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithGrammarDir reads grammars from dir, one subdirectory per language
// code. Files missing from dir fall back to the embedded grammars.
func WithGrammarDir(dir string) Option {
	return func(cfg *Config) {
		cfg.GrammarDir = dir
	}
}

// WithGrammarSource replaces the embedded grammars with src.
func WithGrammarSource(src ports.GrammarSource) Option {
	return func(cfg *Config) {
		cfg.Source = src
	}
}

// WithNFC composes input to Unicode NFC before classification. Classify
// still reports offsets and texts of the caller's string.
func WithNFC(enabled bool) Option {
	return func(cfg *Config) {
		cfg.NFC = enabled
	}
}

// WithWorkers bounds the parallelism of NormalizeList.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		cfg.Workers = n
	}
}

// WithGapHandler registers fn to observe verbalization gaps.
func WithGapHandler(fn GapHandler) Option {
	return func(cfg *Config) {
		cfg.OnGap = fn
	}
}

// Normalizer is a ready written-to-spoken converter for one language. It is
// immutable and safe for concurrent use.
type Normalizer struct {
	pipeline *pipeline.Pipeline
	source   ports.GrammarSource
	logger   Logger
	onGap    GapHandler
}

// New loads the grammar for lang and returns a ready Normalizer. casing is
// cased or lower_cased; the empty string means cased.
func New(lang string, casing Casing, opts ...Option) (*Normalizer, error) {
	language, err := domain.ParseLanguage(lang)
	if err != nil {
		return nil, err
	}
	mode, err := domain.ParseCasing(string(casing))
	if err != nil {
		return nil, err
	}

	defaults := pipeline.DefaultConfig()
	cfg := Config{Workers: defaults.Workers}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		logger, err := createDefaultLogger()
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		cfg.Logger = logger
	}

	src, err := cfg.source()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	table, err := grammar.Load(string(language), src)
	if err != nil {
		if errors.Is(err, grammar.ErrNoGrammar) {
			return nil, fmt.Errorf("%w: %s has no grammar", ErrUnsupportedLanguage, language)
		}
		return nil, err
	}
	cfg.Logger.Info("grammar loaded",
		"language", language,
		"name", table.Name,
		"classes", len(table.Classes),
		"states", table.NumStates(),
		"duration", time.Since(start))

	factory := textfilter.NewFilterFactory(string(language))
	filters := pipeline.Filters{
		Pre:  factory.Pre(cfg.NFC),
		Post: factory.Post(),
	}
	if mode == LowerCased {
		filters.Lower = factory.CreateFilter(textfilter.LowerFilter)
	}

	p, err := pipeline.New(pipeline.Config{
		Language: language,
		Casing:   mode,
		NFC:      cfg.NFC,
		Workers:  cfg.Workers,
	}, table, filters, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Normalizer{pipeline: p, source: src, logger: cfg.Logger, onGap: cfg.OnGap}, nil
}

func (cfg Config) source() (ports.GrammarSource, error) {
	base := cfg.Source
	if base == nil {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			return nil, err
		}
		base = grammarsource.FromFS(sub)
	}
	if cfg.GrammarDir == "" {
		return base, nil
	}
	dir, err := grammarsource.FromDir(cfg.GrammarDir)
	if err != nil {
		return nil, err
	}
	return grammarsource.Chain{dir, base}, nil
}

// Language returns the language code of n.
func (n *Normalizer) Language() Language { return n.pipeline.Config().Language }

// Casing returns the casing mode of n.
func (n *Normalizer) Casing() Casing { return n.pipeline.Config().Casing }

// Classes returns the semiotic class names of the loaded grammar in
// declaration order.
func (n *Normalizer) Classes() []string {
	classes := n.pipeline.Table().Classes
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Name
	}
	return out
}

// Normalize returns the spoken form of text. It never fails: spans that
// cannot be verbalized keep their written form.
func (n *Normalizer) Normalize(text string) string {
	return n.NormalizeDetailed(text).Text
}

// NormalizeDetailed returns the spoken form of text together with the cover
// it was built from and any verbalization gaps.
func (n *Normalizer) NormalizeDetailed(text string) Result {
	res := n.pipeline.Run(text)
	n.report(res.Gaps)
	return res
}

// Classify returns the cover of text chosen by the classifier. Byte offsets
// index text after the pre-filters, which preserve offsets.
func (n *Normalizer) Classify(text string) ([]TaggedSpan, error) {
	return n.pipeline.Classify(text)
}

// NormalizeList normalizes texts concurrently. The output order matches the
// input order.
func (n *Normalizer) NormalizeList(ctx context.Context, texts []string) ([]string, error) {
	results, err := n.pipeline.RunBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(results))
	for i, res := range results {
		n.report(res.Gaps)
		out[i] = res.Text
	}
	return out, nil
}

// TestCases loads the classification cases listed by the grammar manifest.
func (n *Normalizer) TestCases() ([]testcases.Case, error) {
	lang := string(n.Language())
	var cases []testcases.Case
	for _, file := range n.pipeline.Table().Tests {
		name := path.Join(lang, file)
		err := n.source.Read(name, func(data []byte) error {
			cs, err := testcases.ParseBytes(name, data)
			if err != nil {
				return err
			}
			cases = append(cases, cs...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("test cases %s: %w", name, err)
		}
	}
	return cases, nil
}

func (n *Normalizer) report(gaps []*VerbalizationGap) {
	if n.onGap == nil {
		return
	}
	for _, g := range gaps {
		n.onGap(g)
	}
}

// PrimaryClass returns the class of the first non-plain span, or PlainClass.
func PrimaryClass(spans []TaggedSpan) string {
	for _, s := range spans {
		if !s.IsPlain() {
			return s.Class
		}
	}
	return PlainClass
}
