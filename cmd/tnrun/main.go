// Command tnrun normalizes text from the command line. It reads lines from
// stdin (or -text), classifies them, rewrites JSONL manifests or runs the
// classification cases that ship with a grammar.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/baditaflorin/l"
	"golang.org/x/term"

	textnormalization "github.com/baditaflorin/go_text_normalization"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/logger"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/manifest"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
	"github.com/baditaflorin/go_text_normalization/pkg/testcases"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

// options holds the parsed command line.
type options struct {
	mode        string
	lang        string
	casing      string
	grammarDir  string
	text        string
	nfc         bool
	workers     int
	textField   string
	outputField string
	output      string
	verbose     bool
	files       []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("tnrun", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.mode, "mode", "normalize", "Mode: 'normalize', 'classify', 'manifest' or 'test'")
	fs.StringVar(&opts.lang, "lang", "hi", "Language code")
	fs.StringVar(&opts.casing, "casing", string(textnormalization.Cased), "Casing: 'cased' or 'lower_cased'")
	fs.StringVar(&opts.grammarDir, "grammar-dir", "", "Directory with grammar overrides")
	fs.StringVar(&opts.text, "text", "", "Text to process instead of stdin")
	fs.BoolVar(&opts.nfc, "nfc", false, "Apply NFC before classification")
	fs.IntVar(&opts.workers, "workers", 0, "Worker goroutines (0 = number of CPUs)")
	fs.StringVar(&opts.textField, "text-field", "text", "Manifest input field")
	fs.StringVar(&opts.outputField, "output-field", "normalized", "Manifest output field")
	fs.StringVar(&opts.output, "output", "text", "Output format: 'text' or 'json'")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log to stderr")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tnrun [options] [case files]\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  tnrun -lang hi -text \"₹100\"\n")
		fmt.Fprintf(stderr, "  tnrun -lang en -mode classify < input.txt\n")
		fmt.Fprintf(stderr, "  tnrun -lang hi -mode manifest < train.jsonl > train.norm.jsonl\n")
		fmt.Fprintf(stderr, "  tnrun -lang hi -mode test\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.files = fs.Args()

	switch opts.mode {
	case "normalize", "classify", "manifest", "test":
	default:
		return nil, fmt.Errorf("invalid mode: %s", opts.mode)
	}
	if opts.output != "text" && opts.output != "json" {
		return nil, fmt.Errorf("invalid output format: %s. Must be 'text' or 'json'", opts.output)
	}
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	log := logger.Nop()
	if opts.verbose {
		std, err := logger.NewCustomStdLogger(l.Config{
			Output:     stderr,
			JsonFormat: false,
			AsyncWrite: false,
			AddSource:  false,
		})
		if err != nil {
			fmt.Fprintf(stderr, "Error creating logger: %v\n", err)
			return 1
		}
		log = std
		if c, ok := std.(io.Closer); ok {
			defer c.Close()
		}
	}

	n, err := newNormalizer(opts, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch opts.mode {
	case "test":
		return runTests(n, opts, stdout, stderr)
	case "manifest":
		return runManifest(ctx, n, opts, log, stdin, stdout, stderr)
	default:
		return runLines(n, opts, stdin, stdout, stderr)
	}
}

func newNormalizer(opts *options, log ports.Logger) (*textnormalization.Normalizer, error) {
	nopts := []textnormalization.Option{
		textnormalization.WithLogger(log),
		textnormalization.WithNFC(opts.nfc),
	}
	if opts.workers > 0 {
		nopts = append(nopts, textnormalization.WithWorkers(opts.workers))
	}
	if opts.grammarDir != "" {
		nopts = append(nopts, textnormalization.WithGrammarDir(opts.grammarDir))
	}
	if opts.verbose {
		nopts = append(nopts, textnormalization.WithGapHandler(func(g *textnormalization.VerbalizationGap) {
			log.Warn("Verbalization gap", "class", g.Class, "text", g.Text, "error", g.Error())
		}))
	}
	return textnormalization.New(opts.lang, textnormalization.Casing(opts.casing), nopts...)
}

// lineResult is one line of -output json.
type lineResult struct {
	Input      string                         `json:"input"`
	Normalized string                         `json:"normalized,omitempty"`
	Spans      []textnormalization.TaggedSpan `json:"spans,omitempty"`
}

func runLines(n *textnormalization.Normalizer, opts *options, stdin io.Reader, stdout, stderr io.Writer) int {
	w := bufio.NewWriter(stdout)
	defer w.Flush()
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	process := func(line string) error {
		res := lineResult{Input: line}
		if opts.mode == "classify" {
			spans, err := n.Classify(line)
			if err != nil {
				return err
			}
			res.Spans = spans
		} else {
			res.Normalized = n.Normalize(line)
		}

		if opts.output == "json" {
			return enc.Encode(res)
		}
		if opts.mode == "classify" {
			for _, s := range res.Spans {
				if s.IsPlain() {
					continue
				}
				if _, err := fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", s.Start, s.End, s.Class, s.Text, s.Tagged); err != nil {
					return err
				}
			}
			return nil
		}
		_, err := fmt.Fprintln(w, res.Normalized)
		return err
	}

	if opts.text != "" {
		if err := process(opts.text); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := process(strings.TrimSuffix(scanner.Text(), "\r")); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return 1
	}
	return 0
}

func runManifest(ctx context.Context, n *textnormalization.Normalizer, opts *options, log ports.Logger, stdin io.Reader, stdout, stderr io.Writer) int {
	p := manifest.NewProcessor(log, n, manifest.Config{
		Workers:     opts.workers,
		TextField:   opts.textField,
		OutputField: opts.outputField,
	})
	stats, err := p.Process(ctx, stdin, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "%d lines, %d normalized, %d malformed in %s\n",
			stats.TotalLines, stats.Normalized, stats.MalformedLines, stats.Duration.Round(time.Millisecond))
	}
	return 0
}

func runTests(n *textnormalization.Normalizer, opts *options, stdout, stderr io.Writer) int {
	var cases []testcases.Case
	if len(opts.files) == 0 {
		cs, err := n.TestCases()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cases = cs
	}
	for _, file := range opts.files {
		cs, err := testcases.ParseFile(file)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cases = append(cases, cs...)
	}

	report := testcases.Run(cases, func(input string) (string, error) {
		spans, err := n.Classify(input)
		if err != nil {
			return "", err
		}
		return textnormalization.PrimaryClass(spans), nil
	})

	if opts.output == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonReport(report)); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		printReport(stdout, report, isTerminal(stdout))
	}
	if !report.OK() {
		return 1
	}
	return 0
}

type failureJSON struct {
	Case  string `json:"case"`
	Want  string `json:"want"`
	Got   string `json:"got"`
	Error string `json:"error,omitempty"`
}

type reportJSON struct {
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failures []failureJSON `json:"failures"`
}

func jsonReport(r testcases.Report) reportJSON {
	out := reportJSON{Total: r.Total, Passed: r.Passed, Failures: []failureJSON{}}
	for _, f := range r.Failures {
		fj := failureJSON{Case: f.Case.String(), Want: f.Case.Class, Got: f.Got}
		if f.Err != nil {
			fj.Error = f.Err.Error()
		}
		out.Failures = append(out.Failures, fj)
	}
	return out
}

func printReport(w io.Writer, r testcases.Report, color bool) {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + colorReset
	}
	for _, f := range r.Failures {
		if f.Err != nil {
			fmt.Fprintf(w, "%s %s: want %s, error: %v\n", paint(colorRed, "FAIL"), f.Case, f.Case.Class, f.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s: want %s, got %s\n", paint(colorRed, "FAIL"), f.Case, f.Case.Class, f.Got)
	}
	status := paint(colorGreen, "ok")
	if !r.OK() {
		status = paint(colorRed, "FAIL")
	}
	fmt.Fprintf(w, "%s %d/%d cases passed\n", status, r.Passed, r.Total)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
