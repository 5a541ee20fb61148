// Package manifest normalizes JSONL manifests. Each line is a JSON object
// with a text field; the output line is the same object with the spoken form
// added under the output field. Keys of rewritten objects are written in
// sorted order.
package manifest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

const (
	// DefaultBatchSize defines how many lines to process in one batch
	DefaultBatchSize = 100

	// MaxJobQueueSize limits the number of pending jobs
	MaxJobQueueSize = 32

	// maxLineSize bounds a single manifest line (16 MB).
	maxLineSize = 16 * 1024 * 1024
)

// Config defines configuration for manifest processing
type Config struct {
	// Workers is the number of worker goroutines; 0 means runtime.NumCPU().
	Workers   int
	BatchSize int
	// TextField names the input field, "text" by default.
	TextField string
	// OutputField names the added field, "normalized" by default.
	OutputField string
}

// Stats summarizes one run.
type Stats struct {
	TotalLines     int
	Normalized     int
	MalformedLines int
	Bytes          int64
	Duration       time.Duration
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Processor normalizes manifests with a pool of workers. Output lines keep
// the input order.
type Processor struct {
	logger     ports.Logger
	normalizer ports.Normalizer
	config     Config
}

// NewProcessor creates a new manifest processor
func NewProcessor(logger ports.Logger, normalizer ports.Normalizer, config Config) *Processor {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.TextField == "" {
		config.TextField = "text"
	}
	if config.OutputField == "" {
		config.OutputField = "normalized"
	}
	return &Processor{logger: logger, normalizer: normalizer, config: config}
}

type lineJob struct {
	lines   [][]byte
	chunkID int
	first   int
}

type lineJobResult struct {
	out       [][]byte
	chunkID   int
	ok        int
	malformed int
}

// Process reads manifest lines from r and writes the normalized lines to w.
// Malformed lines are copied through unchanged and counted.
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	start := time.Now()
	var stats Stats

	jobs := make(chan lineJob, MaxJobQueueSize)
	results := make(chan lineJobResult, p.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < p.config.Workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	input := &countingReader{r: r}
	readErr := make(chan error, 1)
	go func() {
		defer close(jobs)
		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		var (
			pending [][]byte
			chunkID int
			line    int
			first   = 1
		)
		send := func() bool {
			if len(pending) == 0 {
				return true
			}
			select {
			case jobs <- lineJob{lines: pending, chunkID: chunkID, first: first}:
				chunkID++
				first = line + 1
				pending = nil
				return true
			case <-ctx.Done():
				return false
			}
		}
		for scanner.Scan() {
			line++
			pending = append(pending, append([]byte(nil), scanner.Bytes()...))
			if len(pending) >= p.config.BatchSize && !send() {
				readErr <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- fmt.Errorf("read manifest: %w", err)
			return
		}
		if !send() {
			readErr <- ctx.Err()
			return
		}
		readErr <- nil
	}()

	bw := bufio.NewWriter(w)
	pendingResults := make(map[int]lineJobResult)
	next := 0
	var writeErr error
	for res := range results {
		pendingResults[res.chunkID] = res
		for {
			ready, ok := pendingResults[next]
			if !ok {
				break
			}
			delete(pendingResults, next)
			next++
			stats.Normalized += ready.ok
			stats.MalformedLines += ready.malformed
			stats.TotalLines += len(ready.out)
			if writeErr != nil {
				continue
			}
			for _, out := range ready.out {
				if _, err := bw.Write(out); err != nil {
					writeErr = err
					break
				}
				if err := bw.WriteByte('\n'); err != nil {
					writeErr = err
					break
				}
			}
		}
	}
	stats.Duration = time.Since(start)

	err := <-readErr
	stats.Bytes = input.n
	if err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if writeErr != nil {
		return stats, fmt.Errorf("write manifest: %w", writeErr)
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("write manifest: %w", err)
	}

	p.logger.Debug("manifest processed",
		"lines", stats.TotalLines,
		"normalized", stats.Normalized,
		"malformed", stats.MalformedLines,
		"workers", p.config.Workers,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (p *Processor) worker(ctx context.Context, jobs <-chan lineJob, results chan<- lineJobResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		res := lineJobResult{chunkID: job.chunkID, out: make([][]byte, len(job.lines))}
		for i, line := range job.lines {
			if ctx.Err() != nil {
				break
			}
			out, err := p.normalizeLine(line)
			if err != nil {
				p.logger.Warn("malformed manifest line", "line", job.first+i, "error", err.Error())
				res.malformed++
				res.out[i] = line
				continue
			}
			res.ok++
			res.out[i] = out
		}
		results <- res
	}
}

func (p *Processor) normalizeLine(line []byte) ([]byte, error) {
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(line, &entry); err != nil {
		return nil, err
	}
	raw, ok := entry[p.config.TextField]
	if !ok {
		return nil, fmt.Errorf("missing field %q", p.config.TextField)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("field %q: %w", p.config.TextField, err)
	}
	normalized, err := encode(p.normalizer.Normalize(text))
	if err != nil {
		return nil, err
	}
	entry[p.config.OutputField] = normalized
	return encode(entry)
}

// encode marshals v without HTML escaping and without a trailing newline.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
