// Package testcases reads and runs classification test files.
//
// A test file holds one case per line in the form input|||class, where class
// is the expected class of the first non-plain span, or plain when the input
// has none. Blank lines and lines starting with # are skipped.
package testcases

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Separator splits the input from the expected class.
const Separator = "|||"

// Case is one classification case.
type Case struct {
	Input string
	Class string
	// Source and Line locate the case for reporting.
	Source string
	Line   int
}

func (c Case) String() string {
	return fmt.Sprintf("%s:%d: %q", c.Source, c.Line, c.Input)
}

// Parse reads cases from r. source names r in errors and in the returned
// cases.
func Parse(source string, r io.Reader) ([]Case, error) {
	var cases []Case
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		input, class, ok := strings.Cut(text, Separator)
		class = strings.TrimSpace(class)
		if !ok || class == "" {
			return nil, fmt.Errorf("%s:%d: expected input%sclass", source, line, Separator)
		}
		cases = append(cases, Case{Input: input, Class: class, Source: source, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cases, nil
}

// ParseBytes parses cases from data.
func ParseBytes(source string, data []byte) ([]Case, error) {
	return Parse(source, bytes.NewReader(data))
}

// ParseFile parses the cases in the file at path.
func ParseFile(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

// Failure is a case whose class did not match.
type Failure struct {
	Case Case
	Got  string
	Err  error
}

// Report summarizes a run.
type Report struct {
	Total    int
	Passed   int
	Failures []Failure
}

// OK reports whether every case passed.
func (r Report) OK() bool { return len(r.Failures) == 0 }

// Run checks every case with classOf, which returns the class of an input.
func Run(cases []Case, classOf func(input string) (string, error)) Report {
	report := Report{Total: len(cases)}
	for _, c := range cases {
		got, err := classOf(c.Input)
		if err != nil || got != c.Class {
			report.Failures = append(report.Failures, Failure{Case: c, Got: got, Err: err})
			continue
		}
		report.Passed++
	}
	return report
}
