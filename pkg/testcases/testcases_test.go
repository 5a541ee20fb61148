package testcases

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := "# header\n\n123|||cardinal\r\n a b |||plain\n12:30||| time\n"
	cases, err := Parse("cases.txt", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Case{
		{Input: "123", Class: "cardinal", Source: "cases.txt", Line: 3},
		{Input: " a b ", Class: "plain", Source: "cases.txt", Line: 4},
		{Input: "12:30", Class: "time", Source: "cases.txt", Line: 5},
	}, cases)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing separator", "123 cardinal\n"},
		{"missing class", "123|||\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes("bad.txt", []byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.txt:1")
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.txt")
	require.NoError(t, os.WriteFile(path, []byte("x|||plain\n"), 0o644))
	cases, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, path+":1: \"x\"", cases[0].String())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun(t *testing.T) {
	cases := []Case{
		{Input: "1", Class: "cardinal"},
		{Input: "a", Class: "plain"},
		{Input: "x", Class: "cardinal"},
		{Input: "!", Class: "plain"},
	}
	boom := errors.New("boom")
	report := Run(cases, func(in string) (string, error) {
		switch in {
		case "1":
			return "cardinal", nil
		case "!":
			return "", boom
		}
		return "plain", nil
	})
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Passed)
	assert.False(t, report.OK())
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "x", report.Failures[0].Case.Input)
	assert.Equal(t, "plain", report.Failures[0].Got)
	assert.ErrorIs(t, report.Failures[1].Err, boom)
}
