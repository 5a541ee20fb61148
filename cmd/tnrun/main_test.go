package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestNormalizeMode(t *testing.T) {
	code, out, errOut := runCLI(t, "123\nनमस्ते\r\n₹100\n", "-lang", "hi")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "एक सौ तेईस\nनमस्ते\nएक सौ रुपये\n", out)

	code, out, _ = runCLI(t, "", "-lang", "hi", "-text", "12:30")
	require.Equal(t, 0, code)
	assert.Equal(t, "बारह बजकर तीस मिनट\n", out)
}

func TestNormalizeJSON(t *testing.T) {
	code, out, errOut := runCLI(t, "", "-lang", "en", "-casing", "lower_cased", "-text", "Dr. Smith & co", "-output", "json")
	require.Equal(t, 0, code, errOut)

	var res lineResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Dr. Smith & co", res.Input)
	assert.Equal(t, "doctor smith & co", res.Normalized)
	assert.Contains(t, out, "&")
}

func TestClassifyMode(t *testing.T) {
	code, out, errOut := runCLI(t, "", "-lang", "hi", "-mode", "classify", "-text", "₹100 नमस्ते")
	require.Equal(t, 0, code, errOut)
	fields := strings.Split(strings.TrimSpace(out), "\t")
	require.GreaterOrEqual(t, len(fields), 4)
	assert.Equal(t, "0", fields[0])
	assert.Equal(t, "money", fields[2])
	assert.Equal(t, "₹100", fields[3])
}

func TestManifestMode(t *testing.T) {
	in := `{"id":1,"text":"123"}` + "\n" + "not json\n"
	code, out, errOut := runCLI(t, in, "-lang", "hi", "-mode", "manifest")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, `{"id":1,"normalized":"एक सौ तेईस","text":"123"}`+"\nnot json\n", out)
}

func TestTestMode(t *testing.T) {
	code, out, errOut := runCLI(t, "", "-lang", "hi", "-mode", "test")
	require.Equal(t, 0, code, out+errOut)
	assert.Contains(t, out, "cases passed")
	assert.NotContains(t, out, "\033[")

	path := filepath.Join(t.TempDir(), "cases.txt")
	require.NoError(t, os.WriteFile(path, []byte("123|||cardinal\n123|||money\n"), 0o644))
	code, out, _ = runCLI(t, "", "-lang", "hi", "-mode", "test", "-output", "json", path)
	assert.Equal(t, 1, code)

	var rep reportJSON
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 1, rep.Passed)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "money", rep.Failures[0].Want)
	assert.Equal(t, "cardinal", rep.Failures[0].Got)
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad mode", []string{"-mode", "translate"}, 2},
		{"bad output", []string{"-output", "xml"}, 2},
		{"unknown flag", []string{"-nope"}, 2},
		{"help", []string{"-h"}, 0},
		{"unsupported language", []string{"-lang", "xx", "-text", "1"}, 1},
		{"bad casing", []string{"-casing", "upper", "-text", "1"}, 1},
		{"missing case file", []string{"-mode", "test", "no-such-file.txt"}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _, _ := runCLI(t, "", tc.args...)
			assert.Equal(t, tc.code, code)
		})
	}
}
