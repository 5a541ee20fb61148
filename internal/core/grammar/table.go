package grammar

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/baditaflorin/go_text_normalization/internal/core/fst"
)

// row is one non-comment line of a TSV file.
type row struct {
	line  int
	cells []string
}

// readRows splits data into tab-separated rows, skipping blank lines and
// lines starting with '#'.
func readRows(data []byte) ([]row, error) {
	var rows []row
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, row{line: n, cells: strings.Split(line, "\t")})
	}
	return rows, sc.Err()
}

func parseWeight(s string) (fst.Weight, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fst.One, true
	}
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || w < 0 || w != w {
		return 0, false
	}
	return fst.Weight(w), true
}

// parseStringTable reads `input<TAB>output[<TAB>weight]` rows. A single
// column maps the input to itself.
func parseStringTable(lang, name string, data []byte) ([]fst.MapEntry, error) {
	rows, err := readRows(data)
	if err != nil {
		return nil, &GrammarLoadError{Language: lang, Table: name, Msg: "read", Err: err}
	}
	entries := make([]fst.MapEntry, 0, len(rows))
	for _, r := range rows {
		if len(r.cells) > 3 {
			return nil, loadError(lang, name, r.line, "expected at most 3 columns, got %d", len(r.cells))
		}
		e := fst.MapEntry{In: r.cells[0], Out: r.cells[0]}
		if e.In == "" {
			return nil, loadError(lang, name, r.line, "empty input cell")
		}
		if len(r.cells) >= 2 {
			e.Out = r.cells[1]
		}
		if len(r.cells) == 3 {
			w, ok := parseWeight(r.cells[2])
			if !ok {
				return nil, loadError(lang, name, r.line, "invalid weight %q", r.cells[2])
			}
			e.Weight = w
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, loadError(lang, name, 0, "table has no rows")
	}
	return entries, nil
}
