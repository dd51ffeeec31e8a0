// Package source loads CSV and spreadsheet files into an in-memory Frame.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"benritz/tomysql/internal/dialect"
)

var ErrNoHeader = errors.New("source has no header row")

// DefaultNAValues are the cell values read as missing.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

type Cell struct {
	Value string
	Null  bool
}

type Frame struct {
	Name    string
	Headers []string
	Rows    [][]Cell
}

// Column returns every cell of column i, top to bottom.
func (f *Frame) Column(i int) []Cell {
	out := make([]Cell, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out
}

// Index returns the position of header h, or -1.
func (f *Frame) Index(h string) int {
	for i, name := range f.Headers {
		if name == h {
			return i
		}
	}
	return -1
}

type Options struct {
	Sheet     string
	Encoding  string
	Delimiter rune
	NAValues  []string
}

// Open picks a reader for path from its extension. Anything that is not an
// Excel workbook is read as CSV.
func Open(path string, opts Options) (dialect.RowReader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return NewXLSXReader(path, opts.Sheet), nil
	case ".xls":
		return NewXLSReader(path, opts.Sheet), nil
	default:
		if opts.Sheet != "" {
			return nil, fmt.Errorf("sheet %q given for non-spreadsheet file %s", opts.Sheet, path)
		}
		return NewCSVReader(path, opts.Encoding, opts.Delimiter)
	}
}

// Load drains reader into a Frame. Headers are made unique the way a
// dataframe would name them ("a", "a.1", "Unnamed: 2") and missing values are
// marked Null.
func Load(ctx context.Context, name string, reader dialect.RowReader, naValues []string) (*Frame, error) {
	if naValues == nil {
		naValues = DefaultNAValues
	}
	na := make(map[string]struct{}, len(naValues))
	for _, v := range naValues {
		na[v] = struct{}{}
	}

	if err := reader.Open(ctx); err != nil {
		reader.Close()
		return nil, err
	}
	defer reader.Close()

	header := reader.Header()
	if len(header) == 0 {
		return nil, ErrNoHeader
	}

	frame := &Frame{Name: name, Headers: mangleHeaders(header)}
	width := len(frame.Headers)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values, err := reader.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(frame.Rows)+2, err)
		}
		if isBlank(values) {
			continue
		}

		row := make([]Cell, width)
		for i := range row {
			if i >= len(values) {
				row[i] = Cell{Null: true}
				continue
			}
			v := values[i]
			_, missing := na[strings.TrimSpace(v)]
			row[i] = Cell{Value: v, Null: missing}
		}
		frame.Rows = append(frame.Rows, row)
	}

	return frame, nil
}

func isBlank(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

func mangleHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for {
			n, dup := seen[name]
			if !dup {
				break
			}
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", h, n+1)
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
