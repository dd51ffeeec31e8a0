package source

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"
)

type XLSXReader struct {
	path  string
	sheet string

	f      *excelize.File
	rows   *excelize.Rows
	header []string
}

// NewXLSXReader reads the named sheet of an .xlsx workbook, or the first
// sheet when sheet is empty.
func NewXLSXReader(path, sheet string) *XLSXReader {
	return &XLSXReader{path: path, sheet: sheet}
}

func (x *XLSXReader) Open(ctx context.Context) error {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return fmt.Errorf("opening workbook %s: %w", x.path, err)
	}
	x.f = f

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s has no sheets", x.path)
	}
	if x.sheet == "" {
		x.sheet = sheets[0]
	} else if !slices.Contains(sheets, x.sheet) {
		return fmt.Errorf("sheet %q not found in %s", x.sheet, x.path)
	}

	rows, err := f.Rows(x.sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %q: %w", x.sheet, err)
	}
	x.rows = rows

	header, err := x.ReadRow()
	if err == io.EOF {
		return ErrNoHeader
	}
	if err != nil {
		return err
	}
	x.header = header
	return nil
}

func (x *XLSXReader) Header() []string {
	return x.header
}

func (x *XLSXReader) ReadRow() ([]string, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return x.rows.Columns()
}

func (x *XLSXReader) Close() error {
	if x.rows != nil {
		if err := x.rows.Close(); err != nil {
			return err
		}
	}
	if x.f != nil {
		return x.f.Close()
	}
	return nil
}
