package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/extrame/xls"
)

// XLSReader reads legacy BIFF (.xls) workbooks.
type XLSReader struct {
	path  string
	sheet string

	f      *os.File
	ws     *xls.WorkSheet
	next   int
	header []string
}

func NewXLSReader(path, sheet string) *XLSReader {
	return &XLSReader{path: path, sheet: sheet}
}

func (x *XLSReader) Open(ctx context.Context) error {
	f, err := os.Open(x.path)
	if err != nil {
		return fmt.Errorf("opening workbook %s: %w", x.path, err)
	}
	x.f = f

	// Sheets are parsed lazily from f, so it stays open until Close.
	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return fmt.Errorf("opening workbook %s: %w", x.path, err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return fmt.Errorf("workbook %s has no sheets", x.path)
	}
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		if x.sheet == "" || ws.Name == x.sheet {
			x.ws = ws
			break
		}
	}
	if x.ws == nil {
		return fmt.Errorf("sheet %q not found in %s", x.sheet, x.path)
	}

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

func (x *XLSReader) Header() []string {
	return x.header
}

func (x *XLSReader) ReadRow() ([]string, error) {
	if x.next > int(x.ws.MaxRow) {
		return nil, io.EOF
	}
	i := x.next
	x.next++

	row := sheetRow(x.ws, i)
	if row == nil {
		return []string{}, nil
	}
	values := make([]string, row.LastCol())
	for j := row.FirstCol(); j < row.LastCol(); j++ {
		values[j] = row.Col(j)
	}
	return values, nil
}

// sheetRow returns row i, or nil when the sheet stores nothing for it.
// WorkSheet.Row panics on rows missing from the sheet.
func sheetRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func (x *XLSReader) Close() error {
	if x.f != nil {
		return x.f.Close()
	}
	return nil
}
