package dialect

import (
	"context"
)

// RowReader streams the rows of one sheet. ReadRow returns io.EOF once
// every row has been read.
type RowReader interface {
	Open(ctx context.Context) error
	Header() []string
	ReadRow() ([]string, error)
	Close() error
}
