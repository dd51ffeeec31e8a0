package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type CSVReader struct {
	path      string
	enc       encoding.Encoding
	encName   string
	delimiter rune

	r      *csv.Reader
	header []string
	// Encoding holds the name of the encoding the file was decoded with.
	Encoding string
}

// NewCSVReader returns a reader for path. An empty encoding (or "auto") reads
// UTF-8 and falls back to a single byte code page when the file is not valid
// UTF-8.
func NewCSVReader(path, encodingName string, delimiter rune) (*CSVReader, error) {
	enc, encName, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVReader{path: path, enc: enc, encName: encName, delimiter: delimiter}, nil
}

func lookupEncoding(name string) (encoding.Encoding, string, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "auto":
		return nil, "", nil
	case "utf-8", "utf8":
		return unicode.UTF8, "utf-8", nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, "latin1", nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, "cp1252", nil
	case "cp1254", "windows-1254":
		return charmap.Windows1254, "cp1254", nil
	default:
		return nil, "", fmt.Errorf("unsupported encoding: %s", name)
	}
}

// detectEncoding keeps UTF-8 when the bytes are valid. Otherwise bytes in the
// 0x80-0x9F range only make sense as cp1252 punctuation, so their presence
// picks cp1252 over latin1.
func detectEncoding(raw []byte) (encoding.Encoding, string) {
	if utf8.Valid(raw) {
		return unicode.UTF8, "utf-8"
	}
	for _, b := range raw {
		if b >= 0x80 && b <= 0x9F {
			return charmap.Windows1252, "cp1252"
		}
	}
	return charmap.ISO8859_1, "latin1"
}

func (c *CSVReader) Open(ctx context.Context) error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	enc := c.enc
	if enc == nil {
		enc, c.Encoding = detectEncoding(raw)
	} else {
		c.Encoding = c.encName
	}

	decoded := raw
	if enc != unicode.UTF8 {
		decoded, err = enc.NewDecoder().Bytes(raw)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", c.path, err)
		}
	}

	c.r = csv.NewReader(bytes.NewReader(decoded))
	c.r.Comma = c.delimiter
	c.r.FieldsPerRecord = -1
	c.r.LazyQuotes = true

	header, err := c.r.Read()
	if err == io.EOF {
		return ErrNoHeader
	}
	if err != nil {
		return fmt.Errorf("reading header of %s: %w", c.path, err)
	}
	c.header = header
	return nil
}

func (c *CSVReader) Header() []string {
	return c.header
}

func (c *CSVReader) ReadRow() ([]string, error) {
	return c.r.Read()
}

func (c *CSVReader) Close() error {
	return nil
}
