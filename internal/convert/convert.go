package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/labstack/gommon/log"

	"benritz/tomysql/internal/config"
	"benritz/tomysql/internal/dialect/mysql"
	"benritz/tomysql/internal/infer"
	"benritz/tomysql/internal/naming"
	"benritz/tomysql/internal/schema"
	"benritz/tomysql/internal/source"
)

const (
	DefaultTableName  = "table"
	DefaultTargetPath = "create-table.sql"
)

var (
	ErrNoSource         = errors.New("missing source file")
	ErrInvalidTableName = errors.New("invalid MySQL table name")
)

type Conversion struct {
	sourcePath    string
	sheet         string
	encoding      string
	delimiter     rune
	naValues      []string
	targetPath    string
	planPath      string
	tableName     string
	dataBatchSize int
	collation     string
	verify        bool
	schema        config.SchemaSection
	logger        *log.Logger
}

type Option func(*Conversion)

func New(opts ...Option) (*Conversion, error) {
	c := Conversion{
		tableName:     DefaultTableName,
		targetPath:    DefaultTargetPath,
		dataBatchSize: mysql.DefaultBatchSize,
		collation:     mysql.DefaultCollation,
	}

	for _, opt := range opts {
		opt(&c)
	}

	if c.sourcePath == "" {
		return nil, ErrNoSource
	}
	if strings.TrimSpace(c.tableName) == "" {
		return nil, fmt.Errorf("%w: table name is empty", ErrInvalidTableName)
	}
	if naming.Clean(c.tableName) == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, c.tableName)
	}
	if c.targetPath == "" {
		return nil, errors.New("missing output file name")
	}
	if !strings.HasSuffix(strings.ToLower(c.targetPath), ".sql") {
		c.targetPath += ".sql"
	}
	if c.dataBatchSize < 0 {
		return nil, fmt.Errorf("invalid data batch size: %d", c.dataBatchSize)
	}
	if c.dataBatchSize == 0 {
		c.dataBatchSize = mysql.DefaultBatchSize
	}
	if c.logger == nil {
		c.logger = log.New("to-mysql")
		c.logger.SetOutput(io.Discard)
	}

	return &c, nil
}

func WithSourcePath(p string) Option {
	return func(c *Conversion) {
		c.sourcePath = p
	}
}
func WithSheet(s string) Option {
	return func(c *Conversion) {
		c.sheet = s
	}
}
func WithEncoding(e string) Option {
	return func(c *Conversion) {
		c.encoding = e
	}
}
func WithDelimiter(d rune) Option {
	return func(c *Conversion) {
		c.delimiter = d
	}
}
func WithNAValues(v []string) Option {
	return func(c *Conversion) {
		c.naValues = v
	}
}
func WithTargetPath(p string) Option {
	return func(c *Conversion) {
		c.targetPath = p
	}
}

// WithPlanPath makes Run write the resolved column plan as YAML to p.
func WithPlanPath(p string) Option {
	return func(c *Conversion) {
		c.planPath = p
	}
}
func WithTableName(n string) Option {
	return func(c *Conversion) {
		c.tableName = n
	}
}
func WithDataBatchSize(size int) Option {
	return func(c *Conversion) {
		c.dataBatchSize = size
	}
}
func WithCollation(name string) Option {
	return func(c *Conversion) {
		if name != "" {
			c.collation = name
		}
	}
}
func WithVerify(v bool) Option {
	return func(c *Conversion) {
		c.verify = v
	}
}
func WithSchema(s config.SchemaSection) Option {
	return func(c *Conversion) {
		c.schema = s
	}
}
func WithLogger(l *log.Logger) Option {
	return func(c *Conversion) {
		c.logger = l
	}
}

// TargetPath is the script file Run writes, with the .sql suffix applied.
func (c *Conversion) TargetPath() string {
	return c.targetPath
}

type Result struct {
	Table schema.Table
	Frame *source.Frame
}

// Inspect loads the source, infers the columns and applies the configured
// column overrides.
func (c *Conversion) Inspect(ctx context.Context) (*Result, error) {
	reader, err := source.Open(c.sourcePath, source.Options{
		Sheet:     c.sheet,
		Encoding:  c.encoding,
		Delimiter: c.delimiter,
		NAValues:  c.naValues,
	})
	if err != nil {
		return nil, err
	}
	frame, err := source.Load(ctx, filepath.Base(c.sourcePath), reader, c.naValues)
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", c.sourcePath, err)
	}
	if r, ok := reader.(*source.CSVReader); ok {
		c.logger.Debugf("decoded %s as %s", c.sourcePath, r.Encoding)
	}
	c.logger.Infof("loaded %s rows and %d columns from %s",
		humanize.Comma(int64(len(frame.Rows))), len(frame.Headers), c.sourcePath)

	tableName := naming.Clean(c.tableName)
	inferred, err := infer.Columns(ctx, frame, tableName)
	if err != nil {
		return nil, err
	}

	cfg := config.Root{Schema: c.schema}
	cols, err := cfg.BuildColumns(inferred)
	if err != nil {
		return nil, err
	}

	table := schema.Table{Name: tableName}
	for _, col := range cols {
		if col.Name == "" {
			c.logger.Warnf("source column %q has no column name, skipping", col.Source)
			continue
		}
		if err := mysql.CheckDefault(col); err != nil {
			c.logger.Warnf("%v, skipping default", err)
			col.Default = ""
		}
		c.logger.Debugf("column %s <- %q: %s", col.Name, col.Source, col.DataType)
		table.Columns = append(table.Columns, col)
	}

	return &Result{Table: table, Frame: frame}, nil
}

type Summary struct {
	Path    string
	Table   string
	Columns int
	Rows    int
	Batches int
}

func (c *Conversion) Run(ctx context.Context) (*Summary, error) {
	res, err := c.Inspect(ctx)
	if err != nil {
		return nil, err
	}

	if c.planPath != "" {
		plan := config.PlanFromColumns(
			config.SourceSection{
				Path:     c.sourcePath,
				Sheet:    c.sheet,
				Encoding: c.encoding,
				NAValues: c.naValues,
			},
			config.TargetSection{
				Path:          c.targetPath,
				Table:         res.Table.Name,
				DataBatchSize: c.dataBatchSize,
				Collation:     c.collation,
				Verify:        c.verify,
			},
			res.Table.Columns,
		)
		if c.delimiter != 0 {
			plan.Source.Delimiter = string(c.delimiter)
		}
		if err := plan.WriteFile(c.planPath); err != nil {
			return nil, fmt.Errorf("could not write plan: %w", err)
		}
		c.logger.Infof("column plan written to %s", c.planPath)
	}

	ddl := mysql.CreateTableStatement(res.Table, c.collation)
	if c.verify {
		if err := verifyDDL(ddl, res.Table); err != nil {
			return nil, err
		}
		c.logger.Debugf("create table statement verified")
	}

	batches, err := c.writeScript(ctx, ddl, res)
	if err != nil {
		return nil, fmt.Errorf("could not generate SQL file: %w", err)
	}

	summary := &Summary{
		Path:    c.targetPath,
		Table:   res.Table.Name,
		Columns: len(res.Table.Columns),
		Rows:    len(res.Frame.Rows),
		Batches: batches,
	}
	size := ""
	if fi, err := os.Stat(c.targetPath); err == nil {
		size = " (" + humanize.Bytes(uint64(fi.Size())) + ")"
	}
	c.logger.Infof("SQL file %s generated: %s rows in %d insert statements%s",
		summary.Path, humanize.Comma(int64(summary.Rows)), summary.Batches, size)
	return summary, nil
}

func (c *Conversion) writeScript(ctx context.Context, ddl string, res *Result) (batches int, err error) {
	f, err := os.Create(c.targetPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(c.targetPath)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := io.WriteString(w, ddl+"\n\n"); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	batches, err = mysql.InsertStatements(w, res.Table, res.Frame, c.dataBatchSize)
	if err != nil {
		return batches, err
	}
	return batches, w.Flush()
}

func verifyDDL(ddl string, table schema.Table) error {
	parsed, err := mysql.Verify(ddl)
	if err != nil {
		return err
	}
	if parsed.Name != table.Name {
		return fmt.Errorf("verify: parsed table name %q, want %q", parsed.Name, table.Name)
	}
	if got, want := len(parsed.Columns), len(table.Columns)+1; got != want {
		return fmt.Errorf("verify: parsed %d columns, want %d", got, want)
	}
	return nil
}
