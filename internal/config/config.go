package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"benritz/tomysql/internal/schema"
)

const (
	StrategyMerge   = "merge"
	StrategyReplace = "replace"
)

var (
	ErrUnknownSource   = errors.New("unknown source column")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrReservedColumn  = errors.New("column name is reserved for the primary key")
	ErrAmbiguousColumn = errors.New("column matches more than one source column")
	ErrInvalidColumn   = errors.New("invalid column name")
)

type Root struct {
	Source SourceSection `yaml:"source"`
	Target TargetSection `yaml:"target"`
	Schema SchemaSection `yaml:"schema"`
}

type SourceSection struct {
	Path      string   `yaml:"path,omitempty"`
	Sheet     string   `yaml:"sheet,omitempty"`
	Encoding  string   `yaml:"encoding,omitempty"`
	Delimiter string   `yaml:"delimiter,omitempty"`
	NAValues  []string `yaml:"na_values,omitempty"`
}

type TargetSection struct {
	Path          string `yaml:"path,omitempty"`
	Table         string `yaml:"table,omitempty"`
	DataBatchSize int    `yaml:"data_batch_size,omitempty"`
	Collation     string `yaml:"collation,omitempty"`
	Verify        bool   `yaml:"verify,omitempty"`
}

type SchemaSection struct {
	Strategy string      `yaml:"strategy,omitempty"`
	Columns  []ColumnDef `yaml:"columns,omitempty"`
}

type ColumnDef struct {
	Source     string   `yaml:"source,omitempty"`
	Name       string   `yaml:"name,omitempty"`
	Type       string   `yaml:"type,omitempty"`
	Nullable   *bool    `yaml:"nullable,omitempty"`
	Default    string   `yaml:"default,omitempty"`
	EnumValues []string `yaml:"enum_values,omitempty"`
}

func LoadFile(path string) (*Root, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return load(raw, filepath.Dir(path))
}

func Load(r io.Reader) (*Root, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return load(raw, ".")
}

func load(raw []byte, baseDir string) (*Root, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &Root{}, nil
	}
	expanded, err := ExpandIncludes(raw, baseDir)
	if err != nil {
		return nil, err
	}
	if err := validateBytes(expanded); err != nil {
		return nil, err
	}

	var cfg Root
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	expandEnv(&cfg)
	return &cfg, nil
}

func expandEnv(cfg *Root) {
	cfg.Source.Path = os.ExpandEnv(cfg.Source.Path)
	cfg.Target.Path = os.ExpandEnv(cfg.Target.Path)
}

// DelimiterRune returns the configured CSV delimiter, or 0 for the default.
func (s SourceSection) DelimiterRune() (rune, error) {
	switch s.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s.Delimiter)
	if size != len(s.Delimiter) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character: %q", s.Delimiter)
	}
	return r, nil
}

// BuildColumns applies the schema section to the inferred columns.
//
// With the merge strategy every definition overrides the inferred column it
// names (by source header, or by generated name when source is empty) and the
// remaining columns keep their inferred settings. With replace only the
// configured columns are used, in configuration order.
func (c *Root) BuildColumns(inferred []schema.Column) ([]schema.Column, error) {
	bySource := newColumnIndex()
	byName := newColumnIndex()
	for i, col := range inferred {
		bySource.add(col.Source, i)
		byName.add(col.Name, i)
	}
	find := func(def ColumnDef) (int, error) {
		if def.Source != "" {
			return bySource.find(def.Source)
		}
		return byName.find(def.Name)
	}

	var out []schema.Column
	switch strings.ToLower(c.Schema.Strategy) {
	case "", StrategyMerge:
		out = append([]schema.Column(nil), inferred...)
		for _, def := range c.Schema.Columns {
			i, err := find(def)
			if err != nil {
				return nil, err
			}
			col := out[i]
			if err := overrideColumn(&col, def); err != nil {
				return nil, err
			}
			out[i] = col
		}
	case StrategyReplace:
		out = make([]schema.Column, 0, len(c.Schema.Columns))
		for _, def := range c.Schema.Columns {
			i, err := find(def)
			if err != nil {
				return nil, err
			}
			col := inferred[i]
			col.Nullable = true
			col.Default = ""
			col.EnumValues = nil
			if err := overrideColumn(&col, def); err != nil {
				return nil, err
			}
			out = append(out, col)
		}
	default:
		return nil, fmt.Errorf("invalid schema strategy: %s", c.Schema.Strategy)
	}

	if err := checkNames(out); err != nil {
		return nil, err
	}
	return out, nil
}

// columnIndex looks names up exactly first, then case-insensitively when
// only one column matches.
type columnIndex struct {
	exact map[string]int
	fold  map[string][]int
}

func newColumnIndex() *columnIndex {
	return &columnIndex{exact: map[string]int{}, fold: map[string][]int{}}
}

func (x *columnIndex) add(name string, i int) {
	if _, ok := x.exact[name]; !ok {
		x.exact[name] = i
	}
	key := strings.ToLower(name)
	x.fold[key] = append(x.fold[key], i)
}

func (x *columnIndex) find(name string) (int, error) {
	if i, ok := x.exact[name]; ok {
		return i, nil
	}
	switch matches := x.fold[strings.ToLower(name)]; len(matches) {
	case 0:
		return 0, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	case 1:
		return matches[0], nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrAmbiguousColumn, name)
	}
}

func overrideColumn(dst *schema.Column, def ColumnDef) error {
	if def.Source != "" && def.Name != "" {
		dst.Name = def.Name
	}
	if def.Type != "" {
		dt, err := schema.ParseDataType(def.Type)
		if err != nil {
			return fmt.Errorf("column %s: %w", dst.Name, err)
		}
		dst.DataType = dt
	}
	if def.Nullable != nil {
		dst.Nullable = *def.Nullable
	}
	if d := strings.TrimSpace(def.Default); d != "" {
		dst.Default = d
	}
	if def.EnumValues != nil {
		dst.EnumValues = def.EnumValues
	}
	return nil
}

func checkNames(cols []schema.Column) error {
	seen := map[string]struct{}{}
	for _, col := range cols {
		key := strings.ToLower(col.Name)
		if key == "" {
			continue
		}
		if strings.Contains(col.Name, "`") {
			return fmt.Errorf("%w: %s contains a backtick", ErrInvalidColumn, col.Name)
		}
		if key == "id" {
			return fmt.Errorf("%w: %s", ErrReservedColumn, col.Name)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, col.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// PlanFromColumns builds an editable configuration listing every column with
// its resolved settings.
func PlanFromColumns(src SourceSection, tgt TargetSection, cols []schema.Column) *Root {
	defs := make([]ColumnDef, 0, len(cols))
	for _, col := range cols {
		nullable := col.Nullable
		defs = append(defs, ColumnDef{
			Source:     col.Source,
			Name:       col.Name,
			Type:       col.DataType.String(),
			Nullable:   &nullable,
			Default:    col.Default,
			EnumValues: col.EnumValues,
		})
	}
	return &Root{
		Source: src,
		Target: tgt,
		Schema: SchemaSection{Strategy: StrategyReplace, Columns: defs},
	}
}

func (c *Root) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

func (c *Root) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
