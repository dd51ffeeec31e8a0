package mysql

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"benritz/tomysql/internal/infer"
	"benritz/tomysql/internal/schema"
	"benritz/tomysql/internal/source"
)

const (
	DefaultCollation = "utf8_general_ci"
	DefaultBatchSize = 1000

	primaryKeyDef = "    `id` INT(11) AUTO_INCREMENT PRIMARY KEY"
)

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `''`,
	"\x00", `\0`,
)

func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func QuoteString(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

// CheckDefault reports a default value the column type cannot hold.
func CheckDefault(col schema.Column) error {
	if col.Default == "" || !col.DataType.IsInteger() {
		return nil
	}
	if _, err := strconv.ParseInt(col.Default, 10, 64); err != nil {
		return fmt.Errorf("invalid default value %q for %s column %s", col.Default, col.DataType, col.Name)
	}
	return nil
}

func ColumnDefinition(col schema.Column, collation string) string {
	var b strings.Builder
	b.WriteString("    ")
	b.WriteString(QuoteIdent(col.Name))
	b.WriteString(" ")
	b.WriteString(col.DataType.String())

	if col.DataType.Kind == schema.KindEnum {
		members := make([]string, 0, len(col.EnumValues))
		for _, v := range col.EnumValues {
			if v = strings.TrimSpace(v); v != "" {
				members = append(members, QuoteString(v))
			}
		}
		if len(members) == 0 {
			b.WriteString("('')")
		} else {
			b.WriteString("(" + strings.Join(members, ", ") + ")")
		}
	}

	if col.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}

	if col.Default != "" {
		if col.DataType.IsInteger() {
			if CheckDefault(col) == nil {
				b.WriteString(" DEFAULT " + col.Default)
			}
		} else {
			b.WriteString(" DEFAULT " + QuoteString(col.Default))
		}
	}

	if col.DataType.IsString() {
		b.WriteString(" COLLATE " + QuoteString(collation))
	}
	return b.String()
}

// CreateTableStatement renders the table with a leading auto-increment id
// primary key.
func CreateTableStatement(table schema.Table, collation string) string {
	if collation == "" {
		collation = DefaultCollation
	}
	defs := make([]string, 0, len(table.Columns)+1)
	defs = append(defs, primaryKeyDef)
	for _, col := range table.Columns {
		defs = append(defs, ColumnDefinition(col, collation))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", QuoteIdent(table.Name), strings.Join(defs, ",\n"))
}

// Value renders one cell as a SQL literal for col. Cells that cannot be
// converted to the column type become NULL.
func Value(col schema.Column, cell source.Cell) string {
	if cell.Null {
		return "NULL"
	}
	dt := col.DataType
	switch {
	case dt.IsString():
		return QuoteString(cell.Value)
	case dt.IsInteger():
		if n, ok := toInt(strings.TrimSpace(cell.Value)); ok {
			return strconv.FormatInt(n, 10)
		}
		return "NULL"
	case dt.IsTemporal():
		t, ok := infer.ParseTime(cell.Value)
		if !ok {
			return "NULL"
		}
		switch dt.Kind {
		case schema.KindTime:
			return "'" + t.Format("15:04:05") + "'"
		case schema.KindDate:
			if !infer.HasDate(t) {
				return "NULL"
			}
			return "'" + t.Format("2006-01-02") + "'"
		default:
			if !infer.HasDate(t) {
				return "NULL"
			}
			return "'" + t.Format("2006-01-02 15:04:05") + "'"
		}
	default:
		return QuoteString(cell.Value)
	}
}

// toInt truncates fractional values toward zero.
func toInt(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if b, ok := infer.ParseBool(s); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// InsertStatements writes the frame rows as INSERT statements of at most
// batchSize rows each and returns the number of statements written. Nothing
// is written for an empty frame.
func InsertStatements(w io.Writer, table schema.Table, frame *source.Frame, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if len(frame.Rows) == 0 || len(table.Columns) == 0 {
		return 0, nil
	}

	idx := make([]int, len(table.Columns))
	names := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		idx[i] = frame.Index(col.Source)
		if idx[i] < 0 {
			return 0, fmt.Errorf("column %s: source column %q not in %s", col.Name, col.Source, frame.Name)
		}
		names[i] = QuoteIdent(col.Name)
	}
	header := fmt.Sprintf("INSERT INTO %s (%s) VALUES\n", QuoteIdent(table.Name), strings.Join(names, ", "))

	batches := 0
	values := make([]string, len(table.Columns))
	for start := 0; start < len(frame.Rows); start += batchSize {
		end := min(start+batchSize, len(frame.Rows))

		var b strings.Builder
		b.WriteString(header)
		for r, row := range frame.Rows[start:end] {
			for i, col := range table.Columns {
				values[i] = Value(col, row[idx[i]])
			}
			if r > 0 {
				b.WriteString(",\n")
			}
			b.WriteString("(" + strings.Join(values, ", ") + ")")
		}
		b.WriteString(";\n")

		if _, err := io.WriteString(w, b.String()); err != nil {
			return batches, err
		}
		batches++
	}
	return batches, nil
}
