package mysql

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/tomysql/internal/schema"
	"benritz/tomysql/internal/source"
)

func TestQuoting(t *testing.T) {
	assert.Equal(t, "`name`", QuoteIdent("name"))
	assert.Equal(t, "`we``ird`", QuoteIdent("we`ird"))
	assert.Equal(t, `'O''Brien'`, QuoteString("O'Brien"))
	assert.Equal(t, `'C:\\temp'`, QuoteString(`C:\temp`))
	assert.Equal(t, `'a\0b'`, QuoteString("a\x00b"))
	assert.Equal(t, `''`, QuoteString(""))
}

func TestColumnDefinition(t *testing.T) {
	tests := []struct {
		name string
		col  schema.Column
		want string
	}{
		{
			name: "nullable varchar",
			col:  schema.Column{Name: "city", DataType: schema.VarChar255, Nullable: true},
			want: "    `city` VARCHAR(255) NULL COLLATE 'utf8_general_ci'",
		},
		{
			name: "not null int with default",
			col:  schema.Column{Name: "qty", DataType: schema.Int11, Default: "0"},
			want: "    `qty` INT(11) NOT NULL DEFAULT 0",
		},
		{
			name: "invalid int default is dropped",
			col:  schema.Column{Name: "qty", DataType: schema.BigInt, Nullable: true, Default: "many"},
			want: "    `qty` BIGINT NULL",
		},
		{
			name: "text default is quoted",
			col:  schema.Column{Name: "note", DataType: schema.Text, Nullable: true, Default: "it's"},
			want: "    `note` TEXT NULL DEFAULT 'it''s' COLLATE 'utf8_general_ci'",
		},
		{
			name: "date default",
			col:  schema.Column{Name: "day", DataType: schema.Date, Default: "2024-01-01"},
			want: "    `day` DATE NOT NULL DEFAULT '2024-01-01'",
		},
		{
			name: "enum",
			col:  schema.Column{Name: "size", DataType: schema.Enum, Nullable: true, EnumValues: []string{" S", "M ", "", "L'"}},
			want: "    `size` ENUM('S', 'M', 'L''') NULL COLLATE 'utf8_general_ci'",
		},
		{
			name: "empty enum",
			col:  schema.Column{Name: "size", DataType: schema.Enum, Nullable: true},
			want: "    `size` ENUM('') NULL COLLATE 'utf8_general_ci'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColumnDefinition(tt.col, DefaultCollation))
		})
	}
}

func TestCheckDefault(t *testing.T) {
	assert.NoError(t, CheckDefault(schema.Column{Name: "a", DataType: schema.Int11, Default: "-5"}))
	assert.NoError(t, CheckDefault(schema.Column{Name: "a", DataType: schema.Text, Default: "x"}))
	assert.Error(t, CheckDefault(schema.Column{Name: "a", DataType: schema.Int11, Default: "1.5"}))
}

func TestCreateTableStatement(t *testing.T) {
	table := schema.Table{
		Name: "people",
		Columns: []schema.Column{
			{Name: "name", DataType: schema.VarChar255, Nullable: true},
			{Name: "age", DataType: schema.Int11, Nullable: true},
		},
	}

	want := "CREATE TABLE `people` (\n" +
		"    `id` INT(11) AUTO_INCREMENT PRIMARY KEY,\n" +
		"    `name` VARCHAR(255) NULL COLLATE 'utf8mb4_unicode_ci',\n" +
		"    `age` INT(11) NULL\n" +
		");"
	assert.Equal(t, want, CreateTableStatement(table, "utf8mb4_unicode_ci"))
	assert.Contains(t, CreateTableStatement(table, ""), DefaultCollation)
}

func TestValue(t *testing.T) {
	col := func(dt schema.DataType) schema.Column { return schema.Column{Name: "c", DataType: dt} }
	tests := []struct {
		name string
		dt   schema.DataType
		cell source.Cell
		want string
	}{
		{"null", schema.VarChar255, source.Cell{Null: true}, "NULL"},
		{"string", schema.VarChar255, source.Cell{Value: "O'Neil"}, `'O''Neil'`},
		{"longtext", schema.LongText, source.Cell{Value: "x"}, `'x'`},
		{"int", schema.Int11, source.Cell{Value: "42"}, "42"},
		{"int from float", schema.Int11, source.Cell{Value: "42.0"}, "42"},
		{"int truncates", schema.BigInt, source.Cell{Value: "-3.7"}, "-3"},
		{"int from bool", schema.Int11, source.Cell{Value: "True"}, "1"},
		{"int not numeric", schema.Int11, source.Cell{Value: "abc"}, "NULL"},
		{"date", schema.Date, source.Cell{Value: "01/15/2024"}, "'2024-01-15'"},
		{"date from datetime", schema.Date, source.Cell{Value: "2024-01-15 10:11:12"}, "'2024-01-15'"},
		{"time", schema.Time, source.Cell{Value: "2024-01-15 10:11:12"}, "'10:11:12'"},
		{"time only", schema.Time, source.Cell{Value: "08:30"}, "'08:30:00'"},
		{"datetime", schema.DateTime, source.Cell{Value: "2024-01-15T10:11:12Z"}, "'2024-01-15 10:11:12'"},
		{"datetime without date", schema.DateTime, source.Cell{Value: "08:30"}, "NULL"},
		{"bad date", schema.Date, source.Cell{Value: "soon"}, "NULL"},
		{"enum", schema.Enum, source.Cell{Value: "M"}, "'M'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Value(col(tt.dt), tt.cell))
		})
	}
}

func testFrame(rows int) *source.Frame {
	f := &source.Frame{Name: "test.csv", Headers: []string{"Name", "Age"}}
	for i := 0; i < rows; i++ {
		f.Rows = append(f.Rows, []source.Cell{{Value: "n" + strings.Repeat("'", i%2)}, {Value: "7"}})
	}
	return f
}

func TestInsertStatements(t *testing.T) {
	table := schema.Table{
		Name: "people",
		Columns: []schema.Column{
			{Name: "age", Source: "Age", DataType: schema.Int11, Nullable: true},
			{Name: "name", Source: "Name", DataType: schema.VarChar255, Nullable: true},
		},
	}

	var buf bytes.Buffer
	batches, err := InsertStatements(&buf, table, testFrame(5), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, batches)

	want := "INSERT INTO `people` (`age`, `name`) VALUES\n(7, 'n'),\n(7, 'n''');\n" +
		"INSERT INTO `people` (`age`, `name`) VALUES\n(7, 'n'),\n(7, 'n''');\n" +
		"INSERT INTO `people` (`age`, `name`) VALUES\n(7, 'n');\n"
	assert.Equal(t, want, buf.String())
}

func TestInsertStatementsEmpty(t *testing.T) {
	table := schema.Table{Name: "t", Columns: []schema.Column{{Name: "a", Source: "Name", DataType: schema.Text}}}

	var buf bytes.Buffer
	batches, err := InsertStatements(&buf, table, testFrame(0), 0)
	require.NoError(t, err)
	assert.Zero(t, batches)
	assert.Empty(t, buf.String())
}

func TestInsertStatementsUnknownSource(t *testing.T) {
	table := schema.Table{Name: "t", Columns: []schema.Column{{Name: "a", Source: "Missing", DataType: schema.Text}}}

	_, err := InsertStatements(&bytes.Buffer{}, table, testFrame(1), 10)
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestInsertStatementsWriteError(t *testing.T) {
	table := schema.Table{Name: "t", Columns: []schema.Column{{Name: "a", Source: "Name", DataType: schema.Text}}}

	batches, err := InsertStatements(failingWriter{}, table, testFrame(3), 1)
	assert.EqualError(t, err, "disk full")
	assert.Zero(t, batches)
}

func TestVerify(t *testing.T) {
	table := schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "customer", DataType: schema.VarChar255, Nullable: true},
			{Name: "qty", DataType: schema.Int11, Default: "1"},
			{Name: "size", DataType: schema.Enum, Nullable: true, EnumValues: []string{"S", "M"}},
			{Name: "placed", DataType: schema.DateTime, Nullable: true},
		},
	}

	parsed, err := Verify(CreateTableStatement(table, DefaultCollation))
	require.NoError(t, err)
	assert.Equal(t, "orders", parsed.Name)

	var names []string
	for _, c := range parsed.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "customer", "qty", "size", "placed"}, names)
}

func TestVerifyRejectsBrokenDDL(t *testing.T) {
	_, err := Verify("CREATE TABLE `t` (\n    `a` VARCHAR(255) NULL,\n);")
	assert.Error(t, err)
}
