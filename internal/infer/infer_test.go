package infer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/tomysql/internal/schema"
	"benritz/tomysql/internal/source"
)

func cells(values ...string) []source.Cell {
	out := make([]source.Cell, len(values))
	for i, v := range values {
		if v == "<null>" {
			out[i] = source.Cell{Null: true}
			continue
		}
		out[i] = source.Cell{Value: v}
	}
	return out
}

func TestSuggestType(t *testing.T) {
	tests := []struct {
		name   string
		values []source.Cell
		want   schema.DataType
	}{
		{"empty", nil, schema.VarChar255},
		{"all null", cells("<null>", "<null>"), schema.VarChar255},
		{"ints", cells("1", "-20", "<null>", "300"), schema.Int11},
		{"integral floats", cells("1.0", "2.0", "3"), schema.Int11},
		{"int32 bounds", cells("-2147483648", "2147483647"), schema.Int11},
		{"above int32", cells("1", "2147483648"), schema.BigInt},
		{"below int32", cells("-2147483649"), schema.BigInt},
		{"fractions", cells("1.5", "2"), schema.VarChar255},
		{"infinity", cells("inf", "1"), schema.VarChar255},
		{"booleans", cells("True", "False", "TRUE"), schema.Int11},
		{"mixed bool and number", cells("True", "2"), schema.VarChar255},
		{"dates", cells("2024-01-15", "2024-02-01", "2023-12-31"), schema.Date},
		{"midnight datetimes", cells("2024-01-15 00:00:00", "2024-02-01 00:00:00"), schema.Date},
		{"datetimes", cells("2024-01-15 10:30:00", "2024-02-01"), schema.DateTime},
		{"us dates", cells("01/15/2024", "2/3/2024", "15/01/2024"), schema.Date},
		{"times", cells("10:30", "12:00:01"), schema.Time},
		{"midnight times", cells("00:00", "00:00:00"), schema.Time},
		{"times and dates", cells("10:30", "2024-01-15"), schema.DateTime},
		{"us dash dates", cells("03-15-2024", "12-31-2023"), schema.Date},
		{"mostly dates", cells("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "n/a?"), schema.Date},
		{"exactly eighty percent", cells("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "x"), schema.VarChar255},
		{"text", cells("apple", "banana"), schema.VarChar255},
		{"padded ints", cells(" 12 ", "7"), schema.Int11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestType(tt.values))
		})
	}
}

func TestParseTime(t *testing.T) {
	tm, ok := ParseTime("2024-03-04 05:06:07")
	require.True(t, ok)
	assert.Equal(t, "2024-03-04 05:06:07", tm.Format("2006-01-02 15:04:05"))

	tm, ok = ParseTime("03/04/2024")
	require.True(t, ok)
	assert.Equal(t, "2024-03-04", tm.Format("2006-01-02"), "month first")

	tm, ok = ParseTime("15.04.2024")
	require.True(t, ok)
	assert.Equal(t, "2024-04-15", tm.Format("2006-01-02"))

	tm, ok = ParseTime("13:45")
	require.True(t, ok)
	assert.False(t, HasDate(tm))

	tm, ok = ParseTime("03-15-2024")
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", tm.Format("2006-01-02"))

	tm, ok = ParseTime("20240115")
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", tm.Format("2006-01-02"))

	_, ok = ParseTime("2024")
	assert.False(t, ok, "bare year")
	_, ok = ParseTime("not a date")
	assert.False(t, ok)
	_, ok = ParseTime("   ")
	assert.False(t, ok)
}

func TestColumns(t *testing.T) {
	frame := &source.Frame{
		Headers: []string{"ID", "Müşteri Adı", "Tutar", "Tarih", "id"},
		Rows: [][]source.Cell{
			cells("1", "Ali", "10", "2024-01-01", "a"),
			cells("2", "Ayşe", "<null>", "2024-01-02", "b"),
		},
	}

	cols, err := Columns(context.Background(), frame, "Satış Tablosu")
	require.NoError(t, err)
	require.Len(t, cols, 5)

	want := []schema.Column{
		{Name: "id_satis_tablosu", Source: "ID", DataType: schema.Int11, Nullable: true},
		{Name: "musteri_adi", Source: "Müşteri Adı", DataType: schema.VarChar255, Nullable: true},
		{Name: "tutar", Source: "Tutar", DataType: schema.Int11, Nullable: true},
		{Name: "tarih", Source: "Tarih", DataType: schema.Date, Nullable: true},
		{Name: "id_satis_tablosu_1", Source: "id", DataType: schema.VarChar255, Nullable: true},
	}
	assert.Equal(t, want, cols)
}

func TestColumnsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frame := &source.Frame{Headers: []string{"a"}, Rows: [][]source.Cell{cells("1")}}
	_, err := Columns(ctx, frame, "t")
	assert.ErrorIs(t, err, context.Canceled)
}
