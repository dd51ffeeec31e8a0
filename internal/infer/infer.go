// Package infer suggests a MySQL column type for every column of a Frame.
package infer

import (
	"context"
	"math"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"benritz/tomysql/internal/naming"
	"benritz/tomysql/internal/schema"
	"benritz/tomysql/internal/source"
)

// DateThreshold is the share of values that must parse as dates before a
// column is typed DATE or DATETIME. The comparison is strict.
const DateThreshold = 0.8

// SuggestType returns the suggested type for the values of one column.
// Missing cells are ignored; a column with no values is VARCHAR(255).
func SuggestType(cells []source.Cell) schema.DataType {
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		if !c.Null {
			values = append(values, strings.TrimSpace(c.Value))
		}
	}
	if len(values) == 0 {
		return schema.VarChar255
	}

	if dt, ok := numericType(values); ok {
		return dt
	}
	return temporalType(values)
}

// numericType reports ok when every value is a number (or every value is a
// boolean literal). Integral columns become INT(11) or BIGINT depending on
// range; anything with a fraction is left as VARCHAR(255).
func numericType(values []string) (schema.DataType, bool) {
	if allBool(values) {
		return schema.Int11, true
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	integral := true
	for _, v := range values {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f := float64(n)
			lo, hi = math.Min(lo, f), math.Max(hi, f)
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return schema.DataType{}, false
		}
		if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
			integral = false
		}
		lo, hi = math.Min(lo, f), math.Max(hi, f)
	}

	if !integral {
		return schema.VarChar255, true
	}
	if lo >= math.MinInt32 && hi <= math.MaxInt32 {
		return schema.Int11, true
	}
	return schema.BigInt, true
}

func allBool(values []string) bool {
	for _, v := range values {
		if _, ok := ParseBool(v); !ok {
			return false
		}
	}
	return true
}

// ParseBool accepts the spellings a spreadsheet export uses for booleans.
func ParseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

func temporalType(values []string) schema.DataType {
	parsed := 0
	withClock, clockOnly := false, true
	for _, v := range values {
		t, ok := ParseTime(v)
		if !ok {
			continue
		}
		parsed++
		if hasClock(t) {
			withClock = true
		}
		if HasDate(t) {
			clockOnly = false
		}
	}

	if float64(parsed)/float64(len(values)) <= DateThreshold {
		return schema.VarChar255
	}
	if clockOnly {
		return schema.Time
	}
	if withClock {
		return schema.DateTime
	}
	return schema.Date
}

// Columns builds the initial column plan for frame: one nullable column per
// header with a cleaned, unique name and the suggested type.
func Columns(ctx context.Context, frame *source.Frame, table string) ([]schema.Column, error) {
	types := make([]schema.DataType, len(frame.Headers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range frame.Headers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			types[i] = SuggestType(frame.Column(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := naming.NewUniquer(naming.Clean(table))
	cols := make([]schema.Column, len(frame.Headers))
	for i, h := range frame.Headers {
		cols[i] = schema.Column{
			Name:     names.Name(h),
			Source:   h,
			DataType: types[i],
			Nullable: true,
		}
	}
	return cols, nil
}
