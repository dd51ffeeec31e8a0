package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type DataTypeKind string

const (
	KindVarChar  DataTypeKind = "varchar"
	KindInt      DataTypeKind = "int"
	KindBigInt   DataTypeKind = "bigint"
	KindText     DataTypeKind = "text"
	KindLongText DataTypeKind = "longtext"
	KindDate     DataTypeKind = "date"
	KindTime     DataTypeKind = "time"
	KindDateTime DataTypeKind = "datetime"
	KindEnum     DataTypeKind = "enum"
)

const (
	DefaultVarCharLength = 255
	DefaultIntWidth      = 11
)

type DataType struct {
	Kind   DataTypeKind
	Length int
}

var (
	VarChar255 = DataType{Kind: KindVarChar, Length: DefaultVarCharLength}
	Int11      = DataType{Kind: KindInt, Length: DefaultIntWidth}
	BigInt     = DataType{Kind: KindBigInt}
	Text       = DataType{Kind: KindText}
	LongText   = DataType{Kind: KindLongText}
	Date       = DataType{Kind: KindDate}
	Time       = DataType{Kind: KindTime}
	DateTime   = DataType{Kind: KindDateTime}
	Enum       = DataType{Kind: KindEnum}
)

var typeRe = regexp.MustCompile(`^([a-z_]+)\s*(?:\(\s*(\d+)\s*\))?$`)

// ParseDataType accepts the MySQL spelling ("VARCHAR(255)", "INT(11)", "BIGINT")
// or the bare kind name ("varchar", "int").
func ParseDataType(s string) (DataType, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	m := typeRe.FindStringSubmatch(raw)
	if m == nil {
		return DataType{}, fmt.Errorf("invalid data type: %q", s)
	}
	length := 0
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return DataType{}, fmt.Errorf("invalid length in data type %q: %w", s, err)
		}
		length = n
	}

	var dt DataType
	switch m[1] {
	case "varchar":
		dt.Kind = KindVarChar
		dt.Length = DefaultVarCharLength
		if length > 0 {
			dt.Length = length
		}
	case "int", "integer":
		dt.Kind = KindInt
		dt.Length = DefaultIntWidth
		if length > 0 {
			dt.Length = length
		}
	case "bigint":
		dt.Kind = KindBigInt
		dt.Length = length
	case "text":
		dt.Kind = KindText
	case "longtext":
		dt.Kind = KindLongText
	case "date":
		dt.Kind = KindDate
	case "time":
		dt.Kind = KindTime
	case "datetime":
		dt.Kind = KindDateTime
	case "enum":
		dt.Kind = KindEnum
	default:
		return DataType{}, fmt.Errorf("unknown data type: %s", s)
	}
	if length > 0 && !dt.acceptsLength() {
		return DataType{}, fmt.Errorf("data type %s does not take a length", dt.Kind)
	}
	return dt, nil
}

func (dt DataType) acceptsLength() bool {
	switch dt.Kind {
	case KindVarChar, KindInt, KindBigInt:
		return true
	}
	return false
}

func (dt DataType) IsString() bool {
	switch dt.Kind {
	case KindVarChar, KindText, KindLongText, KindEnum:
		return true
	}
	return false
}

func (dt DataType) IsInteger() bool {
	return dt.Kind == KindInt || dt.Kind == KindBigInt
}

func (dt DataType) IsTemporal() bool {
	switch dt.Kind {
	case KindDate, KindTime, KindDateTime:
		return true
	}
	return false
}

// String renders the type the way it appears in a column definition,
// without ENUM members.
func (dt DataType) String() string {
	switch dt.Kind {
	case KindVarChar:
		length := dt.Length
		if length <= 0 {
			length = DefaultVarCharLength
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	case KindInt:
		width := dt.Length
		if width <= 0 {
			width = DefaultIntWidth
		}
		return fmt.Sprintf("INT(%d)", width)
	case KindBigInt:
		if dt.Length > 0 {
			return fmt.Sprintf("BIGINT(%d)", dt.Length)
		}
		return "BIGINT"
	default:
		return strings.ToUpper(string(dt.Kind))
	}
}

type Column struct {
	Name       string
	Source     string
	DataType   DataType
	Nullable   bool
	Default    string
	EnumValues []string
}

type Table struct {
	Name    string
	Columns []Column
}
