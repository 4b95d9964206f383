package entity

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind is the JSON value category of a Field, used when inferring column types.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindNested
)

var kindName = map[Kind]string{
	KindNull:   "null",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindBool:   "bool",
	KindNested: "nested",
}

func (k Kind) String() string {
	name, ok := kindName[k]
	if !ok {
		return "invalid"
	}
	return name
}

// Field is an optional value taken verbatim from an input record. It keeps the raw JSON
// text of the value so no coercion happens between input and output. A Field for a key
// that was absent in the input is the zero value, and is treated the same as explicit null.
type Field struct {
	raw string
}

// NewField creates a Field from raw JSON text, e.g. `42`, `"A"` or `null`.
func NewField(raw string) Field {
	return Field{raw: strings.TrimSpace(raw)}
}

// FieldFrom creates a Field from a gjson lookup result. Non-existing results give a null Field.
func FieldFrom(r gjson.Result) Field {
	if !r.Exists() {
		return Field{}
	}
	return NewField(r.Raw)
}

// Raw returns the raw JSON text of the value, or "null" for null/absent fields.
func (f Field) Raw() string {
	if f.IsNull() {
		return "null"
	}
	return f.raw
}

func (f Field) IsNull() bool {
	return f.raw == "" || f.raw == "null"
}

func (f Field) Kind() Kind {
	if f.IsNull() {
		return KindNull
	}
	r := gjson.Parse(f.raw)
	switch r.Type {
	case gjson.String:
		return KindString
	case gjson.True, gjson.False:
		return KindBool
	case gjson.Number:
		if isIntegerLiteral(f.raw) {
			return KindInt
		}
		return KindFloat
	case gjson.JSON:
		return KindNested
	}
	return KindNull
}

// Value returns the Go representation of the field: nil, int64, float64, string, bool,
// or the raw JSON string for nested values.
func (f Field) Value() any {
	r := gjson.Parse(f.raw)
	switch f.Kind() {
	case KindInt:
		return r.Int()
	case KindFloat:
		return r.Float()
	case KindString:
		return r.String()
	case KindBool:
		return r.Bool()
	case KindNested:
		return f.raw
	}
	return nil
}

func (f Field) String() string {
	if f.IsNull() {
		return "null"
	}
	if f.Kind() == KindString {
		return gjson.Parse(f.raw).String()
	}
	return f.raw
}

// A JSON number without fraction or exponent that fits in an int64.
func isIntegerLiteral(raw string) bool {
	if strings.ContainsAny(raw, ".eE") {
		return false
	}
	_, err := strconv.ParseInt(raw, 10, 64)
	return err == nil
}
