package cell

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the variants of [Value].
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindError:
		return "error"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a closed variant over the values a worksheet cell can hold.
// The zero Value is Null.
type Value struct {
	str  string
	num  float64
	kind Kind
	b    bool
}

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null returns the blank value.
func Null() Value { return Value{} }

// Error returns an error marker such as "#DIV/0!".
func Error(code string) Value { return Value{kind: KindError, str: code} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is blank.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload; ok is false for non-Number values.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	return v.num, true
}

// Str returns the text payload of Text values and the code of Error values.
func (v Value) Str() (s string, ok bool) {
	if v.kind != KindText && v.kind != KindError {
		return "", false
	}

	return v.str, true
}

// Boolean returns the payload of Bool values.
func (v Value) Boolean() (b, ok bool) {
	if v.kind != KindBool {
		return false, false
	}

	return v.b, true
}

// Any returns the payload as a plain Go value: float64, string, bool, or nil.
// Error values return their code string.
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText, KindError:
		return v.str
	case KindBool:
		return v.b
	case KindNull:
		return nil
	}

	return nil
}

// Key returns a comparison key used for duplicate detection. Text compares
// case-insensitively. Null and Error values have no key.
func (v Value) Key() (string, bool) {
	switch v.kind {
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64), true
	case KindText:
		return "t:" + strings.ToLower(v.str), true
	case KindBool:
		return "b:" + strconv.FormatBool(v.b), true
	case KindNull, KindError:
		return "", false
	}

	return "", false
}

// Equal reports whether v and o hold the same variant and payload. Text is
// compared case-insensitively.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return strings.EqualFold(v.str, o.str)
	case KindBool:
		return v.b == o.b
	case KindError:
		return v.str == o.str
	case KindNull:
		return true
	}

	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.str)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindError:
		return v.str
	case KindNull:
		return "<blank>"
	}

	return ""
}

// FromAny converts a decoded scalar (as produced by YAML or JSON decoders)
// to a Value. Strings beginning with '#' and ending with '!' or '?' are
// treated as error markers, e.g. "#DIV/0!" or "#NAME?". Also "#N/A".
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("number %q: %w", t, err)
		}

		return Number(f), nil
	case bool:
		return Bool(t), nil
	case string:
		if isErrorCode(t) {
			return Error(t), nil
		}

		return Text(t), nil
	}

	return Value{}, fmt.Errorf("unsupported cell value type %T", x)
}

// Parse interprets raw worksheet text: blank is Null, numeric text is a
// Number, TRUE/FALSE are Bools, error codes are Errors, the rest is Text.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}

	switch strings.ToUpper(s) {
	case "TRUE":
		return Bool(true)
	case "FALSE":
		return Bool(false)
	}

	if isErrorCode(s) {
		return Error(s)
	}

	return Text(raw)
}

func isErrorCode(s string) bool {
	if len(s) < 3 || s[0] != '#' {
		return false
	}
	if s == "#N/A" {
		return true
	}

	last := s[len(s)-1]

	return last == '!' || last == '?'
}
