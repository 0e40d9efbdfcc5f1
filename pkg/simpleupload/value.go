package simpleupload

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindUnset valueKind = iota
	kindString
	kindNumber
)

// Value is a scalar condition value. It holds either a string or a number;
// numbers keep their literal text so re-encoding reproduces the submitted bytes.
// The zero Value is unset.
type Value struct {
	kind valueKind
	text string
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: kindString, text: s}
}

// Int returns a numeric Value.
func Int(n int64) Value {
	return Value{kind: kindNumber, text: strconv.FormatInt(n, 10)}
}

// Number returns a numeric Value from a JSON number literal.
func Number(n json.Number) Value {
	return Value{kind: kindNumber, text: n.String()}
}

// valueFromAny converts a decoded JSON scalar. ok is false for anything that
// is neither a string nor a number.
func valueFromAny(v any) (Value, bool) {
	switch t := v.(type) {
	case string:
		return String(t), true
	case json.Number:
		return Number(t), true
	case float64:
		return Value{kind: kindNumber, text: strconv.FormatFloat(t, 'f', -1, 64)}, true
	case float32:
		return Value{kind: kindNumber, text: strconv.FormatFloat(float64(t), 'f', -1, 32)}, true
	case int:
		return Int(int64(t)), true
	case int32:
		return Int(int64(t)), true
	case int64:
		return Int(t), true
	case uint:
		return Value{kind: kindNumber, text: strconv.FormatUint(uint64(t), 10)}, true
	case uint32:
		return Value{kind: kindNumber, text: strconv.FormatUint(uint64(t), 10)}, true
	case uint64:
		return Value{kind: kindNumber, text: strconv.FormatUint(t, 10)}, true
	}
	return Value{}, false
}

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return v.kind == kindUnset }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { return v.kind == kindString }

// IsNumber reports whether the value is a number.
func (v Value) IsNumber() bool { return v.kind == kindNumber }

// String returns the string content, or the literal text of a number.
func (v Value) String() string { return v.text }

// Int64 interprets the value as an integer. Strings are accepted when they
// hold a base-10 integer; numbers must be integral.
func (v Value) Int64() (int64, error) {
	switch v.kind {
	case kindString:
		return strconv.ParseInt(strings.TrimSpace(v.text), 10, 64)
	case kindNumber:
		if n, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%s is not an integer", v.text)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if f >= 1<<63 || f < math.MinInt64 {
			return 0, fmt.Errorf("%s is out of range", v.text)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("value is unset")
}

// Interface returns the value as a string or json.Number, or nil when unset.
func (v Value) Interface() any {
	switch v.kind {
	case kindString:
		return v.text
	case kindNumber:
		return json.Number(v.text)
	}
	return nil
}

// MarshalJSON writes strings without HTML escaping and numbers verbatim.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return marshalString(v.text)
	case kindNumber:
		return []byte(v.text), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a JSON string or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := decodeJSON(data, &raw); err != nil {
		return err
	}
	val, ok := valueFromAny(raw)
	if !ok {
		return fmt.Errorf("value must be a string or a number, not %s", jsonTypeName(raw))
	}
	*v = val
	return nil
}
