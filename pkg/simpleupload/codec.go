package simpleupload

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DecodeCondition converts one decoded JSON condition into a Condition.
// Accepted shapes:
//
//	{"bucket": "my-bucket"}
//	["content-length-range", 1024, 10485760]
//	["starts-with", "$key", "user/eric/"]
//
// Only structure is checked here; whether a value is legal for its element
// is decided by the Validator.
func DecodeCondition(raw any) (Condition, error) {
	switch t := raw.(type) {
	case []any:
		return decodeArray(t)
	case map[string]any:
		return decodeObject(t)
	}
	return Condition{}, conditionErrorf(ErrInvalidConditionShape,
		"Condition must be array or dictionary, not %s: %s", jsonTypeName(raw), describe(raw))
}

func decodeArray(items []any) (Condition, error) {
	values := make([]Value, 0, len(items))
	for _, item := range items {
		v, ok := valueFromAny(item)
		if !ok {
			return Condition{}, conditionErrorf(ErrInvalidValueType,
				"Values in condition arrays should be numbers or strings")
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return Condition{}, conditionErrorf(ErrEmptyCondition, "Empty condition array: %s", describe(items))
	}

	var c Condition
	if values[0].IsString() {
		if op := Operator(values[0].String()); op == OpEq || op == OpStartsWith {
			c.Operator = op
			values = values[1:]
		}
	}
	if len(values) == 0 {
		return Condition{}, conditionErrorf(ErrEmptyCondition, "Missing element in condition array: %s", describe(items))
	}
	if !values[0].IsString() {
		return Condition{}, conditionErrorf(ErrInvalidValueType,
			"Element name in condition array should be a string: %s", values[0].String())
	}
	name := values[0].String()
	values = values[1:]
	if c.Operator != OpNone {
		if !strings.HasPrefix(name, "$") {
			return Condition{}, conditionErrorf(ErrMissingElementMarker,
				"Element name in condition array should start with $: %s", name)
		}
		name = name[1:]
	}
	c.ElementName = name

	switch len(values) {
	case 0:
		return Condition{}, conditionErrorf(ErrEmptyCondition, "Missing values in condition array: %s", describe(items))
	case 1:
		c.Value = values[0]
	case 2:
		if c.Operator != OpNone {
			return Condition{}, conditionErrorf(ErrTooManyValues, "Too many values in condition array: %s", describe(items))
		}
		c.Range = &Range{Low: values[0], High: values[1]}
	default:
		return Condition{}, conditionErrorf(ErrTooManyValues, "Too many values in condition array: %s", describe(items))
	}
	return c, nil
}

func decodeObject(obj map[string]any) (Condition, error) {
	if len(obj) == 0 {
		return Condition{}, conditionErrorf(ErrEmptyCondition, "Empty condition dictionary: {}")
	}
	if len(obj) > 1 {
		return Condition{}, conditionErrorf(ErrTooManyValues, "Too many values in condition dictionary: %s", describe(obj))
	}
	for name, raw := range obj {
		v, ok := valueFromAny(raw)
		if !ok {
			return Condition{}, conditionErrorf(ErrInvalidValueType,
				"Values in condition dictionaries should be numbers or strings")
		}
		return Condition{ElementName: name, Value: v}, nil
	}
	return Condition{}, nil
}

// EncodeCondition is the inverse of DecodeCondition. It returns a []any for
// the array forms and a map[string]any for the dictionary form; numbers are
// json.Number.
func EncodeCondition(c Condition) (any, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	switch {
	case c.Range != nil:
		return []any{c.ElementName, c.Range.Low.Interface(), c.Range.High.Interface()}, nil
	case c.Operator != OpNone:
		return []any{string(c.Operator), "$" + c.ElementName, c.Value.Interface()}, nil
	default:
		return map[string]any{c.ElementName: c.Value.Interface()}, nil
	}
}

// MarshalJSON writes the canonical form used inside signed policy documents.
func (c Condition) MarshalJSON() ([]byte, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	var parts []string
	var values []Value
	switch {
	case c.Range != nil:
		buf.WriteByte('[')
		parts = []string{c.ElementName}
		values = []Value{c.Range.Low, c.Range.High}
	case c.Operator != OpNone:
		buf.WriteByte('[')
		parts = []string{string(c.Operator), "$" + c.ElementName}
		values = []Value{c.Value}
	default:
		name, err := marshalString(c.ElementName)
		if err != nil {
			return nil, err
		}
		value, err := c.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	for i, p := range parts {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalString(p)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	for _, v := range values {
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes any of the accepted wire shapes.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw any
	if err := decodeJSON(data, &raw); err != nil {
		return err
	}
	decoded, err := DecodeCondition(raw)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

var _ json.Marshaler = Condition{}
