package simpleupload

// Operator is the optional comparison of an array-form condition.
type Operator string

const (
	OpNone       Operator = ""
	OpEq         Operator = "eq"
	OpStartsWith Operator = "starts-with"
)

// IsAlternate reports whether the operator is anything other than none or eq.
func (o Operator) IsAlternate() bool {
	return o != OpNone && o != OpEq
}

func (o Operator) valid() bool {
	return o == OpNone || o == OpEq || o == OpStartsWith
}

// Range is the ordered pair of bounds of a condition such as content-length-range.
type Range struct {
	Low  Value
	High Value
}

// Condition is one constraint of an upload policy.
//
// Exactly one of Value and Range is set. Operator is only meaningful together
// with Value.
type Condition struct {
	Operator    Operator
	ElementName string
	Value       Value
	Range       *Range
}

// NewCondition returns the dictionary form {name: v}.
func NewCondition(name string, v Value) Condition {
	return Condition{ElementName: name, Value: v}
}

// NewOperatorCondition returns the array form [op, "$name", v].
func NewOperatorCondition(op Operator, name string, v Value) Condition {
	return Condition{Operator: op, ElementName: name, Value: v}
}

// NewRangeCondition returns the array form [name, low, high].
func NewRangeCondition(name string, low, high Value) Condition {
	return Condition{ElementName: name, Range: &Range{Low: low, High: high}}
}

// Check reports an illegal field combination.
func (c Condition) Check() error {
	if c.ElementName == "" {
		return ErrMissingElementName
	}
	if !c.Operator.valid() {
		return ErrUnknownOperator
	}
	if c.Range != nil {
		if !c.Value.IsZero() {
			return ErrConflictingValues
		}
		if c.Operator != OpNone {
			return ErrOperatorWithRange
		}
		if c.Range.Low.IsZero() || c.Range.High.IsZero() {
			return ErrMissingValue
		}
		return nil
	}
	if c.Value.IsZero() {
		return ErrMissingValue
	}
	return nil
}

// Bounds returns the range bounds, treating a single value as a one-element range.
func (c Condition) Bounds() []Value {
	if c.Range != nil {
		return []Value{c.Range.Low, c.Range.High}
	}
	if c.Value.IsZero() {
		return nil
	}
	return []Value{c.Value}
}
