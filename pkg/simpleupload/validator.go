package simpleupload

import "slices"

// Validation messages
const (
	MsgDuplicateElement   = "Duplicate element name"
	MsgInvalidElement     = "Invalid element name"
	MsgOperatorNotAllowed = "starts-with and operators other than 'eq' are not allowed"
	MsgRequiredMissing    = "Required condition is missing"
)

// FieldName is the error key for an element.
func FieldName(element string) string {
	return "conditions." + element
}

// Validate checks p against rs. Every problem is collected before returning,
// so the error is either nil or a ValidationErrors holding all of them. On
// success the policy is returned with its conditions in their original order.
func Validate(p *Policy, rs *Ruleset) (*Policy, error) {
	errs := ValidationErrors{}
	add := func(element, msg string) {
		field := FieldName(element)
		if !slices.Contains(errs[field], msg) {
			errs.Add(field, msg)
		}
	}

	seen := make(map[string]int, len(p.Conditions))
	for _, c := range p.Conditions {
		seen[c.ElementName]++
	}
	for _, c := range p.Conditions {
		if seen[c.ElementName] > 1 {
			add(c.ElementName, MsgDuplicateElement)
		}
	}

	for _, c := range p.Conditions {
		if c.Operator.IsAlternate() && !rs.AllowAlternateOperators {
			add(c.ElementName, MsgOperatorNotAllowed)
		} else if !rs.Allows(c.ElementName) {
			add(c.ElementName, MsgInvalidElement)
		}
	}

	for _, c := range p.Conditions {
		rule, ok := rs.Rule(c.ElementName)
		if !ok {
			continue
		}
		if err := rule(c, rs); err != nil {
			add(c.ElementName, err.Error())
		}
	}

	for _, name := range rs.Required {
		if seen[name] == 0 {
			add(name, MsgRequiredMissing)
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateDocument parses and validates a raw policy document.
func ValidateDocument(data []byte, rs *Ruleset) (*Policy, error) {
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, err
	}
	return Validate(p, rs)
}
