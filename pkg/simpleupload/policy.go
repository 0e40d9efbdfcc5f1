package simpleupload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ExpirationLayout is the wire format of a policy expiration.
const ExpirationLayout = "2006-01-02T15:04:05Z"

// Policy is an upload policy document.
type Policy struct {
	Expiration time.Time
	Conditions []Condition
}

// Get returns the condition for the given element name.
func (p *Policy) Get(name string) (Condition, bool) {
	for _, c := range p.Conditions {
		if c.ElementName == name {
			return c, true
		}
	}
	return Condition{}, false
}

// Names returns the element names in document order.
func (p *Policy) Names() []string {
	names := make([]string, 0, len(p.Conditions))
	for _, c := range p.Conditions {
		names = append(names, c.ElementName)
	}
	return names
}

// WithExpiration returns a copy of the policy expiring at t, truncated to
// whole seconds in UTC.
func (p *Policy) WithExpiration(t time.Time) *Policy {
	conditions := make([]Condition, len(p.Conditions))
	copy(conditions, p.Conditions)
	return &Policy{Expiration: t.UTC().Truncate(time.Second), Conditions: conditions}
}

// MarshalJSON writes the canonical document:
//
//	{"expiration":"2024-01-02T03:04:05Z","conditions":[{"acl":"private"},...]}
//
// No insignificant whitespace, no HTML escaping, conditions in order.
// expiration is omitted when unset.
func (p Policy) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if !p.Expiration.IsZero() {
		buf.WriteString(`"expiration":"`)
		buf.WriteString(p.Expiration.UTC().Format(ExpirationLayout))
		buf.WriteString(`",`)
	}
	buf.WriteString(`"conditions":[`)
	for i, c := range p.Conditions {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := c.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("condition %d (%s): %w", i, c.ElementName, err)
		}
		buf.Write(b)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

type policyDocument struct {
	Expiration *string          `json:"expiration"`
	Conditions *json.RawMessage `json:"conditions"`
}

// ParsePolicy decodes a policy document. Structural problems are returned as
// ValidationErrors keyed "expiration", "conditions" or "non_field_errors";
// every malformed condition is reported.
func ParsePolicy(data []byte) (*Policy, error) {
	var doc policyDocument
	if err := decodeJSON(data, &doc); err != nil {
		return nil, ValidationErrors{"non_field_errors": {"Policy must be a JSON object: " + err.Error()}}
	}

	errs := ValidationErrors{}
	p := &Policy{}
	if doc.Expiration != nil && *doc.Expiration != "" {
		t, err := time.Parse(time.RFC3339Nano, *doc.Expiration)
		if err != nil {
			errs.Add("expiration", "Datetime has wrong format. Use YYYY-MM-DDThh:mm:ssZ")
		} else {
			p.Expiration = t.UTC()
		}
	}

	if doc.Conditions == nil {
		errs.Add("conditions", "This field is required.")
		return nil, errs
	}
	var raw []any
	if err := decodeJSON(*doc.Conditions, &raw); err != nil {
		errs.Add("conditions", "Expected a list of conditions")
		return nil, errs
	}
	for _, item := range raw {
		c, err := DecodeCondition(item)
		if err != nil {
			errs.Add("conditions", err.Error())
			continue
		}
		p.Conditions = append(p.Conditions, c)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
