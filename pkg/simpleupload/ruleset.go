package simpleupload

import "slices"

// DefaultRequired are the elements every signed upload policy must carry.
var DefaultRequired = []string{ElementACL, ElementBucket, ElementKey}

// DefaultOptional are the elements a browser upload widget may add.
var DefaultOptional = []string{
	"Cache-Control",
	ElementContentLengthRange,
	ElementContentType,
	"Content-Disposition",
	"Content-Encoding",
	"redirect",
	ElementSuccessActionRedirect,
	ElementSuccessActionStatus,
	ElementFilename,
	"x-amz-security-token",
}

// Ruleset configures the Validator. It is read-only once built and may be
// shared between concurrent requests.
type Ruleset struct {
	Required                      []string
	Optional                      []string
	AllowAlternateOperators       bool
	AllowedBuckets                []string
	AllowedACLs                   []string
	AllowedSuccessActionRedirects []string

	rules map[string]Rule
}

// RulesetOption is a functional option for configuring a Ruleset
type RulesetOption func(*Ruleset)

// WithAllowedBuckets sets the buckets a policy may target
func WithAllowedBuckets(buckets ...string) RulesetOption {
	return func(rs *Ruleset) {
		rs.AllowedBuckets = append([]string(nil), buckets...)
	}
}

// WithAllowedACLs sets the canned ACLs a policy may request
func WithAllowedACLs(acls ...string) RulesetOption {
	return func(rs *Ruleset) {
		rs.AllowedACLs = append([]string(nil), acls...)
	}
}

// WithAllowedRedirects sets the accepted success_action_redirect values
func WithAllowedRedirects(urls ...string) RulesetOption {
	return func(rs *Ruleset) {
		rs.AllowedSuccessActionRedirects = append([]string(nil), urls...)
	}
}

// WithAlternateOperators permits starts-with conditions
func WithAlternateOperators(allow bool) RulesetOption {
	return func(rs *Ruleset) {
		rs.AllowAlternateOperators = allow
	}
}

// WithOptional adds element names to the optional set
func WithOptional(names ...string) RulesetOption {
	return func(rs *Ruleset) {
		for _, name := range names {
			if !slices.Contains(rs.Optional, name) {
				rs.Optional = append(rs.Optional, name)
			}
		}
	}
}

// WithRule registers or replaces the rule for an element name.
// A nil rule removes it.
func WithRule(name string, rule Rule) RulesetOption {
	return func(rs *Ruleset) {
		if rule == nil {
			delete(rs.rules, name)
			return
		}
		rs.rules[name] = rule
	}
}

// NewRuleset builds a ruleset over the lenient BaseRules.
func NewRuleset(required, optional []string, opts ...RulesetOption) *Ruleset {
	return newRuleset(required, optional, BaseRules(), opts)
}

// DefaultRuleset requires acl, bucket and key, permits DefaultOptional, rejects
// starts-with and applies StrictRules.
func DefaultRuleset(opts ...RulesetOption) *Ruleset {
	return newRuleset(DefaultRequired, DefaultOptional, StrictRules(), opts)
}

func newRuleset(required, optional []string, rules map[string]Rule, opts []RulesetOption) *Ruleset {
	rs := &Ruleset{
		Required: append([]string(nil), required...),
		Optional: append([]string(nil), optional...),
		rules:    rules,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Allows reports whether name is required or optional.
func (rs *Ruleset) Allows(name string) bool {
	return slices.Contains(rs.Required, name) || slices.Contains(rs.Optional, name)
}

// Rule returns the rule registered for name.
func (rs *Ruleset) Rule(name string) (Rule, bool) {
	rule, ok := rs.rules[name]
	return rule, ok
}
