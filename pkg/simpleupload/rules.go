package simpleupload

import (
	"errors"
	"slices"
	"unicode/utf8"
)

// MaxKeyLength is the longest key S3 accepts, in code points.
const MaxKeyLength = 1024

// Rule checks one condition. The ruleset supplies allow-lists. A non-nil
// error's text is reported under conditions.<element name>.
type Rule func(c Condition, rs *Ruleset) error

// Compose runs rules in order and returns the first failure.
func Compose(rules ...Rule) Rule {
	return func(c Condition, rs *Ruleset) error {
		for _, rule := range rules {
			if err := rule(c, rs); err != nil {
				return err
			}
		}
		return nil
	}
}

// Predicate turns a string check into a Rule failing with msg.
func Predicate(ok func(string) bool, msg string) Rule {
	return func(c Condition, rs *Ruleset) error {
		if !c.Value.IsString() || !ok(c.Value.String()) {
			return errors.New(msg)
		}
		return nil
	}
}

// ACLRule requires a string ACL from the allowed ACLs.
func ACLRule(c Condition, rs *Ruleset) error {
	if !c.Value.IsString() {
		return errors.New("ACL should be a string")
	}
	if !slices.Contains(rs.AllowedACLs, c.Value.String()) {
		return errors.New("ACL not allowed")
	}
	return nil
}

// BucketRule requires a string bucket from the allowed buckets.
func BucketRule(c Condition, rs *Ruleset) error {
	if !c.Value.IsString() {
		return errors.New("Invalid bucket name")
	}
	if !slices.Contains(rs.AllowedBuckets, c.Value.String()) {
		return errors.New("Bucket not allowed")
	}
	return nil
}

// BucketNameRule checks generic S3 bucket-name syntax.
var BucketNameRule = Predicate(IsBucketName, "Invalid bucket name")

// KeyRule requires a string key of at most MaxKeyLength code points.
func KeyRule(c Condition, rs *Ruleset) error {
	if !c.Value.IsString() {
		return errors.New("Key should be a string")
	}
	if utf8.RuneCountInString(c.Value.String()) > MaxKeyLength {
		return errors.New("Key too long")
	}
	return nil
}

// KeyCharactersRule restricts keys to URL-safe characters.
var KeyCharactersRule = Predicate(IsURLSafe, "Invalid character in key")

// ContentTypeRule requires a type/subtype media type.
var ContentTypeRule = Predicate(IsMediaType, "Invalid Content-Type")

// ContentLengthRangeRule requires non-negative integer bounds in ascending order.
func ContentLengthRangeRule(c Condition, rs *Ruleset) error {
	bounds := c.Bounds()
	if len(bounds) == 0 {
		return errors.New("content-length-range requires a value")
	}
	ints := make([]int64, 0, len(bounds))
	for _, b := range bounds {
		n, err := b.Int64()
		if err != nil || n < 0 {
			return errors.New("content-length-range should be non-negative integers")
		}
		ints = append(ints, n)
	}
	if len(ints) == 2 && ints[0] > ints[1] {
		return errors.New("content-length-range should be ordered ascending")
	}
	return nil
}

// SuccessActionStatusRule requires an integer status between 200 and 399.
func SuccessActionStatusRule(c Condition, rs *Ruleset) error {
	n, err := c.Value.Int64()
	if err != nil {
		return errors.New("Invalid success_action_status")
	}
	if n < 200 || n > 399 {
		return errors.New("success_action_status should be between 200 and 399")
	}
	return nil
}

// SuccessActionRedirectRule requires an empty or allowed redirect URL.
func SuccessActionRedirectRule(c Condition, rs *Ruleset) error {
	if !c.Value.IsString() {
		return errors.New("Invalid success_action_redirect")
	}
	if c.Value.String() == "" {
		return nil
	}
	if !slices.Contains(rs.AllowedSuccessActionRedirects, c.Value.String()) {
		return errors.New("success_action_redirect not allowed")
	}
	return nil
}

var FilenameRule = Predicate(IsURLSafe, "Filename should not include fancy characters")

var LooseFilenameRule = Predicate(IsPrintableFilename, "Invalid character in x-amz-meta-qqfilename")

// Element names with a registered rule.
const (
	ElementACL                   = "acl"
	ElementBucket                = "bucket"
	ElementKey                   = "key"
	ElementContentType           = "Content-Type"
	ElementContentLengthRange    = "content-length-range"
	ElementSuccessActionStatus   = "success_action_status"
	ElementSuccessActionRedirect = "success_action_redirect"
	ElementFilename              = "x-amz-meta-qqfilename"
)

// BaseRules are the lenient rules: allow-lists, key length, loose filenames.
func BaseRules() map[string]Rule {
	return map[string]Rule{
		ElementACL:                   ACLRule,
		ElementBucket:                BucketRule,
		ElementKey:                   KeyRule,
		ElementContentType:           ContentTypeRule,
		ElementContentLengthRange:    ContentLengthRangeRule,
		ElementSuccessActionStatus:   SuccessActionStatusRule,
		ElementSuccessActionRedirect: SuccessActionRedirectRule,
		ElementFilename:              LooseFilenameRule,
	}
}

// StrictRules extend BaseRules with bucket syntax, URL-safe keys and URL-safe filenames.
func StrictRules() map[string]Rule {
	rules := BaseRules()
	rules[ElementBucket] = Compose(BucketRule, BucketNameRule)
	rules[ElementKey] = Compose(KeyRule, KeyCharactersRule)
	rules[ElementFilename] = FilenameRule
	return rules
}
