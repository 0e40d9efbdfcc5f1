package simpleupload_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

func testRuleset(opts ...simpleupload.RulesetOption) *simpleupload.Ruleset {
	opts = append([]simpleupload.RulesetOption{
		simpleupload.WithAllowedBuckets("my-bucket"),
		simpleupload.WithAllowedACLs("private"),
	}, opts...)
	return simpleupload.DefaultRuleset(opts...)
}

func validationErrors(t *testing.T, err error) simpleupload.ValidationErrors {
	t.Helper()
	verrs, ok := simpleupload.AsValidationErrors(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	return verrs
}

func TestValidateDocument(t *testing.T) {
	rs := simpleupload.NewRuleset([]string{"acl", "bucket", "key"}, nil,
		simpleupload.WithAllowedBuckets("my-bucket"),
		simpleupload.WithAllowedACLs("private"),
	)

	t.Run("required conditions present", func(t *testing.T) {
		p, err := simpleupload.ValidateDocument([]byte(`{"conditions":[{"acl":"private"},{"bucket":"my-bucket"},{"key":"u/1"}]}`), rs)
		require.NoError(t, err)
		assert.Equal(t, []string{"acl", "bucket", "key"}, p.Names())
	})

	t.Run("key missing", func(t *testing.T) {
		_, err := simpleupload.ValidateDocument([]byte(`{"conditions":[{"acl":"private"},{"bucket":"my-bucket"}]}`), rs)
		assert.Equal(t, simpleupload.ValidationErrors{
			"conditions.key": {"Required condition is missing"},
		}, validationErrors(t, err))
	})

	t.Run("malformed conditions stop validation", func(t *testing.T) {
		_, err := simpleupload.ValidateDocument([]byte(`{"conditions":[[],{"foo":"bar"}]}`), rs)
		assert.Equal(t, []string{"conditions"}, validationErrors(t, err).Fields())
	})
}

func TestValidate(t *testing.T) {
	base := []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `{"key":"u/1"}`}

	tests := []struct {
		name       string
		conditions []string
		ruleset    *simpleupload.Ruleset
		expected   simpleupload.ValidationErrors
	}{
		{
			name:       "valid",
			conditions: append(base, `["content-length-range",0,1048576]`, `{"Content-Type":"image/png"}`, `{"success_action_status":"201"}`),
		},
		{
			name:       "duplicate element",
			conditions: append(base, `{"acl":"private"}`),
			expected:   simpleupload.ValidationErrors{"conditions.acl": {simpleupload.MsgDuplicateElement}},
		},
		{
			name:       "unknown element",
			conditions: append(base, `{"foo":"bar"}`),
			expected:   simpleupload.ValidationErrors{"conditions.foo": {simpleupload.MsgInvalidElement}},
		},
		{
			name:       "starts-with rejected",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `["starts-with","$key","u/"]`},
			expected:   simpleupload.ValidationErrors{"conditions.key": {simpleupload.MsgOperatorNotAllowed}},
		},
		{
			name:       "starts-with allowed",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `["starts-with","$key","u/"]`},
			ruleset:    testRuleset(simpleupload.WithAlternateOperators(true)),
		},
		{
			name:       "eq operator is always allowed",
			conditions: []string{`["eq","$acl","private"]`, `{"bucket":"my-bucket"}`, `{"key":"u/1"}`},
		},
		{
			name:       "every failure is collected",
			conditions: []string{`{"acl":"public-read"}`, `{"bucket":"other-bucket"}`},
			expected: simpleupload.ValidationErrors{
				"conditions.acl":    {"ACL not allowed"},
				"conditions.bucket": {"Bucket not allowed"},
				"conditions.key":    {simpleupload.MsgRequiredMissing},
			},
		},
		{
			name:       "numeric acl",
			conditions: []string{`{"acl":1}`, `{"bucket":"my-bucket"}`, `{"key":"u/1"}`},
			expected:   simpleupload.ValidationErrors{"conditions.acl": {"ACL should be a string"}},
		},
		{
			name:       "bucket allowed but malformed",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"a!"}`, `{"key":"u/1"}`},
			ruleset:    simpleupload.DefaultRuleset(simpleupload.WithAllowedBuckets("a!"), simpleupload.WithAllowedACLs("private")),
			expected:   simpleupload.ValidationErrors{"conditions.bucket": {"Invalid bucket name"}},
		},
		{
			name:       "empty allow-list allows nothing",
			conditions: base,
			ruleset:    simpleupload.DefaultRuleset(simpleupload.WithAllowedACLs("private")),
			expected:   simpleupload.ValidationErrors{"conditions.bucket": {"Bucket not allowed"}},
		},
		{
			name:       "key too long",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `{"key":"` + strings.Repeat("a", simpleupload.MaxKeyLength+1) + `"}`},
			expected:   simpleupload.ValidationErrors{"conditions.key": {"Key too long"}},
		},
		{
			name:       "key at maximum length",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `{"key":"` + strings.Repeat("é", simpleupload.MaxKeyLength) + `"}`},
			ruleset:    simpleupload.NewRuleset(simpleupload.DefaultRequired, nil, simpleupload.WithAllowedBuckets("my-bucket"), simpleupload.WithAllowedACLs("private")),
		},
		{
			name:       "numeric key",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `{"key":12}`},
			expected:   simpleupload.ValidationErrors{"conditions.key": {"Key should be a string"}},
		},
		{
			name:       "strict key characters",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `{"key":"u/my file"}`},
			expected:   simpleupload.ValidationErrors{"conditions.key": {"Invalid character in key"}},
		},
		{
			name:       "lenient key characters",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `{"key":"u/my file"}`},
			ruleset:    simpleupload.NewRuleset(simpleupload.DefaultRequired, nil, simpleupload.WithAllowedBuckets("my-bucket"), simpleupload.WithAllowedACLs("private")),
		},
		{
			name:       "content-length-range descending",
			conditions: append(base, `["content-length-range",100,0]`),
			expected:   simpleupload.ValidationErrors{"conditions.content-length-range": {"content-length-range should be ordered ascending"}},
		},
		{
			name:       "content-length-range negative",
			conditions: append(base, `["content-length-range",-1,10]`),
			expected:   simpleupload.ValidationErrors{"conditions.content-length-range": {"content-length-range should be non-negative integers"}},
		},
		{
			name:       "content-length-range numeric strings",
			conditions: append(base, `["content-length-range","0","100"]`),
		},
		{
			name:       "content-length-range equal bounds",
			conditions: append(base, `["content-length-range",5,5]`),
		},
		{
			name:       "content-length-range largest int64",
			conditions: append(base, `["content-length-range",0,9223372036854775807]`),
		},
		{
			name:       "content-length-range beyond int64",
			conditions: append(base, `["content-length-range",0,9223372036854775808]`),
			expected:   simpleupload.ValidationErrors{"conditions.content-length-range": {"content-length-range should be non-negative integers"}},
		},
		{
			name:       "content-length-range text",
			conditions: append(base, `["content-length-range","small","large"]`),
			expected:   simpleupload.ValidationErrors{"conditions.content-length-range": {"content-length-range should be non-negative integers"}},
		},
		{
			name:       "content type without subtype",
			conditions: append(base, `{"Content-Type":"image/"}`),
			expected:   simpleupload.ValidationErrors{"conditions.Content-Type": {"Invalid Content-Type"}},
		},
		{
			name:       "success_action_status out of range",
			conditions: append(base, `{"success_action_status":"500"}`),
			expected:   simpleupload.ValidationErrors{"conditions.success_action_status": {"success_action_status should be between 200 and 399"}},
		},
		{
			name:       "success_action_redirect not allowed",
			conditions: append(base, `{"success_action_redirect":"https://evil.example.com"}`),
			expected:   simpleupload.ValidationErrors{"conditions.success_action_redirect": {"success_action_redirect not allowed"}},
		},
		{
			name:       "success_action_redirect allowed",
			conditions: append(base, `{"success_action_redirect":"https://app.example.com/done"}`),
			ruleset:    testRuleset(simpleupload.WithAllowedRedirects("https://app.example.com/done")),
		},
		{
			name:       "empty success_action_redirect",
			conditions: append(base, `{"success_action_redirect":""}`),
		},
		{
			name:       "strict filename",
			conditions: append(base, `{"x-amz-meta-qqfilename":"my photo.jpg"}`),
			expected:   simpleupload.ValidationErrors{"conditions.x-amz-meta-qqfilename": {"Filename should not include fancy characters"}},
		},
		{
			name:       "loose filename",
			conditions: append(base, `{"x-amz-meta-qqfilename":"my photo.jpg"}`),
			ruleset:    simpleupload.NewRuleset(simpleupload.DefaultRequired, simpleupload.DefaultOptional, simpleupload.WithAllowedBuckets("my-bucket"), simpleupload.WithAllowedACLs("private")),
		},
		{
			name:       "duplicate messages are reported once",
			conditions: []string{`{"acl":"private"}`, `{"bucket":"my-bucket"}`, `{"key":"a b"}`, `{"key":"c d"}`},
			expected:   simpleupload.ValidationErrors{"conditions.key": {simpleupload.MsgDuplicateElement, "Invalid character in key"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := tt.ruleset
			if rs == nil {
				rs = testRuleset()
			}
			doc := `{"conditions":[` + strings.Join(tt.conditions, ",") + `]}`
			p, err := simpleupload.ValidateDocument([]byte(doc), rs)

			if tt.expected == nil {
				require.NoError(t, err)
				assert.Len(t, p.Conditions, len(tt.conditions))
				return
			}
			assert.Nil(t, p)
			assert.Equal(t, tt.expected, validationErrors(t, err))
		})
	}
}

func TestRulesetCustomRule(t *testing.T) {
	errTooBig := errors.New("Size should be at most 10")
	rs := testRuleset(
		simpleupload.WithOptional("x-amz-meta-size"),
		simpleupload.WithRule("x-amz-meta-size", func(c simpleupload.Condition, rs *simpleupload.Ruleset) error {
			n, err := c.Value.Int64()
			if err != nil || n > 10 {
				return errTooBig
			}
			return nil
		}),
	)

	doc := `{"conditions":[{"acl":"private"},{"bucket":"my-bucket"},{"key":"u/1"},{"x-amz-meta-size":11}]}`
	_, err := simpleupload.ValidateDocument([]byte(doc), rs)
	assert.Equal(t, simpleupload.ValidationErrors{"conditions.x-amz-meta-size": {errTooBig.Error()}}, validationErrors(t, err))

	// Removing the key rule lifts the character check
	rs = testRuleset(simpleupload.WithRule("key", nil))
	_, ok := rs.Rule("key")
	assert.False(t, ok)
	_, err = simpleupload.ValidateDocument([]byte(`{"conditions":[{"acl":"private"},{"bucket":"my-bucket"},{"key":"u/a b"}]}`), rs)
	assert.NoError(t, err)
}

func TestRulesetAllows(t *testing.T) {
	rs := simpleupload.DefaultRuleset()
	assert.True(t, rs.Allows("acl"))
	assert.True(t, rs.Allows("Content-Type"))
	assert.True(t, rs.Allows("x-amz-security-token"))
	assert.False(t, rs.Allows("content-type"))
	assert.False(t, rs.AllowAlternateOperators)
	assert.Empty(t, rs.AllowedBuckets)
}

func TestCharacterClasses(t *testing.T) {
	tests := []struct {
		name  string
		check func(string) bool
		input string
		valid bool
	}{
		{"url safe", simpleupload.IsURLSafe, "uploads/alice/a-b_c.d~e", true},
		{"url reserved", simpleupload.IsURLSafe, "a?b=c&d#e", true},
		{"url space", simpleupload.IsURLSafe, "a b", false},
		{"url non-ascii", simpleupload.IsURLSafe, "café", false},
		{"media type", simpleupload.IsMediaType, "image/svg+xml", true},
		{"media type vendor", simpleupload.IsMediaType, "application/vnd.ms-excel", true},
		{"media type parameters", simpleupload.IsMediaType, "text/plain; charset=utf-8", false},
		{"media type no slash", simpleupload.IsMediaType, "text", false},
		{"media type empty type", simpleupload.IsMediaType, "/plain", false},
		{"bucket", simpleupload.IsBucketName, "my.bucket-1", true},
		{"bucket too short", simpleupload.IsBucketName, "ab", false},
		{"bucket too long", simpleupload.IsBucketName, strings.Repeat("a", 256), false},
		{"bucket slash", simpleupload.IsBucketName, "a/b", false},
		{"filename", simpleupload.IsPrintableFilename, "Résumé (final).pdf", true},
		{"filename leading space", simpleupload.IsPrintableFilename, " a.txt", false},
		{"filename control", simpleupload.IsPrintableFilename, "a\nb", false},
		{"filename empty", simpleupload.IsPrintableFilename, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.check(tt.input))
		})
	}
}
