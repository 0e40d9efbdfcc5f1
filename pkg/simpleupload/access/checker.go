package access

import (
	"context"
	"strings"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// DefaultRequiredACL is the ACL every signed policy must request
const DefaultRequiredACL = "private"

// Checker confines each caller to its own key namespace in the upload bucket.
// The same prefix derivation serves policy signing and completion, so a key
// signed for upload is always accepted when the upload completes.
type Checker struct {
	uploadBucket string
	prefixFunc   PrefixFunc
	requiredACL  string
}

// Option is a functional option for configuring a Checker
type Option func(*Checker)

// WithPrefixFunc sets the namespace strategy
func WithPrefixFunc(fn PrefixFunc) Option {
	return func(c *Checker) {
		c.prefixFunc = fn
	}
}

// WithRequiredACL sets the ACL signed policies must carry
func WithRequiredACL(acl string) Option {
	return func(c *Checker) {
		c.requiredACL = acl
	}
}

// NewChecker creates a Checker for uploadBucket. The default strategy is
// UsernamePrefix("").
func NewChecker(uploadBucket string, opts ...Option) *Checker {
	c := &Checker{
		uploadBucket: uploadBucket,
		prefixFunc:   UsernamePrefix(""),
		requiredACL:  DefaultRequiredACL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadBucket returns the only bucket uploads are accepted in
func (c *Checker) UploadBucket() string {
	return c.uploadBucket
}

// PrefixFor returns the caller's namespace. An empty result from the
// strategy is ErrMisconfiguredPrefix.
func (c *Checker) PrefixFor(ctx context.Context, caller simpleupload.Caller) (string, error) {
	prefix, err := c.prefixFunc(ctx, caller)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return "", simpleupload.ErrMisconfiguredPrefix
	}
	return prefix, nil
}

// CheckKeyOwnership passes iff bucket is the upload bucket and key starts
// with the caller's prefix followed by a slash.
func (c *Checker) CheckKeyOwnership(ctx context.Context, caller simpleupload.Caller, bucket, key string) error {
	if bucket != c.uploadBucket {
		return simpleupload.Deny("Bucket should be '%s'", c.uploadBucket)
	}
	prefix, err := c.PrefixFor(ctx, caller)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(key, prefix+"/") {
		return simpleupload.Deny("Key should start with '%s'", prefix)
	}
	return nil
}

// CheckPolicyPermissions requires the configured ACL, then checks ownership
// of the policy's bucket and key.
func (c *Checker) CheckPolicyPermissions(ctx context.Context, caller simpleupload.Caller, p *simpleupload.Policy) error {
	acl, _ := p.Get(simpleupload.ElementACL)
	if acl.Value.String() != c.requiredACL {
		return simpleupload.Deny("ACL should be '%s'", c.requiredACL)
	}
	bucket, _ := p.Get(simpleupload.ElementBucket)
	key, _ := p.Get(simpleupload.ElementKey)
	return c.CheckKeyOwnership(ctx, caller, bucket.Value.String(), key.Value.String())
}

var _ simpleupload.AccessChecker = (*Checker)(nil)
