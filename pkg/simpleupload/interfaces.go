package simpleupload

import (
	"context"
	"time"
)

// Caller identifies who is asking for an upload. Username is empty for
// anonymous callers; SessionKey is empty when there is no session.
type Caller struct {
	Username   string
	SessionKey string
}

// Anonymous reports whether the caller has no authenticated identity.
func (c Caller) Anonymous() bool {
	return c.Username == ""
}

// SignedPolicy is a base64 policy document and its signature.
type SignedPolicy struct {
	Policy    string
	Signature string
	Document  []byte
}

// PolicySigner signs the canonical form of a policy.
type PolicySigner interface {
	SignPolicy(p *Policy) (*SignedPolicy, error)
}

// PutURLSigner builds a presigned URL for a single PUT of bucket/key.
type PutURLSigner interface {
	PresignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// AccessChecker derives upload namespaces and enforces them.
type AccessChecker interface {
	// UploadBucket is the only bucket clients may upload into
	UploadBucket() string

	// PrefixFor returns the caller's key namespace, without trailing slash
	PrefixFor(ctx context.Context, caller Caller) (string, error)

	// CheckKeyOwnership fails unless bucket is the upload bucket and key is
	// inside the caller's namespace
	CheckKeyOwnership(ctx context.Context, caller Caller, bucket, key string) error

	// CheckPolicyPermissions applies the ACL requirement and CheckKeyOwnership
	// to the acl, bucket and key conditions of a validated policy
	CheckPolicyPermissions(ctx context.Context, caller Caller, p *Policy) error
}

// CopyInput describes a server-side copy into permanent storage.
// ETag is optional; when set the copy only succeeds if the source matches it.
type CopyInput struct {
	SrcBucket string
	SrcKey    string
	DstBucket string
	DstKey    string
	ETag      string
}

// Copier copies an uploaded object. A missing source or a failed etag
// precondition is reported as ErrObjectNotFound.
type Copier interface {
	Copy(ctx context.Context, in CopyInput) error
}

// KeyGenerator names new objects.
type KeyGenerator interface {
	// UploadKey returns a fresh key inside prefix
	UploadKey(prefix string) string

	// StorageKey returns the permanent key for an upload of filename
	StorageKey(filename string) string
}

// EventSink receives notifications about signed policies and completed uploads.
type EventSink interface {
	PolicySigned(ctx context.Context, caller Caller, p *Policy) error
	UploadCompleted(ctx context.Context, caller Caller, result *CompletionResult) error
}
