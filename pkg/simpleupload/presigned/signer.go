package presigned

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// CannedACL is the only ACL presigned PUT URLs are issued for
const CannedACL = "private"

// Signer signs POST policy documents and builds S3 signature version 2
// presigned PUT URLs.
type Signer struct {
	accessKeyID       string
	secretKey         []byte
	defaultExpiration time.Duration
	endpoint          string
	now               func() time.Time
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		defaultExpiration: simpleupload.DefaultExpireAfter,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.endpoint = strings.TrimRight(s.endpoint, "/")
	return s
}

// SignPolicyDocument base64-encodes document and signs the base64 text with
// HMAC-SHA1. Both results are standard base64.
func SignPolicyDocument(document []byte, secret string) (policy, signature string) {
	policy = base64.StdEncoding.EncodeToString(document)
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(policy))
	signature = base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return policy, signature
}

// SignPolicy signs the canonical JSON form of p.
func (s *Signer) SignPolicy(p *simpleupload.Policy) (*simpleupload.SignedPolicy, error) {
	if len(s.secretKey) == 0 {
		return nil, ErrNoSecretKey
	}
	document, err := p.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy: %w", err)
	}
	policy, signature := SignPolicyDocument(document, string(s.secretKey))
	return &simpleupload.SignedPolicy{Policy: policy, Signature: signature, Document: document}, nil
}

// BuildPresignedPutURI returns a virtual-hosted S3 URL that allows one PUT of
// key into bucket with the private ACL until now+ttlSeconds.
//
// Example:
//
//	uri, err := presigned.BuildPresignedPutURI("b", "k", "AKID", "SECRET", 60)
//	// https://b.s3.amazonaws.com/k?AWSAccessKeyId=AKID&Expires=...&x-amz-acl=private&Signature=...
func BuildPresignedPutURI(bucket, key, accessKeyID, secret string, ttlSeconds int) (string, error) {
	return New(WithCredentials(accessKeyID, secret)).PresignPutSeconds(bucket, key, ttlSeconds)
}

// PresignPutSeconds returns a PUT URL expiring ttlSeconds from now. Unlike
// PresignPut, zero is not replaced by the default: the URL expires at once.
func (s *Signer) PresignPutSeconds(bucket, key string, ttlSeconds int) (string, error) {
	if err := checkPutParams(bucket, key, s.accessKeyID, string(s.secretKey)); err != nil {
		return "", err
	}
	if ttlSeconds < 0 {
		return "", fmt.Errorf("%w: ttl_seconds must be non-negative", ErrInvalidParameter)
	}
	return s.buildPutURI(bucket, key, s.now().Unix()+int64(ttlSeconds)), nil
}

// PresignPut implements simpleupload.PutURLSigner. A zero ttl uses the
// default expiration.
func (s *Signer) PresignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if err := checkPutParams(bucket, key, s.accessKeyID, string(s.secretKey)); err != nil {
		return "", err
	}
	if ttl < 0 {
		return "", fmt.Errorf("%w: ttl must be non-negative", ErrInvalidParameter)
	}
	if ttl == 0 {
		ttl = s.defaultExpiration
	}
	return s.buildPutURI(bucket, key, s.now().Add(ttl).Unix()), nil
}

func checkPutParams(bucket, key, accessKeyID, secret string) error {
	params := []struct{ name, value string }{
		{"bucket", bucket},
		{"key", key},
		{"access_key_id", accessKeyID},
		{"secret", secret},
	}
	for _, p := range params {
		if p.value == "" {
			return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidParameter, p.name)
		}
	}
	return nil
}

func (s *Signer) buildPutURI(bucket, key string, expires int64) string {
	escaped := EscapeKey(key)
	signature := s.sign(StringToSignPut(bucket, key, expires))

	var base string
	if s.endpoint != "" {
		base = s.endpoint + "/" + bucket + "/" + escaped
	} else {
		base = "https://" + bucket + ".s3.amazonaws.com/" + escaped
	}
	return fmt.Sprintf("%s?AWSAccessKeyId=%s&Expires=%d&x-amz-acl=%s&Signature=%s",
		base, url.QueryEscape(s.accessKeyID), expires, CannedACL, url.QueryEscape(signature))
}

// StringToSignPut is the REST canonical string of a private-ACL PUT.
func StringToSignPut(bucket, key string, expires int64) string {
	return fmt.Sprintf("PUT\n\n\n%d\nx-amz-acl:%s\n/%s/%s", expires, CannedACL, bucket, EscapeKey(key))
}

// EscapeKey percent-encodes each path segment of key, keeping the slashes.
func EscapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func (s *Signer) sign(stringToSign string) string {
	mac := hmac.New(sha1.New, s.secretKey)
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyPutRequest checks the query signature of a PUT to bucket/key that was
// issued by PresignPut.
func (s *Signer) VerifyPutRequest(r *http.Request, bucket, key string) error {
	if len(s.secretKey) == 0 {
		return ErrNoSecretKey
	}

	query := r.URL.Query()
	signature := query.Get("Signature")
	expiresStr := query.Get("Expires")

	if signature == "" {
		return ErrMissingSignature
	}
	if expiresStr == "" {
		return ErrMissingExpiration
	}
	if query.Get("AWSAccessKeyId") != s.accessKeyID {
		return ErrUnknownAccessKey
	}

	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpiration, err)
	}
	if s.now().Unix() > expiresAt {
		return ErrExpired
	}

	acl := r.Header.Get("x-amz-acl")
	if acl == "" {
		acl = query.Get("x-amz-acl")
	}
	if r.Method != http.MethodPut || acl != CannedACL {
		return ErrInvalidSignature
	}

	expected := s.sign(StringToSignPut(bucket, key, expiresAt))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	return nil
}

// IsEnabled returns true if a secret key is configured
func (s *Signer) IsEnabled() bool {
	return len(s.secretKey) > 0
}

var _ simpleupload.PolicySigner = (*Signer)(nil)
var _ simpleupload.PutURLSigner = (*Signer)(nil)
