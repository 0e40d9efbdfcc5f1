package presigned

import "time"

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithSecretKey sets the AWS secret access key used for HMAC signing
func WithSecretKey(key string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(key)
	}
}

// WithAccessKeyID sets the AWS access key id placed in presigned URLs
func WithAccessKeyID(id string) Option {
	return func(s *Signer) {
		s.accessKeyID = id
	}
}

// WithCredentials sets both halves of the upload credentials
func WithCredentials(accessKeyID, secretKey string) Option {
	return func(s *Signer) {
		s.accessKeyID = accessKeyID
		s.secretKey = []byte(secretKey)
	}
}

// WithDefaultExpiration sets the lifetime used when PresignPut gets a zero ttl
// Default is 300 seconds if not specified
func WithDefaultExpiration(duration time.Duration) Option {
	return func(s *Signer) {
		s.defaultExpiration = duration
	}
}

// WithEndpoint makes presigned URLs path-style against endpoint instead of
// https://<bucket>.s3.amazonaws.com, e.g. "http://localhost:8080/dev"
func WithEndpoint(endpoint string) Option {
	return func(s *Signer) {
		s.endpoint = endpoint
	}
}

// WithClock overrides the time source used for expiry timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}
