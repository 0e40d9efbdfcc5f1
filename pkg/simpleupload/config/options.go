package config

import (
	"fmt"
	"time"
)

// WithUploadBucket sets the bucket browsers upload into
func WithUploadBucket(bucket string) Option {
	return func(c *Config) error {
		if bucket == "" {
			return fmt.Errorf("upload bucket cannot be empty")
		}
		c.UploadBucket = bucket
		return nil
	}
}

// WithStorageBucket sets the permanent storage bucket
func WithStorageBucket(bucket string) Option {
	return func(c *Config) error {
		if bucket == "" {
			return fmt.Errorf("storage bucket cannot be empty")
		}
		c.StorageBucket = bucket
		return nil
	}
}

// WithCredentials sets the upload access key pair
func WithCredentials(accessKeyID, secretAccessKey string) Option {
	return func(c *Config) error {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		return nil
	}
}

// WithExpireAfter sets the policy and presigned URL lifetime
func WithExpireAfter(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("expire after must not be negative, got: %s", d)
		}
		c.ExpireAfterSeconds = int(d / time.Second)
		return nil
	}
}

// WithPrefixStrategy selects how upload namespaces are derived
func WithPrefixStrategy(strategy, keyPrefix, salt string) Option {
	return func(c *Config) error {
		c.PrefixStrategy = strategy
		c.KeyPrefix = keyPrefix
		c.PrefixSalt = salt
		return nil
	}
}

// WithPrefixCookie enables the upload prefix cookie
func WithPrefixCookie(name string) Option {
	return func(c *Config) error {
		c.PrefixCookie = true
		if name != "" {
			c.PrefixCookieName = name
		}
		return nil
	}
}

// WithAllowedBuckets sets the bucket allow-list
func WithAllowedBuckets(buckets ...string) Option {
	return func(c *Config) error {
		c.AllowedBuckets = buckets
		return nil
	}
}

// WithAllowedACLs sets the ACL allow-list
func WithAllowedACLs(acls ...string) Option {
	return func(c *Config) error {
		c.AllowedACLs = acls
		return nil
	}
}

// WithAllowedRedirects sets the success_action_redirect allow-list
func WithAllowedRedirects(urls ...string) Option {
	return func(c *Config) error {
		c.AllowedRedirects = urls
		return nil
	}
}

// WithStorageBackend selects memory or s3
func WithStorageBackend(backend string) Option {
	return func(c *Config) error {
		if backend != "memory" && backend != "s3" {
			return fmt.Errorf("storage backend must be 'memory' or 's3', got: %s", backend)
		}
		c.StorageBackend = backend
		return nil
	}
}

// WithS3Endpoint points the s3 backend at an S3-compatible service
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *Config) error {
		c.Endpoint = endpoint
		c.UsePathStyle = usePathStyle
		return nil
	}
}

// WithS3SSE enables server-side encryption of copied objects.
// kmsKeyID is only used with the aws:kms algorithm.
func WithS3SSE(algorithm, kmsKeyID string) Option {
	return func(c *Config) error {
		c.EnableSSE = true
		c.SSEAlgorithm = algorithm
		c.SSEKMSKeyID = kmsKeyID
		return nil
	}
}

// WithS3CreateBuckets creates the upload and storage buckets on startup
func WithS3CreateBuckets(enabled bool) Option {
	return func(c *Config) error {
		c.CreateBuckets = enabled
		return nil
	}
}

// WithPresignVersion selects v2 or v4 presigned PUT URLs
func WithPresignVersion(version string) Option {
	return func(c *Config) error {
		c.PresignVersion = version
		return nil
	}
}

// WithDevEndpoint sets the base URL of the development upload endpoint
func WithDevEndpoint(endpoint string) Option {
	return func(c *Config) error {
		c.DevEndpoint = endpoint
		return nil
	}
}

// WithKeyLayout selects flat or sharded storage keys
func WithKeyLayout(layout string) Option {
	return func(c *Config) error {
		c.KeyLayout = layout
		return nil
	}
}

// WithJWTSecret sets the HS256 key for identity tokens
func WithJWTSecret(secret string) Option {
	return func(c *Config) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithIframeCompat makes error responses use status 200 for legacy uploaders
func WithIframeCompat(enabled bool) Option {
	return func(c *Config) error {
		c.IframeCompat = enabled
		return nil
	}
}

// WithETagValidation passes client etags as copy preconditions
func WithETagValidation(enabled bool) Option {
	return func(c *Config) error {
		c.ValidateETag = enabled
		return nil
	}
}
