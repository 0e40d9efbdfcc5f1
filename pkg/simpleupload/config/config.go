package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Config is the complete configuration of an upload service. Every component
// receives the values it needs at construction time.
type Config struct {
	UploadBucket    string `env:"AWS_UPLOAD_BUCKET"`
	AccessKeyID     string `env:"AWS_UPLOAD_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_UPLOAD_SECRET_ACCESS_KEY"`
	StorageBucket   string `env:"AWS_STORAGE_BUCKET_NAME"`
	Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"AWS_S3_ENDPOINT"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`

	// Server-side encryption and bucket bootstrap for the s3 backend
	EnableSSE     bool   `env:"UPLOAD_S3_ENABLE_SSE" env-default:"false"`
	SSEAlgorithm  string `env:"UPLOAD_S3_SSE_ALGORITHM" env-default:"AES256"`
	SSEKMSKeyID   string `env:"UPLOAD_S3_SSE_KMS_KEY_ID"`
	CreateBuckets bool   `env:"UPLOAD_S3_CREATE_BUCKETS" env-default:"false"`

	ExpireAfterSeconds int `env:"UPLOAD_EXPIRE_AFTER_SECONDS" env-default:"300"`

	// Namespace strategy: username, session or static
	PrefixStrategy   string `env:"UPLOAD_PREFIX_STRATEGY" env-default:"username"`
	KeyPrefix        string `env:"UPLOAD_KEY_PREFIX"`
	PrefixSalt       string `env:"UPLOAD_PREFIX_SALT"`
	PrefixCookie     bool   `env:"UPLOAD_PREFIX_COOKIE" env-default:"false"`
	PrefixCookieName string `env:"UPLOAD_PREFIX_COOKIE_NAME" env-default:"upload_prefix"`

	// Empty allow-lists default to the upload bucket and the required ACL
	AllowedBuckets   []string `env:"UPLOAD_ALLOWED_BUCKETS" env-separator:","`
	AllowedACLs      []string `env:"UPLOAD_ALLOWED_ACLS" env-separator:","`
	AllowedRedirects []string `env:"UPLOAD_ALLOWED_REDIRECTS" env-separator:","`
	RequiredACL      string   `env:"UPLOAD_REQUIRED_ACL" env-default:"private"`
	AllowStartsWith  bool     `env:"UPLOAD_ALLOW_STARTS_WITH" env-default:"false"`

	// memory or s3
	StorageBackend string `env:"UPLOAD_STORAGE_BACKEND" env-default:"memory"`
	// v2 (query-string HMAC-SHA1) or v4 (aws-sdk presign client, s3 backend only)
	PresignVersion string `env:"UPLOAD_PRESIGN_VERSION" env-default:"v2"`
	// Base URL of the development upload endpoint used with the memory backend
	DevEndpoint string `env:"UPLOAD_DEV_ENDPOINT" env-default:"http://localhost:8080/dev"`
	// flat or sharded
	KeyLayout string `env:"UPLOAD_KEY_LAYOUT" env-default:"flat"`

	IframeCompat bool `env:"UPLOAD_IFRAME_COMPAT" env-default:"true"`
	ValidateETag bool `env:"UPLOAD_VALIDATE_ETAG" env-default:"true"`

	JWTSecret         string `env:"JWT_SECRET"`
	SessionCookieName string `env:"SESSION_COOKIE_NAME" env-default:"sessionid"`

	LogLevel      string `env:"LOG_LEVEL" env-default:"info"`
	EnableMetrics bool   `env:"UPLOAD_METRICS" env-default:"true"`
}

// Load constructs a Config by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Region:             "us-east-1",
		SSEAlgorithm:       "AES256",
		ExpireAfterSeconds: 300,
		PrefixStrategy:     "username",
		PrefixCookieName:   "upload_prefix",
		RequiredACL:        "private",
		StorageBackend:     "memory",
		PresignVersion:     "v2",
		DevEndpoint:        "http://localhost:8080/dev",
		KeyLayout:          "flat",
		IframeCompat:       true,
		ValidateETag:       true,
		SessionCookieName:  "sessionid",
		LogLevel:           "info",
		EnableMetrics:      true,
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	var errs []error

	if c.UploadBucket == "" {
		errs = append(errs, errors.New("upload bucket is required"))
	}
	if c.StorageBucket == "" {
		errs = append(errs, errors.New("storage bucket is required"))
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		errs = append(errs, errors.New("upload access key id and secret access key are required"))
	}
	if c.ExpireAfterSeconds < 0 {
		errs = append(errs, fmt.Errorf("expire after must not be negative, got: %d", c.ExpireAfterSeconds))
	}

	switch c.PrefixStrategy {
	case "username", "session":
	case "static":
		if strings.Trim(c.KeyPrefix, "/") == "" {
			errs = append(errs, errors.New("static prefix strategy requires a key prefix"))
		}
	default:
		errs = append(errs, fmt.Errorf("prefix strategy must be 'username', 'session' or 'static', got: %s", c.PrefixStrategy))
	}

	if c.StorageBackend != "memory" && c.StorageBackend != "s3" {
		errs = append(errs, fmt.Errorf("storage backend must be 'memory' or 's3', got: %s", c.StorageBackend))
	}
	switch c.PresignVersion {
	case "v2":
	case "v4":
		if c.StorageBackend != "s3" {
			errs = append(errs, errors.New("presign version v4 requires the s3 storage backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("presign version must be 'v2' or 'v4', got: %s", c.PresignVersion))
	}
	if c.SSEAlgorithm != "AES256" && c.SSEAlgorithm != "aws:kms" {
		errs = append(errs, fmt.Errorf("sse algorithm must be 'AES256' or 'aws:kms', got: %s", c.SSEAlgorithm))
	}
	if c.KeyLayout != "flat" && c.KeyLayout != "sharded" {
		errs = append(errs, fmt.Errorf("key layout must be 'flat' or 'sharded', got: %s", c.KeyLayout))
	}
	if c.PrefixCookie && c.PrefixCookieName == "" {
		errs = append(errs, errors.New("prefix cookie name cannot be empty"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ExpireAfter returns the policy and presigned URL lifetime
func (c *Config) ExpireAfter() time.Duration {
	return time.Duration(c.ExpireAfterSeconds) * time.Second
}

// SlogLevel parses LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
