package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("AWS_UPLOAD_BUCKET", "uploads")
	t.Setenv("AWS_STORAGE_BUCKET_NAME", "storage")
	t.Setenv("AWS_UPLOAD_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_UPLOAD_SECRET_ACCESS_KEY", "SECRET")
}

func TestWithEnvDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(WithEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.UploadBucket != "uploads" {
		t.Errorf("expected upload bucket %q, got %q", "uploads", cfg.UploadBucket)
	}
	if cfg.ExpireAfter() != 300*time.Second {
		t.Errorf("expected expire after 300s, got %s", cfg.ExpireAfter())
	}
	if cfg.PrefixStrategy != "username" {
		t.Errorf("expected prefix strategy %q, got %q", "username", cfg.PrefixStrategy)
	}
	if cfg.StorageBackend != "memory" {
		t.Errorf("expected storage backend %q, got %q", "memory", cfg.StorageBackend)
	}
	if cfg.RequiredACL != "private" {
		t.Errorf("expected required ACL %q, got %q", "private", cfg.RequiredACL)
	}
	if !cfg.IframeCompat || !cfg.ValidateETag {
		t.Error("expected iframe compatibility and etag validation to default on")
	}
}

func TestWithEnvValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPLOAD_EXPIRE_AFTER_SECONDS", "60")
	t.Setenv("UPLOAD_PREFIX_STRATEGY", "session")
	t.Setenv("UPLOAD_PREFIX_SALT", "pepper")
	t.Setenv("UPLOAD_ALLOWED_BUCKETS", "uploads,avatars")
	t.Setenv("UPLOAD_ALLOWED_REDIRECTS", "https://app.example.com/done")
	t.Setenv("UPLOAD_IFRAME_COMPAT", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UPLOAD_S3_ENABLE_SSE", "true")
	t.Setenv("UPLOAD_S3_SSE_ALGORITHM", "aws:kms")
	t.Setenv("UPLOAD_S3_SSE_KMS_KEY_ID", "alias/uploads")
	t.Setenv("UPLOAD_S3_CREATE_BUCKETS", "true")

	cfg, err := Load(WithEnv(), WithKeyLayout("sharded"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ExpireAfterSeconds != 60 {
		t.Errorf("expected 60 seconds, got %d", cfg.ExpireAfterSeconds)
	}
	if cfg.PrefixStrategy != "session" || cfg.PrefixSalt != "pepper" {
		t.Errorf("unexpected prefix settings: %q %q", cfg.PrefixStrategy, cfg.PrefixSalt)
	}
	if strings.Join(cfg.AllowedBuckets, ",") != "uploads,avatars" {
		t.Errorf("unexpected allowed buckets: %v", cfg.AllowedBuckets)
	}
	if len(cfg.AllowedRedirects) != 1 {
		t.Errorf("unexpected allowed redirects: %v", cfg.AllowedRedirects)
	}
	if cfg.IframeCompat {
		t.Error("expected iframe compatibility to be off")
	}
	if !cfg.EnableSSE || cfg.SSEAlgorithm != "aws:kms" || cfg.SSEKMSKeyID != "alias/uploads" {
		t.Errorf("unexpected sse settings: %v %q %q", cfg.EnableSSE, cfg.SSEAlgorithm, cfg.SSEKMSKeyID)
	}
	if !cfg.CreateBuckets {
		t.Error("expected bucket creation to be on")
	}
	if cfg.KeyLayout != "sharded" {
		t.Errorf("expected options after WithEnv to win, got key layout %q", cfg.KeyLayout)
	}
	if level, _ := cfg.SlogLevel(); level.String() != "DEBUG" {
		t.Errorf("expected debug level, got %s", level)
	}
}

func TestWithEnvInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"missing upload bucket", "AWS_UPLOAD_BUCKET", ""},
		{"unknown prefix strategy", "UPLOAD_PREFIX_STRATEGY", "random"},
		{"unknown backend", "UPLOAD_STORAGE_BACKEND", "ftp"},
		{"v4 without s3", "UPLOAD_PRESIGN_VERSION", "v4"},
		{"unknown key layout", "UPLOAD_KEY_LAYOUT", "nested"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"unknown sse algorithm", "UPLOAD_S3_SSE_ALGORITHM", "rot13"},
		{"negative expiration", "UPLOAD_EXPIRE_AFTER_SECONDS", "-1"},
		{"unparseable expiration", "UPLOAD_EXPIRE_AFTER_SECONDS", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(WithEnv()); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestUsage(t *testing.T) {
	usage := Usage()
	for _, name := range []string{"AWS_UPLOAD_BUCKET", "UPLOAD_PREFIX_STRATEGY", "JWT_SECRET"} {
		if !strings.Contains(usage, name) {
			t.Errorf("expected usage to mention %s", name)
		}
	}
}
