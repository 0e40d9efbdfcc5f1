package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads the whole configuration from environment variables, using
// the env-default tag values for anything unset. It replaces the values of
// earlier options, so apply it first and override afterwards.
//
// Main variables:
//
//	AWS_UPLOAD_BUCKET              bucket browsers upload into
//	AWS_UPLOAD_ACCESS_KEY_ID       credentials used for signing
//	AWS_UPLOAD_SECRET_ACCESS_KEY
//	AWS_STORAGE_BUCKET_NAME        permanent storage bucket
//	UPLOAD_EXPIRE_AFTER_SECONDS    policy and URL lifetime (default: 300)
//	UPLOAD_PREFIX_STRATEGY         username, session or static
//	UPLOAD_STORAGE_BACKEND         memory or s3
//	JWT_SECRET                     HS256 key for bearer/cookie tokens
func WithEnv() Option {
	return func(c *Config) error {
		var env Config
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		*c = env
		return nil
	}
}

// Usage returns a description of all environment variables
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}
