package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/access"
	"github.com/tendant/simple-upload/pkg/simpleupload/objectkey"
	"github.com/tendant/simple-upload/pkg/simpleupload/presigned"
	memorystorage "github.com/tendant/simple-upload/pkg/simpleupload/storage/memory"
	s3storage "github.com/tendant/simple-upload/pkg/simpleupload/storage/s3"
)

// Storage groups the storage collaborators selected by the configuration.
// Memory is set only for the memory backend.
type Storage struct {
	Copier    simpleupload.Copier
	PutSigner simpleupload.PutURLSigner
	Memory    *memorystorage.Backend
}

// BuildRuleset returns the strict default ruleset with the configured
// allow-lists. Empty bucket and ACL lists fall back to the upload bucket and
// the required ACL.
func (c *Config) BuildRuleset() *simpleupload.Ruleset {
	buckets := c.AllowedBuckets
	if len(buckets) == 0 {
		buckets = []string{c.UploadBucket}
	}
	acls := c.AllowedACLs
	if len(acls) == 0 {
		acls = []string{c.RequiredACL}
	}
	return simpleupload.DefaultRuleset(
		simpleupload.WithAllowedBuckets(buckets...),
		simpleupload.WithAllowedACLs(acls...),
		simpleupload.WithAllowedRedirects(c.AllowedRedirects...),
		simpleupload.WithAlternateOperators(c.AllowStartsWith),
	)
}

// BuildSigner returns the policy signer. With the memory backend its PUT
// URLs point at DevEndpoint.
func (c *Config) BuildSigner() *presigned.Signer {
	opts := []presigned.Option{
		presigned.WithCredentials(c.AccessKeyID, c.SecretAccessKey),
		presigned.WithDefaultExpiration(c.ExpireAfter()),
	}
	if c.StorageBackend == "memory" {
		opts = append(opts, presigned.WithEndpoint(c.DevEndpoint))
	}
	return presigned.New(opts...)
}

// BuildPrefixFunc returns the configured namespace strategy
func (c *Config) BuildPrefixFunc() access.PrefixFunc {
	switch c.PrefixStrategy {
	case "session":
		return access.SessionHashPrefix(c.KeyPrefix, c.PrefixSalt)
	case "static":
		return access.StaticPrefix(c.KeyPrefix)
	default:
		return access.UsernamePrefix(c.KeyPrefix)
	}
}

// BuildAccessChecker returns the ownership checker
func (c *Config) BuildAccessChecker() *access.Checker {
	return access.NewChecker(c.UploadBucket,
		access.WithPrefixFunc(c.BuildPrefixFunc()),
		access.WithRequiredACL(c.RequiredACL),
	)
}

// BuildKeyGenerator returns the configured key layout
func (c *Config) BuildKeyGenerator() objectkey.Generator {
	if c.KeyLayout == "sharded" {
		return objectkey.NewShardedGenerator()
	}
	return objectkey.NewFlatGenerator()
}

// S3Config returns the s3 backend settings
func (c *Config) S3Config() s3storage.Config {
	return s3storage.Config{
		Region:                 c.Region,
		AccessKeyID:            c.AccessKeyID,
		SecretAccessKey:        c.SecretAccessKey,
		Endpoint:               c.Endpoint,
		UsePathStyle:           c.UsePathStyle,
		PresignDuration:        c.ExpireAfterSeconds,
		EnableSSE:              c.EnableSSE,
		SSEAlgorithm:           c.SSEAlgorithm,
		SSEKMSKeyID:            c.SSEKMSKeyID,
		CreateBucketIfNotExist: c.CreateBuckets,
		Buckets:                []string{c.UploadBucket, c.StorageBucket},
	}
}

// BuildStorage creates the copier and PUT URL signer
func (c *Config) BuildStorage(ctx context.Context, signer *presigned.Signer) (*Storage, error) {
	switch c.StorageBackend {
	case "memory":
		backend := memorystorage.New()
		return &Storage{Copier: backend, PutSigner: signer, Memory: backend}, nil
	case "s3":
		backend, err := s3storage.New(ctx, c.S3Config())
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 backend: %w", err)
		}
		st := &Storage{Copier: backend, PutSigner: signer}
		if c.PresignVersion == "v4" {
			st.PutSigner = backend
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
}

// BuildService wires every component into a Service
func (c *Config) BuildService(ctx context.Context, logger *slog.Logger) (simpleupload.Service, *Storage, *presigned.Signer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	signer := c.BuildSigner()
	storage, err := c.BuildStorage(ctx, signer)
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := simpleupload.New(
		simpleupload.WithRuleset(c.BuildRuleset()),
		simpleupload.WithPolicySigner(signer),
		simpleupload.WithPutURLSigner(storage.PutSigner),
		simpleupload.WithAccessChecker(c.BuildAccessChecker()),
		simpleupload.WithCopier(storage.Copier),
		simpleupload.WithKeyGenerator(c.BuildKeyGenerator()),
		simpleupload.WithEventSink(simpleupload.NewLoggingEventSink(logger)),
		simpleupload.WithLogger(logger),
		simpleupload.WithExpireAfter(c.ExpireAfter()),
		simpleupload.WithStorageBucket(c.StorageBucket),
		simpleupload.WithETagValidation(c.ValidateETag),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create upload service: %w", err)
	}
	return svc, storage, signer, nil
}
