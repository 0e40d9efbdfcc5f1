package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
	PresignDuration int    // Duration in seconds for presigned URLs (default: 300)

	// Server-side encryption options
	EnableSSE    bool   // Enable server-side encryption
	SSEAlgorithm string // SSE algorithm (AES256 or aws:kms)
	SSEKMSKeyID  string // Optional KMS key ID for aws:kms algorithm

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool     // Create Buckets if they don't exist
	Buckets                []string // Upload and storage buckets
}

// API is the subset of the S3 client the backend calls
type API interface {
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Presigner is the subset of the S3 presign client the backend calls
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Backend copies completed uploads into permanent storage and presigns
// signature version 4 PUT URLs.
type Backend struct {
	client          API
	presignClient   Presigner
	presignDuration time.Duration
	config          Config
}

// New creates a new S3-compatible storage backend
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		// Use default credential chain
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(config.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)

	// Custom endpoint for S3-compatible services (MinIO, etc.)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)
	backend := NewWithClient(client, s3.NewPresignClient(client), config)

	if config.CreateBucketIfNotExist {
		for _, bucket := range config.Buckets {
			if err := backend.createBucketIfNotExists(ctx, bucket); err != nil {
				return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
	}

	return backend, nil
}

// NewWithClient wraps existing clients. presigner may be nil when
// PresignPut is not used.
func NewWithClient(client API, presigner Presigner, config Config) *Backend {
	if config.PresignDuration == 0 {
		config.PresignDuration = int(simpleupload.DefaultExpireAfter / time.Second)
	}
	return &Backend{
		client:          client,
		presignClient:   presigner,
		presignDuration: time.Duration(config.PresignDuration) * time.Second,
		config:          config,
	}
}

func (b *Backend) createBucketIfNotExists(ctx context.Context, bucket string) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) && !hasErrorCode(err, "NotFound", "NoSuchBucket", "BadRequest") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	// Add location constraint for regions other than us-east-1
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	_, err = b.client.CreateBucket(ctx, createInput)
	if err != nil {
		if hasErrorCode(err, "BucketAlreadyExists", "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Copy implements simpleupload.Copier with CopyObject. When in.ETag is set it
// is sent as x-amz-copy-source-if-match.
func (b *Backend) Copy(ctx context.Context, in simpleupload.CopyInput) error {
	input := &s3.CopyObjectInput{
		Bucket:            aws.String(in.DstBucket),
		Key:               aws.String(in.DstKey),
		CopySource:        aws.String(CopySource(in.SrcBucket, in.SrcKey)),
		ACL:               types.ObjectCannedACLPrivate,
		MetadataDirective: types.MetadataDirectiveCopy,
	}
	if in.ETag != "" {
		input.CopySourceIfMatch = aws.String(`"` + strings.Trim(in.ETag, `"`) + `"`)
	}

	if b.config.EnableSSE {
		switch b.config.SSEAlgorithm {
		case "AES256":
			input.ServerSideEncryption = types.ServerSideEncryptionAes256
		case "aws:kms":
			input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
			if b.config.SSEKMSKeyID != "" {
				input.SSEKMSKeyId = aws.String(b.config.SSEKMSKeyID)
			}
		}
	}

	if _, err := b.client.CopyObject(ctx, input); err != nil {
		return mapCopyError(err)
	}
	return nil
}

// PresignPut implements simpleupload.PutURLSigner with a signature version 4
// URL. The x-amz-acl: private header is part of the signature.
func (b *Backend) PresignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if b.presignClient == nil {
		return "", errors.New("presign client not configured")
	}
	if ttl <= 0 {
		ttl = b.presignDuration
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACLPrivate,
	}

	result, err := b.presignClient.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return result.URL, nil
}

// CopySource is the URL-encoded bucket/key form CopyObject expects.
func CopySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

func mapCopyError(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) || hasErrorCode(err, "NoSuchKey", "NotFound", "PreconditionFailed") {
		return simpleupload.ErrObjectNotFound
	}
	return fmt.Errorf("failed to copy object: %w", err)
}

func hasErrorCode(err error, codes ...string) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	for _, code := range codes {
		if ae.ErrorCode() == code {
			return true
		}
	}
	return false
}

var (
	_ simpleupload.Copier       = (*Backend)(nil)
	_ simpleupload.PutURLSigner = (*Backend)(nil)
)
