package s3

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

type fakeAPI struct {
	copyInput   *s3.CopyObjectInput
	copyErr     error
	headErr     error
	created     []string
	createInput *s3.CreateBucketInput
}

func (f *fakeAPI) CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copyInput = params
	if f.copyErr != nil {
		return nil, f.copyErr
	}
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeAPI) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeAPI) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, aws.ToString(params.Bucket))
	f.createInput = params
	return &s3.CreateBucketOutput{}, nil
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	backend := NewWithClient(api, nil, Config{})

	err := backend.Copy(ctx, simpleupload.CopyInput{
		SrcBucket: "uploads",
		SrcKey:    "frodo/my ring.txt",
		DstBucket: "storage",
		DstKey:    "abc.txt",
		ETag:      "5d41402abc4b2a76b9719d911017c592",
	})
	require.NoError(t, err)

	in := api.copyInput
	require.NotNil(t, in)
	assert.Equal(t, "storage", aws.ToString(in.Bucket))
	assert.Equal(t, "abc.txt", aws.ToString(in.Key))
	assert.Equal(t, "uploads/frodo/my%20ring.txt", aws.ToString(in.CopySource))
	assert.Equal(t, `"5d41402abc4b2a76b9719d911017c592"`, aws.ToString(in.CopySourceIfMatch))
	assert.Equal(t, types.ObjectCannedACLPrivate, in.ACL)
	assert.Empty(t, in.ServerSideEncryption)

	// An already quoted etag is not quoted twice, no etag means no precondition
	require.NoError(t, backend.Copy(ctx, simpleupload.CopyInput{SrcBucket: "uploads", SrcKey: "k", DstBucket: "storage", DstKey: "d", ETag: `"abc"`}))
	assert.Equal(t, `"abc"`, aws.ToString(api.copyInput.CopySourceIfMatch))
	require.NoError(t, backend.Copy(ctx, simpleupload.CopyInput{SrcBucket: "uploads", SrcKey: "k", DstBucket: "storage", DstKey: "d"}))
	assert.Nil(t, api.copyInput.CopySourceIfMatch)
}

func TestCopyServerSideEncryption(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	backend := NewWithClient(api, nil, Config{EnableSSE: true, SSEAlgorithm: "aws:kms", SSEKMSKeyID: "key-1"})

	require.NoError(t, backend.Copy(ctx, simpleupload.CopyInput{SrcBucket: "uploads", SrcKey: "k", DstBucket: "storage", DstKey: "d"}))
	assert.Equal(t, types.ServerSideEncryptionAwsKms, api.copyInput.ServerSideEncryption)
	assert.Equal(t, "key-1", aws.ToString(api.copyInput.SSEKMSKeyId))
}

func TestCopyErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"precondition failed", &smithy.GenericAPIError{Code: "PreconditionFailed"}, true},
		{"not found", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"network", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewWithClient(&fakeAPI{copyErr: tt.err}, nil, Config{})
			err := backend.Copy(context.Background(), simpleupload.CopyInput{SrcBucket: "uploads", SrcKey: "k", DstBucket: "storage", DstKey: "d"})
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, simpleupload.ErrObjectNotFound))
		})
	}
}

func TestCreateBucketIfNotExists(t *testing.T) {
	ctx := context.Background()

	api := &fakeAPI{}
	backend := NewWithClient(api, nil, Config{Region: "us-east-1"})
	require.NoError(t, backend.createBucketIfNotExists(ctx, "uploads"))
	assert.Empty(t, api.created)

	api = &fakeAPI{headErr: &types.NotFound{}}
	backend = NewWithClient(api, nil, Config{Region: "eu-west-1"})
	require.NoError(t, backend.createBucketIfNotExists(ctx, "uploads"))
	assert.Equal(t, []string{"uploads"}, api.created)
	require.NotNil(t, api.createInput.CreateBucketConfiguration)
	assert.Equal(t, types.BucketLocationConstraint("eu-west-1"), api.createInput.CreateBucketConfiguration.LocationConstraint)

	api = &fakeAPI{headErr: &smithy.GenericAPIError{Code: "Forbidden"}}
	backend = NewWithClient(api, nil, Config{})
	assert.Error(t, backend.createBucketIfNotExists(ctx, "uploads"))
	assert.Empty(t, api.created)
}

func TestCopySource(t *testing.T) {
	assert.Equal(t, "uploads/a/b.txt", CopySource("uploads", "a/b.txt"))
	assert.Equal(t, "uploads/a/caf%C3%A9%3F.txt", CopySource("uploads", "a/café?.txt"))
}

func TestPresignPut(t *testing.T) {
	ctx := context.Background()
	backend, err := New(ctx, Config{
		Region:          "us-east-1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	uri, err := backend.PresignPut(ctx, "uploads", "frodo/1", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "http://localhost:9000/uploads/frodo/1?"), uri)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "AWS4-HMAC-SHA256", q.Get("X-Amz-Algorithm"))
	assert.Equal(t, "60", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.True(t, strings.HasPrefix(q.Get("X-Amz-Credential"), "minioadmin/"))

	t.Run("zero ttl uses the configured duration", func(t *testing.T) {
		uri, err := backend.PresignPut(ctx, "uploads", "frodo/1", 0)
		require.NoError(t, err)
		u, err := url.Parse(uri)
		require.NoError(t, err)
		assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	})

	t.Run("without presigner", func(t *testing.T) {
		_, err := NewWithClient(&fakeAPI{}, nil, Config{}).PresignPut(ctx, "uploads", "k", time.Minute)
		assert.Error(t, err)
	})
}
