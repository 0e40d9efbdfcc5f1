package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"strings"
	"sync"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

type object struct {
	data []byte
	etag string
}

// Backend is an in-memory object store. It accepts presigned uploads in
// development and implements simpleupload.Copier.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores body under bucket/key and returns its MD5 etag, as S3 does for
// single-part uploads.
func (b *Backend) Put(ctx context.Context, bucket, key string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	etag := hex.EncodeToString(sum[:])

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectID(bucket, key)] = object{data: data, etag: etag}
	return etag, nil
}

// Get returns the content and etag of bucket/key
func (b *Backend) Get(ctx context.Context, bucket, key string) ([]byte, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[objectID(bucket, key)]
	if !ok {
		return nil, "", simpleupload.ErrObjectNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, obj.etag, nil
}

// Copy duplicates the source object. A missing source or an etag mismatch is
// ErrObjectNotFound.
func (b *Backend) Copy(ctx context.Context, in simpleupload.CopyInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.objects[objectID(in.SrcBucket, in.SrcKey)]
	if !ok {
		return simpleupload.ErrObjectNotFound
	}
	if in.ETag != "" && strings.Trim(in.ETag, `"`) != src.etag {
		return simpleupload.ErrObjectNotFound
	}
	b.objects[objectID(in.DstBucket, in.DstKey)] = src
	return nil
}

// Delete removes bucket/key
func (b *Backend) Delete(ctx context.Context, bucket, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, objectID(bucket, key))
	return nil
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

var _ simpleupload.Copier = (*Backend)(nil)
