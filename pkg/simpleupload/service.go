package simpleupload

import (
	"context"
	"encoding/json"
)

// Service signs upload policies, issues presigned PUT URLs and accepts
// upload completions.
type Service interface {
	// SignPolicy validates a client-submitted policy document, checks the
	// caller may upload to its bucket and key, sets the expiration and signs it
	SignPolicy(ctx context.Context, caller Caller, document []byte) (*SignResponse, error)

	// SignedPutURI generates a key in the caller's namespace and a presigned PUT URL for it
	SignedPutURI(ctx context.Context, caller Caller) (*SignedPut, error)

	// Complete verifies ownership of an uploaded key and copies it to permanent storage
	Complete(ctx context.Context, caller Caller, req CompleteRequest) (*CompletionResult, error)

	// UploadPrefix returns the caller's key namespace
	UploadPrefix(ctx context.Context, caller Caller) (string, error)

	// UploadBucket returns the bucket clients upload into
	UploadBucket() string
}

// SignResponse is returned to the uploading client.
type SignResponse struct {
	Policy        string          `json:"policy"`
	Signature     string          `json:"signature"`
	PolicyDecoded json.RawMessage `json:"policy_decoded"`
}

// SignedPut is a generated key and the URL to PUT it to.
type SignedPut struct {
	Key       string `json:"key"`
	UploadURI string `json:"upload_uri"`
}

// CompleteRequest is the notification sent after a direct upload finished.
type CompleteRequest struct {
	Bucket   string
	Key      string
	Filename string
	ETag     string
}

// CompletionResult records where an upload was copied.
type CompletionResult struct {
	SourceBucket string `json:"source_bucket"`
	SourceKey    string `json:"source_key"`
	Bucket       string `json:"bucket"`
	Key          string `json:"key"`
	Filename     string `json:"filename"`
}
