package simpleupload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultExpireAfter is how long signed policies and presigned URLs stay valid.
const DefaultExpireAfter = 300 * time.Second

// ErrNotConfigured is returned when an operation needs a collaborator the
// service was built without.
var ErrNotConfigured = errors.New("collaborator not configured")

// MsgFieldRequired is reported for a missing completion field.
const MsgFieldRequired = "This field is required."

// service implements the Service interface
type service struct {
	ruleset       *Ruleset
	signer        PolicySigner
	putSigner     PutURLSigner
	access        AccessChecker
	copier        Copier
	keys          KeyGenerator
	events        EventSink
	logger        *slog.Logger
	expireAfter   time.Duration
	storageBucket string
	validateETag  bool
	now           func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRuleset sets the ruleset policies are validated against
func WithRuleset(rs *Ruleset) Option {
	return func(s *service) {
		s.ruleset = rs
	}
}

// WithPolicySigner sets the signer for policy documents
func WithPolicySigner(signer PolicySigner) Option {
	return func(s *service) {
		s.signer = signer
	}
}

// WithPutURLSigner sets the presigned PUT URL builder
func WithPutURLSigner(signer PutURLSigner) Option {
	return func(s *service) {
		s.putSigner = signer
	}
}

// WithAccessChecker sets the namespace and ownership checker
func WithAccessChecker(checker AccessChecker) Option {
	return func(s *service) {
		s.access = checker
	}
}

// WithCopier sets the copy-to-permanent-storage collaborator
func WithCopier(copier Copier) Option {
	return func(s *service) {
		s.copier = copier
	}
}

// WithKeyGenerator sets how upload and storage keys are named
func WithKeyGenerator(keys KeyGenerator) Option {
	return func(s *service) {
		s.keys = keys
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.events = sink
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithExpireAfter sets the lifetime of signed policies and presigned URLs
func WithExpireAfter(d time.Duration) Option {
	return func(s *service) {
		s.expireAfter = d
	}
}

// WithStorageBucket sets the permanent storage bucket completions copy into
func WithStorageBucket(bucket string) Option {
	return func(s *service) {
		s.storageBucket = bucket
	}
}

// WithETagValidation makes completions pass the client etag as a copy precondition
func WithETagValidation(enabled bool) Option {
	return func(s *service) {
		s.validateETag = enabled
	}
}

// WithClock overrides the time source used for expirations
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		ruleset:      DefaultRuleset(),
		events:       NewNoopEventSink(),
		logger:       slog.Default(),
		expireAfter:  DefaultExpireAfter,
		validateETag: true,
		now:          time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.signer == nil {
		return nil, fmt.Errorf("policy signer is required")
	}
	if s.access == nil {
		return nil, fmt.Errorf("access checker is required")
	}
	if s.expireAfter < 0 {
		return nil, fmt.Errorf("expiration must not be negative: %s", s.expireAfter)
	}

	return s, nil
}

func (s *service) UploadBucket() string {
	return s.access.UploadBucket()
}

func (s *service) UploadPrefix(ctx context.Context, caller Caller) (string, error) {
	return s.access.PrefixFor(ctx, caller)
}

func (s *service) SignPolicy(ctx context.Context, caller Caller, document []byte) (*SignResponse, error) {
	policy, err := ValidateDocument(document, s.ruleset)
	if err != nil {
		return nil, err
	}

	if err := s.access.CheckPolicyPermissions(ctx, caller, policy); err != nil {
		return nil, err
	}

	stamped := policy.WithExpiration(s.now().Add(s.expireAfter))
	signed, err := s.signer.SignPolicy(stamped)
	if err != nil {
		return nil, fmt.Errorf("failed to sign policy: %w", err)
	}

	if err := s.events.PolicySigned(ctx, caller, stamped); err != nil {
		s.logger.Warn("Failed to publish policy signed event", "err", err)
	}
	s.logger.Debug("Signed upload policy", "user", caller.Username, "expiration", stamped.Expiration)

	return &SignResponse{
		Policy:        signed.Policy,
		Signature:     signed.Signature,
		PolicyDecoded: signed.Document,
	}, nil
}

func (s *service) SignedPutURI(ctx context.Context, caller Caller) (*SignedPut, error) {
	if s.putSigner == nil || s.keys == nil {
		return nil, fmt.Errorf("signed put: %w", ErrNotConfigured)
	}

	prefix, err := s.access.PrefixFor(ctx, caller)
	if err != nil {
		return nil, err
	}

	key := s.keys.UploadKey(prefix)
	uri, err := s.putSigner.PresignPut(ctx, s.access.UploadBucket(), key, s.expireAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	s.logger.Debug("Issued presigned upload", "user", caller.Username, "key", key)

	return &SignedPut{Key: key, UploadURI: uri}, nil
}

func (s *service) Complete(ctx context.Context, caller Caller, req CompleteRequest) (*CompletionResult, error) {
	errs := ValidationErrors{}
	if req.Bucket == "" {
		errs.Add("bucket", MsgFieldRequired)
	}
	if req.Key == "" {
		errs.Add("key", MsgFieldRequired)
	}
	if req.Filename == "" {
		errs.Add("filename", MsgFieldRequired)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.access.CheckKeyOwnership(ctx, caller, req.Bucket, req.Key); err != nil {
		return nil, err
	}

	if s.copier == nil || s.keys == nil || s.storageBucket == "" {
		return nil, fmt.Errorf("completion: %w", ErrNotConfigured)
	}

	in := CopyInput{
		SrcBucket: req.Bucket,
		SrcKey:    req.Key,
		DstBucket: s.storageBucket,
		DstKey:    s.keys.StorageKey(req.Filename),
	}
	if s.validateETag {
		in.ETag = req.ETag
	}

	if err := s.copier.Copy(ctx, in); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, err
		}
		return nil, &StorageError{Backend: in.DstBucket, Key: in.SrcKey, Op: "copy", Err: err}
	}

	result := &CompletionResult{
		SourceBucket: in.SrcBucket,
		SourceKey:    in.SrcKey,
		Bucket:       in.DstBucket,
		Key:          in.DstKey,
		Filename:     req.Filename,
	}
	if err := s.events.UploadCompleted(ctx, caller, result); err != nil {
		s.logger.Warn("Failed to publish upload completed event", "err", err)
	}
	s.logger.Info("Upload completed", "source_key", in.SrcKey, "key", in.DstKey)

	return result, nil
}
