package simpleupload

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// PolicySigned does nothing and returns nil
func (n *NoopEventSink) PolicySigned(ctx context.Context, caller Caller, p *Policy) error {
	return nil
}

// UploadCompleted does nothing and returns nil
func (n *NoopEventSink) UploadCompleted(ctx context.Context, caller Caller, result *CompletionResult) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// PolicySigned logs the signed policy's bucket and key
func (l *LoggingEventSink) PolicySigned(ctx context.Context, caller Caller, p *Policy) error {
	bucket, _ := p.Get(ElementBucket)
	key, _ := p.Get(ElementKey)
	l.logger.InfoContext(ctx, "Policy signed",
		"user", caller.Username,
		"bucket", bucket.Value.String(),
		"key", key.Value.String(),
		"expiration", p.Expiration)
	return nil
}

// UploadCompleted logs where the upload was copied
func (l *LoggingEventSink) UploadCompleted(ctx context.Context, caller Caller, result *CompletionResult) error {
	l.logger.InfoContext(ctx, "Upload completed",
		"user", caller.Username,
		"source_bucket", result.SourceBucket,
		"source_key", result.SourceKey,
		"bucket", result.Bucket,
		"key", result.Key,
		"filename", result.Filename)
	return nil
}
