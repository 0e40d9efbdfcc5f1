package presigned

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const (
	// ObjectKeyContextKey is the context key for storing the validated object key
	ObjectKeyContextKey contextKey = "presigned:object_key"

	// BucketContextKey is the context key for storing the validated bucket
	BucketContextKey contextKey = "presigned:bucket"
)

// ValidateMiddleware verifies the V2 query signature of PUT requests routed
// as /{bucket}/*. On success the bucket and decoded key are stored in the
// request context.
//
// Example:
//
//	r.With(presigned.ValidateMiddleware(signer)).Put("/{bucket}/*", handler)
func ValidateMiddleware(signer *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := chi.URLParam(r, "bucket")
			key := chi.URLParam(r, "*")
			if r.URL.RawPath != "" {
				unescaped, err := url.PathUnescape(key)
				if err != nil {
					http.Error(w, "Invalid upload URL", http.StatusBadRequest)
					return
				}
				key = unescaped
			}
			if bucket == "" || key == "" {
				http.Error(w, "Invalid upload URL", http.StatusBadRequest)
				return
			}

			if err := signer.VerifyPutRequest(r, bucket, key); err != nil {
				handleValidationError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), BucketContextKey, bucket)
			ctx = context.WithValue(ctx, ObjectKeyContextKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ObjectKeyFromContext extracts the validated object key from the request context
// Returns empty string if not found
func ObjectKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(ObjectKeyContextKey).(string); ok {
		return key
	}
	return ""
}

// BucketFromContext extracts the validated bucket from the request context
func BucketFromContext(ctx context.Context) string {
	if bucket, ok := ctx.Value(BucketContextKey).(string); ok {
		return bucket
	}
	return ""
}

// handleValidationError writes an appropriate HTTP error response based on the validation error
func handleValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingSignature):
		http.Error(w, "Missing Signature parameter", http.StatusUnauthorized)
	case errors.Is(err, ErrMissingExpiration):
		http.Error(w, "Missing Expires parameter", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidExpiration):
		http.Error(w, "Invalid Expires parameter", http.StatusBadRequest)
	case errors.Is(err, ErrExpired):
		http.Error(w, "Presigned URL has expired", http.StatusForbidden)
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrUnknownAccessKey):
		http.Error(w, "Invalid signature", http.StatusForbidden)
	default:
		slog.Error("presigned: validation error", "err", err)
		http.Error(w, "Authentication failed", http.StatusForbidden)
	}
}
