package presigned

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ObjectWriter stores the body of a verified upload and returns its etag.
type ObjectWriter interface {
	Put(ctx context.Context, bucket, key string, body io.Reader) (string, error)
}

// Handlers accepts PUTs to URLs issued by a Signer configured WithEndpoint,
// standing in for S3 during local development.
type Handlers struct {
	signer *Signer
	store  ObjectWriter
	logger *slog.Logger
}

// NewHandlers creates upload handlers writing into store
func NewHandlers(signer *Signer, store ObjectWriter, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{signer: signer, store: store, logger: logger}
}

// Routes returns PUT /{bucket}/* guarded by ValidateMiddleware
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(ValidateMiddleware(h.signer)).Put("/{bucket}/*", h.HandleUpload)
	return r
}

// HandleUpload stores the request body. Like S3 it answers 200 with the
// ETag header and an empty body.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	bucket := BucketFromContext(r.Context())
	key := ObjectKeyFromContext(r.Context())

	etag, err := h.store.Put(r.Context(), bucket, key, r.Body)
	if err != nil {
		h.logger.Error("Presigned upload failed", "bucket", bucket, "key", key, "err", err)
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("Presigned upload stored", "bucket", bucket, "key", key)
	w.Header().Set("ETag", `"`+etag+`"`)
	w.WriteHeader(http.StatusOK)
}
