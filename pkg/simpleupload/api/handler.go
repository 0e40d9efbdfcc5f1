package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// maxPolicySize bounds the policy documents accepted for signing
const maxPolicySize = 64 << 10

const emptyHTML = "<!DOCTYPE html><html><head><title></title></head><body></body></html>"

// Operation names used in logs and metrics
const (
	OpSign        = "sign"
	OpSignedPut   = "signed_put"
	OpComplete    = "complete"
	OpCompleteAPI = "complete_api"
)

// Handler serves the direct-upload endpoints
type Handler struct {
	service      simpleupload.Service
	logger       *slog.Logger
	metrics      *Metrics
	iframeCompat bool
}

// HandlerOption is a functional option for configuring a Handler
type HandlerOption func(*Handler)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics records request outcomes
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithIframeCompat answers widget client errors with status 200
func WithIframeCompat(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.iframeCompat = enabled
	}
}

func NewHandler(service simpleupload.Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for upload endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sign", h.SignPolicy)
	r.Post("/signed-put", h.SignedPutURI)
	r.Post("/uploaded", h.CompleteWidget)
	r.Post("/api/uploaded", h.CompleteAPI)
	r.Get("/empty.html", h.EmptyHTML)
	return r
}

// SignPolicy validates and signs the policy document in the request body
func (h *Handler) SignPolicy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPolicySize+1))
	if err != nil {
		h.writeError(w, r, OpSign, fmt.Errorf("failed to read policy: %w", err), styleSign)
		return
	}
	if len(body) > maxPolicySize {
		h.writeError(w, r, OpSign, simpleupload.ValidationErrors{"non_field_errors": {"Policy document too large"}}, styleSign)
		return
	}

	resp, err := h.service.SignPolicy(r.Context(), CallerFromContext(r.Context()), body)
	if err != nil {
		h.writeError(w, r, OpSign, err, styleSign)
		return
	}

	h.metrics.Observe(OpSign, OutcomeOK)
	render.JSON(w, r, resp)
}

// SignedPutURI issues a fresh key in the caller's namespace with a presigned PUT URL
func (h *Handler) SignedPutURI(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.SignedPutURI(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, OpSignedPut, err, styleAPI)
		return
	}

	h.metrics.Observe(OpSignedPut, OutcomeOK)
	render.JSON(w, r, resp)
}

// CompleteWidget accepts the form-encoded success callback of a browser
// upload widget: bucket, key, uuid, name and optionally etag.
func (h *Handler) CompleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, OpComplete, simpleupload.ValidationErrors{"non_field_errors": {"Malformed form data"}}, styleWidget)
		return
	}

	errs := simpleupload.ValidationErrors{}
	for _, field := range []string{"bucket", "key", "uuid", "name"} {
		if r.PostForm.Get(field) == "" {
			errs.Add(field, simpleupload.MsgFieldRequired)
		}
	}
	if err := errs.Err(); err != nil {
		h.writeError(w, r, OpComplete, err, styleWidget)
		return
	}

	_, err := h.service.Complete(r.Context(), CallerFromContext(r.Context()), simpleupload.CompleteRequest{
		Bucket:   r.PostForm.Get("bucket"),
		Key:      r.PostForm.Get("key"),
		Filename: r.PostForm.Get("name"),
		ETag:     r.PostForm.Get("etag"),
	})
	if err != nil {
		h.writeError(w, r, OpComplete, err, styleWidget)
		return
	}

	h.metrics.Observe(OpComplete, OutcomeOK)
	w.WriteHeader(http.StatusOK)
}

// APICompletionRequest is the completion notification of a generic API client.
// The bucket is always the upload bucket.
type APICompletionRequest struct {
	Key      string `json:"key"`
	Filename string `json:"filename"`
	ETag     string `json:"etag,omitempty"`
}

// CompleteAPI accepts a JSON or form-encoded completion from an API client
func (h *Handler) CompleteAPI(w http.ResponseWriter, r *http.Request) {
	var req APICompletionRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			h.writeError(w, r, OpCompleteAPI, simpleupload.ValidationErrors{"non_field_errors": {"Malformed JSON: " + err.Error()}}, styleAPI)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.writeError(w, r, OpCompleteAPI, simpleupload.ValidationErrors{"non_field_errors": {"Malformed form data"}}, styleAPI)
			return
		}
		req.Key = r.PostForm.Get("key")
		req.Filename = r.PostForm.Get("filename")
		req.ETag = r.PostForm.Get("etag")
	}

	_, err := h.service.Complete(r.Context(), CallerFromContext(r.Context()), simpleupload.CompleteRequest{
		Bucket:   h.service.UploadBucket(),
		Key:      req.Key,
		Filename: req.Filename,
		ETag:     req.ETag,
	})
	if err != nil {
		h.writeError(w, r, OpCompleteAPI, err, styleAPI)
		return
	}

	h.metrics.Observe(OpCompleteAPI, OutcomeOK)
	w.WriteHeader(http.StatusOK)
}

// EmptyHTML serves the blank page iframe uploaders redirect to
func (h *Handler) EmptyHTML(w http.ResponseWriter, r *http.Request) {
	render.HTML(w, r, emptyHTML)
}
