package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// DefaultPrefixCookie names the cookie that tells browser uploaders their key namespace
const DefaultPrefixCookie = "upload_prefix"

// UploadPrefixCookie sets a cookie with the caller's upload prefix on every
// response so client-side uploaders can build keys. Callers without a
// namespace get the cookie removed.
func UploadPrefixCookie(service simpleupload.Service, name string, logger *slog.Logger) func(http.Handler) http.Handler {
	if name == "" {
		name = DefaultPrefixCookie
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			prefix, err := service.UploadPrefix(r.Context(), CallerFromContext(r.Context()))
			switch {
			case err == nil:
				http.SetCookie(w, &http.Cookie{Name: name, Value: prefix, Path: "/"})
			case errors.Is(err, simpleupload.ErrMisconfiguredPrefix):
				logger.Error("Upload prefix is misconfigured", "err", err)
			case simpleupload.IsPermissionError(err):
				if _, cerr := r.Cookie(name); cerr == nil {
					http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
				}
			default:
				logger.Warn("Failed to resolve upload prefix", "err", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}
