package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// DefaultSessionCookie is the cookie that carries the anonymous session key
const DefaultSessionCookie = "upload_session"

type callerKey struct{}

// IdentityConfig controls how the caller is resolved for each request.
type IdentityConfig struct {
	// TokenAuth verifies bearer tokens and the "jwt" cookie. Nil disables token auth.
	TokenAuth *jwtauth.JWTAuth

	// SessionCookieName names the session cookie. Defaults to DefaultSessionCookie.
	SessionCookieName string

	// MintSession issues a new session cookie to callers that have none
	MintSession bool
}

// WithCaller returns a copy of ctx carrying caller
func WithCaller(ctx context.Context, caller simpleupload.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller stored by Identity, or an anonymous caller
func CallerFromContext(ctx context.Context) simpleupload.Caller {
	caller, _ := ctx.Value(callerKey{}).(simpleupload.Caller)
	return caller
}

// Identity resolves the request's caller from a verified JWT and the session
// cookie. Invalid or missing tokens leave the caller anonymous; permission
// checks downstream decide whether that is acceptable.
func Identity(cfg IdentityConfig) func(http.Handler) http.Handler {
	cookieName := cfg.SessionCookieName
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}

	return func(next http.Handler) http.Handler {
		verified := func(next http.Handler) http.Handler { return next }
		if cfg.TokenAuth != nil {
			verified = jwtauth.Verify(cfg.TokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie)
		}

		return verified(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var caller simpleupload.Caller

			if cfg.TokenAuth != nil {
				if token, claims, err := jwtauth.FromContext(r.Context()); err == nil && token != nil {
					caller.Username = usernameFromClaims(claims)
				}
			}

			if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
				caller.SessionKey = cookie.Value
			} else if cfg.MintSession {
				caller.SessionKey = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    caller.SessionKey,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		}))
	}
}

func usernameFromClaims(claims map[string]interface{}) string {
	for _, name := range []string{"username", "sub"} {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
