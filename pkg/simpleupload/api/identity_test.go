package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/access"
	"github.com/tendant/simple-upload/pkg/simpleupload/presigned"
)

func captureCaller(cfg IdentityConfig, req *http.Request) (simpleupload.Caller, *httptest.ResponseRecorder) {
	var caller simpleupload.Caller
	handler := Identity(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = CallerFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return caller, rec
}

func TestIdentity(t *testing.T) {
	cfg := IdentityConfig{TokenAuth: tokenAuth}

	t.Run("username claim", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearer(t, map[string]interface{}{"username": "frodo", "sub": "42"}))
		caller, _ := captureCaller(cfg, req)
		assert.Equal(t, "frodo", caller.Username)
	})

	t.Run("subject claim", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearer(t, map[string]interface{}{"sub": "sam"}))
		caller, _ := captureCaller(cfg, req)
		assert.Equal(t, "sam", caller.Username)
	})

	t.Run("token cookie", func(t *testing.T) {
		_, token, err := tokenAuth.Encode(map[string]interface{}{"username": "frodo"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
		caller, _ := captureCaller(cfg, req)
		assert.Equal(t, "frodo", caller.Username)
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		caller, _ := captureCaller(cfg, req)
		assert.True(t, caller.Anonymous())
	})

	t.Run("no token auth configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearer(t, map[string]interface{}{"username": "frodo"}))
		caller, _ := captureCaller(IdentityConfig{}, req)
		assert.True(t, caller.Anonymous())
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
		caller, rec := captureCaller(IdentityConfig{SessionCookieName: "sid", MintSession: true}, req)
		assert.Equal(t, "abc", caller.SessionKey)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("session minted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		caller, rec := captureCaller(IdentityConfig{MintSession: true}, req)
		require.NotEmpty(t, caller.SessionKey)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, DefaultSessionCookie, cookies[0].Name)
		assert.Equal(t, caller.SessionKey, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("no session without minting", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		caller, rec := captureCaller(IdentityConfig{}, req)
		assert.Empty(t, caller.SessionKey)
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestCallerFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, simpleupload.Caller{}, CallerFromContext(req.Context()))

	ctx := WithCaller(req.Context(), simpleupload.Caller{Username: "frodo"})
	assert.Equal(t, "frodo", CallerFromContext(ctx).Username)
}

func TestUploadPrefixCookie(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	newService := func(t *testing.T, prefix access.PrefixFunc) simpleupload.Service {
		svc, err := simpleupload.New(
			simpleupload.WithPolicySigner(presigned.New(presigned.WithCredentials("AKID", "SECRET"))),
			simpleupload.WithAccessChecker(access.NewChecker("uploads", access.WithPrefixFunc(prefix))),
		)
		require.NoError(t, err)
		return svc
	}

	serve := func(svc simpleupload.Service, caller simpleupload.Caller, cookie *http.Cookie) *http.Response {
		handler := UploadPrefixCookie(svc, "", logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		req = req.WithContext(WithCaller(req.Context(), caller))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Result()
	}

	t.Run("sets the caller's prefix", func(t *testing.T) {
		resp := serve(newService(t, access.UsernamePrefix("users")), simpleupload.Caller{Username: "frodo"}, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		cookies := resp.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, DefaultPrefixCookie, cookies[0].Name)
		assert.Equal(t, "users/frodo", cookies[0].Value)
	})

	t.Run("removes a stale cookie for anonymous callers", func(t *testing.T) {
		stale := &http.Cookie{Name: DefaultPrefixCookie, Value: "users/frodo"}
		resp := serve(newService(t, access.UsernamePrefix("users")), simpleupload.Caller{}, stale)
		cookies := resp.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "", cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)
	})

	t.Run("anonymous without cookie", func(t *testing.T) {
		resp := serve(newService(t, access.UsernamePrefix("users")), simpleupload.Caller{}, nil)
		assert.Empty(t, resp.Cookies())
	})

	t.Run("misconfigured prefix", func(t *testing.T) {
		resp := serve(newService(t, access.StaticPrefix("")), simpleupload.Caller{Username: "frodo"}, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, resp.Cookies())
	})
}
