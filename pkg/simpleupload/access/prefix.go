package access

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// PrefixFunc derives the key namespace of a caller.
type PrefixFunc func(ctx context.Context, caller simpleupload.Caller) (string, error)

// UsernamePrefix namespaces uploads by username under base, e.g.
// "uploads/alice". Anonymous callers are refused with ErrLoginRequired.
func UsernamePrefix(base string) PrefixFunc {
	base = strings.Trim(base, "/")
	return func(ctx context.Context, caller simpleupload.Caller) (string, error) {
		if caller.Anonymous() {
			return "", simpleupload.ErrLoginRequired
		}
		return join(base, caller.Username), nil
	}
}

// SessionHashPrefix namespaces uploads by a salted SHA-256 of the session
// key, so anonymous callers with a session can upload. Callers without a
// session are refused with ErrLoginRequired.
func SessionHashPrefix(base, salt string) PrefixFunc {
	base = strings.Trim(base, "/")
	return func(ctx context.Context, caller simpleupload.Caller) (string, error) {
		if caller.SessionKey == "" {
			return "", simpleupload.ErrLoginRequired
		}
		sum := sha256.Sum256([]byte(salt + caller.SessionKey))
		return join(base, hex.EncodeToString(sum[:])), nil
	}
}

// StaticPrefix gives every caller the same namespace. An empty prefix is a
// configuration error reported by the Checker.
func StaticPrefix(prefix string) PrefixFunc {
	prefix = strings.Trim(prefix, "/")
	return func(ctx context.Context, caller simpleupload.Caller) (string, error) {
		return prefix, nil
	}
}

func join(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}
