package simpleupload

import (
	"strings"
	"unicode"
)

const (
	urlCharacters       = "-._~:/?#[]@!$&'()*+,;="
	mediaTypeCharacters = "!#$&.+-^_"
	bucketCharacters    = "-._"
)

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func onlyCharacters(s, extra string) bool {
	for _, r := range s {
		if !isASCIIAlnum(r) && !strings.ContainsRune(extra, r) {
			return false
		}
	}
	return true
}

// IsURLSafe reports whether s consists only of unreserved and reserved URL characters.
func IsURLSafe(s string) bool {
	return onlyCharacters(s, urlCharacters)
}

// IsMediaType reports whether s has the form type/subtype with both halves
// non-empty and drawn from the RFC token characters.
func IsMediaType(s string) bool {
	typ, subtype, ok := strings.Cut(s, "/")
	if !ok || typ == "" || subtype == "" {
		return false
	}
	return onlyCharacters(typ, mediaTypeCharacters) && onlyCharacters(subtype, mediaTypeCharacters)
}

// IsBucketName applies the lenient US Standard bucket naming rules.
func IsBucketName(s string) bool {
	if len(s) < 3 || len(s) > 255 {
		return false
	}
	return onlyCharacters(s, bucketCharacters)
}

// IsPrintableFilename accepts any printable text without leading or trailing spaces.
func IsPrintableFilename(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
