package presigned

import "errors"

// ErrInvalidParameter is returned when a signing input is empty or negative
var ErrInvalidParameter = errors.New("presigned: invalid parameter")

// Signature validation errors
var (
	// ErrNoSecretKey is returned when attempting to sign without a configured secret key
	ErrNoSecretKey = errors.New("presigned: no secret key configured")

	// ErrMissingSignature is returned when the Signature query parameter is missing
	ErrMissingSignature = errors.New("presigned: missing Signature parameter")

	// ErrMissingExpiration is returned when the Expires query parameter is missing
	ErrMissingExpiration = errors.New("presigned: missing Expires parameter")

	// ErrInvalidExpiration is returned when the Expires parameter cannot be parsed
	ErrInvalidExpiration = errors.New("presigned: invalid Expires parameter")

	// ErrExpired is returned when the presigned URL has expired
	ErrExpired = errors.New("presigned: URL has expired")

	// ErrInvalidSignature is returned when the signature is invalid
	ErrInvalidSignature = errors.New("presigned: invalid signature")

	// ErrUnknownAccessKey is returned when AWSAccessKeyId does not match the signer
	ErrUnknownAccessKey = errors.New("presigned: unknown access key")
)

// IsAuthError returns true if the error is a signature validation error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMissingExpiration) ||
		errors.Is(err, ErrInvalidExpiration) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrUnknownAccessKey)
}
