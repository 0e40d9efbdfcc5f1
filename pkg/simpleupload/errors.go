package simpleupload

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Structural condition errors. Every kind wraps ErrMalformedCondition.
var (
	// ErrMalformedCondition indicates a condition with a bad wire shape
	ErrMalformedCondition = errors.New("malformed condition")

	// ErrEmptyCondition indicates a condition with no element or no values
	ErrEmptyCondition = fmt.Errorf("%w: empty condition", ErrMalformedCondition)

	// ErrTooManyValues indicates an array with more than two values or an object with more than one key
	ErrTooManyValues = fmt.Errorf("%w: too many values", ErrMalformedCondition)

	// ErrInvalidValueType indicates a member that is neither a string nor a number
	ErrInvalidValueType = fmt.Errorf("%w: invalid value type", ErrMalformedCondition)

	// ErrInvalidConditionShape indicates a condition that is neither an array nor an object
	ErrInvalidConditionShape = fmt.Errorf("%w: invalid condition shape", ErrMalformedCondition)

	// ErrMissingElementMarker indicates an operator followed by an element name without $
	ErrMissingElementMarker = fmt.Errorf("%w: missing $ marker", ErrMalformedCondition)
)

// Condition construction errors
var (
	ErrInvalidCondition   = errors.New("invalid condition")
	ErrConflictingValues  = fmt.Errorf("%w: do not use value and value_range together", ErrInvalidCondition)
	ErrOperatorWithRange  = fmt.Errorf("%w: operator should not be used with value_range", ErrInvalidCondition)
	ErrMissingValue       = fmt.Errorf("%w: value or value_range is required", ErrInvalidCondition)
	ErrUnknownOperator    = fmt.Errorf("%w: unknown operator", ErrInvalidCondition)
	ErrMissingElementName = fmt.Errorf("%w: element name is required", ErrInvalidCondition)
)

// Access and storage errors
var (
	// ErrPermissionDenied is wrapped by every PermissionError
	ErrPermissionDenied = errors.New("permission denied")

	// ErrLoginRequired is returned when no identity is available to derive an upload prefix
	ErrLoginRequired error = &PermissionError{Reason: "Log in before uploading"}

	// ErrMisconfiguredPrefix indicates the prefix strategy produced an empty prefix
	ErrMisconfiguredPrefix = errors.New("upload prefix must be non-zero-length and should be unique for each user")

	// ErrObjectNotFound indicates the copy source is missing or its etag does not match
	ErrObjectNotFound = errors.New("object not found")
)

// NotFoundMessage is the single client-facing message for ErrObjectNotFound.
// It does not distinguish a missing key from an etag mismatch.
const NotFoundMessage = "Invalid key or bad ETag"

// ConditionError is a structural decoding failure with a client-facing message.
type ConditionError struct {
	Err     error
	Message string
}

func (e *ConditionError) Error() string {
	return e.Message
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}

func conditionErrorf(kind error, format string, args ...any) error {
	return &ConditionError{Err: kind, Message: fmt.Sprintf(format, args...)}
}

// PermissionError is a client-facing access denial.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

// Deny returns a PermissionError with a formatted reason.
func Deny(format string, args ...any) error {
	return &PermissionError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationErrors maps a field such as "conditions.key" to its messages.
// It accumulates every failure found in a document.
type ValidationErrors map[string][]string

// Add appends msg to field.
func (e ValidationErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Fields returns the failing field names in sorted order.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Err returns e as an error, or nil when it holds nothing.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range e.Fields() {
		parts = append(parts, field+": "+strings.Join(e[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationErrors extracts ValidationErrors from err.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// IsPermissionError reports whether err is a client-facing access denial.
func IsPermissionError(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
