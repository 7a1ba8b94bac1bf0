package parse

import (
	"errors"
	"fmt"
)

// ContentError reports a remote response whose shape cannot be classified,
// or a persistence result with unexpected cardinality. Content errors always
// escalate to the caller; they invalidate the whole operation, not a single
// field.
type ContentError struct {
	Entity  string
	Message string
}

func (e *ContentError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("content error: %s (entity=%s)", e.Message, e.Entity)
	}
	return fmt.Sprintf("content error: %s", e.Message)
}

// NewContentError creates a ContentError for the given entity type.
func NewContentError(entity, format string, args ...any) *ContentError {
	return &ContentError{Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// IsContentError reports whether err is (or wraps) a ContentError.
func IsContentError(err error) bool {
	var ce *ContentError
	return errors.As(err, &ce)
}

// ParseError is reserved for unrecoverable structural parse failures.
// Field coercion prefers best-effort fallback over failure, so nothing in
// this package produces it today; it exists so callers can already branch on
// the full taxonomy.
type ParseError struct {
	Entity  string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (entity=%s)", e.Message, e.Entity)
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
