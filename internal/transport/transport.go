// Package transport defines the remote-call boundary of the sync engine.
//
// The engine treats transport failures opaquely: it never retries, never
// inspects provider error payloads beyond the access-denied distinction, and
// propagates everything else unchanged to the caller.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// Transport performs one remote API call and returns the decoded response.
//
// The returned value is whatever the wire JSON decoded to: an object
// (map[string]any), a list ([]any), or a scalar. Shape classification is the
// parser's job, not the transport's.
type Transport interface {
	Invoke(ctx context.Context, method string, params map[string]string) (any, error)
}

// DeniedError reports that the remote refused access to a method. It is
// surfaced unchanged by the engine, never generated locally.
type DeniedError struct {
	Method  string
	Message string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied for %s: %s", e.Method, e.Message)
}

// IsDenied reports whether err is (or wraps) a DeniedError.
func IsDenied(err error) bool {
	var de *DeniedError
	return errors.As(err, &de)
}
