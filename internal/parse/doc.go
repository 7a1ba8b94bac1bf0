// Package parse turns raw transport responses into typed record instances.
//
// Two layers, matching the two failure policies:
//
// Response normalization classifies the overall shape (single resource,
// resource list, malformed) and is strict: an unclassifiable response or a
// non-object list element aborts the whole operation with a ContentError,
// since callers correlate list elements by index.
//
// Field coercion is best-effort: a value that cannot be converted to its
// declared type keeps its raw form (or becomes nil for dates), and a remote
// key with no declared field is dropped with a debug log. A single bad field
// never fails a parse.
package parse
