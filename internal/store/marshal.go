package store

import (
	"encoding/json"
	"fmt"

	"github.com/okgraph/okgraph/internal/record"
)

// marshalFields converts a field map to canonical JSON TEXT for storage.
// Fails on unresolved reference instances; those must be reduced to storage
// ids before a record reaches the store.
func marshalFields(fields map[string]any) (string, error) {
	data, err := record.MarshalCanonical(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

// marshalIdentity converts a remote key/value set to canonical JSON TEXT.
// An absent identity maps to the empty string, which the unique index
// exempts: records without a remote identity never collide.
func marshalIdentity(identity map[string]any) (string, error) {
	if len(identity) == 0 {
		return "", nil
	}
	data, err := record.MarshalCanonical(identity)
	if err != nil {
		return "", fmt.Errorf("marshal remote identity: %w", err)
	}
	return string(data), nil
}

// unmarshalFields parses stored JSON TEXT back into a field map. Values come
// back JSON-typed (float64 numbers, RFC 3339 strings for timestamps).
func unmarshalFields(data string) (map[string]any, error) {
	fields := make(map[string]any)
	if data == "" || data == "{}" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}
