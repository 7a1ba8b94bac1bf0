package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Replay serves canned responses from a YAML fixture instead of calling the
// remote API. Used by the CLI for offline syncs and by tests.
//
// Fixture format, one entry per remote method:
//
//	responses:
//	  users.getInfo:
//	    response:
//	      - uid: 1
//	        name: "Alice"
//	  group.getInfo:
//	    denied: "method is not allowed"
//
// Responses pass through a JSON round-trip so values reach the engine with
// the exact dynamic types a live HTTP transport would produce (float64
// numbers, map[string]any objects).
type Replay struct {
	responses map[string]replayEntry
}

type replayFile struct {
	Responses map[string]replayEntry `yaml:"responses"`
}

type replayEntry struct {
	Response any    `yaml:"response"`
	Denied   string `yaml:"denied,omitempty"`
}

// LoadReplay reads a fixture file.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseReplay(data)
}

// ParseReplay builds a replay transport from fixture bytes.
func ParseReplay(data []byte) (*Replay, error) {
	var file replayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(file.Responses) == 0 {
		return nil, fmt.Errorf("fixture declares no responses")
	}
	return &Replay{responses: file.Responses}, nil
}

// Invoke returns the canned response for a method.
// Unknown methods are an error: a fixture that misses a method the engine
// calls is a broken fixture, not an empty result.
func (r *Replay) Invoke(_ context.Context, method string, _ map[string]string) (any, error) {
	entry, ok := r.responses[method]
	if !ok {
		return nil, fmt.Errorf("no fixture response for method %q", method)
	}
	if entry.Denied != "" {
		return nil, &DeniedError{Method: method, Message: entry.Denied}
	}
	return jsonRoundTrip(entry.Response)
}

// jsonRoundTrip re-decodes a YAML-decoded value through JSON so maps are
// map[string]any and numbers are float64, matching a live transport.
func jsonRoundTrip(v any) (any, error) {
	data, err := json.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, fmt.Errorf("fixture response: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("fixture response: %w", err)
	}
	return out, nil
}

// normalizeYAML rewrites map[any]any keys (YAML's map form) to strings so
// the value is JSON-marshalable.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeYAML(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeYAML(elem)
		}
		return out
	default:
		return v
	}
}
