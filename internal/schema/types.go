package schema

import (
	"fmt"
	"sort"
	"strings"
)

// FieldType identifies the semantic type a remote value is coerced into.
type FieldType string

const (
	// TypeInteger coerces to int64, best-effort.
	TypeInteger FieldType = "int"

	// TypeFloat coerces to float64, best-effort.
	TypeFloat FieldType = "float"

	// TypeText coerces to string; booleans collapse to the empty string
	// (some APIs return false for absent text fields).
	TypeText FieldType = "text"

	// TypeDateTime coerces positional text timestamps or epoch seconds.
	TypeDateTime FieldType = "datetime"

	// TypeReference points at another entity, either embedded as a nested
	// resource or referenced by the related entity's primary key value.
	TypeReference FieldType = "ref"

	// TypeScalarList stores a list of scalars as comma-joined text.
	TypeScalarList FieldType = "list"
)

// Valid reports whether t is one of the declared field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeText, TypeDateTime, TypeReference, TypeScalarList:
		return true
	}
	return false
}

// FieldSpec describes one local field of an entity.
type FieldSpec struct {
	// Name is the local field name, always lower-case.
	Name string

	// Type is the semantic type remote values are coerced into.
	Type FieldType

	// RefEntity names the related entity for TypeReference fields.
	RefEntity string
}

// EntitySpec is the immutable schema of one entity type. Built once at
// startup (from CUE or directly in Go) and shared read-only afterwards.
type EntitySpec struct {
	// Name identifies the entity type, e.g. "User".
	Name string

	// RemotePKField is the remote key name carrying the remote identifier.
	// Defaults to "id".
	RemotePKField string

	// LocalPKField is the local field the remote identifier is renamed to.
	// Defaults to "id".
	LocalPKField string

	// RemoteKeys is the set of local field names whose values together form
	// the remote identity. Defaults to {LocalPKField}. An empty set disables
	// reconciliation: every parse persists as a fresh record.
	RemoteKeys []string

	// Methods maps logical method names ("get") to remote method names.
	Methods map[string]string

	// MethodsNamespace, when set, prefixes every remote method name.
	MethodsNamespace string

	// MethodsAccessTag, when set, is stamped into every call's params.
	MethodsAccessTag string

	// SlugPrefix and ResolveType drive URL/slug resolution. SlugPrefix is
	// the path prefix in profile URLs ("profile" in ok.ru/profile123);
	// ResolveType is the expected type field in url.getInfo responses.
	SlugPrefix  string
	ResolveType string

	// TimelineCutField is the date field timeline windows filter against.
	// Defaults to "date".
	TimelineCutField string

	// TimelineForceOrdering sorts fetched instances descending by the cut
	// field before windowing. Leave false when the transport already
	// guarantees descending order.
	TimelineForceOrdering bool

	// Fields maps lower-case local field names to their specs.
	Fields map[string]FieldSpec
}

// Field looks up a field spec by name. The name is folded to lower-case
// before lookup, so remote keys of any case resolve to the same spec.
func (e *EntitySpec) Field(name string) (FieldSpec, bool) {
	f, ok := e.Fields[strings.ToLower(name)]
	return f, ok
}

// Method resolves a logical method name to the full remote method name,
// applying the namespace prefix when configured.
func (e *EntitySpec) Method(name string) (string, bool) {
	m, ok := e.Methods[name]
	if !ok {
		return "", false
	}
	if e.MethodsNamespace != "" {
		m = e.MethodsNamespace + "." + m
	}
	return m, true
}

// applyDefaults fills the defaulted fields of a spec in place.
func (e *EntitySpec) applyDefaults() {
	if e.RemotePKField == "" {
		e.RemotePKField = "id"
	}
	if e.LocalPKField == "" {
		e.LocalPKField = "id"
	}
	if len(e.RemoteKeys) == 0 {
		e.RemoteKeys = []string{e.LocalPKField}
	}
	if e.TimelineCutField == "" {
		e.TimelineCutField = "date"
	}
	if e.Fields == nil {
		e.Fields = map[string]FieldSpec{}
	}
}

// validate checks internal consistency of a single spec.
func (e *EntitySpec) validate() error {
	if e.Name == "" {
		return fmt.Errorf("entity spec without a name")
	}
	for name, f := range e.Fields {
		if name != strings.ToLower(name) {
			return fmt.Errorf("entity %s: field %q is not lower-case", e.Name, name)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("entity %s: field %q has unknown type %q", e.Name, name, f.Type)
		}
		if f.Type == TypeReference && f.RefEntity == "" {
			return fmt.Errorf("entity %s: reference field %q names no entity", e.Name, name)
		}
		if f.Type != TypeReference && f.RefEntity != "" {
			return fmt.Errorf("entity %s: field %q is not a reference but names entity %q", e.Name, name, f.RefEntity)
		}
	}
	for _, key := range e.RemoteKeys {
		if _, ok := e.Fields[key]; !ok {
			return fmt.Errorf("entity %s: remote key %q is not a declared field", e.Name, key)
		}
	}
	return nil
}

// Registry is the immutable set of entity specs known to the engine.
type Registry struct {
	entities map[string]*EntitySpec
}

// NewRegistry builds a registry from entity specs, applying defaults and
// validating each spec plus cross-entity reference targets.
func NewRegistry(specs ...*EntitySpec) (*Registry, error) {
	r := &Registry{entities: make(map[string]*EntitySpec, len(specs))}
	for _, spec := range specs {
		spec.applyDefaults()
		if err := spec.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.entities[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate entity spec %q", spec.Name)
		}
		r.entities[spec.Name] = spec
	}

	// Reference targets must exist so coercion never resolves into the void.
	for _, spec := range r.entities {
		for name, f := range spec.Fields {
			if f.Type != TypeReference {
				continue
			}
			if _, ok := r.entities[f.RefEntity]; !ok {
				return nil, fmt.Errorf("entity %s: field %q references unknown entity %q", spec.Name, name, f.RefEntity)
			}
		}
	}

	return r, nil
}

// Entity looks up an entity spec by name.
func (r *Registry) Entity(name string) (*EntitySpec, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Names returns all entity names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
