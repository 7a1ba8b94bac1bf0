package record

import (
	"time"
)

// Instance is one in-memory record of an entity type.
//
// Fields maps lower-case local field names to coerced values. StorageID is
// empty until the store persists the instance (or Merge adopts an existing
// record's identity).
type Instance struct {
	Entity    string
	StorageID string
	Fields    map[string]any
}

// New creates an empty instance of the given entity type.
func New(entity string) *Instance {
	return &Instance{
		Entity: entity,
		Fields: make(map[string]any),
	}
}

// Set assigns a field value.
func (i *Instance) Set(name string, value any) {
	i.Fields[name] = value
}

// Get returns a field value and whether the field is present.
func (i *Instance) Get(name string) (any, bool) {
	v, ok := i.Fields[name]
	return v, ok
}

// Time returns the field value as a time.Time. Returns ok=false when the
// field is absent or holds any other type.
func (i *Instance) Time(name string) (time.Time, bool) {
	v, ok := i.Fields[name]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a copy with its own field map. Nested values are shared.
func (i *Instance) Clone() *Instance {
	out := &Instance{
		Entity:    i.Entity,
		StorageID: i.StorageID,
		Fields:    make(map[string]any, len(i.Fields)),
	}
	for k, v := range i.Fields {
		out.Fields[k] = v
	}
	return out
}

// RemoteIdentity collects the values of the given remote key fields.
// Returns ok=false when the key set is empty or any key value is missing or
// empty; an instance without a complete remote identity is always treated
// as a fresh record, never reconciled.
func (i *Instance) RemoteIdentity(keys []string) (map[string]any, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	identity := make(map[string]any, len(keys))
	for _, key := range keys {
		v, ok := i.Fields[key]
		if !ok || IsEmpty(v) {
			return nil, false
		}
		identity[key] = v
	}
	return identity, true
}

// Merge substitutes this freshly parsed instance with a previously persisted
// one: the storage identity is adopted from old, and every non-empty old
// value survives unless the new parse produced a value for it. A new value
// only loses when it is nil or the empty string; zero numbers and false
// booleans are deliberate values and win over the old ones.
func (i *Instance) Merge(old *Instance) {
	i.StorageID = old.StorageID

	for key, oldVal := range old.Fields {
		if IsEmpty(oldVal) {
			continue
		}
		newVal, ok := i.Fields[key]
		if !ok || newVal == nil || newVal == "" {
			i.Fields[key] = oldVal
		}
	}
}
