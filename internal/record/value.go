package record

import (
	"reflect"
	"time"
)

// IsEmpty reports whether a field value counts as empty for reconciliation.
//
// Empty values never overwrite known ones during a merge: nil, empty string,
// false, numeric zero, zero time, and empty slices/maps are all empty.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case int:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	case float32:
		return val == 0
	case time.Time:
		return val.IsZero()
	case *Instance:
		return val == nil
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}

	// Uncommon kinds (other slices, maps) fall back to reflection.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
