package sync

import (
	"context"
	"fmt"

	"github.com/okgraph/okgraph/internal/parse"
	"github.com/okgraph/okgraph/internal/schema"
	"github.com/okgraph/okgraph/internal/store"
)

// storeResolver resolves scalar reference values against persisted records,
// so a bare remote id in a response can be tied to an already-synced record's
// storage identity.
type storeResolver struct {
	registry *schema.Registry
	store    *store.Store
}

func (r *storeResolver) ResolveReference(ctx context.Context, entity string, key any) (string, bool, error) {
	spec, ok := r.registry.Entity(entity)
	if !ok {
		return "", false, fmt.Errorf("no schema for entity %q", entity)
	}

	// A scalar key can only stand in for the full remote identity when that
	// identity is exactly the primary key field.
	if len(spec.RemoteKeys) != 1 || spec.RemoteKeys[0] != spec.LocalPKField {
		return "", false, nil
	}

	// The key must be coerced the same way a parsed pk field would be, or
	// "9", 9 and 9.0 would derive three different identities.
	pk, ok := spec.Field(spec.LocalPKField)
	if !ok {
		return "", false, fmt.Errorf("entity %q: pk field %q not declared", entity, spec.LocalPKField)
	}
	coerced, _ := parse.Coerce(pk.Type, key)

	inst, found, err := r.store.LookupByRemoteKeys(ctx, entity, map[string]any{spec.LocalPKField: coerced})
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	return inst.StorageID, true, nil
}
