package parse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/okgraph/okgraph/internal/record"
	"github.com/okgraph/okgraph/internal/schema"
)

// Resolver looks up persisted records so reference fields can be tied to
// local storage identities during coercion.
//
// Implemented by the store-backed resolver in internal/sync and by fakes in
// tests.
type Resolver interface {
	// ResolveReference finds the storage id of a persisted record of the
	// given entity whose primary key field equals key.
	ResolveReference(ctx context.Context, entity string, key any) (storageID string, found bool, err error)
}

// Parser converts raw responses into record instances for one registry of
// entity schemas.
//
// Parsing is single-threaded and synchronous; a Parser is safe for
// concurrent use because it holds no per-parse state.
type Parser struct {
	registry *schema.Registry
	resolver Resolver
	log      *slog.Logger
}

// NewParser creates a parser. resolver may be nil, in which case scalar
// reference values always fall back to the raw-identifier field. logger may
// be nil to use the default logger.
func NewParser(registry *schema.Registry, resolver Resolver, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		registry: registry,
		resolver: resolver,
		log:      logger,
	}
}

// ParseResponse classifies a raw response and produces instances.
//
// An object produces exactly one instance, a list produces one per usable
// element, and any other shape is a ContentError. Extra fields are stamped
// onto every instance before field parsing, so a parsed remote field may
// deliberately overwrite a stamped default.
func (p *Parser) ParseResponse(ctx context.Context, entity string, response any, extra map[string]any) ([]*record.Instance, error) {
	switch resp := response.(type) {
	case map[string]any:
		inst, err := p.ParseResource(ctx, entity, resp, extra)
		if err != nil {
			return nil, err
		}
		return []*record.Instance{inst}, nil
	case []any:
		return p.ParseList(ctx, entity, resp, extra)
	default:
		return nil, NewContentError(entity, "response should be a list or object, not %T", response)
	}
}

// ParseList produces one instance per list element.
//
// Two quirks of the remote API are normalized away: an element that is
// itself a non-empty list is replaced by its first item (detail rows nested
// in one-element arrays), and a bare number is skipped (a leading count
// prefixing the real elements). Anything else that is not an object aborts
// the whole list with a ContentError; callers correlate elements by index,
// so one malformed element invalidates the batch.
func (p *Parser) ParseList(ctx context.Context, entity string, list []any, extra map[string]any) ([]*record.Instance, error) {
	var instances []*record.Instance

	for i, elem := range list {
		if nested, ok := elem.([]any); ok && len(nested) > 0 {
			elem = nested[0]
		}

		switch elem.(type) {
		case float64, int, int64:
			continue
		}

		resource, ok := elem.(map[string]any)
		if !ok {
			p.log.Error("list element is not an object",
				"entity", entity,
				"index", i,
				"type", fmt.Sprintf("%T", elem))
			return nil, NewContentError(entity, "list element %d is not an object (%T)", i, elem)
		}

		inst, err := p.ParseResource(ctx, entity, resource, extra)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	return instances, nil
}

// ParseResource coerces one raw resource into an instance.
//
// Extra fields are applied first; per-key coercion may overwrite them.
// Unknown keys are dropped with a debug log, failed conversions keep the raw
// value; a single bad field never fails the parse.
func (p *Parser) ParseResource(ctx context.Context, entity string, resource map[string]any, extra map[string]any) (*record.Instance, error) {
	spec, ok := p.registry.Entity(entity)
	if !ok {
		return nil, fmt.Errorf("no schema for entity %q", entity)
	}

	inst := record.New(entity)
	for key, value := range extra {
		inst.Set(key, value)
	}

	for key, value := range resource {
		p.coerceField(ctx, spec, inst, key, value)
	}

	return inst, nil
}

// coerceField applies the per-key algorithm: fold the key, rename the remote
// pk to its local field, look up the field spec, coerce by semantic type,
// assign.
func (p *Parser) coerceField(ctx context.Context, spec *schema.EntitySpec, inst *record.Instance, key string, value any) {
	key = strings.ToLower(key)
	if key == spec.RemotePKField {
		key = spec.LocalPKField
	}

	field, ok := spec.Field(key)
	if !ok {
		p.log.Debug("field not declared for entity, dropping",
			"entity", spec.Name,
			"field", key)
		return
	}

	var outcome Outcome
	if field.Type == schema.TypeReference {
		if !record.IsEmpty(value) {
			value, key, outcome = p.coerceReference(ctx, field, key, value)
		}
	} else {
		value, outcome = Coerce(field.Type, value)
	}

	if outcome == OutcomeFallback {
		p.log.Debug("coercion fell back",
			"entity", spec.Name,
			"field", key,
			"type", string(field.Type))
	}

	inst.Set(key, value)
}

// coerceReference resolves a reference field value.
//
// A nested object is recursively parsed as an embedded sub-resource of the
// related entity. A scalar is resolved against the persistence layer; when
// the related record is not locally known yet, the raw identifier is kept
// under the "<field>_id" variant so the remote id is not lost.
func (p *Parser) coerceReference(ctx context.Context, field schema.FieldSpec, key string, value any) (any, string, Outcome) {
	if nested, ok := value.(map[string]any); ok {
		child, err := p.ParseResource(ctx, field.RefEntity, nested, nil)
		if err != nil {
			// Registry validation guarantees the related entity exists, so
			// this only fires on a broken hand-built registry.
			p.log.Error("embedded resource parse failed",
				"entity", field.RefEntity,
				"field", key,
				"error", err)
			return value, key, OutcomeFallback
		}
		return child, key, OutcomeApplied
	}

	if p.resolver != nil {
		storageID, found, err := p.resolver.ResolveReference(ctx, field.RefEntity, value)
		if err != nil {
			p.log.Warn("reference lookup failed, keeping raw identifier",
				"entity", field.RefEntity,
				"field", key,
				"error", err)
		} else if found {
			return storageID, key, OutcomeApplied
		}
	}

	return value, key + "_id", OutcomeFallback
}
