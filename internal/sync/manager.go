package sync

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okgraph/okgraph/internal/parse"
	"github.com/okgraph/okgraph/internal/record"
	"github.com/okgraph/okgraph/internal/schema"
	"github.com/okgraph/okgraph/internal/store"
	"github.com/okgraph/okgraph/internal/transport"
)

// FetchedField is the instance field stamped with the retrieval time on
// every Get. Declared as a datetime field by entities that track it; dropped
// like any other unknown key by entities that do not.
const FetchedField = "fetched"

// urlPattern matches profile URLs of the remote service: optional scheme and
// www, either domain, then the slug path.
var urlPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:ok\.ru|odnoklassniki\.ru)/(.+?)/?$`)

// Config assembles a Manager. Registry, Transport and Store are required;
// everything else has a working default.
type Config struct {
	// Entity names the registry spec this manager syncs.
	Entity string

	Registry  *schema.Registry
	Transport transport.Transport
	Store     *store.Store

	// Identity generates storage ids for new records.
	// Defaults to UUIDv7Generator.
	Identity IdentityGenerator

	// Window filters fetched batches by date cursors. Nil for entities with
	// no timeline semantics; queries with cursors then fail loudly instead
	// of silently returning the unfiltered batch.
	Window Windower

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now is the clock for fetched stamps. Defaults to time.Now.
	Now func() time.Time
}

// Query describes one retrieval.
type Query struct {
	// Method is the logical method name from the entity spec.
	// Defaults to "get".
	Method string

	// Params are passed to the transport verbatim, plus the entity's access
	// tag when one is configured.
	Params map[string]string

	// Extra fields are stamped onto every parsed instance before field
	// parsing; a parsed remote field may overwrite them.
	Extra map[string]any

	// After and Before bound the timeline window. Only valid on managers
	// configured with a Windower.
	After  *time.Time
	Before *time.Time
}

// Manager syncs one entity type: fetch, parse, reconcile, persist.
//
// Safe for concurrent use; all mutable state lives in the store.
type Manager struct {
	spec      *schema.EntitySpec
	registry  *schema.Registry
	transport transport.Transport
	store     *store.Store
	parser    *parse.Parser
	idGen     IdentityGenerator
	window    Windower
	log       *slog.Logger
	now       func() time.Time
}

// NewManager validates the config and builds a manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("sync manager: registry is required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("sync manager: transport is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("sync manager: store is required")
	}
	spec, ok := cfg.Registry.Entity(cfg.Entity)
	if !ok {
		return nil, fmt.Errorf("sync manager: unknown entity %q", cfg.Entity)
	}

	if cfg.Identity == nil {
		cfg.Identity = UUIDv7Generator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	resolver := &storeResolver{registry: cfg.Registry, store: cfg.Store}
	return &Manager{
		spec:      spec,
		registry:  cfg.Registry,
		transport: cfg.Transport,
		store:     cfg.Store,
		parser:    parse.NewParser(cfg.Registry, resolver, cfg.Logger),
		idGen:     cfg.Identity,
		window:    cfg.Window,
		log:       cfg.Logger,
		now:       cfg.Now,
	}, nil
}

// Get fetches and parses without persisting. Every instance is stamped with
// the retrieval time; transport errors (including access denials) propagate
// unchanged.
func (m *Manager) Get(ctx context.Context, q Query) ([]*record.Instance, error) {
	name := q.Method
	if name == "" {
		name = "get"
	}
	method, ok := m.spec.Method(name)
	if !ok {
		return nil, fmt.Errorf("entity %s: no method %q configured", m.spec.Name, name)
	}

	params := make(map[string]string, len(q.Params)+1)
	for k, v := range q.Params {
		params[k] = v
	}
	if m.spec.MethodsAccessTag != "" {
		params["methods_access_tag"] = m.spec.MethodsAccessTag
	}

	if (q.After != nil || q.Before != nil) && m.window == nil {
		return nil, fmt.Errorf("entity %s: query has date cursors but manager has no window", m.spec.Name)
	}

	raw, err := m.transport.Invoke(ctx, method, params)
	if err != nil {
		return nil, err
	}

	extra := make(map[string]any, len(q.Extra)+1)
	for k, v := range q.Extra {
		extra[k] = v
	}
	extra[FetchedField] = m.now().UTC()

	instances, err := m.parser.ParseResponse(ctx, m.spec.Name, raw, extra)
	if err != nil {
		return nil, err
	}

	if m.window != nil {
		instances = m.window.Apply(m.spec, instances, q.After, q.Before)
	}

	m.log.Debug("fetched remote batch",
		"entity", m.spec.Name,
		"method", method,
		"count", len(instances))
	return instances, nil
}

// Fetch retrieves, reconciles and persists a batch in one transaction.
// Instances reconciling to the same stored record are deduplicated; the
// result holds each persisted record once, in response order.
func (m *Manager) Fetch(ctx context.Context, q Query) ([]*record.Instance, error) {
	instances, err := m.Get(ctx, q)
	if err != nil {
		return nil, err
	}

	var saved []*record.Instance
	err = m.store.WithTx(ctx, func(tx *store.Tx) error {
		seen := make(map[string]bool, len(instances))
		for _, inst := range instances {
			out, err := m.reconcile(ctx, tx, m.spec, inst)
			if err != nil {
				return err
			}
			if seen[out.StorageID] {
				continue
			}
			seen[out.StorageID] = true
			saved = append(saved, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// FetchOne is Fetch for methods that must yield exactly one record. Any
// other cardinality is a content error.
func (m *Manager) FetchOne(ctx context.Context, q Query) (*record.Instance, error) {
	saved, err := m.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(saved) != 1 {
		return nil, parse.NewContentError(m.spec.Name, "remote returned %d objects, expected exactly one", len(saved))
	}
	return saved[0], nil
}

// GetOrCreateFromInstance reconciles and persists one already-parsed
// instance.
func (m *Manager) GetOrCreateFromInstance(ctx context.Context, inst *record.Instance) (*record.Instance, error) {
	var out *record.Instance
	err := m.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		out, err = m.reconcile(ctx, tx, m.spec, inst)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrCreateFromResource parses one raw resource object, then reconciles
// and persists it.
func (m *Manager) GetOrCreateFromResource(ctx context.Context, resource map[string]any, extra map[string]any) (*record.Instance, error) {
	inst, err := m.parser.ParseResource(ctx, m.spec.Name, resource, extra)
	if err != nil {
		return nil, err
	}
	return m.GetOrCreateFromInstance(ctx, inst)
}

// GetOrCreateFromResourcesList parses a raw list response, then reconciles
// and persists every element in one transaction.
func (m *Manager) GetOrCreateFromResourcesList(ctx context.Context, list []any, extra map[string]any) ([]*record.Instance, error) {
	instances, err := m.parser.ParseList(ctx, m.spec.Name, list, extra)
	if err != nil {
		return nil, err
	}

	var saved []*record.Instance
	err = m.store.WithTx(ctx, func(tx *store.Tx) error {
		seen := make(map[string]bool, len(instances))
		for _, inst := range instances {
			out, err := m.reconcile(ctx, tx, m.spec, inst)
			if err != nil {
				return err
			}
			if seen[out.StorageID] {
				continue
			}
			seen[out.StorageID] = true
			saved = append(saved, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// reconcile merges an instance with its persisted predecessor (matched by
// remote identity) and saves the result. Embedded reference instances are
// reconciled first, depth-first, so parent fields always hold storage ids by
// the time the parent is written.
func (m *Manager) reconcile(ctx context.Context, tx *store.Tx, spec *schema.EntitySpec, inst *record.Instance) (*record.Instance, error) {
	for key, value := range inst.Fields {
		child, ok := value.(*record.Instance)
		if !ok {
			continue
		}
		childSpec, ok := m.registry.Entity(child.Entity)
		if !ok {
			return nil, fmt.Errorf("embedded instance of unknown entity %q", child.Entity)
		}
		savedChild, err := m.reconcile(ctx, tx, childSpec, child)
		if err != nil {
			return nil, err
		}
		inst.Fields[key] = savedChild.StorageID
	}

	identity, ok := inst.RemoteIdentity(spec.RemoteKeys)
	if ok {
		old, found, err := tx.LookupByRemoteKeys(ctx, spec.Name, identity)
		if err != nil {
			return nil, err
		}
		if found {
			inst.Merge(old)
		}
	} else {
		m.log.Debug("instance has no complete remote identity, persisting as fresh record",
			"entity", spec.Name)
	}

	if inst.StorageID == "" {
		inst.StorageID = m.idGen.Generate()
	}
	if err := tx.Save(ctx, inst, identity); err != nil {
		return nil, err
	}
	return inst, nil
}

// GetByURL resolves a profile URL to a local record, creating an unsaved
// stub carrying only the primary key when the record is not yet synced.
//
// A URL outside the service's domains is an error. Failures further down the
// resolution chain (denied url.getInfo call, wrong object type, malformed
// response) are logged and collapse to (nil, nil): the URL is well-formed
// but does not name a reachable entity of this type.
func (m *Manager) GetByURL(ctx context.Context, rawURL string) (*record.Instance, error) {
	match := urlPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if match == nil {
		return nil, fmt.Errorf("unrecognized URL %q", rawURL)
	}
	slug := match[1]

	id, ok := m.idFromSlug(slug)
	if !ok {
		id, ok = m.resolveRemote(ctx, rawURL)
		if !ok {
			return nil, nil
		}
	}

	inst, found, err := m.store.LookupByRemoteKeys(ctx, m.spec.Name, map[string]any{m.spec.LocalPKField: id})
	if err != nil {
		return nil, err
	}
	if found {
		return inst, nil
	}

	stub := record.New(m.spec.Name)
	stub.Set(m.spec.LocalPKField, id)
	return stub, nil
}

// idFromSlug extracts the numeric id from a slug of the entity's prefixed
// form, e.g. "profile123" for users.
func (m *Manager) idFromSlug(slug string) (int64, bool) {
	if m.spec.SlugPrefix == "" || !strings.HasPrefix(slug, m.spec.SlugPrefix) {
		return 0, false
	}
	digits := slug[len(m.spec.SlugPrefix):]
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// resolveRemote asks the remote service what a vanity URL points at and
// checks the answer names an object of this manager's type.
func (m *Manager) resolveRemote(ctx context.Context, rawURL string) (int64, bool) {
	raw, err := m.transport.Invoke(ctx, "url.getInfo", map[string]string{"url": rawURL})
	if err != nil {
		m.log.Error("url.getInfo call failed",
			"entity", m.spec.Name,
			"url", rawURL,
			"error", err)
		return 0, false
	}

	info, ok := raw.(map[string]any)
	if !ok {
		m.log.Error("url.getInfo returned a non-object response",
			"entity", m.spec.Name,
			"url", rawURL)
		return 0, false
	}

	objType, _ := info["type"].(string)
	if m.spec.ResolveType == "" || objType != m.spec.ResolveType {
		m.log.Error("URL resolves to a different object type",
			"entity", m.spec.Name,
			"url", rawURL,
			"type", objType,
			"expected", m.spec.ResolveType)
		return 0, false
	}

	id, ok := toInt64(info["objectId"])
	if !ok {
		m.log.Error("url.getInfo returned no usable object id",
			"entity", m.spec.Name,
			"url", rawURL)
		return 0, false
	}
	return id, true
}

// Slug returns the entity's vanity path segment for an instance, e.g.
// "profile123".
func (m *Manager) Slug(inst *record.Instance) (string, error) {
	if m.spec.SlugPrefix == "" {
		return "", fmt.Errorf("entity %s has no slug prefix", m.spec.Name)
	}
	pk, ok := inst.Get(m.spec.LocalPKField)
	if !ok || record.IsEmpty(pk) {
		return "", fmt.Errorf("entity %s: instance has no %s value", m.spec.Name, m.spec.LocalPKField)
	}
	return fmt.Sprintf("%s%v", m.spec.SlugPrefix, pk), nil
}

// URL returns the canonical profile URL for an instance.
func (m *Manager) URL(inst *record.Instance) (string, error) {
	slug, err := m.Slug(inst)
	if err != nil {
		return "", err
	}
	return "https://ok.ru/" + slug, nil
}

func toInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
