package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileRegistry parses a CUE value holding entity declarations into a
// Registry. Uses the CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should contain an "entity" struct keyed by entity name:
//
//	entity: User: {
//		remote_pk: "uid"
//		methods: get: "getInfo"
//		methods_namespace: "users"
//		fields: {
//			id:   "int"
//			name: "text"
//		}
//	}
func CompileRegistry(v cue.Value) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entityVal := v.LookupPath(cue.ParsePath("entity"))
	if !entityVal.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "no entity declarations found",
			Pos:     v.Pos(),
		}
	}

	iter, err := entityVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []*EntitySpec
	for iter.Next() {
		spec, err := CompileEntity(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return NewRegistry(specs...)
}

// CompileEntity parses one CUE entity declaration into an EntitySpec.
// Defaults are not applied here; NewRegistry does that.
func CompileEntity(name string, v cue.Value) (*EntitySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &EntitySpec{Name: name}

	var err error
	if spec.RemotePKField, err = optionalString(v, "remote_pk"); err != nil {
		return nil, err
	}
	if spec.LocalPKField, err = optionalString(v, "local_pk"); err != nil {
		return nil, err
	}
	if spec.MethodsNamespace, err = optionalString(v, "methods_namespace"); err != nil {
		return nil, err
	}
	if spec.MethodsAccessTag, err = optionalString(v, "methods_access_tag"); err != nil {
		return nil, err
	}
	if spec.SlugPrefix, err = optionalString(v, "slug_prefix"); err != nil {
		return nil, err
	}
	if spec.ResolveType, err = optionalString(v, "resolve_type"); err != nil {
		return nil, err
	}

	if spec.RemoteKeys, err = parseRemoteKeys(v); err != nil {
		return nil, err
	}
	if spec.Methods, err = parseMethods(v); err != nil {
		return nil, err
	}
	if err = parseTimeline(v, spec); err != nil {
		return nil, err
	}

	// Fields are required; an entity without fields cannot parse anything.
	spec.Fields, err = parseFields(v)
	if err != nil {
		return nil, err
	}
	if len(spec.Fields) == 0 {
		return nil, &CompileError{
			Field:   "fields",
			Message: fmt.Sprintf("entity %s declares no fields", name),
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// parseFields extracts the fields table. Each field is either a bare type
// name string or a struct with type and, for references, the target entity:
//
//	fields: {
//		name:  "text"
//		group: { type: "ref", entity: "Group" }
//	}
func parseFields(v cue.Value) (map[string]FieldSpec, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	fields := make(map[string]FieldSpec)
	for iter.Next() {
		name := iter.Label()
		fv := iter.Value()

		spec := FieldSpec{Name: name}

		// Bare string form: name: "text"
		if typeName, err := fv.String(); err == nil {
			spec.Type = FieldType(typeName)
			fields[name] = spec
			continue
		}

		// Struct form: name: { type: "ref", entity: "Group" }
		typeVal := fv.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &CompileError{
				Field:   "fields." + name,
				Message: "field must be a type name string or a struct with a type",
				Pos:     fv.Pos(),
			}
		}
		typeName, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Type = FieldType(typeName)

		entityVal := fv.LookupPath(cue.ParsePath("entity"))
		if entityVal.Exists() {
			if spec.RefEntity, err = entityVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}

		fields[name] = spec
	}

	return fields, nil
}

// parseMethods extracts the logical-to-remote method name table.
func parseMethods(v cue.Value) (map[string]string, error) {
	methodsVal := v.LookupPath(cue.ParsePath("methods"))
	if !methodsVal.Exists() {
		return nil, nil
	}

	iter, err := methodsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	methods := make(map[string]string)
	for iter.Next() {
		remote, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		methods[iter.Label()] = remote
	}

	return methods, nil
}

// parseRemoteKeys extracts the remote identity field set.
func parseRemoteKeys(v cue.Value) ([]string, error) {
	keysVal := v.LookupPath(cue.ParsePath("remote_keys"))
	if !keysVal.Exists() {
		return nil, nil
	}

	iter, err := keysVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var keys []string
	for iter.Next() {
		key, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// parseTimeline extracts the optional timeline block.
func parseTimeline(v cue.Value, spec *EntitySpec) error {
	tlVal := v.LookupPath(cue.ParsePath("timeline"))
	if !tlVal.Exists() {
		return nil
	}

	cutField, err := optionalString(tlVal, "cut_field")
	if err != nil {
		return err
	}
	spec.TimelineCutField = cutField

	forceVal := tlVal.LookupPath(cue.ParsePath("force_ordering"))
	if forceVal.Exists() {
		force, err := forceVal.Bool()
		if err != nil {
			return formatCUEError(err)
		}
		spec.TimelineForceOrdering = force
	}

	return nil
}

// optionalString reads a string field that may be absent.
func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError reports a structural problem in an entity declaration.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
