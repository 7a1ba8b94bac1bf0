package schema

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRegistryBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		entity: User: {
			remote_pk: "uid"
			methods_namespace: "users"
			methods: get: "getInfo"
			slug_prefix: "profile"
			resolve_type: "USER"

			fields: {
				id:         "int"
				name:       "text"
				registered: "datetime"
			}
		}
	`)
	require.NoError(t, v.Err())

	reg, err := CompileRegistry(v)
	require.NoError(t, err)

	user, ok := reg.Entity("User")
	require.True(t, ok)

	assert.Equal(t, "uid", user.RemotePKField)
	assert.Equal(t, "id", user.LocalPKField, "local_pk defaults to id")
	assert.Equal(t, []string{"id"}, user.RemoteKeys, "remote_keys defaults to local pk")
	assert.Equal(t, "profile", user.SlugPrefix)
	assert.Equal(t, "USER", user.ResolveType)
	assert.Equal(t, "date", user.TimelineCutField)

	method, ok := user.Method("get")
	require.True(t, ok)
	assert.Equal(t, "users.getInfo", method, "namespace prefixes the remote method")

	name, ok := user.Field("NaMe")
	require.True(t, ok, "field lookup folds case")
	assert.Equal(t, TypeText, name.Type)
}

func TestCompileRegistryReferenceAndTimeline(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		entity: {
			Group: {
				fields: id: "int"
			}
			Post: {
				remote_keys: ["id", "owner_id"]
				timeline: {
					cut_field:      "created"
					force_ordering: true
				}
				fields: {
					id:       "int"
					owner_id: "int"
					created:  "datetime"
					group:    { type: "ref", entity: "Group" }
					tags:     "list"
				}
			}
		}
	`)
	require.NoError(t, v.Err())

	reg, err := CompileRegistry(v)
	require.NoError(t, err)

	post, ok := reg.Entity("Post")
	require.True(t, ok)

	assert.Equal(t, []string{"id", "owner_id"}, post.RemoteKeys)
	assert.Equal(t, "created", post.TimelineCutField)
	assert.True(t, post.TimelineForceOrdering)

	group, ok := post.Field("group")
	require.True(t, ok)
	assert.Equal(t, TypeReference, group.Type)
	assert.Equal(t, "Group", group.RefEntity)
}

func TestCompileRegistryErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "no entities",
			src:  `other: 1`,
		},
		{
			name: "no fields",
			src:  `entity: User: { remote_pk: "uid" }`,
		},
		{
			name: "unknown field type",
			src:  `entity: User: { fields: id: "uuid" }`,
		},
		{
			name: "reference to unknown entity",
			src:  `entity: User: { fields: { id: "int", group: { type: "ref", entity: "Group" } } }`,
		},
		{
			name: "remote key not a field",
			src:  `entity: User: { remote_keys: ["uid"], fields: id: "int" }`,
		},
	}

	ctx := cuecontext.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ctx.CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileRegistry(v)
			assert.Error(t, err)
		})
	}
}

func TestCompileEntityFieldStructWithoutType(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`entity: User: { fields: group: { entity: "Group" } }`)
	require.NoError(t, v.Err())

	_, err := CompileRegistry(v)
	require.Error(t, err)

	compileErr, ok := err.(*CompileError)
	require.True(t, ok, "error should be *CompileError")
	assert.Contains(t, compileErr.Field, "group")
}
