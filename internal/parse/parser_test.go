package parse

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okgraph/okgraph/internal/record"
	"github.com/okgraph/okgraph/internal/testutil"
)

// fakeResolver resolves reference scalars from a fixed table.
type fakeResolver struct {
	refs map[string]string // "entity/key" -> storage id
	err  error
}

func (f *fakeResolver) ResolveReference(_ context.Context, entity string, key any) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	id, ok := f.refs[fmt.Sprintf("%s/%v", entity, key)]
	return id, ok, nil
}

func TestParseResponseObject(t *testing.T) {
	p := NewParser(testutil.Registry(t), nil, nil)

	instances, err := p.ParseResponse(context.Background(), "User", map[string]any{
		"uid":  float64(42),
		"name": "Alice",
	}, nil)
	require.NoError(t, err)
	require.Len(t, instances, 1)

	id, _ := instances[0].Get("id")
	name, _ := instances[0].Get("name")
	assert.Equal(t, int64(42), id, "remote pk is renamed to the local pk field")
	assert.Equal(t, "Alice", name)
}

func TestParseResponseNormalizesList(t *testing.T) {
	p := NewParser(testutil.Registry(t), nil, nil)

	// A leading count sentinel and a singleton-wrapped detail row.
	response := []any{
		float64(5),
		map[string]any{"id": float64(1)},
		[]any{map[string]any{"id": float64(2)}},
	}

	instances, err := p.ParseResponse(context.Background(), "Post", response, nil)
	require.NoError(t, err)
	require.Len(t, instances, 2)

	id0, _ := instances[0].Get("id")
	id1, _ := instances[1].Get("id")
	assert.Equal(t, int64(1), id0)
	assert.Equal(t, int64(2), id1)
}

func TestParseResponseMalformedShape(t *testing.T) {
	p := NewParser(testutil.Registry(t), nil, nil)

	_, err := p.ParseResponse(context.Background(), "User", "not a resource", nil)
	require.Error(t, err)
	assert.True(t, IsContentError(err))
}

func TestParseListMalformedElementAbortsBatch(t *testing.T) {
	p := NewParser(testutil.Registry(t), nil, nil)

	_, err := p.ParseList(context.Background(), "Post", []any{
		map[string]any{"id": float64(1)},
		"oops",
	}, nil)
	require.Error(t, err)
	assert.True(t, IsContentError(err), "one malformed element invalidates the batch")
}

func TestParseResourceUnknownKeyDropped(t *testing.T) {
	p := NewParser(testutil.Registry(t), nil, nil)

	inst, err := p.ParseResource(context.Background(), "User", map[string]any{
		"uid":          float64(1),
		"shoe_size":    float64(44),
		"name":         "Bob",
		"CurrentState": "online",
	}, nil)
	require.NoError(t, err)

	_, hasShoe := inst.Get("shoe_size")
	assert.False(t, hasShoe)
	name, _ := inst.Get("name")
	assert.Equal(t, "Bob", name, "other fields still set")
}

func TestParseResourceExtraFieldsStampedFirst(t *testing.T) {
	p := NewParser(testutil.Registry(t), nil, nil)

	fetched := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)
	inst, err := p.ParseResource(context.Background(), "Post", map[string]any{
		"id":   float64(1),
		"date": "2020-03-01T12:30:45",
	}, map[string]any{
		"fetched": fetched,
		"date":    fetched, // parsed remote field must overwrite the stamp
	})
	require.NoError(t, err)

	got, ok := inst.Time("fetched")
	require.True(t, ok)
	assert.True(t, got.Equal(fetched))

	date, ok := inst.Time("date")
	require.True(t, ok)
	assert.Equal(t, 45, date.Second(), "remote field overwrote the stamped default")
}

func TestParseReferenceEmbedded(t *testing.T) {
	p := NewParser(testutil.Registry(t), nil, nil)

	inst, err := p.ParseResource(context.Background(), "User", map[string]any{
		"uid":   float64(1),
		"group": map[string]any{"id": float64(9), "name": "golfers"},
	}, nil)
	require.NoError(t, err)

	v, ok := inst.Get("group")
	require.True(t, ok)
	child, ok := v.(*record.Instance)
	require.True(t, ok, "nested object parses into the related entity")
	assert.Equal(t, "Group", child.Entity)

	name, _ := child.Get("name")
	assert.Equal(t, "golfers", name)
}

func TestParseReferenceScalarResolved(t *testing.T) {
	resolver := &fakeResolver{refs: map[string]string{"Group/9": "stor-group-9"}}
	p := NewParser(testutil.Registry(t), resolver, nil)

	inst, err := p.ParseResource(context.Background(), "User", map[string]any{
		"uid":   float64(1),
		"group": float64(9),
	}, nil)
	require.NoError(t, err)

	v, _ := inst.Get("group")
	assert.Equal(t, "stor-group-9", v)
}

func TestParseReferenceScalarMissKeepsRawID(t *testing.T) {
	p := NewParser(testutil.Registry(t), &fakeResolver{}, nil)

	inst, err := p.ParseResource(context.Background(), "User", map[string]any{
		"uid":   float64(1),
		"group": float64(9),
	}, nil)
	require.NoError(t, err)

	_, hasGroup := inst.Get("group")
	assert.False(t, hasGroup)

	raw, ok := inst.Get("group_id")
	require.True(t, ok, "remote id survives under the raw-identifier field")
	assert.Equal(t, float64(9), raw)
}

func TestParseReferenceLookupErrorFallsBack(t *testing.T) {
	p := NewParser(testutil.Registry(t), &fakeResolver{err: fmt.Errorf("db closed")}, nil)

	inst, err := p.ParseResource(context.Background(), "User", map[string]any{
		"uid":   float64(1),
		"group": float64(9),
	}, nil)
	require.NoError(t, err, "a failed lookup never fails the parse")

	raw, ok := inst.Get("group_id")
	require.True(t, ok)
	assert.Equal(t, float64(9), raw)
}

func TestParseListGolden(t *testing.T) {
	p := NewParser(testutil.Registry(t), nil, nil)

	response := []any{
		float64(2),
		map[string]any{
			"ID":    float64(101),
			"Text":  "hello <world>",
			"Date":  "2020-03-01T12:30:45",
			"Likes": "17",
			"Tags":  []any{"a", "b"},
		},
		[]any{map[string]any{
			"id":    float64(102),
			"text":  false,
			"date":  float64(1583064000),
			"likes": float64(0),
		}},
	}
	extra := map[string]any{
		"fetched": time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	instances, err := p.ParseList(context.Background(), "Post", response, extra)
	require.NoError(t, err)

	var buf bytes.Buffer
	for _, inst := range instances {
		line, err := record.MarshalCanonical(map[string]any{
			"entity":     inst.Entity,
			"storage_id": inst.StorageID,
			"fields":     inst.Fields,
		})
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteByte('\n')
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "post_list", buf.Bytes())
}
