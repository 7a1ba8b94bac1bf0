package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
responses:
  users.getInfo:
    response:
      - uid: 1
        name: "Alice"
      - uid: 2
        name: "Bob"
  users.getCurrentUser:
    response:
      uid: 1
      online: true
  group.getInfo:
    denied: "method is not allowed for this application"
`

func TestReplayListResponse(t *testing.T) {
	r, err := ParseReplay([]byte(fixture))
	require.NoError(t, err)

	resp, err := r.Invoke(context.Background(), "users.getInfo", nil)
	require.NoError(t, err)

	list, ok := resp.([]any)
	require.True(t, ok)
	require.Len(t, list, 2)

	first, ok := list[0].(map[string]any)
	require.True(t, ok, "fixture objects decode as map[string]any")
	assert.Equal(t, float64(1), first["uid"], "fixture numbers decode as float64")
	assert.Equal(t, "Alice", first["name"])
}

func TestReplayObjectResponse(t *testing.T) {
	r, err := ParseReplay([]byte(fixture))
	require.NoError(t, err)

	resp, err := r.Invoke(context.Background(), "users.getCurrentUser", nil)
	require.NoError(t, err)

	obj, ok := resp.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, obj["online"])
}

func TestReplayDenied(t *testing.T) {
	r, err := ParseReplay([]byte(fixture))
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), "group.getInfo", nil)
	require.Error(t, err)
	assert.True(t, IsDenied(err))
}

func TestReplayUnknownMethod(t *testing.T) {
	r, err := ParseReplay([]byte(fixture))
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), "users.delete", nil)
	assert.Error(t, err)
}

func TestParseReplayEmpty(t *testing.T) {
	_, err := ParseReplay([]byte("responses: {}"))
	assert.Error(t, err)
}
