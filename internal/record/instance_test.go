package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAdoptsStorageIdentity(t *testing.T) {
	old := New("User")
	old.StorageID = "existing-1"
	old.Set("id", int64(42))

	fresh := New("User")
	fresh.Set("id", int64(42))

	fresh.Merge(old)

	assert.Equal(t, "existing-1", fresh.StorageID)
}

func TestMergeBackfillsEmptyNewValues(t *testing.T) {
	old := New("User")
	old.StorageID = "existing-1"
	old.Set("name", "Alice")
	old.Set("city", "Berlin")

	fresh := New("User")
	fresh.Set("name", "") // new parse lost the name
	// city absent entirely

	fresh.Merge(old)

	name, _ := fresh.Get("name")
	city, _ := fresh.Get("city")
	assert.Equal(t, "Alice", name, "empty new value is backfilled")
	assert.Equal(t, "Berlin", city, "missing new value is backfilled")
}

func TestMergeNewNonEmptyWins(t *testing.T) {
	old := New("User")
	old.Set("name", "Alice")
	old.Set("age", int64(30))

	fresh := New("User")
	fresh.Set("name", "Alicia")
	fresh.Set("age", int64(0)) // zero is a deliberate value, not empty

	fresh.Merge(old)

	name, _ := fresh.Get("name")
	age, _ := fresh.Get("age")
	assert.Equal(t, "Alicia", name)
	assert.Equal(t, int64(0), age, "numeric zero is not downgraded to the old value")
}

func TestMergeSkipsEmptyOldValues(t *testing.T) {
	old := New("User")
	old.Set("name", "")
	old.Set("bio", nil)

	fresh := New("User")

	fresh.Merge(old)

	_, hasName := fresh.Get("name")
	_, hasBio := fresh.Get("bio")
	assert.False(t, hasName, "empty old values are not copied")
	assert.False(t, hasBio)
}

func TestRemoteIdentity(t *testing.T) {
	inst := New("Post")
	inst.Set("id", int64(7))
	inst.Set("owner_id", int64(3))

	identity, ok := inst.RemoteIdentity([]string{"id", "owner_id"})
	require.True(t, ok)
	assert.Equal(t, map[string]any{"id": int64(7), "owner_id": int64(3)}, identity)
}

func TestRemoteIdentityIncomplete(t *testing.T) {
	inst := New("Post")
	inst.Set("id", int64(7))

	_, ok := inst.RemoteIdentity([]string{"id", "owner_id"})
	assert.False(t, ok, "missing key value disables reconciliation")

	inst.Set("owner_id", nil)
	_, ok = inst.RemoteIdentity([]string{"id", "owner_id"})
	assert.False(t, ok, "empty key value disables reconciliation")

	_, ok = inst.RemoteIdentity(nil)
	assert.False(t, ok, "empty key set disables reconciliation")
}

func TestInstanceTime(t *testing.T) {
	inst := New("Post")

	_, ok := inst.Time("date")
	assert.False(t, ok)

	inst.Set("date", "2020-01-01")
	_, ok = inst.Time("date")
	assert.False(t, ok, "non-time value is not a usable date")

	stamp := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	inst.Set("date", stamp)
	got, ok := inst.Time("date")
	require.True(t, ok)
	assert.True(t, got.Equal(stamp))
}

func TestCloneIsIndependent(t *testing.T) {
	inst := New("User")
	inst.StorageID = "s1"
	inst.Set("name", "Alice")

	dup := inst.Clone()
	dup.Set("name", "Bob")

	name, _ := inst.Get("name")
	assert.Equal(t, "Alice", name)
	assert.Equal(t, "s1", dup.StorageID)
}
