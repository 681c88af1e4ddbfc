package sessions

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSessionKey_CaseInsensitive(t *testing.T) {
	assert.Equal(t, GetSessionKey("Jellyfin Web", "ABC123"), GetSessionKey("jellyfin web", "abc123"))
}

func TestRegistry_InsertIfAbsent_ConcurrentCallersGetSameSession(t *testing.T) {
	r := newRegistry()
	key := GetSessionKey("Web", "device-1")

	const goroutines = 32
	results := make([]*Session, goroutines)

	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			results[i] = r.insertIfAbsent(key, &Session{Id: "candidate", DeviceId: "device-1"})
		}(i)
	}
	start.Done()
	wg.Wait()

	first := results[0]
	require.NotNil(t, first)
	for _, s := range results {
		assert.Same(t, first, s)
	}
	assert.Equal(t, 1, r.count())
}

func TestRegistry_RemoveClearsBothIndexes(t *testing.T) {
	r := newRegistry()
	key := GetSessionKey("Web", "device-1")
	session := r.insertIfAbsent(key, &Session{Id: "s1", Client: "Web", DeviceId: "device-1"})

	removed := r.remove(session.Id)
	require.NotNil(t, removed)
	assert.Nil(t, r.get(key))
	assert.Nil(t, r.getById(session.Id))
	assert.Equal(t, 0, r.count())
}

func TestRegistry_Remove_UnknownIdIsNoop(t *testing.T) {
	r := newRegistry()
	assert.Nil(t, r.remove("missing"))
}

func TestRegistry_Snapshot_OrderedByLastActivityDescending(t *testing.T) {
	r := newRegistry()
	oldest := r.insertIfAbsent("a", &Session{Id: "a"})
	middle := r.insertIfAbsent("b", &Session{Id: "b"})
	newest := r.insertIfAbsent("c", &Session{Id: "c"})

	oldest.SetLastActivityDate(fixedTime(1))
	middle.SetLastActivityDate(fixedTime(2))
	newest.SetLastActivityDate(fixedTime(3))

	snapshot := r.snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "c", snapshot[0].Id)
	assert.Equal(t, "b", snapshot[1].Id)
	assert.Equal(t, "a", snapshot[2].Id)
}
