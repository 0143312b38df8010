package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_FirstAndLastConnection(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Register("alice", "c1"))
	assert.False(t, r.Register("alice", "c2"))
	assert.True(t, r.IsOnline("alice"))
	assert.Equal(t, 2, r.Connections("alice"))

	assert.False(t, r.Unregister("alice", "c1"))
	assert.True(t, r.IsOnline("alice"))
	assert.True(t, r.Unregister("alice", "c2"))
	assert.False(t, r.IsOnline("alice"))
	assert.Equal(t, 0, r.OnlineCount())
}

func TestRegistry_UnregisterUnknown(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Unregister("ghost", "c1"))

	r.Register("alice", "c1")
	assert.False(t, r.Unregister("alice", "nope"))
	assert.True(t, r.Unregister("alice", "c1"))
	assert.False(t, r.Unregister("alice", "c1"))
	assert.False(t, r.IsOnline("alice"))
}

func TestRegistry_SnapshotSortedAndExcludes(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Snapshot(""))

	r.Register("carol", "c3")
	r.Register("alice", "c1")
	r.Register("bob", "c2")

	assert.Equal(t, []string{"alice", "bob", "carol"}, r.Snapshot(""))
	assert.Equal(t, []string{"alice", "carol"}, r.Snapshot("bob"))
}

func TestRegistry_ConcurrentCloseEmitsOneOffline(t *testing.T) {
	for round := 0; round < 50; round++ {
		r := NewRegistry()
		const n = 8
		for i := 0; i < n; i++ {
			r.Register("alice", fmt.Sprintf("c%d", i))
		}

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			offlines int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if r.Unregister("alice", fmt.Sprintf("c%d", i)) {
					mu.Lock()
					offlines++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, offlines)
	}
}
