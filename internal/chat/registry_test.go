package chat

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	c1 := newFakeChannel("c1")
	c2 := newFakeChannel("c2")

	r.Register("alice", c1)
	r.Register("alice", c2)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, c2, got)
	assert.Equal(t, 1, r.Len())

	select {
	case <-c1.Done():
		t.Fatal("superseded channel must not be closed by the registry")
	default:
	}
}

func TestRegistry_UnregisterTieBreak(t *testing.T) {
	r := NewRegistry()
	c1 := newFakeChannel("c1")
	c2 := newFakeChannel("c2")

	r.Register("alice", c1)
	r.Register("alice", c2)

	assert.False(t, r.Unregister("alice", c1), "stale unregister must be a no-op")
	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, c2, got)

	assert.True(t, r.Unregister("alice", c2))
	_, ok = r.Lookup("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_UnregisterUnknown(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Unregister("ghost", newFakeChannel("c")))
}

func TestRegistry_SnapshotAndHandles(t *testing.T) {
	r := NewRegistry()
	for _, h := range []string{"carol", "alice", "bob"} {
		r.Register(h, newFakeChannel(h))
	}

	snap := r.Snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, r.Handles())

	// later changes do not leak into an earlier snapshot
	r.Register("dave", newFakeChannel("dave"))
	assert.Len(t, snap, 3)
}

func TestRegistry_ConcurrentRegisterSameHandle(t *testing.T) {
	r := NewRegistry()
	c1 := newFakeChannel("c1")
	c2 := newFakeChannel("c2")

	var wg sync.WaitGroup
	for _, c := range []*fakeChannel{c1, c2} {
		wg.Add(1)
		go func(c *fakeChannel) {
			defer wg.Done()
			r.Register("alice", c)
		}(c)
	}
	wg.Wait()

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.True(t, got == Channel(c1) || got == Channel(c2))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentJoinLeaveStress(t *testing.T) {
	r := NewRegistry()
	const workers = 16
	const rounds = 200

	stayed := make([]*fakeChannel, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(int64(i)))
			for j := 0; j < rounds; j++ {
				c := newFakeChannel(fmt.Sprintf("w%d-%d", i, j))
				r.Register("alice", c)
				if rnd.Intn(4) == 0 {
					time.Sleep(time.Duration(rnd.Intn(50)) * time.Microsecond)
				}
				r.Unregister("alice", c)
			}
			// one final registration per worker that is never unregistered
			c := newFakeChannel(fmt.Sprintf("w%d-final", i))
			stayed[i] = c
			r.Register(fmt.Sprintf("user-%d", i), c)
		}(i)
	}
	wg.Wait()

	// the most recent registration is always removed by its own owner
	_, ok := r.Lookup("alice")
	assert.False(t, ok)
	assert.Equal(t, workers, r.Len())
	for i, c := range stayed {
		got, ok := r.Lookup(fmt.Sprintf("user-%d", i))
		require.True(t, ok)
		assert.Same(t, c, got)
	}
}
