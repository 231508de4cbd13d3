package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUKReplacer_Should_Evict_History_Frames_Before_Cache_Frames(t *testing.T) {
	r := NewLRUKReplacer(3, 2)

	// frames 0 and 1 reach two accesses, frame 2 only one.
	r.RecordAccess(0)
	r.RecordAccess(0)
	r.RecordAccess(1)
	r.RecordAccess(1)
	r.RecordAccess(2)

	for i := 0; i < 3; i++ {
		r.SetEvictable(i, true)
	}
	assert.Equal(t, 3, r.Size())

	// frame 2 is the only one still in history and leaves first even though it
	// was touched last.
	v, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	// cache frames leave in order of their most recent access.
	v, ok = r.Evict()
	require.True(t, ok)
	assert.Equal(t, 0, v)

	v, ok = r.Evict()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Evict()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Size())
}

func TestLRUKReplacer_Should_Not_Evict_Pinned_Frames(t *testing.T) {
	r := NewLRUKReplacer(4, 2)

	for i := 0; i < 4; i++ {
		r.RecordAccess(i)
		r.SetEvictable(i, false)
	}

	_, ok := r.Evict()
	assert.False(t, ok)

	r.SetEvictable(3, true)
	v, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRUKReplacer_Should_Refresh_History_Position_On_Access(t *testing.T) {
	r := NewLRUKReplacer(2, 3)

	r.RecordAccess(0)
	r.RecordAccess(1)
	// a second access while below k moves frame 0 behind frame 1.
	r.RecordAccess(0)

	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	v, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestLRUKReplacer_Should_Start_Over_After_Eviction(t *testing.T) {
	r := NewLRUKReplacer(2, 2)

	r.RecordAccess(0)
	r.RecordAccess(0)
	r.SetEvictable(0, true)

	v, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, 0, v)

	// the access history is gone, the frame re-enters through the history
	// list.
	r.RecordAccess(0)
	r.RecordAccess(1)
	r.RecordAccess(1)
	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	v, ok = r.Evict()
	require.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestLRUKReplacer_SetEvictable_Should_Establish_State_For_Unseen_Frames(t *testing.T) {
	r := NewLRUKReplacer(8, 2)

	r.SetEvictable(5, true)
	assert.Equal(t, 1, r.Size())

	r.SetEvictable(5, true)
	assert.Equal(t, 1, r.Size())

	r.SetEvictable(5, false)
	assert.Equal(t, 0, r.Size())
}

func TestLRUKReplacer_Remove_Should_Ignore_Unknown_And_Pinned_Frames(t *testing.T) {
	r := NewLRUKReplacer(8, 2)

	r.Remove(3)
	assert.Equal(t, 0, r.Size())

	r.RecordAccess(1)
	r.SetEvictable(1, false)
	r.Remove(1)

	// still tracked: making it evictable again offers it for eviction.
	r.SetEvictable(1, true)
	v, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestLRUKReplacer_Remove_Should_Drop_Evictable_Frames_Entirely(t *testing.T) {
	r := NewLRUKReplacer(8, 2)

	r.RecordAccess(1)
	r.RecordAccess(1)
	r.SetEvictable(1, true)
	require.Equal(t, 1, r.Size())

	r.Remove(1)
	assert.Equal(t, 0, r.Size())

	_, ok := r.Evict()
	assert.False(t, ok)
}

func TestLRUKReplacer_Should_Panic_On_Out_Of_Range_Frames(t *testing.T) {
	r := NewLRUKReplacer(4, 2)

	assert.Panics(t, func() { r.RecordAccess(4) })
	assert.Panics(t, func() { r.SetEvictable(-1, true) })
	assert.Panics(t, func() { r.Remove(100) })
}

func TestLRUKReplacer_Should_Handle_K_Equal_To_One(t *testing.T) {
	r := NewLRUKReplacer(2, 1)

	// with k == 1 every accessed frame goes straight to the cache list and
	// plain lru order applies.
	r.RecordAccess(0)
	r.RecordAccess(1)
	r.RecordAccess(0)

	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	v, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}
