package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_InsertGet(t *testing.T) {
	a := New[string](2)

	h1 := a.Insert("box")
	h2 := a.Insert("sphere")

	v, ok := a.Get(h1)
	require.True(t, ok)
	assert.Equal(t, "box", v)

	v, ok = a.Get(h2)
	require.True(t, ok)
	assert.Equal(t, "sphere", v)
	assert.Equal(t, 2, a.Len())
}

func TestArena_StaleHandle(t *testing.T) {
	a := New[int](0)

	h := a.Insert(7)
	removed, ok := a.Remove(h)
	require.True(t, ok)
	assert.Equal(t, 7, removed)

	_, ok = a.Get(h)
	assert.False(t, ok, "removed handle must not resolve")

	// the slot is recycled under a new generation
	h2 := a.Insert(9)
	assert.Equal(t, h.Index(), h2.Index())
	assert.NotEqual(t, h, h2)

	_, ok = a.Get(h)
	assert.False(t, ok, "old generation must not resolve the recycled slot")

	v, ok := a.Get(h2)
	require.True(t, ok)
	assert.Equal(t, 9, v)

	_, ok = a.Remove(h)
	assert.False(t, ok)
}

func TestArena_ZeroHandle(t *testing.T) {
	a := New[int](0)
	a.Insert(1)

	var zero Handle
	assert.False(t, zero.Valid())
	_, ok := a.Get(zero)
	assert.False(t, ok)
}

func TestArena_All(t *testing.T) {
	a := New[int](0)
	handles := []Handle{a.Insert(1), a.Insert(2), a.Insert(3)}
	a.Remove(handles[1])

	sum := 0
	count := 0
	for h, v := range a.All() {
		assert.True(t, h.Valid())
		sum += v
		count++
	}

	assert.Equal(t, 2, count)
	assert.Equal(t, 4, sum)
	assert.Equal(t, 2, a.Len())
}

func TestHandle_Less(t *testing.T) {
	a := Handle{index: 1, generation: 4}
	b := Handle{index: 2, generation: 1}
	c := Handle{index: 2, generation: 3}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.False(t, a.Less(a))
}
