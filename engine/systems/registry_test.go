package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

func TestRegistryIDsAreNeverReused(t *testing.T) {
	r := NewRegistry(nil)
	a, err := r.Add(newLeaf(1, 0), false)
	require.NoError(t, err)
	b, err := r.Add(newLeaf(1, 0), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), a)
	assert.Equal(t, uint32(2), b)

	assert.True(t, r.Remove(b))
	c, err := r.Add(newLeaf(1, 0), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), c)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryRemoveUnknownIsIgnored(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Add(newLeaf(1, 0), false)
	require.NoError(t, err)
	generation := r.Generation()

	assert.False(t, r.Remove(42))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, generation, r.Generation())
}

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry(nil)
	var want []uint32
	for i := 0; i < 5; i++ {
		id, err := r.Add(newLeaf(1, float32(i)), false)
		require.NoError(t, err)
		want = append(want, id)
	}
	r.Remove(want[1])
	want = append(want[:1], want[2:]...)

	var got []uint32
	r.Each(func(id uint32, object metadata.Renderable) bool {
		got = append(got, id)
		return true
	})
	assert.Equal(t, want, got)

	object, ok := r.Get(want[0])
	assert.True(t, ok)
	assert.NotNil(t, object)
	_, ok = r.Get(99)
	assert.False(t, ok)
}

func TestRegistryReleasesOwnedObjects(t *testing.T) {
	var released []string
	r := NewRegistry(nil)
	add := func(name string, owns bool) uint32 {
		id, err := r.Add(&releasable{leaf: newLeaf(1, 0), name: name, log: &released}, owns)
		require.NoError(t, err)
		return id
	}
	add("first", true)
	second := add("second", true)
	add("borrowed", false)
	add("third", true)

	assert.True(t, r.Remove(second))
	assert.Equal(t, []string{"second"}, released)

	r.Destroy()
	r.Destroy()
	assert.Equal(t, []string{"second", "first", "third"}, released)
	assert.Equal(t, 0, r.Len())

	_, err := r.Add(newLeaf(1, 0), false)
	assert.ErrorIs(t, err, core.ErrRendererDestroyed)
}

func TestRegistryRejectsInvalidRenderables(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Add(nil, false)
	assert.ErrorIs(t, err, core.ErrNilRenderable)

	_, err = r.Add(&conflicting{leaf: newLeaf(1, 0)}, false)
	assert.ErrorIs(t, err, core.ErrConflictingGeometry)

	_, err = r.Add(newGroup(newLeaf(1, 0), newGroup(&conflicting{leaf: newLeaf(1, 0)})), false)
	assert.ErrorIs(t, err, core.ErrConflictingGeometry)

	cycle := newGroup()
	cycle.children = append(cycle.children, cycle)
	_, err = r.Add(cycle, false)
	assert.ErrorIs(t, err, core.ErrTreeTooDeep)

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, uint32(0), r.ids.Last())
}
