package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/parcel/engine/math"
)

func TestSystemManagerDrivesEveryRenderer(t *testing.T) {
	device, backend := newDevice(t)
	sm, err := NewSystemManager(device, []RendererConfig{
		{Name: "world", Layout: LAYOUT_LIT, OwnsObjects: true},
		{Name: "ui", Layout: LAYOUT_SPRITE},
	})
	require.NoError(t, err)
	defer sm.Shutdown()

	world, ok := sm.Renderer("world")
	require.True(t, ok)
	ui, ok := sm.Renderer("ui")
	require.True(t, ok)
	assert.True(t, sm.OwnsObjects("world"))
	assert.False(t, sm.OwnsObjects("ui"))

	_, err = world.Add(&leaf{cost: 3 * LitVertexStride, vertices: make([]math.Vertex3D, 3)}, true)
	require.NoError(t, err)
	_, err = ui.Add(&spriteLeaf{vertices: make([]math.Vertex2D, 4)}, false)
	require.NoError(t, err)

	compiled, err := sm.CompileDirty()
	require.NoError(t, err)
	assert.Equal(t, 2, compiled)
	compiled, err = sm.CompileDirty()
	require.NoError(t, err)
	assert.Equal(t, 0, compiled)
	assert.Equal(t, uint64(3*LitVertexStride+4*SpriteVertexStride), sm.MemoryFootprint())

	pass, err := device.Begin(0)
	require.NoError(t, err)
	stats, err := sm.Draw(pass)
	require.NoError(t, err)
	require.NoError(t, device.End(pass))
	assert.Equal(t, uint32(2), stats.DrawCalls)
	assert.Len(t, backend.Draws(), 2)
}

func TestSystemManagerRejectsBadConfig(t *testing.T) {
	device, backend := newDevice(t)

	_, err := NewSystemManager(device, []RendererConfig{{Name: "world", Layout: "voxels"}})
	assert.Error(t, err)

	_, err = NewSystemManager(device, []RendererConfig{
		{Name: "world", Layout: LAYOUT_LIT},
		{Name: "world", Layout: LAYOUT_SPRITE},
	})
	assert.Error(t, err)
	assert.Equal(t, 0, backend.LiveBuffers())
}
