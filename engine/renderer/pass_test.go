package renderer_test

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/headless"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func newDevice(t *testing.T) (*renderer.RenderDevice, *headless.HeadlessRenderer) {
	backend := headless.New()
	device := renderer.NewRenderDevice(backend)
	require.NoError(t, device.Initialize("test"))
	return device, backend
}

func TestBeginResetsBoundState(t *testing.T) {
	device, backend := newDevice(t)
	device.RegisterSkin("stone")

	pass, err := device.Begin(0)
	require.NoError(t, err)
	bound, err := pass.BindSkin("stone")
	require.NoError(t, err)
	assert.True(t, bound)
	assert.Equal(t, metadata.SkinID("stone"), pass.CurrentSkinID())
	require.NoError(t, device.End(pass))

	pass, err = device.Begin(0)
	require.NoError(t, err)
	assert.Equal(t, metadata.NoSkin, pass.CurrentSkinID())
	require.NoError(t, device.End(pass))

	var clears int
	for _, cmd := range backend.Commands() {
		if cmd.Kind == headless.COMMAND_CLEAR {
			clears++
		}
	}
	assert.Equal(t, 2, clears)
	assert.Equal(t, uint64(2), device.FrameNumber())
}

func TestBindSkinSkipsTheBoundSkin(t *testing.T) {
	device, backend := newDevice(t)
	device.RegisterSkin("stone")
	pass, err := device.Begin(0)
	require.NoError(t, err)
	defer device.End(pass)

	_, err = pass.BindSkin("stone")
	require.NoError(t, err)
	bound, err := pass.BindSkin("stone")
	require.NoError(t, err)
	assert.False(t, bound)
	assert.Equal(t, []metadata.SkinID{"stone"}, backend.SkinBinds())

	_, err = pass.BindSkin("lava")
	assert.ErrorIs(t, err, core.ErrUnknownSkin)
	assert.Equal(t, metadata.SkinID("stone"), pass.CurrentSkinID())
}

func TestOnlyOnePassAtATime(t *testing.T) {
	device, _ := newDevice(t)
	pass, err := device.Begin(0)
	require.NoError(t, err)

	_, err = device.Begin(0)
	assert.ErrorIs(t, err, core.ErrPassInProgress)

	require.NoError(t, device.End(pass))
	assert.ErrorIs(t, device.End(pass), core.ErrPassNotStarted)
	assert.False(t, pass.Active())
	_, err = pass.BindSkin(metadata.NoSkin)
	assert.ErrorIs(t, err, core.ErrPassNotStarted)
}

func TestTransformStack(t *testing.T) {
	device, _ := newDevice(t)
	pass, err := device.Begin(0)
	require.NoError(t, err)
	defer device.End(pass)

	require.NoError(t, pass.PushTransform(math.NewMat4Translation(math.NewVec3(1, 0, 0))))
	require.NoError(t, pass.PushTransform(math.NewMat4Translation(math.NewVec3(0, 1, 0))))
	assert.Equal(t, 2, pass.Depth())
	assert.True(t, pass.Current().Translation().Compare(math.NewVec3(1, 1, 0), 1e-6))

	require.NoError(t, pass.PopTransform())
	assert.True(t, pass.Current().Translation().Compare(math.NewVec3(1, 0, 0), 1e-6))
	require.NoError(t, pass.PopTransform())
	assert.ErrorIs(t, pass.PopTransform(), core.ErrTransformUnderflow)
	assert.Equal(t, math.NewMat4Identity(), pass.Current())
}

func TestSetModeResetsTransforms(t *testing.T) {
	device, backend := newDevice(t)
	pass, err := device.Begin(0)
	require.NoError(t, err)
	defer device.End(pass)

	assert.Equal(t, metadata.RENDER_MODE_3D, pass.Mode())
	require.NoError(t, pass.PushTransform(math.NewMat4Scale(math.NewVec3(2, 2, 2))))
	require.NoError(t, pass.SetMode(metadata.RENDER_MODE_2D))
	assert.Equal(t, 0, pass.Depth())
	assert.Equal(t, math.NewMat4Identity(), pass.Current())
	assert.Equal(t, metadata.RENDER_MODE_2D, backend.Mode())
}
