package headless

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func TestMapWriteUnmap(t *testing.T) {
	hr := New()
	buffer, err := hr.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_VERTEX, 0)
	require.NoError(t, err)
	require.NoError(t, hr.RenderBufferResize(buffer, 8))

	view, err := hr.RenderBufferMapMemory(buffer, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, cap(view))
	copy(view, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	_, err = hr.RenderBufferMapMemory(buffer, 0, 8)
	assert.ErrorIs(t, err, core.ErrInvalidBuffer)
	assert.ErrorIs(t, hr.RenderBufferResize(buffer, 16), core.ErrInvalidBuffer)

	require.NoError(t, hr.RenderBufferUnmapMemory(buffer, 0, 8))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, hr.BufferData(buffer))
}

func TestMapOutOfBounds(t *testing.T) {
	hr := New()
	buffer, err := hr.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_INDEX, 4)
	require.NoError(t, err)
	_, err = hr.RenderBufferMapMemory(buffer, 2, 4)
	assert.ErrorIs(t, err, core.ErrBufferOverflow)
}

func TestUnmapReportsCorruption(t *testing.T) {
	hr := New()
	buffer, err := hr.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_VERTEX, 4)
	require.NoError(t, err)

	assert.ErrorIs(t, hr.RenderBufferUnmapMemory(buffer, 0, 4), core.ErrBufferCorrupted)

	_, err = hr.RenderBufferMapMemory(buffer, 0, 4)
	require.NoError(t, err)
	cause := errors.New("bit flip")
	hr.FailNextUnmap(cause)
	err = hr.RenderBufferUnmapMemory(buffer, 0, 4)
	assert.ErrorIs(t, err, core.ErrBufferCorrupted)
	assert.ErrorIs(t, err, cause)

	_, err = hr.RenderBufferMapMemory(buffer, 0, 4)
	require.NoError(t, err)
	assert.ErrorIs(t, hr.RenderBufferUnmapMemory(buffer, 0, 2), core.ErrBufferCorrupted)
}

func TestCommandsAreRecordedInsideFrames(t *testing.T) {
	hr := New()
	assert.ErrorIs(t, hr.Draw(metadata.PRIMITIVE_TYPE_LINE, 0, 2), core.ErrPassNotStarted)

	require.NoError(t, hr.BeginFrame(0))
	require.NoError(t, hr.BindSkin("moss"))
	require.NoError(t, hr.Draw(metadata.PRIMITIVE_TYPE_LINE, 0, 2))
	require.NoError(t, hr.DrawIndexed(6, 3))
	hr.FailNextDraw(errors.New("boom"))
	assert.Error(t, hr.Draw(metadata.PRIMITIVE_TYPE_POINT, 0, 1))
	require.NoError(t, hr.EndFrame(0))

	draws := hr.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, COMMAND_DRAW, draws[0].Kind)
	assert.Equal(t, metadata.PRIMITIVE_TYPE_LINE, draws[0].Topology)
	assert.Equal(t, COMMAND_DRAW_INDEXED, draws[1].Kind)
	assert.Equal(t, uint32(6), draws[1].First)
	assert.Equal(t, uint64(1), draws[1].Frame)
	assert.Equal(t, []metadata.SkinID{"moss"}, hr.SkinBinds())

	hr.ResetCommands()
	assert.Empty(t, hr.Commands())
}

func TestDestroyForgetsBuffers(t *testing.T) {
	hr := New()
	buffer, err := hr.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_VERTEX, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, hr.LiveBuffers())
	hr.RenderBufferDestroy(buffer)
	assert.Equal(t, 0, hr.LiveBuffers())
	assert.ErrorIs(t, hr.RenderBufferBind(buffer, 0), core.ErrInvalidBuffer)
}
