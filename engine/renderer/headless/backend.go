package headless

import (
	"fmt"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

type headlessBuffer struct {
	data      []byte
	mapped    bool
	mapOffset uint64
	mapSize   uint64
	bound     bool
}

// HeadlessRenderer is a backend keeping buffers in host memory and recording
// every command instead of submitting it. It is the default backend when no
// GPU is available and the double used by tests; failures can be injected
// with the FailNext* methods.
type HeadlessRenderer struct {
	FrameNumber uint64

	initialized bool
	inFrame     bool
	mode        metadata.RenderMode
	buffers     map[*metadata.RenderBuffer]*headlessBuffer
	commands    []Command

	failNextUnmap error
	failNextBind  error
	failNextDraw  error
}

func New() *HeadlessRenderer {
	return &HeadlessRenderer{
		buffers: make(map[*metadata.RenderBuffer]*headlessBuffer),
	}
}

func (hr *HeadlessRenderer) Initialize(config *metadata.RendererBackendConfig) error {
	hr.initialized = true
	core.LogInfo("Headless renderer backend initialized for '%s'.", config.ApplicationName)
	return nil
}

func (hr *HeadlessRenderer) Shutdown() error {
	if len(hr.buffers) > 0 {
		core.LogWarn("Headless renderer shut down with %d live buffers.", len(hr.buffers))
	}
	hr.initialized = false
	return nil
}

func (hr *HeadlessRenderer) BeginFrame(deltaTime float64) error {
	if hr.inFrame {
		return fmt.Errorf("begin frame called twice: %w", core.ErrPassInProgress)
	}
	hr.inFrame = true
	hr.FrameNumber++
	return nil
}

func (hr *HeadlessRenderer) EndFrame(deltaTime float64) error {
	if !hr.inFrame {
		return fmt.Errorf("end frame without begin: %w", core.ErrPassNotStarted)
	}
	hr.inFrame = false
	return nil
}

func (hr *HeadlessRenderer) Clear() error {
	return hr.record(Command{Kind: COMMAND_CLEAR})
}

func (hr *HeadlessRenderer) SetMode(mode metadata.RenderMode) error {
	hr.mode = mode
	return hr.record(Command{Kind: COMMAND_SET_MODE, Mode: mode})
}

func (hr *HeadlessRenderer) RenderBufferCreate(renderbufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error) {
	buffer := &metadata.RenderBuffer{
		RenderBufferType: renderbufferType,
		TotalSize:        totalSize,
	}
	internal := &headlessBuffer{data: make([]byte, totalSize)}
	buffer.InternalData = internal
	hr.buffers[buffer] = internal
	return buffer, nil
}

func (hr *HeadlessRenderer) RenderBufferDestroy(buffer *metadata.RenderBuffer) {
	if buffer == nil {
		return
	}
	delete(hr.buffers, buffer)
	buffer.InternalData = nil
	buffer.TotalSize = 0
}

func (hr *HeadlessRenderer) RenderBufferResize(buffer *metadata.RenderBuffer, newTotalSize uint64) error {
	internal, err := hr.lookup(buffer)
	if err != nil {
		return err
	}
	if internal.mapped {
		return fmt.Errorf("cannot resize a mapped %s buffer: %w", buffer.RenderBufferType, core.ErrInvalidBuffer)
	}
	// Contents are not preserved; every compile rewrites the whole buffer.
	internal.data = make([]byte, newTotalSize)
	buffer.TotalSize = newTotalSize
	return nil
}

func (hr *HeadlessRenderer) RenderBufferMapMemory(buffer *metadata.RenderBuffer, offset, size uint64) ([]byte, error) {
	internal, err := hr.lookup(buffer)
	if err != nil {
		return nil, err
	}
	if internal.mapped {
		return nil, fmt.Errorf("%s buffer is already mapped: %w", buffer.RenderBufferType, core.ErrInvalidBuffer)
	}
	if offset+size > uint64(len(internal.data)) {
		return nil, fmt.Errorf("map [%d, %d) exceeds %d bytes: %w", offset, offset+size, len(internal.data), core.ErrBufferOverflow)
	}
	internal.mapped = true
	internal.mapOffset = offset
	internal.mapSize = size
	// The capacity is clipped so that appends cannot alias past the mapped region.
	return internal.data[offset : offset+size : offset+size], nil
}

func (hr *HeadlessRenderer) RenderBufferUnmapMemory(buffer *metadata.RenderBuffer, offset, size uint64) error {
	internal, err := hr.lookup(buffer)
	if err != nil {
		return err
	}
	if !internal.mapped {
		return fmt.Errorf("%s buffer is not mapped: %w", buffer.RenderBufferType, core.ErrBufferCorrupted)
	}
	internal.mapped = false
	if hr.failNextUnmap != nil {
		injected := hr.failNextUnmap
		hr.failNextUnmap = nil
		return fmt.Errorf("%w: %w", core.ErrBufferCorrupted, injected)
	}
	if offset != internal.mapOffset || size != internal.mapSize || uint64(len(internal.data)) != buffer.TotalSize {
		return fmt.Errorf("unmap of [%d, %d) does not match the mapped [%d, %d) of %d bytes: %w",
			offset, offset+size, internal.mapOffset, internal.mapOffset+internal.mapSize, buffer.TotalSize, core.ErrBufferCorrupted)
	}
	return nil
}

func (hr *HeadlessRenderer) RenderBufferBind(buffer *metadata.RenderBuffer, offset uint64) error {
	internal, err := hr.lookup(buffer)
	if err != nil {
		return err
	}
	if hr.failNextBind != nil {
		injected := hr.failNextBind
		hr.failNextBind = nil
		return injected
	}
	if internal.mapped {
		return fmt.Errorf("cannot bind a mapped %s buffer: %w", buffer.RenderBufferType, core.ErrInvalidBuffer)
	}
	internal.bound = true
	return hr.record(Command{Kind: COMMAND_BIND_BUFFER, Buffer: buffer.RenderBufferType, First: uint32(offset)})
}

func (hr *HeadlessRenderer) RenderBufferUnbind(buffer *metadata.RenderBuffer) error {
	internal, err := hr.lookup(buffer)
	if err != nil {
		return err
	}
	internal.bound = false
	return hr.record(Command{Kind: COMMAND_UNBIND_BUFFER, Buffer: buffer.RenderBufferType})
}

func (hr *HeadlessRenderer) SetTransform(model math.Mat4) error {
	return hr.record(Command{Kind: COMMAND_SET_TRANSFORM, Transform: model})
}

func (hr *HeadlessRenderer) BindSkin(id metadata.SkinID) error {
	return hr.record(Command{Kind: COMMAND_BIND_SKIN, Skin: id})
}

func (hr *HeadlessRenderer) Draw(topology metadata.PrimitiveType, firstVertex, vertexCount uint32) error {
	if err := hr.takeDrawFailure(); err != nil {
		return err
	}
	return hr.record(Command{Kind: COMMAND_DRAW, Topology: topology, First: firstVertex, Count: vertexCount})
}

func (hr *HeadlessRenderer) DrawIndexed(firstIndex, indexCount uint32) error {
	if err := hr.takeDrawFailure(); err != nil {
		return err
	}
	return hr.record(Command{Kind: COMMAND_DRAW_INDEXED, Topology: metadata.PRIMITIVE_TYPE_TRIANGLE, First: firstIndex, Count: indexCount})
}

func (hr *HeadlessRenderer) lookup(buffer *metadata.RenderBuffer) (*headlessBuffer, error) {
	if buffer == nil {
		return nil, core.ErrInvalidBuffer
	}
	internal, ok := hr.buffers[buffer]
	if !ok {
		return nil, fmt.Errorf("%s buffer is not owned by this backend: %w", buffer.RenderBufferType, core.ErrInvalidBuffer)
	}
	return internal, nil
}

func (hr *HeadlessRenderer) record(cmd Command) error {
	if !hr.inFrame {
		return fmt.Errorf("%s outside of a frame: %w", cmd.Kind, core.ErrPassNotStarted)
	}
	cmd.Frame = hr.FrameNumber
	hr.commands = append(hr.commands, cmd)
	return nil
}

func (hr *HeadlessRenderer) takeDrawFailure() error {
	if hr.failNextDraw == nil {
		return nil
	}
	err := hr.failNextDraw
	hr.failNextDraw = nil
	return err
}
