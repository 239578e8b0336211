package renderer

import (
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// RendererBackend is the GPU API facing side of the renderer. Every call is
// made from the render thread.
type RendererBackend interface {
	Initialize(config *metadata.RendererBackendConfig) error
	Shutdown() error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
	// Clear clears the colour and depth attachments of the current frame.
	Clear() error
	SetMode(mode metadata.RenderMode) error
	RenderBufferCreate(renderbufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error)
	RenderBufferDestroy(buffer *metadata.RenderBuffer)
	RenderBufferResize(buffer *metadata.RenderBuffer, newTotalSize uint64) error
	// RenderBufferMapMemory returns a writable view of size bytes starting at offset.
	RenderBufferMapMemory(buffer *metadata.RenderBuffer, offset, size uint64) ([]byte, error)
	// RenderBufferUnmapMemory commits the mapped view. An error means the
	// buffer contents can no longer be trusted.
	RenderBufferUnmapMemory(buffer *metadata.RenderBuffer, offset, size uint64) error
	RenderBufferBind(buffer *metadata.RenderBuffer, offset uint64) error
	RenderBufferUnbind(buffer *metadata.RenderBuffer) error
	SetTransform(model math.Mat4) error
	BindSkin(id metadata.SkinID) error
	Draw(topology metadata.PrimitiveType, firstVertex, vertexCount uint32) error
	DrawIndexed(firstIndex, indexCount uint32) error
}
