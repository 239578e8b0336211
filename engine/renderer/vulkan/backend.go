package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// Size of the model matrix push constant.
const pushConstantSize = 16 * 4

/**
 * @brief Records the draw stream of every pass into the command buffer of a
 * Vulkan context. Presentation is left to the application, which begins the
 * command buffer and the render pass before a frame and submits it after.
 */
type VulkanRenderer struct {
	FrameNumber uint64

	context     *VulkanContext
	initialized bool
	inFrame     bool
	mode        metadata.RenderMode
	buffers     map[*metadata.RenderBuffer]*vulkanBuffer

	boundPipeline vk.Pipeline
	hasPipeline   bool
}

func New(context *VulkanContext) *VulkanRenderer {
	return &VulkanRenderer{
		context: context,
		buffers: make(map[*metadata.RenderBuffer]*vulkanBuffer),
	}
}

func (vr *VulkanRenderer) Initialize(config *metadata.RendererBackendConfig) error {
	if vr.context == nil || vr.context.LogicalDevice == nil {
		return fmt.Errorf("vulkan renderer for '%s' has no logical device", config.ApplicationName)
	}
	if vr.context.Skins == nil {
		vr.context.Skins = make(map[metadata.SkinID]vk.DescriptorSet)
	}
	vr.initialized = true
	core.LogInfo("Vulkan renderer backend initialized for '%s'.", config.ApplicationName)
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	if !vr.initialized {
		return nil
	}
	if res := vk.DeviceWaitIdle(vr.context.LogicalDevice); !VulkanResultIsSuccess(res) {
		core.LogWarn("Device did not go idle before shutdown: %s", VulkanResultString(res))
	}
	for buffer, internal := range vr.buffers {
		internal.destroy(vr.context)
		buffer.InternalData = nil
	}
	vr.buffers = make(map[*metadata.RenderBuffer]*vulkanBuffer)
	vr.initialized = false
	core.LogInfo("Vulkan renderer backend shut down.")
	return nil
}

func (vr *VulkanRenderer) BeginFrame(deltaTime float64) error {
	if vr.inFrame {
		return fmt.Errorf("begin frame called twice: %w", core.ErrPassInProgress)
	}
	if !vr.context.CommandBuffer.Recording() {
		state := COMMAND_BUFFER_STATE_NOT_ALLOCATED
		if vr.context.CommandBuffer != nil {
			state = vr.context.CommandBuffer.State
		}
		return fmt.Errorf("command buffer is %s, not recording", state)
	}
	vr.inFrame = true
	vr.hasPipeline = false
	vr.mode = metadata.RENDER_MODE_3D
	vr.FrameNumber++
	return nil
}

func (vr *VulkanRenderer) EndFrame(deltaTime float64) error {
	if !vr.inFrame {
		return fmt.Errorf("end frame without begin: %w", core.ErrPassNotStarted)
	}
	vr.inFrame = false
	return nil
}

func (vr *VulkanRenderer) Clear() error {
	cmd, err := vr.commandBuffer()
	if err != nil {
		return err
	}
	if vr.context.CommandBuffer.State != COMMAND_BUFFER_STATE_IN_RENDER_PASS {
		// Attachments are cleared by the render pass load operation.
		return nil
	}

	attachments := make([]vk.ClearAttachment, 2)
	attachments[0].AspectMask = vk.ImageAspectFlags(vk.ImageAspectColorBit)
	attachments[0].ColorAttachment = 0
	attachments[0].ClearValue.SetColor([]float32{0, 0, 0, 1})
	attachments[1].AspectMask = vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	attachments[1].ClearValue.SetDepthStencil(1, 0)

	rects := []vk.ClearRect{{
		Rect:       vk.Rect2D{Extent: vr.context.Extent},
		LayerCount: 1,
	}}
	vk.CmdClearAttachments(cmd, uint32(len(attachments)), attachments, uint32(len(rects)), rects)
	return nil
}

func (vr *VulkanRenderer) SetMode(mode metadata.RenderMode) error {
	if _, err := vr.commandBuffer(); err != nil {
		return err
	}
	if mode != vr.mode {
		vr.hasPipeline = false
	}
	vr.mode = mode
	return nil
}

func (vr *VulkanRenderer) RenderBufferCreate(renderbufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error) {
	usage, err := bufferUsage(renderbufferType)
	if err != nil {
		return nil, err
	}
	internal, err := createBuffer(vr.context, usage, totalSize)
	if err != nil {
		core.LogError("Failed to create %s buffer of %d bytes: %s", renderbufferType, totalSize, err)
		return nil, err
	}
	buffer := &metadata.RenderBuffer{
		RenderBufferType: renderbufferType,
		TotalSize:        totalSize,
		InternalData:     internal,
	}
	vr.buffers[buffer] = internal
	return buffer, nil
}

func (vr *VulkanRenderer) RenderBufferDestroy(buffer *metadata.RenderBuffer) {
	if buffer == nil {
		return
	}
	if internal, ok := vr.buffers[buffer]; ok {
		internal.destroy(vr.context)
		delete(vr.buffers, buffer)
	}
	buffer.InternalData = nil
	buffer.TotalSize = 0
}

// RenderBufferResize recreates the buffer. Contents are not preserved.
func (vr *VulkanRenderer) RenderBufferResize(buffer *metadata.RenderBuffer, newTotalSize uint64) error {
	internal, err := vr.lookup(buffer)
	if err != nil {
		return err
	}
	if internal.mapped {
		return fmt.Errorf("cannot resize a mapped %s buffer: %w", buffer.RenderBufferType, core.ErrInvalidBuffer)
	}
	replacement, err := createBuffer(vr.context, internal.usage, newTotalSize)
	if err != nil {
		return err
	}
	internal.destroy(vr.context)
	*internal = *replacement
	buffer.TotalSize = newTotalSize
	return nil
}

func (vr *VulkanRenderer) RenderBufferMapMemory(buffer *metadata.RenderBuffer, offset, size uint64) ([]byte, error) {
	internal, err := vr.lookup(buffer)
	if err != nil {
		return nil, err
	}
	return internal.mapMemory(vr.context, offset, size)
}

func (vr *VulkanRenderer) RenderBufferUnmapMemory(buffer *metadata.RenderBuffer, offset, size uint64) error {
	internal, err := vr.lookup(buffer)
	if err != nil {
		return err
	}
	return internal.unmapMemory(vr.context, offset, size)
}

func (vr *VulkanRenderer) RenderBufferBind(buffer *metadata.RenderBuffer, offset uint64) error {
	internal, err := vr.lookup(buffer)
	if err != nil {
		return err
	}
	cmd, err := vr.commandBuffer()
	if err != nil {
		return err
	}
	if internal.mapped {
		return fmt.Errorf("cannot bind a mapped %s buffer: %w", buffer.RenderBufferType, core.ErrInvalidBuffer)
	}
	if internal.handle == vk.NullBuffer {
		// Nothing was compiled into it, so nothing can be drawn from it.
		return nil
	}
	switch buffer.RenderBufferType {
	case metadata.RENDERBUFFER_TYPE_VERTEX:
		vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{internal.handle}, []vk.DeviceSize{vk.DeviceSize(offset)})
	case metadata.RENDERBUFFER_TYPE_INDEX:
		vk.CmdBindIndexBuffer(cmd, internal.handle, vk.DeviceSize(offset), vk.IndexTypeUint32)
	}
	return nil
}

// RenderBufferUnbind has nothing to record; the next bind replaces the binding.
func (vr *VulkanRenderer) RenderBufferUnbind(buffer *metadata.RenderBuffer) error {
	_, err := vr.lookup(buffer)
	return err
}

func (vr *VulkanRenderer) SetTransform(model math.Mat4) error {
	cmd, err := vr.commandBuffer()
	if err != nil {
		return err
	}
	data := model.ToArray()
	vk.CmdPushConstants(cmd, vr.context.PipelineLayout, vk.ShaderStageFlags(vr.context.PushConstantStages), 0, pushConstantSize, unsafe.Pointer(&data[0]))
	return nil
}

func (vr *VulkanRenderer) BindSkin(id metadata.SkinID) error {
	cmd, err := vr.commandBuffer()
	if err != nil {
		return err
	}
	if id == metadata.NoSkin {
		return nil
	}
	set, ok := vr.context.Skins[id]
	if !ok {
		return fmt.Errorf("no descriptor set for skin '%s': %w", id, core.ErrUnknownSkin)
	}
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, vr.context.PipelineLayout, 0, 1, []vk.DescriptorSet{set}, 0, nil)
	return nil
}

func (vr *VulkanRenderer) Draw(topology metadata.PrimitiveType, firstVertex, vertexCount uint32) error {
	cmd, err := vr.commandBuffer()
	if err != nil {
		return err
	}
	if topology == metadata.PRIMITIVE_TYPE_QUAD {
		if vertexCount%4 != 0 {
			return fmt.Errorf("%d vertices is not a multiple of 4 for %s: %w", vertexCount, topology, core.ErrUnsupportedPrimitive)
		}
		// Each quad is drawn as a fan over its four corners.
		if err := vr.bindPipeline(cmd, metadata.PRIMITIVE_TYPE_TRIANGLE_FAN); err != nil {
			return err
		}
		for first := firstVertex; first < firstVertex+vertexCount; first += 4 {
			vk.CmdDraw(cmd, 4, 1, first, 0)
		}
		return nil
	}
	if err := vr.bindPipeline(cmd, topology); err != nil {
		return err
	}
	vk.CmdDraw(cmd, vertexCount, 1, firstVertex, 0)
	return nil
}

func (vr *VulkanRenderer) DrawIndexed(firstIndex, indexCount uint32) error {
	cmd, err := vr.commandBuffer()
	if err != nil {
		return err
	}
	if err := vr.bindPipeline(cmd, metadata.PRIMITIVE_TYPE_TRIANGLE); err != nil {
		return err
	}
	vk.CmdDrawIndexed(cmd, indexCount, 1, firstIndex, 0, 0)
	return nil
}

// RegisterSkin makes the descriptor set bound when id is drawn.
func (vr *VulkanRenderer) RegisterSkin(id metadata.SkinID, set vk.DescriptorSet) {
	if vr.context.Skins == nil {
		vr.context.Skins = make(map[metadata.SkinID]vk.DescriptorSet)
	}
	vr.context.Skins[id] = set
}

func (vr *VulkanRenderer) bindPipeline(cmd vk.CommandBuffer, topology metadata.PrimitiveType) error {
	if _, ok := Topology(topology); !ok {
		return fmt.Errorf("%s: %w", topology, core.ErrUnsupportedPrimitive)
	}
	pipeline, ok := vr.context.pipeline(vr.mode, topology)
	if !ok {
		return fmt.Errorf("no %s pipeline for %s: %w", vr.mode, topology, core.ErrUnsupportedPrimitive)
	}
	if vr.hasPipeline && vr.boundPipeline == pipeline {
		return nil
	}
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipeline)
	vr.boundPipeline = pipeline
	vr.hasPipeline = true
	return nil
}

func (vr *VulkanRenderer) commandBuffer() (vk.CommandBuffer, error) {
	if !vr.inFrame {
		return nil, core.ErrPassNotStarted
	}
	return vr.context.CommandBuffer.Handle, nil
}

func (vr *VulkanRenderer) lookup(buffer *metadata.RenderBuffer) (*vulkanBuffer, error) {
	if buffer == nil {
		return nil, core.ErrInvalidBuffer
	}
	internal, ok := vr.buffers[buffer]
	if !ok {
		return nil, fmt.Errorf("%s buffer is not owned by this backend: %w", buffer.RenderBufferType, core.ErrInvalidBuffer)
	}
	return internal, nil
}

// Topology is the Vulkan input assembly topology pipelines for t are built
// with. Line loops, quads and polygons have no Vulkan equivalent; quads are
// drawn with the triangle fan pipeline.
func Topology(t metadata.PrimitiveType) (vk.PrimitiveTopology, bool) {
	switch t {
	case metadata.PRIMITIVE_TYPE_POINT:
		return vk.PrimitiveTopologyPointList, true
	case metadata.PRIMITIVE_TYPE_LINE:
		return vk.PrimitiveTopologyLineList, true
	case metadata.PRIMITIVE_TYPE_LINE_STRIP:
		return vk.PrimitiveTopologyLineStrip, true
	case metadata.PRIMITIVE_TYPE_TRIANGLE:
		return vk.PrimitiveTopologyTriangleList, true
	case metadata.PRIMITIVE_TYPE_TRIANGLE_STRIP:
		return vk.PrimitiveTopologyTriangleStrip, true
	case metadata.PRIMITIVE_TYPE_TRIANGLE_FAN:
		return vk.PrimitiveTopologyTriangleFan, true
	}
	return 0, false
}
