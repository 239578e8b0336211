package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// Buffers live in host visible memory; every compile rewrites them whole so
// a staging copy would only add a transfer.
const bufferMemoryFlags = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit

type vulkanBuffer struct {
	handle vk.Buffer
	memory vk.DeviceMemory
	size   uint64
	usage  vk.BufferUsageFlagBits

	mapped    bool
	mapOffset uint64
	mapSize   uint64
}

func bufferUsage(t metadata.RenderBufferType) (vk.BufferUsageFlagBits, error) {
	switch t {
	case metadata.RENDERBUFFER_TYPE_VERTEX:
		return vk.BufferUsageVertexBufferBit, nil
	case metadata.RENDERBUFFER_TYPE_INDEX:
		return vk.BufferUsageIndexBufferBit, nil
	}
	return 0, fmt.Errorf("%s buffers are not supported: %w", t, core.ErrInvalidBuffer)
}

// createBuffer allocates and binds a buffer of size bytes. A zero size keeps
// null handles.
func createBuffer(context *VulkanContext, usage vk.BufferUsageFlagBits, size uint64) (*vulkanBuffer, error) {
	b := &vulkanBuffer{usage: usage, size: size}
	if size == 0 {
		return b, nil
	}

	var buffer vk.Buffer
	createInfo := &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(usage),
		Size:        vk.DeviceSize(size),
		SharingMode: vk.SharingModeExclusive,
	}
	if err := resultError("create buffer", vk.CreateBuffer(context.LogicalDevice, createInfo, context.Allocator, &buffer)); err != nil {
		return nil, err
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.LogicalDevice, buffer, &requirements)
	requirements.Deref()

	memoryType := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(bufferMemoryFlags))
	if memoryType < 0 {
		vk.DestroyBuffer(context.LogicalDevice, buffer, context.Allocator)
		return nil, fmt.Errorf("no host visible memory for a %d bytes buffer: %w", size, core.ErrInvalidBuffer)
	}

	var memory vk.DeviceMemory
	allocateInfo := &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	if err := resultError("allocate buffer memory", vk.AllocateMemory(context.LogicalDevice, allocateInfo, context.Allocator, &memory)); err != nil {
		vk.DestroyBuffer(context.LogicalDevice, buffer, context.Allocator)
		return nil, err
	}
	if err := resultError("bind buffer memory", vk.BindBufferMemory(context.LogicalDevice, buffer, memory, 0)); err != nil {
		vk.FreeMemory(context.LogicalDevice, memory, context.Allocator)
		vk.DestroyBuffer(context.LogicalDevice, buffer, context.Allocator)
		return nil, err
	}

	b.handle = buffer
	b.memory = memory
	return b, nil
}

func (b *vulkanBuffer) destroy(context *VulkanContext) {
	if b.memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.LogicalDevice, b.memory, context.Allocator)
		b.memory = vk.NullDeviceMemory
	}
	if b.handle != vk.NullBuffer {
		vk.DestroyBuffer(context.LogicalDevice, b.handle, context.Allocator)
		b.handle = vk.NullBuffer
	}
	b.size = 0
}

func (b *vulkanBuffer) mapMemory(context *VulkanContext, offset, size uint64) ([]byte, error) {
	if b.mapped {
		return nil, fmt.Errorf("buffer is already mapped: %w", core.ErrInvalidBuffer)
	}
	if offset+size > b.size {
		return nil, fmt.Errorf("map [%d, %d) exceeds %d bytes: %w", offset, offset+size, b.size, core.ErrBufferOverflow)
	}
	b.mapped = true
	b.mapOffset = offset
	b.mapSize = size
	if size == 0 {
		return []byte{}, nil
	}

	var ptr unsafe.Pointer
	if err := resultError("map buffer memory", vk.MapMemory(context.LogicalDevice, b.memory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr)); err != nil {
		b.mapped = false
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (b *vulkanBuffer) unmapMemory(context *VulkanContext, offset, size uint64) error {
	if !b.mapped {
		return fmt.Errorf("buffer is not mapped: %w", core.ErrBufferCorrupted)
	}
	b.mapped = false
	if b.mapSize > 0 {
		vk.UnmapMemory(context.LogicalDevice, b.memory)
	}
	if offset != b.mapOffset || size != b.mapSize {
		return fmt.Errorf("unmap of [%d, %d) does not match the mapped [%d, %d): %w",
			offset, offset+size, b.mapOffset, b.mapOffset+b.mapSize, core.ErrBufferCorrupted)
	}
	return nil
}
