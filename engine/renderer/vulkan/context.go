package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// PipelineSet holds one graphics pipeline per topology.
type PipelineSet map[metadata.PrimitiveType]vk.Pipeline

/**
 * @brief Everything the backend records into. The application creates the
 * device, the swapchain and the pipelines and hands them over; the backend
 * only allocates buffers and records draw commands.
 */
type VulkanContext struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
	Allocator      *vk.AllocationCallbacks

	// The command buffer of the frame being recorded. The application begins
	// the render pass before BeginFrame and submits after EndFrame.
	CommandBuffer *VulkanCommandBuffer

	PipelineLayout vk.PipelineLayout
	// Pipelines for every render mode, selected by the pass mode and the
	// topology of each draw.
	Pipelines map[metadata.RenderMode]PipelineSet
	// Stages that read the model matrix push constant.
	PushConstantStages vk.ShaderStageFlagBits

	// Extent of the attachments cleared by Clear.
	Extent vk.Extent2D
	// Descriptor sets bound for each registered skin, at set index 0.
	Skins map[metadata.SkinID]vk.DescriptorSet
}

func (vc *VulkanContext) pipeline(mode metadata.RenderMode, topology metadata.PrimitiveType) (vk.Pipeline, bool) {
	p, ok := vc.Pipelines[mode][topology]
	return p, ok
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
