// swapchain.go
package render

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"meshview/vk"
)

// preferredSurfaceFormat is what the renderer asks the presentation
// engine for before falling back to whatever the surface offers first.
var preferredSurfaceFormat = vk.SurfaceFormatKHR{
	Format:     vk.FORMAT_B8G8R8A8_SRGB,
	ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR,
}

func chooseSurfaceFormat(formats []vk.SurfaceFormatKHR) vk.SurfaceFormatKHR {
	for _, f := range formats {
		if f == preferredSurfaceFormat {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode prefers MAILBOX for low-latency triple buffering
// and falls back to FIFO, the only mode the driver must support.
func choosePresentMode(modes []vk.PresentModeKHR) vk.PresentModeKHR {
	for _, m := range modes {
		if m == vk.PRESENT_MODE_MAILBOX_KHR {
			return m
		}
	}
	return vk.PRESENT_MODE_FIFO_KHR
}

const undefinedExtent = ^uint32(0)

func clampDim(value, min, max uint32) uint32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// chooseExtent uses the surface's fixed extent when it reports one,
// otherwise clamps the framebuffer size per dimension into the
// surface's supported range.
func chooseExtent(caps vk.SurfaceCapabilitiesKHR, fbWidth, fbHeight uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampDim(fbWidth, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampDim(fbHeight, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount requests one image beyond the minimum so the
// renderer rarely waits on the presentation engine, bounded by the
// surface maximum when one exists.
func chooseImageCount(caps vk.SurfaceCapabilitiesKHR) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

var depthFormatCandidates = []vk.Format{
	vk.FORMAT_D32_SFLOAT,
	vk.FORMAT_D32_SFLOAT_S8_UINT,
	vk.FORMAT_D24_UNORM_S8_UINT,
}

func findDepthFormat(physicalDevice vk.PhysicalDevice) (vk.Format, error) {
	for _, format := range depthFormatCandidates {
		props := physicalDevice.GetFormatProperties(format)
		if props.OptimalTilingFeatures&vk.FORMAT_FEATURE_DEPTH_STENCIL_ATTACHMENT_BIT != 0 {
			return format, nil
		}
	}
	return vk.FORMAT_UNDEFINED, errors.Wrap(ErrInitialization, "no supported depth format")
}

// SwapchainConfig carries the long-lived objects a swapchain context
// is built against. Everything here outlives any single context.
type SwapchainConfig struct {
	PhysicalDevice   vk.PhysicalDevice
	Device           vk.Device
	Allocator        *Allocator
	Transfer         *Transfer
	Surface          vk.SurfaceKHR
	QueueFamilyIndex uint32
	SetLayout        vk.DescriptorSetLayout
	VertModule       vk.ShaderModule
	FragModule       vk.ShaderModule
	CommandPool      vk.CommandPool
	Samples          vk.SampleCountFlags
	Mesh             *Mesh
	Texture          *Texture
}

// SwapchainContext owns every object whose lifetime is tied to the
// swapchain: the images and their views, the multisampled color and
// depth targets, per-image uniform buffers and descriptors, the
// pipeline, and the prerecorded command buffers. A resize throws the
// whole context away and builds a fresh one.
type SwapchainContext struct {
	cfg *SwapchainConfig

	Swapchain  vk.SwapchainKHR
	Format     vk.SurfaceFormatKHR
	Extent     vk.Extent2D
	Images     []vk.Image
	ImageViews []vk.ImageView

	colorTarget BoundImage
	colorView   vk.ImageView
	depthTarget BoundImage
	depthView   vk.ImageView
	depthFormat vk.Format

	uniformBuffers []BoundBuffer
	uniformMapped  []unsafe.Pointer
	descriptorPool vk.DescriptorPool
	descriptorSets []vk.DescriptorSet

	pipelineLayout vk.PipelineLayout
	pipeline       vk.Pipeline

	CommandBuffers []vk.CommandBuffer
}

// NewSwapchainContext builds a complete presentation context for the
// given framebuffer size. On any failure the partially built context
// is torn down before the error is returned.
func NewSwapchainContext(cfg *SwapchainConfig, fbWidth, fbHeight uint32) (*SwapchainContext, error) {
	c := &SwapchainContext{cfg: cfg}

	if err := c.createSwapchain(fbWidth, fbHeight); err != nil {
		return nil, err
	}

	steps := []func() error{
		c.createImageViews,
		c.createRenderTargets,
		c.createUniformBuffers,
		c.createDescriptorSets,
		c.createPipeline,
		c.recordCommandBuffers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			c.Destroy()
			return nil, err
		}
	}

	return c, nil
}

func (c *SwapchainContext) createSwapchain(fbWidth, fbHeight uint32) error {
	caps, err := c.cfg.PhysicalDevice.GetSurfaceCapabilitiesKHR(c.cfg.Surface)
	if err != nil {
		return markf(err, ErrSwapchain, "querying surface capabilities")
	}

	formats, err := c.cfg.PhysicalDevice.GetSurfaceFormatsKHR(c.cfg.Surface)
	if err != nil {
		return markf(err, ErrSwapchain, "querying surface formats")
	}

	modes, err := c.cfg.PhysicalDevice.GetSurfacePresentModesKHR(c.cfg.Surface)
	if err != nil {
		return markf(err, ErrSwapchain, "querying present modes")
	}

	c.Format = chooseSurfaceFormat(formats)
	c.Extent = chooseExtent(caps, fbWidth, fbHeight)

	swapchain, err := c.cfg.Device.CreateSwapchainKHR(&vk.SwapchainCreateInfoKHR{
		Surface:          c.cfg.Surface,
		MinImageCount:    chooseImageCount(caps),
		ImageFormat:      c.Format.Format,
		ImageColorSpace:  c.Format.ColorSpace,
		ImageExtent:      c.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.IMAGE_USAGE_COLOR_ATTACHMENT_BIT,
		ImageSharingMode: vk.SHARING_MODE_EXCLUSIVE,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.COMPOSITE_ALPHA_OPAQUE_BIT_KHR,
		PresentMode:      choosePresentMode(modes),
		Clipped:          true,
	})
	if err != nil {
		return markf(err, ErrSwapchain, "creating %dx%d swapchain", c.Extent.Width, c.Extent.Height)
	}
	c.Swapchain = swapchain

	images, err := c.cfg.Device.GetSwapchainImagesKHR(swapchain)
	if err != nil {
		return markf(err, ErrSwapchain, "querying swapchain images")
	}
	c.Images = images

	return nil
}

func (c *SwapchainContext) createImageViews() error {
	c.ImageViews = make([]vk.ImageView, 0, len(c.Images))
	for _, image := range c.Images {
		view, err := c.cfg.Device.CreateImageView(&vk.ImageViewCreateInfo{
			Image:    image,
			ViewType: vk.IMAGE_VIEW_TYPE_2D,
			Format:   c.Format.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		if err != nil {
			return markf(err, ErrSwapchain, "creating swapchain image view")
		}
		c.ImageViews = append(c.ImageViews, view)
	}
	return nil
}

// createRenderTargets builds the multisampled color target (when
// multisampling is on) and the depth target sized to the swapchain.
func (c *SwapchainContext) createRenderTargets() error {
	extent3D := vk.Extent3D{Width: c.Extent.Width, Height: c.Extent.Height, Depth: 1}

	if c.multisampled() {
		colorTarget, err := c.cfg.Allocator.CreateImage(&vk.ImageCreateInfo{
			ImageType:     vk.IMAGE_TYPE_2D,
			Format:        c.Format.Format,
			Extent:        extent3D,
			MipLevels:     1,
			ArrayLayers:   1,
			Samples:       c.cfg.Samples,
			Tiling:        vk.IMAGE_TILING_OPTIMAL,
			Usage:         vk.IMAGE_USAGE_TRANSIENT_ATTACHMENT_BIT | vk.IMAGE_USAGE_COLOR_ATTACHMENT_BIT,
			SharingMode:   vk.SHARING_MODE_EXCLUSIVE,
			InitialLayout: vk.IMAGE_LAYOUT_UNDEFINED,
		}, vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
		if err != nil {
			return err
		}
		c.colorTarget = colorTarget

		colorView, err := c.cfg.Device.CreateImageView(&vk.ImageViewCreateInfo{
			Image:    colorTarget.Image,
			ViewType: vk.IMAGE_VIEW_TYPE_2D,
			Format:   c.Format.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		if err != nil {
			return markf(err, ErrResourceCreation, "creating color target view")
		}
		c.colorView = colorView
	}

	depthFormat, err := findDepthFormat(c.cfg.PhysicalDevice)
	if err != nil {
		return err
	}
	c.depthFormat = depthFormat

	depthTarget, err := c.cfg.Allocator.CreateImage(&vk.ImageCreateInfo{
		ImageType:     vk.IMAGE_TYPE_2D,
		Format:        depthFormat,
		Extent:        extent3D,
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       c.cfg.Samples,
		Tiling:        vk.IMAGE_TILING_OPTIMAL,
		Usage:         vk.IMAGE_USAGE_DEPTH_STENCIL_ATTACHMENT_BIT,
		SharingMode:   vk.SHARING_MODE_EXCLUSIVE,
		InitialLayout: vk.IMAGE_LAYOUT_UNDEFINED,
	}, vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	if err != nil {
		return err
	}
	c.depthTarget = depthTarget

	depthView, err := c.cfg.Device.CreateImageView(&vk.ImageViewCreateInfo{
		Image:    depthTarget.Image,
		ViewType: vk.IMAGE_VIEW_TYPE_2D,
		Format:   depthFormat,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.IMAGE_ASPECT_DEPTH_BIT,
			LevelCount: 1,
			LayerCount: 1,
		},
	})
	if err != nil {
		return markf(err, ErrResourceCreation, "creating depth target view")
	}
	c.depthView = depthView

	return c.cfg.Transfer.TransitionImageLayout(depthTarget.Image, vk.IMAGE_ASPECT_DEPTH_BIT, 1,
		vk.IMAGE_LAYOUT_UNDEFINED, vk.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL)
}

func (c *SwapchainContext) multisampled() bool {
	return c.cfg.Samples != vk.SAMPLE_COUNT_1_BIT
}

// createUniformBuffers makes one persistently mapped host-visible
// uniform buffer per swapchain image so the frame loop can write
// matrices with a plain memcpy.
func (c *SwapchainContext) createUniformBuffers() error {
	c.uniformBuffers = make([]BoundBuffer, 0, len(c.Images))
	c.uniformMapped = make([]unsafe.Pointer, 0, len(c.Images))

	for range c.Images {
		buffer, err := c.cfg.Allocator.CreateBuffer(UniformBufferSize,
			vk.BUFFER_USAGE_UNIFORM_BUFFER_BIT,
			vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT|vk.MEMORY_PROPERTY_HOST_COHERENT_BIT)
		if err != nil {
			return err
		}
		c.uniformBuffers = append(c.uniformBuffers, buffer)

		mapped, err := c.cfg.Device.MapMemory(buffer.Memory, 0, UniformBufferSize)
		if err != nil {
			return markf(err, ErrResourceCreation, "mapping uniform buffer")
		}
		c.uniformMapped = append(c.uniformMapped, mapped)
	}

	return nil
}

func (c *SwapchainContext) createDescriptorSets() error {
	imageCount := uint32(len(c.Images))

	pool, err := c.cfg.Device.CreateDescriptorPool(&vk.DescriptorPoolCreateInfo{
		MaxSets: imageCount,
		PoolSizes: []vk.DescriptorPoolSize{
			{Type: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, DescriptorCount: imageCount},
			{Type: vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, DescriptorCount: imageCount},
		},
	})
	if err != nil {
		return markf(err, ErrResourceCreation, "creating descriptor pool")
	}
	c.descriptorPool = pool

	layouts := make([]vk.DescriptorSetLayout, len(c.Images))
	for i := range layouts {
		layouts[i] = c.cfg.SetLayout
	}

	sets, err := c.cfg.Device.AllocateDescriptorSets(&vk.DescriptorSetAllocateInfo{
		DescriptorPool: pool,
		SetLayouts:     layouts,
	})
	if err != nil {
		return markf(err, ErrResourceCreation, "allocating descriptor sets")
	}
	c.descriptorSets = sets

	writes := make([]vk.WriteDescriptorSet, 0, 2*len(sets))
	for i, set := range sets {
		writes = append(writes,
			vk.WriteDescriptorSet{
				DstSet:         set,
				DstBinding:     0,
				DescriptorType: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER,
				BufferInfo: []vk.DescriptorBufferInfo{{
					Buffer: c.uniformBuffers[i].Buffer,
					Range:  UniformBufferSize,
				}},
			},
			vk.WriteDescriptorSet{
				DstSet:         set,
				DstBinding:     1,
				DescriptorType: vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER,
				ImageInfo: []vk.DescriptorImageInfo{{
					Sampler:     c.cfg.Texture.Sampler,
					ImageView:   c.cfg.Texture.View,
					ImageLayout: vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL,
				}},
			},
		)
	}
	c.cfg.Device.UpdateDescriptorSets(writes)

	return nil
}

func (c *SwapchainContext) createPipeline() error {
	layout, err := c.cfg.Device.CreatePipelineLayout(&vk.PipelineLayoutCreateInfo{
		SetLayouts: []vk.DescriptorSetLayout{c.cfg.SetLayout},
	})
	if err != nil {
		return markf(err, ErrResourceCreation, "creating pipeline layout")
	}
	c.pipelineLayout = layout

	pipeline, err := c.cfg.Device.CreateGraphicsPipeline(&vk.GraphicsPipelineCreateInfo{
		Stages: []vk.PipelineShaderStageCreateInfo{
			{Stage: vk.SHADER_STAGE_VERTEX_BIT, Module: c.cfg.VertModule, Name: "main"},
			{Stage: vk.SHADER_STAGE_FRAGMENT_BIT, Module: c.cfg.FragModule, Name: "main"},
		},
		VertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			Bindings: []vk.VertexInputBindingDescription{
				{Binding: 0, Stride: VertexStride, InputRate: vk.VERTEX_INPUT_RATE_VERTEX},
			},
			Attributes: VertexAttributes,
		},
		InputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			Topology: vk.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST,
		},
		ViewportState: &vk.PipelineViewportStateCreateInfo{
			Viewports: []vk.Viewport{{
				Width:    float32(c.Extent.Width),
				Height:   float32(c.Extent.Height),
				MaxDepth: 1,
			}},
			Scissors: []vk.Rect2D{{Extent: c.Extent}},
		},
		RasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			PolygonMode: vk.POLYGON_MODE_FILL,
			CullMode:    vk.CULL_MODE_BACK_BIT,
			FrontFace:   vk.FRONT_FACE_COUNTER_CLOCKWISE,
			LineWidth:   1,
		},
		MultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			RasterizationSamples: c.cfg.Samples,
			SampleShadingEnable:  true,
			MinSampleShading:     0.2,
		},
		DepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   vk.COMPARE_OP_LESS,
		},
		ColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			Attachments: []vk.ColorBlendAttachmentState{{
				ColorWriteMask: vk.COLOR_COMPONENT_R_BIT | vk.COLOR_COMPONENT_G_BIT |
					vk.COLOR_COMPONENT_B_BIT | vk.COLOR_COMPONENT_A_BIT,
			}},
		},
		RenderingInfo: &vk.PipelineRenderingCreateInfo{
			ColorAttachmentFormats: []vk.Format{c.Format.Format},
			DepthAttachmentFormat:  c.depthFormat,
		},
		Layout: layout,
	})
	if err != nil {
		return markf(err, ErrResourceCreation, "creating graphics pipeline")
	}
	c.pipeline = pipeline

	return nil
}

// recordCommandBuffers prerecords one command buffer per swapchain
// image. The buffers are replayed every frame; only the uniform
// buffers change between submissions.
func (c *SwapchainContext) recordCommandBuffers() error {
	buffers, err := c.cfg.Device.AllocateCommandBuffers(&vk.CommandBufferAllocateInfo{
		CommandPool:        c.cfg.CommandPool,
		Level:              vk.COMMAND_BUFFER_LEVEL_PRIMARY,
		CommandBufferCount: uint32(len(c.Images)),
	})
	if err != nil {
		return markf(err, ErrResourceCreation, "allocating command buffers")
	}
	c.CommandBuffers = buffers

	for i, cmd := range buffers {
		if err := c.recordDraw(cmd, i); err != nil {
			return err
		}
	}

	return nil
}

func (c *SwapchainContext) recordDraw(cmd vk.CommandBuffer, imageIndex int) error {
	if err := cmd.Begin(&vk.CommandBufferBeginInfo{}); err != nil {
		return markf(err, ErrResourceCreation, "beginning command buffer %d", imageIndex)
	}

	// Swapchain image to renderable.
	preBarriers := []vk.ImageMemoryBarrier{{
		SrcAccessMask:       vk.ACCESS_NONE,
		DstAccessMask:       vk.ACCESS_COLOR_ATTACHMENT_WRITE_BIT,
		OldLayout:           vk.IMAGE_LAYOUT_UNDEFINED,
		NewLayout:           vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL,
		SrcQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
		DstQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
		Image:               c.Images[imageIndex],
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
			LevelCount: 1,
			LayerCount: 1,
		},
	}}
	if c.multisampled() {
		// The multisampled target's contents are cleared each frame,
		// so discarding the previous layout is fine.
		preBarriers = append(preBarriers, vk.ImageMemoryBarrier{
			SrcAccessMask:       vk.ACCESS_NONE,
			DstAccessMask:       vk.ACCESS_COLOR_ATTACHMENT_WRITE_BIT,
			OldLayout:           vk.IMAGE_LAYOUT_UNDEFINED,
			NewLayout:           vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL,
			SrcQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
			DstQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
			Image:               c.colorTarget.Image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
				LevelCount: 1,
				LayerCount: 1,
			},
		})
	}
	cmd.PipelineBarrier(
		vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT,
		vk.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT,
		0, preBarriers)

	colorAttachment := vk.RenderingAttachmentInfo{
		ImageView:   c.ImageViews[imageIndex],
		ImageLayout: vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL,
		LoadOp:      vk.ATTACHMENT_LOAD_OP_CLEAR,
		StoreOp:     vk.ATTACHMENT_STORE_OP_STORE,
	}
	if c.multisampled() {
		colorAttachment.ImageView = c.colorView
		colorAttachment.StoreOp = vk.ATTACHMENT_STORE_OP_DONT_CARE
		colorAttachment.ResolveMode = vk.RESOLVE_MODE_AVERAGE
		colorAttachment.ResolveImageView = c.ImageViews[imageIndex]
		colorAttachment.ResolveImageLayout = vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL
	}

	cmd.BeginRendering(&vk.RenderingInfo{
		RenderArea:       vk.Rect2D{Extent: c.Extent},
		LayerCount:       1,
		ColorAttachments: []vk.RenderingAttachmentInfo{colorAttachment},
		DepthAttachment: &vk.RenderingAttachmentInfo{
			ImageView:   c.depthView,
			ImageLayout: vk.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL,
			LoadOp:      vk.ATTACHMENT_LOAD_OP_CLEAR,
			StoreOp:     vk.ATTACHMENT_STORE_OP_DONT_CARE,
			ClearValue:  vk.ClearValue{DepthStencil: vk.ClearDepthStencilValue{Depth: 1}},
		},
	})

	cmd.BindPipeline(vk.PIPELINE_BIND_POINT_GRAPHICS, c.pipeline)
	cmd.BindVertexBuffers(0, []vk.Buffer{c.cfg.Mesh.VertexBuffer.Buffer}, []uint64{0})
	cmd.BindIndexBuffer(c.cfg.Mesh.IndexBuffer.Buffer, 0, vk.INDEX_TYPE_UINT32)
	cmd.BindDescriptorSets(vk.PIPELINE_BIND_POINT_GRAPHICS, c.pipelineLayout, 0,
		[]vk.DescriptorSet{c.descriptorSets[imageIndex]})
	cmd.DrawIndexed(c.cfg.Mesh.IndexCount, 1, 0, 0, 0)

	cmd.EndRendering()

	// Swapchain image to presentable.
	cmd.PipelineBarrier(
		vk.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT,
		vk.PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT,
		0, []vk.ImageMemoryBarrier{{
			SrcAccessMask:       vk.ACCESS_COLOR_ATTACHMENT_WRITE_BIT,
			DstAccessMask:       vk.ACCESS_NONE,
			OldLayout:           vk.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL,
			NewLayout:           vk.IMAGE_LAYOUT_PRESENT_SRC_KHR,
			SrcQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
			DstQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
			Image:               c.Images[imageIndex],
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
				LevelCount: 1,
				LayerCount: 1,
			},
		}})

	if err := cmd.End(); err != nil {
		return markf(err, ErrResourceCreation, "ending command buffer %d", imageIndex)
	}

	return nil
}

// UpdateUniform writes the matrices for one swapchain image directly
// into its persistently mapped uniform memory.
func (c *SwapchainContext) UpdateUniform(imageIndex uint32, ubo UniformBufferObject) {
	vk.WriteMapped(c.uniformMapped[imageIndex], ubo.Bytes())
}

// AspectRatio of the current swapchain extent.
func (c *SwapchainContext) AspectRatio() float32 {
	return float32(c.Extent.Width) / float32(c.Extent.Height)
}

// Destroy tears the context down in strict reverse creation order.
// Safe to call on a partially constructed context; the caller must
// ensure the device is idle first.
func (c *SwapchainContext) Destroy() {
	device := c.cfg.Device

	if len(c.CommandBuffers) > 0 {
		device.FreeCommandBuffers(c.cfg.CommandPool, c.CommandBuffers)
		c.CommandBuffers = nil
	}

	if c.pipeline != (vk.Pipeline{}) {
		device.DestroyPipeline(c.pipeline)
		c.pipeline = vk.Pipeline{}
	}
	if c.pipelineLayout != (vk.PipelineLayout{}) {
		device.DestroyPipelineLayout(c.pipelineLayout)
		c.pipelineLayout = vk.PipelineLayout{}
	}

	if c.descriptorPool != (vk.DescriptorPool{}) {
		device.DestroyDescriptorPool(c.descriptorPool)
		c.descriptorPool = vk.DescriptorPool{}
		c.descriptorSets = nil
	}

	for i, buffer := range c.uniformBuffers {
		if i < len(c.uniformMapped) && c.uniformMapped[i] != nil {
			device.UnmapMemory(buffer.Memory)
		}
		c.cfg.Allocator.DestroyBuffer(buffer)
	}
	c.uniformBuffers = nil
	c.uniformMapped = nil

	if c.depthView != (vk.ImageView{}) {
		device.DestroyImageView(c.depthView)
		c.depthView = vk.ImageView{}
	}
	if c.depthTarget != (BoundImage{}) {
		c.cfg.Allocator.DestroyImage(c.depthTarget)
		c.depthTarget = BoundImage{}
	}
	if c.colorView != (vk.ImageView{}) {
		device.DestroyImageView(c.colorView)
		c.colorView = vk.ImageView{}
	}
	if c.colorTarget != (BoundImage{}) {
		c.cfg.Allocator.DestroyImage(c.colorTarget)
		c.colorTarget = BoundImage{}
	}

	for _, view := range c.ImageViews {
		device.DestroyImageView(view)
	}
	c.ImageViews = nil

	if c.Swapchain != (vk.SwapchainKHR{}) {
		device.DestroySwapchainKHR(c.Swapchain)
		c.Swapchain = vk.SwapchainKHR{}
	}
}
