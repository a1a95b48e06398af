// renderer.go
package render

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"meshview/vk"
)

const (
	swapchainExtension = "VK_KHR_swapchain"
	validationLayer    = "VK_LAYER_KHRONOS_validation"
)

// Surfacer is the window-system collaborator: it names the instance
// extensions presentation needs, creates the surface, and reports the
// framebuffer size in pixels.
type Surfacer interface {
	InstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.SurfaceKHR, error)
	FramebufferSize() (int, int)
}

// Config selects the assets and diagnostics for a Renderer.
type Config struct {
	MeshPath    string
	TexturePath string
	AppName     string
	Debug       bool
	Logger      *slog.Logger
}

// Renderer owns the device-scoped objects and drives the frame loop.
// The swapchain context is held separately so surface invalidation can
// rebuild it wholesale while everything here stays alive.
type Renderer struct {
	log    *slog.Logger
	window Surfacer

	instance         vk.Instance
	surface          vk.SurfaceKHR
	physicalDevice   vk.PhysicalDevice
	device           vk.Device
	queue            vk.Queue
	queueFamilyIndex uint32

	allocator   *Allocator
	transfer    *Transfer
	commandPool vk.CommandPool

	setLayout  vk.DescriptorSetLayout
	vertModule vk.ShaderModule
	fragModule vk.ShaderModule

	mesh    *Mesh
	texture *Texture

	ctx   *SwapchainContext
	sync  *FrameSync
	cfg   *SwapchainConfig
	start time.Time

	resized bool
}

// New brings up the whole Vulkan stack: instance, surface,
// device, uploaded assets, swapchain context and frame slots. Any
// failure is returned after tearing down what was already built.
func New(window Surfacer, cfg Config) (*Renderer, error) {
	r := &Renderer{
		log:    cfg.Logger,
		window: window,
		start:  time.Now(),
	}
	if r.log == nil {
		r.log = slog.Default()
	}

	if err := r.initInstance(window, cfg); err != nil {
		return nil, err
	}

	steps := []func(Config) error{
		r.initSurface,
		r.initDevice,
		r.initUploads,
		r.initAssets,
		r.initSwapchain,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			r.Destroy()
			return nil, err
		}
	}

	return r, nil
}

func (r *Renderer) initInstance(window Surfacer, cfg Config) error {
	var layers []string
	if cfg.Debug {
		available, err := vk.EnumerateInstanceLayerProperties()
		if err != nil {
			return markf(err, ErrInitialization, "enumerating instance layers")
		}
		for _, layer := range available {
			if layer.LayerName == validationLayer {
				layers = append(layers, validationLayer)
			}
		}
		if len(layers) == 0 {
			return errors.Wrapf(ErrInitialization, "%s requested but unavailable", validationLayer)
		}
	}

	instance, err := vk.CreateInstance(&vk.InstanceCreateInfo{
		ApplicationInfo: &vk.ApplicationInfo{
			ApplicationName:    cfg.AppName,
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			EngineName:         "meshview",
			EngineVersion:      vk.MakeVersion(1, 0, 0),
			ApiVersion:         vk.API_VERSION_1_3,
		},
		EnabledLayerNames:     layers,
		EnabledExtensionNames: window.InstanceExtensions(),
	})
	if err != nil {
		return markf(err, ErrInitialization, "creating instance")
	}
	r.instance = instance

	return nil
}

func (r *Renderer) initSurface(Config) error {
	surface, err := r.window.CreateSurface(r.instance)
	if err != nil {
		return markf(err, ErrInitialization, "creating window surface")
	}
	r.surface = surface
	return nil
}

// pickQueueFamily finds a family that can both render and present to
// the surface. Separate graphics and present families are not
// supported; hardware without a combined family is rejected.
func pickQueueFamily(physicalDevice vk.PhysicalDevice, surface vk.SurfaceKHR) (uint32, bool) {
	for i, family := range physicalDevice.GetQueueFamilyProperties() {
		if family.QueueFlags&vk.QUEUE_GRAPHICS_BIT == 0 {
			continue
		}
		supported, err := physicalDevice.GetSurfaceSupportKHR(uint32(i), surface)
		if err == nil && supported {
			return uint32(i), true
		}
	}
	return 0, false
}

func deviceSuitable(physicalDevice vk.PhysicalDevice, surface vk.SurfaceKHR) bool {
	extensions, err := physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return false
	}
	hasSwapchain := false
	for _, ext := range extensions {
		if ext == swapchainExtension {
			hasSwapchain = true
			break
		}
	}
	if !hasSwapchain {
		return false
	}

	if !physicalDevice.GetFeatures().SamplerAnisotropy {
		return false
	}

	formats, err := physicalDevice.GetSurfaceFormatsKHR(surface)
	if err != nil || len(formats) == 0 {
		return false
	}
	modes, err := physicalDevice.GetSurfacePresentModesKHR(surface)
	if err != nil || len(modes) == 0 {
		return false
	}

	return true
}

// maxSampleCount returns the highest sample count both the color and
// depth framebuffer paths support.
func maxSampleCount(limits vk.PhysicalDeviceLimits) vk.SampleCountFlags {
	counts := limits.FramebufferColorSampleCounts & limits.FramebufferDepthSampleCounts
	for _, bit := range []vk.SampleCountFlags{
		vk.SAMPLE_COUNT_64_BIT, vk.SAMPLE_COUNT_32_BIT, vk.SAMPLE_COUNT_16_BIT,
		vk.SAMPLE_COUNT_8_BIT, vk.SAMPLE_COUNT_4_BIT, vk.SAMPLE_COUNT_2_BIT,
	} {
		if counts&bit != 0 {
			return bit
		}
	}
	return vk.SAMPLE_COUNT_1_BIT
}

func (r *Renderer) initDevice(cfg Config) error {
	physicalDevices, err := r.instance.EnumeratePhysicalDevices()
	if err != nil {
		return markf(err, ErrInitialization, "enumerating physical devices")
	}

	found := false
	for _, candidate := range physicalDevices {
		familyIndex, ok := pickQueueFamily(candidate, r.surface)
		if !ok || !deviceSuitable(candidate, r.surface) {
			continue
		}
		r.physicalDevice = candidate
		r.queueFamilyIndex = familyIndex
		found = true
		break
	}
	if !found {
		return errors.Wrap(ErrInitialization, "no suitable physical device")
	}

	properties := r.physicalDevice.GetProperties()
	r.log.Info("selected physical device",
		"device", properties.DeviceName,
		"queue_family", r.queueFamilyIndex)

	var layers []string
	if cfg.Debug {
		layers = []string{validationLayer}
	}

	device, err := r.physicalDevice.CreateDevice(&vk.DeviceCreateInfo{
		QueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			QueueFamilyIndex: r.queueFamilyIndex,
			QueuePriorities:  []float32{1},
		}},
		EnabledLayerNames:     layers,
		EnabledExtensionNames: []string{swapchainExtension},
		EnabledFeatures: &vk.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
			SampleRateShading: true,
		},
		Vulkan13Features: &vk.Vulkan13Features{DynamicRendering: true},
	})
	if err != nil {
		return markf(err, ErrInitialization, "creating logical device")
	}
	r.device = device
	r.queue = device.GetQueue(r.queueFamilyIndex, 0)

	return nil
}

func (r *Renderer) initUploads(Config) error {
	r.allocator = NewAllocator(r.device, r.physicalDevice)

	transfer, err := NewTransfer(r.device, r.queue, r.queueFamilyIndex)
	if err != nil {
		return err
	}
	r.transfer = transfer

	commandPool, err := r.device.CreateCommandPool(&vk.CommandPoolCreateInfo{
		QueueFamilyIndex: r.queueFamilyIndex,
	})
	if err != nil {
		return markf(err, ErrInitialization, "creating command pool")
	}
	r.commandPool = commandPool

	return nil
}

func (r *Renderer) initAssets(cfg Config) error {
	setLayout, err := r.device.CreateDescriptorSetLayout(&vk.DescriptorSetLayoutCreateInfo{
		Bindings: []vk.DescriptorSetLayoutBinding{
			{Binding: 0, DescriptorType: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, DescriptorCount: 1, StageFlags: vk.SHADER_STAGE_VERTEX_BIT},
			{Binding: 1, DescriptorType: vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, DescriptorCount: 1, StageFlags: vk.SHADER_STAGE_FRAGMENT_BIT},
		},
	})
	if err != nil {
		return markf(err, ErrInitialization, "creating descriptor set layout")
	}
	r.setLayout = setLayout

	vert, frag, err := compileShaderModules(r.device)
	if err != nil {
		return err
	}
	r.vertModule = vert
	r.fragModule = frag

	meshData, err := LoadMesh(cfg.MeshPath)
	if err != nil {
		return err
	}
	r.log.Info("mesh loaded",
		"path", cfg.MeshPath,
		"vertices", len(meshData.Vertices),
		"indices", len(meshData.Indices))

	mesh, err := UploadMesh(r.allocator, r.transfer, meshData)
	if err != nil {
		return err
	}
	r.mesh = mesh

	maxAnisotropy := r.physicalDevice.GetProperties().Limits.MaxSamplerAnisotropy
	texture, err := LoadTexture(r.allocator, r.transfer, r.physicalDevice, maxAnisotropy, cfg.TexturePath)
	if err != nil {
		return err
	}
	r.texture = texture
	r.log.Info("texture loaded", "path", cfg.TexturePath, "mip_levels", texture.MipLevels)

	return nil
}

func (r *Renderer) initSwapchain(Config) error {
	samples := maxSampleCount(r.physicalDevice.GetProperties().Limits)
	r.log.Info("multisampling", "samples", samples)

	r.cfg = &SwapchainConfig{
		PhysicalDevice:   r.physicalDevice,
		Device:           r.device,
		Allocator:        r.allocator,
		Transfer:         r.transfer,
		Surface:          r.surface,
		QueueFamilyIndex: r.queueFamilyIndex,
		SetLayout:        r.setLayout,
		VertModule:       r.vertModule,
		FragModule:       r.fragModule,
		CommandPool:      r.commandPool,
		Samples:          samples,
		Mesh:             r.mesh,
		Texture:          r.texture,
	}

	width, height := r.window.FramebufferSize()
	ctx, err := NewSwapchainContext(r.cfg, uint32(width), uint32(height))
	if err != nil {
		return err
	}
	r.ctx = ctx

	sync, err := NewFrameSync(r.device, len(ctx.Images))
	if err != nil {
		return err
	}
	r.sync = sync

	return nil
}

// NotifyResize flags the surface as invalidated. Safe to call from a
// window-system callback on the render thread.
func (r *Renderer) NotifyResize() {
	r.resized = true
}

// recreateSwapchain waits for the device to go idle, tears the whole
// swapchain context down and rebuilds it at the current framebuffer
// size, then resets the per-image fence table.
func (r *Renderer) recreateSwapchain() error {
	if err := r.device.WaitIdle(); err != nil {
		return markf(err, ErrSwapchain, "waiting for device before recreation")
	}

	r.ctx.Destroy()

	width, height := r.window.FramebufferSize()
	ctx, err := NewSwapchainContext(r.cfg, uint32(width), uint32(height))
	if err != nil {
		return err
	}
	r.ctx = ctx
	r.sync.ResetImages(len(ctx.Images))
	r.resized = false

	r.log.Info("swapchain recreated",
		"width", ctx.Extent.Width,
		"height", ctx.Extent.Height,
		"images", len(ctx.Images))

	return nil
}

// DrawFrame runs one iteration of the frame loop: wait on the frame
// slot, acquire, claim the image, update uniforms, submit, present.
// Stale-surface signals trigger recreation and count as a skipped
// frame; every other failure is returned to the caller.
func (r *Renderer) DrawFrame() error {
	if err := r.sync.WaitCurrent(); err != nil {
		return markf(err, ErrSwapchain, "waiting for frame fence")
	}

	slot := r.sync.CurrentSlot()

	imageIndex, err := r.device.AcquireNextImageKHR(r.ctx.Swapchain, vk.WHOLE_TIMEOUT, slot.ImageAvailable, vk.Fence{})
	if err != nil {
		if errors.Is(err, vk.OUT_OF_DATE) {
			return r.recreateSwapchain()
		}
		if !errors.Is(err, vk.SUBOPTIMAL) {
			return markf(err, ErrSwapchain, "acquiring swapchain image")
		}
		// Suboptimal still delivered a usable image; render the frame
		// and let present trigger the recreation.
	}

	if err := r.sync.ClaimImage(imageIndex); err != nil {
		return markf(err, ErrSwapchain, "waiting for image fence")
	}

	elapsed := float32(time.Since(r.start).Seconds())
	r.ctx.UpdateUniform(imageIndex, NewUniformData(elapsed, r.ctx.AspectRatio()))

	if err := r.sync.ResetCurrentFence(); err != nil {
		return markf(err, ErrSwapchain, "resetting frame fence")
	}

	if err := r.queue.Submit([]vk.SubmitInfo{{
		WaitSemaphores:   []vk.Semaphore{slot.ImageAvailable},
		WaitDstStageMask: []vk.PipelineStageFlags{vk.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT},
		CommandBuffers:   []vk.CommandBuffer{r.ctx.CommandBuffers[imageIndex]},
		SignalSemaphores: []vk.Semaphore{slot.RenderFinished},
	}}, slot.InFlight); err != nil {
		return markf(err, ErrSwapchain, "submitting frame")
	}

	presentErr := r.queue.PresentKHR(&vk.PresentInfoKHR{
		WaitSemaphores: []vk.Semaphore{slot.RenderFinished},
		Swapchains:     []vk.SwapchainKHR{r.ctx.Swapchain},
		ImageIndices:   []uint32{imageIndex},
	})

	recreate, err := classifyPresent(presentErr, r.resized)
	if err != nil {
		return err
	}
	if recreate {
		if err := r.recreateSwapchain(); err != nil {
			return err
		}
	}

	r.sync.Advance()
	return nil
}

// classifyPresent decides how a frame ends after presentation. A stale
// or suboptimal surface, or a pending window resize, asks for a
// swapchain rebuild. Any other present failure is fatal and takes
// precedence over the resize flag.
func classifyPresent(presentErr error, resized bool) (recreate bool, err error) {
	stale := errors.Is(presentErr, vk.OUT_OF_DATE) || errors.Is(presentErr, vk.SUBOPTIMAL)
	if presentErr != nil && !stale {
		return false, markf(presentErr, ErrSwapchain, "presenting frame")
	}
	return stale || resized, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (r *Renderer) WaitIdle() error {
	return r.device.WaitIdle()
}

// Destroy releases everything in reverse creation order. Safe to call
// on a partially constructed renderer.
func (r *Renderer) Destroy() {
	if r.device != (vk.Device{}) {
		// Best effort; teardown proceeds regardless.
		if err := r.device.WaitIdle(); err != nil {
			r.log.Warn("device idle wait failed during teardown", "err", err)
		}
	}

	if r.sync != nil {
		r.sync.Destroy()
		r.sync = nil
	}
	if r.ctx != nil {
		r.ctx.Destroy()
		r.ctx = nil
	}

	if r.texture != nil {
		r.texture.Destroy(r.allocator)
		r.texture = nil
	}
	if r.mesh != nil {
		r.mesh.Destroy(r.allocator)
		r.mesh = nil
	}

	if r.vertModule != (vk.ShaderModule{}) {
		r.device.DestroyShaderModule(r.vertModule)
		r.vertModule = vk.ShaderModule{}
	}
	if r.fragModule != (vk.ShaderModule{}) {
		r.device.DestroyShaderModule(r.fragModule)
		r.fragModule = vk.ShaderModule{}
	}
	if r.setLayout != (vk.DescriptorSetLayout{}) {
		r.device.DestroyDescriptorSetLayout(r.setLayout)
		r.setLayout = vk.DescriptorSetLayout{}
	}

	if r.commandPool != (vk.CommandPool{}) {
		r.device.DestroyCommandPool(r.commandPool)
		r.commandPool = vk.CommandPool{}
	}
	if r.transfer != nil {
		r.transfer.Destroy()
		r.transfer = nil
	}

	if r.device != (vk.Device{}) {
		r.device.Destroy()
		r.device = vk.Device{}
	}
	if r.surface != (vk.SurfaceKHR{}) {
		r.instance.DestroySurfaceKHR(r.surface)
		r.surface = vk.SurfaceKHR{}
	}
	if r.instance != (vk.Instance{}) {
		r.instance.Destroy()
		r.instance = vk.Instance{}
	}
}
