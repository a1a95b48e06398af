// allocator.go
package render

import (
	"github.com/cockroachdb/errors"

	"meshview/vk"
)

// Allocator creates buffers and images together with their backing
// device memory. Memory type selection always picks the lowest index
// whose bit is set in the requirement mask and whose property flags
// are a superset of the requested flags.
type Allocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

func NewAllocator(device vk.Device, physicalDevice vk.PhysicalDevice) *Allocator {
	return &Allocator{
		device:        device,
		memProperties: physicalDevice.GetMemoryProperties(),
	}
}

// BoundBuffer is a buffer with its dedicated memory binding.
type BoundBuffer struct {
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
}

// BoundImage is an image with its dedicated memory binding.
type BoundImage struct {
	Image  vk.Image
	Memory vk.DeviceMemory
}

func (a *Allocator) CreateBuffer(size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (BoundBuffer, error) {
	buffer, err := a.device.CreateBuffer(&vk.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SHARING_MODE_EXCLUSIVE,
	})
	if err != nil {
		return BoundBuffer{}, markf(err, ErrResourceCreation, "creating buffer of %d bytes", size)
	}

	memReqs := a.device.GetBufferMemoryRequirements(buffer)

	memory, err := a.allocate(memReqs, properties)
	if err != nil {
		a.device.DestroyBuffer(buffer)
		return BoundBuffer{}, err
	}

	if err := a.device.BindBufferMemory(buffer, memory, 0); err != nil {
		a.device.FreeMemory(memory)
		a.device.DestroyBuffer(buffer)
		return BoundBuffer{}, markf(err, ErrResourceCreation, "binding buffer memory")
	}

	return BoundBuffer{Buffer: buffer, Memory: memory, Size: size}, nil
}

func (a *Allocator) CreateImage(createInfo *vk.ImageCreateInfo, properties vk.MemoryPropertyFlags) (BoundImage, error) {
	image, err := a.device.CreateImage(createInfo)
	if err != nil {
		return BoundImage{}, markf(err, ErrResourceCreation, "creating %dx%d image", createInfo.Extent.Width, createInfo.Extent.Height)
	}

	memReqs := a.device.GetImageMemoryRequirements(image)

	memory, err := a.allocate(memReqs, properties)
	if err != nil {
		a.device.DestroyImage(image)
		return BoundImage{}, err
	}

	if err := a.device.BindImageMemory(image, memory, 0); err != nil {
		a.device.FreeMemory(memory)
		a.device.DestroyImage(image)
		return BoundImage{}, markf(err, ErrResourceCreation, "binding image memory")
	}

	return BoundImage{Image: image, Memory: memory}, nil
}

func (a *Allocator) allocate(memReqs vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	typeIndex, ok := vk.FindMemoryType(a.memProperties, memReqs.MemoryTypeBits, properties)
	if !ok {
		return vk.DeviceMemory{}, errors.Wrapf(ErrNoSuitableMemoryType,
			"type bits %#x, properties %#x", memReqs.MemoryTypeBits, properties)
	}

	memory, err := a.device.AllocateMemory(&vk.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: typeIndex,
	})
	if err != nil {
		return vk.DeviceMemory{}, markf(err, ErrResourceCreation, "allocating %d bytes of device memory", memReqs.Size)
	}

	return memory, nil
}

func (a *Allocator) DestroyBuffer(b BoundBuffer) {
	a.device.DestroyBuffer(b.Buffer)
	a.device.FreeMemory(b.Memory)
}

func (a *Allocator) DestroyImage(img BoundImage) {
	a.device.DestroyImage(img.Image)
	a.device.FreeMemory(img.Memory)
}
