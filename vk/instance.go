// instance.go
package vk

// #cgo windows LDFLAGS: -LC:/VulkanSDK/1.4.328.1/Lib -lvulkan-1
// #cgo windows CFLAGS: -IC:/VulkanSDK/1.4.328.1/Include
// #cgo linux LDFLAGS: -L/usr/lib/x86_64-linux-gnu -lvulkan
// #cgo darwin LDFLAGS: -lvulkan
// #include <vulkan/vulkan.h>
// #include <stdlib.h>
import "C"
import "unsafe"

type Instance struct {
	handle C.VkInstance
}

type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	ApiVersion         uint32
}

type InstanceCreateInfo struct {
	Flags                 uint32
	ApplicationInfo       *ApplicationInfo
	EnabledLayerNames     []string
	EnabledExtensionNames []string
}

const API_VERSION_1_3 uint32 = (1 << 22) | (3 << 12)

func MakeVersion(major, minor, patch uint32) uint32 {
	return (major << 22) | (minor << 12) | patch
}

type LayerProperties struct {
	LayerName   string
	Description string
}

func EnumerateInstanceLayerProperties() ([]LayerProperties, error) {
	var count C.uint32_t
	result := C.vkEnumerateInstanceLayerProperties(&count, nil)

	if result != C.VK_SUCCESS {
		return nil, Result(result)
	}

	if count == 0 {
		return nil, nil
	}

	props := make([]C.VkLayerProperties, count)
	result = C.vkEnumerateInstanceLayerProperties(&count, &props[0])

	if result != C.VK_SUCCESS {
		return nil, Result(result)
	}

	goProps := make([]LayerProperties, count)
	for i := range goProps {
		goProps[i] = LayerProperties{
			LayerName:   C.GoString(&props[i].layerName[0]),
			Description: C.GoString(&props[i].description[0]),
		}
	}

	return goProps, nil
}

func CreateInstance(createInfo *InstanceCreateInfo) (Instance, error) {
	data := createInfo.vulkanize()
	defer data.free()

	var instance C.VkInstance
	result := C.vkCreateInstance(data.cInfo, nil, &instance)

	if result != C.VK_SUCCESS {
		return Instance{}, Result(result)
	}

	return Instance{handle: instance}, nil
}

func (instance Instance) Destroy() {
	C.vkDestroyInstance(instance.handle, nil)
}

func (instance Instance) EnumeratePhysicalDevices() ([]PhysicalDevice, error) {
	var count C.uint32_t
	result := C.vkEnumeratePhysicalDevices(instance.handle, &count, nil)

	if result != C.VK_SUCCESS {
		return nil, Result(result)
	}

	if count == 0 {
		return nil, nil
	}

	devices := make([]C.VkPhysicalDevice, count)
	result = C.vkEnumeratePhysicalDevices(instance.handle, &count, &devices[0])

	if result != C.VK_SUCCESS {
		return nil, Result(result)
	}

	goDevices := make([]PhysicalDevice, count)
	for i := range goDevices {
		goDevices[i] = PhysicalDevice{handle: devices[i]}
	}

	return goDevices, nil
}

// Handle returns the raw VkInstance for window-system integration.
func (instance Instance) Handle() unsafe.Pointer {
	return unsafe.Pointer(instance.handle)
}
