package vk

/*
#include <vulkan/vulkan.h>
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"
)

// instanceCreateData keeps every C allocation made while marshalling an
// InstanceCreateInfo so free() releases exactly what vulkanize() allocated.
type instanceCreateData struct {
	cInfo   *C.VkInstanceCreateInfo
	appInfo *C.VkApplicationInfo
	strings []unsafe.Pointer
	layers  []*C.char
	exts    []*C.char
}

func (data *instanceCreateData) cstring(s string) *C.char {
	cs := C.CString(s)
	data.strings = append(data.strings, unsafe.Pointer(cs))
	return cs
}

func (info *InstanceCreateInfo) vulkanize() *instanceCreateData {
	data := &instanceCreateData{}

	data.cInfo = (*C.VkInstanceCreateInfo)(C.calloc(1, C.sizeof_VkInstanceCreateInfo))
	data.cInfo.sType = C.VK_STRUCTURE_TYPE_INSTANCE_CREATE_INFO
	data.cInfo.pNext = nil
	data.cInfo.flags = C.VkInstanceCreateFlags(info.Flags)

	// Application info
	if info.ApplicationInfo != nil {
		data.appInfo = (*C.VkApplicationInfo)(C.calloc(1, C.sizeof_VkApplicationInfo))
		data.appInfo.sType = C.VK_STRUCTURE_TYPE_APPLICATION_INFO
		data.appInfo.pNext = nil

		if info.ApplicationInfo.ApplicationName != "" {
			data.appInfo.pApplicationName = data.cstring(info.ApplicationInfo.ApplicationName)
		}
		data.appInfo.applicationVersion = C.uint32_t(info.ApplicationInfo.ApplicationVersion)

		if info.ApplicationInfo.EngineName != "" {
			data.appInfo.pEngineName = data.cstring(info.ApplicationInfo.EngineName)
		}
		data.appInfo.engineVersion = C.uint32_t(info.ApplicationInfo.EngineVersion)
		data.appInfo.apiVersion = C.uint32_t(info.ApplicationInfo.ApiVersion)

		data.cInfo.pApplicationInfo = data.appInfo
	}

	// Layers
	if len(info.EnabledLayerNames) > 0 {
		data.layers = make([]*C.char, len(info.EnabledLayerNames))
		for i, layer := range info.EnabledLayerNames {
			data.layers[i] = data.cstring(layer)
		}
		data.cInfo.enabledLayerCount = C.uint32_t(len(data.layers))
		data.cInfo.ppEnabledLayerNames = &data.layers[0]
	}

	// Extensions
	if len(info.EnabledExtensionNames) > 0 {
		data.exts = make([]*C.char, len(info.EnabledExtensionNames))
		for i, ext := range info.EnabledExtensionNames {
			data.exts[i] = data.cstring(ext)
		}
		data.cInfo.enabledExtensionCount = C.uint32_t(len(data.exts))
		data.cInfo.ppEnabledExtensionNames = &data.exts[0]
	}

	return data
}

func (data *instanceCreateData) free() {
	for _, ptr := range data.strings {
		C.free(ptr)
	}

	if data.appInfo != nil {
		C.free(unsafe.Pointer(data.appInfo))
	}

	if data.cInfo != nil {
		C.free(unsafe.Pointer(data.cInfo))
	}
}
