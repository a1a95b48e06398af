package vk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func memPropsWith(flags ...MemoryPropertyFlags) PhysicalDeviceMemoryProperties {
	props := PhysicalDeviceMemoryProperties{MemoryTypeCount: uint32(len(flags))}
	for i, f := range flags {
		props.MemoryTypes[i] = MemoryType{PropertyFlags: f}
	}
	return props
}

func TestFindMemoryTypePicksLowestIndex(t *testing.T) {
	props := memPropsWith(
		MEMORY_PROPERTY_DEVICE_LOCAL_BIT,
		MEMORY_PROPERTY_HOST_VISIBLE_BIT|MEMORY_PROPERTY_HOST_COHERENT_BIT,
		MEMORY_PROPERTY_HOST_VISIBLE_BIT|MEMORY_PROPERTY_HOST_COHERENT_BIT,
	)

	index, ok := FindMemoryType(props, 0b111, MEMORY_PROPERTY_HOST_VISIBLE_BIT|MEMORY_PROPERTY_HOST_COHERENT_BIT)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), index)
}

func TestFindMemoryTypeRespectsTypeFilter(t *testing.T) {
	props := memPropsWith(
		MEMORY_PROPERTY_DEVICE_LOCAL_BIT,
		MEMORY_PROPERTY_DEVICE_LOCAL_BIT,
	)

	// Bit 0 is masked out, so index 1 must win even though index 0
	// has the right properties.
	index, ok := FindMemoryType(props, 0b10, MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), index)
}

func TestFindMemoryTypeRequiresPropertySuperset(t *testing.T) {
	props := memPropsWith(MEMORY_PROPERTY_HOST_VISIBLE_BIT)

	_, ok := FindMemoryType(props, 0b1, MEMORY_PROPERTY_HOST_VISIBLE_BIT|MEMORY_PROPERTY_HOST_COHERENT_BIT)
	assert.False(t, ok)
}

func TestFindMemoryTypeNoMatch(t *testing.T) {
	props := memPropsWith(MEMORY_PROPERTY_DEVICE_LOCAL_BIT)

	_, ok := FindMemoryType(props, 0, MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	assert.False(t, ok)
}
