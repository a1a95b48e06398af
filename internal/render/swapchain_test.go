package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"meshview/vk"
)

func TestChooseSurfaceFormatPrefersSRGB(t *testing.T) {
	formats := []vk.SurfaceFormatKHR{
		{Format: vk.FORMAT_R8G8B8A8_UNORM, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR},
		{Format: vk.FORMAT_B8G8R8A8_SRGB, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR},
	}

	assert.Equal(t, preferredSurfaceFormat, chooseSurfaceFormat(formats))
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []vk.SurfaceFormatKHR{
		{Format: vk.FORMAT_R8G8B8A8_UNORM, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR},
		{Format: vk.FORMAT_B8G8R8A8_UNORM, ColorSpace: vk.COLOR_SPACE_SRGB_NONLINEAR_KHR},
	}

	assert.Equal(t, formats[0], chooseSurfaceFormat(formats))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PRESENT_MODE_MAILBOX_KHR, choosePresentMode([]vk.PresentModeKHR{
		vk.PRESENT_MODE_FIFO_KHR,
		vk.PRESENT_MODE_MAILBOX_KHR,
	}))

	assert.Equal(t, vk.PRESENT_MODE_FIFO_KHR, choosePresentMode([]vk.PresentModeKHR{
		vk.PRESENT_MODE_FIFO_KHR,
		vk.PRESENT_MODE_IMMEDIATE_KHR,
	}))
}

func TestChooseExtentUsesFixedCurrentExtent(t *testing.T) {
	caps := vk.SurfaceCapabilitiesKHR{
		CurrentExtent:  vk.Extent2D{Width: 640, Height: 480},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	// The framebuffer size is ignored when the surface dictates the
	// extent.
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, chooseExtent(caps, 800, 600))
}

func TestChooseExtentClampsPerDimension(t *testing.T) {
	caps := vk.SurfaceCapabilitiesKHR{
		CurrentExtent:  vk.Extent2D{Width: undefinedExtent, Height: undefinedExtent},
		MinImageExtent: vk.Extent2D{Width: 200, Height: 200},
		MaxImageExtent: vk.Extent2D{Width: 1000, Height: 500},
	}

	assert.Equal(t, vk.Extent2D{Width: 800, Height: 500}, chooseExtent(caps, 800, 600))
	assert.Equal(t, vk.Extent2D{Width: 200, Height: 200}, chooseExtent(caps, 100, 100))
	assert.Equal(t, vk.Extent2D{Width: 1000, Height: 500}, chooseExtent(caps, 2000, 2000))
}

func TestChooseExtentResize(t *testing.T) {
	caps := vk.SurfaceCapabilitiesKHR{
		CurrentExtent:  vk.Extent2D{Width: undefinedExtent, Height: undefinedExtent},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, chooseExtent(caps, 800, 600))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), chooseImageCount(vk.SurfaceCapabilitiesKHR{
		MinImageCount: 2,
		MaxImageCount: 8,
	}))

	// Bounded by the surface maximum.
	assert.Equal(t, uint32(2), chooseImageCount(vk.SurfaceCapabilitiesKHR{
		MinImageCount: 2,
		MaxImageCount: 2,
	}))

	// Zero means no maximum.
	assert.Equal(t, uint32(4), chooseImageCount(vk.SurfaceCapabilitiesKHR{
		MinImageCount: 3,
		MaxImageCount: 0,
	}))
}
