package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMipLevelCount(t *testing.T) {
	assert.Equal(t, uint32(11), mipLevelCount(1024, 768))
	assert.Equal(t, uint32(11), mipLevelCount(768, 1024))
	assert.Equal(t, uint32(10), mipLevelCount(512, 512))
	assert.Equal(t, uint32(1), mipLevelCount(1, 1))
	assert.Equal(t, uint32(9), mipLevelCount(256, 1))
}

func TestMipDimensionSequence(t *testing.T) {
	var widths, heights []int32

	width, height := int32(1024), int32(768)
	widths = append(widths, width)
	heights = append(heights, height)
	for level := uint32(1); level < mipLevelCount(1024, 768); level++ {
		width = nextMipDim(width)
		height = nextMipDim(height)
		widths = append(widths, width)
		heights = append(heights, height)
	}

	assert.Equal(t, []int32{1024, 512, 256, 128, 64, 32, 16, 8, 4, 2, 1}, widths)
	assert.Equal(t, []int32{768, 384, 192, 96, 48, 24, 12, 6, 3, 1, 1}, heights)
}

func TestNextMipDimClampsAtOne(t *testing.T) {
	assert.Equal(t, int32(1), nextMipDim(1))
	assert.Equal(t, int32(1), nextMipDim(2))
	assert.Equal(t, int32(1), nextMipDim(3))
	assert.Equal(t, int32(2), nextMipDim(5))
}
