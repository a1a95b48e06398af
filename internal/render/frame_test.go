package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshview/vk"
)

func TestResetImagesReturnsAllNullFences(t *testing.T) {
	fs := &FrameSync{}
	fs.ResetImages(3)

	assert.Len(t, fs.ImagesInFlight, 3)
	for _, fence := range fs.ImagesInFlight {
		assert.True(t, fence.IsNull())
	}
}

func TestResetImagesResizesOnRecreation(t *testing.T) {
	fs := &FrameSync{}
	fs.ResetImages(3)
	fs.ResetImages(5)

	assert.Len(t, fs.ImagesInFlight, 5)
	for _, fence := range fs.ImagesInFlight {
		assert.True(t, fence.IsNull())
	}
}

func TestAdvanceWrapsAroundFrameSlots(t *testing.T) {
	fs := &FrameSync{}

	assert.Equal(t, 0, fs.current)
	fs.Advance()
	assert.Equal(t, 1, fs.current)
	fs.Advance()
	assert.Equal(t, 0, fs.current)
}

func TestNullFenceSentinel(t *testing.T) {
	assert.True(t, vk.Fence{}.IsNull())
}

func TestClaimImageRecordsCurrentSlotFence(t *testing.T) {
	fs := &FrameSync{}
	fs.ResetImages(3)

	require.NoError(t, fs.ClaimImage(1))
	assert.Equal(t, fs.CurrentSlot().InFlight, fs.ImagesInFlight[1])

	fs.Advance()
	require.NoError(t, fs.ClaimImage(2))
	assert.Equal(t, fs.CurrentSlot().InFlight, fs.ImagesInFlight[2])
}

func TestSlotCountBoundsFramesInFlight(t *testing.T) {
	fs := &FrameSync{}

	assert.Len(t, fs.slots, MaxFramesInFlight)
	assert.Equal(t, 2, MaxFramesInFlight)
}
