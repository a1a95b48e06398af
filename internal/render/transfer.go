// transfer.go
package render

import (
	"math"

	"github.com/cockroachdb/errors"

	"meshview/vk"
)

// Transfer owns a transient command pool on the graphics queue and
// runs short-lived upload work through it. Every operation records a
// fresh command buffer, submits it with its own fence and blocks until
// that fence signals, so callers may free staging resources
// immediately.
type Transfer struct {
	device vk.Device
	queue  vk.Queue
	pool   vk.CommandPool
}

func NewTransfer(device vk.Device, queue vk.Queue, queueFamilyIndex uint32) (*Transfer, error) {
	pool, err := device.CreateCommandPool(&vk.CommandPoolCreateInfo{
		Flags:            vk.COMMAND_POOL_CREATE_TRANSIENT_BIT,
		QueueFamilyIndex: queueFamilyIndex,
	})
	if err != nil {
		return nil, markf(err, ErrInitialization, "creating transfer command pool")
	}

	return &Transfer{device: device, queue: queue, pool: pool}, nil
}

func (t *Transfer) Destroy() {
	t.device.DestroyCommandPool(t.pool)
}

// oneShot records commands into a single-use buffer, submits it with a
// fresh fence and blocks until that fence signals. The buffer and
// fence are freed before returning.
func (t *Transfer) oneShot(record func(cmd vk.CommandBuffer)) error {
	buffers, err := t.device.AllocateCommandBuffers(&vk.CommandBufferAllocateInfo{
		CommandPool:        t.pool,
		Level:              vk.COMMAND_BUFFER_LEVEL_PRIMARY,
		CommandBufferCount: 1,
	})
	if err != nil {
		return markf(err, ErrTransfer, "allocating one-shot command buffer")
	}
	cmd := buffers[0]
	defer t.device.FreeCommandBuffers(t.pool, buffers)

	if err := cmd.Begin(&vk.CommandBufferBeginInfo{
		Flags: vk.COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT,
	}); err != nil {
		return markf(err, ErrTransfer, "beginning one-shot command buffer")
	}

	record(cmd)

	if err := cmd.End(); err != nil {
		return markf(err, ErrTransfer, "ending one-shot command buffer")
	}

	fence, err := t.device.CreateFence(&vk.FenceCreateInfo{})
	if err != nil {
		return markf(err, ErrTransfer, "creating one-shot fence")
	}
	defer t.device.DestroyFence(fence)

	if err := t.queue.Submit([]vk.SubmitInfo{{
		CommandBuffers: []vk.CommandBuffer{cmd},
	}}, fence); err != nil {
		return markf(err, ErrTransfer, "submitting one-shot command buffer")
	}

	if err := t.device.WaitForFences([]vk.Fence{fence}, true, vk.WHOLE_TIMEOUT); err != nil {
		return markf(err, ErrTransfer, "waiting for one-shot fence")
	}

	return nil
}

// CopyBuffer copies size bytes from src to dst starting at offset 0.
func (t *Transfer) CopyBuffer(src, dst vk.Buffer, size uint64) error {
	return t.oneShot(func(cmd vk.CommandBuffer) {
		cmd.CopyBuffer(src, dst, []vk.BufferCopy{{Size: size}})
	})
}

// CopyBufferToImage copies tightly packed pixel data into mip level 0.
func (t *Transfer) CopyBufferToImage(buffer vk.Buffer, image vk.Image, width, height uint32) error {
	return t.oneShot(func(cmd vk.CommandBuffer) {
		cmd.CopyBufferToImage(buffer, image, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, []vk.BufferImageCopy{{
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
				LayerCount: 1,
			},
			ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
		}})
	})
}

// TransitionImageLayout moves all mip levels of an image between
// layouts. Only the transitions the renderer actually performs are
// supported; anything else is rejected.
func (t *Transfer) TransitionImageLayout(image vk.Image, aspect vk.ImageAspectFlags, mipLevels uint32, oldLayout, newLayout vk.ImageLayout) error {
	var (
		srcAccess, dstAccess vk.AccessFlags
		srcStage, dstStage   vk.PipelineStageFlags
	)

	switch {
	case oldLayout == vk.IMAGE_LAYOUT_UNDEFINED && newLayout == vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL:
		srcAccess = vk.ACCESS_NONE
		dstAccess = vk.ACCESS_TRANSFER_WRITE_BIT
		srcStage = vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT
		dstStage = vk.PIPELINE_STAGE_TRANSFER_BIT

	case oldLayout == vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL && newLayout == vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL:
		srcAccess = vk.ACCESS_TRANSFER_WRITE_BIT
		dstAccess = vk.ACCESS_SHADER_READ_BIT
		srcStage = vk.PIPELINE_STAGE_TRANSFER_BIT
		dstStage = vk.PIPELINE_STAGE_FRAGMENT_SHADER_BIT

	case oldLayout == vk.IMAGE_LAYOUT_UNDEFINED && newLayout == vk.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL:
		srcAccess = vk.ACCESS_NONE
		dstAccess = vk.ACCESS_DEPTH_STENCIL_ATTACHMENT_READ_BIT | vk.ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT
		srcStage = vk.PIPELINE_STAGE_TOP_OF_PIPE_BIT
		dstStage = vk.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT

	default:
		return errors.Wrapf(ErrTransfer, "unsupported layout transition %d -> %d", oldLayout, newLayout)
	}

	return t.oneShot(func(cmd vk.CommandBuffer) {
		cmd.PipelineBarrier(srcStage, dstStage, 0, []vk.ImageMemoryBarrier{{
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
			DstQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
			Image:               image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: aspect,
				LevelCount: mipLevels,
				LayerCount: 1,
			},
		}})
	})
}

// mipLevelCount returns the length of the full mip chain for a base
// level of the given dimensions, counting the base level itself.
func mipLevelCount(width, height uint32) uint32 {
	longest := width
	if height > longest {
		longest = height
	}
	return uint32(math.Floor(math.Log2(float64(longest)))) + 1
}

// nextMipDim halves a mip dimension, clamping at one texel.
func nextMipDim(dim int32) int32 {
	if dim > 1 {
		return dim / 2
	}
	return 1
}

// GenerateMipmaps fills levels 1..mipLevels-1 of an image by repeated
// halving blits from the previous level, then leaves every level in
// SHADER_READ_ONLY_OPTIMAL. The image must hold its base level in
// TRANSFER_DST_OPTIMAL on entry. Fails up front when the format does
// not support linear filtered blits with optimal tiling.
func (t *Transfer) GenerateMipmaps(physicalDevice vk.PhysicalDevice, image vk.Image, format vk.Format, width, height, mipLevels uint32) error {
	formatProps := physicalDevice.GetFormatProperties(format)
	if formatProps.OptimalTilingFeatures&vk.FORMAT_FEATURE_SAMPLED_IMAGE_FILTER_LINEAR_BIT == 0 {
		return errors.Wrapf(ErrUnsupportedBlitFormat, "format %d", format)
	}

	return t.oneShot(func(cmd vk.CommandBuffer) {
		barrier := vk.ImageMemoryBarrier{
			SrcQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
			DstQueueFamilyIndex: vk.QUEUE_FAMILY_IGNORED,
			Image:               image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
				LevelCount: 1,
				LayerCount: 1,
			},
		}

		mipWidth := int32(width)
		mipHeight := int32(height)

		for level := uint32(1); level < mipLevels; level++ {
			// Level i-1 becomes the blit source.
			barrier.SubresourceRange.BaseMipLevel = level - 1
			barrier.OldLayout = vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL
			barrier.NewLayout = vk.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL
			barrier.SrcAccessMask = vk.ACCESS_TRANSFER_WRITE_BIT
			barrier.DstAccessMask = vk.ACCESS_TRANSFER_READ_BIT
			cmd.PipelineBarrier(vk.PIPELINE_STAGE_TRANSFER_BIT, vk.PIPELINE_STAGE_TRANSFER_BIT, 0,
				[]vk.ImageMemoryBarrier{barrier})

			dstWidth := nextMipDim(mipWidth)
			dstHeight := nextMipDim(mipHeight)

			cmd.BlitImage(
				image, vk.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL,
				image, vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL,
				[]vk.ImageBlit{{
					SrcSubresource: vk.ImageSubresourceLayers{
						AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
						MipLevel:   level - 1,
						LayerCount: 1,
					},
					SrcOffsets: [2]vk.Offset3D{{}, {X: mipWidth, Y: mipHeight, Z: 1}},
					DstSubresource: vk.ImageSubresourceLayers{
						AspectMask: vk.IMAGE_ASPECT_COLOR_BIT,
						MipLevel:   level,
						LayerCount: 1,
					},
					DstOffsets: [2]vk.Offset3D{{}, {X: dstWidth, Y: dstHeight, Z: 1}},
				}},
				vk.FILTER_LINEAR,
			)

			// The source level is final, hand it to the shader.
			barrier.OldLayout = vk.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL
			barrier.NewLayout = vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL
			barrier.SrcAccessMask = vk.ACCESS_TRANSFER_READ_BIT
			barrier.DstAccessMask = vk.ACCESS_SHADER_READ_BIT
			cmd.PipelineBarrier(vk.PIPELINE_STAGE_TRANSFER_BIT, vk.PIPELINE_STAGE_FRAGMENT_SHADER_BIT, 0,
				[]vk.ImageMemoryBarrier{barrier})

			mipWidth = dstWidth
			mipHeight = dstHeight
		}

		// The last level was only ever a blit destination.
		barrier.SubresourceRange.BaseMipLevel = mipLevels - 1
		barrier.OldLayout = vk.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL
		barrier.NewLayout = vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL
		barrier.SrcAccessMask = vk.ACCESS_TRANSFER_WRITE_BIT
		barrier.DstAccessMask = vk.ACCESS_SHADER_READ_BIT
		cmd.PipelineBarrier(vk.PIPELINE_STAGE_TRANSFER_BIT, vk.PIPELINE_STAGE_FRAGMENT_SHADER_BIT, 0,
			[]vk.ImageMemoryBarrier{barrier})
	})
}
