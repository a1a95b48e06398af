// frame.go
package render

import (
	"meshview/vk"
)

// MaxFramesInFlight bounds how many frames of GPU work may be
// outstanding before the CPU blocks.
const MaxFramesInFlight = 2

// FrameSlot is one reusable synchronization unit: a semaphore pair
// ordering acquire, submit and present within a frame, and a fence
// bounding CPU/GPU overlap across frames.
type FrameSlot struct {
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       vk.Fence
}

// FrameSync cycles through MaxFramesInFlight slots and tracks which
// slot fence last targeted each swapchain image.
type FrameSync struct {
	device vk.Device

	slots          [MaxFramesInFlight]FrameSlot
	ImagesInFlight []vk.Fence
	current        int
}

func NewFrameSync(device vk.Device, imageCount int) (*FrameSync, error) {
	fs := &FrameSync{device: device}

	for i := range fs.slots {
		imageAvailable, err := device.CreateSemaphore(&vk.SemaphoreCreateInfo{})
		if err != nil {
			fs.Destroy()
			return nil, markf(err, ErrInitialization, "creating acquire semaphore %d", i)
		}
		fs.slots[i].ImageAvailable = imageAvailable

		renderFinished, err := device.CreateSemaphore(&vk.SemaphoreCreateInfo{})
		if err != nil {
			fs.Destroy()
			return nil, markf(err, ErrInitialization, "creating present semaphore %d", i)
		}
		fs.slots[i].RenderFinished = renderFinished

		// Signaled at creation so the first wait on each slot returns
		// immediately.
		fence, err := device.CreateFence(&vk.FenceCreateInfo{Flags: vk.FENCE_CREATE_SIGNALED_BIT})
		if err != nil {
			fs.Destroy()
			return nil, markf(err, ErrInitialization, "creating frame fence %d", i)
		}
		fs.slots[i].InFlight = fence
	}

	fs.ResetImages(imageCount)
	return fs, nil
}

// ResetImages resizes the per-image fence table to the new swapchain
// image count with every entry back at the null sentinel. Called on
// creation and after every swapchain rebuild.
func (fs *FrameSync) ResetImages(imageCount int) {
	fs.ImagesInFlight = make([]vk.Fence, imageCount)
}

// CurrentSlot returns the synchronization objects for the frame being
// recorded.
func (fs *FrameSync) CurrentSlot() FrameSlot {
	return fs.slots[fs.current]
}

// WaitCurrent blocks until the current slot's previous submission has
// finished on the GPU.
func (fs *FrameSync) WaitCurrent() error {
	slot := fs.slots[fs.current]
	return fs.device.WaitForFences([]vk.Fence{slot.InFlight}, true, vk.WHOLE_TIMEOUT)
}

// ClaimImage waits until the submission that last rendered to the
// image has finished, then records the current slot's fence as that
// image's owner. Without this a frame could start overwriting an
// image an older frame is still presenting from.
func (fs *FrameSync) ClaimImage(imageIndex uint32) error {
	if inFlight := fs.ImagesInFlight[imageIndex]; !inFlight.IsNull() {
		if err := fs.device.WaitForFences([]vk.Fence{inFlight}, true, vk.WHOLE_TIMEOUT); err != nil {
			return err
		}
	}
	fs.ImagesInFlight[imageIndex] = fs.slots[fs.current].InFlight
	return nil
}

// ResetCurrentFence prepares the slot fence for resubmission. Done
// only once this frame is certain to submit, otherwise a skipped
// frame would deadlock the next wait.
func (fs *FrameSync) ResetCurrentFence() error {
	return fs.device.ResetFences([]vk.Fence{fs.slots[fs.current].InFlight})
}

// Advance moves on to the next frame slot.
func (fs *FrameSync) Advance() {
	fs.current = (fs.current + 1) % MaxFramesInFlight
}

func (fs *FrameSync) Destroy() {
	for i := range fs.slots {
		if fs.slots[i].ImageAvailable != (vk.Semaphore{}) {
			fs.device.DestroySemaphore(fs.slots[i].ImageAvailable)
		}
		if fs.slots[i].RenderFinished != (vk.Semaphore{}) {
			fs.device.DestroySemaphore(fs.slots[i].RenderFinished)
		}
		if !fs.slots[i].InFlight.IsNull() {
			fs.device.DestroyFence(fs.slots[i].InFlight)
		}
		fs.slots[i] = FrameSlot{}
	}
}
