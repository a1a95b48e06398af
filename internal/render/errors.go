// errors.go
package render

import "github.com/cockroachdb/errors"

// Sentinel errors for the renderer. Call sites wrap the underlying
// driver result with errors.Wrapf and mark it with errors.Mark so
// callers can classify failures with errors.Is without losing the
// original VkResult.
var (
	ErrInitialization        = errors.New("renderer initialization failed")
	ErrResourceCreation      = errors.New("resource creation failed")
	ErrNoSuitableMemoryType  = errors.New("no suitable memory type")
	ErrTransfer              = errors.New("transfer submission failed")
	ErrUnsupportedBlitFormat = errors.New("format does not support linear blit")
	ErrSwapchain             = errors.New("swapchain operation failed")
	ErrAsset                 = errors.New("asset load failed")
)

func markf(err, sentinel error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), sentinel)
}
