package render

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"meshview/vk"
)

func TestMarkfClassifiesAndPreservesCause(t *testing.T) {
	err := markf(vk.OUT_OF_DATE, ErrSwapchain, "presenting frame %d", 7)

	assert.ErrorIs(t, err, ErrSwapchain)
	assert.ErrorIs(t, err, vk.OUT_OF_DATE)
	assert.Contains(t, err.Error(), "presenting frame 7")
}

func TestSentinelsAreDistinct(t *testing.T) {
	err := errors.Wrap(ErrNoSuitableMemoryType, "type bits 0x0")

	assert.ErrorIs(t, err, ErrNoSuitableMemoryType)
	assert.NotErrorIs(t, err, ErrResourceCreation)
}
