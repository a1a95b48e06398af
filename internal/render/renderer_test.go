package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshview/vk"
)

func TestClassifyPresent(t *testing.T) {
	tests := []struct {
		name       string
		presentErr error
		resized    bool
		recreate   bool
		fatal      bool
	}{
		{name: "clean present continues", presentErr: nil, resized: false, recreate: false},
		{name: "suboptimal recreates", presentErr: vk.SUBOPTIMAL, resized: false, recreate: true},
		{name: "out of date recreates", presentErr: vk.OUT_OF_DATE, resized: false, recreate: true},
		{name: "resize flag recreates", presentErr: nil, resized: true, recreate: true},
		{name: "device lost is fatal", presentErr: vk.DEVICE_LOST, resized: false, fatal: true},
		{name: "device lost outranks resize flag", presentErr: vk.DEVICE_LOST, resized: true, fatal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recreate, err := classifyPresent(tt.presentErr, tt.resized)

			if tt.fatal {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrSwapchain)
				assert.ErrorIs(t, err, tt.presentErr)
				assert.False(t, recreate)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.recreate, recreate)
		})
	}
}
