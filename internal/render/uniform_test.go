package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestUniformBufferSize(t *testing.T) {
	// Three tightly packed mat4s.
	assert.Equal(t, uint64(192), UniformBufferSize)
}

func TestUniformModelStartsAtIdentity(t *testing.T) {
	ubo := NewUniformData(0, 4.0/3.0)

	assert.Equal(t, mgl32.Ident4(), ubo.Model)
}

func TestUniformModelQuarterTurnPerSecond(t *testing.T) {
	ubo := NewUniformData(1, 4.0/3.0)

	expected := mgl32.HomogRotate3DZ(mgl32.DegToRad(90))
	assert.InDeltaSlice(t, expected[:], ubo.Model[:], 1e-6)
}

func TestUniformProjectionFlipsY(t *testing.T) {
	ubo := NewUniformData(0, 4.0/3.0)

	// Vulkan clip space points Y down; the GL-convention projection
	// must be flipped.
	assert.Negative(t, ubo.Proj[5])
}

func TestUniformBytesLength(t *testing.T) {
	ubo := NewUniformData(0.5, 1)

	assert.Len(t, ubo.Bytes(), int(UniformBufferSize))
}
