// uniform.go
package render

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformBufferObject matches the std140 block at binding 0 of the
// vertex shader. Three column-major 4x4 matrices need no padding.
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

const UniformBufferSize = uint64(unsafe.Sizeof(UniformBufferObject{}))

var (
	cameraEye    = mgl32.Vec3{0, -12, 5}
	cameraCenter = mgl32.Vec3{0, 0, 0}
	cameraUp     = mgl32.Vec3{0, 0, 1}
)

// NewUniformData builds the per-frame matrices: the model spins around
// the Z axis at a quarter turn per second, the camera is fixed, and
// the projection flips Y to map GL clip conventions onto Vulkan's.
func NewUniformData(elapsedSeconds float32, aspect float32) UniformBufferObject {
	ubo := UniformBufferObject{
		Model: mgl32.HomogRotate3DZ(elapsedSeconds * mgl32.DegToRad(90)),
		View:  mgl32.LookAtV(cameraEye, cameraCenter, cameraUp),
		Proj:  mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 100),
	}
	ubo.Proj[5] *= -1
	return ubo
}

func (ubo *UniformBufferObject) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ubo)), UniformBufferSize)
}
