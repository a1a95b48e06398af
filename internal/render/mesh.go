// mesh.go
package render

import (
	"math"
	"unsafe"

	"github.com/udhos/gwob"

	"meshview/vk"
)

// Vertex is the interleaved attribute layout fed to the vertex shader:
// position, color, texture coordinate, normal.
type Vertex struct {
	Pos      [3]float32
	Color    [3]float32
	TexCoord [2]float32
	Normal   [3]float32
}

const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// Attribute locations and byte offsets matching the Vertex layout.
var VertexAttributes = []vk.VertexInputAttributeDescription{
	{Location: 0, Binding: 0, Format: vk.FORMAT_R32G32B32_SFLOAT, Offset: uint32(unsafe.Offsetof(Vertex{}.Pos))},
	{Location: 1, Binding: 0, Format: vk.FORMAT_R32G32B32_SFLOAT, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
	{Location: 2, Binding: 0, Format: vk.FORMAT_R32G32_SFLOAT, Offset: uint32(unsafe.Offsetof(Vertex{}.TexCoord))},
	{Location: 3, Binding: 0, Format: vk.FORMAT_R32G32B32_SFLOAT, Offset: uint32(unsafe.Offsetof(Vertex{}.Normal))},
}

var (
	defaultColor  = [3]float32{1, 1, 1}
	defaultNormal = [3]float32{0, 0, 1}
)

// MeshData holds deduplicated geometry on the host.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

func (m *MeshData) VertexBytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Vertices[0])), len(m.Vertices)*int(VertexStride))
}

func (m *MeshData) IndexBytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Indices[0])), len(m.Indices)*4)
}

// vertexKey is the exact bit pattern of every attribute. Two vertices
// collapse to one index only when all attribute bits match, so -0 and
// +0 stay distinct and float rounding never merges nearby vertices.
type vertexKey [11]uint32

func keyOf(v Vertex) vertexKey {
	return vertexKey{
		math.Float32bits(v.Pos[0]), math.Float32bits(v.Pos[1]), math.Float32bits(v.Pos[2]),
		math.Float32bits(v.Color[0]), math.Float32bits(v.Color[1]), math.Float32bits(v.Color[2]),
		math.Float32bits(v.TexCoord[0]), math.Float32bits(v.TexCoord[1]),
		math.Float32bits(v.Normal[0]), math.Float32bits(v.Normal[1]), math.Float32bits(v.Normal[2]),
	}
}

// dedupVertices collapses a per-corner vertex stream into unique
// vertices plus indices. First occurrence of a vertex claims the next
// ascending index, repeats reuse it.
func dedupVertices(corners []Vertex) ([]Vertex, []uint32) {
	seen := make(map[vertexKey]uint32, len(corners))
	vertices := make([]Vertex, 0, len(corners))
	indices := make([]uint32, 0, len(corners))

	for _, v := range corners {
		key := keyOf(v)
		index, ok := seen[key]
		if !ok {
			index = uint32(len(vertices))
			seen[key] = index
			vertices = append(vertices, v)
		}
		indices = append(indices, index)
	}

	return vertices, indices
}

// LoadMesh parses a triangulated OBJ file and returns deduplicated
// geometry. Missing color streams become opaque white, missing texture
// coordinates become (0,0), missing normals become the up axis. The V
// texture coordinate is flipped for Vulkan's top-left image origin.
func LoadMesh(path string) (*MeshData, error) {
	obj, err := gwob.NewObjFromFile(path, &gwob.ObjParserOptions{})
	if err != nil {
		return nil, markf(err, ErrAsset, "parsing mesh %q", path)
	}

	floatsPerVertex := obj.StrideSize / 4
	posOffset := obj.StrideOffsetPosition / 4
	texOffset := obj.StrideOffsetTexture / 4
	normOffset := obj.StrideOffsetNormal / 4

	corners := make([]Vertex, 0, len(obj.Indices))
	for _, index := range obj.Indices {
		base := index * floatsPerVertex

		v := Vertex{
			Pos: [3]float32{
				obj.Coord[base+posOffset],
				obj.Coord[base+posOffset+1],
				obj.Coord[base+posOffset+2],
			},
			Color:  defaultColor,
			Normal: defaultNormal,
		}

		if obj.TextCoordFound {
			v.TexCoord = [2]float32{
				obj.Coord[base+texOffset],
				1 - obj.Coord[base+texOffset+1],
			}
		}

		if obj.NormCoordFound {
			v.Normal = [3]float32{
				obj.Coord[base+normOffset],
				obj.Coord[base+normOffset+1],
				obj.Coord[base+normOffset+2],
			}
		}

		corners = append(corners, v)
	}

	vertices, indices := dedupVertices(corners)
	return &MeshData{Vertices: vertices, Indices: indices}, nil
}

// Mesh holds the device-local vertex and index buffers for one model.
type Mesh struct {
	VertexBuffer BoundBuffer
	IndexBuffer  BoundBuffer
	IndexCount   uint32
}

// UploadMesh pushes mesh data into device-local buffers through
// host-visible staging buffers. Each staging buffer is destroyed as
// soon as its copy has completed.
func UploadMesh(allocator *Allocator, transfer *Transfer, data *MeshData) (*Mesh, error) {
	vertexBuffer, err := uploadDeviceLocal(allocator, transfer, data.VertexBytes(),
		vk.BUFFER_USAGE_VERTEX_BUFFER_BIT)
	if err != nil {
		return nil, err
	}

	indexBuffer, err := uploadDeviceLocal(allocator, transfer, data.IndexBytes(),
		vk.BUFFER_USAGE_INDEX_BUFFER_BIT)
	if err != nil {
		allocator.DestroyBuffer(vertexBuffer)
		return nil, err
	}

	return &Mesh{
		VertexBuffer: vertexBuffer,
		IndexBuffer:  indexBuffer,
		IndexCount:   uint32(len(data.Indices)),
	}, nil
}

func (m *Mesh) Destroy(allocator *Allocator) {
	allocator.DestroyBuffer(m.IndexBuffer)
	allocator.DestroyBuffer(m.VertexBuffer)
}

// uploadDeviceLocal copies data into a fresh device-local buffer via a
// temporary staging buffer.
func uploadDeviceLocal(allocator *Allocator, transfer *Transfer, data []byte, usage vk.BufferUsageFlags) (BoundBuffer, error) {
	size := uint64(len(data))

	staging, err := allocator.CreateBuffer(size,
		vk.BUFFER_USAGE_TRANSFER_SRC_BIT,
		vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT|vk.MEMORY_PROPERTY_HOST_COHERENT_BIT)
	if err != nil {
		return BoundBuffer{}, err
	}
	defer allocator.DestroyBuffer(staging)

	if err := allocator.device.UploadToBuffer(staging.Memory, data); err != nil {
		return BoundBuffer{}, markf(err, ErrTransfer, "writing staging buffer")
	}

	final, err := allocator.CreateBuffer(size,
		vk.BUFFER_USAGE_TRANSFER_DST_BIT|usage,
		vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	if err != nil {
		return BoundBuffer{}, err
	}

	if err := transfer.CopyBuffer(staging.Buffer, final.Buffer, size); err != nil {
		allocator.DestroyBuffer(final)
		return BoundBuffer{}, err
	}

	return final, nil
}
