package render

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uint32(44), VertexStride)

	require.Len(t, VertexAttributes, 4)
	assert.Equal(t, uint32(0), VertexAttributes[0].Offset)
	assert.Equal(t, uint32(12), VertexAttributes[1].Offset)
	assert.Equal(t, uint32(24), VertexAttributes[2].Offset)
	assert.Equal(t, uint32(32), VertexAttributes[3].Offset)
}

func TestDedupMergesIdenticalVertices(t *testing.T) {
	v := Vertex{Pos: [3]float32{1, 2, 3}, Color: defaultColor, Normal: defaultNormal}

	vertices, indices := dedupVertices([]Vertex{v, v, v})

	assert.Len(t, vertices, 1)
	assert.Equal(t, []uint32{0, 0, 0}, indices)
}

func TestDedupIsBitExact(t *testing.T) {
	base := Vertex{Pos: [3]float32{1, 2, 3}, Color: defaultColor, TexCoord: [2]float32{0.5, 0.5}, Normal: defaultNormal}

	// One unit in the last place on a single component is a distinct
	// vertex.
	nudged := base
	nudged.Pos[0] = math.Float32frombits(math.Float32bits(base.Pos[0]) + 1)

	vertices, indices := dedupVertices([]Vertex{base, nudged, base})

	assert.Len(t, vertices, 2)
	assert.Equal(t, []uint32{0, 1, 0}, indices)
}

func TestDedupDistinguishesSignedZero(t *testing.T) {
	posZero := Vertex{Pos: [3]float32{0, 0, 0}}
	negZero := Vertex{Pos: [3]float32{float32(math.Copysign(0, -1)), 0, 0}}

	vertices, _ := dedupVertices([]Vertex{posZero, negZero})

	assert.Len(t, vertices, 2)
}

func TestDedupCube(t *testing.T) {
	corners := [8][3]float32{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	faces := [12][3]int{
		{0, 1, 2}, {0, 2, 3},
		{4, 6, 5}, {4, 7, 6},
		{0, 4, 5}, {0, 5, 1},
		{1, 5, 6}, {1, 6, 2},
		{2, 6, 7}, {2, 7, 3},
		{3, 7, 4}, {3, 4, 0},
	}

	var stream []Vertex
	for _, face := range faces {
		for _, corner := range face {
			stream = append(stream, Vertex{
				Pos:    corners[corner],
				Color:  defaultColor,
				Normal: defaultNormal,
			})
		}
	}

	vertices, indices := dedupVertices(stream)

	assert.Len(t, vertices, 8)
	assert.Len(t, indices, 36)
	for _, index := range indices {
		assert.Less(t, index, uint32(8))
	}
}

func TestDedupIndicesAscendByFirstOccurrence(t *testing.T) {
	a := Vertex{Pos: [3]float32{1, 0, 0}}
	b := Vertex{Pos: [3]float32{0, 1, 0}}
	c := Vertex{Pos: [3]float32{0, 0, 1}}

	vertices, indices := dedupVertices([]Vertex{a, b, a, c, b})

	assert.Equal(t, []Vertex{a, b, c}, vertices)
	assert.Equal(t, []uint32{0, 1, 0, 2, 1}, indices)
}

func TestMeshDataBytes(t *testing.T) {
	data := &MeshData{
		Vertices: []Vertex{{Pos: [3]float32{1, 2, 3}}},
		Indices:  []uint32{0, 1, 2},
	}

	assert.Len(t, data.VertexBytes(), int(VertexStride))
	assert.Len(t, data.IndexBytes(), 12)

	// The byte view aliases the vertex slice, no copy.
	assert.Equal(t, unsafe.Pointer(&data.Vertices[0]), unsafe.Pointer(&data.VertexBytes()[0]))
}

func TestLoadMeshMissingFile(t *testing.T) {
	_, err := LoadMesh("testdata/does-not-exist.obj")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAsset)
}
