package resources

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func TestGeneratePlane(t *testing.T) {
	plane := GeneratePlane("floor", 4, 2, 2, 1, 1, 1)

	require.Len(t, plane.Vertices, 8)
	require.Len(t, plane.Indices, 12)
	assert.Equal(t, math.NewVec3(-2, -1, 0), plane.MinExtents)
	assert.Equal(t, math.NewVec3(2, 1, 0), plane.MaxExtents)

	for i, v := range plane.Vertices {
		assert.True(t, v.Normal.Compare(math.NewVec3(0, 0, 1), 1e-5), "vertex %d normal %v", i, v.Normal)
	}
	// second segment starts where the first one ends
	assert.Equal(t, math.NewVec3(0, -1, 0), plane.Vertices[4].Position)
	assert.Equal(t, math.NewVec2(0.5, 0), plane.Vertices[4].Texcoord)
}

func TestGeneratePlaneDefaultsZeroSizes(t *testing.T) {
	plane := GeneratePlane("p", 0, 0, 0, 0, 0, 0)
	require.Len(t, plane.Vertices, 4)
	assert.Equal(t, math.NewVec3(0.5, 0.5, 0), plane.MaxExtents)
}

func TestPlaneDeduplicatesSharedCorners(t *testing.T) {
	plane := GeneratePlane("p", 2, 2, 2, 2, 1, 1)
	require.Len(t, plane.Vertices, 16)

	plane.Deduplicate()
	assert.Len(t, plane.Vertices, 9)
	for _, i := range plane.Indices {
		assert.Less(t, int(i), len(plane.Vertices))
	}
}

func TestGenerateCube(t *testing.T) {
	cube := GenerateCube("box", 2, 2, 2, 1, 1)

	require.Len(t, cube.Vertices, 24)
	require.Len(t, cube.Indices, 36)
	assert.Len(t, cube.Faces(), 12)
	assert.Len(t, cube.Expand(), 36)

	for _, v := range cube.Vertices {
		assert.InDelta(t, 1, v.Normal.Length(), 1e-5)
		assert.InDelta(t, 1, kabs(v.Position.X), 1e-5)
		assert.InDelta(t, 1, kabs(v.Position.Y), 1e-5)
		assert.InDelta(t, 1, kabs(v.Position.Z), 1e-5)
	}
}

func TestFacesDropsTrailingIndices(t *testing.T) {
	config := &GeometryConfig{Indices: []uint32{0, 1, 2, 3, 4}}
	assert.Equal(t, []metadata.Triangle{{A: 0, B: 1, C: 2}}, config.Faces())
}

func TestGenerateQuad(t *testing.T) {
	quad := GenerateQuad(10, 20, 4, 2)
	require.Len(t, quad, 4)
	assert.Equal(t, math.NewVec2(10, 20), quad[0].Position)
	assert.Equal(t, math.NewVec2(14, 22), quad[2].Position)
	assert.Equal(t, math.NewVec2(1, 1), quad[2].Texcoord)
}

func kabs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
