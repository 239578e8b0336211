package resources

import (
	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

/**
 * @brief Generated geometry: shared vertices plus a triangle list indexing
 * them. Feed it to NewMesh, NewIndexedMesh or NewSprite.
 */
type GeometryConfig struct {
	Name       string
	Vertices   []math.Vertex3D
	Indices    []uint32
	Center     math.Vec3
	MinExtents math.Vec3
	MaxExtents math.Vec3
}

// Faces groups the index list in triangles. Trailing indices that do not
// form a whole triangle are dropped.
func (c *GeometryConfig) Faces() []metadata.Triangle {
	faces := make([]metadata.Triangle, 0, len(c.Indices)/3)
	for i := 0; i+2 < len(c.Indices); i += 3 {
		faces = append(faces, metadata.Triangle{A: c.Indices[i], B: c.Indices[i+1], C: c.Indices[i+2]})
	}
	return faces
}

// Expand returns one vertex per index, the form unindexed triangle lists
// are drawn from.
func (c *GeometryConfig) Expand() []math.Vertex3D {
	out := make([]math.Vertex3D, 0, len(c.Indices))
	for _, i := range c.Indices {
		out = append(out, c.Vertices[i])
	}
	return out
}

// Deduplicate merges identical vertices and rewrites the indices.
func (c *GeometryConfig) Deduplicate() {
	before := len(c.Vertices)
	c.Vertices = math.GeometryDeduplicateVertices(c.Vertices, c.Indices)
	if removed := before - len(c.Vertices); removed > 0 {
		core.LogDebug("Geometry '%s': removed %d duplicated vertices, %d left.", c.Name, removed, len(c.Vertices))
	}
}

/**
 * @brief Generates a plane on the XY axis facing +Z.
 *
 * @param width The overall width of the plane. Defaults to one when zero.
 * @param height The overall height of the plane. Defaults to one when zero.
 * @param xSegmentCount The number of segments along the x-axis. Defaults to one when zero.
 * @param ySegmentCount The number of segments along the y-axis. Defaults to one when zero.
 * @param tileX How many times the texture tiles across the x-axis. Defaults to one when zero.
 * @param tileY How many times the texture tiles across the y-axis. Defaults to one when zero.
 */
func GeneratePlane(name string, width, height float32, xSegmentCount, ySegmentCount uint32, tileX, tileY float32) *GeometryConfig {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if xSegmentCount < 1 {
		core.LogWarn("xSegmentCount must be a positive number. Defaulting to one.")
		xSegmentCount = 1
	}
	if ySegmentCount < 1 {
		core.LogWarn("ySegmentCount must be a positive number. Defaulting to one.")
		ySegmentCount = 1
	}
	if tileX == 0 {
		core.LogWarn("tileX must be nonzero. Defaulting to one.")
		tileX = 1.0
	}
	if tileY == 0 {
		core.LogWarn("tileY must be nonzero. Defaulting to one.")
		tileY = 1.0
	}

	config := &GeometryConfig{
		Name:     name,
		Vertices: make([]math.Vertex3D, xSegmentCount*ySegmentCount*4), // 4 verts per segment
		Indices:  make([]uint32, xSegmentCount*ySegmentCount*6),        // 6 indices per segment
	}

	segWidth := width / float32(xSegmentCount)
	segHeight := height / float32(ySegmentCount)
	halfWidth := width * 0.5
	halfHeight := height * 0.5
	for y := uint32(0); y < ySegmentCount; y++ {
		for x := uint32(0); x < xSegmentCount; x++ {
			minX := (float32(x) * segWidth) - halfWidth
			minY := (float32(y) * segHeight) - halfHeight
			maxX := minX + segWidth
			maxY := minY + segHeight
			minUVX := (float32(x) / float32(xSegmentCount)) * tileX
			minUVY := (float32(y) / float32(ySegmentCount)) * tileY
			maxUVX := (float32(x+1) / float32(xSegmentCount)) * tileX
			maxUVY := (float32(y+1) / float32(ySegmentCount)) * tileY

			vOffset := ((y * xSegmentCount) + x) * 4
			v0 := &config.Vertices[vOffset+0]
			v1 := &config.Vertices[vOffset+1]
			v2 := &config.Vertices[vOffset+2]
			v3 := &config.Vertices[vOffset+3]

			v0.Position = math.NewVec3(minX, minY, 0)
			v0.Texcoord = math.NewVec2(minUVX, minUVY)
			v1.Position = math.NewVec3(maxX, maxY, 0)
			v1.Texcoord = math.NewVec2(maxUVX, maxUVY)
			v2.Position = math.NewVec3(minX, maxY, 0)
			v2.Texcoord = math.NewVec2(minUVX, maxUVY)
			v3.Position = math.NewVec3(maxX, minY, 0)
			v3.Texcoord = math.NewVec2(maxUVX, minUVY)

			iOffset := ((y * xSegmentCount) + x) * 6
			config.Indices[iOffset+0] = vOffset + 0
			config.Indices[iOffset+1] = vOffset + 1
			config.Indices[iOffset+2] = vOffset + 2
			config.Indices[iOffset+3] = vOffset + 0
			config.Indices[iOffset+4] = vOffset + 3
			config.Indices[iOffset+5] = vOffset + 1
		}
	}

	config.MinExtents = math.NewVec3(-halfWidth, -halfHeight, 0)
	config.MaxExtents = math.NewVec3(halfWidth, halfHeight, 0)
	math.GeometryGenerateNormals(config.Vertices, config.Indices)
	return config
}

type cubeFace struct {
	normal  math.Vec3
	corners [4]math.Vec3
}

// GenerateCube builds an axis-aligned box centered on the origin, 4 vertices
// and 2 faces per side.
func GenerateCube(name string, width, height, depth, tileX, tileY float32) *GeometryConfig {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if depth == 0 {
		core.LogWarn("Depth must be nonzero. Defaulting to one.")
		depth = 1
	}
	if tileX == 0 {
		core.LogWarn("tileX must be nonzero. Defaulting to one.")
		tileX = 1.0
	}
	if tileY == 0 {
		core.LogWarn("tileY must be nonzero. Defaulting to one.")
		tileY = 1.0
	}

	minX, maxX := -width*0.5, width*0.5
	minY, maxY := -height*0.5, height*0.5
	minZ, maxZ := -depth*0.5, depth*0.5

	// corners are ordered like the plane segments: min/min, max/max, min/max, max/min
	sides := []cubeFace{
		{ // front
			normal: math.NewVec3(0, 0, 1),
			corners: [4]math.Vec3{
				math.NewVec3(minX, minY, maxZ), math.NewVec3(maxX, maxY, maxZ),
				math.NewVec3(minX, maxY, maxZ), math.NewVec3(maxX, minY, maxZ),
			},
		},
		{ // back
			normal: math.NewVec3(0, 0, -1),
			corners: [4]math.Vec3{
				math.NewVec3(maxX, minY, minZ), math.NewVec3(minX, maxY, minZ),
				math.NewVec3(maxX, maxY, minZ), math.NewVec3(minX, minY, minZ),
			},
		},
		{ // left
			normal: math.NewVec3(-1, 0, 0),
			corners: [4]math.Vec3{
				math.NewVec3(minX, minY, minZ), math.NewVec3(minX, maxY, maxZ),
				math.NewVec3(minX, maxY, minZ), math.NewVec3(minX, minY, maxZ),
			},
		},
		{ // right
			normal: math.NewVec3(1, 0, 0),
			corners: [4]math.Vec3{
				math.NewVec3(maxX, minY, maxZ), math.NewVec3(maxX, maxY, minZ),
				math.NewVec3(maxX, maxY, maxZ), math.NewVec3(maxX, minY, minZ),
			},
		},
		{ // bottom
			normal: math.NewVec3(0, -1, 0),
			corners: [4]math.Vec3{
				math.NewVec3(maxX, minY, maxZ), math.NewVec3(minX, minY, minZ),
				math.NewVec3(maxX, minY, minZ), math.NewVec3(minX, minY, maxZ),
			},
		},
		{ // top
			normal: math.NewVec3(0, 1, 0),
			corners: [4]math.Vec3{
				math.NewVec3(minX, maxY, maxZ), math.NewVec3(maxX, maxY, minZ),
				math.NewVec3(minX, maxY, minZ), math.NewVec3(maxX, maxY, maxZ),
			},
		},
	}
	uvs := [4]math.Vec2{
		math.NewVec2(0, 0), math.NewVec2(tileX, tileY),
		math.NewVec2(0, tileY), math.NewVec2(tileX, 0),
	}

	config := &GeometryConfig{
		Name:       name,
		Vertices:   make([]math.Vertex3D, 0, 4*6), // 4 verts per side, 6 sides
		Indices:    make([]uint32, 0, 6*6),        // 6 indices per side, 6 sides
		MinExtents: math.NewVec3(minX, minY, minZ),
		MaxExtents: math.NewVec3(maxX, maxY, maxZ),
	}
	for i, side := range sides {
		for c := range side.corners {
			config.Vertices = append(config.Vertices, math.Vertex3D{
				Position: side.corners[c],
				Texcoord: uvs[c],
				Normal:   side.normal,
			})
		}
		vOffset := uint32(i * 4)
		config.Indices = append(config.Indices,
			vOffset+0, vOffset+1, vOffset+2,
			vOffset+0, vOffset+3, vOffset+1,
		)
	}
	return config
}

// GenerateQuad builds the four corners of a screen-space rectangle anchored
// at its top-left corner, in drawing order.
func GenerateQuad(x, y, width, height float32) []math.Vertex2D {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	return []math.Vertex2D{
		{Position: math.NewVec2(x, y), Texcoord: math.NewVec2(0, 0)},
		{Position: math.NewVec2(x+width, y), Texcoord: math.NewVec2(1, 0)},
		{Position: math.NewVec2(x+width, y+height), Texcoord: math.NewVec2(1, 1)},
		{Position: math.NewVec2(x, y+height), Texcoord: math.NewVec2(0, 1)},
	}
}
