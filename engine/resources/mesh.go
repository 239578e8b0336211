package resources

import (
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
	"github.com/spaghettifunk/parcel/engine/systems"
)

/**
 * @brief An unindexed mesh drawn by the lit VBO layout. An empty Skin keeps
 * whatever skin is bound when the mesh is drawn.
 */
type Mesh struct {
	Name      string
	Topology  metadata.PrimitiveType
	Data      []math.Vertex3D
	Transform *math.Transform
	Skin      metadata.SkinID
	released  bool
}

// NewMesh expands the generated geometry into a triangle list.
func NewMesh(config *GeometryConfig, skin metadata.SkinID) *Mesh {
	return &Mesh{
		Name:      config.Name,
		Topology:  metadata.PRIMITIVE_TYPE_TRIANGLE,
		Data:      config.Expand(),
		Transform: math.TransformCreate(),
		Skin:      skin,
	}
}

func NewMeshFromVertices(name string, topology metadata.PrimitiveType, vertices []math.Vertex3D, skin metadata.SkinID) *Mesh {
	return &Mesh{
		Name:      name,
		Topology:  topology,
		Data:      vertices,
		Transform: math.TransformCreate(),
		Skin:      skin,
	}
}

func (m *Mesh) MemorySize() uint32 {
	return uint32(len(m.Data)) * systems.LitVertexStride
}

func (m *Mesh) Vertices() []math.Vertex3D             { return m.Data }
func (m *Mesh) PrimitiveType() metadata.PrimitiveType { return m.Topology }
func (m *Mesh) Matrix() math.Mat4                     { return m.Transform.GetLocal() }
func (m *Mesh) SkinID() metadata.SkinID               { return m.Skin }

func (m *Mesh) Release() {
	m.Data = nil
	m.released = true
}

func (m *Mesh) Released() bool {
	return m.released
}

/**
 * @brief A mesh sharing vertices between triangle faces, drawn by the
 * indexed VBO layout. Face indices are local to the mesh.
 */
type IndexedMesh struct {
	Name      string
	Data      []math.Vertex3D
	Triangles []metadata.Triangle
	Transform *math.Transform
	Skin      metadata.SkinID
	released  bool
}

// NewIndexedMesh copies the generated geometry and merges duplicated
// vertices. The config is left untouched.
func NewIndexedMesh(config *GeometryConfig, skin metadata.SkinID) *IndexedMesh {
	shared := &GeometryConfig{
		Name:     config.Name,
		Vertices: append([]math.Vertex3D(nil), config.Vertices...),
		Indices:  append([]uint32(nil), config.Indices...),
	}
	shared.Deduplicate()
	return &IndexedMesh{
		Name:      shared.Name,
		Data:      shared.Vertices,
		Triangles: shared.Faces(),
		Transform: math.TransformCreate(),
		Skin:      skin,
	}
}

func (m *IndexedMesh) MemorySize() uint32 {
	return uint32(len(m.Data)) * systems.LitVertexStride
}

func (m *IndexedMesh) Vertices() []math.Vertex3D  { return m.Data }
func (m *IndexedMesh) Faces() []metadata.Triangle { return m.Triangles }
func (m *IndexedMesh) Matrix() math.Mat4          { return m.Transform.GetLocal() }
func (m *IndexedMesh) SkinID() metadata.SkinID    { return m.Skin }

func (m *IndexedMesh) Release() {
	m.Data = nil
	m.Triangles = nil
	m.released = true
}

func (m *IndexedMesh) Released() bool {
	return m.released
}
