package systems

import (
	"fmt"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

const (
	LAYOUT_LIT         = "lit"
	LAYOUT_INDEXED_LIT = "indexed_lit"
	LAYOUT_SPRITE      = "sprite"
)

// Layout is the only part of a batch renderer that varies between vertex
// formats: how a node's own data is packed and how its draw is issued.
// Traversal, range bookkeeping and state minimization are shared.
type Layout interface {
	Name() string
	// Stride is the size in bytes of one packed vertex.
	Stride() uint32
	Indexed() bool
	Mode() metadata.RenderMode
	// IndexCount is the number of indices the node itself contributes.
	IndexCount(obj metadata.Renderable) uint32
	// Append packs the node's own data. leaf reports whether the node is
	// drawable with this layout. baseVertex is the number of vertices
	// already in the buffer and is added to every face index.
	Append(obj metadata.Renderable, w *vertexWriters, baseVertex uint32) (leaf bool, err error)
	Topology(obj metadata.Renderable) (metadata.PrimitiveType, error)
	// Issue emits the single draw command of a leaf. first and count are in
	// elements: vertices for unindexed layouts, indices otherwise.
	Issue(backend renderer.RendererBackend, obj metadata.Renderable, first, count uint32) error
}

// LayoutByName returns the layout registered under name.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case LAYOUT_LIT:
		return LitLayout{}, nil
	case LAYOUT_INDEXED_LIT:
		return IndexedLitLayout{}, nil
	case LAYOUT_SPRITE:
		return SpriteLayout{}, nil
	}
	return nil, fmt.Errorf("unknown layout '%s'", name)
}

// LitVertexStride is position(3) + texcoord(2) + normal(3) float32.
const LitVertexStride uint32 = 8 * 4

// SpriteVertexStride is position(2) + texcoord(2) float32.
const SpriteVertexStride uint32 = 4 * 4

// putLitVertex writes the fields in buffer order: position, texcoord, normal.
func putLitVertex(w *bufferWriter, v math.Vertex3D) error {
	if err := w.PutVec3(v.Position); err != nil {
		return err
	}
	if err := w.PutVec2(v.Texcoord); err != nil {
		return err
	}
	return w.PutVec3(v.Normal)
}

// LitLayout packs unindexed 3D geometry.
type LitLayout struct{}

func (LitLayout) Name() string              { return LAYOUT_LIT }
func (LitLayout) Stride() uint32            { return LitVertexStride }
func (LitLayout) Indexed() bool             { return false }
func (LitLayout) Mode() metadata.RenderMode { return metadata.RENDER_MODE_3D }

func (LitLayout) IndexCount(obj metadata.Renderable) uint32 {
	return 0
}

func (LitLayout) Append(obj metadata.Renderable, w *vertexWriters, baseVertex uint32) (bool, error) {
	geometry, ok := metadata.AsGeometry(obj)
	if !ok {
		return false, nil
	}
	for _, v := range geometry.Vertices() {
		if err := putLitVertex(w.vertex, v); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (LitLayout) Topology(obj metadata.Renderable) (metadata.PrimitiveType, error) {
	geometry, ok := metadata.AsGeometry(obj)
	if !ok {
		return 0, fmt.Errorf("%T does not expose geometry: %w", obj, core.ErrStaleRanges)
	}
	return geometry.PrimitiveType(), nil
}

func (l LitLayout) Issue(backend renderer.RendererBackend, obj metadata.Renderable, first, count uint32) error {
	topology, err := l.Topology(obj)
	if err != nil {
		return err
	}
	return backend.Draw(topology, first, count)
}

// IndexedLitLayout packs 3D geometry with shared vertices and a face index
// buffer. Faces are always drawn as triangle lists.
type IndexedLitLayout struct{}

func (IndexedLitLayout) Name() string              { return LAYOUT_INDEXED_LIT }
func (IndexedLitLayout) Stride() uint32            { return LitVertexStride }
func (IndexedLitLayout) Indexed() bool             { return true }
func (IndexedLitLayout) Mode() metadata.RenderMode { return metadata.RENDER_MODE_3D }

// IndexCount is derived from the faces, never reported by the object.
func (IndexedLitLayout) IndexCount(obj metadata.Renderable) uint32 {
	indexed, ok := metadata.AsIndexedGeometry(obj)
	if !ok {
		return 0
	}
	return uint32(len(indexed.Faces())) * 3
}

func (IndexedLitLayout) Append(obj metadata.Renderable, w *vertexWriters, baseVertex uint32) (bool, error) {
	indexed, ok := metadata.AsIndexedGeometry(obj)
	if !ok {
		return false, nil
	}
	vertices := indexed.Vertices()
	for _, v := range vertices {
		if err := putLitVertex(w.vertex, v); err != nil {
			return true, err
		}
	}
	count := uint32(len(vertices))
	for i, face := range indexed.Faces() {
		if face.A >= count || face.B >= count || face.C >= count {
			return true, fmt.Errorf("face %d references a vertex outside [0, %d): %w", i, count, core.ErrInvalidFace)
		}
		for _, index := range [3]uint32{face.A, face.B, face.C} {
			if err := w.index.PutUint32(baseVertex + index); err != nil {
				return true, err
			}
		}
	}
	return true, nil
}

func (IndexedLitLayout) Topology(obj metadata.Renderable) (metadata.PrimitiveType, error) {
	if _, ok := metadata.AsIndexedGeometry(obj); !ok {
		return 0, fmt.Errorf("%T does not expose indexed geometry: %w", obj, core.ErrStaleRanges)
	}
	return metadata.PRIMITIVE_TYPE_TRIANGLE, nil
}

func (l IndexedLitLayout) Issue(backend renderer.RendererBackend, obj metadata.Renderable, first, count uint32) error {
	if _, err := l.Topology(obj); err != nil {
		return err
	}
	return backend.DrawIndexed(first, count)
}

// SpriteLayout packs screen-space sprites, drawn as quads in 2D mode.
type SpriteLayout struct{}

func (SpriteLayout) Name() string              { return LAYOUT_SPRITE }
func (SpriteLayout) Stride() uint32            { return SpriteVertexStride }
func (SpriteLayout) Indexed() bool             { return false }
func (SpriteLayout) Mode() metadata.RenderMode { return metadata.RENDER_MODE_2D }

func (SpriteLayout) IndexCount(obj metadata.Renderable) uint32 {
	return 0
}

func (SpriteLayout) Append(obj metadata.Renderable, w *vertexWriters, baseVertex uint32) (bool, error) {
	sprite, ok := metadata.AsSprite(obj)
	if !ok {
		return false, nil
	}
	for _, v := range sprite.SpriteVertices() {
		if err := w.vertex.PutVec2(v.Position); err != nil {
			return true, err
		}
		if err := w.vertex.PutVec2(v.Texcoord); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (SpriteLayout) Topology(obj metadata.Renderable) (metadata.PrimitiveType, error) {
	if _, ok := metadata.AsSprite(obj); !ok {
		return 0, fmt.Errorf("%T is not a sprite: %w", obj, core.ErrStaleRanges)
	}
	return metadata.PRIMITIVE_TYPE_QUAD, nil
}

func (l SpriteLayout) Issue(backend renderer.RendererBackend, obj metadata.Renderable, first, count uint32) error {
	topology, err := l.Topology(obj)
	if err != nil {
		return err
	}
	return backend.Draw(topology, first, count)
}
