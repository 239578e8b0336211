package metadata

import (
	"fmt"
	"reflect"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
)

// MaxTreeDepth bounds how deep groups may nest. Deeper trees are rejected
// at registration and at compile time; they are almost always a group
// containing itself.
const MaxTreeDepth = 128

/**
 * @brief Renderable is the only mandatory capability. MemorySize reports the
 * number of bytes the object itself contributes to the vertex buffer of the
 * layout it is registered with (vertex count times stride). Children of a
 * group report their own size; a group that draws nothing reports 0.
 */
type Renderable interface {
	MemorySize() uint32
}

/** @brief Geometry exposes unindexed vertex data and its primitive topology. */
type Geometry interface {
	Vertices() []math.Vertex3D
	PrimitiveType() PrimitiveType
}

/**
 * @brief IndexedGeometry exposes shared vertices plus triangle faces. Face
 * indices are local to the object; the compiler rebases them.
 */
type IndexedGeometry interface {
	Vertices() []math.Vertex3D
	Faces() []Triangle
}

/** @brief Sprite exposes screen-space vertices, drawn as quads. */
type Sprite interface {
	SpriteVertices() []math.Vertex2D
}

/** @brief Skinned names the material/texture bundle an object is drawn with. */
type Skinned interface {
	SkinID() SkinID
}

/** @brief Transform exposes a local matrix applied to the object and its subtree. */
type Transform interface {
	Matrix() math.Mat4
}

/** @brief Group exposes child objects. Nil children are allowed and skipped. */
type Group interface {
	RenderableCount() int
	RenderableAt(i int) Renderable
}

// Releaser is implemented by objects holding resources that must be freed
// when the registry owning them lets them go.
type Releaser interface {
	Release()
}

func AsGeometry(r Renderable) (Geometry, bool) {
	g, ok := r.(Geometry)
	return g, ok
}

func AsIndexedGeometry(r Renderable) (IndexedGeometry, bool) {
	g, ok := r.(IndexedGeometry)
	return g, ok
}

func AsSprite(r Renderable) (Sprite, bool) {
	s, ok := r.(Sprite)
	return s, ok
}

func AsSkinned(r Renderable) (Skinned, bool) {
	s, ok := r.(Skinned)
	return s, ok
}

func AsTransform(r Renderable) (Transform, bool) {
	t, ok := r.(Transform)
	return t, ok
}

func AsGroup(r Renderable) (Group, bool) {
	g, ok := r.(Group)
	return g, ok
}

func AsReleaser(r Renderable) (Releaser, bool) {
	rl, ok := r.(Releaser)
	return rl, ok
}

// IsNil reports whether r is nil, including a nil pointer stored in the
// interface. Groups may hold either; both are skipped.
func IsNil(r Renderable) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Validate walks the tree rooted at r and rejects nil roots, nodes exposing
// both Geometry and IndexedGeometry, and trees deeper than MaxTreeDepth.
func Validate(r Renderable) error {
	if IsNil(r) {
		return core.ErrNilRenderable
	}
	return validate(r, []int{})
}

func validate(r Renderable, path []int) error {
	if len(path) > MaxTreeDepth {
		return fmt.Errorf("node %v: %w", path, core.ErrTreeTooDeep)
	}
	_, geometry := AsGeometry(r)
	_, indexed := AsIndexedGeometry(r)
	if geometry && indexed {
		return fmt.Errorf("node %v (%T): %w", path, r, core.ErrConflictingGeometry)
	}
	group, ok := AsGroup(r)
	if !ok {
		return nil
	}
	for i := 0; i < group.RenderableCount(); i++ {
		child := group.RenderableAt(i)
		if IsNil(child) {
			continue
		}
		if err := validate(child, append(path, i)); err != nil {
			return err
		}
	}
	return nil
}
