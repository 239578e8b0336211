package resources

import (
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
	"github.com/spaghettifunk/parcel/engine/systems"
)

// Sprite is a screen-space textured rectangle. Every four vertices form a quad.
type Sprite struct {
	Name      string
	Data      []math.Vertex2D
	Transform *math.Transform
	Skin      metadata.SkinID
	released  bool
}

func NewSprite(name string, x, y, width, height float32, skin metadata.SkinID) *Sprite {
	return &Sprite{
		Name:      name,
		Data:      GenerateQuad(x, y, width, height),
		Transform: math.TransformCreate(),
		Skin:      skin,
	}
}

func (s *Sprite) MemorySize() uint32 {
	return uint32(len(s.Data)) * systems.SpriteVertexStride
}

func (s *Sprite) SpriteVertices() []math.Vertex2D { return s.Data }
func (s *Sprite) Matrix() math.Mat4               { return s.Transform.GetLocal() }
func (s *Sprite) SkinID() metadata.SkinID         { return s.Skin }

func (s *Sprite) Release() {
	s.Data = nil
	s.released = true
}

func (s *Sprite) Released() bool {
	return s.released
}
