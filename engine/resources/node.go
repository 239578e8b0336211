package resources

import (
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

/**
 * @brief A group of renderables sharing a transform and, optionally, a skin.
 * Children inherit both unless they carry their own.
 */
type Node struct {
	Name      string
	Children  []metadata.Renderable
	Transform *math.Transform
	Skin      metadata.SkinID
}

func NewNode(name string, children ...metadata.Renderable) *Node {
	return &Node{
		Name:      name,
		Children:  children,
		Transform: math.TransformCreate(),
	}
}

// Add appends a child. Renderers holding the node must be invalidated
// before the next draw.
func (n *Node) Add(child metadata.Renderable) {
	n.Children = append(n.Children, child)
}

// A node contributes no vertices of its own.
func (n *Node) MemorySize() uint32 { return 0 }

func (n *Node) RenderableCount() int                   { return len(n.Children) }
func (n *Node) RenderableAt(i int) metadata.Renderable { return n.Children[i] }
func (n *Node) Matrix() math.Mat4                      { return n.Transform.GetLocal() }
func (n *Node) SkinID() metadata.SkinID                { return n.Skin }

// Release releases every child that holds resources.
func (n *Node) Release() {
	for _, child := range n.Children {
		if metadata.IsNil(child) {
			continue
		}
		if r, ok := metadata.AsReleaser(child); ok {
			r.Release()
		}
	}
	n.Children = nil
}
