package systems

import "github.com/spaghettifunk/parcel/engine/renderer/metadata"

// visitor is driven by traverse. leave is called for every node whose enter
// returned no error, even when its children were not visited.
type visitor interface {
	enter(obj metadata.Renderable, depth int) (descend bool, err error)
	leave(obj metadata.Renderable, depth int) error
}

// traverse walks the tree rooted at obj depth first in pre-order, skipping
// nil children, nil pointers included. Compile and Draw both walk with it so that they agree on
// the order nodes are visited in.
func traverse(obj metadata.Renderable, v visitor, depth int) error {
	descend, err := v.enter(obj, depth)
	if err != nil {
		return err
	}
	if descend {
		if group, ok := metadata.AsGroup(obj); ok {
			for i := 0; i < group.RenderableCount(); i++ {
				child := group.RenderableAt(i)
				if metadata.IsNil(child) {
					continue
				}
				if err := traverse(child, v, depth+1); err != nil {
					return err
				}
			}
		}
	}
	return v.leave(obj, depth)
}

// presentChildren counts the non-nil children of obj, or returns -1 when
// obj is not a group.
func presentChildren(obj metadata.Renderable) int {
	group, ok := metadata.AsGroup(obj)
	if !ok {
		return -1
	}
	n := 0
	for i := 0; i < group.RenderableCount(); i++ {
		if !metadata.IsNil(group.RenderableAt(i)) {
			n++
		}
	}
	return n
}

// sizeVisitor sums the bytes a tree needs in the vertex and index buffers.
type sizeVisitor struct {
	layout     Layout
	vertexSize uint64
	indexSize  uint64
}

func (v *sizeVisitor) enter(obj metadata.Renderable, depth int) (bool, error) {
	v.vertexSize += uint64(obj.MemorySize())
	v.indexSize += uint64(v.layout.IndexCount(obj)) * 4
	return true, nil
}

func (v *sizeVisitor) leave(obj metadata.Renderable, depth int) error {
	return nil
}
