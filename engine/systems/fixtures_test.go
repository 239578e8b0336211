package systems

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/headless"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

// pairLayout packs only position X and Y, so every vertex takes 8 bytes.
type pairLayout struct{}

func (pairLayout) Name() string                              { return "pair" }
func (pairLayout) Stride() uint32                            { return 8 }
func (pairLayout) Indexed() bool                             { return false }
func (pairLayout) Mode() metadata.RenderMode                 { return metadata.RENDER_MODE_3D }
func (pairLayout) IndexCount(obj metadata.Renderable) uint32 { return 0 }
func (pairLayout) Topology(obj metadata.Renderable) (metadata.PrimitiveType, error) {
	return LitLayout{}.Topology(obj)
}

func (pairLayout) Append(obj metadata.Renderable, w *vertexWriters, baseVertex uint32) (bool, error) {
	geometry, ok := metadata.AsGeometry(obj)
	if !ok {
		return false, nil
	}
	for _, v := range geometry.Vertices() {
		if err := w.vertex.PutFloat32(v.Position.X); err != nil {
			return true, err
		}
		if err := w.vertex.PutFloat32(v.Position.Y); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (l pairLayout) Issue(backend renderer.RendererBackend, obj metadata.Renderable, first, count uint32) error {
	return LitLayout{}.Issue(backend, obj, first, count)
}

type leaf struct {
	cost     uint32
	vertices []math.Vertex3D
	topology metadata.PrimitiveType
}

func (l *leaf) MemorySize() uint32                    { return l.cost }
func (l *leaf) Vertices() []math.Vertex3D             { return l.vertices }
func (l *leaf) PrimitiveType() metadata.PrimitiveType { return l.topology }

// newLeaf creates a pairLayout leaf of n vertices whose X coordinates
// start at marker.
func newLeaf(n int, marker float32) *leaf {
	l := &leaf{cost: uint32(n) * 8, topology: metadata.PRIMITIVE_TYPE_TRIANGLE}
	for i := 0; i < n; i++ {
		l.vertices = append(l.vertices, math.Vertex3D{Position: math.NewVec3(marker+float32(i), marker, 0)})
	}
	return l
}

type skinnedLeaf struct {
	*leaf
	skin metadata.SkinID
}

func (s *skinnedLeaf) SkinID() metadata.SkinID { return s.skin }

type movedLeaf struct {
	*leaf
	matrix math.Mat4
}

func (m *movedLeaf) Matrix() math.Mat4 { return m.matrix }

type group struct {
	children []metadata.Renderable
}

func newGroup(children ...metadata.Renderable) *group {
	return &group{children: children}
}

func (g *group) MemorySize() uint32                     { return 0 }
func (g *group) RenderableCount() int                   { return len(g.children) }
func (g *group) RenderableAt(i int) metadata.Renderable { return g.children[i] }

type skinnedGroup struct {
	*group
	skin metadata.SkinID
}

func (s *skinnedGroup) SkinID() metadata.SkinID { return s.skin }

type movedGroup struct {
	*group
	matrix math.Mat4
}

func (m *movedGroup) Matrix() math.Mat4 { return m.matrix }

// releasable records the order it was released in.
type releasable struct {
	*leaf
	name string
	log  *[]string
}

func (r *releasable) Release() { *r.log = append(*r.log, r.name) }

// conflicting exposes both Geometry and IndexedGeometry.
type conflicting struct {
	*leaf
}

func (c *conflicting) Faces() []metadata.Triangle { return nil }

type indexedLeaf struct {
	vertices []math.Vertex3D
	faces    []metadata.Triangle
}

func (i *indexedLeaf) MemorySize() uint32         { return uint32(len(i.vertices)) * LitVertexStride }
func (i *indexedLeaf) Vertices() []math.Vertex3D  { return i.vertices }
func (i *indexedLeaf) Faces() []metadata.Triangle { return i.faces }

type spriteLeaf struct {
	vertices []math.Vertex2D
}

func (s *spriteLeaf) MemorySize() uint32              { return uint32(len(s.vertices)) * SpriteVertexStride }
func (s *spriteLeaf) SpriteVertices() []math.Vertex2D { return s.vertices }

func newDevice(t *testing.T) (*renderer.RenderDevice, *headless.HeadlessRenderer) {
	t.Helper()
	backend := headless.New()
	device := renderer.NewRenderDevice(backend)
	require.NoError(t, device.Initialize("test"))
	return device, backend
}

func newPairRenderer(t *testing.T) (*BatchRenderer, *renderer.RenderDevice, *headless.HeadlessRenderer) {
	t.Helper()
	device, backend := newDevice(t)
	r := NewBatchRenderer("pairs", pairLayout{}, device)
	t.Cleanup(r.Destroy)
	return r, device, backend
}

// drawFrame runs one full frame of r and returns the draw stats.
func drawFrame(t *testing.T, r *BatchRenderer, device *renderer.RenderDevice) DrawStats {
	t.Helper()
	pass, err := device.Begin(0.016)
	require.NoError(t, err)
	stats, err := r.Draw(pass)
	require.NoError(t, err)
	require.Equal(t, 0, pass.Depth())
	require.NoError(t, device.End(pass))
	return stats
}
