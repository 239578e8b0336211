package assets

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/headless"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
	"github.com/spaghettifunk/parcel/engine/resources"
	"github.com/spaghettifunk/parcel/engine/systems"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

const demoScene = `
name = "demo"

[[objects]]
name = "floor"
renderer = "world"
shape = "plane"
size = [10, 10]
segments = [2, 2]
skin = "stone"
rotation_axis = [1, 0, 0]
rotation_degrees = -90

[[objects]]
name = "tower"
renderer = "world"
shape = "group"
position = [0, 0, -5]

  [[objects.children]]
  name = "base"
  shape = "cube"
  size = [2, 1, 2]

  [[objects.children]]
  name = "top"
  shape = "cube"
  position = [0, 1, 0]

[[objects]]
name = "axis"
renderer = "world"
shape = "mesh"
topology = "line"
vertices = [[0, 0, 0], [1, 0, 0, 0.5, 0.5]]

[[objects]]
name = "crosshair"
renderer = "ui"
shape = "quad"
size = [16, 16]
skin = "hud"
`

func newManager(t *testing.T) (*systems.SystemManager, *headless.HeadlessRenderer) {
	t.Helper()
	backend := headless.New()
	device := renderer.NewRenderDevice(backend)
	require.NoError(t, device.Initialize("assets"))
	device.RegisterSkin("stone")
	device.RegisterSkin("hud")
	sm, err := systems.NewSystemManager(device, []systems.RendererConfig{
		{Name: "world", Layout: systems.LAYOUT_LIT, OwnsObjects: true},
		{Name: "ui", Layout: systems.LAYOUT_SPRITE},
	})
	require.NoError(t, err)
	t.Cleanup(sm.Shutdown)
	return sm, backend
}

func TestParseScene(t *testing.T) {
	scene, err := ParseScene([]byte(demoScene))
	require.NoError(t, err)

	assert.Equal(t, "demo", scene.Name)
	require.Len(t, scene.Objects, 4)
	assert.Equal(t, []float32{10, 10}, scene.Objects[0].Size)
	assert.Equal(t, []uint32{2, 2}, scene.Objects[0].Segments)
	require.Len(t, scene.Objects[1].Children, 2)
	assert.Equal(t, "top", scene.Objects[1].Children[1].Name)
	assert.Equal(t, []float32{0, 1, 0}, scene.Objects[1].Children[1].Position)
}

func TestParseSceneRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "[[objects]]\nrenderer = \"world\"\nshape = \"cube\"\ncolour = \"red\"\n",
		"no renderer":   "[[objects]]\nshape = \"cube\"\n",
		"syntax error":  "[[objects]\n",
		"type mismatch": "[[objects]]\nrenderer = \"world\"\nsize = \"big\"\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScene([]byte(doc))
			assert.ErrorIs(t, err, core.ErrInvalidScene)
		})
	}
}

func TestBuildPicksTheLayoutVariant(t *testing.T) {
	cube := &ObjectDescription{Name: "c", Shape: SHAPE_CUBE, Skin: "stone", Position: []float32{1, 2, 3}}

	lit, err := cube.Build(systems.LAYOUT_LIT)
	require.NoError(t, err)
	mesh, ok := lit.(*resources.Mesh)
	require.True(t, ok)
	assert.Len(t, mesh.Vertices(), 36)
	assert.Equal(t, metadata.SkinID("stone"), mesh.SkinID())
	assert.InDelta(t, 3, mesh.Matrix().Translation().Z, 1e-5)

	indexed, err := cube.Build(systems.LAYOUT_INDEXED_LIT)
	require.NoError(t, err)
	_, ok = indexed.(*resources.IndexedMesh)
	assert.True(t, ok)

	_, err = cube.Build(systems.LAYOUT_SPRITE)
	assert.ErrorIs(t, err, core.ErrInvalidScene)
}

func TestBuildRejectsBadObjects(t *testing.T) {
	cases := map[string]ObjectDescription{
		"unknown shape": {Shape: "torus"},
		"no shape":      {},
		"bad topology":  {Shape: SHAPE_MESH, Topology: "hexagon"},
		"short vertex":  {Shape: SHAPE_MESH, Topology: "point", Vertices: [][]float32{{1, 2}}},
		"long position": {Shape: SHAPE_CUBE, Position: []float32{1, 2, 3, 4}},
		"bad child":     {Shape: SHAPE_GROUP, Children: []ObjectDescription{{Shape: SHAPE_QUAD}}},
	}
	for name, object := range cases {
		object := object
		t.Run(name, func(t *testing.T) {
			_, err := object.Build(systems.LAYOUT_LIT)
			assert.ErrorIs(t, err, core.ErrInvalidScene)
		})
	}
}

func TestPopulateAndUnload(t *testing.T) {
	sm, backend := newManager(t)
	scene, err := ParseScene([]byte(demoScene))
	require.NoError(t, err)

	instance, err := scene.Populate(sm)
	require.NoError(t, err)
	assert.Equal(t, 4, instance.Len())

	world, _ := sm.Renderer("world")
	ui, _ := sm.Renderer("ui")
	assert.Equal(t, 3, world.Len())
	assert.Equal(t, 1, ui.Len())

	_, err = sm.CompileDirty()
	require.NoError(t, err)
	// floor 24, tower 2x36, axis 2
	assert.Equal(t, uint64(98*systems.LitVertexStride), world.MemoryFootprint())

	pass, err := sm.Device().Begin(0.016)
	require.NoError(t, err)
	stats, err := sm.Draw(pass)
	require.NoError(t, err)
	require.NoError(t, sm.Device().End(pass))
	assert.Equal(t, uint32(5), stats.DrawCalls)
	assert.Equal(t, uint32(0), stats.Failures)
	assert.Equal(t, []metadata.SkinID{"stone", "hud"}, backend.SkinBinds())

	instance.Unload()
	instance.Unload()
	assert.Equal(t, 0, instance.Len())
	assert.Equal(t, 0, world.Len())
	assert.Equal(t, 0, ui.Len())
}

func TestPopulateRollsBackOnFailure(t *testing.T) {
	sm, _ := newManager(t)
	scene := &Scene{Name: "broken", Objects: []ObjectDescription{
		{Name: "ok", Renderer: "world", Shape: SHAPE_CUBE},
		{Name: "lost", Renderer: "nowhere", Shape: SHAPE_CUBE},
	}}

	_, err := scene.Populate(sm)
	assert.ErrorIs(t, err, core.ErrInvalidScene)
	world, _ := sm.Renderer("world")
	assert.Equal(t, 0, world.Len())
}

func TestPopulateOnTheJobSystem(t *testing.T) {
	sm, _ := newManager(t)
	jobs, err := systems.NewJobSystem(3, 0)
	require.NoError(t, err)
	defer jobs.Shutdown()
	sm.UseJobSystem(jobs)

	scene, err := ParseScene([]byte(demoScene))
	require.NoError(t, err)
	instance, err := scene.Populate(sm)
	require.NoError(t, err)
	assert.Equal(t, 4, instance.Len())

	world, _ := sm.Renderer("world")
	_, err = sm.CompileDirty()
	require.NoError(t, err)
	assert.Equal(t, uint64(98*systems.LitVertexStride), world.MemoryFootprint())
	instance.Unload()

	broken := &Scene{Name: "broken", Objects: []ObjectDescription{
		{Name: "ok", Renderer: "world", Shape: SHAPE_CUBE},
		{Name: "flat", Renderer: "world", Shape: SHAPE_QUAD},
	}}
	_, err = broken.Populate(sm)
	assert.ErrorIs(t, err, core.ErrInvalidScene)
	assert.Equal(t, 0, world.Len())
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.toml")
	require.NoError(t, os.WriteFile(path, []byte(demoScene), 0o644))

	scene, err := LoadScene(path)
	require.NoError(t, err)
	assert.Len(t, scene.Objects, 4)

	_, err = LoadScene(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTestbedSceneBuilds(t *testing.T) {
	scene, err := LoadScene(filepath.Join("..", "..", "testbed", "scene.toml"))
	require.NoError(t, err)
	assert.Equal(t, "courtyard", scene.Name)

	layouts := map[string]string{
		"terrain": systems.LAYOUT_INDEXED_LIT,
		"world":   systems.LAYOUT_LIT,
		"ui":      systems.LAYOUT_SPRITE,
	}
	for _, object := range scene.Objects {
		layout, ok := layouts[object.Renderer]
		require.True(t, ok, object.Renderer)
		_, err := object.Build(layout)
		assert.NoError(t, err, object.Name)
	}
}
