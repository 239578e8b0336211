package testbed

import (
	"fmt"

	"github.com/spaghettifunk/parcel/engine"
	"github.com/spaghettifunk/parcel/engine/config"
	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
	"github.com/spaghettifunk/parcel/engine/resources"
)

const reportEvery = 120

type TestGame struct {
	*engine.Game
}

type gameState struct {
	// three cubes, each one the parent of the next
	cubes   []*resources.Mesh
	pivots  []*resources.Node
	terrain *resources.IndexedMesh
	hud     *resources.Sprite

	frames uint64
}

func NewTestGame(cfg *config.Config) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}
	state := g.State.(*gameState)

	for _, skin := range []metadata.SkinID{"test_material", "paving", "hud"} {
		if !g.SystemManager.Device().HasSkin(skin) {
			g.SystemManager.Device().RegisterSkin(skin)
		}
	}

	// The cubes hang off each other so rotating the first one swings the others.
	sizes := []float32{10, 5, 2}
	offsets := []math.Vec3{math.NewVec3(0, 0, 0), math.NewVec3(10, 0, 1), math.NewVec3(5, 0, 1)}
	var root, parent *resources.Node
	for i, size := range sizes {
		cube := resources.NewMesh(resources.GenerateCube(fmt.Sprintf("test_cube_%d", i+1), size, size, size, 1, 1), "test_material")
		pivot := resources.NewNode(fmt.Sprintf("pivot_%d", i+1), cube)
		pivot.Transform = math.TransformFromPosition(offsets[i])
		if parent == nil {
			root = pivot
		} else {
			parent.Add(pivot)
		}
		parent = pivot
		state.cubes = append(state.cubes, cube)
		state.pivots = append(state.pivots, pivot)
	}
	if err := g.add("world", root); err != nil {
		return err
	}

	state.terrain = resources.NewIndexedMesh(resources.GeneratePlane("terrain", 100, 100, 10, 10, 10, 10), "paving")
	state.terrain.Transform = math.TransformFromPositionRotationScale(
		math.NewVec3(0, -5, 0),
		math.NewQuatFromAxisAngle(math.NewVec3(1, 0, 0), math.DegToRad(-90), true),
		math.NewVec3(1, 1, 1),
	)
	if err := g.add("terrain", state.terrain); err != nil {
		return err
	}

	state.hud = resources.NewSprite("hud", 20, 20, 256, 64, "hud")
	return g.add("ui", state.hud)
}

// add registers object with the named renderer when the configuration has it.
func (g *TestGame) add(name string, object metadata.Renderable) error {
	r, ok := g.SystemManager.Renderer(name)
	if !ok {
		core.LogWarn("No '%s' renderer configured, skipping its testbed objects.", name)
		return nil
	}
	_, err := r.Add(object, g.SystemManager.OwnsObjects(name))
	return err
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)

	// Perform a small rotation on every pivot; transforms are read at draw
	// time so nothing has to be recompiled.
	rotation := math.NewQuatFromAxisAngle(math.NewVec3Up(), float32(0.5*deltaTime), false)
	for _, pivot := range state.pivots {
		pivot.Transform.Rotate(rotation)
	}
	return nil
}

func (g *TestGame) Render(pass *renderer.Pass, deltaTime float64) error {
	state := g.State.(*gameState)
	state.frames++
	if state.frames%reportEvery != 0 {
		return nil
	}
	for _, r := range g.SystemManager.Renderers() {
		stats := r.Stats()
		core.LogDebug("Renderer '%s': %d objects, %d bytes packed, %d compiles.", r.Name(), r.Len(), r.MemoryFootprint(), stats.Compiles)
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("TestGame Shutdown fn....")
	return nil
}
