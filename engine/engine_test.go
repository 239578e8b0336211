package engine

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/parcel/engine/config"
	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/headless"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

const twoCubes = `
name = "cubes"

[[objects]]
name = "a"
renderer = "world"
shape = "cube"
skin = "crate"

[[objects]]
name = "b"
renderer = "world"
shape = "cube"
position = [3, 0, 0]
`

const oneSprite = `
name = "hud"

[[objects]]
name = "crosshair"
renderer = "ui"
shape = "quad"
size = [16, 16]
`

// writeScene replaces the file in one rename so the watcher never sees it
// half written.
func writeScene(t *testing.T, path, scene string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(scene), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *Game, *headless.HeadlessRenderer) {
	t.Helper()
	backend := headless.New()
	g := &Game{Config: cfg, Backend: backend}
	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Shutdown() })
	return e, g, backend
}

func TestRunDrawsTheConfiguredFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	writeScene(t, path, twoCubes)

	cfg := config.Default()
	cfg.Frames = 3
	cfg.TargetFPS = 0
	cfg.SceneFile = path
	cfg.Skins = []string{"crate"}

	updates := 0
	var passes []uint64
	e, g, backend := newTestEngine(t, cfg)
	g.FnUpdate = func(deltaTime float64) error {
		updates++
		return nil
	}
	g.FnRender = func(pass *renderer.Pass, deltaTime float64) error {
		passes = append(passes, pass.Frame())
		return nil
	}

	require.NoError(t, e.Run())
	assert.Equal(t, uint64(3), e.FrameCount())
	assert.Equal(t, 3, updates)
	assert.Equal(t, []uint64{1, 2, 3}, passes)
	assert.Len(t, backend.Draws(), 6)
	assert.Equal(t, uint32(2), e.Metrics().DrawCalls)
	assert.Equal(t, uint32(0), e.Metrics().Compiles, "nothing changed after the first frame")

	world, ok := e.SystemManager().Renderer("world")
	require.True(t, ok)
	assert.Equal(t, 2, world.Len())
	assert.Equal(t, uint64(1), world.Stats().Compiles)
}

func TestStopEndsRun(t *testing.T) {
	cfg := config.Default()
	cfg.TargetFPS = 0
	e, g, _ := newTestEngine(t, cfg)
	g.FnUpdate = func(deltaTime float64) error {
		if e.FrameCount() == 4 {
			go e.Stop()
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		e.Stop()
		t.Fatal("engine did not stop")
	}
	assert.GreaterOrEqual(t, e.FrameCount(), uint64(5))
}

func TestFailingUpdateStopsTheEngine(t *testing.T) {
	cfg := config.Default()
	cfg.TargetFPS = 0
	e, g, _ := newTestEngine(t, cfg)
	boom := errors.New("boom")
	g.FnUpdate = func(deltaTime float64) error { return boom }

	assert.ErrorIs(t, e.Run(), boom)
	assert.Equal(t, uint64(0), e.FrameCount())
}

func TestSceneIsReloadedWhenTheFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	writeScene(t, path, twoCubes)

	cfg := config.Default()
	cfg.SceneFile = path
	cfg.WatchScene = true
	cfg.Skins = []string{"crate"}
	e, _, _ := newTestEngine(t, cfg)

	world, _ := e.SystemManager().Renderer("world")
	ui, _ := e.SystemManager().Renderer("ui")
	require.NoError(t, e.Frame(0))
	assert.Equal(t, 2, world.Len())

	writeScene(t, path, oneSprite)
	require.Eventually(t, func() bool {
		if err := e.Frame(0); err != nil {
			return false
		}
		return ui.Len() == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 0, world.Len())
	assert.Equal(t, uint32(1), e.Metrics().DrawCalls)
}

func TestBrokenSceneKeepsThePreviousOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	writeScene(t, path, oneSprite)

	cfg := config.Default()
	cfg.SceneFile = path
	cfg.WatchScene = true
	e, _, _ := newTestEngine(t, cfg)
	ui, _ := e.SystemManager().Renderer("ui")

	writeScene(t, path, "[[objects]\n")
	// give the watcher time to deliver the event, then keep drawing
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, e.Frame(0))
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, ui.Len())
}

func TestNewRejectsVulkanWithoutDevice(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BACKEND_VULKAN
	_, err := New(&Game{Config: cfg})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewUsesDefaults(t *testing.T) {
	g := &Game{}
	e, err := New(g)
	require.NoError(t, err)
	assert.NotNil(t, g.Config)
	assert.Equal(t, EngineStageUninitialized, e.Stage())

	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())
	assert.Error(t, e.Initialize())
	assert.Same(t, e.SystemManager(), g.SystemManager)

	require.NoError(t, e.Shutdown())
	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageShutdown, e.Stage())
}
