package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/parcel/engine/assets"
	"github.com/spaghettifunk/parcel/engine/config"
	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/platform"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/renderer/headless"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
	"github.com/spaghettifunk/parcel/engine/systems"
)

// Longest delta time handed to the game, in seconds.
const maxFrameDelta = 0.25

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything it owned
	EngineStageShutdown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *config.Config
	isRunning     atomic.Bool
	device        *renderer.RenderDevice
	systemManager *systems.SystemManager
	jobSystem     *systems.JobSystem
	sceneWatcher  *assets.SceneWatcher
	scene         *assets.SceneInstance
	clock         *core.Clock
	metrics       *core.Metrics
	lastTime      float64
	frames        uint64
}

func New(g *Game) (*Engine, error) {
	cfg := g.Config
	if cfg == nil {
		cfg = config.Default()
		g.Config = cfg
	}
	if err := cfg.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(cfg.Level())

	backend := g.Backend
	if backend == nil {
		switch cfg.Backend {
		case config.BACKEND_HEADLESS:
			backend = headless.New()
		default:
			err := fmt.Errorf("the %s backend needs a device created by the application: %w", cfg.Backend, core.ErrInvalidConfig)
			core.LogError(err.Error())
			return nil, err
		}
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		device:       renderer.NewRenderDevice(backend),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine cannot be initialized twice")
	}
	e.currentStage = EngineStageInitializing

	if err := e.device.Initialize(e.config.ApplicationName); err != nil {
		return err
	}
	for _, skin := range e.config.Skins {
		e.device.RegisterSkin(metadata.SkinID(skin))
	}

	sm, err := systems.NewSystemManager(e.device, e.config.Renderers)
	if err != nil {
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	if e.config.Workers > 0 {
		js, err := systems.NewJobSystem(e.config.Workers, e.config.Workers)
		if err != nil {
			return err
		}
		e.jobSystem = js
		sm.UseJobSystem(js)
	}

	if e.config.SceneFile != "" {
		if err := e.loadScene(); err != nil {
			return err
		}
		if e.config.WatchScene {
			w, err := assets.NewSceneWatcher(e.config.SceneFile, 0)
			if err != nil {
				return err
			}
			e.sceneWatcher = w
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine initialized with %d renderers.", len(sm.Renderers()))
	return nil
}

// Run drives frames until Stop is called, a frame fails or the configured
// number of frames was drawn.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64
	if e.config.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / e.config.TargetFPS
	}

	for e.isRunning.Load() {
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := math.Clamp(currentTime-e.lastTime, 0, maxFrameDelta)
		frameStartTime := platform.GetAbsoluteTime()

		if err := e.Frame(delta); err != nil {
			core.LogError("Frame %d failed, shutting down: %s", e.frames, err)
			e.isRunning.Store(false)
			return err
		}

		// Figure out how long the frame took and give the rest back to the OS.
		frameElapsedTime := platform.GetAbsoluteTime() - frameStartTime
		e.metrics.Update(frameElapsedTime)
		if remaining := targetFrameSeconds - frameElapsedTime; remaining > 0 {
			platform.Sleep(remaining * 1000)
		}

		e.lastTime = currentTime
		if e.config.Frames > 0 && e.frames >= e.config.Frames {
			e.isRunning.Store(false)
		}
	}

	fps, frameTime := e.metrics.Frame()
	core.LogInfo("Engine stopped after %d frames (%.1f fps, %.3f ms avg).", e.frames, fps, frameTime)
	return nil
}

// Stop makes Run return after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

/**
 * @brief Runs a single frame: pending scene reloads, the game update, a
 * compile of every changed renderer, then one pass drawn by every renderer
 * and the game. Renderers that fail to compile or draw are logged and
 * skipped; only failures of the pass itself or of the game are returned.
 */
func (e *Engine) Frame(deltaTime float64) error {
	e.metrics.ResetFrameCounters()
	e.reloadSceneIfChanged()

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(deltaTime); err != nil {
			return fmt.Errorf("game update: %w", err)
		}
	}

	compiled, err := e.systemManager.CompileDirty()
	e.metrics.Compiles = uint32(compiled)
	if err != nil {
		core.LogError("Compile failed: %s", err)
	}

	pass, err := e.device.Begin(deltaTime)
	if err != nil {
		return err
	}
	stats, err := e.systemManager.Draw(pass)
	if err != nil {
		core.LogWarn("Some renderers did not draw: %s", err)
	}
	e.metrics.DrawCalls = stats.DrawCalls
	e.metrics.SkinBinds = stats.SkinBinds
	e.metrics.Failures = stats.Failures

	var renderErr error
	if e.gameInstance.FnRender != nil {
		renderErr = e.gameInstance.FnRender(pass, deltaTime)
	}
	if err := e.device.End(pass); err != nil {
		return errors.Join(renderErr, err)
	}
	if renderErr != nil {
		return fmt.Errorf("game render: %w", renderErr)
	}
	e.frames++
	return nil
}

func (e *Engine) loadScene() error {
	scene, err := assets.LoadScene(e.config.SceneFile)
	if err != nil {
		return err
	}
	instance, err := scene.Populate(e.systemManager)
	if err != nil {
		return err
	}
	e.scene.Unload()
	e.scene = instance
	return nil
}

// reloadSceneIfChanged replaces the loaded scene when the watcher saw the
// file change. A broken file keeps the previous scene on screen.
func (e *Engine) reloadSceneIfChanged() {
	if e.sceneWatcher == nil {
		return
	}
	events := e.sceneWatcher.Drain()
	if len(events) == 0 {
		return
	}
	core.LogInfo("Scene file changed (%d events), reloading.", len(events))
	scene, err := assets.LoadScene(e.config.SceneFile)
	if err != nil {
		core.LogError("Scene reload failed, keeping the current scene: %s", err)
		return
	}
	previous := e.scene
	previous.Unload()
	instance, err := scene.Populate(e.systemManager)
	if err != nil {
		core.LogError("Scene reload failed: %s", err)
		e.scene = nil
		return
	}
	e.scene = instance
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.sceneWatcher != nil {
		errs = append(errs, e.sceneWatcher.Close())
		e.sceneWatcher = nil
	}
	if e.systemManager != nil {
		e.scene.Unload()
		e.systemManager.Shutdown()
	}
	if e.jobSystem != nil {
		errs = append(errs, e.jobSystem.Shutdown())
		e.jobSystem = nil
	}
	errs = append(errs, e.device.Shutdown())
	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Device() *renderer.RenderDevice {
	return e.device
}

func (e *Engine) SystemManager() *systems.SystemManager {
	return e.systemManager
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

// FrameCount is the number of frames drawn successfully.
func (e *Engine) FrameCount() uint64 {
	return e.frames
}
