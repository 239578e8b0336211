package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer"
)

// RendererConfig describes one batch renderer the SystemManager creates.
type RendererConfig struct {
	Name   string `toml:"name"`
	Layout string `toml:"layout"`
	// OwnsObjects makes the renderer release renderables loaded for it.
	OwnsObjects bool `toml:"owns_objects"`
}

// SystemManager owns the batch renderers of the engine and drives them
// through the compile and draw phases of a frame, in configuration order.
type SystemManager struct {
	device    *renderer.RenderDevice
	renderers []*BatchRenderer
	configs   map[string]RendererConfig
	jobs      *JobSystem
}

func NewSystemManager(device *renderer.RenderDevice, configs []RendererConfig) (*SystemManager, error) {
	sm := &SystemManager{
		device:  device,
		configs: make(map[string]RendererConfig, len(configs)),
	}
	for _, config := range configs {
		if _, ok := sm.configs[config.Name]; ok {
			sm.Shutdown()
			return nil, fmt.Errorf("renderer '%s' configured twice", config.Name)
		}
		layout, err := LayoutByName(config.Layout)
		if err != nil {
			sm.Shutdown()
			return nil, fmt.Errorf("renderer '%s': %w", config.Name, err)
		}
		sm.configs[config.Name] = config
		sm.renderers = append(sm.renderers, NewBatchRenderer(config.Name, layout, device))
	}
	return sm, nil
}

func (sm *SystemManager) Device() *renderer.RenderDevice {
	return sm.device
}

// UseJobSystem hands CPU side work, like building loaded scenes, to js.
func (sm *SystemManager) UseJobSystem(js *JobSystem) {
	sm.jobs = js
}

// Jobs returns the job system, nil when work runs on the calling goroutine.
func (sm *SystemManager) Jobs() *JobSystem {
	return sm.jobs
}

func (sm *SystemManager) Renderer(name string) (*BatchRenderer, bool) {
	for _, r := range sm.renderers {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

func (sm *SystemManager) Renderers() []*BatchRenderer {
	return sm.renderers
}

// OwnsObjects reports the ownership configured for the named renderer.
func (sm *SystemManager) OwnsObjects(name string) bool {
	return sm.configs[name].OwnsObjects
}

// CompileDirty compiles every renderer that changed since its last compile.
// A failing renderer does not stop the others; the errors are joined.
func (sm *SystemManager) CompileDirty() (int, error) {
	compiled := 0
	var errs []error
	for _, r := range sm.renderers {
		if !r.Dirty() {
			continue
		}
		if err := r.Compile(); err != nil {
			errs = append(errs, err)
			continue
		}
		compiled++
	}
	return compiled, errors.Join(errs...)
}

// Draw draws every renderer into pass and sums their stats. Renderers that
// cannot draw this frame are logged and skipped.
func (sm *SystemManager) Draw(pass *renderer.Pass) (DrawStats, error) {
	var total DrawStats
	var errs []error
	for _, r := range sm.renderers {
		stats, err := r.Draw(pass)
		total.add(stats)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// MemoryFootprint sums the packed buffer sizes of every renderer.
func (sm *SystemManager) MemoryFootprint() uint64 {
	var total uint64
	for _, r := range sm.renderers {
		total += r.MemoryFootprint()
	}
	return total
}

// Shutdown destroys the renderers in reverse creation order.
func (sm *SystemManager) Shutdown() {
	for i := len(sm.renderers) - 1; i >= 0; i-- {
		sm.renderers[i].Destroy()
	}
	core.LogDebug("System manager shut down, %d renderers destroyed.", len(sm.renderers))
	sm.renderers = nil
}
