package assets

import (
	"fmt"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
	"github.com/spaghettifunk/parcel/engine/systems"
)

type placement struct {
	renderer *systems.BatchRenderer
	id       uint32
}

// SceneInstance remembers where the objects of a loaded scene were
// registered so the scene can be unloaded again.
type SceneInstance struct {
	Name       string
	placements []placement
}

// Populate builds every object of s and registers it with the renderer it
// names. Objects are built on the job system of sm when it has one and
// registered in file order. Renderers configured to own objects take
// ownership. Nothing stays registered when an object fails.
func (s *Scene) Populate(sm *systems.SystemManager) (*SceneInstance, error) {
	targets := make([]*systems.BatchRenderer, len(s.Objects))
	for i := range s.Objects {
		object := &s.Objects[i]
		r, ok := sm.Renderer(object.Renderer)
		if !ok {
			return nil, fmt.Errorf("object '%s' names unknown renderer '%s': %w", object.Name, object.Renderer, core.ErrInvalidScene)
		}
		targets[i] = r
	}

	built, err := s.build(sm.Jobs(), targets)
	if err != nil {
		return nil, err
	}

	instance := &SceneInstance{Name: s.Name}
	device := sm.Device()
	for i, renderable := range built {
		object := &s.Objects[i]
		object.eachSkin(func(name string) {
			if !device.HasSkin(metadata.SkinID(name)) {
				core.LogWarn("Object '%s' uses unregistered skin '%s', it will be skipped when drawn.", object.Name, name)
			}
		})
		id, err := targets[i].Add(renderable, sm.OwnsObjects(object.Renderer))
		if err != nil {
			instance.Unload()
			return nil, fmt.Errorf("failed to add object '%s' to renderer '%s': %w", object.Name, object.Renderer, err)
		}
		instance.placements = append(instance.placements, placement{renderer: targets[i], id: id})
	}
	core.LogInfo("Scene '%s' loaded with %d objects.", s.Name, len(instance.placements))
	return instance, nil
}

func (s *Scene) build(jobs *systems.JobSystem, targets []*systems.BatchRenderer) ([]metadata.Renderable, error) {
	built := make([]metadata.Renderable, len(s.Objects))
	tasks := make([]func() error, len(s.Objects))
	for i := range s.Objects {
		tasks[i] = func() error {
			renderable, err := s.Objects[i].Build(targets[i].Layout().Name())
			built[i] = renderable
			return err
		}
	}

	if jobs == nil {
		for _, task := range tasks {
			if err := task(); err != nil {
				return nil, err
			}
		}
		return built, nil
	}
	if err := jobs.RunAll(tasks); err != nil {
		return nil, err
	}
	return built, nil
}

// Len is the number of top-level objects still registered.
func (si *SceneInstance) Len() int {
	return len(si.placements)
}

// Unload removes every object of the scene from its renderer. Owned
// objects are released. Calling it twice is a no-op.
func (si *SceneInstance) Unload() {
	if si == nil {
		return
	}
	for _, p := range si.placements {
		p.renderer.Remove(p.id)
	}
	si.placements = nil
}

func (o *ObjectDescription) eachSkin(fn func(name string)) {
	if o.Skin != "" {
		fn(o.Skin)
	}
	for i := range o.Children {
		o.Children[i].eachSkin(fn)
	}
}
