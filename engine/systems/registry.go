package systems

import (
	"fmt"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// owned releases the wrapped renderable at most once.
type owned struct {
	object   metadata.Renderable
	released bool
}

func (o *owned) release() bool {
	if o.released {
		return false
	}
	o.released = true
	if r, ok := metadata.AsReleaser(o.object); ok {
		r.Release()
	}
	return true
}

type registration struct {
	id     uint32
	object metadata.Renderable
	// nil when the caller keeps ownership
	owner *owned
}

// Registry is the flat, id addressable list of top-level renderables of one
// renderer. It is only touched from the render thread.
type Registry struct {
	ids        core.IDGenerator
	entries    []*registration
	generation uint64
	destroyed  bool
	logger     *core.Logger
}

func NewRegistry(logger *core.Logger) *Registry {
	if logger == nil {
		logger = core.NewLogger("registry")
	}
	return &Registry{logger: logger}
}

// Add registers object and returns its id. When owns is true the registry
// releases the object on Remove or Destroy.
func (r *Registry) Add(object metadata.Renderable, owns bool) (uint32, error) {
	if r.destroyed {
		return 0, core.ErrRendererDestroyed
	}
	if err := metadata.Validate(object); err != nil {
		r.logger.Error("Renderable rejected.", "err", err)
		return 0, fmt.Errorf("cannot register renderable: %w", err)
	}
	entry := &registration{
		id:     r.ids.Next(),
		object: object,
	}
	if owns {
		entry.owner = &owned{object: object}
	}
	r.entries = append(r.entries, entry)
	r.generation++
	r.logger.Debugf("Renderable #%d added.", entry.id)
	return entry.id, nil
}

// Remove drops the entry with the given id. Unknown ids are logged and ignored.
func (r *Registry) Remove(id uint32) bool {
	for i, entry := range r.entries {
		if entry.id != id {
			continue
		}
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
		if entry.owner != nil {
			entry.owner.release()
		}
		r.generation++
		r.logger.Debugf("Renderable #%d removed.", id)
		return true
	}
	r.logger.Warnf("Renderable #%d doesn't exist. Cannot remove.", id)
	return false
}

func (r *Registry) Get(id uint32) (metadata.Renderable, bool) {
	for _, entry := range r.entries {
		if entry.id == id {
			return entry.object, true
		}
	}
	return nil, false
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Each calls fn for every entry in registration order until fn returns false.
func (r *Registry) Each(fn func(id uint32, object metadata.Renderable) bool) {
	for _, entry := range r.entries {
		if !fn(entry.id, entry.object) {
			return
		}
	}
}

// Generation changes on every Add and Remove.
func (r *Registry) Generation() uint64 {
	return r.generation
}

// Destroy releases every owned renderable exactly once, in registration
// order, and empties the registry. Calling it again does nothing.
func (r *Registry) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	released := 0
	for _, entry := range r.entries {
		if entry.owner != nil && entry.owner.release() {
			released++
		}
	}
	r.entries = nil
	r.generation++
	r.logger.Debugf("Registry destroyed, %d owned renderables released.", released)
}
