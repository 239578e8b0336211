package renderer

import (
	"fmt"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// RenderDevice owns the backend, the table of known skins and the
// per-frame Begin/End pair handing out a Pass.
type RenderDevice struct {
	backend RendererBackend
	skins   map[metadata.SkinID]struct{}
	pass    *Pass
	frame   uint64
	logger  *core.Logger
}

func NewRenderDevice(backend RendererBackend) *RenderDevice {
	return &RenderDevice{
		backend: backend,
		skins:   make(map[metadata.SkinID]struct{}),
		logger:  core.NewLogger("device"),
	}
}

func (d *RenderDevice) Initialize(appName string) error {
	if err := d.backend.Initialize(&metadata.RendererBackendConfig{ApplicationName: appName}); err != nil {
		return fmt.Errorf("failed to initialize renderer backend: %w", err)
	}
	d.logger.Info("Render device initialized.")
	return nil
}

func (d *RenderDevice) Backend() RendererBackend {
	return d.backend
}

// RegisterSkin makes id bindable. Registering twice is harmless.
func (d *RenderDevice) RegisterSkin(id metadata.SkinID) {
	d.skins[id] = struct{}{}
}

func (d *RenderDevice) UnregisterSkin(id metadata.SkinID) {
	delete(d.skins, id)
}

func (d *RenderDevice) HasSkin(id metadata.SkinID) bool {
	if id == metadata.NoSkin {
		return true
	}
	_, ok := d.skins[id]
	return ok
}

// Begin starts a frame: the Bound State is reset to NoSkin, the screen and
// depth buffers are cleared and a fresh 3D pass is returned. Only one pass
// can be active at a time.
func (d *RenderDevice) Begin(deltaTime float64) (*Pass, error) {
	if d.pass != nil {
		return nil, core.ErrPassInProgress
	}
	if err := d.backend.BeginFrame(deltaTime); err != nil {
		return nil, err
	}
	if err := d.backend.Clear(); err != nil {
		_ = d.backend.EndFrame(deltaTime)
		return nil, err
	}
	if err := d.backend.BindSkin(metadata.NoSkin); err != nil {
		_ = d.backend.EndFrame(deltaTime)
		return nil, err
	}
	d.frame++
	d.pass = newPass(d, d.frame, deltaTime)
	if err := d.pass.SetMode(metadata.RENDER_MODE_3D); err != nil {
		d.pass = nil
		_ = d.backend.EndFrame(deltaTime)
		return nil, err
	}
	return d.pass, nil
}

// End finishes the frame started by Begin.
func (d *RenderDevice) End(pass *Pass) error {
	if pass == nil || pass != d.pass {
		return core.ErrPassNotStarted
	}
	d.pass = nil
	pass.ended = true
	if err := d.backend.EndFrame(pass.deltaTime); err != nil {
		d.logger.Error("RendererEndFrame failed.", "frame", pass.frame, "err", err)
		return err
	}
	return nil
}

func (d *RenderDevice) FrameNumber() uint64 {
	return d.frame
}

func (d *RenderDevice) Shutdown() error {
	if d.pass != nil {
		d.logger.Warn("Shutting down with a pass still in progress.", "frame", d.pass.frame)
		d.pass = nil
	}
	if err := d.backend.Shutdown(); err != nil {
		return err
	}
	d.logger.Info("Render device shut down.")
	return nil
}
