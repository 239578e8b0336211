package renderer

import (
	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
)

// Pass is the state of one frame shared by every renderer drawing in it:
// the Bound State (the skin currently bound on the GPU) and the transform
// stack. Passes are handed out by RenderDevice.Begin.
type Pass struct {
	device    *RenderDevice
	frame     uint64
	deltaTime float64
	boundSkin metadata.SkinID
	mode      metadata.RenderMode
	stack     []math.Mat4
	ended     bool
}

func newPass(device *RenderDevice, frame uint64, deltaTime float64) *Pass {
	return &Pass{
		device:    device,
		frame:     frame,
		deltaTime: deltaTime,
		boundSkin: metadata.NoSkin,
		stack:     []math.Mat4{math.NewMat4Identity()},
	}
}

func (p *Pass) Frame() uint64 {
	return p.frame
}

func (p *Pass) DeltaTime() float64 {
	return p.deltaTime
}

func (p *Pass) Backend() RendererBackend {
	return p.device.backend
}

// Active reports whether the pass can still be drawn into.
func (p *Pass) Active() bool {
	return !p.ended
}

func (p *Pass) CurrentSkinID() metadata.SkinID {
	return p.boundSkin
}

// BindSkin binds id unless it is already the Bound State. It reports whether
// a bind was issued. Unknown skins leave the Bound State untouched.
func (p *Pass) BindSkin(id metadata.SkinID) (bool, error) {
	if p.ended {
		return false, core.ErrPassNotStarted
	}
	if id == p.boundSkin {
		return false, nil
	}
	if !p.device.HasSkin(id) {
		return false, core.ErrUnknownSkin
	}
	if err := p.device.backend.BindSkin(id); err != nil {
		return false, err
	}
	p.boundSkin = id
	return true, nil
}

func (p *Pass) Mode() metadata.RenderMode {
	return p.mode
}

// SetMode switches between 2D and 3D drawing. The transform stack is reset
// to identity.
func (p *Pass) SetMode(mode metadata.RenderMode) error {
	if p.ended {
		return core.ErrPassNotStarted
	}
	if err := p.device.backend.SetMode(mode); err != nil {
		return err
	}
	if mode != p.mode {
		p.device.logger.Debug("Render mode switched.", "frame", p.frame, "mode", mode)
	}
	p.mode = mode
	p.stack = p.stack[:1]
	p.stack[0] = math.NewMat4Identity()
	return p.device.backend.SetTransform(p.stack[0])
}

// Current returns the cumulative transform at the top of the stack.
func (p *Pass) Current() math.Mat4 {
	return p.stack[len(p.stack)-1]
}

// Depth returns the number of pushed transforms.
func (p *Pass) Depth() int {
	return len(p.stack) - 1
}

// PushTransform composes local with the current transform (local first,
// then the ancestors) and makes the result current.
func (p *Pass) PushTransform(local math.Mat4) error {
	composed := local.Mul(p.Current())
	p.stack = append(p.stack, composed)
	return p.device.backend.SetTransform(composed)
}

func (p *Pass) PopTransform() error {
	if len(p.stack) == 1 {
		return core.ErrTransformUnderflow
	}
	p.stack = p.stack[:len(p.stack)-1]
	return p.device.backend.SetTransform(p.Current())
}
