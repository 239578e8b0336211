package headless

import (
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
	"golang.org/x/exp/slices"
)

// FailNextUnmap makes the next unmap report corruption wrapping err.
func (hr *HeadlessRenderer) FailNextUnmap(err error) {
	hr.failNextUnmap = err
}

// FailNextBind makes the next buffer bind return err.
func (hr *HeadlessRenderer) FailNextBind(err error) {
	hr.failNextBind = err
}

// FailNextDraw makes the next draw command return err.
func (hr *HeadlessRenderer) FailNextDraw(err error) {
	hr.failNextDraw = err
}

// Commands returns a copy of every command recorded so far.
func (hr *HeadlessRenderer) Commands() []Command {
	return slices.Clone(hr.commands)
}

// Draws returns the recorded draw commands only, in issue order.
func (hr *HeadlessRenderer) Draws() []Command {
	return hr.filter(Command.IsDraw)
}

// SkinBinds returns the skins bound after the frame reset, in issue order.
func (hr *HeadlessRenderer) SkinBinds() []metadata.SkinID {
	var skins []metadata.SkinID
	for _, cmd := range hr.commands {
		if cmd.Kind == COMMAND_BIND_SKIN && cmd.Skin != metadata.NoSkin {
			skins = append(skins, cmd.Skin)
		}
	}
	return skins
}

func (hr *HeadlessRenderer) ResetCommands() {
	hr.commands = hr.commands[:0]
}

// BufferData returns a copy of the current contents of buffer.
func (hr *HeadlessRenderer) BufferData(buffer *metadata.RenderBuffer) []byte {
	internal, ok := hr.buffers[buffer]
	if !ok {
		return nil
	}
	return slices.Clone(internal.data)
}

// LiveBuffers returns the number of buffers created and not yet destroyed.
func (hr *HeadlessRenderer) LiveBuffers() int {
	return len(hr.buffers)
}

func (hr *HeadlessRenderer) Mode() metadata.RenderMode {
	return hr.mode
}

func (hr *HeadlessRenderer) filter(keep func(Command) bool) []Command {
	var out []Command
	for _, cmd := range hr.commands {
		if keep(cmd) {
			out = append(out, cmd)
		}
	}
	return out
}
