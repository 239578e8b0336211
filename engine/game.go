package engine

import (
	"github.com/spaghettifunk/parcel/engine/config"
	"github.com/spaghettifunk/parcel/engine/renderer"
	"github.com/spaghettifunk/parcel/engine/systems"
)

type Game struct {
	Config *config.Config
	// Backend replaces the backend named by the configuration. The vulkan
	// backend needs a device created by the application and is passed here.
	Backend       renderer.RendererBackend
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnRender      Render
	FnShutdown    Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render runs after the batch renderers drew into pass, before it ends.
type Render func(pass *renderer.Pass, deltaTime float64) error
type Shutdown func() error
