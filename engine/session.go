package engine

import (
	"github.com/spaghettifunk/sinapsi/engine/assets"
	"github.com/spaghettifunk/sinapsi/engine/editor"
	"github.com/spaghettifunk/sinapsi/engine/systems"
)

// Session is the application half of the engine contract. The engine fills in
// the managers and the editor options during New/Initialize and drives the
// callbacks from its run loop.
type Session struct {
	ApplicationConfig *ApplicationConfig
	AssetManager      *assets.AssetManager
	SystemManager     *systems.SystemManager
	Options           *editor.GraphOptions
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Shutdown func() error
