package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/spaghettifunk/sinapsi/engine/assets"
	"github.com/spaghettifunk/sinapsi/engine/assets/handlers"
	"github.com/spaghettifunk/sinapsi/engine/config"
	"github.com/spaghettifunk/sinapsi/engine/core"
	"github.com/spaghettifunk/sinapsi/engine/editor"
	"github.com/spaghettifunk/sinapsi/engine/serialization"
	"github.com/spaghettifunk/sinapsi/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage    Stage
	sessionInstance *Session
	isRunning       bool
	assetManager    *assets.AssetManager
	systemManager   *systems.SystemManager
	settings        *config.Settings
	options         *editor.GraphOptions
	clock           *core.Clock
	lastTime        float64
}

func New(s *Session) (*Engine, error) {
	// Every type that crosses an object stream must be known to the
	// serialize context before the first asset is touched.
	serializeContext := serialization.NewContext()
	if err := handlers.RegisterSerializableTypes(serializeContext); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	serialization.SetDefault(serializeContext)

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	if err := am.RegisterHandler(handlers.NewRuntimeAssetHandler(serializeContext)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	if err := am.RegisterHandler(handlers.NewSourceAssetHandler()); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	sm, err := systems.NewSystemManager(am)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	s.AssetManager = am
	s.SystemManager = sm

	return &Engine{
		currentStage:    EngineStageUninitialized,
		sessionInstance: s,
		clock:           core.NewClock(),
		assetManager:    am,
		systemManager:   sm,
		isRunning:       true,
		lastTime:        0,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	core.LogSetLevel(e.sessionInstance.ApplicationConfig.LogLevel)

	// initialize events
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// register some events
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_OPTION_CHANGED, e.onOptionChanged)
	core.EventRegister(core.EVENT_CODE_ASSET_LOADED, e.onAssetEvent)
	core.EventRegister(core.EVENT_CODE_ASSET_UNLOADED, e.onAssetEvent)

	// open the settings store and the editor options persisted in it
	settingsPath := e.sessionInstance.ApplicationConfig.SettingsPath
	if settingsPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		settingsPath = fmt.Sprintf("%s/settings.toml", wd)
	}
	settings, err := config.Open(settingsPath)
	if err != nil {
		return err
	}
	e.settings = settings
	e.options = editor.LoadGraphOptions(settings)
	e.sessionInstance.Options = e.options

	// initialize subsystems
	assetsDir := e.sessionInstance.ApplicationConfig.AssetsDir
	if assetsDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		assetsDir = fmt.Sprintf("%s/assets", wd)
	}
	if err := e.assetManager.Initialize(assetsDir); err != nil {
		return err
	}

	if err := e.systemManager.Initialize(); err != nil {
		return err
	}

	if err := e.sessionInstance.FnInitialize(); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()

	e.lastTime = e.clock.Elapsed()

	// start goroutine to process all the events around the engine
	go core.ProcessEvents()

	var targetFrameSeconds float64 = 1.0 / 60.0

	for e.isRunning {
		// Update clock and get delta time.
		e.clock.Update()

		var currentTime float64 = e.clock.Elapsed()
		var delta float64 = (currentTime - e.lastTime)

		if err := e.sessionInstance.FnUpdate(delta); err != nil {
			core.LogFatal("Session update failed, shutting down.")
			e.isRunning = false
			break
		}

		// Figure out how long the frame took.
		e.clock.Update()
		var frameElapsedTime float64 = e.clock.Elapsed() - currentTime
		core.MetricsUpdate(frameElapsedTime)

		if e.options.ShowFPS() {
			fps, frameTime := core.MetricsFrame()
			core.LogInfo("FPS: %5.1f (%4.1fms)", fps, frameTime)
		}

		var remainingSeconds float64 = targetFrameSeconds - frameElapsedTime
		if remainingSeconds > 0 {
			// If there is time left, give it back to the OS.
			time.Sleep(time.Duration(remainingSeconds * float64(time.Second)))
		}

		// Update last time
		e.lastTime = currentTime
	}

	return nil
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	if e.sessionInstance.FnShutdown != nil {
		if err := e.sessionInstance.FnShutdown(); err != nil {
			core.LogError(err.Error())
		}
	}

	// editor options outlive the process
	if err := e.options.Save(e.settings); err != nil {
		core.LogError("failed to save editor options: %s", err.Error())
	}

	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	return nil
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		{
			core.LogInfo("EVENT_CODE_APPLICATION_QUIT recieved, shutting down.\n")
			e.isRunning = false
		}
	}
}

func (e *Engine) onOptionChanged(context core.EventContext) {
	oe, ok := context.Data.(*core.OptionChangedEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	core.LogDebug("option `%s` changed", oe.Option)
}

func (e *Engine) onAssetEvent(context core.EventContext) {
	ae, ok := context.Data.(*core.AssetEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	switch context.Type {
	case core.EVENT_CODE_ASSET_LOADED:
		core.LogDebug("asset loaded: %s", ae.Path)
	case core.EVENT_CODE_ASSET_UNLOADED:
		core.LogDebug("asset unloaded: %s", ae.Path)
	}
}
