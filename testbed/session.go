package testbed

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/sinapsi/engine"
	"github.com/spaghettifunk/sinapsi/engine/assets"
	"github.com/spaghettifunk/sinapsi/engine/assets/handlers"
	"github.com/spaghettifunk/sinapsi/engine/core"
	"github.com/spaghettifunk/sinapsi/engine/editor"
	"github.com/spaghettifunk/sinapsi/engine/graph"
	"github.com/spaghettifunk/sinapsi/engine/math"
)

type TestSession struct {
	*engine.Session
}

type sessionState struct {
	graphData *graph.Data
	graphPath string
	animator  *editor.GraphAnimator

	elapsed    float64
	frameCount uint32
}

func NewTestSession() (*TestSession, error) {
	ts := &TestSession{
		Session: &engine.Session{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:         "Sinapsi Graph Editor",
				LogLevel:     core.DebugLevel,
				AssetsDir:    "testbed/assets",
				SettingsPath: "testbed/settings.toml",
			},
			State: &sessionState{},
		},
	}

	ts.FnInitialize = ts.Initialize
	ts.FnUpdate = ts.Update
	ts.FnShutdown = ts.Shutdown

	return ts, nil
}

func (s *TestSession) Initialize() error {
	core.LogDebug("TestSession Initialize fn....")

	if s.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}

	state := s.State.(*sessionState)

	// Compile the hand-authored source graph into its runtime form.
	sourcePath := filepath.Join(s.ApplicationConfig.AssetsDir, "walk_cycle.sgraph.hcl")
	runtimePath := filepath.Join(s.ApplicationConfig.AssetsDir, "walk_cycle.sgraph")

	srcAsset, err := s.AssetManager.LoadAsset(sourcePath, nil)
	if err != nil {
		return err
	}
	source, ok := srcAsset.Data.(*handlers.SourceAsset)
	if !ok {
		return fmt.Errorf("asset %s did not load as a source graph", sourcePath)
	}

	compiled := &assets.Asset{
		ID:   srcAsset.ID,
		Type: handlers.RuntimeAssetType,
		Path: runtimePath,
		Data: &handlers.RuntimeAsset{Data: source.Data},
	}
	if err := s.AssetManager.SaveAsset(compiled, runtimePath); err != nil {
		return err
	}
	if err := s.AssetManager.UnloadAsset(srcAsset); err != nil {
		return err
	}

	// Load the compiled graph back through the graph system.
	data, err := s.SystemManager.GraphSystem.Acquire(runtimePath, true)
	if err != nil {
		return err
	}
	state.graphData = data
	state.graphPath = runtimePath

	order, err := data.ExecutionOrder()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(order))
	for _, id := range order {
		if node := data.FindNode(id); node != nil {
			names = append(names, node.Name)
		}
	}
	core.LogInfo("graph `%s` execution order: %s", data.Name, strings.Join(names, ", "))

	// Lay the nodes out on a row and let the animator walk them there.
	bounds := math.NewExtents2D(math.NewVec2(0, 0), math.NewVec2(1280, 720))
	state.animator = editor.NewGraphAnimator(s.Options, bounds, 4.0)
	for i, node := range data.Nodes {
		state.animator.SetTarget(node.ID, math.NewVec2(float32(120+220*i), 360))
	}

	// Show the frame readout for this run. Persisted on shutdown.
	s.Options.SetShowFPS(true)

	return nil
}

func (s *TestSession) Update(deltaTime float64) error {
	state := s.State.(*sessionState)

	state.elapsed += deltaTime
	state.frameCount++

	moving := state.animator.Animate(state.graphData, deltaTime)
	if !moving {
		core.LogInfo("graph layout settled after %d frames (%.2fs)", state.frameCount, state.elapsed)
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_APPLICATION_QUIT,
		})
	}

	return nil
}

func (s *TestSession) Shutdown() error {
	state := s.State.(*sessionState)

	if state.animator != nil {
		state.animator.ClearTargets()
	}
	if state.graphPath != "" {
		s.SystemManager.GraphSystem.Release(state.graphPath)
	}

	return nil
}
