package systems

import (
	"github.com/spaghettifunk/sinapsi/engine/assets"
)

type SystemManager struct {
	JobSystem   *JobSystem
	GraphSystem *GraphSystem
}

func NewSystemManager(assetManager *assets.AssetManager) (*SystemManager, error) {
	js, err := NewJobSystem(2, 64)
	if err != nil {
		return nil, err
	}

	gs, err := NewGraphSystem(&GraphSystemConfig{
		MaxGraphCount: 1000,
	}, js, assetManager)
	if err != nil {
		return nil, err
	}

	return &SystemManager{
		JobSystem:   js,
		GraphSystem: gs,
	}, nil
}

func (sm *SystemManager) Initialize() error {
	if err := sm.GraphSystem.Initialize(); err != nil {
		return err
	}
	return nil
}

// Shutdown stops the systems in the reverse order of their construction.
func (sm *SystemManager) Shutdown() error {
	if err := sm.GraphSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
