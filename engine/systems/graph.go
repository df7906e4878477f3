package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/sinapsi/engine/assets"
	"github.com/spaghettifunk/sinapsi/engine/core"
	"github.com/spaghettifunk/sinapsi/engine/graph"
)

type GraphSystemConfig struct {
	/** @brief The maximum number of graphs that can be resident at once. */
	MaxGraphCount uint32
}

/** @brief Pairs a resident graph asset with its reference bookkeeping. */
type GraphReference struct {
	Asset          *assets.Asset
	ReferenceCount uint64
	AutoRelease    bool
	// Slot id held for as long as the graph stays resident. Reloads keep it.
	InstanceID uint32
}

/** @brief Carries a graph reload between the job callbacks. */
type GraphReloadParams struct {
	Path  string
	Asset *assets.Asset
}

// graphPayload is satisfied by asset payloads that carry runtime graph data.
type graphPayload interface {
	Graph() *graph.Data
}

type GraphSystem struct {
	Config *GraphSystemConfig
	// Hashtable for graph lookups by asset path.
	RegisteredGraphTable map[string]*GraphReference
	mutex                sync.Mutex
	// sub systems
	jobSystem    *JobSystem
	assetManager *assets.AssetManager
	watchHandle  uint32
}

func NewGraphSystem(config *GraphSystemConfig, js *JobSystem, am *assets.AssetManager) (*GraphSystem, error) {
	if config.MaxGraphCount == 0 {
		err := fmt.Errorf("func NewGraphSystem - config.MaxGraphCount must be > 0")
		core.LogFatal(err.Error())
		return nil, err
	}

	return &GraphSystem{
		Config:               config,
		RegisteredGraphTable: make(map[string]*GraphReference),
		jobSystem:            js,
		assetManager:         am,
		watchHandle:          core.InvalidEventHandle,
	}, nil
}

// Initialize hooks the system into the event bus. The event system must be
// up before this runs.
func (gs *GraphSystem) Initialize() error {
	gs.watchHandle = core.EventRegister(core.EVENT_CODE_ASSET_MODIFIED, gs.onAssetModified)
	if gs.watchHandle == core.InvalidEventHandle {
		return fmt.Errorf("graph system failed to register for asset modifications")
	}
	return nil
}

func (gs *GraphSystem) Shutdown() error {
	if gs.watchHandle != core.InvalidEventHandle {
		core.EventUnregister(core.EVENT_CODE_ASSET_MODIFIED, gs.watchHandle)
		gs.watchHandle = core.InvalidEventHandle
	}

	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	// Unload every graph that is still resident.
	for path, ref := range gs.RegisteredGraphTable {
		if ref.Asset != nil {
			if err := gs.assetManager.UnloadAsset(ref.Asset); err != nil {
				core.LogError(err.Error())
			}
			if err := core.IdentifierReleaseID(ref.InstanceID); err != nil {
				core.LogError(err.Error())
			}
		}
		delete(gs.RegisteredGraphTable, path)
	}
	return nil
}

/**
 * @brief Acquires a graph by asset path. If it has not yet been loaded, it is
 * loaded through the asset manager. Internal reference counter is incremented.
 *
 * @param path The asset path of the graph to acquire.
 * @param autoRelease Whether the graph should unload once its reference count reaches 0.
 * @return The runtime graph data if successful; an error otherwise.
 */
func (gs *GraphSystem) Acquire(path string, autoRelease bool) (*graph.Data, error) {
	asset, err := gs.processGraphReference(path, 1, autoRelease)
	if err != nil {
		return nil, err
	}
	payload, ok := asset.Data.(graphPayload)
	if !ok {
		// Wrong asset family at this path, back the reference out again.
		gs.processGraphReference(path, -1, false)
		err := fmt.Errorf("asset at '%s' does not hold graph data", path)
		core.LogError(err.Error())
		return nil, err
	}
	return payload.Graph(), nil
}

/**
 * @brief Releases a graph with the given path. Internal reference counter is
 * decremented. If it reaches 0 and the graph was acquired with autoRelease,
 * the graph is unloaded.
 *
 * @param path The asset path of the graph to release.
 */
func (gs *GraphSystem) Release(path string) {
	if _, err := gs.processGraphReference(path, -1, false); err != nil {
		core.LogError("func graph system Release failed to release graph '%s'", path)
	}
}

// Graph returns the resident graph for path without touching its reference count.
func (gs *GraphSystem) Graph(path string) (*graph.Data, bool) {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	ref, found := gs.RegisteredGraphTable[path]
	if !found || ref.Asset == nil {
		return nil, false
	}
	payload, ok := ref.Asset.Data.(graphPayload)
	if !ok {
		return nil, false
	}
	return payload.Graph(), true
}

func (gs *GraphSystem) processGraphReference(path string, referenceDiff int, autoRelease bool) (*assets.Asset, error) {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	ref, found := gs.RegisteredGraphTable[path]
	if !found {
		// Decrementing a reference that was never acquired.
		if referenceDiff < 0 {
			core.LogWarn("Tried to release non-existent graph: '%s'", path)
			return nil, fmt.Errorf("released non-existent graph: %s", path)
		}
		if uint32(len(gs.RegisteredGraphTable)) >= gs.Config.MaxGraphCount {
			core.LogError("process_graph_reference - Graph system cannot hold anymore graphs. Adjust configuration to allow more.")
			return nil, fmt.Errorf("graph system is full")
		}
		ref = &GraphReference{}
		gs.RegisteredGraphTable[path] = ref
	}

	if ref.ReferenceCount == 0 {
		if referenceDiff > 0 {
			// This can only be changed the first time a graph is acquired.
			ref.AutoRelease = autoRelease
		} else {
			core.LogWarn("Tried to release a graph where autorelease=false, but references was already 0.")
			// Still count this as a success, but warn about it.
			return nil, nil
		}
	}

	if referenceDiff > 0 {
		ref.ReferenceCount++
	} else {
		ref.ReferenceCount--
	}

	// If decrementing, this means a release.
	if referenceDiff < 0 {
		// Once the count reaches 0 and the reference is set to auto-release,
		// unload the graph and drop the table entry.
		if ref.ReferenceCount == 0 && ref.AutoRelease {
			if ref.Asset != nil {
				if err := gs.assetManager.UnloadAsset(ref.Asset); err != nil {
					core.LogError(err.Error())
					return nil, err
				}
				ref.Asset = nil
				if err := core.IdentifierReleaseID(ref.InstanceID); err != nil {
					core.LogError(err.Error())
				}
			}
			delete(gs.RegisteredGraphTable, path)
		}
		return ref.Asset, nil
	}

	// Incrementing. Load the graph on the first acquire.
	if ref.Asset == nil {
		asset, err := gs.assetManager.LoadAsset(path, nil)
		if err != nil {
			ref.ReferenceCount--
			if ref.ReferenceCount == 0 {
				delete(gs.RegisteredGraphTable, path)
			}
			core.LogError("Failed to load graph '%s'.", path)
			return nil, err
		}
		ref.Asset = asset
		ref.InstanceID = core.IdentifierAcquireNewID(ref)
	}
	return ref.Asset, nil
}

func (gs *GraphSystem) onAssetModified(context core.EventContext) {
	event, ok := context.Data.(*core.AssetEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	gs.mutex.Lock()
	ref, found := gs.RegisteredGraphTable[event.Path]
	resident := found && ref.Asset != nil
	gs.mutex.Unlock()

	// Only graphs somebody still holds are worth reloading.
	if !resident {
		return
	}
	gs.reloadGraph(event.Path)
}

// reloadGraph re-reads a changed graph on a job worker and swaps the fresh
// asset into the reference table once it is loaded.
func (gs *GraphSystem) reloadGraph(path string) {
	gs.jobSystem.AddWorkNonBlocking(JobTask{
		JobType:  JOB_TYPE_ASSET_LOAD,
		Priority: JOB_PRIORITY_NORMAL,
		InputParams: []interface{}{
			&GraphReloadParams{Path: path},
		},
		OnStart:    gs.graphReloadJobStart,
		OnComplete: gs.graphReloadJobSuccess,
		OnFailure:  gs.graphReloadJobFail,
	})
}

func (gs *GraphSystem) graphReloadJobStart(params interface{}, resultChan chan<- interface{}) error {
	tmpParams := params.([]interface{})
	reloadParams := tmpParams[0].(*GraphReloadParams)

	asset, err := gs.assetManager.LoadAsset(reloadParams.Path, nil)
	if err != nil {
		core.LogError(err.Error())
		resultChan <- reloadParams
		return err
	}

	reloadParams.Asset = asset
	resultChan <- reloadParams

	return nil
}

func (gs *GraphSystem) graphReloadJobSuccess(paramsChan <-chan interface{}) {
	if params, ok := <-paramsChan; ok {
		reloadParams, ok := params.(*GraphReloadParams)
		if !ok {
			core.LogError("params are not of type *GraphReloadParams")
			return
		}

		gs.mutex.Lock()
		ref, found := gs.RegisteredGraphTable[reloadParams.Path]
		var old *assets.Asset
		if found && ref.Asset != nil {
			old = ref.Asset
			ref.Asset = reloadParams.Asset
		}
		gs.mutex.Unlock()

		if old == nil {
			// The graph was released while the reload job ran.
			if err := gs.assetManager.UnloadAsset(reloadParams.Asset); err != nil {
				core.LogError(err.Error())
			}
			return
		}

		// Destroy the previous payload now that the new one is in place.
		if err := gs.assetManager.UnloadAsset(old); err != nil {
			core.LogError(err.Error())
		}

		core.LogDebug("Successfully reloaded graph '%s'.", reloadParams.Path)
	}
}

func (gs *GraphSystem) graphReloadJobFail(paramsChan <-chan interface{}) {
	if params, ok := <-paramsChan; ok {
		reloadParams := params.(*GraphReloadParams)
		core.LogError("Failed to reload graph '%s'. Keeping the previous version.", reloadParams.Path)
	}
}
