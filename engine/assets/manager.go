package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spaghettifunk/sinapsi/engine/core"
)

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

// AssetManager indexes the asset directory, resolves handlers by type or by
// file suffix and republishes filesystem changes as asset events.
type AssetManager struct {
	assets         map[string]AssetInfo
	handlersByType map[AssetType]Handler
	handlersByExt  map[string]Handler

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:         make(map[string]AssetInfo),
		handlersByType: make(map[AssetType]Handler),
		handlersByExt:  make(map[string]Handler),
		fsnotify:       fsWatch,
		done:           make(chan struct{}),
	}, nil
}

// Initialize indexes assetsDir and starts watching it for changes. Handlers
// should be registered before this runs so the walk can claim their files.
func (am *AssetManager) Initialize(assetsDir string) error {
	go am.start()

	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	am.mutex.RLock()
	closed := am.isClosed
	am.mutex.RUnlock()
	if closed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name, false)
}

// RegisterHandler indexes the handler under every asset type and file suffix
// it claims. Each type and suffix can only have one handler.
func (am *AssetManager) RegisterHandler(handler Handler) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	types := handler.HandledTypes()
	if len(types) == 0 {
		return fmt.Errorf("handler %q declares no asset types", handler.DisplayName())
	}
	for _, assetType := range types {
		if _, exists := am.handlersByType[assetType]; exists {
			return fmt.Errorf("asset type %s already has a handler", assetType)
		}
	}
	for _, ext := range handler.Extensions() {
		if _, exists := am.handlersByExt[normalizeExt(ext)]; exists {
			return fmt.Errorf("extension %q already has a handler", ext)
		}
	}

	for _, assetType := range types {
		am.handlersByType[assetType] = handler
	}
	for _, ext := range handler.Extensions() {
		am.handlersByExt[normalizeExt(ext)] = handler
	}
	return nil
}

func (am *AssetManager) HandlerForType(assetType AssetType) (Handler, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	handler, found := am.handlersByType[assetType]
	return handler, found
}

// HandlerForPath resolves the handler claiming the longest dotted suffix of
// the file name, so "demo.sgraph.hcl" prefers the ".sgraph.hcl" handler over
// a plain ".hcl" one.
func (am *AssetManager) HandlerForPath(path string) (Handler, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	for _, suffix := range pathSuffixes(path) {
		if handler, found := am.handlersByExt[suffix]; found {
			return handler, true
		}
	}
	return nil, false
}

// LoadAsset reads the asset at path with the handler claiming its suffix.
func (am *AssetManager) LoadAsset(path string, filter LoadFilter) (*Asset, error) {
	handler, found := am.HandlerForPath(path)
	if !found {
		return nil, fmt.Errorf("no handler registered for asset: %s", path)
	}

	assetType := handler.HandledTypes()[0]
	asset := &Asset{
		ID:     uuid.New(),
		Type:   assetType,
		Path:   path,
		Status: AssetStatusLoading,
	}
	data, err := handler.CreateAsset(asset.ID, assetType)
	if err != nil {
		asset.Status = AssetStatusError
		return nil, err
	}
	asset.Data = data

	if err := handler.LoadAssetDataFromFile(asset, path, filter); err != nil {
		asset.Status = AssetStatusError
		return nil, err
	}
	asset.Status = AssetStatusReady
	asset.LastLoaded = time.Now()

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: asset.LastLoaded,
	}
	am.mutex.Unlock()

	core.EventPost(core.EventContext{
		Type: core.EVENT_CODE_ASSET_LOADED,
		Data: &core.AssetEvent{ID: asset.ID, Type: assetType, Path: path},
	})
	return asset, nil
}

// SaveAsset writes the asset to path with the handler for its type.
func (am *AssetManager) SaveAsset(asset *Asset, path string) error {
	handler, found := am.HandlerForType(asset.Type)
	if !found {
		return fmt.Errorf("no handler registered for asset type: %s", asset.Type)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := handler.SaveAssetData(asset, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// UnloadAsset destroys the asset payload and reports the unload.
func (am *AssetManager) UnloadAsset(asset *Asset) error {
	if asset.Data == nil {
		return nil
	}
	handler, found := am.HandlerForType(asset.Type)
	if !found {
		return fmt.Errorf("no handler registered for asset type: %s", asset.Type)
	}
	if err := handler.DestroyAsset(asset.Data); err != nil {
		return err
	}
	asset.Data = nil
	asset.Status = AssetStatusEmpty

	core.EventPost(core.EventContext{
		Type: core.EVENT_CODE_ASSET_UNLOADED,
		Data: &core.AssetEvent{ID: asset.ID, Type: asset.Type, Path: asset.Path},
	})
	return nil
}

func (am *AssetManager) Info(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, found := am.assets[path]
	return info, found
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	am.isClosed = true
	close(am.done)
	return nil
}

func (am *AssetManager) start() {
	for {
		select {

		case e := <-am.fsnotify.Events:
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name, false)
				}
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if handler, claimed := am.HandlerForPath(e.Name); claimed {
					am.handleFileEvent(e.Name)
					core.EventPost(core.EventContext{
						Type: core.EVENT_CODE_ASSET_MODIFIED,
						Data: &core.AssetEvent{Type: handler.HandledTypes()[0], Path: e.Name},
					})
				}
			}
			//Can't stat a deleted directory, so just pretend that it's always a directory and
			//try to remove from the watch list...  we really have no clue if it's a directory or not...
			if e.Op&fsnotify.Remove != 0 {
				am.removeAsset(e.Name)
				am.fsnotify.Remove(e.Name)
			}

		case e := <-am.fsnotify.Errors:
			core.LogError(e.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
// this is probably a very racey process. What if a file is added to a folder before we get the watch added?
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	wd = wd + "/" // add trailing slash
	err = filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				if err = am.fsnotify.Remove(walkPath); err != nil {
					return err
				}
			} else {
				if err = am.fsnotify.Add(walkPath); err != nil {
					return err
				}
			}
		} else {
			p := strings.TrimPrefix(walkPath, wd)
			if _, claimed := am.HandlerForPath(p); claimed {
				am.handleFileEvent(p)
			}
		}
		return nil
	})
	return err
}

// Index the created or modified file
func (am *AssetManager) handleFileEvent(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	handler, found := am.handlersByExt[firstClaimedSuffix(am.handlersByExt, path)]
	if !found {
		return
	}
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       handler.HandledTypes()[0],
		LastLoaded: time.Now(),
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func firstClaimedSuffix(byExt map[string]Handler, path string) string {
	for _, suffix := range pathSuffixes(path) {
		if _, found := byExt[suffix]; found {
			return suffix
		}
	}
	return ""
}

// pathSuffixes lists the dotted suffixes of the file name from longest to
// shortest, so "demo.sgraph.hcl" yields ".sgraph.hcl" and ".hcl".
func pathSuffixes(path string) []string {
	base := strings.ToLower(filepath.Base(path))
	var suffixes []string
	for i := 0; i < len(base); i++ {
		if base[i] == '.' {
			suffixes = append(suffixes, base[i:])
		}
	}
	return suffixes
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
