package handlers

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/spaghettifunk/sinapsi/engine/assets"
	"github.com/spaghettifunk/sinapsi/engine/core"
	"github.com/spaghettifunk/sinapsi/engine/graph"
	"github.com/spaghettifunk/sinapsi/engine/serialization"
)

// RuntimeAssetType identifies compiled graph assets.
var RuntimeAssetType = uuid.MustParse("3e2ac8f5-b1aa-4d5c-9c6e-80a4e0f7d213")

var ErrNoSerializeContext = errors.New("no serialize context available")

// RuntimeAsset is the loaded form of a compiled node graph.
type RuntimeAsset struct {
	Data *graph.Data
}

func (ra *RuntimeAsset) AssetType() assets.AssetType {
	return RuntimeAssetType
}

func (ra *RuntimeAsset) Graph() *graph.Data {
	return ra.Data
}

// RuntimeAssetHandler moves compiled graphs between object streams and
// memory. A handler built with a nil context falls back on the default
// serialize context at use time.
type RuntimeAssetHandler struct {
	serializeContext *serialization.Context
}

func NewRuntimeAssetHandler(serializeContext *serialization.Context) *RuntimeAssetHandler {
	return &RuntimeAssetHandler{serializeContext: serializeContext}
}

// RegisterSerializableTypes adds every type the runtime handler reads or
// writes to the given serialize context.
func RegisterSerializableTypes(c *serialization.Context) error {
	return c.RegisterType(graph.DataTypeID, "GraphData", func() interface{} {
		return graph.NewData("")
	})
}

func (h *RuntimeAssetHandler) context() *serialization.Context {
	if h.serializeContext != nil {
		return h.serializeContext
	}
	return serialization.Default()
}

func (h *RuntimeAssetHandler) CreateAsset(id uuid.UUID, assetType assets.AssetType) (assets.AssetData, error) {
	if assetType != RuntimeAssetType {
		return nil, fmt.Errorf("runtime handler asked to create unknown asset type %s", assetType)
	}
	return &RuntimeAsset{Data: graph.NewData("")}, nil
}

func (h *RuntimeAssetHandler) LoadAssetData(asset *assets.Asset, stream io.ReadSeeker, filter assets.LoadFilter) error {
	context := h.context()
	if context == nil {
		core.LogError("can't load runtime graph without a serialize context")
		return ErrNoSerializeContext
	}
	runtimeAsset, ok := asset.Data.(*RuntimeAsset)
	if !ok {
		return fmt.Errorf("asset %s does not hold a runtime graph", asset.ID)
	}

	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := serialization.ReadObjectInto(context, stream, runtimeAsset.Data); err != nil {
		return err
	}
	if err := runtimeAsset.Data.Validate(); err != nil {
		return err
	}

	if filter != nil {
		kept := runtimeAsset.Data.Dependencies[:0]
		for _, dep := range runtimeAsset.Data.Dependencies {
			if filter(assets.AssetRef{ID: dep, Type: RuntimeAssetType}) {
				kept = append(kept, dep)
			}
		}
		runtimeAsset.Data.Dependencies = kept
	}
	return nil
}

func (h *RuntimeAssetHandler) LoadAssetDataFromFile(asset *assets.Asset, path string, filter assets.LoadFilter) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return h.LoadAssetData(asset, f, filter)
}

func (h *RuntimeAssetHandler) SaveAssetData(asset *assets.Asset, w io.Writer) error {
	context := h.context()
	if context == nil {
		core.LogError("can't save runtime graph without a serialize context")
		return ErrNoSerializeContext
	}
	runtimeAsset, ok := asset.Data.(*RuntimeAsset)
	if !ok {
		return fmt.Errorf("asset %s does not hold a runtime graph", asset.ID)
	}

	stream := serialization.NewObjectStream(w, context, serialization.StreamTypeText, 0)
	if err := stream.WriteObject(runtimeAsset.Data); err != nil {
		return err
	}
	return stream.Finalize()
}

func (h *RuntimeAssetHandler) DestroyAsset(data assets.AssetData) error {
	runtimeAsset, ok := data.(*RuntimeAsset)
	if !ok {
		return fmt.Errorf("runtime handler asked to destroy foreign asset data %T", data)
	}
	runtimeAsset.Data = nil
	return nil
}

func (h *RuntimeAssetHandler) HandledTypes() []assets.AssetType {
	return []assets.AssetType{RuntimeAssetType}
}

func (h *RuntimeAssetHandler) Extensions() []string {
	return []string{".sgraph"}
}

func (h *RuntimeAssetHandler) DisplayName() string {
	return "Graph Runtime Data"
}

func (h *RuntimeAssetHandler) Group() string {
	return "Scripting"
}
