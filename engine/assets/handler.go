package assets

import (
	"io"

	"github.com/google/uuid"
)

// Handler loads, saves and destroys the payloads of one asset family.
// `AssetData` here allows handlers to produce various asset types.
type Handler interface {
	// CreateAsset builds an empty payload for a fresh asset of the given type.
	CreateAsset(id uuid.UUID, assetType AssetType) (AssetData, error)
	// LoadAssetData fills asset.Data from the stream. The stream position is
	// reset before reading, so a stream handed around between handlers works.
	LoadAssetData(asset *Asset, stream io.ReadSeeker, filter LoadFilter) error
	// LoadAssetDataFromFile fills asset.Data from the file at path.
	LoadAssetDataFromFile(asset *Asset, path string, filter LoadFilter) error
	// SaveAssetData writes asset.Data to w.
	SaveAssetData(asset *Asset, w io.Writer) error
	// DestroyAsset releases the payload.
	DestroyAsset(data AssetData) error
	// HandledTypes lists the asset types this handler serves. The first entry
	// is the type assigned to assets loaded by path.
	HandledTypes() []AssetType
	// Extensions lists the dotted file suffixes this handler claims,
	// such as ".sgraph" or ".sgraph.hcl".
	Extensions() []string
	// DisplayName is the human readable name of the asset family.
	DisplayName() string
	// Group is the editor category for assets of this family.
	Group() string
}
