package assets

import (
	"time"

	"github.com/google/uuid"
)

// AssetType identifies a family of assets. Handlers register the types they
// produce, and serialized asset references carry the type id of their target.
type AssetType = uuid.UUID

type AssetStatus int

const (
	/** @brief The asset has no data. */
	AssetStatusEmpty AssetStatus = iota
	/** @brief The asset is waiting for a worker. */
	AssetStatusQueued
	/** @brief The asset data is being read. */
	AssetStatusLoading
	/** @brief The asset data is loaded and usable. */
	AssetStatusReady
	/** @brief The last load attempt failed. */
	AssetStatusError
)

func (s AssetStatus) String() string {
	switch s {
	case AssetStatusEmpty:
		return "empty"
	case AssetStatusQueued:
		return "queued"
	case AssetStatusLoading:
		return "loading"
	case AssetStatusReady:
		return "ready"
	case AssetStatusError:
		return "error"
	}
	return "unknown"
}

// AssetData is implemented by every concrete payload a handler produces.
type AssetData interface {
	AssetType() AssetType
}

// Asset pairs identity and payload for one loaded asset instance.
type Asset struct {
	ID         uuid.UUID
	Type       AssetType
	Path       string
	Status     AssetStatus
	Data       AssetData
	LastLoaded time.Time
}

// AssetRef names an asset another asset depends on.
type AssetRef struct {
	ID   uuid.UUID
	Type AssetType
}

// LoadFilter decides which referenced assets a load should follow.
// A nil filter follows everything.
type LoadFilter func(ref AssetRef) bool
