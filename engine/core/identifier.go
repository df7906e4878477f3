package core

import (
	"fmt"
	"sync"
)

var (
	ownersMutex sync.Mutex
	owners      []interface{}
)

// IdentifierAcquireNewID hands out the index of a free slot in the owner
// table, growing the table when every slot is taken. Safe for concurrent use.
func IdentifierAcquireNewID(owner interface{}) uint32 {
	ownersMutex.Lock()
	defer ownersMutex.Unlock()

	if len(owners) == 0 {
		owners = make([]interface{}, 100)
	}
	length := uint32(len(owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if owners[i] == nil {
			owners[i] = owner
			return i
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	// This means the id will be length - 1
	owners = append(owners, owner)
	length = uint32(len(owners))
	return length - 1
}

func IdentifierReleaseID(id uint32) error {
	ownersMutex.Lock()
	defer ownersMutex.Unlock()

	if len(owners) == 0 {
		err := fmt.Errorf("identifier_release_id called before initialization. identifier_acquire_new_id should have been called first. Nothing was done")
		return err
	}

	length := uint32(len(owners))
	if id >= length {
		err := fmt.Errorf("identifier_release_id: id '%d' out of range (max=%d). Nothing was done", id, length)
		return err
	}

	// Just zero out the entry, making it available for use.
	owners[id] = nil
	return nil
}
