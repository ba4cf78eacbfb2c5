// Package storage selects a key-value backend by name.
package storage

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goAssetLock/internal/storage/database"
	"github.com/LeJamon/goAssetLock/internal/storage/database/bbolt"
	"github.com/LeJamon/goAssetLock/internal/storage/database/leveldb"
	"github.com/LeJamon/goAssetLock/internal/storage/database/memory"
	"github.com/LeJamon/goAssetLock/internal/storage/database/pebble"
)

// Supported backend names.
const (
	BackendPebble  = "pebble"
	BackendBbolt   = "bbolt"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// Backends lists every name accepted by NewManager.
var Backends = []string{BackendPebble, BackendBbolt, BackendLevelDB, BackendMemory}

// NewManager returns a database manager for backend rooted at path.
// The memory backend ignores path.
func NewManager(backend, path string) (database.Manager, error) {
	switch strings.ToLower(backend) {
	case BackendPebble:
		return pebble.NewManager(path), nil
	case BackendBbolt:
		return bbolt.NewManager(path), nil
	case BackendLevelDB:
		return leveldb.NewManager(path), nil
	case BackendMemory:
		return memory.NewManager(), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", backend)
	}
}
