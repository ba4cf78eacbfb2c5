package bbolt

import (
	"testing"

	"github.com/LeJamon/goAssetLock/internal/storage/database"
	"github.com/LeJamon/goAssetLock/internal/storage/database/dbtest"
	"github.com/stretchr/testify/require"
)

func TestBboltDB(t *testing.T) {
	dbtest.RunSuite(t, func(t *testing.T) database.DB {
		m := NewManager(t.TempDir())
		t.Cleanup(func() { m.Close() })

		db, err := m.OpenDB("test")
		require.NoError(t, err)
		return db
	})
}

func TestBboltManagerCloseUnknown(t *testing.T) {
	m := NewManager(t.TempDir())
	require.Error(t, m.CloseDB("nope"))
}
