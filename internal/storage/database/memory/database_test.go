package memory

import (
	"context"
	"testing"

	"github.com/LeJamon/goAssetLock/internal/storage/database"
	"github.com/LeJamon/goAssetLock/internal/storage/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDB(t *testing.T) {
	dbtest.RunSuite(t, func(t *testing.T) database.DB {
		return NewDB()
	})
}

func TestMemoryClosed(t *testing.T) {
	db := NewDB()
	require.NoError(t, db.Close())

	_, err := db.Read(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, database.ErrDBClosed)
}

func TestMemoryManagerReuse(t *testing.T) {
	m := NewManager()
	a, err := m.OpenDB("state")
	require.NoError(t, err)
	require.NoError(t, a.Write(context.Background(), []byte("k"), []byte("v")))

	b, err := m.OpenDB("state")
	require.NoError(t, err)
	val, err := b.Read(context.Background(), []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, m.CloseDB("state"))
	assert.Error(t, m.CloseDB("state"))
}
