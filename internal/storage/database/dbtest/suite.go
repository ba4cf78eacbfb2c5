// Package dbtest holds the behaviour every database.DB backend must share.
package dbtest

import (
	"context"
	"testing"

	"github.com/LeJamon/goAssetLock/internal/storage/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty database. Cleanup is the caller's job
// (typically via t.Cleanup).
type Factory func(t *testing.T) database.DB

// RunSuite runs the shared backend checks against databases built by open.
func RunSuite(t *testing.T, open Factory) {
	t.Run("ReadWrite", func(t *testing.T) { testReadWrite(t, open(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("Batch", func(t *testing.T) { testBatch(t, open(t)) })
	t.Run("IteratorInclusive", func(t *testing.T) { testIteratorInclusive(t, open(t)) })
	t.Run("IteratorOpenBounds", func(t *testing.T) { testIteratorOpenBounds(t, open(t)) })
}

func testReadWrite(t *testing.T, db database.DB) {
	ctx := context.Background()

	require.NoError(t, db.Write(ctx, []byte("k1"), []byte("v1")))
	val, err := db.Read(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	require.NoError(t, db.Write(ctx, []byte("k1"), []byte("v2")))
	val, err = db.Read(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)
}

func testNotFound(t *testing.T, db database.DB) {
	_, err := db.Read(context.Background(), []byte("missing"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
}

func testDelete(t *testing.T, db database.DB) {
	ctx := context.Background()

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	require.NoError(t, db.Delete(ctx, []byte("k")))

	_, err := db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
}

func testBatch(t *testing.T, db database.DB) {
	ctx := context.Background()

	require.NoError(t, db.Write(ctx, []byte("gone"), []byte("x")))
	err := db.Batch(ctx, []database.BatchOperation{
		{Type: database.BatchPut, Key: []byte("a"), Value: []byte("1")},
		{Type: database.BatchPut, Key: []byte("b"), Value: []byte("2")},
		{Type: database.BatchDelete, Key: []byte("gone")},
	})
	require.NoError(t, err)

	val, err := db.Read(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	val, err = db.Read(ctx, []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)

	_, err = db.Read(ctx, []byte("gone"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
}

func seed(t *testing.T, db database.DB, keys ...string) {
	for _, k := range keys {
		require.NoError(t, db.Write(context.Background(), []byte(k), []byte("v-"+k)))
	}
}

func collect(t *testing.T, it database.Iterator) []string {
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		assert.Equal(t, "v-"+string(it.Key()), string(it.Value()))
	}
	require.NoError(t, it.Error())
	return keys
}

func testIteratorInclusive(t *testing.T, db database.DB) {
	seed(t, db, "a", "b", "c", "d", "e")

	it, err := db.Iterator(context.Background(), []byte("b"), []byte("d"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, collect(t, it))
}

func testIteratorOpenBounds(t *testing.T, db database.DB) {
	seed(t, db, "a", "b", "c")

	it, err := db.Iterator(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, collect(t, it))

	it, err = db.Iterator(context.Background(), []byte("b"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, collect(t, it))
}
