package journal

import (
	"bytes"
	"context"
	"testing"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openMemory(t)
	for _, ev := range sampleEvents() {
		require.NoError(t, src.Append(ctx, ev))
	}

	var buf bytes.Buffer
	n, err := src.Export(ctx, &buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	dst := openMemory(t)
	n, err = dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	all, err := dst.List(ctx, escrow.Filter{})
	require.NoError(t, err)
	assert.Equal(t, sampleEvents(), all)

	// a second import leaves the journal unchanged
	_, err = dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	all, err = dst.List(ctx, escrow.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestArchive_ExportAfter(t *testing.T) {
	ctx := context.Background()
	src := openMemory(t)
	for _, ev := range sampleEvents() {
		require.NoError(t, src.Append(ctx, ev))
	}

	var buf bytes.Buffer
	n, err := src.Export(ctx, &buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dst := openMemory(t)
	_, err = dst.Import(ctx, &buf)
	require.NoError(t, err)
	last, err := dst.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), last)
}

func TestArchive_Empty(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	n, err := openMemory(t).Export(ctx, &buf, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotZero(t, buf.Len())
}

func TestArchive_RejectsGarbage(t *testing.T) {
	_, err := openMemory(t).Import(context.Background(), bytes.NewReader([]byte("not an archive")))
	assert.Error(t, err)
}
